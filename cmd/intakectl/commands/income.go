package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"enrollment/internal/document/income"
)

var incomeText string

var incomeCmd = &cobra.Command{
	Use:   "income <value>",
	Short: "Normalize an income reading and compare it with the scheme ceiling",
	Long: `Normalizes a raw income value the way uploaded certificates are read,
e.g. "Rs. 1,20,000/-" or "1.2 lakh", optionally using the surrounding
certificate text (--text) to disambiguate.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIncome,
}

func init() {
	incomeCmd.Flags().StringVar(&incomeText, "text", "", "surrounding certificate text")
	rootCmd.AddCommand(incomeCmd)
}

func runIncome(cmd *cobra.Command, args []string) error {
	raw := strings.Join(args, " ")
	v := income.Normalize(raw, incomeText)
	if v.IsZero() {
		return fmt.Errorf("no income amount found in %q", raw)
	}
	verdict := "within ceiling"
	if v.GreaterThan(cfg.Intake.IncomeCeiling) {
		verdict = "exceeds ceiling"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s %s)\n", income.FormatINR(v), verdict, income.FormatINR(cfg.Intake.IncomeCeiling))
	return nil
}
