package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"enrollment/pkg/platform/audit/consumer"
	auditpostgres "enrollment/pkg/platform/audit/store/postgres"
)

var auditGroup string

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Materialize and inspect the intake audit trail",
}

var auditConsumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Copy the Kafka audit topic into the audit_events table until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runAuditConsume,
}

var auditTrailCmd = &cobra.Command{
	Use:   "trail <session-id>",
	Short: "Print the audit trail of one session",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditTrail,
}

func init() {
	auditConsumeCmd.Flags().StringVar(&auditGroup, "group", "intake-audit-materializer", "Kafka consumer group")
	auditCmd.AddCommand(auditConsumeCmd, auditTrailCmd)
	rootCmd.AddCommand(auditCmd)
}

func openAuditStore(ctx context.Context) (*auditpostgres.Store, *sql.DB, error) {
	if cfg.Postgres.URL == "" {
		return nil, nil, errors.New("DATABASE_URL is not set")
	}
	db, err := sql.Open("postgres", cfg.Postgres.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit database: %w", err)
	}
	if _, err := db.ExecContext(ctx, auditpostgres.Schema); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("apply audit schema: %w", err)
	}
	return auditpostgres.New(db), db, nil
}

func runAuditConsume(cmd *cobra.Command, _ []string) error {
	if len(cfg.Kafka.Brokers) == 0 {
		return errors.New("KAFKA_BROKERS is not set")
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, db, err := openAuditStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := consumer.New(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, auditGroup, store, log)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "consuming audit topic", "topic", cfg.Kafka.AuditTopic, "group", auditGroup)
	return c.Run(ctx)
}

func runAuditTrail(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	store, db, err := openAuditStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	events, err := store.ListBySession(ctx, args[0])
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tCATEGORY\tACTION\tDECISION\tREASON\tAPPLICATION")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Format(time.RFC3339), e.Category, e.Action, e.Decision, e.Reason, e.ApplicationID)
	}
	return tw.Flush()
}
