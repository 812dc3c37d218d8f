// Package linkage answers whether a primary and a secondary identity number
// belong together in external records, and what income those records hold
// for an applicant.
package linkage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	dErrors "enrollment/pkg/domain-errors"
)

// Registry is the identity-linkage collaborator.
type Registry interface {
	IsLinked(ctx context.Context, primaryID, secondaryID string) (bool, error)
	// LookupKnownIncome reports the recorded annual income, if any.
	LookupKnownIncome(ctx context.Context, primaryID string) (amount decimal.Decimal, found bool, err error)
}

func classify(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg+" timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, msg+" failed")
}
