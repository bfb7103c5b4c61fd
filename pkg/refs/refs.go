package refs

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Family describes one human-facing reference number series.
type Family struct {
	Prefix string
	// PeriodLayout is the time layout stamped into the number; empty
	// means the series is global (EMP-0001).
	PeriodLayout string
	Width        int
}

var (
	Receipt       = Family{Prefix: "RCP", PeriodLayout: "20060102", Width: 4}
	Auction       = Family{Prefix: "AUC", PeriodLayout: "20060102", Width: 4}
	Claim         = Family{Prefix: "CLM", PeriodLayout: "20060102", Width: 4}
	Repossession  = Family{Prefix: "REPO", PeriodLayout: "2006", Width: 4}
	ExpenseReport = Family{Prefix: "ER", PeriodLayout: "200601", Width: 3}
	ExpenseEntry  = Family{Prefix: "EXP", PeriodLayout: "20060102", Width: 4}
	PayrollRun    = Family{Prefix: "PAY", PeriodLayout: "200601", Width: 3}
	Employee      = Family{Prefix: "EMP", Width: 4}
)

// Next allocates the next number in the family's current period. The
// counter row is claimed inside the caller's transaction, so concurrent
// allocations serialize on the row and numbers never repeat.
func Next(tx *gorm.DB, family Family, now time.Time) (string, error) {
	if tx == nil {
		return "", gorm.ErrInvalidTransaction
	}

	scope := family.Prefix
	period := ""
	if family.PeriodLayout != "" {
		period = now.UTC().Format(family.PeriodLayout)
		scope = family.Prefix + "-" + period
	}

	var last int
	err := tx.Raw(
		`INSERT INTO reference_sequences (scope, last_value, updated_at)
		 VALUES (?, 1, ?)
		 ON CONFLICT (scope) DO UPDATE
		 SET last_value = reference_sequences.last_value + 1, updated_at = ?
		 RETURNING last_value`,
		scope, now.UTC(), now.UTC(),
	).Scan(&last).Error
	if err != nil {
		return "", fmt.Errorf("allocate reference %s: %w", scope, err)
	}

	if period == "" {
		return fmt.Sprintf("%s-%0*d", family.Prefix, family.Width, last), nil
	}
	return fmt.Sprintf("%s-%s-%0*d", family.Prefix, period, family.Width, last), nil
}
