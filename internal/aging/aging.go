package aging

import (
	"time"

	"github.com/fintro/receivables/internal/ledger/domain"
	"github.com/shopspring/decimal"
)

// DaysOutstanding measures invoice age against the issue date, not the
// contractual due date: aging reflects how long extended credit has been
// out, whatever terms were agreed. Partial days round up; issue dates in
// the future clamp to zero.
func DaysOutstanding(invoiceDate, ref time.Time) int {
	diff := ref.Sub(invoiceDate)
	if diff <= 0 {
		return 0
	}
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// Entry is the aged view of one invoice as of a reference date.
type Entry struct {
	Outstanding     decimal.Decimal
	DaysOutstanding int
}

// Age computes the outstanding balance and age of one invoice.
func Age(inv domain.Invoice, ref time.Time) Entry {
	return Entry{
		Outstanding:     inv.Outstanding(),
		DaysOutstanding: DaysOutstanding(inv.InvoiceDate, ref),
	}
}

// Accumulator folds invoices into running sums for one grouping key
// (a customer, or a whole org). The zero value is the identity; Add
// returns a new accumulator, so groups can be reduced independently.
type Accumulator struct {
	InvoiceCount     int
	TotalBilled      decimal.Decimal
	TotalPaid        decimal.Decimal
	TotalOutstanding decimal.Decimal

	// weightedDays accumulates days x outstanding; settled invoices
	// carry zero weight and only count toward the totals.
	weightedDays decimal.Decimal
}

func (a Accumulator) Add(inv domain.Invoice, ref time.Time) Accumulator {
	entry := Age(inv, ref)
	a.InvoiceCount++
	a.TotalBilled = a.TotalBilled.Add(inv.Amount)
	a.TotalPaid = a.TotalPaid.Add(inv.PaidAmount)
	a.TotalOutstanding = a.TotalOutstanding.Add(entry.Outstanding)
	if entry.Outstanding.IsPositive() {
		a.weightedDays = a.weightedDays.Add(entry.Outstanding.Mul(decimal.NewFromInt(int64(entry.DaysOutstanding))))
	}
	return a
}

// WeightedDSO is the outstanding-weighted average age in whole days,
// rounded half-up. Zero by convention when nothing is outstanding.
func (a Accumulator) WeightedDSO() int {
	if !a.TotalOutstanding.IsPositive() {
		return 0
	}
	return int(a.weightedDays.DivRound(a.TotalOutstanding, 8).Round(0).IntPart())
}

// OutstandingRatio is outstanding over billed, zero when nothing was billed.
func (a Accumulator) OutstandingRatio() decimal.Decimal {
	if !a.TotalBilled.IsPositive() {
		return decimal.Zero
	}
	return a.TotalOutstanding.DivRound(a.TotalBilled, 8)
}
