package aging

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintro/receivables/internal/ledger/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestDaysOutstanding(t *testing.T) {
	issued := date(2026, time.March, 1)

	cases := []struct {
		name string
		ref  time.Time
		want int
	}{
		{"same instant", issued, 0},
		{"issued in the future", date(2026, time.February, 20), 0},
		{"exact whole days", issued.AddDate(0, 0, 40), 40},
		{"partial day rounds up", issued.Add(24*time.Hour + time.Minute), 2},
		{"under one day rounds up", issued.Add(3 * time.Hour), 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysOutstanding(issued, tc.ref); got != tc.want {
				t.Fatalf("DaysOutstanding = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestAccumulatorSingleInvoice(t *testing.T) {
	ref := date(2026, time.April, 10)
	inv := domain.Invoice{
		Amount:      dec("100000"),
		PaidAmount:  dec("0"),
		InvoiceDate: ref.AddDate(0, 0, -40),
	}

	var acc Accumulator
	acc = acc.Add(inv, ref)

	if got := acc.WeightedDSO(); got != 40 {
		t.Fatalf("WeightedDSO = %d, want 40", got)
	}
	if got := acc.TotalOutstanding.StringFixed(2); got != "100000.00" {
		t.Fatalf("TotalOutstanding = %s, want 100000.00", got)
	}
}

func TestAccumulatorWeightedAverageRoundsHalfUp(t *testing.T) {
	ref := date(2026, time.April, 10)

	// (100*5 + 300*15) / 400 = 12.5 rounds to 13.
	var acc Accumulator
	acc = acc.Add(domain.Invoice{
		Amount:      dec("100"),
		InvoiceDate: ref.AddDate(0, 0, -5),
	}, ref)
	acc = acc.Add(domain.Invoice{
		Amount:      dec("300"),
		InvoiceDate: ref.AddDate(0, 0, -15),
	}, ref)

	if got := acc.WeightedDSO(); got != 13 {
		t.Fatalf("WeightedDSO = %d, want 13", got)
	}
}

func TestAccumulatorSettledInvoicesCarryNoWeight(t *testing.T) {
	ref := date(2026, time.April, 10)

	var acc Accumulator
	acc = acc.Add(domain.Invoice{
		Amount:      dec("300"),
		InvoiceDate: ref.AddDate(0, 0, -10),
	}, ref)
	// Fully paid 90 days ago; counts toward totals but not the average.
	acc = acc.Add(domain.Invoice{
		Amount:      dec("500"),
		PaidAmount:  dec("500"),
		InvoiceDate: ref.AddDate(0, 0, -90),
	}, ref)

	if got := acc.WeightedDSO(); got != 10 {
		t.Fatalf("WeightedDSO = %d, want 10", got)
	}
	if acc.InvoiceCount != 2 {
		t.Fatalf("InvoiceCount = %d, want 2", acc.InvoiceCount)
	}
	if got := acc.TotalPaid.StringFixed(2); got != "500.00" {
		t.Fatalf("TotalPaid = %s, want 500.00", got)
	}
}

func TestAccumulatorZeroOutstanding(t *testing.T) {
	ref := date(2026, time.April, 10)

	var acc Accumulator
	acc = acc.Add(domain.Invoice{
		Amount:      dec("500"),
		PaidAmount:  dec("500"),
		InvoiceDate: ref.AddDate(0, 0, -30),
	}, ref)

	if got := acc.WeightedDSO(); got != 0 {
		t.Fatalf("WeightedDSO = %d, want 0 when nothing is outstanding", got)
	}
}

func TestAccumulatorEmptyIsIdentity(t *testing.T) {
	var acc Accumulator
	if got := acc.WeightedDSO(); got != 0 {
		t.Fatalf("WeightedDSO on empty accumulator = %d, want 0", got)
	}
	if !acc.OutstandingRatio().IsZero() {
		t.Fatalf("OutstandingRatio on empty accumulator = %s, want 0", acc.OutstandingRatio())
	}
}

func TestAccumulatorOrderIndependent(t *testing.T) {
	ref := date(2026, time.April, 10)
	invoices := []domain.Invoice{
		{Amount: dec("100"), InvoiceDate: ref.AddDate(0, 0, -5)},
		{Amount: dec("300"), PaidAmount: dec("120"), InvoiceDate: ref.AddDate(0, 0, -45)},
		{Amount: dec("900"), PaidAmount: dec("900"), InvoiceDate: ref.AddDate(0, 0, -70)},
	}

	var forward, backward Accumulator
	for _, inv := range invoices {
		forward = forward.Add(inv, ref)
	}
	for i := len(invoices) - 1; i >= 0; i-- {
		backward = backward.Add(invoices[i], ref)
	}

	if forward.WeightedDSO() != backward.WeightedDSO() {
		t.Fatalf("WeightedDSO differs by order: %d vs %d", forward.WeightedDSO(), backward.WeightedDSO())
	}
	if !forward.TotalOutstanding.Equal(backward.TotalOutstanding) {
		t.Fatalf("TotalOutstanding differs by order: %s vs %s", forward.TotalOutstanding, backward.TotalOutstanding)
	}
}

func TestOutstandingRatio(t *testing.T) {
	ref := date(2026, time.April, 10)

	var acc Accumulator
	if !acc.OutstandingRatio().IsZero() {
		t.Fatalf("ratio without billing = %s, want 0", acc.OutstandingRatio())
	}

	acc = acc.Add(domain.Invoice{
		Amount:      dec("200"),
		PaidAmount:  dec("50"),
		InvoiceDate: ref.AddDate(0, 0, -3),
	}, ref)

	if got := acc.OutstandingRatio(); !got.Equal(dec("0.75")) {
		t.Fatalf("OutstandingRatio = %s, want 0.75", got)
	}
}
