package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fintro/receivables/internal/clock"
	"github.com/fintro/receivables/internal/config"
	ledgerdomain "github.com/fintro/receivables/internal/ledger/domain"
	ledgerrepository "github.com/fintro/receivables/internal/ledger/repository"
	"github.com/fintro/receivables/internal/orgcontext"
	"github.com/fintro/receivables/internal/receivables/domain"
	"github.com/fintro/receivables/internal/risk"
	pkgdb "github.com/fintro/receivables/pkg/db"
)

func setupService(t *testing.T, now time.Time) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	conn, err := pkgdb.NewTest()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&ledgerdomain.Customer{}, &ledgerdomain.Invoice{}, &ledgerdomain.Payment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	svc := New(Params{
		DB:     conn,
		Log:    zap.NewNop(),
		Clock:  clock.NewFakeClock(now),
		Repo:   ledgerrepository.Provide(),
		Policy: config.StaticReceivablesConfig(config.DefaultReceivablesConfig()),
	})
	return svc, conn, node
}

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func seedInvoice(t *testing.T, conn *gorm.DB, node *snowflake.Node, orgID, customerID snowflake.ID, amount, paid string, invoiceDate time.Time, status string) {
	t.Helper()
	inv := ledgerdomain.Invoice{
		ID:            node.Generate(),
		OrgID:         orgID,
		CustomerID:    customerID,
		Amount:        dec(amount),
		PaidAmount:    dec(paid),
		InvoiceDate:   invoiceDate,
		DueDate:       invoiceDate.AddDate(0, 0, 30),
		PaymentStatus: status,
	}
	if err := conn.Create(&inv).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
}

func TestCustomerMetrics(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	svc, conn, node := setupService(t, now)
	orgID := node.Generate()
	customerID := node.Generate()

	seedInvoice(t, conn, node, orgID, customerID, "100000", "0", now.AddDate(0, 0, -40), ledgerdomain.PaymentStatusOpen)
	seedInvoice(t, conn, node, orgID, customerID, "500", "500", now.AddDate(0, 0, -90), ledgerdomain.PaymentStatusPaid)

	resp, err := svc.CustomerMetrics(context.Background(), domain.CustomerMetricsRequest{CustomerID: customerID.String()})
	if err != nil {
		t.Fatalf("customer metrics: %v", err)
	}

	if resp.TotalOutstanding != "100000.00" {
		t.Fatalf("TotalOutstanding = %s, want 100000.00", resp.TotalOutstanding)
	}
	if resp.DSODays != 40 {
		t.Fatalf("DSODays = %d, want 40", resp.DSODays)
	}
}

func TestCustomerMetricsInvalidID(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	svc, _, _ := setupService(t, now)

	_, err := svc.CustomerMetrics(context.Background(), domain.CustomerMetricsRequest{CustomerID: "not-a-number"})
	if !errors.Is(err, domain.ErrInvalidCustomer) {
		t.Fatalf("err = %v, want ErrInvalidCustomer", err)
	}

	_, err = svc.CustomerMetrics(context.Background(), domain.CustomerMetricsRequest{CustomerID: "0"})
	if !errors.Is(err, domain.ErrInvalidCustomer) {
		t.Fatalf("err = %v, want ErrInvalidCustomer for zero id", err)
	}
}

func TestCustomerMetricsEmptyLedger(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	svc, _, node := setupService(t, now)

	resp, err := svc.CustomerMetrics(context.Background(), domain.CustomerMetricsRequest{CustomerID: node.Generate().String()})
	if err != nil {
		t.Fatalf("customer metrics on empty ledger: %v", err)
	}
	if resp.TotalOutstanding != "0.00" || resp.DSODays != 0 {
		t.Fatalf("expected zero metrics, got %+v", resp)
	}
}

func TestOrgSummaryRequiresOrganization(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	svc, _, _ := setupService(t, now)

	_, err := svc.OrgSummary(context.Background(), domain.OrgSummaryRequest{})
	if !errors.Is(err, domain.ErrInvalidOrganization) {
		t.Fatalf("err = %v, want ErrInvalidOrganization", err)
	}
}

func TestOrgSummaryGroupsAndClassifies(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	svc, conn, node := setupService(t, now)
	orgID := node.Generate()
	calm := node.Generate()
	risky := node.Generate()

	// Calm customer: young invoice, mostly paid.
	seedInvoice(t, conn, node, orgID, calm, "1000", "800", now.AddDate(0, 0, -10), ledgerdomain.PaymentStatusPartial)
	// Risky customer: old unpaid invoices.
	seedInvoice(t, conn, node, orgID, risky, "5000", "0", now.AddDate(0, 0, -80), ledgerdomain.PaymentStatusOpen)
	seedInvoice(t, conn, node, orgID, risky, "2000", "0", now.AddDate(0, 0, -70), ledgerdomain.PaymentStatusOpen)

	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	resp, err := svc.OrgSummary(ctx, domain.OrgSummaryRequest{})
	if err != nil {
		t.Fatalf("org summary: %v", err)
	}

	if resp.TotalCustomers != 2 || len(resp.Customers) != 2 {
		t.Fatalf("TotalCustomers = %d (%d entries), want 2", resp.TotalCustomers, len(resp.Customers))
	}

	byID := make(map[string]domain.CustomerAgingSummary, len(resp.Customers))
	for _, c := range resp.Customers {
		byID[c.CustomerID] = c
	}

	calmSummary := byID[calm.String()]
	if calmSummary.InvoiceCount != 1 {
		t.Fatalf("calm InvoiceCount = %d, want 1", calmSummary.InvoiceCount)
	}
	if calmSummary.TotalOutstanding != "200.00" {
		t.Fatalf("calm TotalOutstanding = %s, want 200.00", calmSummary.TotalOutstanding)
	}
	if calmSummary.WeightedDSODays != 10 {
		t.Fatalf("calm WeightedDSODays = %d, want 10", calmSummary.WeightedDSODays)
	}
	if calmSummary.RiskTier != risk.TierLow {
		t.Fatalf("calm RiskTier = %s, want low", calmSummary.RiskTier)
	}

	riskySummary := byID[risky.String()]
	if riskySummary.InvoiceCount != 2 {
		t.Fatalf("risky InvoiceCount = %d, want 2", riskySummary.InvoiceCount)
	}
	// (5000*80 + 2000*70) / 7000 = 77.14 -> 77
	if riskySummary.WeightedDSODays != 77 {
		t.Fatalf("risky WeightedDSODays = %d, want 77", riskySummary.WeightedDSODays)
	}
	if riskySummary.RiskTier != risk.TierHigh {
		t.Fatalf("risky RiskTier = %s, want high", riskySummary.RiskTier)
	}
}

func TestOrgSummaryBucketsOutstandingByAge(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	svc, conn, node := setupService(t, now)
	orgID := node.Generate()
	customerID := node.Generate()

	seedInvoice(t, conn, node, orgID, customerID, "1000", "800", now.AddDate(0, 0, -10), ledgerdomain.PaymentStatusPartial)
	seedInvoice(t, conn, node, orgID, customerID, "300", "0", now.AddDate(0, 0, -45), ledgerdomain.PaymentStatusOpen)
	seedInvoice(t, conn, node, orgID, customerID, "5000", "0", now.AddDate(0, 0, -80), ledgerdomain.PaymentStatusOpen)
	// Settled invoices never land in a bucket, whatever their age.
	seedInvoice(t, conn, node, orgID, customerID, "900", "900", now.AddDate(0, 0, -90), ledgerdomain.PaymentStatusPaid)

	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	resp, err := svc.OrgSummary(ctx, domain.OrgSummaryRequest{})
	if err != nil {
		t.Fatalf("org summary: %v", err)
	}

	if len(resp.AgingBuckets) != 3 {
		t.Fatalf("AgingBuckets = %d entries, want the 3 configured buckets", len(resp.AgingBuckets))
	}

	want := []struct {
		label       string
		count       int
		outstanding string
	}{
		{"0-30", 1, "200.00"},
		{"31-60", 1, "300.00"},
		{"60+", 1, "5000.00"},
	}
	for i, w := range want {
		bucket := resp.AgingBuckets[i]
		if bucket.Label != w.label {
			t.Fatalf("bucket[%d].Label = %s, want %s", i, bucket.Label, w.label)
		}
		if bucket.InvoiceCount != w.count {
			t.Fatalf("bucket[%d].InvoiceCount = %d, want %d", i, bucket.InvoiceCount, w.count)
		}
		if bucket.Outstanding != w.outstanding {
			t.Fatalf("bucket[%d].Outstanding = %s, want %s", i, bucket.Outstanding, w.outstanding)
		}
	}
}

func TestOrgSummaryWindowFiltersCustomers(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	svc, conn, node := setupService(t, now)
	orgID := node.Generate()
	inside := node.Generate()
	outside := node.Generate()

	seedInvoice(t, conn, node, orgID, inside, "100", "0", time.Date(2026, time.May, 10, 0, 0, 0, 0, time.UTC), ledgerdomain.PaymentStatusOpen)
	seedInvoice(t, conn, node, orgID, outside, "100", "0", time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC), ledgerdomain.PaymentStatusOpen)

	from := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	resp, err := svc.OrgSummary(ctx, domain.OrgSummaryRequest{From: &from})
	if err != nil {
		t.Fatalf("org summary: %v", err)
	}

	if resp.TotalCustomers != 1 {
		t.Fatalf("TotalCustomers = %d, want only the customer with activity in window", resp.TotalCustomers)
	}
	if resp.Customers[0].CustomerID != inside.String() {
		t.Fatalf("wrong customer in window: %s", resp.Customers[0].CustomerID)
	}
}

func TestOrgSummaryEmptyOrg(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	svc, _, node := setupService(t, now)

	ctx := orgcontext.WithOrgID(context.Background(), int64(node.Generate()))
	resp, err := svc.OrgSummary(ctx, domain.OrgSummaryRequest{})
	if err != nil {
		t.Fatalf("org summary on empty org: %v", err)
	}
	if resp.TotalCustomers != 0 || len(resp.Customers) != 0 {
		t.Fatalf("expected empty summary, got %+v", resp)
	}
}
