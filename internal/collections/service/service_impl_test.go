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
	"github.com/fintro/receivables/internal/collections/domain"
	"github.com/fintro/receivables/internal/config"
	ledgerdomain "github.com/fintro/receivables/internal/ledger/domain"
	ledgerrepository "github.com/fintro/receivables/internal/ledger/repository"
	"github.com/fintro/receivables/internal/orgcontext"
	pkgdb "github.com/fintro/receivables/pkg/db"
)

func setupService(t *testing.T, now time.Time, policy config.ReceivablesConfig) (domain.Service, *gorm.DB, *snowflake.Node) {
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
		Policy: config.StaticReceivablesConfig(policy),
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

func seedCustomer(t *testing.T, conn *gorm.DB, node *snowflake.Node, orgID snowflake.ID, name string) snowflake.ID {
	t.Helper()
	customer := ledgerdomain.Customer{
		ID:    node.Generate(),
		OrgID: orgID,
		Name:  name,
		Email: name + "@example.test",
	}
	if err := conn.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer.ID
}

func seedInvoice(t *testing.T, conn *gorm.DB, node *snowflake.Node, orgID, customerID snowflake.ID, amount, paid string, invoiceDate, dueDate time.Time, status string) snowflake.ID {
	t.Helper()
	inv := ledgerdomain.Invoice{
		ID:            node.Generate(),
		OrgID:         orgID,
		CustomerID:    customerID,
		Amount:        dec(amount),
		PaidAmount:    dec(paid),
		InvoiceDate:   invoiceDate,
		DueDate:       dueDate,
		PaymentStatus: status,
	}
	if err := conn.Create(&inv).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return inv.ID
}

func TestQueueRequiresOrganization(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	svc, _, _ := setupService(t, now, config.DefaultReceivablesConfig())

	_, err := svc.Queue(context.Background(), domain.QueueRequest{})
	if !errors.Is(err, domain.ErrInvalidOrganization) {
		t.Fatalf("err = %v, want ErrInvalidOrganization", err)
	}
}

func TestQueueOrdersByPriority(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	svc, conn, node := setupService(t, now, config.DefaultReceivablesConfig())
	orgID := node.Generate()

	small := seedCustomer(t, conn, node, orgID, "small-debt")
	large := seedCustomer(t, conn, node, orgID, "large-debt")

	// Both customers carry a single old unpaid invoice, so both classify
	// high; the larger, older balance must come out first.
	smallInv := seedInvoice(t, conn, node, orgID, small, "100", "0",
		now.AddDate(0, 0, -80), now.AddDate(0, 0, -10), ledgerdomain.PaymentStatusOpen)
	largeInv := seedInvoice(t, conn, node, orgID, large, "10000", "0",
		now.AddDate(0, 0, -120), now.AddDate(0, 0, -60), ledgerdomain.PaymentStatusOpen)

	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	resp, err := svc.Queue(ctx, domain.QueueRequest{})
	if err != nil {
		t.Fatalf("queue: %v", err)
	}

	if resp.TotalOverdue != 2 || len(resp.Items) != 2 {
		t.Fatalf("TotalOverdue = %d with %d items, want 2/2", resp.TotalOverdue, len(resp.Items))
	}
	if resp.Items[0].InvoiceID != largeInv.String() {
		t.Fatalf("first item = %s, want the large overdue invoice", resp.Items[0].InvoiceID)
	}
	if resp.Items[1].InvoiceID != smallInv.String() {
		t.Fatalf("second item = %s, want the small overdue invoice", resp.Items[1].InvoiceID)
	}

	first := resp.Items[0]
	if first.RiskScore != 90 {
		t.Fatalf("RiskScore = %d, want 90 for a high-tier customer", first.RiskScore)
	}
	// 90 * 60 days * 10000 outstanding.
	if first.Priority != "54000000.00" {
		t.Fatalf("Priority = %s, want 54000000.00", first.Priority)
	}
	if first.CustomerName != "large-debt" {
		t.Fatalf("CustomerName = %q, want large-debt", first.CustomerName)
	}
}

func TestQueueSkipsSettledOverdueRows(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	svc, conn, node := setupService(t, now, config.DefaultReceivablesConfig())
	orgID := node.Generate()
	customerID := seedCustomer(t, conn, node, orgID, "overpaid")

	// Open status but nothing outstanding: stays out of the queue.
	seedInvoice(t, conn, node, orgID, customerID, "100", "100",
		now.AddDate(0, 0, -60), now.AddDate(0, 0, -30), ledgerdomain.PaymentStatusOpen)

	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	resp, err := svc.Queue(ctx, domain.QueueRequest{})
	if err != nil {
		t.Fatalf("queue: %v", err)
	}

	if resp.TotalOverdue != 1 {
		t.Fatalf("TotalOverdue = %d, want 1 (row still counted)", resp.TotalOverdue)
	}
	if len(resp.Items) != 0 {
		t.Fatalf("items = %d, want 0 for fully covered invoice", len(resp.Items))
	}
}

func TestQueueTopBound(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	policy := config.DefaultReceivablesConfig()
	policy.CollectionsTopDefault = 2
	svc, conn, node := setupService(t, now, policy)
	orgID := node.Generate()
	customerID := seedCustomer(t, conn, node, orgID, "busy")

	for i := 1; i <= 5; i++ {
		seedInvoice(t, conn, node, orgID, customerID, "100", "0",
			now.AddDate(0, 0, -60-i), now.AddDate(0, 0, -i), ledgerdomain.PaymentStatusOpen)
	}

	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))

	resp, err := svc.Queue(ctx, domain.QueueRequest{})
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if resp.TotalOverdue != 5 {
		t.Fatalf("TotalOverdue = %d, want 5", resp.TotalOverdue)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want the configured default of 2", len(resp.Items))
	}

	resp, err = svc.Queue(ctx, domain.QueueRequest{Top: 4})
	if err != nil {
		t.Fatalf("queue with top: %v", err)
	}
	if len(resp.Items) != 4 {
		t.Fatalf("items = %d, want 4", len(resp.Items))
	}
}

func TestQueueSuccessProbability(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	svc, conn, node := setupService(t, now, config.DefaultReceivablesConfig())
	orgID := node.Generate()
	customerID := seedCustomer(t, conn, node, orgID, "mixed-history")

	// Three invoices, one fully paid: reliability 1/3. The two open ones
	// are old and unpaid, so the customer classifies high (score 90).
	seedInvoice(t, conn, node, orgID, customerID, "300", "300",
		now.AddDate(0, 0, -200), now.AddDate(0, 0, -170), ledgerdomain.PaymentStatusPaid)
	seedInvoice(t, conn, node, orgID, customerID, "1000", "0",
		now.AddDate(0, 0, -100), now.AddDate(0, 0, -70), ledgerdomain.PaymentStatusOpen)
	seedInvoice(t, conn, node, orgID, customerID, "1000", "0",
		now.AddDate(0, 0, -90), now.AddDate(0, 0, -60), ledgerdomain.PaymentStatusOpen)

	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	resp, err := svc.Queue(ctx, domain.QueueRequest{})
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(resp.Items))
	}

	// 0.6*(1/3) + 0.4*(1-0.9) = 0.24.
	got := resp.Items[0].SuccessProbability
	if got < 0.2399 || got > 0.2401 {
		t.Fatalf("SuccessProbability = %v, want ~0.24", got)
	}
}

func TestSuccessProbabilityClamps(t *testing.T) {
	if got := successProbability(0, 100); got != 0.05 {
		t.Fatalf("floor clamp = %v, want 0.05", got)
	}
	if got := successProbability(1, 0); got != 0.95 {
		t.Fatalf("ceiling clamp = %v, want 0.95", got)
	}
}

func TestQueueEmptyOrg(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	svc, _, node := setupService(t, now, config.DefaultReceivablesConfig())

	ctx := orgcontext.WithOrgID(context.Background(), int64(node.Generate()))
	resp, err := svc.Queue(ctx, domain.QueueRequest{})
	if err != nil {
		t.Fatalf("queue on empty org: %v", err)
	}
	if resp.TotalOverdue != 0 || len(resp.Items) != 0 {
		t.Fatalf("expected empty queue, got %+v", resp)
	}
}
