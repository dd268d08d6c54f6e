package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	ledgerdomain "github.com/fintro/receivables/internal/ledger/domain"
)

const demoOrgID = snowflake.ID(1)

// EnsureDemoLedger seeds a small demo ledger so a fresh deployment has data
// behind the aggregation endpoints. Safe to run on every startup.
func EnsureDemoLedger(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customers, err := ensureDemoCustomers(ctx, tx, node)
		if err != nil {
			return err
		}
		if err := ensureDemoInvoices(ctx, tx, node, customers); err != nil {
			return err
		}
		return ensureDemoPayments(ctx, tx, node)
	})
}

func ensureDemoCustomers(ctx context.Context, tx *gorm.DB, node *snowflake.Node) ([]ledgerdomain.Customer, error) {
	var existing []ledgerdomain.Customer
	err := tx.WithContext(ctx).
		Where("org_id = ?", demoOrgID).
		Order("id asc").
		Find(&existing).Error
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	now := time.Now().UTC()
	customers := []ledgerdomain.Customer{
		{ID: node.Generate(), OrgID: demoOrgID, Name: "Acme Manufacturing", Email: "billing@acme.example", CreatedAt: now, UpdatedAt: now},
		{ID: node.Generate(), OrgID: demoOrgID, Name: "Northwind Traders", Email: "ap@northwind.example", CreatedAt: now, UpdatedAt: now},
		{ID: node.Generate(), OrgID: demoOrgID, Name: "Globex Logistics", Email: "finance@globex.example", CreatedAt: now, UpdatedAt: now},
	}
	for i := range customers {
		if err := tx.WithContext(ctx).Create(&customers[i]).Error; err != nil {
			return nil, err
		}
	}
	return customers, nil
}

func ensureDemoInvoices(ctx context.Context, tx *gorm.DB, node *snowflake.Node, customers []ledgerdomain.Customer) error {
	var count int64
	err := tx.WithContext(ctx).
		Model(&ledgerdomain.Invoice{}).
		Where("org_id = ?", demoOrgID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 || len(customers) == 0 {
		return nil
	}

	now := time.Now().UTC()
	type row struct {
		customer int
		amount   string
		paid     string
		ageDays  int
		dueDays  int
		status   string
	}
	rows := []row{
		{0, "120000.00", "120000.00", 75, 45, ledgerdomain.PaymentStatusPaid},
		{0, "80000.00", "20000.00", 50, 20, ledgerdomain.PaymentStatusPartial},
		{0, "45000.00", "0.00", 12, -18, ledgerdomain.PaymentStatusOpen},
		{1, "250000.00", "0.00", 95, 65, ledgerdomain.PaymentStatusOpen},
		{1, "60000.00", "60000.00", 40, 10, ledgerdomain.PaymentStatusPaid},
		{2, "30000.00", "10000.00", 25, -5, ledgerdomain.PaymentStatusPartial},
	}
	for _, r := range rows {
		if r.customer >= len(customers) {
			continue
		}
		amount, err := decimal.NewFromString(r.amount)
		if err != nil {
			return err
		}
		paid, err := decimal.NewFromString(r.paid)
		if err != nil {
			return err
		}
		inv := ledgerdomain.Invoice{
			ID:            node.Generate(),
			OrgID:         demoOrgID,
			CustomerID:    customers[r.customer].ID,
			Amount:        amount,
			PaidAmount:    paid,
			InvoiceDate:   now.AddDate(0, 0, -r.ageDays),
			DueDate:       now.AddDate(0, 0, -r.dueDays),
			PaymentStatus: r.status,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.WithContext(ctx).Create(&inv).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureDemoPayments(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var count int64
	err := tx.WithContext(ctx).
		Model(&ledgerdomain.Payment{}).
		Where("org_id = ?", demoOrgID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	type row struct {
		amount  string
		ptype   string
		ageDays int
	}
	rows := []row{
		{"120000.00", ledgerdomain.PaymentTypeInflow, 70},
		{"20000.00", ledgerdomain.PaymentTypeInflow, 35},
		{"60000.00", ledgerdomain.PaymentTypeInflow, 30},
		{"10000.00", ledgerdomain.PaymentTypeInflow, 18},
		{"45000.00", ledgerdomain.PaymentTypeOutflow, 28},
		{"38000.00", ledgerdomain.PaymentTypeOutflow, 14},
		{"41000.00", ledgerdomain.PaymentTypeOutflow, 3},
	}
	for _, r := range rows {
		amount, err := decimal.NewFromString(r.amount)
		if err != nil {
			return err
		}
		p := ledgerdomain.Payment{
			ID:          node.Generate(),
			OrgID:       demoOrgID,
			Amount:      amount,
			PaymentType: r.ptype,
			PaymentDate: now.AddDate(0, 0, -r.ageDays),
			CreatedAt:   now,
		}
		if err := tx.WithContext(ctx).Create(&p).Error; err != nil {
			return err
		}
	}
	return nil
}
