package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidCustomer     = errors.New("invalid_customer")
)

// DateRange bounds a query window; either side may be open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// OverdueInvoice is an open invoice past its due date, joined with the
// customer it belongs to, as consumed by the collections queue.
type OverdueInvoice struct {
	InvoiceID    snowflake.ID    `gorm:"column:invoice_id"`
	CustomerID   snowflake.ID    `gorm:"column:customer_id"`
	CustomerName string          `gorm:"column:customer_name"`
	Amount       decimal.Decimal `gorm:"column:amount"`
	PaidAmount   decimal.Decimal `gorm:"column:paid_amount"`
	DueDate      time.Time       `gorm:"column:due_date"`
}

// Repository reads ledger snapshots. The engine never writes through it;
// ingestion is owned by upstream accounting integrations.
type Repository interface {
	ListInvoicesByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, rng DateRange) ([]Invoice, error)
	ListInvoicesByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID, rng DateRange) ([]Invoice, error)
	CountOverdueOpen(ctx context.Context, db *gorm.DB, orgID snowflake.ID, asOf time.Time) (int64, error)
	ListOverdueOpen(ctx context.Context, db *gorm.DB, orgID snowflake.ID, asOf time.Time) ([]OverdueInvoice, error)
	ListPaymentsByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID, rng DateRange) ([]Payment, error)
}
