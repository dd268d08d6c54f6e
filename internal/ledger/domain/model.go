package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	PaymentStatusOpen    = "open"
	PaymentStatusPartial = "partial"
	PaymentStatusPaid    = "paid"
)

const (
	PaymentTypeInflow  = "inflow"
	PaymentTypeOutflow = "outflow"
)

type Customer struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID      `gorm:"not null;index" json:"organization_id"`
	Name      string            `gorm:"not null" json:"name"`
	Email     string            `gorm:"not null" json:"email"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

type Invoice struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID    `gorm:"not null;index" json:"organization_id"`
	CustomerID    snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	Amount        decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	PaidAmount    decimal.Decimal `gorm:"type:numeric;not null" json:"paid_amount"`
	InvoiceDate   time.Time       `gorm:"not null" json:"invoice_date"`
	DueDate       time.Time       `gorm:"not null" json:"due_date"`
	PaymentStatus string          `gorm:"not null;default:open" json:"payment_status"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

type Payment struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID    `gorm:"not null;index" json:"organization_id"`
	Amount      decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	PaymentType string          `gorm:"not null" json:"payment_type"`
	PaymentDate time.Time       `gorm:"not null" json:"payment_date"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// Normalize coerces stored values into the canonical shape the calculators
// assume: amounts never negative, status lowercase. Rows are normalized once
// at the store boundary so nothing downstream branches on malformed input.
func (i Invoice) Normalize() Invoice {
	if i.Amount.IsNegative() {
		i.Amount = decimal.Zero
	}
	if i.PaidAmount.IsNegative() {
		i.PaidAmount = decimal.Zero
	}
	switch i.PaymentStatus {
	case PaymentStatusOpen, PaymentStatusPartial, PaymentStatusPaid:
	default:
		i.PaymentStatus = PaymentStatusOpen
	}
	return i
}

// Outstanding is the unpaid balance, clamped to zero when paid_amount
// exceeds amount.
func (i Invoice) Outstanding() decimal.Decimal {
	outstanding := i.Amount.Sub(i.PaidAmount)
	if outstanding.IsNegative() {
		return decimal.Zero
	}
	return outstanding
}

// Normalize clamps negative amounts to zero. The payment type is left
// untouched: the cashflow aggregator folds anything that is not exactly
// "inflow" into the outflow bucket.
func (p Payment) Normalize() Payment {
	if p.Amount.IsNegative() {
		p.Amount = decimal.Zero
	}
	return p
}
