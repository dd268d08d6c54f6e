package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fintro/receivables/internal/ledger/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListInvoicesByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, rng domain.DateRange) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	stmt := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("customer_id = ?", customerID)
	stmt = applyInvoiceRange(stmt, rng)
	err := stmt.
		Order("invoice_date asc, id asc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return normalizeInvoices(invoices), nil
}

func (r *repo) ListInvoicesByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID, rng domain.DateRange) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	stmt := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("org_id = ?", orgID)
	stmt = applyInvoiceRange(stmt, rng)
	err := stmt.
		Order("invoice_date asc, id asc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return normalizeInvoices(invoices), nil
}

func (r *repo) CountOverdueOpen(ctx context.Context, db *gorm.DB, orgID snowflake.ID, asOf time.Time) (int64, error) {
	var row struct {
		Count int64 `gorm:"column:count"`
	}
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) AS count
		 FROM invoices
		 WHERE org_id = ? AND payment_status = ? AND due_date < ?`,
		orgID,
		domain.PaymentStatusOpen,
		asOf,
	).Scan(&row).Error
	if err != nil {
		return 0, err
	}
	return row.Count, nil
}

func (r *repo) ListOverdueOpen(ctx context.Context, db *gorm.DB, orgID snowflake.ID, asOf time.Time) ([]domain.OverdueInvoice, error) {
	var rows []domain.OverdueInvoice
	err := db.WithContext(ctx).Raw(
		`SELECT i.id AS invoice_id,
		        i.customer_id AS customer_id,
		        c.name AS customer_name,
		        i.amount AS amount,
		        i.paid_amount AS paid_amount,
		        i.due_date AS due_date
		 FROM invoices i
		 LEFT JOIN customers c ON c.id = i.customer_id
		 WHERE i.org_id = ? AND i.payment_status = ? AND i.due_date < ?
		 ORDER BY i.due_date asc, i.id asc`,
		orgID,
		domain.PaymentStatusOpen,
		asOf,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for idx := range rows {
		if rows[idx].Amount.IsNegative() {
			rows[idx].Amount = decimal.Zero
		}
		if rows[idx].PaidAmount.IsNegative() {
			rows[idx].PaidAmount = decimal.Zero
		}
	}
	return rows, nil
}

func (r *repo) ListPaymentsByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID, rng domain.DateRange) ([]domain.Payment, error) {
	var payments []domain.Payment
	stmt := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("org_id = ?", orgID)
	if rng.From != nil {
		stmt = stmt.Where("payment_date >= ?", *rng.From)
	}
	if rng.To != nil {
		stmt = stmt.Where("payment_date <= ?", *rng.To)
	}
	err := stmt.
		Order("payment_date asc, id asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	for idx := range payments {
		payments[idx] = payments[idx].Normalize()
	}
	return payments, nil
}

func applyInvoiceRange(stmt *gorm.DB, rng domain.DateRange) *gorm.DB {
	if rng.From != nil {
		stmt = stmt.Where("invoice_date >= ?", *rng.From)
	}
	if rng.To != nil {
		stmt = stmt.Where("invoice_date <= ?", *rng.To)
	}
	return stmt
}

func normalizeInvoices(invoices []domain.Invoice) []domain.Invoice {
	for idx := range invoices {
		invoices[idx] = invoices[idx].Normalize()
	}
	return invoices
}
