package domain

import (
	"context"
	"errors"
	"time"

	"github.com/fintro/receivables/internal/risk"
)

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidCustomer     = errors.New("invalid_customer")
)

type CustomerMetricsRequest struct {
	CustomerID string
	From       *time.Time
	To         *time.Time
}

// CustomerMetricsResponse carries monetary values as fixed two-decimal
// strings so consumers never re-parse floats.
type CustomerMetricsResponse struct {
	TotalOutstanding string `json:"totalOutstanding"`
	DSODays          int    `json:"dsoDays"`
}

type OrgSummaryRequest struct {
	From *time.Time
	To   *time.Time
}

// CustomerAgingSummary is a computed view, freshly allocated per query.
type CustomerAgingSummary struct {
	CustomerID       string    `json:"customerId"`
	InvoiceCount     int       `json:"invoiceCount"`
	TotalBilled      string    `json:"totalBilled"`
	TotalPaid        string    `json:"totalPaid"`
	TotalOutstanding string    `json:"totalOutstanding"`
	WeightedDSODays  int       `json:"weightedDsoDays"`
	RiskTier         risk.Tier `json:"riskTier"`
}

// AgingBucketSummary groups the org's open balance by invoice age. Buckets
// come from policy config and are always emitted in configured order, zeroed
// when empty, so report consumers get a stable shape.
type AgingBucketSummary struct {
	Label        string `json:"label"`
	InvoiceCount int    `json:"invoiceCount"`
	Outstanding  string `json:"outstanding"`
}

// OrgSummaryResponse lists only customers with at least one invoice in the
// requested window; totalCustomers counts the entries, not the org roster.
type OrgSummaryResponse struct {
	TotalCustomers int                    `json:"totalCustomers"`
	Customers      []CustomerAgingSummary `json:"customers"`
	AgingBuckets   []AgingBucketSummary   `json:"agingBuckets"`
}

type Service interface {
	CustomerMetrics(context.Context, CustomerMetricsRequest) (CustomerMetricsResponse, error)
	OrgSummary(context.Context, OrgSummaryRequest) (OrgSummaryResponse, error)
}
