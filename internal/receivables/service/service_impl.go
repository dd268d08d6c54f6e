package service

import (
	"context"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fintro/receivables/internal/aging"
	"github.com/fintro/receivables/internal/clock"
	"github.com/fintro/receivables/internal/config"
	ledgerdomain "github.com/fintro/receivables/internal/ledger/domain"
	obsmetrics "github.com/fintro/receivables/internal/observability/metrics"
	"github.com/fintro/receivables/internal/orgcontext"
	"github.com/fintro/receivables/internal/receivables/domain"
	"github.com/fintro/receivables/internal/risk"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    ledgerdomain.Repository
	Policy  *config.ReceivablesConfigHolder
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    ledgerdomain.Repository
	policy  *config.ReceivablesConfigHolder
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("receivables.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		policy:  p.Policy,
		metrics: p.Metrics,
	}
}

func (s *Service) CustomerMetrics(ctx context.Context, req domain.CustomerMetricsRequest) (domain.CustomerMetricsResponse, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || customerID == 0 {
		return domain.CustomerMetricsResponse{}, domain.ErrInvalidCustomer
	}

	invoices, err := s.repo.ListInvoicesByCustomer(ctx, s.db, customerID, ledgerdomain.DateRange{From: req.From, To: req.To})
	if err != nil {
		return domain.CustomerMetricsResponse{}, err
	}

	ref := s.clock.Now().UTC()
	var acc aging.Accumulator
	for _, inv := range invoices {
		acc = acc.Add(inv, ref)
	}

	s.metrics.RecordAgingQuery(ctx, "customer")

	return domain.CustomerMetricsResponse{
		TotalOutstanding: acc.TotalOutstanding.StringFixed(2),
		DSODays:          acc.WeightedDSO(),
	}, nil
}

func (s *Service) OrgSummary(ctx context.Context, req domain.OrgSummaryRequest) (domain.OrgSummaryResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.OrgSummaryResponse{}, domain.ErrInvalidOrganization
	}

	invoices, err := s.repo.ListInvoicesByOrg(ctx, s.db, orgID, ledgerdomain.DateRange{From: req.From, To: req.To})
	if err != nil {
		return domain.OrgSummaryResponse{}, err
	}

	ref := s.clock.Now().UTC()
	buckets := s.policy.Get().AgingBuckets

	// Single grouping pass: running sums per customer plus the org-wide
	// age buckets, then one finalization pass for DSO and tier. Customers
	// without invoices in the window never get an entry.
	groups := make(map[snowflake.ID]aging.Accumulator)
	order := make([]snowflake.ID, 0)
	bucketCounts := make([]int, len(buckets))
	bucketTotals := make([]decimal.Decimal, len(buckets))
	for _, inv := range invoices {
		if _, seen := groups[inv.CustomerID]; !seen {
			order = append(order, inv.CustomerID)
		}
		groups[inv.CustomerID] = groups[inv.CustomerID].Add(inv, ref)

		entry := aging.Age(inv, ref)
		if entry.Outstanding.IsPositive() {
			if idx := bucketIndex(buckets, entry.DaysOutstanding); idx >= 0 {
				bucketCounts[idx]++
				bucketTotals[idx] = bucketTotals[idx].Add(entry.Outstanding)
			}
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	customers := make([]domain.CustomerAgingSummary, 0, len(order))
	for _, customerID := range order {
		acc := groups[customerID]
		dso := acc.WeightedDSO()
		tier := risk.Classify(dso, acc.OutstandingRatio())
		s.metrics.RecordRiskEvaluation(ctx, string(tier))
		customers = append(customers, domain.CustomerAgingSummary{
			CustomerID:       customerID.String(),
			InvoiceCount:     acc.InvoiceCount,
			TotalBilled:      acc.TotalBilled.StringFixed(2),
			TotalPaid:        acc.TotalPaid.StringFixed(2),
			TotalOutstanding: acc.TotalOutstanding.StringFixed(2),
			WeightedDSODays:  dso,
			RiskTier:         tier,
		})
	}

	bucketSummaries := make([]domain.AgingBucketSummary, 0, len(buckets))
	for i, bucket := range buckets {
		bucketSummaries = append(bucketSummaries, domain.AgingBucketSummary{
			Label:        bucket.Label,
			InvoiceCount: bucketCounts[i],
			Outstanding:  bucketTotals[i].StringFixed(2),
		})
	}

	s.metrics.RecordAgingQuery(ctx, "org")

	return domain.OrgSummaryResponse{
		TotalCustomers: len(customers),
		Customers:      customers,
		AgingBuckets:   bucketSummaries,
	}, nil
}

// bucketIndex places an invoice age in the first matching policy bucket,
// -1 when no bucket covers it.
func bucketIndex(buckets []config.AgingBucket, age int) int {
	for i, bucket := range buckets {
		if age < bucket.MinDays {
			continue
		}
		if bucket.MaxDays != nil && age > *bucket.MaxDays {
			continue
		}
		return i
	}
	return -1
}
