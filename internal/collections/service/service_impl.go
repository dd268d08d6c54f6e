package service

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fintro/receivables/internal/aging"
	"github.com/fintro/receivables/internal/clock"
	"github.com/fintro/receivables/internal/collections/domain"
	"github.com/fintro/receivables/internal/config"
	ledgerdomain "github.com/fintro/receivables/internal/ledger/domain"
	obsmetrics "github.com/fintro/receivables/internal/observability/metrics"
	"github.com/fintro/receivables/internal/orgcontext"
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
		log:     p.Log.Named("collections.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		policy:  p.Policy,
		metrics: p.Metrics,
	}
}

type customerProfile struct {
	tier        risk.Tier
	reliability float64
}

func (s *Service) Queue(ctx context.Context, req domain.QueueRequest) (domain.QueueResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.QueueResponse{}, domain.ErrInvalidOrganization
	}

	asOf := s.clock.Now().UTC()

	// Tier and payment reliability come from the customer's full history,
	// not just the overdue slice being prioritized.
	invoices, err := s.repo.ListInvoicesByOrg(ctx, s.db, orgID, ledgerdomain.DateRange{})
	if err != nil {
		return domain.QueueResponse{}, err
	}
	profiles := s.profileCustomers(invoices, asOf)

	overdue, err := s.repo.ListOverdueOpen(ctx, s.db, orgID, asOf)
	if err != nil {
		return domain.QueueResponse{}, err
	}

	policy := s.policy.Get()

	items := make([]priced, 0, len(overdue))
	for _, row := range overdue {
		outstanding := row.Amount.Sub(row.PaidAmount)
		if !outstanding.IsPositive() {
			continue
		}

		daysOverdue := aging.DaysOutstanding(row.DueDate, asOf)
		profile, found := profiles[row.CustomerID]
		if !found {
			profile = customerProfile{tier: risk.TierLow, reliability: policy.CollectionsReliability}
		}
		score := risk.Score(profile.tier)

		priority := decimal.NewFromInt(int64(score)).
			Mul(decimal.NewFromInt(int64(daysOverdue))).
			Mul(outstanding)

		items = append(items, priced{
			item: domain.QueueItem{
				InvoiceID:          row.InvoiceID.String(),
				CustomerID:         row.CustomerID.String(),
				CustomerName:       row.CustomerName,
				Outstanding:        outstanding.StringFixed(2),
				DaysOverdue:        daysOverdue,
				RiskScore:          score,
				Priority:           priority.StringFixed(2),
				SuccessProbability: successProbability(profile.reliability, score),
			},
			priority: priority,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].priority.GreaterThan(items[j].priority)
	})

	top := req.Top
	if top <= 0 {
		top = policy.CollectionsTopDefault
	}
	if len(items) > top {
		items = items[:top]
	}

	queue := make([]domain.QueueItem, 0, len(items))
	for _, entry := range items {
		queue = append(queue, entry.item)
	}

	s.metrics.RecordCollectionsRun(ctx, orgID.String())

	return domain.QueueResponse{
		TotalOverdue: len(overdue),
		Items:        queue,
	}, nil
}

type priced struct {
	item     domain.QueueItem
	priority decimal.Decimal
}

func (s *Service) profileCustomers(invoices []ledgerdomain.Invoice, asOf time.Time) map[snowflake.ID]customerProfile {
	defaultReliability := s.policy.Get().CollectionsReliability

	groups := make(map[snowflake.ID]aging.Accumulator)
	paidCounts := make(map[snowflake.ID]int)
	for _, inv := range invoices {
		groups[inv.CustomerID] = groups[inv.CustomerID].Add(inv, asOf)
		if inv.PaymentStatus == ledgerdomain.PaymentStatusPaid {
			paidCounts[inv.CustomerID]++
		}
	}

	profiles := make(map[snowflake.ID]customerProfile, len(groups))
	for customerID, acc := range groups {
		reliability := defaultReliability
		if acc.InvoiceCount > 0 {
			reliability = float64(paidCounts[customerID]) / float64(acc.InvoiceCount)
		}
		profiles[customerID] = customerProfile{
			tier:        risk.Classify(acc.WeightedDSO(), acc.OutstandingRatio()),
			reliability: reliability,
		}
	}
	return profiles
}

func successProbability(reliability float64, score int) float64 {
	p := 0.6*reliability + 0.4*(1-float64(score)/100)
	if p < 0.05 {
		return 0.05
	}
	if p > 0.95 {
		return 0.95
	}
	return p
}
