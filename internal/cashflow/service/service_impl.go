package service

import (
	"context"
	"math"

	"github.com/fintro/receivables/internal/cashflow/domain"
	"github.com/fintro/receivables/internal/clock"
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
		log:     p.Log.Named("cashflow.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		policy:  p.Policy,
		metrics: p.Metrics,
	}
}

// totals folds payments into inflow and outflow buckets. Any payment whose
// type is not exactly "inflow" lands in outflow, so malformed rows fail
// safe instead of being dropped.
type totals struct {
	inflow  decimal.Decimal
	outflow decimal.Decimal
}

func (t totals) add(p ledgerdomain.Payment) totals {
	if p.PaymentType == ledgerdomain.PaymentTypeInflow {
		t.inflow = t.inflow.Add(p.Amount)
	} else {
		t.outflow = t.outflow.Add(p.Amount)
	}
	return t
}

func (t totals) net() decimal.Decimal {
	return t.inflow.Sub(t.outflow)
}

func (s *Service) Cashflow(ctx context.Context, req domain.CashflowRequest) (domain.CashflowResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.CashflowResponse{}, domain.ErrInvalidOrganization
	}

	payments, err := s.repo.ListPaymentsByOrg(ctx, s.db, orgID, ledgerdomain.DateRange{From: req.From, To: req.To})
	if err != nil {
		return domain.CashflowResponse{}, err
	}

	var sums totals
	for _, payment := range payments {
		sums = sums.add(payment)
	}

	opening := s.policy.Get().OpeningBalanceAmount()
	closing := opening.Add(sums.net())
	burnRate := sums.outflow.DivRound(decimal.NewFromInt(30), 8)

	s.metrics.RecordCashflowQuery(ctx, orgID.String())

	return domain.CashflowResponse{
		Inflow:         sums.inflow.StringFixed(2),
		Outflow:        sums.outflow.StringFixed(2),
		NetCashflow:    sums.net().StringFixed(2),
		OpeningBalance: opening.StringFixed(2),
		ClosingBalance: closing.StringFixed(2),
		BurnRate:       burnRate.StringFixed(2),
	}, nil
}

func (s *Service) Risk(ctx context.Context) (domain.RiskResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.RiskResponse{}, domain.ErrInvalidOrganization
	}

	asOf := s.clock.Now().UTC()
	count, err := s.repo.CountOverdueOpen(ctx, s.db, orgID, asOf)
	if err != nil {
		return domain.RiskResponse{}, err
	}

	level := risk.ClassifyVolume(count)
	s.metrics.RecordRiskEvaluation(ctx, string(level))

	return domain.RiskResponse{
		OverdueInvoices: count,
		RiskLevel:       level,
	}, nil
}

func (s *Service) Runway(ctx context.Context) (domain.RunwayResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.RunwayResponse{}, domain.ErrInvalidOrganization
	}

	payments, err := s.repo.ListPaymentsByOrg(ctx, s.db, orgID, ledgerdomain.DateRange{})
	if err != nil {
		return domain.RunwayResponse{}, err
	}

	var sums totals
	activeDays := make(map[string]struct{})
	for _, payment := range payments {
		sums = sums.add(payment)
		activeDays[payment.PaymentDate.UTC().Format("2006-01-02")] = struct{}{}
	}

	// Burn is averaged over the distinct dates with ledger activity, not
	// the calendar span, so sparse ledgers do not dilute the rate to zero.
	dayCount := int64(len(activeDays))
	if dayCount < 1 {
		dayCount = 1
	}
	avgDailyBurn := sums.outflow.DivRound(decimal.NewFromInt(dayCount), 8)
	monthlyBurn := avgDailyBurn.Mul(decimal.NewFromInt(30))

	if !avgDailyBurn.IsPositive() {
		return domain.RunwayResponse{
			AvgDailyBurn: avgDailyBurn.StringFixed(2),
			MonthlyBurn:  monthlyBurn.StringFixed(2),
			RunwayDays:   -1,
			RunwayMonths: 0,
			RiskLevel:    risk.RunwayLow,
		}, nil
	}

	cash := s.policy.Get().OpeningBalanceAmount().Add(sums.net())
	if cash.IsNegative() {
		cash = decimal.Zero
	}
	runwayDays := int(cash.DivRound(avgDailyBurn, 8).IntPart())
	runwayMonths := math.Round(float64(runwayDays)/30*10) / 10

	return domain.RunwayResponse{
		AvgDailyBurn: avgDailyBurn.StringFixed(2),
		MonthlyBurn:  monthlyBurn.StringFixed(2),
		RunwayDays:   runwayDays,
		RunwayMonths: runwayMonths,
		RiskLevel:    risk.ClassifyRunway(runwayDays),
	}, nil
}
