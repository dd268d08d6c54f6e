package domain

import (
	"context"
	"errors"
	"time"

	"github.com/fintro/receivables/internal/risk"
)

var ErrInvalidOrganization = errors.New("invalid_organization")

type CashflowRequest struct {
	From *time.Time
	To   *time.Time
}

type CashflowResponse struct {
	Inflow         string `json:"inflow"`
	Outflow        string `json:"outflow"`
	NetCashflow    string `json:"netCashflow"`
	OpeningBalance string `json:"openingBalance"`
	ClosingBalance string `json:"closingBalance"`
	BurnRate       string `json:"burnRate"`
}

type RiskResponse struct {
	OverdueInvoices int64            `json:"overdueInvoices"`
	RiskLevel       risk.VolumeLevel `json:"riskLevel"`
}

type RunwayResponse struct {
	AvgDailyBurn string           `json:"avgDailyBurn"`
	MonthlyBurn  string           `json:"monthlyBurn"`
	RunwayDays   int              `json:"runwayDays"`
	RunwayMonths float64          `json:"runwayMonths"`
	RiskLevel    risk.RunwayLevel `json:"riskLevel"`
}

type Service interface {
	Cashflow(context.Context, CashflowRequest) (CashflowResponse, error)
	Risk(context.Context) (RiskResponse, error)
	Runway(context.Context) (RunwayResponse, error)
}
