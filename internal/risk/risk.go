package risk

import "github.com/shopspring/decimal"

// Tier is the per-customer risk classification.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// VolumeLevel is the per-org risk-by-volume classification. Capitalized on
// the wire to stay compatible with existing consumers.
type VolumeLevel string

const (
	VolumeLow    VolumeLevel = "Low"
	VolumeMedium VolumeLevel = "Medium"
	VolumeHigh   VolumeLevel = "High"
)

// Thresholds are a fixed compatibility contract with downstream consumers
// of the risk feed. Do not make these configurable.
const (
	dsoHighDays   = 60
	dsoMediumDays = 30

	overdueHighCount   = 20
	overdueMediumCount = 5
)

var ratioHigh = decimal.NewFromFloat(0.5)

// Classify maps a customer's weighted DSO and outstanding ratio to a tier.
// The high condition wins outright: a customer with a low DSO but more than
// half of billed credit still unpaid is high risk, not low.
func Classify(dsoDays int, outstandingRatio decimal.Decimal) Tier {
	if dsoDays > dsoHighDays || outstandingRatio.GreaterThan(ratioHigh) {
		return TierHigh
	}
	if dsoDays > dsoMediumDays {
		return TierMedium
	}
	return TierLow
}

// ClassifyVolume maps the count of overdue open invoices to an org-level
// level. It answers "how many things are late" independently of how much
// capital is at risk; both signals are surfaced because they catch
// different failure modes. Boundaries are strict.
func ClassifyVolume(overdueCount int64) VolumeLevel {
	switch {
	case overdueCount > overdueHighCount:
		return VolumeHigh
	case overdueCount > overdueMediumCount:
		return VolumeMedium
	default:
		return VolumeLow
	}
}

// Score maps a tier onto the 0-100 scale used by collections prioritization.
func Score(t Tier) int {
	switch t {
	case TierHigh:
		return 90
	case TierMedium:
		return 60
	default:
		return 30
	}
}

// RunwayLevel classifies projected cash runway in days.
type RunwayLevel string

const (
	RunwayCritical RunwayLevel = "Critical"
	RunwayHigh     RunwayLevel = "High"
	RunwayMedium   RunwayLevel = "Medium"
	RunwayLow      RunwayLevel = "Low"
)

// ClassifyRunway maps runway days to an urgency level. Negative days mean
// unbounded runway (no burn) and classify Low.
func ClassifyRunway(runwayDays int) RunwayLevel {
	if runwayDays < 0 {
		return RunwayLow
	}
	switch {
	case runwayDays < 90:
		return RunwayCritical
	case runwayDays < 180:
		return RunwayHigh
	case runwayDays < 365:
		return RunwayMedium
	default:
		return RunwayLow
	}
}
