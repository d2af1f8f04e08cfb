package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PhaseSummary compares what a phase has cost against its AFE.
type PhaseSummary struct {
	Phase      Phase           `json:"phase"`
	AFE        decimal.Decimal `json:"afe"`
	Actual     decimal.Decimal `json:"actual"`
	Variance   decimal.Decimal `json:"variance"`
	EntryCount int             `json:"entry_count"`
}

// CostSummary is the budget-vs-actual view of the whole log.
type CostSummary struct {
	Drilling      PhaseSummary    `json:"drilling"`
	Completion    PhaseSummary    `json:"completion"`
	TotalAFE      decimal.Decimal `json:"total_afe"`
	TotalActual   decimal.Decimal `json:"total_actual"`
	TotalVariance decimal.Decimal `json:"total_variance"`
	EstimatedDays int             `json:"estimated_days"`
	DaysReported  int             `json:"days_reported"`
	LatestDepthFt int             `json:"latest_depth_ft"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

// Phase returns the summary for one phase.
func (s CostSummary) Phase(p Phase) PhaseSummary {
	if p == PhaseCompletion {
		return s.Completion
	}
	return s.Drilling
}

// SeriesPoint is one point of the day-vs-cost chart.
type SeriesPoint struct {
	DayNumber      int             `json:"day_number"`
	Date           string          `json:"date"`
	Phase          Phase           `json:"phase"`
	DailyCost      decimal.Decimal `json:"daily_cost"`
	CumulativeCost decimal.Decimal `json:"cumulative_cost"`
}
