package reporting

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/rigcost/internal/domain/models"
)

// Summarize compares actual spend per phase against the estimate. A phase matches only when it
// is spelled exactly as Drilling or Completion; other entries count towards neither phase nor
// the totals. With no entries every actual is zero and every
// variance is the negated AFE.
func Summarize(entries []models.Entry, estimate models.Estimate) models.CostSummary {
	drilling := models.PhaseSummary{Phase: models.PhaseDrilling, AFE: estimate.DrillingAFE, Actual: decimal.Zero}
	completion := models.PhaseSummary{Phase: models.PhaseCompletion, AFE: estimate.CompletionAFE, Actual: decimal.Zero}

	summary := models.CostSummary{EstimatedDays: estimate.EstimatedDays}
	for _, e := range entries {
		var target *models.PhaseSummary
		switch e.Phase {
		case models.PhaseDrilling:
			target = &drilling
		case models.PhaseCompletion:
			target = &completion
		default:
			continue
		}
		target.Actual = target.Actual.Add(e.DailyCost)
		target.EntryCount++

		if e.DayNumber >= summary.DaysReported {
			summary.DaysReported = e.DayNumber
			summary.LatestDepthFt = e.DepthFt
		}
	}

	drilling.Variance = drilling.Actual.Sub(drilling.AFE)
	completion.Variance = completion.Actual.Sub(completion.AFE)

	summary.Drilling = drilling
	summary.Completion = completion
	summary.TotalAFE = estimate.Total()
	summary.TotalActual = drilling.Actual.Add(completion.Actual)
	summary.TotalVariance = summary.TotalActual.Sub(summary.TotalAFE)
	return summary
}

// CostSeries orders entries by Day # (log order breaks ties) and accumulates their cost.
func CostSeries(entries []models.Entry) []models.SeriesPoint {
	sorted := make([]models.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DayNumber < sorted[j].DayNumber })

	points := make([]models.SeriesPoint, 0, len(sorted))
	cumulative := decimal.Zero
	for _, e := range sorted {
		cumulative = cumulative.Add(e.DailyCost)
		point := models.SeriesPoint{
			DayNumber:      e.DayNumber,
			Phase:          e.Phase,
			DailyCost:      e.DailyCost,
			CumulativeCost: cumulative,
		}
		if !e.Date.IsZero() {
			point.Date = e.Date.Format(models.DateLayout)
		}
		points = append(points, point)
	}
	return points
}
