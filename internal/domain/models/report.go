package models

import "time"

// CostSnapshot is a point-in-time copy of the cost summary kept in MongoDB for trend reporting.
type CostSnapshot struct {
	TakenAt            time.Time `bson:"taken_at" json:"taken_at"`
	DaysReported       int       `bson:"days_reported" json:"days_reported"`
	EstimatedDays      int       `bson:"estimated_days" json:"estimated_days"`
	LatestDepthFt      int       `bson:"latest_depth_ft" json:"latest_depth_ft"`
	DrillingAFE        float64   `bson:"drilling_afe" json:"drilling_afe"`
	DrillingActual     float64   `bson:"drilling_actual" json:"drilling_actual"`
	DrillingVariance   float64   `bson:"drilling_variance" json:"drilling_variance"`
	CompletionAFE      float64   `bson:"completion_afe" json:"completion_afe"`
	CompletionActual   float64   `bson:"completion_actual" json:"completion_actual"`
	CompletionVariance float64   `bson:"completion_variance" json:"completion_variance"`
	TotalVariance      float64   `bson:"total_variance" json:"total_variance"`
}

// NewCostSnapshot flattens a summary into its stored form.
func NewCostSnapshot(s CostSummary) CostSnapshot {
	return CostSnapshot{
		TakenAt:            s.GeneratedAt,
		DaysReported:       s.DaysReported,
		EstimatedDays:      s.EstimatedDays,
		LatestDepthFt:      s.LatestDepthFt,
		DrillingAFE:        s.Drilling.AFE.InexactFloat64(),
		DrillingActual:     s.Drilling.Actual.InexactFloat64(),
		DrillingVariance:   s.Drilling.Variance.InexactFloat64(),
		CompletionAFE:      s.Completion.AFE.InexactFloat64(),
		CompletionActual:   s.Completion.Actual.InexactFloat64(),
		CompletionVariance: s.Completion.Variance.InexactFloat64(),
		TotalVariance:      s.TotalVariance.InexactFloat64(),
	}
}
