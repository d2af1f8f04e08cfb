package models

import "github.com/shopspring/decimal"

// Estimate is the single AFE budget document for the well.
type Estimate struct {
	DrillingAFE   decimal.Decimal `json:"drilling_afe"`
	CompletionAFE decimal.Decimal `json:"completion_afe"`
	EstimatedDays int             `json:"estimated_days"`
}

// AFE returns the budget for a phase; unknown phases have none.
func (e Estimate) AFE(phase Phase) decimal.Decimal {
	switch phase {
	case PhaseDrilling:
		return e.DrillingAFE
	case PhaseCompletion:
		return e.CompletionAFE
	default:
		return decimal.Zero
	}
}

// Total returns the combined budget of both phases.
func (e Estimate) Total() decimal.Decimal {
	return e.DrillingAFE.Add(e.CompletionAFE)
}
