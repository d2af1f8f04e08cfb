package handlers

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/rigcost/internal/domain/models"
	"github.com/mamadbah2/rigcost/internal/service/reporting"
)

// EntryRequest is the operator form for one drilling day. Values arrive as text and are
// converted by ToEntry so a bad number is reported against its field.
type EntryRequest struct {
	Date      string `form:"date" json:"date"`
	DayNumber string `form:"day_number" json:"day_number"`
	Phase     string `form:"phase" json:"phase"`
	DailyCost string `form:"daily_cost" json:"daily_cost"`
	DepthFt   string `form:"depth_ft" json:"depth_ft"`
	Notes     string `form:"notes" json:"notes"`
}

// ToEntry converts the form into a domain entry.
func (r EntryRequest) ToEntry() (models.Entry, error) {
	date, err := models.ParseDate(r.Date)
	if err != nil {
		return models.Entry{}, fieldError("date", "must be a date like 2024-01-31")
	}
	day, err := models.ParseInt(r.DayNumber)
	if err != nil {
		return models.Entry{}, fieldError("day_number", "must be a whole number")
	}
	phase, err := models.ParsePhase(r.Phase)
	if err != nil {
		return models.Entry{}, fieldError("phase", "must be Drilling or Completion")
	}
	cost, err := models.ParseDecimal(r.DailyCost)
	if err != nil {
		return models.Entry{}, fieldError("daily_cost", "must be a number")
	}
	depth := 0
	if strings.TrimSpace(r.DepthFt) != "" {
		if depth, err = models.ParseInt(r.DepthFt); err != nil {
			return models.Entry{}, fieldError("depth_ft", "must be a whole number")
		}
	}

	return models.Entry{
		Date:      date,
		DayNumber: day,
		Phase:     phase,
		DailyCost: cost,
		DepthFt:   depth,
		Notes:     r.Notes,
	}, nil
}

// EntryKeyQuery addresses a row by its composite key.
type EntryKeyQuery struct {
	Day      string `form:"day"`
	Date     string `form:"date"`
	Filename string `form:"filename"`
}

// ToKey validates the query.
func (q EntryKeyQuery) ToKey() (models.EntryKey, error) {
	day, err := models.ParseInt(q.Day)
	if err != nil {
		return models.EntryKey{}, fieldError("day", "must be a whole number")
	}
	if strings.TrimSpace(q.Date) == "" {
		return models.EntryKey{}, fieldError("date", "is required")
	}
	return models.EntryKey{DayNumber: day, Date: strings.TrimSpace(q.Date), Filename: strings.TrimSpace(q.Filename)}, nil
}

// EstimateRequest is the AFE document as sent by the page. Numbers may be JSON numbers or strings.
type EstimateRequest struct {
	DrillingAFE   decimal.Decimal `json:"drilling_afe"`
	CompletionAFE decimal.Decimal `json:"completion_afe"`
	EstimatedDays int             `json:"estimated_days"`
}

func (r EstimateRequest) ToEstimate() models.Estimate {
	return models.Estimate{
		DrillingAFE:   r.DrillingAFE,
		CompletionAFE: r.CompletionAFE,
		EstimatedDays: r.EstimatedDays,
	}
}

func fieldError(field, message string) error {
	return &reporting.ValidationError{Field: field, Message: message}
}
