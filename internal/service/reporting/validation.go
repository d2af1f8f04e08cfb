package reporting

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mamadbah2/rigcost/internal/domain/models"
)

// ErrValidation is matched by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a field value the operator has to correct.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidateEntry checks the constraints of a drilling day before it is written.
// Notes and Filename are free-form.
func ValidateEntry(e models.Entry) error {
	switch {
	case e.Date.IsZero():
		return invalid("date", "is required")
	case e.DayNumber < 1:
		return invalid("day_number", "must be at least 1, got %d", e.DayNumber)
	case !e.Phase.Valid():
		return invalid("phase", "must be %s or %s, got %q", models.PhaseDrilling, models.PhaseCompletion, e.Phase)
	case e.DailyCost.IsNegative():
		return invalid("daily_cost", "must not be negative, got %s", e.DailyCost)
	case e.DepthFt < 0:
		return invalid("depth_ft", "must not be negative, got %d", e.DepthFt)
	}
	return nil
}

// ValidateEstimate rejects negative budgets and day counts.
func ValidateEstimate(doc models.Estimate) error {
	switch {
	case doc.DrillingAFE.IsNegative():
		return invalid("drilling_afe", "must not be negative, got %s", doc.DrillingAFE)
	case doc.CompletionAFE.IsNegative():
		return invalid("completion_afe", "must not be negative, got %s", doc.CompletionAFE)
	case doc.EstimatedDays < 0:
		return invalid("estimated_days", "must not be negative, got %d", doc.EstimatedDays)
	}
	return nil
}

// Upload is a report file received from the operator.
type Upload struct {
	Name string
	Data []byte
}

// validateUpload sniffs the content and returns the bare file name to store it under.
func validateUpload(u *Upload) (string, error) {
	name := strings.TrimSpace(filepath.Base(strings.ReplaceAll(u.Name, `\`, "/")))
	if name == "" || name == "." || name == "/" {
		return "", invalid("file", "has no name")
	}
	if len(u.Data) == 0 {
		return "", invalid("file", "is empty")
	}
	if mtype := mimetype.Detect(u.Data); !mtype.Is("application/pdf") {
		return "", invalid("file", "must be a PDF, got %s", mtype.String())
	}
	return name, nil
}
