package models

import (
	"fmt"
	"strings"
)

// Phase enumerates the operational stages a daily cost is booked against.
type Phase string

const (
	PhaseDrilling   Phase = "Drilling"
	PhaseCompletion Phase = "Completion"
)

// Phases lists every phase in display order.
var Phases = []Phase{PhaseDrilling, PhaseCompletion}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	return p == PhaseDrilling || p == PhaseCompletion
}

// ParsePhase accepts a phase name regardless of case and surrounding spaces.
func ParsePhase(value string) (Phase, error) {
	normalized := strings.TrimSpace(value)
	for _, p := range Phases {
		if strings.EqualFold(normalized, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown phase %q", value)
}
