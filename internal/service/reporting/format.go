package reporting

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mamadbah2/rigcost/internal/domain/models"
)

var printer = message.NewPrinter(language.English)

// FormatMoney renders whole dollars with thousands separators, e.g. "$1,234" or "$-500".
// Halves round to even and a negative amount that rounds to zero keeps its sign ("$-0").
func FormatMoney(d decimal.Decimal) string {
	rounded := d.RoundBank(0)
	if rounded.IsZero() && d.IsNegative() {
		return "$-0"
	}
	return printer.Sprintf("$%d", rounded.IntPart())
}

// FormatPhase renders one phase as "AFE: $x / Actual: $y / Variance: $z".
func FormatPhase(p models.PhaseSummary) string {
	return "AFE: " + FormatMoney(p.AFE) + " / Actual: " + FormatMoney(p.Actual) + " / Variance: " + FormatMoney(p.Variance)
}

// FormatSummary renders the summary as a short plain-text message.
func FormatSummary(s models.CostSummary) string {
	var b strings.Builder
	b.WriteString("Well cost summary")
	if !s.GeneratedAt.IsZero() {
		b.WriteString(" (" + s.GeneratedAt.Format(models.DateLayout) + ")")
	}
	b.WriteString("\n")
	if s.EstimatedDays > 0 {
		b.WriteString(printer.Sprintf("Day %d of %d estimated", s.DaysReported, s.EstimatedDays))
	} else {
		b.WriteString(printer.Sprintf("Day %d", s.DaysReported))
	}
	if s.LatestDepthFt > 0 {
		b.WriteString(printer.Sprintf(", depth %d ft", s.LatestDepthFt))
	}
	b.WriteString("\n")
	for _, phase := range models.Phases {
		b.WriteString(string(phase) + " | " + FormatPhase(s.Phase(phase)) + "\n")
	}
	b.WriteString("Total | AFE: " + FormatMoney(s.TotalAFE) + " / Actual: " + FormatMoney(s.TotalActual) +
		" / Variance: " + FormatMoney(s.TotalVariance))
	return b.String()
}
