package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used in the report log.
const DateLayout = "2006-01-02"

// Report log column names. The first seven are the historical header and must not change.
const (
	ColumnDate      = "Date"
	ColumnDayNumber = "Day #"
	ColumnPhase     = "Phase"
	ColumnDailyCost = "Daily Cost"
	ColumnDepth     = "Depth (ft)"
	ColumnNotes     = "Notes"
	ColumnFilename  = "Filename"
	ColumnID        = "ID"
)

// ReportLogHeader is the header row written to the report log.
var ReportLogHeader = []string{
	ColumnDate, ColumnDayNumber, ColumnPhase, ColumnDailyCost, ColumnDepth, ColumnNotes, ColumnFilename, ColumnID,
}

// RequiredColumns must be present for the log to be readable at all.
var RequiredColumns = []string{ColumnDayNumber, ColumnDailyCost, ColumnPhase, ColumnFilename, ColumnDate}

// ErrUncoercible marks a stored row whose Day # or Daily Cost is not numeric.
var ErrUncoercible = errors.New("row is not numerically valid")

// Entry is one drilling day as reported by the operator.
type Entry struct {
	ID        string
	Date      time.Time
	DayNumber int
	Phase     Phase
	DailyCost decimal.Decimal
	DepthFt   int
	Notes     string
	Filename  string
}

// EntryRecord is an entry exactly as persisted: every column kept as text so a row that
// no longer parses can still be listed.
type EntryRecord struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	DayNumber string `json:"day_number"`
	Phase     string `json:"phase"`
	DailyCost string `json:"daily_cost"`
	DepthFt   string `json:"depth_ft"`
	Notes     string `json:"notes"`
	Filename  string `json:"filename"`
}

// Record renders the entry in its persisted text form.
func (e Entry) Record() EntryRecord {
	date := ""
	if !e.Date.IsZero() {
		date = e.Date.Format(DateLayout)
	}
	return EntryRecord{
		ID:        e.ID,
		Date:      date,
		DayNumber: strconv.Itoa(e.DayNumber),
		Phase:     string(e.Phase),
		DailyCost: e.DailyCost.String(),
		DepthFt:   strconv.Itoa(e.DepthFt),
		Notes:     e.Notes,
		Filename:  e.Filename,
	}
}

// Key returns the composite display key of the entry.
func (e Entry) Key() EntryKey {
	return EntryKey{DayNumber: e.DayNumber, Date: e.Date.Format(DateLayout), Filename: e.Filename}
}

// Parse coerces the record into an Entry. Day # and Daily Cost must be numeric, otherwise
// ErrUncoercible is returned. Date, depth and phase are lenient: an unreadable value is
// left zero so the row still counts towards cost views.
func (r EntryRecord) Parse() (Entry, error) {
	day, err := ParseInt(r.DayNumber)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: day # %q", ErrUncoercible, r.DayNumber)
	}
	cost, err := ParseDecimal(r.DailyCost)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: daily cost %q", ErrUncoercible, r.DailyCost)
	}

	entry := Entry{
		ID:        r.ID,
		DayNumber: day,
		Phase:     Phase(strings.TrimSpace(r.Phase)),
		DailyCost: cost,
		Notes:     r.Notes,
		Filename:  strings.TrimSpace(r.Filename),
	}
	if date, err := ParseDate(r.Date); err == nil {
		entry.Date = date
	}
	if depth, err := ParseInt(r.DepthFt); err == nil {
		entry.DepthFt = depth
	}
	return entry, nil
}

// Key returns the composite display key of the stored row.
func (r EntryRecord) Key() (EntryKey, bool) {
	day, err := ParseInt(r.DayNumber)
	if err != nil {
		return EntryKey{}, false
	}
	return EntryKey{DayNumber: day, Date: strings.TrimSpace(r.Date), Filename: strings.TrimSpace(r.Filename)}, true
}

// EntryKey is the (Day #, Date, Filename) triple the original row picker used.
// It is not unique; lookups resolve to the first row in log order.
type EntryKey struct {
	DayNumber int
	Date      string
	Filename  string
}

// String renders the key the way the row picker labels it.
func (k EntryKey) String() string {
	return fmt.Sprintf("%d | %s | %s", k.DayNumber, k.Date, k.Filename)
}

// Matches reports whether the record carries this key.
func (k EntryKey) Matches(r EntryRecord) bool {
	other, ok := r.Key()
	return ok && other == k
}

// ParseDate reads a calendar date; longer timestamps are truncated to the date part.
func ParseDate(value string) (time.Time, error) {
	str := strings.TrimSpace(value)
	if str == "" {
		return time.Time{}, errors.New("empty date")
	}
	if len(str) > len(DateLayout) {
		str = str[:len(DateLayout)]
	}
	return time.Parse(DateLayout, str)
}

// ParseInt reads an integer column. Whole floats such as "3.0" are accepted because that is
// how a spreadsheet round trip tends to rewrite them.
func ParseInt(value string) (int, error) {
	str := strings.TrimSpace(value)
	if str == "" {
		return 0, errors.New("empty numeric value")
	}
	if n, err := strconv.Atoi(str); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("not a whole number: %q", value)
	}
	// float64(math.MinInt) is exact; its negation is the first value past math.MaxInt.
	if f < float64(math.MinInt) || f >= -float64(math.MinInt) {
		return 0, fmt.Errorf("out of range: %q", value)
	}
	return int(f), nil
}

// ParseDecimal reads a money column.
func ParseDecimal(value string) (decimal.Decimal, error) {
	str := strings.TrimSpace(value)
	if str == "" {
		return decimal.Zero, errors.New("empty numeric value")
	}
	return decimal.NewFromString(str)
}
