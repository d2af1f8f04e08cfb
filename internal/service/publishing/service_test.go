package publishing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/rigcost/internal/domain/models"
	"github.com/mamadbah2/rigcost/internal/service/reporting"
)

type staticSource struct {
	dashboard reporting.Dashboard
	err       error
}

func (s staticSource) Dashboard(context.Context) (reporting.Dashboard, error) {
	return s.dashboard, s.err
}

type fakeSheets struct {
	replaced map[string][][]interface{}
	appended map[string][][]interface{}
	existing [][]interface{}
	err      error
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{replaced: map[string][][]interface{}{}, appended: map[string][][]interface{}{}}
}

func (f *fakeSheets) WriteRow(_ context.Context, r string, values []interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.appended[r] = append(f.appended[r], values)
	return nil
}

func (f *fakeSheets) ReadRange(context.Context, string) ([][]interface{}, error) {
	return f.existing, f.err
}

func (f *fakeSheets) ReplaceRange(_ context.Context, r string, rows [][]interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.replaced[r] = rows
	return nil
}

type fakeSnapshots struct {
	saved     []models.CostSnapshot
	lastLimit int64
}

func (f *fakeSnapshots) SaveCostSnapshot(_ context.Context, s models.CostSnapshot) error {
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeSnapshots) RecentSnapshots(_ context.Context, limit int64) ([]models.CostSnapshot, error) {
	f.lastLimit = limit
	if int64(len(f.saved)) < limit {
		return f.saved, nil
	}
	return f.saved[:limit], nil
}

type fakeMessenger struct {
	texts []string
	err   error
}

func (f *fakeMessenger) SendOutbound(context.Context, models.OutboundMessageRequest) error { return nil }

func (f *fakeMessenger) SendSummary(_ context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, text)
	return nil
}

func sampleDashboard() reporting.Dashboard {
	entries := []models.Entry{
		{DayNumber: 1, Phase: models.PhaseDrilling, DailyCost: decimal.NewFromInt(1000)},
		{DayNumber: 2, Phase: models.PhaseDrilling, DailyCost: decimal.NewFromInt(2000)},
	}
	summary := reporting.Summarize(entries, models.Estimate{DrillingAFE: decimal.NewFromInt(2500)})
	summary.GeneratedAt = time.Date(2024, 3, 2, 20, 0, 0, 0, time.UTC)

	return reporting.Dashboard{
		Rows: []reporting.Row{
			{EntryRecord: models.EntryRecord{ID: "a", Date: "2024-03-01", DayNumber: "1", Phase: "Drilling", DailyCost: "1000"}, Valid: true},
			{EntryRecord: models.EntryRecord{ID: "b", Date: "2024-03-02", DayNumber: "2", Phase: "Drilling", DailyCost: "2000"}, Valid: true},
		},
		Summary: summary,
	}
}

func TestRunAllPublishesEverywhere(t *testing.T) {
	sheet := newFakeSheets()
	snaps := &fakeSnapshots{}
	msgr := &fakeMessenger{}
	svc := NewService(staticSource{dashboard: sampleDashboard()}, sheet, snaps, msgr, nil)
	require.True(t, svc.Enabled())

	result, err := svc.RunAll(context.Background())
	require.NoError(t, err)
	assert.True(t, result.SheetSynced)
	assert.True(t, result.SnapshotSaved)
	assert.True(t, result.NotificationSent)

	logRows := sheet.replaced[logSheetRange]
	require.Len(t, logRows, 3)
	assert.Equal(t, "Day #", logRows[0][1])
	assert.Equal(t, "2000", logRows[2][3])

	summaryRows := sheet.appended[summarySheetRange]
	require.Len(t, summaryRows, 2, "header then summary line")
	assert.Equal(t, "Generated At", summaryRows[0][0])
	assert.Equal(t, "500", summaryRows[1][6])

	require.Len(t, snaps.saved, 1)
	assert.Equal(t, 3000.0, snaps.saved[0].DrillingActual)
	assert.Equal(t, 500.0, snaps.saved[0].DrillingVariance)

	require.Len(t, msgr.texts, 1)
	assert.Contains(t, msgr.texts[0], "Drilling | AFE: $2,500 / Actual: $3,000 / Variance: $500")
}

func TestRunAllSkipsHeaderWhenPresent(t *testing.T) {
	sheet := newFakeSheets()
	sheet.existing = [][]interface{}{{"Generated At"}}
	svc := NewService(staticSource{dashboard: sampleDashboard()}, sheet, nil, nil, nil)

	_, err := svc.RunAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, sheet.appended[summarySheetRange], 1)
}

func TestRunAllContinuesAfterSinkFailure(t *testing.T) {
	sheet := newFakeSheets()
	sheet.err = errors.New("quota exceeded")
	msgr := &fakeMessenger{}
	svc := NewService(staticSource{dashboard: sampleDashboard()}, sheet, nil, msgr, nil)

	result, err := svc.RunAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.False(t, result.SheetSynced)
	assert.True(t, result.NotificationSent)
}

func TestRunAllSourceFailure(t *testing.T) {
	svc := NewService(staticSource{err: errors.New("store unavailable")}, nil, nil, &fakeMessenger{}, nil)

	_, err := svc.RunAll(context.Background())
	require.Error(t, err)
}

func TestSnapshotsDisabled(t *testing.T) {
	svc := NewService(staticSource{}, nil, nil, nil, nil)
	assert.False(t, svc.Enabled())

	_, err := svc.RecentSnapshots(context.Background(), 5)
	assert.ErrorIs(t, err, ErrSnapshotsDisabled)
}

func TestRecentSnapshotsClampsLimit(t *testing.T) {
	snapshots := &fakeSnapshots{}
	svc := NewService(staticSource{}, nil, snapshots, nil, nil)

	for _, tc := range []struct {
		given, want int64
	}{
		{0, DefaultSnapshotLimit},
		{-3, DefaultSnapshotLimit},
		{7, 7},
		{MaxSnapshotLimit + 1, MaxSnapshotLimit},
		{1 << 62, MaxSnapshotLimit},
	} {
		_, err := svc.RecentSnapshots(context.Background(), tc.given)
		require.NoError(t, err)
		assert.Equal(t, tc.want, snapshots.lastLimit, "limit %d", tc.given)
	}
}
