// Package publishing pushes the cost views to the optional outside sinks: a Google Sheet
// mirror, MongoDB snapshots and a WhatsApp summary.
package publishing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/rigcost/internal/domain/models"
	"github.com/mamadbah2/rigcost/internal/repository/mongodb"
	"github.com/mamadbah2/rigcost/internal/repository/sheets"
	"github.com/mamadbah2/rigcost/internal/service/reporting"
	"github.com/mamadbah2/rigcost/internal/service/whatsapp"
)

const (
	logSheetRange     = "Report Log!A:I"
	summarySheetRange = "Summary!A:L"
	summaryHeaderCell = "Summary!A1:A1"
)

// Snapshot history page sizes.
const (
	DefaultSnapshotLimit int64 = 30
	MaxSnapshotLimit     int64 = 500
)

// ErrSnapshotsDisabled is returned when no snapshot store is configured.
var ErrSnapshotsDisabled = errors.New("snapshot store not configured")

// Source provides the data that gets published.
type Source interface {
	Dashboard(ctx context.Context) (reporting.Dashboard, error)
}

// Result tells which sinks received the latest publication.
type Result struct {
	SheetSynced      bool      `json:"sheet_synced"`
	SnapshotSaved    bool      `json:"snapshot_saved"`
	NotificationSent bool      `json:"notification_sent"`
	PublishedAt      time.Time `json:"published_at"`
}

// Service fans the current cost views out to every configured sink. Nil sinks are skipped.
type Service struct {
	source    Source
	sheets    sheets.Repository
	snapshots mongodb.SnapshotRepository
	messenger whatsapp.MessagingService
	logger    *zap.Logger
}

// NewService wires the publisher. Any sink may be nil.
func NewService(source Source, sheetRepo sheets.Repository, snapshots mongodb.SnapshotRepository, messenger whatsapp.MessagingService, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source:    source,
		sheets:    sheetRepo,
		snapshots: snapshots,
		messenger: messenger,
		logger:    logger,
	}
}

// Enabled reports whether at least one sink is configured.
func (s *Service) Enabled() bool {
	return s.sheets != nil || s.snapshots != nil || s.messenger != nil
}

// RunAll reads the dashboard once and publishes it to every sink. A failing sink does not stop
// the others; their errors are joined.
func (s *Service) RunAll(ctx context.Context) (Result, error) {
	dashboard, err := s.source.Dashboard(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load dashboard: %w", err)
	}

	result := Result{PublishedAt: dashboard.Summary.GeneratedAt}
	var errs []error

	if s.sheets != nil {
		if err := s.SyncSheet(ctx, dashboard); err != nil {
			errs = append(errs, err)
		} else {
			result.SheetSynced = true
		}
	}
	if s.snapshots != nil {
		if err := s.RecordSnapshot(ctx, dashboard.Summary); err != nil {
			errs = append(errs, err)
		} else {
			result.SnapshotSaved = true
		}
	}
	if s.messenger != nil {
		if err := s.BroadcastSummary(ctx, dashboard.Summary); err != nil {
			errs = append(errs, err)
		} else {
			result.NotificationSent = true
		}
	}

	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("publication incomplete", zap.Error(err))
		return result, err
	}
	s.logger.Info("cost summary published",
		zap.Bool("sheet", result.SheetSynced),
		zap.Bool("snapshot", result.SnapshotSaved),
		zap.Bool("notification", result.NotificationSent),
	)
	return result, nil
}

// SyncSheet mirrors the whole report log and appends one line to the summary history.
func (s *Service) SyncSheet(ctx context.Context, dashboard reporting.Dashboard) error {
	if s.sheets == nil {
		return nil
	}

	header := make([]interface{}, 0, len(models.ReportLogHeader)+1)
	for _, h := range models.ReportLogHeader {
		header = append(header, h)
	}
	header = append(header, "Valid")

	rows := [][]interface{}{header}
	for _, row := range dashboard.Rows {
		rows = append(rows, []interface{}{
			row.Date, row.DayNumber, row.Phase, row.DailyCost, row.DepthFt, row.Notes, row.Filename, row.ID, row.Valid,
		})
	}
	if err := s.sheets.ReplaceRange(ctx, logSheetRange, rows); err != nil {
		return fmt.Errorf("mirror report log: %w", err)
	}

	existing, err := s.sheets.ReadRange(ctx, summaryHeaderCell)
	if err != nil {
		return fmt.Errorf("read summary sheet: %w", err)
	}
	if len(existing) == 0 {
		if err := s.sheets.WriteRow(ctx, summarySheetRange, summaryHeader()); err != nil {
			return fmt.Errorf("write summary header: %w", err)
		}
	}
	if err := s.sheets.WriteRow(ctx, summarySheetRange, summaryLine(dashboard.Summary)); err != nil {
		return fmt.Errorf("append summary: %w", err)
	}

	s.logger.Debug("sheet synced", zap.Int("rows", len(dashboard.Rows)))
	return nil
}

// RecordSnapshot stores the summary for trend reporting.
func (s *Service) RecordSnapshot(ctx context.Context, summary models.CostSummary) error {
	if s.snapshots == nil {
		return ErrSnapshotsDisabled
	}
	if err := s.snapshots.SaveCostSnapshot(ctx, models.NewCostSnapshot(summary)); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// BroadcastSummary sends the formatted summary to the report recipient.
func (s *Service) BroadcastSummary(ctx context.Context, summary models.CostSummary) error {
	if s.messenger == nil {
		return nil
	}
	if err := s.messenger.SendSummary(ctx, reporting.FormatSummary(summary)); err != nil {
		return fmt.Errorf("send summary: %w", err)
	}
	return nil
}

// RecentSnapshots returns up to limit snapshots, newest first. limit is clamped to
// [1, MaxSnapshotLimit]; zero or less means DefaultSnapshotLimit.
func (s *Service) RecentSnapshots(ctx context.Context, limit int64) ([]models.CostSnapshot, error) {
	if s.snapshots == nil {
		return nil, ErrSnapshotsDisabled
	}
	switch {
	case limit <= 0:
		limit = DefaultSnapshotLimit
	case limit > MaxSnapshotLimit:
		limit = MaxSnapshotLimit
	}
	snapshots, err := s.snapshots.RecentSnapshots(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	return snapshots, nil
}

func summaryHeader() []interface{} {
	return []interface{}{
		"Generated At", "Days Reported", "Estimated Days", "Depth (ft)",
		"Drilling AFE", "Drilling Actual", "Drilling Variance",
		"Completion AFE", "Completion Actual", "Completion Variance",
		"Total Variance", "Summary",
	}
}

func summaryLine(s models.CostSummary) []interface{} {
	return []interface{}{
		s.GeneratedAt.Format(time.RFC3339), s.DaysReported, s.EstimatedDays, s.LatestDepthFt,
		s.Drilling.AFE.String(), s.Drilling.Actual.String(), s.Drilling.Variance.String(),
		s.Completion.AFE.String(), s.Completion.Actual.String(), s.Completion.Variance.String(),
		s.TotalVariance.String(), reporting.FormatPhase(s.Drilling),
	}
}
