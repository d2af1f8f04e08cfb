package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/rigcost/internal/domain/models"
	"github.com/mamadbah2/rigcost/internal/repository"
)

// Service validates operator input, keeps the report log and the attachment area consistent,
// and computes the cost views.
type Service struct {
	records     repository.RecordStore
	estimates   repository.EstimateStore
	attachments repository.AttachmentStore
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
}

// NewService wires a new reporting service instance.
func NewService(records repository.RecordStore, estimates repository.EstimateStore, attachments repository.AttachmentStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		records:     records,
		estimates:   estimates,
		attachments: attachments,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// CreateEntry validates e, stores the optional PDF and appends the row. The attachment is
// written first and removed again if the row cannot be appended.
func (s *Service) CreateEntry(ctx context.Context, e models.Entry, upload *Upload) (models.Entry, error) {
	if err := ValidateEntry(e); err != nil {
		return models.Entry{}, err
	}

	e.ID = s.newID()
	e.Filename = ""
	if upload != nil {
		name, err := s.storeUpload(ctx, e.ID, upload)
		if err != nil {
			return models.Entry{}, err
		}
		e.Filename = name
	}

	if err := s.records.Append(ctx, e.Record()); err != nil {
		s.discardAttachment(ctx, e.Filename)
		return models.Entry{}, fmt.Errorf("append entry: %w", err)
	}

	s.logger.Info("entry created",
		zap.String("id", e.ID),
		zap.Int("day", e.DayNumber),
		zap.String("phase", string(e.Phase)),
		zap.String("filename", e.Filename),
	)
	return e, nil
}

// UpdateEntry replaces the row with the given id wholesale. Without a new upload the row keeps
// its current PDF.
func (s *Service) UpdateEntry(ctx context.Context, id string, e models.Entry, upload *Upload) (models.Entry, error) {
	if err := ValidateEntry(e); err != nil {
		return models.Entry{}, err
	}

	records, err := s.records.List(ctx)
	if err != nil {
		return models.Entry{}, fmt.Errorf("load entries: %w", err)
	}
	current, ok := findByID(records, id)
	if !ok {
		return models.Entry{}, fmt.Errorf("%w: %s", repository.ErrEntryNotFound, id)
	}

	e.ID = id
	e.Filename = current.Filename
	if upload != nil {
		name, err := s.storeUpload(ctx, id, upload)
		if err != nil {
			return models.Entry{}, err
		}
		e.Filename = name
	}

	if err := s.records.Replace(ctx, id, e.Record()); err != nil {
		if e.Filename != current.Filename {
			s.discardAttachment(ctx, e.Filename)
		}
		return models.Entry{}, fmt.Errorf("replace entry: %w", err)
	}

	if e.Filename != current.Filename {
		s.releaseAttachment(ctx, current.Filename, records, id)
	}

	s.logger.Info("entry updated", zap.String("id", id), zap.Int("day", e.DayNumber), zap.String("filename", e.Filename))
	return e, nil
}

// UpdateEntryByKey replaces the first row in log order carrying key.
func (s *Service) UpdateEntryByKey(ctx context.Context, key models.EntryKey, e models.Entry, upload *Upload) (models.Entry, error) {
	if err := ValidateEntry(e); err != nil {
		return models.Entry{}, err
	}
	id, err := s.resolveKey(ctx, key)
	if err != nil {
		return models.Entry{}, err
	}
	return s.UpdateEntry(ctx, id, e, upload)
}

// DeleteEntry removes the row and its attachment and returns the removed file name, which is
// empty when the row had none.
func (s *Service) DeleteEntry(ctx context.Context, id string) (string, error) {
	removed, err := s.records.Delete(ctx, id)
	if err != nil {
		return "", fmt.Errorf("delete entry: %w", err)
	}

	filename := removed.Filename
	if filename != "" {
		remaining, err := s.records.List(ctx)
		if err != nil {
			s.logger.Warn("could not check attachment references, keeping file", zap.String("filename", filename), zap.Error(err))
			return filename, nil
		}
		s.releaseAttachment(ctx, filename, remaining, "")
	}

	s.logger.Info("entry deleted", zap.String("id", id), zap.String("filename", filename))
	return filename, nil
}

// DeleteEntryByKey deletes the first row in log order carrying key.
func (s *Service) DeleteEntryByKey(ctx context.Context, key models.EntryKey) (string, error) {
	id, err := s.resolveKey(ctx, key)
	if err != nil {
		return "", err
	}
	return s.DeleteEntry(ctx, id)
}

// ListEntries returns every stored row for the table view, including rows whose numbers no
// longer parse.
func (s *Service) ListEntries(ctx context.Context) ([]Row, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row := Row{EntryRecord: rec}
		if _, err := rec.Parse(); err == nil {
			row.Valid = true
		}
		if key, ok := rec.Key(); ok {
			row.Key = key.String()
		}
		if rec.Filename != "" {
			row.AttachmentAvailable = s.attachmentAvailable(ctx, rec.Filename)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ValidEntries returns the rows that take part in the cost views, in log order.
func (s *Service) ValidEntries(ctx context.Context) ([]models.Entry, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	return s.parseRecords(records), nil
}

// Estimate returns the AFE document, zero when none has been saved.
func (s *Service) Estimate(ctx context.Context) (models.Estimate, error) {
	doc, err := s.estimates.Load(ctx)
	if err != nil {
		return models.Estimate{}, fmt.Errorf("load estimate: %w", err)
	}
	return doc, nil
}

// SaveEstimate overwrites the AFE document.
func (s *Service) SaveEstimate(ctx context.Context, doc models.Estimate) error {
	if err := ValidateEstimate(doc); err != nil {
		return err
	}
	if err := s.estimates.Save(ctx, doc); err != nil {
		return fmt.Errorf("save estimate: %w", err)
	}
	s.logger.Info("estimate saved",
		zap.String("drilling_afe", doc.DrillingAFE.String()),
		zap.String("completion_afe", doc.CompletionAFE.String()),
		zap.Int("estimated_days", doc.EstimatedDays),
	)
	return nil
}

// Summary computes budget against actual from the current log and estimate.
func (s *Service) Summary(ctx context.Context) (models.CostSummary, error) {
	entries, err := s.ValidEntries(ctx)
	if err != nil {
		return models.CostSummary{}, err
	}
	doc, err := s.Estimate(ctx)
	if err != nil {
		return models.CostSummary{}, err
	}
	summary := Summarize(entries, doc)
	summary.GeneratedAt = s.now()
	return summary, nil
}

// Series returns the day-vs-cost chart data.
func (s *Service) Series(ctx context.Context) ([]models.SeriesPoint, error) {
	entries, err := s.ValidEntries(ctx)
	if err != nil {
		return nil, err
	}
	return CostSeries(entries), nil
}

// Dashboard assembles every read view from a single read of the log.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	rows, err := s.ListEntries(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	doc, err := s.Estimate(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	records := make([]models.EntryRecord, len(rows))
	for i, row := range rows {
		records[i] = row.EntryRecord
	}
	entries := s.parseRecords(records)

	summary := Summarize(entries, doc)
	summary.GeneratedAt = s.now()

	return Dashboard{
		Rows:        rows,
		Series:      CostSeries(entries),
		Summary:     summary,
		Estimate:    doc,
		Attachments: attachmentRefs(rows),
	}, nil
}

// Attachment returns the stored PDF.
func (s *Service) Attachment(ctx context.Context, name string) ([]byte, error) {
	data, err := s.attachments.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load attachment: %w", err)
	}
	return data, nil
}

func (s *Service) parseRecords(records []models.EntryRecord) []models.Entry {
	entries := make([]models.Entry, 0, len(records))
	for _, rec := range records {
		entry, err := rec.Parse()
		if err != nil {
			s.logger.Debug("skip row with invalid numbers", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func (s *Service) resolveKey(ctx context.Context, key models.EntryKey) (string, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return "", fmt.Errorf("load entries: %w", err)
	}
	for _, rec := range records {
		if key.Matches(rec) {
			return rec.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", repository.ErrEntryNotFound, key)
}

// storeUpload writes the PDF as "<entry id>-<original name>".
func (s *Service) storeUpload(ctx context.Context, id string, upload *Upload) (string, error) {
	base, err := validateUpload(upload)
	if err != nil {
		return "", err
	}
	name := id + "-" + base
	if err := s.attachments.Put(ctx, name, upload.Data); err != nil {
		return "", fmt.Errorf("store attachment: %w", err)
	}
	return name, nil
}

// releaseAttachment deletes name unless another row (other than skipID) still references it.
// Legacy rows share plain upload names.
func (s *Service) releaseAttachment(ctx context.Context, name string, records []models.EntryRecord, skipID string) {
	if name == "" {
		return
	}
	for _, rec := range records {
		if rec.ID != skipID && rec.Filename == name {
			s.logger.Info("attachment still referenced, keeping file", zap.String("filename", name), zap.String("by", rec.ID))
			return
		}
	}
	s.discardAttachment(ctx, name)
}

func (s *Service) discardAttachment(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := s.attachments.Delete(ctx, name); err != nil {
		s.logger.Warn("failed to remove attachment", zap.String("filename", name), zap.Error(err))
	}
}

func (s *Service) attachmentAvailable(ctx context.Context, name string) bool {
	ok, err := s.attachments.Exists(ctx, name)
	if err != nil {
		s.logger.Debug("attachment lookup failed", zap.String("filename", name), zap.Error(err))
		return false
	}
	return ok
}

func findByID(records []models.EntryRecord, id string) (models.EntryRecord, bool) {
	for _, rec := range records {
		if rec.ID == id && id != "" {
			return rec, true
		}
	}
	return models.EntryRecord{}, false
}

