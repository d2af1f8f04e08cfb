// Package flatfile stores the report log as CSV and the estimate as JSON on local disk.
package flatfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mamadbah2/rigcost/internal/domain/models"
	"github.com/mamadbah2/rigcost/internal/repository"
)

// RecordStore keeps drilling-day rows in a CSV file. Every write rewrites the whole file
// through a temp file and rename. The mutex only serializes writers inside this process.
// Columns the store does not know are carried through unchanged after the known ones.
type RecordStore struct {
	path   string
	logger *zap.Logger
	newID  func() string
	mu     sync.Mutex
}

var _ repository.RecordStore = (*RecordStore)(nil)

// logFile is the report log as read from disk. extra[i] holds the values of extraCols for
// records[i].
type logFile struct {
	records   []models.EntryRecord
	extraCols []string
	extra     [][]string
}

// NewRecordStore opens the report log at path, creating its directory if needed. A log
// written before rows carried identifiers is upgraded in place. A log that cannot be read
// does not stop the store from opening: List reports it, and the upgrade happens on the
// first write that succeeds.
func NewRecordStore(path string, logger *zap.Logger) (*RecordStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, repository.IOFailure("create report log directory", err)
	}

	s := &RecordStore{path: path, logger: logger, newID: uuid.NewString}
	if err := s.assignMissingIDs(); err != nil {
		logger.Warn("report log not upgraded", zap.String("path", path), zap.Error(err))
	}
	return s, nil
}

// List returns every row in file order. A missing log is an empty log.
func (s *RecordStore) List(_ context.Context) ([]models.EntryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lf, err := s.readAll()
	if err != nil {
		return nil, err
	}
	return lf.records, nil
}

// Append adds rec as the last row.
func (s *RecordStore) Append(_ context.Context, rec models.EntryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lf, err := s.readAll()
	if err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = s.newID()
	}
	lf.records = append(lf.records, rec)
	lf.extra = append(lf.extra, nil)
	return s.writeAll(lf)
}

// Replace overwrites the row with the given id in place. Unknown columns keep their values.
func (s *RecordStore) Replace(_ context.Context, id string, rec models.EntryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lf, err := s.readAll()
	if err != nil {
		return err
	}
	idx := indexOf(lf.records, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", repository.ErrEntryNotFound, id)
	}
	rec.ID = id
	lf.records[idx] = rec
	return s.writeAll(lf)
}

// Delete removes the row with the given id and returns it.
func (s *RecordStore) Delete(_ context.Context, id string) (models.EntryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lf, err := s.readAll()
	if err != nil {
		return models.EntryRecord{}, err
	}
	idx := indexOf(lf.records, id)
	if idx < 0 {
		return models.EntryRecord{}, fmt.Errorf("%w: %s", repository.ErrEntryNotFound, id)
	}
	removed := lf.records[idx]
	lf.records = append(lf.records[:idx], lf.records[idx+1:]...)
	lf.extra = append(lf.extra[:idx], lf.extra[idx+1:]...)
	if err := s.writeAll(lf); err != nil {
		return models.EntryRecord{}, err
	}
	return removed, nil
}

func (s *RecordStore) assignMissingIDs() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lf, err := s.readAll()
	if err != nil {
		return err
	}
	for _, rec := range lf.records {
		if strings.TrimSpace(rec.ID) == "" {
			return s.writeAll(lf)
		}
	}
	return nil
}

func (s *RecordStore) readAll() (*logFile, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &logFile{}, nil
	}
	if err != nil {
		return nil, repository.Unavailable("open report log", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, repository.Unavailable("read report log", eris.Wrap(err, "csv: read rows"))
	}
	if len(rows) == 0 {
		return &logFile{}, nil
	}

	columns, err := newColumnIndex(rows[0])
	if err != nil {
		return nil, repository.Unavailable("read report log", err)
	}

	lf := &logFile{
		records:   make([]models.EntryRecord, 0, len(rows)-1),
		extraCols: columns.extraCols,
		extra:     make([][]string, 0, len(rows)-1),
	}
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		lf.records = append(lf.records, columns.record(row))
		lf.extra = append(lf.extra, columns.extraValues(row))
	}
	return lf, nil
}

// writeAll rewrites the log. Rows still without an identifier get one here, so a log that
// could not be upgraded at startup is upgraded by the first successful write.
func (s *RecordStore) writeAll(lf *logFile) error {
	assigned := 0
	for i := range lf.records {
		if strings.TrimSpace(lf.records[i].ID) == "" {
			lf.records[i].ID = s.newID()
			assigned++
		}
	}

	err := writeFileAtomic(s.path, func(f *os.File) error {
		w := csv.NewWriter(f)
		header := append(append([]string{}, models.ReportLogHeader...), lf.extraCols...)
		if err := w.Write(header); err != nil {
			return err
		}
		for i, rec := range lf.records {
			row := make([]string, 0, len(header))
			row = append(row, rec.Date, rec.DayNumber, rec.Phase, rec.DailyCost, rec.DepthFt, rec.Notes, rec.Filename, rec.ID)
			row = append(row, padded(lf.extra[i], len(lf.extraCols))...)
			if err := w.Write(row); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	}, "write report log")
	if err != nil {
		return err
	}

	if assigned > 0 {
		s.logger.Info("assigned identifiers to report log rows", zap.Int("rows", assigned), zap.String("path", s.path))
	}
	return nil
}

type columnIndex struct {
	known     map[string]int
	extraCols []string
	extraPos  []int
}

func newColumnIndex(header []string) (columnIndex, error) {
	known := make(map[string]struct{}, len(models.ReportLogHeader))
	for _, col := range models.ReportLogHeader {
		known[col] = struct{}{}
	}

	idx := columnIndex{known: make(map[string]int, len(header))}
	seenExtra := make(map[string]struct{})
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, ok := known[name]; ok {
			if _, seen := idx.known[name]; !seen {
				idx.known[name] = i
			}
			continue
		}
		if _, dup := seenExtra[name]; name == "" || dup {
			continue
		}
		seenExtra[name] = struct{}{}
		idx.extraCols = append(idx.extraCols, name)
		idx.extraPos = append(idx.extraPos, i)
	}

	var missing []string
	for _, col := range models.RequiredColumns {
		if _, ok := idx.known[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return columnIndex{}, eris.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func (c columnIndex) record(row []string) models.EntryRecord {
	get := func(col string) string {
		i, ok := c.known[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	return models.EntryRecord{
		ID:        strings.TrimSpace(get(models.ColumnID)),
		Date:      get(models.ColumnDate),
		DayNumber: get(models.ColumnDayNumber),
		Phase:     get(models.ColumnPhase),
		DailyCost: get(models.ColumnDailyCost),
		DepthFt:   get(models.ColumnDepth),
		Notes:     get(models.ColumnNotes),
		Filename:  get(models.ColumnFilename),
	}
}

func (c columnIndex) extraValues(row []string) []string {
	if len(c.extraPos) == 0 {
		return nil
	}
	values := make([]string, len(c.extraPos))
	for i, pos := range c.extraPos {
		if pos < len(row) {
			values[i] = row[pos]
		}
	}
	return values
}

func padded(values []string, n int) []string {
	if len(values) >= n {
		return values[:n]
	}
	return append(append(make([]string, 0, n), values...), make([]string, n-len(values))...)
}

func indexOf(records []models.EntryRecord, id string) int {
	if id == "" {
		return -1
	}
	for i, rec := range records {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
