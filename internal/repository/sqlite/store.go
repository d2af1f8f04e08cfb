// Package sqlite is the single-file database backend for the report log and the estimate.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mamadbah2/rigcost/internal/domain/models"
	"github.com/mamadbah2/rigcost/internal/repository"
)

// Store implements repository.RecordStore and repository.EstimateStore on SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	newID  func() string
}

var (
	_ repository.RecordStore   = (*Store)(nil)
	_ repository.EstimateStore = (*Store)(nil)
)

// New opens the database at dsn and configures WAL mode.
func New(dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, repository.Unavailable("open sqlite", eris.Wrap(err, "sqlite: open"))
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, repository.Unavailable("open sqlite", eris.Wrapf(err, "sqlite: exec %s", pragma))
		}
	}
	return &Store{db: db, logger: logger, newID: uuid.NewString}, nil
}

// Values stay TEXT so rows that do not parse survive a round trip, as in the CSV log.
const migration = `
CREATE TABLE IF NOT EXISTS report_entries (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	date       TEXT NOT NULL DEFAULT '',
	day_number TEXT NOT NULL DEFAULT '',
	phase      TEXT NOT NULL DEFAULT '',
	daily_cost TEXT NOT NULL DEFAULT '',
	depth_ft   TEXT NOT NULL DEFAULT '',
	notes      TEXT NOT NULL DEFAULT '',
	filename   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS estimate (
	id             INTEGER PRIMARY KEY CHECK (id = 1),
	drilling_afe   TEXT NOT NULL DEFAULT '0',
	completion_afe TEXT NOT NULL DEFAULT '0',
	estimated_days INTEGER NOT NULL DEFAULT 0,
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, migration); err != nil {
		return repository.Unavailable("migrate sqlite", eris.Wrap(err, "sqlite: migrate"))
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// List returns every row in insertion order.
func (s *Store) List(ctx context.Context) ([]models.EntryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, day_number, phase, daily_cost, depth_ft, notes, filename FROM report_entries ORDER BY seq`)
	if err != nil {
		return nil, repository.Unavailable("list entries", eris.Wrap(err, "sqlite: query entries"))
	}
	defer rows.Close()

	var records []models.EntryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, repository.Unavailable("list entries", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.Unavailable("list entries", eris.Wrap(err, "sqlite: iterate entries"))
	}
	return records, nil
}

// Append inserts rec after every existing row.
func (s *Store) Append(ctx context.Context, rec models.EntryRecord) error {
	if rec.ID == "" {
		rec.ID = s.newID()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO report_entries (id, date, day_number, phase, daily_cost, depth_ft, notes, filename) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Date, rec.DayNumber, rec.Phase, rec.DailyCost, rec.DepthFt, rec.Notes, rec.Filename,
	)
	if err != nil {
		return repository.IOFailure("append entry", eris.Wrap(err, "sqlite: insert entry"))
	}
	return nil
}

// Replace overwrites the row with the given id, keeping its position.
func (s *Store) Replace(ctx context.Context, id string, rec models.EntryRecord) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE report_entries SET date = ?, day_number = ?, phase = ?, daily_cost = ?, depth_ft = ?, notes = ?, filename = ? WHERE id = ?`,
		rec.Date, rec.DayNumber, rec.Phase, rec.DailyCost, rec.DepthFt, rec.Notes, rec.Filename, id,
	)
	if err != nil {
		return repository.IOFailure("replace entry", eris.Wrapf(err, "sqlite: update entry %s", id))
	}
	return checkRowsAffected(res, id)
}

// Delete removes the row with the given id and returns it.
func (s *Store) Delete(ctx context.Context, id string) (models.EntryRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.EntryRecord{}, repository.IOFailure("delete entry", eris.Wrap(err, "sqlite: begin"))
	}
	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRowContext(ctx,
		`SELECT id, date, day_number, phase, daily_cost, depth_ft, notes, filename FROM report_entries WHERE id = ?`, id)
	removed, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EntryRecord{}, fmt.Errorf("%w: %s", repository.ErrEntryNotFound, id)
	}
	if err != nil {
		return models.EntryRecord{}, repository.Unavailable("delete entry", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM report_entries WHERE id = ?`, id); err != nil {
		return models.EntryRecord{}, repository.IOFailure("delete entry", eris.Wrapf(err, "sqlite: delete entry %s", id))
	}
	if err := tx.Commit(); err != nil {
		return models.EntryRecord{}, repository.IOFailure("delete entry", eris.Wrap(err, "sqlite: commit"))
	}
	return removed, nil
}

// Load returns the estimate, or the zero estimate if none was saved.
func (s *Store) Load(ctx context.Context) (models.Estimate, error) {
	var drilling, completion string
	var days int
	err := s.db.QueryRowContext(ctx,
		`SELECT drilling_afe, completion_afe, estimated_days FROM estimate WHERE id = 1`,
	).Scan(&drilling, &completion, &days)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Estimate{}, nil
	}
	if err != nil {
		s.logger.Warn("estimate unreadable, using zero estimate", zap.Error(err))
		return models.Estimate{}, nil
	}

	doc := models.Estimate{EstimatedDays: days}
	if doc.DrillingAFE, err = decimal.NewFromString(drilling); err != nil {
		s.logger.Debug("skip estimate field with invalid value", zap.String("field", "drilling_afe"), zap.String("value", drilling))
		doc.DrillingAFE = decimal.Zero
	}
	if doc.CompletionAFE, err = decimal.NewFromString(completion); err != nil {
		s.logger.Debug("skip estimate field with invalid value", zap.String("field", "completion_afe"), zap.String("value", completion))
		doc.CompletionAFE = decimal.Zero
	}
	return doc, nil
}

// Save replaces the estimate.
func (s *Store) Save(ctx context.Context, doc models.Estimate) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO estimate (id, drilling_afe, completion_afe, estimated_days, updated_at) VALUES (1, ?, ?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET drilling_afe = excluded.drilling_afe, completion_afe = excluded.completion_afe,
			estimated_days = excluded.estimated_days, updated_at = excluded.updated_at`,
		doc.DrillingAFE.String(), doc.CompletionAFE.String(), doc.EstimatedDays,
	)
	if err != nil {
		return repository.IOFailure("save estimate", eris.Wrap(err, "sqlite: upsert estimate"))
	}
	return nil
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return repository.IOFailure("replace entry", eris.Wrap(err, "rows affected"))
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", repository.ErrEntryNotFound, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (models.EntryRecord, error) {
	var rec models.EntryRecord
	err := row.Scan(&rec.ID, &rec.Date, &rec.DayNumber, &rec.Phase, &rec.DailyCost, &rec.DepthFt, &rec.Notes, &rec.Filename)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, err
	}
	if err != nil {
		return rec, eris.Wrap(err, "sqlite: scan entry")
	}
	return rec, nil
}
