package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/rigcost/internal/domain/models"
	"github.com/mamadbah2/rigcost/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "rigcost.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func record(day, cost, filename string) models.EntryRecord {
	return models.EntryRecord{
		Date:      "2024-05-01",
		DayNumber: day,
		Phase:     "Completion",
		DailyCost: cost,
		DepthFt:   "8000",
		Filename:  filename,
	}
}

func TestStoreAppendListOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, record("2", "200", "b.pdf")))
	require.NoError(t, s.Append(ctx, record("1", "100", "a.pdf")))
	require.NoError(t, s.Append(ctx, record("x", "oops", "c.pdf")))

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "b.pdf", records[0].Filename)
	assert.Equal(t, "a.pdf", records[1].Filename)
	assert.Equal(t, "oops", records[2].DailyCost)
	for _, rec := range records {
		assert.NotEmpty(t, rec.ID)
	}
}

func TestStoreReplaceAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := record("1", "100", "a.pdf")
	first.ID = "entry-1"
	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, record("2", "200", "b.pdf")))

	require.NoError(t, s.Replace(ctx, "entry-1", record("1", "150", "a2.pdf")))
	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "entry-1", records[0].ID)
	assert.Equal(t, "150", records[0].DailyCost)

	removed, err := s.Delete(ctx, "entry-1")
	require.NoError(t, err)
	assert.Equal(t, "a2.pdf", removed.Filename)

	records, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestStoreMissingEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Replace(ctx, "ghost", record("1", "1", "a.pdf"))
	assert.True(t, errors.Is(err, repository.ErrEntryNotFound))

	_, err = s.Delete(ctx, "ghost")
	assert.True(t, errors.Is(err, repository.ErrEntryNotFound))
}

func TestStoreEstimate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Estimate{}, doc)

	want := models.Estimate{
		DrillingAFE:   decimal.NewFromInt(900000),
		CompletionAFE: decimal.RequireFromString("450000.75"),
		EstimatedDays: 21,
	}
	require.NoError(t, s.Save(ctx, want))
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, want.DrillingAFE.Equal(got.DrillingAFE))
	assert.True(t, want.CompletionAFE.Equal(got.CompletionAFE))
	assert.Equal(t, 21, got.EstimatedDays)
}

func TestStoreListWithoutSchemaIsUnavailable(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "empty.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck

	_, err = s.List(context.Background())
	assert.True(t, errors.Is(err, repository.ErrStoreUnavailable))
}
