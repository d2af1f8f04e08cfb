package flatfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/rigcost/internal/domain/models"
)

func TestEstimateStoreDefaultsToZero(t *testing.T) {
	store, err := NewEstimateStore(filepath.Join(t.TempDir(), "estimate.json"), nil)
	require.NoError(t, err)

	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, doc.DrillingAFE.IsZero())
	assert.True(t, doc.CompletionAFE.IsZero())
	assert.Equal(t, 0, doc.EstimatedDays)
}

func TestEstimateStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "estimate.json")
	store, err := NewEstimateStore(path, nil)
	require.NoError(t, err)

	want := models.Estimate{
		DrillingAFE:   decimal.RequireFromString("2500000"),
		CompletionAFE: decimal.RequireFromString("1750000.25"),
		EstimatedDays: 30,
	}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, want.DrillingAFE.Equal(got.DrillingAFE))
	assert.True(t, want.CompletionAFE.Equal(got.CompletionAFE))
	assert.Equal(t, 30, got.EstimatedDays)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Drilling AFE": 2500000, "Completion AFE": 1750000.25, "Estimated Days": 30}`, string(raw))
}

func TestEstimateStoreReadsLegacyFloats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estimate.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Drilling AFE": 2500.0, "Completion AFE": 0, "Estimated Days": 12.0}`), 0o644))

	store, err := NewEstimateStore(path, nil)
	require.NoError(t, err)

	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2500).Equal(doc.DrillingAFE))
	assert.Equal(t, 12, doc.EstimatedDays)
}

func TestEstimateStoreCorruptFileYieldsZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "estimate.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Drilling AFE": `), 0o644))

	store, err := NewEstimateStore(path, nil)
	require.NoError(t, err)

	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Estimate{}, doc)
}
