package model

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/basketrec/core"
)

func TestLRModel_PredictBatch(t *testing.T) {
	m := NewLRModel(0.5, map[string]float64{"a": 1, "b": -2, "unused": 9}, []string{"a", "b"})

	got, err := m.PredictBatch(context.Background(), [][]float64{
		{1, 1},
		{1, math.NaN()},
	})
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(0.5)), got[0], 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(-1.5)), got[1], 1e-12)
}

func TestLRModel_TrainingAliasWeights(t *testing.T) {
	m := NewLRModel(0, map[string]float64{"total_distinct_items": 2}, []string{"user_total_distinct_items"})

	got, err := m.PredictBatch(context.Background(), [][]float64{{1}})
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-2)), got[0], 1e-12)
}

func TestLRModel_FeatureCountMismatch(t *testing.T) {
	m := NewLRModel(0, nil, []string{"a"})
	_, err := m.PredictBatch(context.Background(), [][]float64{{1, 2}})
	assert.Error(t, err)
}

func TestLoadLRModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lr.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bias": 0.1, "weights": {"a": 0.2}}`), 0o644))

	m, err := LoadLRModel(path, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 0.1, m.Bias)
	assert.Equal(t, []string{"a", "b"}, m.FeatureNames())

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o644))
	_, err = LoadLRModel(bad, nil)
	assert.True(t, core.IsModelUnavailable(err))
}
