package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsgrid/diskwatch/history"
	"github.com/opsgrid/diskwatch/model"
)

func newTestAnalyzer(t *testing.T) (*TrendAnalyzer, *history.Store) {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "trend.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewTrendAnalyzer(store), store
}

func TestTrendNoHistory(t *testing.T) {
	analyzer, _ := newTestAnalyzer(t)

	result, err := analyzer.AnalyzeTrend(context.Background(), "empty")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOK, result.Status)
	assert.Empty(t, result.Messages)
	assert.Zero(t, result.RscTrend)
}

func TestTrendSingleCleanSample(t *testing.T) {
	analyzer, store := newTestAnalyzer(t)
	ctx := context.Background()

	require.NoError(t, store.LogStatus(ctx, "S", 0, 0, 100, 0, 0, 0))

	result, err := analyzer.AnalyzeTrend(ctx, "S")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOK, result.Status)
	assert.Empty(t, result.Messages)
}

func TestTrendSingleSampleWithReallocated(t *testing.T) {
	analyzer, store := newTestAnalyzer(t)
	ctx := context.Background()

	require.NoError(t, store.LogStatus(ctx, "S", 5, 0, 100, 0, 0, 0))

	result, err := analyzer.AnalyzeTrend(ctx, "S")
	require.NoError(t, err)
	assert.Equal(t, model.StatusWarning, result.Status)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "Has 5 Reallocated Sectors.", result.Messages[0])
}

func TestTrendEscalationOnNewReallocated(t *testing.T) {
	analyzer, store := newTestAnalyzer(t)
	ctx := context.Background()

	require.NoError(t, store.LogStatus(ctx, "S", 0, 0, 10, 0, 0, 0))
	require.NoError(t, store.LogStatus(ctx, "S", 3, 0, 11, 0, 0, 0))

	result, err := analyzer.AnalyzeTrend(ctx, "S")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCritical, result.Status)
	assert.Equal(t, int64(3), result.RscTrend)
	assert.Contains(t, result.Messages, "New Reallocated Sectors detected! (+3)")
	assert.Contains(t, result.Messages, "Reallocated Sectors increased by 3 since first scan.")
	// Evaluation order: since-first-seen comes before the immediate delta.
	assert.Equal(t, "Reallocated Sectors increased by 3 since first scan.", result.Messages[0])
}

func TestTrendStableReallocatedStaysWarning(t *testing.T) {
	analyzer, store := newTestAnalyzer(t)
	ctx := context.Background()

	// Count is nonzero but flat since the first scan: no growth, no delta,
	// just the absolute-presence warning.
	require.NoError(t, store.LogStatus(ctx, "S", 4, 0, 10, 0, 0, 0))
	require.NoError(t, store.LogStatus(ctx, "S", 4, 0, 11, 0, 0, 0))

	result, err := analyzer.AnalyzeTrend(ctx, "S")
	require.NoError(t, err)
	assert.Equal(t, model.StatusWarning, result.Status)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "Has 4 Reallocated Sectors.", result.Messages[0])
}

func TestTrendReadAndWriteErrorsDoNotEscalate(t *testing.T) {
	analyzer, store := newTestAnalyzer(t)
	ctx := context.Background()

	require.NoError(t, store.LogStatus(ctx, "S", 0, 10, 10, 0, 0, 2))
	require.NoError(t, store.LogStatus(ctx, "S", 0, 12, 11, 0, 0, 5))

	result, err := analyzer.AnalyzeTrend(ctx, "S")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOK, result.Status)
	assert.Equal(t, []string{
		"New Read Errors detected! (+2)",
		"New Write Errors detected! (+3)",
	}, result.Messages)
	// The read-error delta feeds a message only; the trend counter stays 0.
	assert.Zero(t, result.ReadErrTrend)
}

func TestTrendCriticalNotDowngraded(t *testing.T) {
	analyzer, store := newTestAnalyzer(t)
	ctx := context.Background()

	require.NoError(t, store.LogStatus(ctx, "S", 1, 0, 10, 0, 0, 0))
	require.NoError(t, store.LogStatus(ctx, "S", 2, 0, 11, 0, 0, 0))

	result, err := analyzer.AnalyzeTrend(ctx, "S")
	require.NoError(t, err)
	// Growth sets WARNING, the immediate delta escalates to CRITICAL, and
	// the absolute-presence check must not touch it afterwards.
	assert.Equal(t, model.StatusCritical, result.Status)
	for _, msg := range result.Messages {
		assert.NotContains(t, msg, "Has ")
	}
}
