package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/opsgrid/diskwatch/history"
	"github.com/opsgrid/diskwatch/model"
)

// TrendAnalyzer compares a serial's latest history sample against its
// predecessor (immediate delta) and its first-ever sample (long-term drift).
// It only reads; the orchestrator is responsible for having logged the
// current sample first. Store failures propagate to the caller unretried.
type TrendAnalyzer struct {
	store *history.Store
}

// NewTrendAnalyzer creates an analyzer reading from store.
func NewTrendAnalyzer(store *history.Store) *TrendAnalyzer {
	return &TrendAnalyzer{store: store}
}

// AnalyzeTrend evaluates the history of serial. Checks run in a fixed
// order — since-first-seen, immediate-delta, absolute-presence — and their
// messages accumulate in that order. Status only escalates within one
// evaluation: a CRITICAL from the immediate delta is never downgraded by a
// later check.
func (t *TrendAnalyzer) AnalyzeTrend(ctx context.Context, serial string) (model.TrendResult, error) {
	result := model.TrendResult{Status: model.StatusOK, Messages: []string{}}

	recent, err := t.store.Recent(ctx, serial, 2)
	if err != nil {
		return result, err
	}
	if len(recent) == 0 {
		return result, nil
	}
	oldest, err := t.store.Oldest(ctx, serial)
	if err != nil {
		return result, err
	}

	current := recent[0]

	// Growth since the first scan. When only one sample exists, oldest and
	// current are the same row and the diff is harmlessly zero.
	if oldest != nil {
		if growth := current.Reallocated - oldest.Reallocated; growth > 0 {
			result.Status = result.Status.Escalate(model.StatusWarning)
			result.Messages = append(result.Messages,
				fmt.Sprintf("Reallocated Sectors increased by %d since first scan.", growth))
			result.RscTrend = growth
		}
	}

	// Rapid change against the immediately preceding scan.
	if len(recent) > 1 {
		prev := recent[1]
		rscDiff := current.Reallocated - prev.Reallocated
		readDiff := current.ReadErrors - prev.ReadErrors
		writeDiff := current.WriteErrors - prev.WriteErrors

		if rscDiff > 0 {
			result.Status = result.Status.Escalate(model.StatusCritical)
			result.Messages = append(result.Messages,
				fmt.Sprintf("New Reallocated Sectors detected! (+%d)", rscDiff))
		}
		if readDiff > 0 {
			result.Messages = append(result.Messages,
				fmt.Sprintf("New Read Errors detected! (+%d)", readDiff))
		}
		if writeDiff > 0 {
			result.Messages = append(result.Messages,
				fmt.Sprintf("New Write Errors detected! (+%d)", writeDiff))
		}
	}

	// Merely having reallocated sectors is worth a warning even when the
	// count is stable.
	if current.Reallocated > 0 && result.Status == model.StatusOK {
		result.Status = model.StatusWarning
		if !containsReallocatedMessage(result.Messages) {
			result.Messages = append(result.Messages,
				fmt.Sprintf("Has %d Reallocated Sectors.", current.Reallocated))
		}
	}

	return result, nil
}

// containsReallocatedMessage guards against appending a second
// reallocated-sector message in the same evaluation.
func containsReallocatedMessage(messages []string) bool {
	for _, m := range messages {
		if strings.Contains(m, "Reallocated Sectors") {
			return true
		}
	}
	return false
}
