// Package engine turns raw device snapshots into health verdicts: attribute
// classification, scoring, history-backed trend analysis, and the poll loop
// that ties them together.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsgrid/diskwatch/collector"
	"github.com/opsgrid/diskwatch/history"
	"github.com/opsgrid/diskwatch/metrics"
	"github.com/opsgrid/diskwatch/model"
)

// LoadSource provides per-device busy percentages keyed by device short name
// ("sda", not "/dev/sda"). Sampled at most once per cycle.
type LoadSource interface {
	Sample(ctx context.Context) map[string]float64
}

// Results is one cycle's complete output. Published as a whole so readers
// never observe a half-updated device map.
type Results struct {
	Devices   map[string]*model.DeviceSnapshot `json:"devices"` // keyed by device path
	Overall   model.Status                     `json:"overall"`
	UpdatedAt time.Time                        `json:"updated_at"`
}

// Engine orchestrates scanning, scoring, persistence, and trend analysis.
type Engine struct {
	source collector.Source
	loads  LoadSource
	store  *history.Store
	trend  *TrendAnalyzer
	meter  *metrics.Metrics
	cache  *Cache
	log    zerolog.Logger

	cycleMu sync.Mutex // serializes Cycle calls so overlapping ticks never interleave

	mu      sync.RWMutex
	results *Results
}

// New assembles an engine. store, meter, and cache may be nil; the matching
// stages are skipped. When a cache is given its last saved results seed the
// engine so the UI has data before the first cycle completes.
func New(source collector.Source, loads LoadSource, store *history.Store, meter *metrics.Metrics, cache *Cache, log zerolog.Logger) *Engine {
	e := &Engine{
		source: source,
		loads:  loads,
		store:  store,
		meter:  meter,
		cache:  cache,
		log:    log,
	}
	if store != nil {
		e.trend = NewTrendAnalyzer(store)
	}
	if cache != nil {
		if warm := cache.Load(); warm != nil {
			e.results = warm
			log.Debug().Int("devices", len(warm.Devices)).Time("from", warm.UpdatedAt).Msg("warm-started from cache")
		}
	}
	return e
}

// Results returns the most recently published cycle, or nil before the first
// cycle (and with no cache to warm-start from).
func (e *Engine) Results() *Results {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.results
}

// Cycle performs one full scan: enumerate devices, sample I/O load once,
// then snapshot, score, persist, and trend-analyze each device in turn.
// A device-level acquisition failure skips that device and the cycle goes
// on; only scan failure or cancellation abort the cycle, and an aborted
// cycle publishes nothing.
func (e *Engine) Cycle(ctx context.Context) error {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	started := time.Now()

	devices, err := e.source.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan devices: %w", err)
	}

	var loads map[string]float64
	if e.loads != nil {
		loads = e.loads.Sample(ctx)
	}

	snapshots := make(map[string]*model.DeviceSnapshot, len(devices))
	for _, dev := range devices {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap, err := e.source.Snapshot(ctx, dev)
		if err != nil {
			e.log.Warn().Str("device", dev.Name).Err(err).Msg("snapshot failed, skipping device this cycle")
			continue
		}
		e.process(ctx, snap, loads)
		snapshots[snap.Device] = snap
	}

	results := &Results{
		Devices:   snapshots,
		Overall:   overallStatus(snapshots),
		UpdatedAt: time.Now(),
	}

	e.mu.Lock()
	e.results = results
	e.mu.Unlock()

	e.meter.Publish(snapshots, time.Since(started))
	if e.cache != nil {
		if err := e.cache.Save(results); err != nil {
			e.log.Warn().Err(err).Msg("save results cache")
		}
	}

	e.log.Debug().
		Int("devices", len(snapshots)).
		Str("overall", results.Overall.String()).
		Dur("took", time.Since(started)).
		Msg("cycle complete")
	return nil
}

// process runs the per-device pipeline: counter extraction, scoring, and,
// for devices with a usable serial, history logging plus trend analysis.
// Persistence and trend failures are logged and the device keeps its score.
func (e *Engine) process(ctx context.Context, snap *model.DeviceSnapshot, loads map[string]float64) {
	stats := extractStats(snap)
	stats.IOLoad = loads[collector.ShortName(snap.Device)]
	snap.HealthScore = Score(snap)

	if !snap.HasSerial() {
		e.log.Debug().Str("device", snap.Device).Msg("no serial number, skipping history and trend")
		return
	}
	snap.Stats = &stats

	if e.store == nil {
		return
	}
	if err := e.store.LogStatus(ctx, snap.Serial, stats.Reallocated, stats.ReadErrors, snap.PowerOnHours, stats.Pending, stats.IOLoad, 0); err != nil {
		e.log.Warn().Str("device", snap.Device).Err(err).Msg("log history sample")
	}
	trend, err := e.trend.AnalyzeTrend(ctx, snap.Serial)
	if err != nil {
		e.log.Warn().Str("device", snap.Device).Err(err).Msg("trend analysis")
		return
	}
	snap.Trend = &trend
}

// extractStats pulls the trended counters out of a snapshot. NVMe devices
// have no ATA table; media errors stand in for read errors there.
func extractStats(snap *model.DeviceSnapshot) model.DeviceStats {
	var stats model.DeviceStats
	for _, attr := range snap.Attributes {
		switch attr.ID {
		case AttrReallocated:
			stats.Reallocated = attr.Raw
		case AttrRawReadError:
			stats.ReadErrors = attr.Raw
		case AttrPendingSectors:
			stats.Pending = attr.Raw
		}
	}
	if snap.Nvme != nil {
		stats.ReadErrors = snap.Nvme.MediaErrors
	}
	return stats
}

// overallStatus folds per-device verdicts into one traffic light. A failed
// SMART status is always critical; otherwise the worst trend status wins.
func overallStatus(devices map[string]*model.DeviceSnapshot) model.Status {
	overall := model.StatusOK
	for _, snap := range devices {
		if !snap.SmartPassed {
			return model.StatusCritical
		}
		if snap.Trend != nil {
			overall = overall.Escalate(snap.Trend.Status)
		}
	}
	return overall
}

// Run polls until ctx is cancelled. The first cycle starts immediately.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	if err := e.Cycle(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.log.Error().Err(err).Msg("scan cycle failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := e.Cycle(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				e.log.Error().Err(err).Msg("scan cycle failed")
			}
		}
	}
}
