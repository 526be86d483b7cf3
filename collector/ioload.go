package collector

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
)

// LoadSampler derives a 0-100 busy percentage per device from kernel I/O
// counters. Sample is meant to be called once per poll cycle; the first call
// only establishes a baseline and returns nothing.
type LoadSampler struct {
	mu     sync.Mutex
	prev   map[string]uint64 // device short name -> cumulative io_time ms
	prevAt time.Time
}

// NewLoadSampler creates an unprimed sampler.
func NewLoadSampler() *LoadSampler {
	return &LoadSampler{}
}

// Sample reads the current I/O counters and returns the busy percentage per
// device short name since the previous call, clamped to [0, 100].
func (s *LoadSampler) Sample(ctx context.Context) map[string]float64 {
	counters, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return nil
	}

	now := time.Now()
	current := make(map[string]uint64, len(counters))
	for name, c := range counters {
		current[name] = c.IoTime
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loads := make(map[string]float64)
	if s.prev != nil {
		elapsedMs := float64(now.Sub(s.prevAt).Milliseconds())
		if elapsedMs > 0 {
			for name, ioTime := range current {
				prev, ok := s.prev[name]
				if !ok || ioTime < prev {
					continue // new device or counter reset
				}
				pct := float64(ioTime-prev) / elapsedMs * 100
				if pct > 100 {
					pct = 100
				}
				loads[name] = pct
			}
		}
	}

	s.prev = current
	s.prevAt = now
	return loads
}
