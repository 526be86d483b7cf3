package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/opsgrid/diskwatch/engine"
	"github.com/opsgrid/diskwatch/model"
)

// runWatch prints the device table to the terminal on every cycle. Suited
// for ssh sessions and cron-style checks where a fullscreen TUI is unwanted.
func runWatch(eng *engine.Engine, opts Options) error {
	iteration := 0
	for {
		if err := eng.Cycle(context.Background()); err != nil {
			return err
		}
		printResults(eng.Results(), opts.ShowHidden)

		iteration++
		if opts.WatchCount > 0 && iteration >= opts.WatchCount {
			return nil
		}
		time.Sleep(opts.Interval)
	}
}

func printResults(results *engine.Results, showHidden bool) {
	if results == nil {
		fmt.Println("no scan results")
		return
	}

	fmt.Printf("=== diskwatch %s | overall: %s | %d device(s) ===\n",
		results.UpdatedAt.Format("15:04:05"), results.Overall, len(results.Devices))
	fmt.Printf("%-14s %-24s %-20s %10s %6s %7s %-9s %s\n",
		"DEVICE", "MODEL", "SERIAL", "SIZE", "TEMP", "HEALTH", "STATUS", "NOTES")

	paths := make([]string, 0, len(results.Devices))
	for path := range results.Devices {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		snap := results.Devices[path]
		if !showHidden && !snap.HasSerial() && snap.Model == "" {
			continue
		}
		printDevice(snap)
	}
	fmt.Println()
}

func printDevice(snap *model.DeviceSnapshot) {
	size := "-"
	if snap.CapacityBytes > 0 {
		size = humanize.IBytes(uint64(snap.CapacityBytes))
	}

	status := model.StatusOK
	var notes []string
	if snap.Trend != nil {
		status = snap.Trend.Status
		notes = snap.Trend.Messages
	}
	if !snap.SmartPassed {
		status = model.StatusCritical
		notes = append([]string{"SMART overall status: FAILED"}, notes...)
	}

	first := ""
	if len(notes) > 0 {
		first = notes[0]
	}
	fmt.Printf("%-14s %-24.24s %-20.20s %10s %5d° %7d %-9s %s\n",
		snap.Device, snap.Model, snap.Serial, size, snap.Temperature,
		snap.HealthScore, status, first)
	for i, msg := range notes {
		if i == 0 {
			continue
		}
		fmt.Printf("%96s %s\n", "", msg)
	}
}
