package ui

import (
	"testing"

	"github.com/opsgrid/diskwatch/engine"
	"github.com/opsgrid/diskwatch/model"
)

func resultsWith(snaps ...*model.DeviceSnapshot) *engine.Results {
	devices := make(map[string]*model.DeviceSnapshot, len(snaps))
	for _, snap := range snaps {
		devices[snap.Device] = snap
	}
	return &engine.Results{Devices: devices}
}

func TestVisibleRowsFiltersGhosts(t *testing.T) {
	results := resultsWith(
		&model.DeviceSnapshot{Device: "/dev/sda", Serial: "S1", Model: "Disk A"},
		&model.DeviceSnapshot{Device: "/dev/sdb", Serial: model.UnknownSerial, Model: ""},
		&model.DeviceSnapshot{Device: "/dev/sdc", Serial: model.UnknownSerial, Model: "Bridge"},
	)

	rows := visibleRows(results, false)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (ghost filtered)", len(rows))
	}
	for _, row := range rows {
		if row.Device == "/dev/sdb" {
			t.Error("ghost device survived the filter")
		}
	}

	// With hidden devices shown the ghost reappears.
	if rows := visibleRows(results, true); len(rows) != 3 {
		t.Errorf("rows with hidden = %d, want 3", len(rows))
	}
}

func TestVisibleRowsDedupsSerials(t *testing.T) {
	// Multipath setups enumerate the same physical drive twice; only the
	// first path (sorted order) is kept.
	results := resultsWith(
		&model.DeviceSnapshot{Device: "/dev/sda", Serial: "SAME", Model: "Disk"},
		&model.DeviceSnapshot{Device: "/dev/sdb", Serial: "SAME", Model: "Disk"},
	)

	rows := visibleRows(results, false)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Device != "/dev/sda" {
		t.Errorf("kept %s, want /dev/sda", rows[0].Device)
	}
}

func TestVisibleRowsSortedByPath(t *testing.T) {
	results := resultsWith(
		&model.DeviceSnapshot{Device: "/dev/sdc", Serial: "C", Model: "Disk"},
		&model.DeviceSnapshot{Device: "/dev/sda", Serial: "A", Model: "Disk"},
		&model.DeviceSnapshot{Device: "/dev/sdb", Serial: "B", Model: "Disk"},
	)

	rows := visibleRows(results, false)
	want := []string{"/dev/sda", "/dev/sdb", "/dev/sdc"}
	for i, row := range rows {
		if row.Device != want[i] {
			t.Errorf("row %d = %s, want %s", i, row.Device, want[i])
		}
	}
}

func TestVisibleRowsNilResults(t *testing.T) {
	if rows := visibleRows(nil, false); rows != nil {
		t.Errorf("nil results should yield nil rows, got %v", rows)
	}
}
