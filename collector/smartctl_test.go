package collector

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/opsgrid/diskwatch/model"
)

const ataFixture = `{
	"device": {"name": "/dev/sda", "serial_number": ""},
	"serial_number": "WD-ABC123",
	"model_name": "WDC WD40EFRX-68N32N0",
	"firmware_version": "82.00A82",
	"rotation_rate": 5400,
	"user_capacity": {"bytes": 4000787030016},
	"smart_status": {"passed": true},
	"temperature": {"current": 34},
	"power_on_time": {"hours": 21340},
	"power_cycle_count": 88,
	"ata_smart_attributes": {
		"table": [
			{"id": 5, "name": "Reallocated_Sector_Ct", "value": 200, "worst": 200, "thresh": 140, "raw": {"value": 0, "string": "0"}},
			{"id": 197, "name": "Current_Pending_Sector", "value": 200, "worst": 200, "thresh": 0, "raw": {"value": 2, "string": "2"}},
			{"id": 199, "name": "UDMA_CRC_Error_Count", "worst": 200, "raw": {"value": 1, "string": "1"}}
		]
	}
}`

const nvmeFixture = `{
	"serial_number": "S4EWNX0N123456",
	"model_name": "Samsung SSD 970 EVO 1TB",
	"user_capacity": {"bytes": 1000204886016},
	"smart_status": {"passed": true},
	"nvme_smart_health_information_log": {
		"critical_warning": 0,
		"temperature": 311,
		"available_spare": 100,
		"available_spare_threshold": 10,
		"percentage_used": 3,
		"data_units_read": 12345678,
		"data_units_written": 23456789,
		"media_errors": 0,
		"num_err_log_entries": 5,
		"power_cycles": 421,
		"power_on_hours": 8760,
		"unsafe_shutdowns": 17
	}
}`

func parseFixture(t *testing.T, raw string) *model.DeviceSnapshot {
	t.Helper()
	var out smartctlOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	return out.toSnapshot("/dev/test")
}

func TestToSnapshotAta(t *testing.T) {
	snap := parseFixture(t, ataFixture)

	if snap.Serial != "WD-ABC123" {
		t.Errorf("serial = %q", snap.Serial)
	}
	if snap.Model != "WDC WD40EFRX-68N32N0" {
		t.Errorf("model = %q", snap.Model)
	}
	if !snap.SmartPassed {
		t.Error("smart_passed should be true")
	}
	if snap.SolidState() {
		t.Error("5400 rpm drive reported as solid state")
	}
	if snap.Temperature != 34 || snap.PowerOnHours != 21340 {
		t.Errorf("temp=%d hours=%d", snap.Temperature, snap.PowerOnHours)
	}
	if len(snap.Attributes) != 3 {
		t.Fatalf("attributes = %d, want 3", len(snap.Attributes))
	}

	rsc := snap.Attributes[0]
	if rsc.ID != 5 || rsc.Value != 200 || rsc.Threshold != 140 || rsc.Raw != 0 {
		t.Errorf("attribute 5 parsed wrong: %+v", rsc)
	}

	// Row 199 omits value/thresh; the defaults must be inert so a sparse
	// table never trips the threshold-breach check.
	crc := snap.Attributes[2]
	if crc.Value != 100 || crc.Threshold != 0 {
		t.Errorf("malformed row defaults: value=%d thresh=%d, want 100/0", crc.Value, crc.Threshold)
	}
	if snap.Nvme != nil {
		t.Error("ATA fixture should carry no NVMe log")
	}
}

func TestToSnapshotNvme(t *testing.T) {
	snap := parseFixture(t, nvmeFixture)

	if snap.Nvme == nil {
		t.Fatal("nvme log missing")
	}
	if snap.Nvme.PercentageUsed != 3 {
		t.Errorf("percentage_used = %d", snap.Nvme.PercentageUsed)
	}
	if !snap.SolidState() {
		t.Error("nvme device should be solid state")
	}
	// Device-level temperature and hours are absent; the NVMe log fills in.
	if snap.Temperature != 311 {
		t.Errorf("temperature fallback = %d, want 311", snap.Temperature)
	}
	if got := snap.Nvme.TemperatureCelsius(); got != 38 {
		t.Errorf("celsius conversion = %d, want 38", got)
	}
	if snap.PowerOnHours != 8760 {
		t.Errorf("power_on_hours fallback = %d", snap.PowerOnHours)
	}
}

func TestToSnapshotUnknownSerial(t *testing.T) {
	snap := parseFixture(t, `{"model_name": "Ghost", "smart_status": {"passed": true}}`)
	if snap.Serial != model.UnknownSerial {
		t.Errorf("serial = %q, want %q", snap.Serial, model.UnknownSerial)
	}
	if snap.HasSerial() {
		t.Error("HasSerial should be false for unknown serial")
	}
}

func TestShortName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/dev/sda", "sda"},
		{"/dev/nvme0n1", "nvme0n1"},
		{"sdb", "sdb"},
	}
	for _, tt := range tests {
		if got := ShortName(tt.in); got != tt.want {
			t.Errorf("ShortName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMockSourceDeterministic(t *testing.T) {
	mock := NewMockSource()
	ctx := context.Background()

	devices, err := mock.Scan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) == 0 {
		t.Fatal("mock scan returned no devices")
	}

	a, err := mock.Snapshot(ctx, devices[0])
	if err != nil {
		t.Fatal(err)
	}
	b, err := mock.Snapshot(ctx, devices[0])
	if err != nil {
		t.Fatal(err)
	}
	if a.Serial != b.Serial || a.SmartPassed != b.SmartPassed || a.PowerOnHours != b.PowerOnHours {
		t.Error("mock snapshots for the same device differ between calls")
	}
	if !a.HasSerial() {
		t.Error("mock devices should carry serials")
	}
}
