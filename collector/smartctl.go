// Package collector acquires raw device data: SMART snapshots from
// smartctl, partition/connection enrichment from lsblk, and per-device I/O
// load from kernel counters. The engine consumes it through the Source
// interface so a mock can stand in when smartctl is unavailable.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/rs/zerolog"

	"github.com/opsgrid/diskwatch/model"
)

// Device is one enumerated device handle from a scan.
type Device struct {
	Name string // e.g. "/dev/sda"
	Type string // smartctl device type hint, may be empty
}

// Source produces device snapshots for the scan engine.
type Source interface {
	// Scan enumerates devices capable of SMART reporting.
	Scan(ctx context.Context) ([]Device, error)
	// Snapshot queries one device. An error means acquisition failed and the
	// device is skipped for this cycle.
	Snapshot(ctx context.Context, dev Device) (*model.DeviceSnapshot, error)
}

// commonPaths are checked when smartctl is not on PATH.
var commonPaths = []string{
	"/usr/sbin/smartctl",
	"/usr/bin/smartctl",
	"/sbin/smartctl",
	`C:\Program Files\smartmontools\bin\smartctl.exe`,
}

// LocateSmartctl finds the smartctl binary on PATH or in common install
// locations.
func LocateSmartctl() (string, error) {
	if p, err := exec.LookPath("smartctl"); err == nil {
		return p, nil
	}
	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("smartctl not found in PATH or common locations")
}

// SmartctlSource acquires snapshots by running smartctl as a subprocess and
// parsing its JSON output.
type SmartctlSource struct {
	path string
	log  zerolog.Logger
}

// NewSmartctlSource locates smartctl and returns a source using it.
func NewSmartctlSource(log zerolog.Logger) (*SmartctlSource, error) {
	path, err := LocateSmartctl()
	if err != nil {
		return nil, err
	}
	if runtime.GOOS != "windows" && os.Geteuid() != 0 {
		log.Warn().Msg("running without root; raw SMART access may be limited")
	}
	return &SmartctlSource{path: path, log: log}, nil
}

// Scan runs `smartctl --scan-open --json` and returns the device list.
func (s *SmartctlSource) Scan(ctx context.Context) ([]Device, error) {
	out, err := exec.CommandContext(ctx, s.path, "--scan-open", "--json").Output()
	if err != nil {
		return nil, fmt.Errorf("smartctl --scan-open: %w", err)
	}
	var scan smartctlScan
	if err := json.Unmarshal(out, &scan); err != nil {
		return nil, fmt.Errorf("parse scan output: %w", err)
	}
	devices := make([]Device, 0, len(scan.Devices))
	for _, d := range scan.Devices {
		devices = append(devices, Device{Name: d.Name, Type: d.Type})
	}
	return devices, nil
}

// Snapshot runs `smartctl -a --json` for one device and converts the output.
func (s *SmartctlSource) Snapshot(ctx context.Context, dev Device) (*model.DeviceSnapshot, error) {
	args := []string{"-a", "--json", dev.Name}
	if dev.Type != "" {
		args = []string{"-a", "--json", "-d", dev.Type, dev.Name}
	}
	out, err := exec.CommandContext(ctx, s.path, args...).Output()
	// smartctl exits non-zero for many non-fatal reasons (failing drive,
	// unsupported sub-command); as long as it produced JSON, parse it.
	if len(out) == 0 {
		if err != nil {
			return nil, fmt.Errorf("smartctl %s: %w", dev.Name, err)
		}
		return nil, fmt.Errorf("smartctl %s: empty output", dev.Name)
	}

	var data smartctlOutput
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, fmt.Errorf("parse smartctl output for %s: %w", dev.Name, err)
	}
	snap := data.toSnapshot(dev.Name)
	enrich(ctx, snap)
	return snap, nil
}

// smartctlScan is the relevant subset of `smartctl --scan-open --json`.
type smartctlScan struct {
	Devices []struct {
		Name     string `json:"name"`
		InfoName string `json:"info_name"`
		Type     string `json:"type"`
	} `json:"devices"`
}

// smartctlOutput is the relevant subset of `smartctl -a --json`.
type smartctlOutput struct {
	Device struct {
		Name         string `json:"name"`
		SerialNumber string `json:"serial_number"`
	} `json:"device"`
	SerialNumber    string `json:"serial_number"`
	ModelName       string `json:"model_name"`
	ModelFamily     string `json:"model_family"`
	FirmwareVersion string `json:"firmware_version"`
	RotationRate    int64  `json:"rotation_rate"`
	UserCapacity    struct {
		Bytes int64 `json:"bytes"`
	} `json:"user_capacity"`
	SmartStatus struct {
		Passed bool `json:"passed"`
	} `json:"smart_status"`
	Temperature struct {
		Current int64 `json:"current"`
	} `json:"temperature"`
	PowerOnTime struct {
		Hours int64 `json:"hours"`
	} `json:"power_on_time"`
	PowerCycleCount    int64 `json:"power_cycle_count"`
	ATASmartAttributes struct {
		Table []smartctlAttribute `json:"table"`
	} `json:"ata_smart_attributes"`
	NVMeHealthLog *smartctlNvmeLog `json:"nvme_smart_health_information_log"`
}

// smartctlAttribute is one ATA table row. Value and Thresh are pointers so
// rows missing them default to inert values (normalized 100, threshold 0)
// instead of tripping a classification.
type smartctlAttribute struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Value  *int64 `json:"value"`
	Worst  int64  `json:"worst"`
	Thresh *int64 `json:"thresh"`
	Raw    struct {
		Value  int64  `json:"value"`
		String string `json:"string"`
	} `json:"raw"`
}

type smartctlNvmeLog struct {
	CriticalWarning  int64 `json:"critical_warning"`
	Temperature      int64 `json:"temperature"`
	AvailableSpare   int64 `json:"available_spare"`
	SpareThreshold   int64 `json:"available_spare_threshold"`
	PercentageUsed   int64 `json:"percentage_used"`
	DataUnitsRead    int64 `json:"data_units_read"`
	DataUnitsWritten int64 `json:"data_units_written"`
	MediaErrors      int64 `json:"media_errors"`
	ErrorLogEntries  int64 `json:"num_err_log_entries"`
	PowerCycles      int64 `json:"power_cycles"`
	PowerOnHours     int64 `json:"power_on_hours"`
	UnsafeShutdowns  int64 `json:"unsafe_shutdowns"`
}

func (o *smartctlOutput) toSnapshot(device string) *model.DeviceSnapshot {
	serial := o.SerialNumber
	if serial == "" {
		serial = o.Device.SerialNumber
	}
	if serial == "" {
		serial = model.UnknownSerial
	}

	modelName := o.ModelName
	if modelName == "" {
		modelName = o.ModelFamily
	}

	snap := &model.DeviceSnapshot{
		Device:        device,
		Serial:        serial,
		Model:         modelName,
		Firmware:      o.FirmwareVersion,
		CapacityBytes: o.UserCapacity.Bytes,
		Temperature:   o.Temperature.Current,
		PowerOnHours:  o.PowerOnTime.Hours,
		PowerCycles:   o.PowerCycleCount,
		SmartPassed:   o.SmartStatus.Passed,
		RotationRate:  o.RotationRate,
		Connection:    model.ConnectionInfo{Type: "Unknown", SpeedLimit: "Unknown"},
	}

	for _, attr := range o.ATASmartAttributes.Table {
		normalized := int64(100)
		if attr.Value != nil {
			normalized = *attr.Value
		}
		threshold := int64(0)
		if attr.Thresh != nil {
			threshold = *attr.Thresh
		}
		snap.Attributes = append(snap.Attributes, model.AtaAttribute{
			ID:        attr.ID,
			Name:      attr.Name,
			Value:     normalized,
			Worst:     attr.Worst,
			Threshold: threshold,
			Raw:       attr.Raw.Value,
			RawString: attr.Raw.String,
		})
	}

	if o.NVMeHealthLog != nil {
		n := o.NVMeHealthLog
		snap.Nvme = &model.NvmeHealthLog{
			CriticalWarning:  n.CriticalWarning,
			Temperature:      n.Temperature,
			AvailableSpare:   n.AvailableSpare,
			SpareThreshold:   n.SpareThreshold,
			PercentageUsed:   n.PercentageUsed,
			DataUnitsRead:    n.DataUnitsRead,
			DataUnitsWritten: n.DataUnitsWritten,
			MediaErrors:      n.MediaErrors,
			ErrorLogEntries:  n.ErrorLogEntries,
			PowerCycles:      n.PowerCycles,
			PowerOnHours:     n.PowerOnHours,
			UnsafeShutdowns:  n.UnsafeShutdowns,
		}
		if snap.Temperature == 0 {
			snap.Temperature = n.Temperature
		}
		if snap.PowerOnHours == 0 {
			snap.PowerOnHours = n.PowerOnHours
		}
	}

	return snap
}

// ShortName strips the /dev/ prefix: "/dev/sda" becomes "sda". Used as the
// key into the per-device I/O load map.
func ShortName(device string) string {
	parts := strings.Split(device, "/")
	return parts[len(parts)-1]
}
