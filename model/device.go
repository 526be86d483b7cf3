package model

// DeviceSnapshot holds everything known about one device after a poll.
// Exactly one of Attributes or Nvme is populated: ATA-class devices report
// an attribute table, NVMe devices report a health log. Created fresh each
// cycle and never mutated after the engine attaches its results.
type DeviceSnapshot struct {
	Device        string `json:"device"`              // e.g. "/dev/sda", "/dev/nvme0n1"
	Serial        string `json:"serial_number"`       // "Unknown" when the device reports none
	Model         string `json:"model_name"`
	Firmware      string `json:"firmware_version,omitempty"`
	CapacityBytes int64  `json:"capacity_bytes"`
	Temperature   int64  `json:"temperature"`         // Celsius
	PowerOnHours  int64  `json:"power_on_hours"`
	PowerCycles   int64  `json:"power_cycles"`
	SmartPassed   bool   `json:"smart_passed"`
	RotationRate  int64  `json:"rotation_rate"`       // 0 = solid-state

	Attributes []AtaAttribute `json:"ata_attributes,omitempty"`
	Nvme       *NvmeHealthLog `json:"nvme_health_log,omitempty"`

	// Enrichment from external collaborators, opaque to the core.
	Connection ConnectionInfo `json:"connection"`
	Partitions []Partition    `json:"partitions,omitempty"`

	// Attached by the engine after scoring and trend analysis.
	HealthScore int          `json:"health_score"`
	Stats       *DeviceStats `json:"stats,omitempty"`
	Trend       *TrendResult `json:"analysis,omitempty"`

	// Non-empty when acquisition failed for this device.
	Error string `json:"error,omitempty"`
}

// SolidState reports whether the device is non-rotational.
func (d *DeviceSnapshot) SolidState() bool {
	return d.RotationRate == 0
}

// HasSerial reports whether the device exposed a usable serial number.
// Anonymous devices are scored but never persisted or trend-analyzed.
func (d *DeviceSnapshot) HasSerial() bool {
	return d.Serial != "" && d.Serial != UnknownSerial
}

// UnknownSerial is the placeholder for devices that report no serial number.
const UnknownSerial = "Unknown"

// AtaAttribute is one row of an ATA SMART attribute table. The ID is the
// semantic key: 5 is always reallocated sectors, 197 always pending sectors,
// and so on, regardless of vendor naming.
type AtaAttribute struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Value     int64  `json:"value"`  // normalized current value, 100 nominal
	Worst     int64  `json:"worst"`
	Threshold int64  `json:"thresh"`
	Raw       int64  `json:"raw"`
	RawString string `json:"raw_string,omitempty"`
}

// NvmeHealthLog is the fixed-field health structure NVMe devices report.
// Temperature is in Kelvin as delivered on the wire.
type NvmeHealthLog struct {
	CriticalWarning  int64 `json:"critical_warning"`
	Temperature      int64 `json:"temperature"`
	AvailableSpare   int64 `json:"available_spare"`
	SpareThreshold   int64 `json:"available_spare_threshold"`
	PercentageUsed   int64 `json:"percentage_used"` // 0 = new, 100 = end of life
	DataUnitsRead    int64 `json:"data_units_read"`
	DataUnitsWritten int64 `json:"data_units_written"`
	MediaErrors      int64 `json:"media_errors"`
	ErrorLogEntries  int64 `json:"num_err_log_entries"`
	PowerCycles      int64 `json:"power_cycles"`
	PowerOnHours     int64 `json:"power_on_hours"`
	UnsafeShutdowns  int64 `json:"unsafe_shutdowns"`
}

// TemperatureCelsius converts the Kelvin reading for display. Readings that
// are already plausible Celsius values are passed through unchanged.
func (n *NvmeHealthLog) TemperatureCelsius() int64 {
	if n.Temperature > 273 {
		return n.Temperature - 273
	}
	return n.Temperature
}

// ConnectionInfo describes how the device is attached (lsblk enrichment).
type ConnectionInfo struct {
	Type       string `json:"type"`        // "SATA", "NVME", "USB", "Unknown"
	IsExternal bool   `json:"is_external"`
	SpeedLimit string `json:"speed_limit"` // human-readable bus ceiling
}

// Partition is one partition of a device (lsblk enrichment).
type Partition struct {
	Name   string  `json:"name"`
	FSType string  `json:"type"`
	SizeGB float64 `json:"size_gb"`
}
