package collector

import (
	"context"
	"hash/fnv"
	"math/rand"

	"github.com/opsgrid/diskwatch/model"
)

// MockSource fabricates plausible SMART data when smartctl is unavailable,
// so the dashboard and pipeline run anywhere. Data is seeded per device name
// and therefore stable across cycles.
type MockSource struct{}

// NewMockSource creates a mock source.
func NewMockSource() *MockSource {
	return &MockSource{}
}

var mockDevices = []string{"/dev/sda", "/dev/sdb", "/dev/sdc", "/dev/sdd", "/dev/sde"}

// Scan returns a fixed set of fake devices.
func (m *MockSource) Scan(ctx context.Context) ([]Device, error) {
	devices := make([]Device, 0, len(mockDevices))
	for _, name := range mockDevices {
		devices = append(devices, Device{Name: name})
	}
	return devices, nil
}

// Snapshot fabricates SMART data for one fake device. Roughly one device in
// ten fails overall SMART status and carries bad sectors.
func (m *MockSource) Snapshot(ctx context.Context, dev Device) (*model.DeviceSnapshot, error) {
	rng := rand.New(rand.NewSource(seedFor(dev.Name)))

	passed := rng.Float64() > 0.1
	var reallocated, pending int64
	if !passed {
		reallocated = int64(rng.Intn(990) + 10)
		pending = int64(rng.Intn(50) + 1)
	}
	hours := int64(rng.Intn(59000) + 1000)
	temp := int64(rng.Intn(25) + 30)

	snap := &model.DeviceSnapshot{
		Device:        dev.Name,
		Serial:        "MOCK-" + ShortName(dev.Name),
		Model:         "Mock-Disk-2000",
		CapacityBytes: int64(rng.Intn(1750)+250) << 30,
		Temperature:   temp,
		PowerOnHours:  hours,
		PowerCycles:   int64(rng.Intn(2000)),
		SmartPassed:   passed,
		RotationRate:  7200,
		Attributes: []model.AtaAttribute{
			{ID: 5, Name: "Reallocated_Sector_Ct", Value: 100, Worst: 100, Threshold: 10, Raw: reallocated},
			{ID: 9, Name: "Power_On_Hours", Value: 90, Worst: 90, Raw: hours},
			{ID: 194, Name: "Temperature_Celsius", Value: 60, Worst: 55, Raw: temp},
			{ID: 197, Name: "Current_Pending_Sector", Value: 100, Worst: 100, Raw: pending},
		},
		Connection: mockConnection(rng),
	}
	return snap, nil
}

// Sample fabricates an I/O load map for the mock devices: mostly idle with
// occasional spikes.
func (m *MockSource) Sample(ctx context.Context) map[string]float64 {
	loads := make(map[string]float64, len(mockDevices))
	for _, name := range mockDevices {
		load := rand.Float64() * 5
		if rand.Float64() < 0.2 {
			load = 10 + rand.Float64()*90
		}
		loads[ShortName(name)] = load
	}
	return loads
}

func mockConnection(rng *rand.Rand) model.ConnectionInfo {
	switch rng.Intn(3) {
	case 0:
		return model.ConnectionInfo{Type: "SATA", SpeedLimit: "6 Gbps"}
	case 1:
		return model.ConnectionInfo{Type: "NVME", SpeedLimit: "32 Gbps"}
	default:
		return model.ConnectionInfo{Type: "USB", IsExternal: true, SpeedLimit: "5 Gbps"}
	}
}

func seedFor(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}
