package collector

import (
	"context"
	"encoding/json"
	"os/exec"
	"runtime"
	"strings"

	"github.com/opsgrid/diskwatch/model"
)

// enrich attaches connection and partition detail to a snapshot. Best
// effort: enrichment failures leave the defaults in place and are never an
// error — this data is cosmetic to the core pipeline.
func enrich(ctx context.Context, snap *model.DeviceSnapshot) {
	if runtime.GOOS != "linux" {
		return
	}
	if conn, ok := connectionInfo(ctx, snap.Device); ok {
		snap.Connection = conn
	}
	snap.Partitions = partitions(ctx, snap.Device)
}

type lsblkOutput struct {
	BlockDevices []lsblkNode `json:"blockdevices"`
}

type lsblkNode struct {
	Name     string      `json:"name"`
	Size     int64       `json:"size"`
	Type     string      `json:"type"`
	FSType   string      `json:"fstype"`
	Tran     string      `json:"tran"`
	Children []lsblkNode `json:"children"`
}

// connectionInfo reads the transport type via lsblk and maps it to a bus
// description.
func connectionInfo(ctx context.Context, device string) (model.ConnectionInfo, bool) {
	info := model.ConnectionInfo{Type: "Unknown", SpeedLimit: "Unknown"}

	out, err := exec.CommandContext(ctx, "lsblk", "-d", "-o", "TRAN", "-J", device).Output()
	if err != nil {
		return info, false
	}
	var parsed lsblkOutput
	if err := json.Unmarshal(out, &parsed); err != nil || len(parsed.BlockDevices) == 0 {
		return info, false
	}

	tran := strings.ToUpper(parsed.BlockDevices[0].Tran)
	if tran == "" {
		return info, false
	}
	info.Type = tran
	switch tran {
	case "USB":
		info.IsExternal = true
		info.SpeedLimit = "Max 480Mbps - 10Gbps"
	case "SATA":
		info.SpeedLimit = "Max 6 Gbps"
	case "NVME":
		info.SpeedLimit = "Max 32-64 Gbps"
	case "SAS":
		info.SpeedLimit = "Max 12-24 Gbps"
	}
	return info, true
}

// partitions lists a device's partitions with byte-accurate sizes.
func partitions(ctx context.Context, device string) []model.Partition {
	out, err := exec.CommandContext(ctx, "lsblk", "-b", "-o", "NAME,SIZE,TYPE,FSTYPE", "-J", device).Output()
	if err != nil {
		return nil
	}
	var parsed lsblkOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil
	}

	var parts []model.Partition
	var collect func(nodes []lsblkNode)
	collect = func(nodes []lsblkNode) {
		for _, node := range nodes {
			if node.Type == "part" {
				fstype := node.FSType
				if fstype == "" {
					fstype = "Linux"
				}
				parts = append(parts, model.Partition{
					Name:   node.Name,
					FSType: fstype,
					SizeGB: float64(node.Size) / (1 << 30),
				})
			}
			collect(node.Children)
		}
	}
	collect(parsed.BlockDevices)
	return parts
}
