package ui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/opsgrid/diskwatch/engine"
	"github.com/opsgrid/diskwatch/model"
)

func (m Model) renderDetail() string {
	snap := m.current()
	if snap == nil {
		return dimStyle.Render("no device selected") + "\n" +
			helpStyle.Render("esc back · q quit")
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(snap.Device))
	if snap.Model != "" {
		sb.WriteString("  " + valueStyle.Render(snap.Model))
	}
	status := deviceStatus(snap)
	sb.WriteString("  " + statusStyle(status).Render(status.String()))
	sb.WriteString("\n\n")

	sb.WriteString(m.renderIdentity(snap))
	sb.WriteString(m.renderTrend(snap))

	if snap.Nvme != nil {
		sb.WriteString(m.renderNvme(snap.Nvme))
	}
	if len(snap.Attributes) > 0 {
		sb.WriteString(m.renderAttributes(snap))
	}
	if len(snap.Partitions) > 0 {
		sb.WriteString(m.renderPartitions(snap.Partitions))
	}
	sb.WriteString(m.renderIOChart())

	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("esc back · a pause · r rescan · q quit"))
	return sb.String()
}

func (m Model) renderIdentity(snap *model.DeviceSnapshot) string {
	var sb strings.Builder

	kvLine(&sb, "Serial", snap.Serial)
	if snap.Firmware != "" {
		kvLine(&sb, "Firmware", snap.Firmware)
	}
	if snap.CapacityBytes > 0 {
		kvLine(&sb, "Capacity", humanize.IBytes(uint64(snap.CapacityBytes)))
	}
	if snap.SolidState() {
		kvLine(&sb, "Media", "Solid State")
	} else {
		kvLine(&sb, "Media", fmt.Sprintf("Rotational (%d rpm)", snap.RotationRate))
	}
	kvLine(&sb, "Connection", fmt.Sprintf("%s (%s)", snap.Connection.Type, snap.Connection.SpeedLimit))
	if snap.Connection.IsExternal {
		kvLine(&sb, "Placement", "External")
	}
	if snap.PowerOnHours > 0 {
		kvLine(&sb, "Powered On", fmt.Sprintf("%s hours (%.1f years)",
			humanize.Comma(snap.PowerOnHours), float64(snap.PowerOnHours)/8760))
	}
	if snap.PowerCycles > 0 {
		kvLine(&sb, "Power Cycles", humanize.Comma(snap.PowerCycles))
	}
	kvLine(&sb, "Temperature", fmt.Sprintf("%d°C", snap.Temperature))

	score := fmt.Sprintf("%d / 100", snap.HealthScore)
	sb.WriteString(fmt.Sprintf("%s %s\n",
		styledPad(labelStyle.Render("Health Score:"), 16),
		healthColor(snap.HealthScore).Render(score)))

	sb.WriteString("\n")
	return sb.String()
}

func kvLine(sb *strings.Builder, key, val string) {
	sb.WriteString(fmt.Sprintf("%s %s\n",
		styledPad(labelStyle.Render(key+":"), 16),
		valueStyle.Render(val)))
}

func (m Model) renderTrend(snap *model.DeviceSnapshot) string {
	if snap.Trend == nil || len(snap.Trend.Messages) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("ANALYSIS"))
	sb.WriteString("\n")
	style := statusStyle(snap.Trend.Status)
	for _, msg := range snap.Trend.Messages {
		sb.WriteString("  " + style.Render("• "+msg) + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderNvme(nvme *model.NvmeHealthLog) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("NVME HEALTH"))
	sb.WriteString("\n")

	wear := fmt.Sprintf("%d%% used", nvme.PercentageUsed)
	wearStyle := okStyle
	if nvme.PercentageUsed >= 80 {
		wearStyle = critStyle
	} else if nvme.PercentageUsed >= 50 {
		wearStyle = warnStyle
	}
	sb.WriteString(fmt.Sprintf("%s %s\n", styledPad(labelStyle.Render("Wear:"), 16), wearStyle.Render(wear)))

	kvLine(&sb, "Spare", fmt.Sprintf("%d%% (threshold %d%%)", nvme.AvailableSpare, nvme.SpareThreshold))
	// Data units are 512000-byte blocks per the NVMe spec.
	kvLine(&sb, "Written", humanize.IBytes(uint64(nvme.DataUnitsWritten)*512000))
	kvLine(&sb, "Read", humanize.IBytes(uint64(nvme.DataUnitsRead)*512000))
	if nvme.MediaErrors > 0 {
		sb.WriteString(fmt.Sprintf("%s %s\n",
			styledPad(labelStyle.Render("Media Errors:"), 16),
			critStyle.Render(humanize.Comma(nvme.MediaErrors))))
	}
	kvLine(&sb, "Unsafe Stops", humanize.Comma(nvme.UnsafeShutdowns))

	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderAttributes(snap *model.DeviceSnapshot) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("SMART ATTRIBUTES"))
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(
		pad(" ID", 5) + pad("NAME", 26) + pad("VALUE", 7) + pad("WORST", 7) +
			pad("THRESH", 8) + pad("RAW", 14) + "ASSESSMENT"))
	sb.WriteString("\n")

	for _, attr := range snap.Attributes {
		status, note := engine.ClassifyAttribute(attr, snap.RotationRate)
		raw := attr.RawString
		if raw == "" {
			raw = fmt.Sprintf("%d", attr.Raw)
		}
		sb.WriteString(
			pad(fmt.Sprintf("%4d", attr.ID), 5) +
				pad(truncate(attr.Name, 25), 26) +
				pad(fmt.Sprintf("%d", attr.Value), 7) +
				pad(fmt.Sprintf("%d", attr.Worst), 7) +
				pad(fmt.Sprintf("%d", attr.Threshold), 8) +
				pad(truncate(raw, 13), 14) +
				statusStyle(status).Render(note))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderPartitions(parts []model.Partition) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("PARTITIONS"))
	sb.WriteString("\n")
	for _, p := range parts {
		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			styledPad(valueStyle.Render(p.Name), 16),
			styledPad(dimStyle.Render(p.FSType), 10),
			valueStyle.Render(fmt.Sprintf("%.1f GiB", p.SizeGB))))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderIOChart() string {
	if len(m.ioPoints) < 2 {
		return ""
	}

	data := make([]float64, 0, len(m.ioPoints))
	for _, p := range m.ioPoints {
		if p.IOLoad.Valid {
			data = append(data, p.IOLoad.Float64)
		} else {
			data = append(data, 0)
		}
	}

	width := m.width - 4
	if width < 30 {
		width = 30
	}
	first := m.ioPoints[0].Timestamp
	last := m.ioPoints[len(m.ioPoints)-1].Timestamp
	return areaChart(data, "I/O Load %", width, 5, 0, autoScale(data, 100), first, last) + "\n"
}
