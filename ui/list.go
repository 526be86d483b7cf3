package ui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/opsgrid/diskwatch/model"
)

// Column widths for the device table.
const (
	colDevice = 14
	colModel  = 26
	colSerial = 20
	colSize   = 10
	colTemp   = 7
	colHealth = 8
	colStatus = 10
	colLoad   = 14
)

func (m Model) renderList() string {
	var sb strings.Builder

	sb.WriteString(m.renderHeader())
	sb.WriteString("\n\n")

	sb.WriteString(headerStyle.Render(
		pad("DEVICE", colDevice) + pad("MODEL", colModel) + pad("SERIAL", colSerial) +
			pad("SIZE", colSize) + pad("TEMP", colTemp) + pad("HEALTH", colHealth) +
			pad("STATUS", colStatus) + "I/O LOAD"))
	sb.WriteString("\n")

	if len(m.rows) == 0 {
		sb.WriteString(dimStyle.Render("  no devices found"))
		if m.results == nil {
			sb.WriteString(dimStyle.Render(" (first scan in progress...)"))
		}
		sb.WriteString("\n")
	}

	for i, snap := range m.rows {
		line := m.renderRow(snap)
		if i == m.selected {
			line = selectedStyle.Render("▶ ") + line
		} else {
			line = "  " + line
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("↑/↓ select · enter details · h hidden · a pause · r rescan · q quit"))
	return sb.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("diskwatch")
	if m.results == nil {
		return title + dimStyle.Render("  scanning...")
	}

	overall := statusStyle(m.results.Overall).Render(m.results.Overall.String())
	updated := dimStyle.Render("updated " + humanize.Time(m.results.UpdatedAt))

	extra := ""
	if m.paused {
		extra = warnStyle.Render("  [paused]")
	} else if m.scanning {
		extra = dimStyle.Render("  [scanning]")
	}
	return fmt.Sprintf("%s  %s  %s%s", title, overall, updated, extra)
}

func (m Model) renderRow(snap *model.DeviceSnapshot) string {
	serial := snap.Serial
	if !snap.HasSerial() {
		serial = dimStyle.Render("—")
	}

	size := "—"
	if snap.CapacityBytes > 0 {
		size = humanize.IBytes(uint64(snap.CapacityBytes))
	}

	temp := "—"
	if snap.Temperature > 0 {
		temp = fmt.Sprintf("%d°C", snap.Temperature)
	}

	status := deviceStatus(snap)
	load := 0.0
	if snap.Stats != nil {
		load = snap.Stats.IOLoad
	}

	return pad(snap.Device, colDevice) +
		pad(truncate(snap.Model, colModel-1), colModel) +
		pad(truncate(serial, colSerial-1), colSerial) +
		pad(size, colSize) +
		pad(temp, colTemp) +
		styledPad(healthColor(snap.HealthScore).Render(fmt.Sprintf("%d", snap.HealthScore)), colHealth) +
		styledPad(statusStyle(status).Render(status.String()), colStatus) +
		loadCell(load)
}

// deviceStatus is the per-row verdict: failed SMART trumps everything,
// otherwise the trend decides.
func deviceStatus(snap *model.DeviceSnapshot) model.Status {
	if !snap.SmartPassed {
		return model.StatusCritical
	}
	if snap.Trend != nil {
		return snap.Trend.Status
	}
	return model.StatusOK
}

func loadCell(pct float64) string {
	return loadBar(pct, 8) + " " + loadColor(pct).Render(fmt.Sprintf("%.0f%%", pct))
}

// loadBar renders a fixed-width percentage bar.
func loadBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(width))
	if filled > width {
		filled = width
	}
	b := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return loadColor(pct).Render(b)
}

func pad(s string, width int) string {
	return styledPad(s, width)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max < 1 {
		return ""
	}
	return s[:max-1] + "…"
}
