package ui

import (
	"fmt"
	"strings"
	"time"
)

// areaChart renders an area chart with Y-axis labels and sub-cell resolution
// using fractional block characters. Cells are colored by their value's load
// severity.
//
//	I/O Load %                                          now: 42.0
//	100│
//	 80│          ████
//	 60│        ████████       ██
//	 40│    ████████████████████████
//	 20│████████████████████████████████
//	  0│████████████████████████████████████████
//	   └────────────────────────────────────────
//	   16:30:00                        16:35:00
func areaChart(data []float64, label string, width, height int, minVal, maxVal float64,
	startTime, endTime time.Time) string {

	if height < 2 {
		height = 2
	}
	if maxVal <= minVal {
		maxVal = minVal + 1
	}

	axisW := 4 // e.g. "100│"
	chartW := width - axisW - 1
	if chartW < 10 {
		chartW = 10
	}
	resampled := resampleData(data, chartW)

	// Sub-block characters for fractional fill within a cell.
	subBlocks := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var sb strings.Builder

	last := float64(0)
	if len(resampled) > 0 {
		last = resampled[len(resampled)-1]
	}
	sb.WriteString(titleStyle.Render(label))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  now: %.1f", last)))
	sb.WriteString("\n")

	rangeVal := maxVal - minVal

	for row := height - 1; row >= 0; row-- {
		yVal := minVal + (float64(row+1)/float64(height))*rangeVal
		sb.WriteString(dimStyle.Render(fmt.Sprintf("%3.0f", yVal)))
		sb.WriteString(dimStyle.Render("│"))

		for col := 0; col < len(resampled); col++ {
			val := resampled[col]
			normalized := (val - minVal) / rangeVal * float64(height)

			cellBottom := float64(row)
			cellTop := float64(row + 1)

			var ch rune
			switch {
			case normalized >= cellTop:
				ch = '█'
			case normalized <= cellBottom:
				ch = ' '
			default:
				idx := int((normalized - cellBottom) * 8)
				if idx >= len(subBlocks) {
					idx = len(subBlocks) - 1
				}
				if idx < 0 {
					idx = 0
				}
				ch = subBlocks[idx]
			}

			if ch == ' ' {
				sb.WriteRune(' ')
			} else {
				sb.WriteString(loadColor(val).Render(string(ch)))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(dimStyle.Render("   └" + strings.Repeat("─", len(resampled))))
	sb.WriteString("\n")

	if !startTime.IsZero() && !endTime.IsZero() {
		left := startTime.Format("15:04:05")
		right := endTime.Format("15:04:05")
		gap := len(resampled) - len(left) - len(right) + axisW
		if gap < 1 {
			gap = 1
		}
		sb.WriteString(dimStyle.Render("   " + left + strings.Repeat(" ", gap) + right))
	}

	return sb.String()
}

// resampleData reduces data to fit targetWidth columns by bucket-averaging.
func resampleData(data []float64, targetWidth int) []float64 {
	if len(data) == 0 || len(data) <= targetWidth {
		return data
	}
	result := make([]float64, targetWidth)
	for i := 0; i < targetWidth; i++ {
		srcStart := i * len(data) / targetWidth
		srcEnd := (i + 1) * len(data) / targetWidth
		if srcEnd > len(data) {
			srcEnd = len(data)
		}
		if srcStart >= srcEnd {
			srcStart = srcEnd - 1
			if srcStart < 0 {
				srcStart = 0
			}
		}
		sum := float64(0)
		count := 0
		for j := srcStart; j < srcEnd; j++ {
			sum += data[j]
			count++
		}
		if count > 0 {
			result[i] = sum / float64(count)
		}
	}
	return result
}

// autoScale computes a "nice" Y-axis max with headroom above the data peak.
func autoScale(data []float64, hardMax float64) float64 {
	maxVal := float64(0)
	for _, v := range data {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal <= 0 {
		return 5 // minimum scale for all-zero data
	}
	target := maxVal * 1.3
	nice := []float64{1, 2, 5, 10, 15, 20, 25, 30, 40, 50, 75, 100}
	for _, n := range nice {
		if target <= n {
			return n
		}
	}
	return hardMax
}
