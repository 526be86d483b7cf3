package engine

import (
	"fmt"

	"github.com/opsgrid/diskwatch/model"
)

// Canonical ATA SMART attribute IDs. This table is the single source of
// truth for which IDs carry health semantics; both the scorer and the
// per-row classifier consume it so they can never disagree.
const (
	AttrRawReadError     = 1   // raw read error rate, used as the read-error counter
	AttrReallocated      = 5   // reallocated sector count
	AttrPowerOnHours     = 9
	AttrReportedUncorr   = 187 // reported uncorrectable errors
	AttrTemperature      = 194
	AttrPendingSectors   = 197 // current pending sector count
	AttrOfflineUncorr    = 198 // offline uncorrectable sector count
	AttrInterfaceCRC     = 199 // UDMA CRC error count, usually cabling
)

// wearAttrIDs are the SSD wear/life-remaining indicators. Only meaningful
// on solid-state devices (rotation rate 0).
var wearAttrIDs = map[int64]bool{
	169: true, // Remaining_Lifetime_Perc
	173: true, // Wear_Leveling_Count (vendor)
	230: true, // Media_Wearout_Indicator
	231: true, // SSD_Life_Left
	232: true, // Endurance_Remaining
	233: true, // Media_Wearout_Indicator (Intel)
}

// wearCriticalBelow is the normalized life-remaining floor under which a
// solid-state device is considered to be wearing out.
const wearCriticalBelow = 10

// Classify maps one SMART attribute row to a status and a short note.
// Pure and deterministic; shared by the dashboard summary and the detailed
// attribute table. A vendor threshold breach short-circuits everything else.
func Classify(id, raw, normalized, threshold, rotationRate int64) (model.Status, string) {
	if threshold > 0 && normalized <= threshold {
		return model.StatusCritical, "Failed Threshold"
	}

	switch {
	case id == AttrReallocated:
		if raw > 10 {
			return model.StatusCritical, fmt.Sprintf("%d bad sectors", raw)
		}
		if raw > 0 {
			return model.StatusWarning, fmt.Sprintf("%d bad sectors", raw)
		}

	case id == AttrPendingSectors:
		if raw > 0 {
			return model.StatusWarning, fmt.Sprintf("%d unstable sectors", raw)
		}

	case id == AttrOfflineUncorr:
		if raw > 0 {
			return model.StatusCritical, fmt.Sprintf("%d uncorrectable", raw)
		}

	case id == AttrReportedUncorr:
		if raw > 0 {
			return model.StatusCritical, fmt.Sprintf("%d uncorrectable", raw)
		}

	case id == AttrInterfaceCRC:
		if raw > 0 {
			return model.StatusWarning, "Check Cable"
		}

	case wearAttrIDs[id]:
		if rotationRate == 0 && normalized > 0 && normalized < wearCriticalBelow {
			return model.StatusCritical, "Wearing Out"
		}
	}

	return model.StatusOK, "Good"
}

// ClassifyAttribute is the struct-taking convenience form of Classify.
func ClassifyAttribute(attr model.AtaAttribute, rotationRate int64) (model.Status, string) {
	return Classify(attr.ID, attr.Raw, attr.Value, attr.Threshold, rotationRate)
}
