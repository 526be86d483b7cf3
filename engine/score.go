package engine

import "github.com/opsgrid/diskwatch/model"

// Score computes a 0-100 health score for a device snapshot.
//
// A failed overall SMART status is fatal and scores 0 outright. NVMe devices
// are scored purely from the controller's percentage-used counter; ATA
// devices start at 100 and take additive penalties from the critical raw
// counters. The two paths are mutually exclusive. A missing or empty
// attribute table simply contributes no penalties.
func Score(snap *model.DeviceSnapshot) int {
	if !snap.SmartPassed {
		return 0
	}

	if snap.Nvme != nil {
		score := 100 - int(snap.Nvme.PercentageUsed)
		if score < 0 {
			score = 0
		}
		return score
	}

	score := int64(100)
	for _, attr := range snap.Attributes {
		if attr.Raw <= 0 {
			continue
		}
		switch attr.ID {
		case AttrReallocated:
			score -= 10 + min64(attr.Raw, 40)
		case AttrPendingSectors:
			score -= 5 + min64(attr.Raw, 20)
		case AttrOfflineUncorr:
			score -= 5 + min64(attr.Raw, 20)
		case AttrReportedUncorr:
			score -= min64(attr.Raw, 50)
		}
	}
	if score < 0 {
		score = 0
	}
	return int(score)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
