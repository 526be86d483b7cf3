package engine

import (
	"testing"

	"github.com/opsgrid/diskwatch/model"
)

func TestClassifyReallocated(t *testing.T) {
	tests := []struct {
		name     string
		raw      int64
		want     model.Status
		wantNote string
	}{
		{"critical above ten", 11, model.StatusCritical, "11 bad sectors"},
		{"warning below ten", 3, model.StatusWarning, "3 bad sectors"},
		{"boundary at ten is warning", 10, model.StatusWarning, "10 bad sectors"},
		{"zero is good", 0, model.StatusOK, "Good"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, note := Classify(AttrReallocated, tt.raw, 100, 10, 7200)
			if status != tt.want || note != tt.wantNote {
				t.Errorf("Classify(5, %d) = (%v, %q), want (%v, %q)",
					tt.raw, status, note, tt.want, tt.wantNote)
			}
		})
	}
}

func TestClassifyThresholdBreach(t *testing.T) {
	// A vendor threshold breach wins over everything, even for IDs with no
	// special handling.
	status, note := Classify(241, 12345, 40, 40, 7200)
	if status != model.StatusCritical || note != "Failed Threshold" {
		t.Errorf("got (%v, %q), want (CRITICAL, Failed Threshold)", status, note)
	}

	// Threshold 0 means "no threshold" and must not trip on normalized 0.
	status, _ = Classify(241, 0, 0, 0, 7200)
	if status != model.StatusOK {
		t.Errorf("zero threshold tripped: got %v", status)
	}
}

func TestClassifyErrorCounters(t *testing.T) {
	tests := []struct {
		name     string
		id       int64
		raw      int64
		want     model.Status
		wantNote string
	}{
		{"pending sectors warn", AttrPendingSectors, 4, model.StatusWarning, "4 unstable sectors"},
		{"pending zero ok", AttrPendingSectors, 0, model.StatusOK, "Good"},
		{"offline uncorrectable", AttrOfflineUncorr, 2, model.StatusCritical, "2 uncorrectable"},
		{"reported uncorrectable", AttrReportedUncorr, 1, model.StatusCritical, "1 uncorrectable"},
		{"crc errors suggest cabling", AttrInterfaceCRC, 7, model.StatusWarning, "Check Cable"},
		{"unknown id ignored", 242, 999999, model.StatusOK, "Good"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, note := Classify(tt.id, tt.raw, 100, 0, 7200)
			if status != tt.want || note != tt.wantNote {
				t.Errorf("Classify(%d, %d) = (%v, %q), want (%v, %q)",
					tt.id, tt.raw, status, note, tt.want, tt.wantNote)
			}
		})
	}
}

func TestClassifyWearIndicators(t *testing.T) {
	for id := range wearAttrIDs {
		// Worn SSD: life remaining under the floor.
		status, note := Classify(id, 0, 5, 0, 0)
		if status != model.StatusCritical || note != "Wearing Out" {
			t.Errorf("id %d value 5 ssd: got (%v, %q), want (CRITICAL, Wearing Out)", id, status, note)
		}

		// Same value on a rotational device carries no wear semantics.
		if status, _ := Classify(id, 0, 5, 0, 7200); status != model.StatusOK {
			t.Errorf("id %d on rotational device: got %v, want OK", id, status)
		}

		// Normalized 0 usually means "not reported", never critical.
		if status, _ := Classify(id, 0, 0, 0, 0); status != model.StatusOK {
			t.Errorf("id %d value 0: got %v, want OK", id, status)
		}

		// Healthy SSD.
		if status, _ := Classify(id, 0, 98, 0, 0); status != model.StatusOK {
			t.Errorf("id %d value 98: got %v, want OK", id, status)
		}
	}
}

func TestClassifyAttributeStructForm(t *testing.T) {
	attr := model.AtaAttribute{ID: AttrReallocated, Value: 100, Threshold: 10, Raw: 11}
	status, note := ClassifyAttribute(attr, 7200)
	if status != model.StatusCritical || note != "11 bad sectors" {
		t.Errorf("got (%v, %q)", status, note)
	}
}
