package model

import "encoding/json"

// Status classifies a device or attribute: OK < WARNING < CRITICAL.
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusCritical
)

func (s Status) String() string {
	switch s {
	case StatusCritical:
		return "CRITICAL"
	case StatusWarning:
		return "WARNING"
	default:
		return "OK"
	}
}

// Escalate returns the worse of the two statuses. A CRITICAL is never
// downgraded within one evaluation.
func (s Status) Escalate(to Status) Status {
	if to > s {
		return to
	}
	return s
}

// MarshalJSON renders the status as its display string.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the display string form.
func (s *Status) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v {
	case "CRITICAL":
		*s = StatusCritical
	case "WARNING":
		*s = StatusWarning
	default:
		*s = StatusOK
	}
	return nil
}

// TrendResult is the outcome of comparing a device's latest history sample
// against its predecessor and its first-ever sample. Messages accumulate in
// evaluation order, not severity order. Recomputed every cycle, never
// persisted.
type TrendResult struct {
	Status   Status   `json:"status"`
	Messages []string `json:"messages"`
	RscTrend int64    `json:"rsc_trend"`
	// ReadErrTrend is carried for API stability but is not yet derived from
	// the since-first-seen read-error delta; it is always 0.
	ReadErrTrend int64 `json:"read_err_trend"`
}

// DeviceStats are the core counters extracted from a snapshot and persisted
// to history each cycle.
type DeviceStats struct {
	Reallocated int64   `json:"rsc"`
	ReadErrors  int64   `json:"read_err"`
	Pending     int64   `json:"pending"`
	IOLoad      float64 `json:"io_load"`
}
