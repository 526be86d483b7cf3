package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsgrid/diskwatch/collector"
	"github.com/opsgrid/diskwatch/engine"
	"github.com/opsgrid/diskwatch/history"
	"github.com/opsgrid/diskwatch/metrics"
	"github.com/opsgrid/diskwatch/model"
)

type staticSource struct {
	snaps []*model.DeviceSnapshot
}

func (s *staticSource) Scan(ctx context.Context) ([]collector.Device, error) {
	devices := make([]collector.Device, 0, len(s.snaps))
	for _, snap := range s.snaps {
		devices = append(devices, collector.Device{Name: snap.Device})
	}
	return devices, nil
}

func (s *staticSource) Snapshot(ctx context.Context, dev collector.Device) (*model.DeviceSnapshot, error) {
	for _, snap := range s.snaps {
		if snap.Device == dev.Name {
			c := *snap
			return &c, nil
		}
	}
	return nil, nil
}

func newTestServer(t *testing.T) (*Server, *engine.Engine) {
	t.Helper()

	store, err := history.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	source := &staticSource{snaps: []*model.DeviceSnapshot{{
		Device:      "/dev/sda",
		Serial:      "API-1",
		Model:       "Test-Disk",
		SmartPassed: true,
	}}}

	meter := metrics.New()
	eng := engine.New(source, nil, store, meter, nil, zerolog.Nop())
	return NewServer(eng, store, meter, zerolog.Nop()), eng
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzBeforeAndAfterScan(t *testing.T) {
	srv, eng := newTestServer(t)
	router := srv.Router()

	rec := get(t, router, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, eng.Cycle(context.Background()))

	rec = get(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, float64(1), body["devices"])
}

func TestDisksEndpoint(t *testing.T) {
	srv, eng := newTestServer(t)
	require.NoError(t, eng.Cycle(context.Background()))

	rec := get(t, srv.Router(), "/api/v1/disks")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var results engine.Results
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Contains(t, results.Devices, "/dev/sda")
	assert.Equal(t, "API-1", results.Devices["/dev/sda"].Serial)
}

func TestHistoryEndpoint(t *testing.T) {
	srv, eng := newTestServer(t)
	router := srv.Router()
	require.NoError(t, eng.Cycle(context.Background()))

	rec := get(t, router, "/api/v1/disks/API-1/history")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Serial  string `json:"serial"`
		Samples []struct {
			Reallocated int64    `json:"rsc"`
			IOLoad      *float64 `json:"io_load"`
		} `json:"samples"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "API-1", body.Serial)
	require.Len(t, body.Samples, 1)

	rec = get(t, router, "/api/v1/disks/NO-SUCH/history")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, router, "/api/v1/disks/API-1/history?limit=bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, eng := newTestServer(t)
	require.NoError(t, eng.Cycle(context.Background()))

	rec := get(t, srv.Router(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "diskwatch_scan_cycles_total")
}
