package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServer_Health(t *testing.T) {
	s := NewServer(HTTPConfig{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	s.NewRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestServer_SnapshotBeforeFirstRender(t *testing.T) {
	s := NewServer(HTTPConfig{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/snapshot", nil)
	rec := httptest.NewRecorder()

	s.NewRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_SnapshotServesLatestFrame(t *testing.T) {
	s := NewServer(HTTPConfig{}, testLogger())

	assert.NoError(t, s.Render(Frame{
		Snapshot: snapshotWith(map[Metric]float64{MetricSpeed: 70}),
	}))
	assert.NoError(t, s.Render(Frame{
		Snapshot: snapshotWith(map[Metric]float64{MetricSpeed: 120}),
		Alerts: []Alert{
			{Metric: MetricSpeed, Value: 120, Limits: Range{Min: 0, Max: 110}},
		},
	}))

	req := httptest.NewRequest(http.MethodGet, "/snapshot", nil)
	rec := httptest.NewRecorder()

	s.NewRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var frame Frame
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &frame))
	assert.Equal(t, 120.0, frame.Snapshot.Metrics[MetricSpeed].Current.Value)
	assert.Len(t, frame.Alerts, 1)
	assert.False(t, frame.Stale)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	s := NewServer(HTTPConfig{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/snapshot", nil)
	rec := httptest.NewRecorder()

	s.NewRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
