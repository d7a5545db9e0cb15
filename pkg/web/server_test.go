package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-neurodrive/pkg/drowsiness"
	"github.com/teslashibe/go-neurodrive/pkg/landmarks"
	"github.com/teslashibe/go-neurodrive/pkg/measure"
	"github.com/teslashibe/go-neurodrive/pkg/monitor"
)

func newTestServer(t *testing.T) (*Server, *monitor.Monitor) {
	t.Helper()

	frames := make([]landmarks.Frame, 10)
	for i := range frames {
		frames[i] = landmarks.Frame{Timestamp: float64(i) * 0.1, Width: 640, Height: 480}
	}

	agg, err := drowsiness.New(drowsiness.DefaultConfig())
	require.NoError(t, err)
	m := monitor.New(monitor.DefaultConfig(), landmarks.NewMockSource(frames...),
		measure.NewCalculator(measure.FaceMeshIndices()), agg)
	require.NoError(t, m.Run(context.Background()))

	return NewServer("0", m), m
}

func do(t *testing.T, s *Server, method, path, body string) (int, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func TestServer_Status(t *testing.T) {
	s, m := newTestServer(t)

	code, body := do(t, s, http.MethodGet, "/api/status", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, m.Session(), body["session"])
	assert.Equal(t, 10.0, body["frames"])
	assert.Contains(t, body, "counters")
	assert.Contains(t, body, "detector")
}

func TestServer_Attention(t *testing.T) {
	s, _ := newTestServer(t)

	code, body := do(t, s, http.MethodGet, "/api/attention", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "medium", body["category"])
	assert.Equal(t, 0.8, body["level"])
}

func TestServer_Tuning(t *testing.T) {
	s, m := newTestServer(t)

	code, body := do(t, s, http.MethodGet, "/api/tuning", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.18, body["ear_close_threshold"])

	code, body = do(t, s, http.MethodPost, "/api/tuning", `{"yawn_mar_threshold": 0.55}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.55, body["yawn_mar_threshold"])
	assert.Equal(t, 0.55, m.TuningParams().YawnMARThreshold)

	code, body = do(t, s, http.MethodPost, "/api/tuning", `{"ear_close_threshold": 0.4}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, body["error"], "invalid config")

	code, _ = do(t, s, http.MethodPost, "/api/tuning", `{not json`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestServer_StimulusResponse(t *testing.T) {
	s, m := newTestServer(t)

	code, body := do(t, s, http.MethodPost, "/api/response", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "no pending stimulus", body["error"])

	// Empty body stamps with the last frame time
	code, body = do(t, s, http.MethodPost, "/api/stimulus", "")
	assert.Equal(t, http.StatusOK, code)
	assert.InDelta(t, 0.9, body["timestamp"], 1e-9)

	code, body = do(t, s, http.MethodPost, "/api/response", `{"timestamp": 1.5}`)
	assert.Equal(t, http.StatusOK, code)
	assert.InDelta(t, 0.6, body["latency"], 1e-9)
	assert.Len(t, m.Status().Latencies, 1)

	code, _ = do(t, s, http.MethodPost, "/api/stimulus", `{"timestamp": "soon"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestServer_Reset(t *testing.T) {
	s, m := newTestServer(t)
	old := m.Session()

	code, body := do(t, s, http.MethodPost, "/api/reset", "")
	assert.Equal(t, http.StatusOK, code)
	assert.NotEqual(t, old, body["session"])
	assert.Equal(t, m.Session(), body["session"])
	assert.Zero(t, m.Status().Frames)
}

func TestServer_EventsRequiresUpgrade(t *testing.T) {
	s, _ := newTestServer(t)

	code, _ := do(t, s, http.MethodGet, "/ws/events", "")
	assert.Equal(t, http.StatusUpgradeRequired, code)
}

func TestServer_PublishWithoutClients(t *testing.T) {
	s, _ := newTestServer(t)

	for i := 0; i < 1000; i++ {
		s.Publish(monitor.Update{Session: "x"})
	}
	assert.Zero(t, s.events.Dropped())
}
