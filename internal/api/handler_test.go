package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodim/internal/config"
	"autodim/internal/relay"
	"autodim/internal/store"
)

type stubView struct {
	status        relay.Status
	configUpdates int
	manualLevels  []float64
}

func (s *stubView) OnConfigUpdated()      { s.configUpdates++ }
func (s *stubView) Status() relay.Status  { return s.status }
func (s *stubView) ManualDim(lvl float64) { s.manualLevels = append(s.manualLevels, lvl) }

func newTestServer(t *testing.T) (*httptest.Server, *store.Store, *relay.Bus) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "autodim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	bus := relay.NewBus()
	srv := httptest.NewServer(Router(NewHandler(bus, s)))
	t.Cleanup(srv.Close)
	return srv, s, bus
}

func TestGetConfigDefaults(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/config")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap config.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, config.Default(), snap)
}

func TestPutConfigReplacesAndBroadcasts(t *testing.T) {
	srv, s, bus := newTestServer(t)

	view := &stubView{}
	bus.Register("view-1", view)

	snap := config.Default()
	snap.DimIntensity = 0.9
	snap.Blacklist = []string{"never.example"}
	body, err := json.Marshal(snap)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/v1/config", bytes.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := s.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.9, stored.DimIntensity)
	assert.Equal(t, []string{"never.example"}, stored.Blacklist)
	assert.Equal(t, 1, view.configUpdates)
}

func TestPutConfigRejectsBadPayload(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/v1/config", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestViewStatus(t *testing.T) {
	srv, _, bus := newTestServer(t)

	b := 0.9
	bus.Register("view-1", &stubView{status: relay.Status{
		Hostname:        "example.com",
		CurrentDimLevel: 0.3,
		TargetDimLevel:  0.375,
		LastBrightness:  &b,
	}})

	resp, err := http.Get(srv.URL + "/v1/views/view-1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got relay.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "example.com", got.Hostname)
	assert.Equal(t, 0.375, got.TargetDimLevel)
	require.NotNil(t, got.LastBrightness)
	assert.Equal(t, 0.9, *got.LastBrightness)
}

func TestViewStatusUnavailable(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/views/gone/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestManualDim(t *testing.T) {
	srv, _, bus := newTestServer(t)

	view := &stubView{}
	bus.Register("view-1", view)

	resp, err := http.Post(srv.URL+"/v1/views/view-1/dim", "application/json",
		bytes.NewReader([]byte(`{"level": 1.7}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	// Out-of-range levels are clamped before dispatch.
	require.Len(t, view.manualLevels, 1)
	assert.Equal(t, 1.0, view.manualLevels[0])
}

func TestManualDimUnknownView(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/views/gone/dim", "application/json",
		bytes.NewReader([]byte(`{"level": 0.5}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListViews(t *testing.T) {
	srv, _, bus := newTestServer(t)
	bus.Register("view-1", &stubView{})

	resp, err := http.Get(srv.URL + "/v1/views")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, []string{"view-1"}, got["views"])
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
