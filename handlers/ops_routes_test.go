package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"creator-indexer/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCoordinator struct {
	triggers int
	status   workers.CoordinatorStatus
}

func (s *stubCoordinator) Trigger()                          { s.triggers++ }
func (s *stubCoordinator) Status() workers.CoordinatorStatus { return s.status }

type stubListener workers.ListenerState

func (s stubListener) State() workers.ListenerState { return workers.ListenerState(s) }

func newOpsApp(token string) (*fiber.App, *stubCoordinator) {
	coord := &stubCoordinator{status: workers.CoordinatorStatus{Passes: 3}}
	app := fiber.New()
	SetupOpsRoutes(app, OpsDeps{
		Coordinator:  coord,
		Trigger:      coord,
		Listener:     stubListener(workers.StateDegradedPolling),
		ServiceToken: token,
	})
	return app, coord
}

func TestHealthz(t *testing.T) {
	app, _ := newOpsApp("")
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))
}

func TestStatusReportsCoordinatorAndListener(t *testing.T) {
	app, _ := newOpsApp("")
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/status", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Coordinator   workers.CoordinatorStatus `json:"coordinator"`
		ListenerState string                    `json:"listener_state"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(3), body.Coordinator.Passes)
	assert.Equal(t, "degraded_polling", body.ListenerState)
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newOpsApp("")
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestManualSyncRequiresToken(t *testing.T) {
	app, coord := newOpsApp("s3cret")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/sync", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, coord.triggers)

	req = httptest.NewRequest(http.MethodPost, "/sync", nil)
	req.Header.Set("X-Service-Token", "s3cret")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 1, coord.triggers)
}

func TestManualSyncDisabledWithoutToken(t *testing.T) {
	app, coord := newOpsApp("")
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/sync", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Zero(t, coord.triggers)
}
