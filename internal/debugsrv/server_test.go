package debugsrv

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vedfolnir/console/internal/faults"
	"github.com/vedfolnir/console/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticStats struct {
	stats realtime.Stats
}

func (s staticStats) Stats() realtime.Stats { return s.stats }

func TestDebugRoutes(t *testing.T) {
	history := faults.NewHistory(10)
	history.Observe(errors.New("blocked by CORS policy"), "websocket")

	stats := staticStats{stats: realtime.Stats{
		State:      realtime.StateConnected,
		Transport:  realtime.TransportPolling,
		Reconnects: 2,
	}}
	srv := httptest.NewServer(New("127.0.0.1:0", history, stats, slog.Default()).Router())
	defer srv.Close()

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("errors returns the history", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/debug/errors")
		require.NoError(t, err)
		defer resp.Body.Close()

		var payload struct {
			Count   int             `json:"count"`
			Records []faults.Record `json:"records"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		assert.Equal(t, 1, payload.Count)
		require.Len(t, payload.Records, 1)
		assert.Equal(t, faults.CategoryCORS, payload.Records[0].Category)
	})

	t.Run("connection returns current stats", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/debug/connection")
		require.NoError(t, err)
		defer resp.Body.Close()

		var got realtime.Stats
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, realtime.StateConnected, got.State)
		assert.Equal(t, realtime.TransportPolling, got.Transport)
		assert.Equal(t, 2, got.Reconnects)
	})

	t.Run("nil stats source reports not connected", func(t *testing.T) {
		noConn := httptest.NewServer(New("127.0.0.1:0", history, nil, slog.Default()).Router())
		defer noConn.Close()

		resp, err := http.Get(noConn.URL + "/debug/connection")
		require.NoError(t, err)
		defer resp.Body.Close()

		var got map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, "not_connected", got["state"])
	})

	t.Run("report streams yaml", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/debug/report")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))
	})
}
