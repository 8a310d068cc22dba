// Package handler exposes the service's HTTP surface: the liveness and
// readiness probes with their counter snapshots.
package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/arc-self/wifi-ingest-service/internal/monitor"
)

// Probe staleness windows. A receive tick lands at least once per
// long-poll wait, so three missed waits mean the loop is stuck; the
// delivery window is generous because a quiet queue delivers nothing.
const (
	receiveMaxAge  = 90 * time.Second
	deliveryMaxAge = 5 * time.Minute
)

// RegisterRoutes mounts the probe endpoints. Both return the full
// counter snapshot as their body so an operator can see why a probe
// flipped without a second round-trip.
func RegisterRoutes(e *echo.Echo, m *monitor.Monitor, logger *zap.Logger) {
	e.GET("/healthz", healthzHandler(m, logger))
	e.GET("/readyz", readyzHandler(m, logger))
}

// ── handlers ──────────────────────────────────────────────────────────────

func healthzHandler(m *monitor.Monitor, logger *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := m.Snap()
		if !m.Alive(receiveMaxAge, deliveryMaxAge) {
			logger.Warn("liveness probe failing",
				zap.Time("last_receive", snap.LastReceive),
				zap.Time("last_delivery", snap.LastDelivery),
				zap.Int64("pending_records", snap.PendingRecords),
			)
			return c.JSON(http.StatusServiceUnavailable, probeResp("unhealthy", snap))
		}
		return c.JSON(http.StatusOK, probeResp("ok", snap))
	}
}

func readyzHandler(m *monitor.Monitor, logger *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := m.Snap()
		if !m.Ready(receiveMaxAge) {
			logger.Warn("readiness probe failing",
				zap.Bool("stream_active", snap.StreamActive),
				zap.Int32("stream_check_failures", snap.StreamCheckFails),
				zap.Time("last_receive", snap.LastReceive),
			)
			return c.JSON(http.StatusServiceUnavailable, probeResp("not ready", snap))
		}
		return c.JSON(http.StatusOK, probeResp("ready", snap))
	}
}

// ── helpers ───────────────────────────────────────────────────────────────

func probeResp(status string, snap monitor.Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"status":  status,
		"details": snap,
	}
}
