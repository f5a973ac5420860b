package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Pinger is anything whose reachability the health check reports.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// HealthHandler reports whether the ledger and the highest-bid cache are
// reachable and how many realtime clients are connected.  The ledger is
// required; a missing cache only degrades the service.
type HealthHandler struct {
    Ledger    Pinger
    Cache     Pinger     // nil when the cache is process-local
    Connected func() int // realtime client count
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func NewHealthHandler(ledger, cache Pinger, connected func() int) *HealthHandler {
    return &HealthHandler{Ledger: ledger, Cache: cache, Connected: connected}
}

// Health handles GET /healthz.  It answers 503 when the ledger is down.
func (h *HealthHandler) Health(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()

    status := http.StatusOK
    body := echo.Map{"status": "ok", "ledger": "up", "cache": "memory"}
    if err := h.Ledger.PingContext(ctx); err != nil {
        status = http.StatusServiceUnavailable
        body["status"] = "unavailable"
        body["ledger"] = "down"
    }
    if h.Cache != nil {
        body["cache"] = "up"
        if err := h.Cache.PingContext(ctx); err != nil {
            body["cache"] = "down"
            if status == http.StatusOK {
                body["status"] = "degraded"
            }
        }
    }
    if h.Connected != nil {
        body["websocketClients"] = h.Connected()
    }
    return c.JSON(status, body)
}
