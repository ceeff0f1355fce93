package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"SentiPull/internal/domain/models"
	"SentiPull/internal/service/metrics"
	"SentiPull/internal/usecase"
	pkgcache "SentiPull/pkg/cache"
	xhttp "SentiPull/pkg/http"
	xlogger "SentiPull/pkg/logger"
	"SentiPull/pkg/util"
)

// LiveHandler upgrades /api/live to a websocket and pushes the cached
// overview for the ticker whenever the refresh workers produce a new
// one. Read-only feed; client messages are ignored except for close.
type LiveHandler struct {
	logger   *xlogger.Logger
	results  pkgcache.Service
	upgrader websocket.Upgrader
	interval time.Duration
}

func NewLiveHandler(logger *xlogger.Logger, results pkgcache.Service) *LiveHandler {
	return &LiveHandler{
		logger:  logger,
		results: results,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		interval: 5 * time.Second,
	}
}

// SetPushInterval overrides how often the cache is polled for a fresh
// overview.
func (h *LiveHandler) SetPushInterval(d time.Duration) {
	if d > 0 {
		h.interval = d
	}
}

func (h *LiveHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/live", h.Live)
}

func (h *LiveHandler) Live(c echo.Context) error {
	req := &models.LiveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ticker := util.NormalizeTicker(req.Ticker)

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	metrics.LiveClients.Inc()
	defer metrics.LiveClients.Dec()
	h.logger.Info("live client connected",
		xlogger.String("ticker", ticker),
		xlogger.String("remote", conn.RemoteAddr().String()))

	// Reader goroutine: only watches for the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := c.Request().Context()
	var lastPush time.Time

	push := func() bool {
		var ov models.TickerOverview
		if err := h.results.Get(ctx, usecase.OverviewCacheKey(ticker), &ov); err != nil || ov.Ticker != ticker {
			return true // nothing warmed yet; keep the connection open
		}
		if !ov.GeneratedAt.After(lastPush) {
			return true
		}
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(&ov); err != nil {
			h.logger.Debug("live write failed",
				xlogger.String("ticker", ticker),
				xlogger.Error(err))
			return false
		}
		lastPush = ov.GeneratedAt
		return true
	}

	if !push() {
		return nil
	}
	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		select {
		case <-done:
			h.logger.Info("live client left", xlogger.String("ticker", ticker))
			return nil
		case <-ctx.Done():
			return nil
		case <-t.C:
			if !push() {
				return nil
			}
		}
	}
}
