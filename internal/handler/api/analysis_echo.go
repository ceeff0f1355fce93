package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"SentiPull/internal/domain/models"
	domrepo "SentiPull/internal/domain/repository"
	icache "SentiPull/internal/service/cache"
	"SentiPull/internal/service/metrics"
	"SentiPull/internal/service/ratelimit"
	"SentiPull/internal/services/correlation"
	"SentiPull/internal/usecase"
	pkgcache "SentiPull/pkg/cache"
	xhttp "SentiPull/pkg/http"
	xlogger "SentiPull/pkg/logger"
	"SentiPull/pkg/util"
)

// AnalysisHandler serves the analysis API over Echo. Responses are
// cached briefly and rate-limited per client IP; insufficient_data is
// a 200 payload, only caller errors map to 400s.
type AnalysisHandler struct {
	logger   *xlogger.Logger
	analysis *usecase.AnalysisUseCase
	overview *usecase.OverviewUseCase
	cache    icache.BytesCache
	results  pkgcache.Service // warmed by the refresh workers; optional
	rl       *ratelimit.Limiter
	cacheTTL time.Duration
}

func NewAnalysisHandler(logger *xlogger.Logger, analysis *usecase.AnalysisUseCase, overview *usecase.OverviewUseCase) *AnalysisHandler {
	metrics.Register()
	return &AnalysisHandler{
		logger:   logger,
		analysis: analysis,
		overview: overview,
		rl:       ratelimit.New(),
		cacheTTL: 30 * time.Second,
	}
}

// SetCache injects the short-TTL response cache.
func (h *AnalysisHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetResultCache injects the refresh-warmed overview cache.
func (h *AnalysisHandler) SetResultCache(c pkgcache.Service) { h.results = c }

// SetCacheTTL overrides the response cache TTL.
func (h *AnalysisHandler) SetCacheTTL(d time.Duration) {
	if d > 0 {
		h.cacheTTL = d
	}
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	g := e.Group("/api")
	g.GET("/correlation", h.Correlation)
	g.GET("/summary", h.Summary)
	g.GET("/posts", h.Posts)
	g.GET("/overview", h.Overview)
}

func (h *AnalysisHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *AnalysisHandler) Correlation(c echo.Context) error {
	start := time.Now()
	const endpoint = "correlation"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.CorrelationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ticker := util.NormalizeTicker(req.Ticker)

	if !h.rl.Allow(c.RealIP()+":"+endpoint, 5, 2) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
	}

	cacheKey := pkgcache.GenerateKeyWithParams(endpoint, ticker, req.Days, req.Interval)
	if b, ok := h.cached(cacheKey); ok {
		return c.JSONBlob(http.StatusOK, b)
	}

	report, err := h.analysis.CorrelationForTicker(c.Request().Context(), usecase.CorrelationParams{
		Ticker:   ticker,
		Days:     req.Days,
		Interval: domrepo.NormalizeInterval(req.Interval),
	})
	if err != nil {
		metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("correlation usecase error",
			xlogger.String("ticker", ticker),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapCoreError(err))
	}

	h.store(cacheKey, report)
	return xhttp.SuccessResponse(c, report)
}

func (h *AnalysisHandler) Summary(c echo.Context) error {
	start := time.Now()
	const endpoint = "summary"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.SummaryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ticker := util.NormalizeTicker(req.Ticker)

	if !h.rl.Allow(c.RealIP()+":"+endpoint, 5, 2) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
	}

	cacheKey := pkgcache.GenerateKeyWithParams(endpoint, ticker, req.Days)
	if b, ok := h.cached(cacheKey); ok {
		return c.JSONBlob(http.StatusOK, b)
	}

	s, err := h.analysis.Summary(c.Request().Context(), usecase.SummaryParams{
		Ticker: ticker,
		Days:   req.Days,
	})
	if err != nil {
		metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("summary usecase error",
			xlogger.String("ticker", ticker),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapCoreError(err))
	}

	h.store(cacheKey, s)
	return xhttp.SuccessResponse(c, s)
}

func (h *AnalysisHandler) Posts(c echo.Context) error {
	start := time.Now()
	const endpoint = "posts"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.PostsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ticker := util.NormalizeTicker(req.Ticker)

	if !h.rl.Allow(c.RealIP()+":"+endpoint, 5, 2) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
	}

	posts, err := h.analysis.RecentPosts(c.Request().Context(), ticker, req.Limit)
	if err != nil {
		metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("posts usecase error",
			xlogger.String("ticker", ticker),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapCoreError(err))
	}

	return xhttp.ListResponse(c, posts, int64(len(posts)))
}

func (h *AnalysisHandler) Overview(c echo.Context) error {
	start := time.Now()
	const endpoint = "overview"
	defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.OverviewRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ticker := util.NormalizeTicker(req.Ticker)

	if !h.rl.Allow(c.RealIP()+":"+endpoint, 5, 2) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
	}

	// Refresh workers keep the overview warm; serve that copy when
	// present instead of recomputing on every request.
	if h.results != nil {
		var ov models.TickerOverview
		if err := h.results.Get(c.Request().Context(), usecase.OverviewCacheKey(ticker), &ov); err == nil && ov.Ticker == ticker {
			return xhttp.SuccessResponse(c, &ov)
		}
	}

	ov, err := h.overview.GetOverview(c.Request().Context(), usecase.OverviewParams{
		Ticker:   ticker,
		Days:     req.Days,
		Interval: domrepo.NormalizeInterval(req.Interval),
	})
	if err != nil {
		metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("overview usecase error",
			xlogger.String("ticker", ticker),
			xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapCoreError(err))
	}

	return xhttp.SuccessResponse(c, ov)
}

// cached returns the cached envelope bytes for key if present.
func (h *AnalysisHandler) cached(key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		h.logger.Warn("response cache get error", xlogger.Error(err))
		return nil, false
	}
	return b, ok
}

// store caches the standard success envelope for key.
func (h *AnalysisHandler) store(key string, data interface{}) {
	if h.cache == nil {
		return
	}
	b, err := json.Marshal(xhttp.APIResponse{
		Status:  http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    data,
	})
	if err != nil {
		return
	}
	if err := h.cache.SetBytes(key, b, h.cacheTTL); err != nil {
		h.logger.Warn("response cache set error", xlogger.Error(err))
	}
}

// mapCoreError converts typed analysis errors into AppErrors so the
// envelope carries a stable code; anything else is a 500.
func mapCoreError(err error) error {
	switch {
	case correlation.IsKind(err, correlation.KindInvalidInput):
		return xhttp.NewAppError("ERR_INVALID_INPUT", "", err.Error(), http.StatusBadRequest)
	case correlation.IsKind(err, correlation.KindMalformedObservation):
		return xhttp.NewAppError("ERR_MALFORMED_OBSERVATION", "", err.Error(), http.StatusBadRequest)
	default:
		return err
	}
}
