package api

import (
	"time"

	models "MarketPulse/internal/domain/models"
	"MarketPulse/internal/service/ratelimit"
	"MarketPulse/internal/usecase"
	xhttp "MarketPulse/pkg/http"
	xlogger "MarketPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketHandler serves the warehouse read API over Echo.
type MarketHandler struct {
	logger  *xlogger.Logger
	queries *usecase.MarketQueries
	quality *usecase.QualityRunner
	report  *usecase.ReportBuilder
	rl      *ratelimit.Limiter
}

func NewMarketHandler(logger *xlogger.Logger, queries *usecase.MarketQueries, quality *usecase.QualityRunner, report *usecase.ReportBuilder) *MarketHandler {
	return &MarketHandler{logger: logger, queries: queries, quality: quality, report: report, rl: ratelimit.New()}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/candles", h.Candles)
	g.GET("/indicators", h.Indicators)
	g.GET("/breadth", h.Breadth)
	g.GET("/yields", h.Yields)
	g.GET("/quality", h.Quality)
	g.GET("/report", h.Report)
}

func (h *MarketHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now().UTC()
	res, err := h.queries.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Class:  models.AssetClass(req.Class),
		Symbol: req.Symbol,
		From:   xhttp.ParseTimeDefault(req.From, now.AddDate(0, 0, -1)),
		To:     xhttp.ParseTimeDefault(req.To, now),
		Limit:  req.Limit,
	})
	if err != nil {
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketHandler) Indicators(c echo.Context) error {
	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.GetIndicators(c.Request().Context(), req.Symbol, req.N)
	if err != nil {
		h.logger.Error("indicators usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketHandler) Breadth(c echo.Context) error {
	req := &models.BreadthRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	date := xhttp.ParseTimeDefault(req.Date, time.Now().UTC())
	res, err := h.queries.GetBreadth(c.Request().Context(), date)
	if err != nil {
		h.logger.Error("breadth usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if res == nil {
		return xhttp.NotFoundResponse(c, "no summary for date")
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketHandler) Yields(c echo.Context) error {
	req := &models.YieldsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now().UTC()
	res, err := h.queries.GetYields(c.Request().Context(),
		xhttp.ParseTimeDefault(req.From, now.AddDate(0, -1, 0)),
		xhttp.ParseTimeDefault(req.To, now),
	)
	if err != nil {
		h.logger.Error("yields usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Quality runs the validation checks for one date on demand. The run reads
// the warehouse, so it is rate limited per client.
func (h *MarketHandler) Quality(c echo.Context) error {
	req := &models.QualityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":quality", 2, 0.2) {
		return xhttp.DataResponse(c, 429, "rate limited")
	}

	date := xhttp.ParseTimeDefault(req.Date, time.Now().UTC())
	report, err := h.quality.Run(c.Request().Context(), date)
	if err != nil {
		h.logger.Error("quality usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, report)
}

// Report builds the weekly rollup on demand. Like the quality run it scans
// the warehouse, so it shares the per-client rate limit.
func (h *MarketHandler) Report(c echo.Context) error {
	req := &models.ReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":report", 2, 0.2) {
		return xhttp.DataResponse(c, 429, "rate limited")
	}

	asOf := xhttp.ParseTimeDefault(req.AsOf, time.Now().UTC())
	rep, err := h.report.Build(c.Request().Context(), asOf)
	if err != nil {
		h.logger.Error("report usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, rep)
}
