package api

import (
	"time"

	"FinDash/internal/domain/models"
	"FinDash/internal/usecase"
	xhttp "FinDash/pkg/http"
	xlogger "FinDash/pkg/logger"
	"FinDash/pkg/util"

	"github.com/labstack/echo/v4"
)

// ChartsEchoHandler serves candle data for the dashboard.
type ChartsEchoHandler struct {
	logger  *xlogger.Logger
	candles *usecase.CandlesUseCase
}

func NewChartsEchoHandler(logger *xlogger.Logger, candles *usecase.CandlesUseCase) *ChartsEchoHandler {
	return &ChartsEchoHandler{logger: logger, candles: candles}
}

func (h *ChartsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/charts")
	g.GET("/candles", h.Candles)
}

func (h *ChartsEchoHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationResponse(c, verr)
	}

	from, ok := parseBound(req.From)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("from must be a date, RFC3339 time or unix seconds"))
	}
	to, ok := parseBound(req.To)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("to must be a date, RFC3339 time or unix seconds"))
	}

	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol: req.Symbol,
		From:   from,
		To:     to,
		Limit:  req.Limit,
	})
	if err != nil {
		h.logger.Error("candles usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

// parseBound treats an empty bound as open.
func parseBound(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	return util.ParseTime(s)
}
