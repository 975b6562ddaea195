package api

import (
	models "VolSpike/internal/domain/models"
	"VolSpike/internal/service/quotemedia"
	"VolSpike/internal/usecase"
	xhttp "VolSpike/pkg/http"
	xlogger "VolSpike/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalysisHandler exposes the analysis engine over HTTP.
type AnalysisHandler struct {
	logger   *xlogger.Logger
	analyzer *usecase.Analyzer
	session  *quotemedia.Session
	progress *ProgressHub

	lookbackDefault int
}

type HandlerOption func(*AnalysisHandler)

// WithLookbackDefault fills in lookback_days for requests that name a
// selected_date without a window length.
func WithLookbackDefault(days int) HandlerOption {
	return func(h *AnalysisHandler) { h.lookbackDefault = days }
}

func NewAnalysisHandler(logger *xlogger.Logger, analyzer *usecase.Analyzer, session *quotemedia.Session, progress *ProgressHub, opts ...HandlerOption) *AnalysisHandler {
	h := &AnalysisHandler{logger: logger, analyzer: analyzer, session: session, progress: progress}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.POST("/analysis", h.Run)
	g.GET("/analysis/:id", h.Result)
	g.GET("/analysis/:id/attribution", h.Attribution)
	if h.progress != nil {
		e.GET("/ws/progress", h.progress.Serve)
	}
}

// Health reports process liveness.
func (h *AnalysisHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// Run executes one analysis synchronously and returns its result. Progress is
// streamed to websocket subscribers while the run walks the date window.
func (h *AnalysisHandler) Run(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.SelectedDate != "" && req.LookbackDays == 0 {
		req.LookbackDays = h.lookbackDefault
	}
	if verr := validateWindow(req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	// Per-request credentials override the configured account for this and
	// all later runs until swapped again.
	h.session.UseCredentials(quotemedia.Credentials{
		WmID:     req.WmID,
		Username: req.Username,
		Password: req.Password,
	})

	var progress usecase.ProgressFunc
	if h.progress != nil {
		progress = func(completed, total int) {
			h.progress.Broadcast(ProgressEvent{Completed: completed, Total: total})
		}
	}

	res, err := h.analyzer.RunAnalysis(c.Request().Context(), req.Params(), progress)
	if err != nil {
		h.logger.Error("analysis run failed", xlogger.Error(err))
		return h.errorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Result returns the stored outcome of a finished run.
func (h *AnalysisHandler) Result(c echo.Context) error {
	res, err := h.analyzer.Result(c.Param("id"))
	if err != nil {
		return h.errorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Attribution returns broker aggregation for one run: per symbol when the
// symbol query parameter is present, across all flagged pairs otherwise.
func (h *AnalysisHandler) Attribution(c echo.Context) error {
	runID := c.Param("id")
	ctx := c.Request().Context()

	var rows []models.AttributionRow
	var err error
	if symbol := c.QueryParam("symbol"); symbol != "" {
		rows, err = h.analyzer.Attribution(ctx, runID, symbol)
	} else {
		rows, err = h.analyzer.CrossSymbolAttribution(ctx, runID)
	}
	if err != nil {
		h.logger.Error("attribution failed", xlogger.String("run_id", runID), xlogger.Error(err))
		return h.errorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, rows)
}

func (h *AnalysisHandler) errorResponse(c echo.Context, err error) error {
	switch {
	case err == usecase.ErrUnknownRun:
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("analysis run not found"))
	case err == usecase.ErrSymbolRequired || err == usecase.ErrEmptyWindow:
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	case quotemedia.IsAuthentication(err):
		return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("upstream rejected the configured credentials"))
	case quotemedia.IsNotAuthorized(err):
		return xhttp.AppErrorResponse(c, xhttp.ForbiddenError("upstream session was not accepted"))
	default:
		return xhttp.AppErrorResponse(c, err)
	}
}

// validateWindow enforces the cross-field rules the struct tags cannot: a
// usable window and ordered filter bands.
func validateWindow(req *models.AnalysisRequest) *xhttp.AppError {
	lookback := req.SelectedDate != "" || req.LookbackDays > 0
	if lookback {
		if req.SelectedDate == "" || req.LookbackDays <= 0 {
			return xhttp.BadRequestError("lookback mode needs both selected_date and lookback_days")
		}
	} else if req.StartDate == "" || req.EndDate == "" {
		return xhttp.BadRequestError("ranged mode needs start_date and end_date")
	}
	if req.MinPercent > req.MaxPercent {
		return xhttp.BadRequestError("min_percent must not exceed max_percent")
	}
	if req.MinPrice > req.MaxPrice {
		return xhttp.BadRequestError("min_price must not exceed max_price")
	}
	return nil
}
