package api

import (
	"time"

	"github.com/labstack/echo/v4"

	models "MoodPulse/internal/domain/models"
	domrepo "MoodPulse/internal/domain/repository"
	"MoodPulse/internal/usecase"
	xhttp "MoodPulse/pkg/http"
	xlogger "MoodPulse/pkg/logger"
)

// StatusHandler exposes the engine's read-only state: current mood,
// per-asset signals, and the recent action history.
type StatusHandler struct {
	logger    *xlogger.Logger
	scheduler *usecase.Scheduler
	store     domrepo.PriceStore
	actions   domrepo.ActionLog
}

func NewStatusHandler(logger *xlogger.Logger, scheduler *usecase.Scheduler, store domrepo.PriceStore, actions domrepo.ActionLog) *StatusHandler {
	return &StatusHandler{logger: logger, scheduler: scheduler, store: store, actions: actions}
}

func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api/v1")
	g.GET("/mood", h.Mood)
	g.GET("/signals", h.Signals)
	g.GET("/actions", h.Actions)
}

type moodResponse struct {
	Mood        string    `json:"mood"`
	EnteredAt   time.Time `json:"entered_at"`
	DwellCycles int       `json:"dwell_cycles"`
	ComputedAt  time.Time `json:"computed_at"`
}

func (h *StatusHandler) Mood(c echo.Context) error {
	st := h.scheduler.MoodSnapshot()
	state := h.scheduler.StateSnapshot()
	return xhttp.SuccessResponse(c, moodResponse{
		Mood:        string(st.Mood),
		EnteredAt:   st.EnteredAt,
		DwellCycles: st.DwellCycles,
		ComputedAt:  state.ComputedAt,
	})
}

type signalsResponse struct {
	Asset           string    `json:"asset"`
	Window          string    `json:"window"`
	Samples         int       `json:"samples"`
	LastPrice       float64   `json:"last_price"`
	CumulativeRet   float64   `json:"cumulative_return"`
	Volatility      float64   `json:"volatility"`
	Trend           string    `json:"trend"`
	VolumeChangePct float64   `json:"volume_change_pct"`
	VolumeTrend     string    `json:"volume_trend"`
	Correlations    []pairDTO `json:"correlations"`
}

type pairDTO struct {
	Pair         string   `json:"pair"`
	Value        *float64 `json:"value"` // null when undefined
	AlignedPairs int      `json:"aligned_pairs"`
}

func (h *StatusHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	state := h.scheduler.StateSnapshot()
	win := pickWindow(&state, req.Window)
	if win == nil {
		return xhttp.NotFoundResponse(c, "no computed state yet")
	}
	st, ok := win.Assets[req.Asset]
	if !ok {
		return xhttp.NotFoundResponse(c, "asset not tracked: "+req.Asset)
	}

	resp := signalsResponse{
		Asset:           req.Asset,
		Window:          req.Window,
		Samples:         st.Samples,
		LastPrice:       st.LastPrice,
		CumulativeRet:   st.CumulativeRet,
		Volatility:      st.Volatility,
		Trend:           string(st.Trend),
		VolumeChangePct: st.VolumeChangePct,
		VolumeTrend:     string(st.VolumeTrend),
	}
	for key, ps := range win.Pairs {
		resp.Correlations = append(resp.Correlations, pairDTO{
			Pair:         key,
			Value:        ps.Value,
			AlignedPairs: ps.AlignedPairs,
		})
	}
	return xhttp.SuccessResponse(c, resp)
}

func pickWindow(state *models.CorrelationState, name string) *models.WindowSnapshot {
	if len(state.Windows) == 0 {
		return nil
	}
	switch name {
	case "long":
		return state.Longest()
	case "medium":
		return &state.Windows[len(state.Windows)/2]
	default:
		return state.Shortest()
	}
}

type actionDTO struct {
	TriggeredAt time.Time `json:"triggered_at"`
	Mood        string    `json:"mood"`
	Fingerprint string    `json:"fingerprint"`
	Channel     string    `json:"channel"`
	Trigger     string    `json:"trigger"`
}

func (h *StatusHandler) Actions(c echo.Context) error {
	req := &models.ActionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	records, err := h.actions.Recent(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("recent actions error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	since := xhttp.ParseTimeDefault(c.QueryParam("since"), time.Time{})
	rows := make([]actionDTO, 0, len(records))
	for _, r := range records {
		if !since.IsZero() && r.TriggeredAt.Before(since) {
			continue
		}
		rows = append(rows, actionDTO{
			TriggeredAt: r.TriggeredAt,
			Mood:        string(r.Mood),
			Fingerprint: r.Fingerprint,
			Channel:     r.Channel,
			Trigger:     r.Trigger,
		})
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *StatusHandler) Health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		h.logger.Error("store health failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
