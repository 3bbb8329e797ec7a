// Package handlers contains the HTTP handlers of the Skycast API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"skycast/internal/core"
	"skycast/internal/types"
)

// WeatherService is the subset of weather.Orchestrator the handler needs.
// Defined locally so tests can inject a fake.
type WeatherService interface {
	Search(ctx context.Context, city string, mode types.Mode) (*types.WeatherViewModel, error)
	Summarize(ctx context.Context, vm *types.WeatherViewModel) (string, error)
	SummariesEnabled() bool
}

// WeatherResponse is the data payload of GET /v1/weather.
type WeatherResponse struct {
	View    *types.WeatherViewModel `json:"view"`
	Summary string                  `json:"summary,omitempty"`
}

// weatherQuery holds the query parameters of GET /v1/weather.
type weatherQuery struct {
	City string `query:"city" validate:"city_query,max=200"`
	Mode string `query:"mode" validate:"weather_mode"`
}

// WeatherHandler serves city weather lookups. It keeps no state between
// requests; overlapping searches are independent.
type WeatherHandler struct {
	service   WeatherService
	validator *core.Validator
	logger    *slog.Logger
}

// NewWeatherHandler creates a WeatherHandler.
func NewWeatherHandler(svc WeatherService, v *core.Validator, logger *slog.Logger) *WeatherHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeatherHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// RegisterRoutes mounts the weather endpoint.
func (h *WeatherHandler) RegisterRoutes(r chi.Router) {
	r.Get("/weather", h.HandleGetWeather)
}

// HandleGetWeather handles GET /v1/weather?city=&mode=&summary=.
//  1. Validate the query; a blank city never reaches the service.
//  2. Search. Errors carry the user-facing message and status.
//  3. For current readings, attach the summary when requested and enabled.
//     A summary failure adds a warning but keeps the 200.
func (h *WeatherHandler) HandleGetWeather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := weatherQuery{City: q.Get("city"), Mode: q.Get("mode")}
	if err := h.validator.ValidateStruct(query); err != nil {
		core.Error(w, r, err)
		return
	}

	wantSummary := true
	if raw := q.Get("summary"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			core.Error(w, r, types.NewAppError(
				types.ErrCodeValidationInvalidField,
				"summary must be true or false",
				nil,
			))
			return
		}
		wantSummary = parsed
	}

	mode, err := types.ParseMode(query.Mode)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	vm, err := h.service.Search(r.Context(), query.City, mode)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	resp := core.APIResponse{}
	data := WeatherResponse{View: vm}

	if wantSummary && vm.Current != nil && h.service.SummariesEnabled() {
		summary, err := h.service.Summarize(r.Context(), vm)
		if err != nil {
			h.logger.WarnContext(r.Context(), "summary omitted",
				"city", vm.City,
				"request_id", types.GetRequestID(r.Context()),
				"error", err,
			)
			resp.Meta = &core.ResponseMeta{Warnings: []string{types.MsgSummaryUnavailable}}
		} else {
			data.Summary = summary
		}
	}

	resp.Data = data
	core.JSON(w, r, http.StatusOK, resp)
}
