package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"skycast/internal/conditions"
	"skycast/internal/core"
	"skycast/internal/types"
)

// ConditionView is one classified weather code as served by the API.
type ConditionView struct {
	Code       int                  `json:"code"`
	Mapped     bool                 `json:"mapped"`
	Theme      types.ConditionTheme `json:"theme"`
	CSSClasses string               `json:"css_classes"`
}

// ConditionTable is the payload of GET /v1/conditions.
type ConditionTable struct {
	Conditions []ConditionView      `json:"conditions"`
	Fallback   types.ConditionTheme `json:"fallback"`
}

// ConditionsHandler exposes the static weather-code classification.
type ConditionsHandler struct{}

// NewConditionsHandler creates a ConditionsHandler.
func NewConditionsHandler() *ConditionsHandler {
	return &ConditionsHandler{}
}

// RegisterRoutes mounts the classification endpoints.
func (h *ConditionsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/conditions", h.HandleList)
	r.Get("/conditions/{code}", h.HandleGet)
}

// HandleList handles GET /v1/conditions.
func (h *ConditionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	table := conditions.Table()
	views := make([]ConditionView, len(table))
	for i, e := range table {
		views[i] = newConditionView(e.Code, e.Theme)
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: ConditionTable{
		Conditions: views,
		Fallback:   conditions.Fallback(),
	}})
}

// HandleGet handles GET /v1/conditions/{code}. Unmapped codes return the
// fallback theme with mapped=false.
func (h *ConditionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "code")
	code, err := strconv.Atoi(raw)
	if err != nil {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationInvalidCode,
			"code must be an integer weather code",
			nil,
		).WithDetails(map[string]any{"code": raw}))
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: newConditionView(code, conditions.Classify(code))})
}

func newConditionView(code int, theme types.ConditionTheme) ConditionView {
	return ConditionView{
		Code:       code,
		Mapped:     conditions.Label(code) != conditions.UnknownLabel,
		Theme:      theme,
		CSSClasses: theme.BackgroundGradient.CSSClasses(),
	}
}
