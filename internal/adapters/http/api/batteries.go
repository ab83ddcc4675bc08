package api

import (
	"context"
	"net/http"

	"github.com/okian/auge/internal/adapters/mq/worker"
	"github.com/okian/auge/internal/app"
	"github.com/okian/auge/internal/domain/battery"
	"github.com/okian/auge/internal/domain/model"
)

// BatteryDependencies defines the battery computations.
type BatteryDependencies interface {
	CalculateGlobalBatteriesAsync(ctx context.Context, req app.BatteryRequest) *worker.Future[battery.Result]
	GetPerMuscleBatteries(ctx context.Context, req app.MuscleRequest) (map[model.MuscleID]float64, error)
}

// BatteryHandler handles battery requests.
type BatteryHandler struct {
	deps BatteryDependencies
}

// NewBatteryHandler creates a new battery handler.
func NewBatteryHandler(deps BatteryDependencies) *BatteryHandler {
	return &BatteryHandler{deps: deps}
}

// HandlePostBatteries handles POST /v1/batteries requests.
func (h *BatteryHandler) HandlePostBatteries(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_batteries"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req app.BatteryRequest
	if err := decode(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.deps.CalculateGlobalBatteriesAsync(r.Context(), req).Await(r.Context())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandlePostMuscles handles POST /v1/muscles/batteries requests.
func (h *BatteryHandler) HandlePostMuscles(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_muscle_batteries"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req app.MuscleRequest
	if err := decode(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.deps.GetPerMuscleBatteries(r.Context(), req)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
