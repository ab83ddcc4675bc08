package api

import (
	"context"
	"net/http"

	"github.com/okian/auge/internal/domain/calibration"
	"github.com/okian/auge/internal/domain/model"
)

// CalibrationDependencies defines the calibration overlay operations.
type CalibrationDependencies interface {
	Calibration(ctx context.Context) (model.CalibrationDelta, error)
	SetCalibration(ctx context.Context, c model.CalibrationDelta) error
	ApplySliderCalibration(ctx context.Context, sys model.SystemTag, displayed, slider float64) (model.CalibrationDelta, error)
	ApplyPrecalibrationToBattery(ctx context.Context, exercises []calibration.HeavyExercise, r calibration.Readiness, bg *model.PrecalibrationContext) (model.CalibrationDelta, error)
	ApplyPrecalibrationReadinessOnly(ctx context.Context, r calibration.Readiness) (model.CalibrationDelta, error)
}

type sliderRequest struct {
	System    model.SystemTag `json:"system"`
	Displayed float64         `json:"displayed"`
	Slider    float64         `json:"slider"`
}

type precalibrationRequest struct {
	Exercises []calibration.HeavyExercise  `json:"exercises"`
	Readiness calibration.Readiness        `json:"readiness"`
	Context   *model.PrecalibrationContext `json:"context,omitempty"`
}

// CalibrationHandler handles the calibration overlay.
type CalibrationHandler struct {
	deps CalibrationDependencies
}

// NewCalibrationHandler creates a new calibration handler.
func NewCalibrationHandler(deps CalibrationDependencies) *CalibrationHandler {
	return &CalibrationHandler{deps: deps}
}

// HandleCalibration handles GET and PUT /v1/calibration requests.
func (h *CalibrationHandler) HandleCalibration(w http.ResponseWriter, r *http.Request) {
	const op = "api.calibration"
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var c model.CalibrationDelta
		if err := decode(w, r, op, &c); err != nil {
			writeError(w, err)
			return
		}
		if err := h.deps.SetCalibration(r.Context(), c); err != nil {
			writeError(w, Wrap(op, err))
			return
		}
	default:
		http.NotFound(w, r)
		return
	}
	c, err := h.deps.Calibration(r.Context())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandlePostSlider handles POST /v1/calibration/slider requests.
func (h *CalibrationHandler) HandlePostSlider(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_slider"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req sliderRequest
	if err := decode(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := h.deps.ApplySliderCalibration(r.Context(), req.System, req.Displayed, req.Slider)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandlePostPrecalibration handles POST /v1/precalibration requests. Without
// exercises or background only the readiness answers are used.
func (h *CalibrationHandler) HandlePostPrecalibration(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_precalibration"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req precalibrationRequest
	if err := decode(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	var (
		c   model.CalibrationDelta
		err error
	)
	if len(req.Exercises) == 0 && req.Context == nil {
		c, err = h.deps.ApplyPrecalibrationReadinessOnly(r.Context(), req.Readiness)
	} else {
		c, err = h.deps.ApplyPrecalibrationToBattery(r.Context(), req.Exercises, req.Readiness, req.Context)
	}
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}
