package api

import (
	"context"
	"net/http"

	"github.com/okian/auge/internal/domain/battery"
	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/internal/domain/stress"
)

// ObservationDependencies defines the writers of the observation store.
type ObservationDependencies interface {
	QueueTrainingImpulse(ctx context.Context, r model.TrainingImpulse) (model.TrainingImpulse, error)
	QueueWorkout(ctx context.Context, w battery.Workout) (stress.Result, model.TrainingImpulse, error)
	QueueFatigueDataPoint(ctx context.Context, r model.FatigueDataPoint) (model.FatigueDataPoint, error)
	QueueRecoveryObservation(ctx context.Context, r model.RecoveryObservation) (model.RecoveryObservation, error)
	QueuePrediction(ctx context.Context, r model.PredictionRecord) (model.PredictionRecord, error)
	QueueOutcome(ctx context.Context, r model.OutcomeRecord) (model.OutcomeRecord, model.OutcomeStatus, error)
}

type ackResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
	Seq    uint64 `json:"seq,omitempty"`
}

type outcomeResponse struct {
	ackResponse
	model.OutcomeStatus
}

type workoutResponse struct {
	ackResponse
	Stress stress.Result `json:"stress"`
}

// ObservationsHandler handles the append-only writer endpoints.
type ObservationsHandler struct {
	deps ObservationDependencies
}

// NewObservationsHandler creates a new observations handler.
func NewObservationsHandler(deps ObservationDependencies) *ObservationsHandler {
	return &ObservationsHandler{deps: deps}
}

type header interface {
	Header() model.Meta
}

// accept decodes one record, appends it and answers 202.
func accept[T header](w http.ResponseWriter, r *http.Request, op string, appendFn func(context.Context, T) (T, error)) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var rec T
	if err := decode(w, r, op, &rec); err != nil {
		writeError(w, err)
		return
	}
	stored, err := appendFn(r.Context(), rec)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	m := stored.Header()
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: m.ID, Seq: m.Seq})
}

// HandlePostImpulse handles POST /v1/impulses requests.
func (h *ObservationsHandler) HandlePostImpulse(w http.ResponseWriter, r *http.Request) {
	accept(w, r, "api.post_impulse", h.deps.QueueTrainingImpulse)
}

// HandlePostFatigue handles POST /v1/fatigue requests.
func (h *ObservationsHandler) HandlePostFatigue(w http.ResponseWriter, r *http.Request) {
	accept(w, r, "api.post_fatigue", h.deps.QueueFatigueDataPoint)
}

// HandlePostRecovery handles POST /v1/recovery requests.
func (h *ObservationsHandler) HandlePostRecovery(w http.ResponseWriter, r *http.Request) {
	accept(w, r, "api.post_recovery", h.deps.QueueRecoveryObservation)
}

// HandlePostPrediction handles POST /v1/predictions requests. A reused
// prediction id is a 409.
func (h *ObservationsHandler) HandlePostPrediction(w http.ResponseWriter, r *http.Request) {
	accept(w, r, "api.post_prediction", h.deps.QueuePrediction)
}

// HandlePostOutcome handles POST /v1/outcomes requests.
func (h *ObservationsHandler) HandlePostOutcome(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_outcome"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var rec model.OutcomeRecord
	if err := decode(w, r, op, &rec); err != nil {
		writeError(w, err)
		return
	}
	stored, st, err := h.deps.QueueOutcome(r.Context(), rec)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, outcomeResponse{
		ackResponse:   ackResponse{Status: "accepted", ID: stored.ID, Seq: stored.Seq},
		OutcomeStatus: st,
	})
}

// HandlePostWorkout handles POST /v1/workouts requests. The session is
// scored and stored as a training impulse; a session without valid sets is
// answered 200 and stores nothing.
func (h *ObservationsHandler) HandlePostWorkout(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_workout"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var wk battery.Workout
	if err := decode(w, r, op, &wk); err != nil {
		writeError(w, err)
		return
	}
	res, imp, err := h.deps.QueueWorkout(r.Context(), wk)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	if imp.ID == "" {
		writeJSON(w, http.StatusOK, workoutResponse{ackResponse: ackResponse{Status: "ignored"}, Stress: res})
		return
	}
	writeJSON(w, http.StatusAccepted, workoutResponse{
		ackResponse: ackResponse{Status: "accepted", ID: imp.ID, Seq: imp.Seq},
		Stress:      res,
	})
}
