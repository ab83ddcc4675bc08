// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the engine.
type Dependencies interface {
	ObservationDependencies
	AdaptiveDependencies
	BatteryDependencies
	CalibrationDependencies
	StatsProvider
}

// Server wires HTTP routes for the engine API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	observationsHandler *ObservationsHandler
	adaptiveHandler     *AdaptiveHandler
	batteryHandler      *BatteryHandler
	calibrationHandler  *CalibrationHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(deps),
		observationsHandler: NewObservationsHandler(deps),
		adaptiveHandler:     NewAdaptiveHandler(deps),
		batteryHandler:      NewBatteryHandler(deps),
		calibrationHandler:  NewCalibrationHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("/v1/impulses", MetricsMiddleware(s.observationsHandler.HandlePostImpulse, "impulses"))
	mux.HandleFunc("/v1/workouts", MetricsMiddleware(s.observationsHandler.HandlePostWorkout, "workouts"))
	mux.HandleFunc("/v1/fatigue", MetricsMiddleware(s.observationsHandler.HandlePostFatigue, "fatigue"))
	mux.HandleFunc("/v1/recovery", MetricsMiddleware(s.observationsHandler.HandlePostRecovery, "recovery"))
	mux.HandleFunc("/v1/predictions", MetricsMiddleware(s.observationsHandler.HandlePostPrediction, "predictions"))
	mux.HandleFunc("/v1/outcomes", MetricsMiddleware(s.observationsHandler.HandlePostOutcome, "outcomes"))

	mux.HandleFunc("/v1/adaptive", MetricsMiddleware(s.adaptiveHandler.HandleGetAdaptive, "adaptive"))
	mux.HandleFunc("/v1/confidence", MetricsMiddleware(s.adaptiveHandler.HandleGetConfidence, "confidence"))

	mux.HandleFunc("/v1/batteries", MetricsMiddleware(s.batteryHandler.HandlePostBatteries, "batteries"))
	mux.HandleFunc("/v1/muscles/batteries", MetricsMiddleware(s.batteryHandler.HandlePostMuscles, "muscle_batteries"))

	mux.HandleFunc("/v1/calibration", MetricsMiddleware(s.calibrationHandler.HandleCalibration, "calibration"))
	mux.HandleFunc("/v1/calibration/slider", MetricsMiddleware(s.calibrationHandler.HandlePostSlider, "calibration_slider"))
	mux.HandleFunc("/v1/precalibration", MetricsMiddleware(s.calibrationHandler.HandlePostPrecalibration, "precalibration"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err with the status of its API kind.
func writeError(w http.ResponseWriter, err error) {
	code, name := status(err)
	writeJSON(w, code, errorResponse{Code: name, Message: err.Error()})
}

// decode reads a JSON body into v. Malformed bodies are bad requests.
func decode(w http.ResponseWriter, r *http.Request, op string, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
