package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/auge/internal/domain/model"
)

// AdaptiveDependencies defines the snapshot reads.
type AdaptiveDependencies interface {
	GetCachedAdaptiveData(ctx context.Context) (model.AdaptiveCache, error)
	Refresh(ctx context.Context) (model.AdaptiveCache, error)
	GetConfidenceLabel(totalObservations uint32) string
}

type confidenceResponse struct {
	TotalObservations uint32 `json:"total_observations"`
	Label             string `json:"label"`
}

// AdaptiveHandler serves the adaptive snapshot.
type AdaptiveHandler struct {
	deps AdaptiveDependencies
}

// NewAdaptiveHandler creates a new adaptive handler.
func NewAdaptiveHandler(deps AdaptiveDependencies) *AdaptiveHandler {
	return &AdaptiveHandler{deps: deps}
}

// HandleGetAdaptive handles GET /v1/adaptive requests. The cached snapshot
// is returned as is; ?fresh=1 waits for a rebuild.
func (h *AdaptiveHandler) HandleGetAdaptive(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_adaptive"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	read := h.deps.GetCachedAdaptiveData
	if fresh, _ := strconv.ParseBool(r.URL.Query().Get("fresh")); fresh {
		read = h.deps.Refresh
	}
	snap, err := read(r.Context())
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleGetConfidence handles GET /v1/confidence?n=N requests. Without n the
// count of the cached snapshot is used.
func (h *AdaptiveHandler) HandleGetConfidence(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_confidence"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	var n uint32
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeError(w, WrapKind(op, ErrBadRequest, err))
			return
		}
		n = uint32(v)
	} else {
		snap, err := h.deps.GetCachedAdaptiveData(r.Context())
		if err != nil {
			writeError(w, Wrap(op, err))
			return
		}
		n = snap.TotalObservations
	}
	writeJSON(w, http.StatusOK, confidenceResponse{TotalObservations: n, Label: h.deps.GetConfidenceLabel(n)})
}
