// Package repository implements the append-only Observation Store and the
// single-row calibration overlay.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/auge/internal/domain/model"
)

// Filter narrows a query. The zero value returns every record.
type Filter struct {
	// AfterSeq keeps records with a sequence number greater than AfterSeq.
	AfterSeq uint64
	// Since keeps records recorded at or after Since.
	Since time.Time
	// Limit keeps only the most recent Limit matches. Zero means no limit.
	Limit int
}

// Counts holds the number of stored records per kind.
type Counts map[model.Kind]int

// Total returns the number of stored records of every kind.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Store is the append-only observation log. Queries return records in
// insertion order. A failed append writes nothing.
type Store interface {
	AppendImpulse(ctx context.Context, r model.TrainingImpulse) (model.TrainingImpulse, error)
	AppendFatigue(ctx context.Context, r model.FatigueDataPoint) (model.FatigueDataPoint, error)
	AppendRecovery(ctx context.Context, r model.RecoveryObservation) (model.RecoveryObservation, error)
	AppendPrediction(ctx context.Context, r model.PredictionRecord) (model.PredictionRecord, error)
	// AppendOutcome stores r whether or not its prediction is known yet and
	// reports how it resolved.
	AppendOutcome(ctx context.Context, r model.OutcomeRecord) (model.OutcomeRecord, model.OutcomeStatus, error)

	Impulses(ctx context.Context, f Filter) ([]model.TrainingImpulse, error)
	FatiguePoints(ctx context.Context, f Filter) ([]model.FatigueDataPoint, error)
	RecoveryObservations(ctx context.Context, f Filter) ([]model.RecoveryObservation, error)
	Predictions(ctx context.Context, f Filter) ([]model.PredictionRecord, error)
	Outcomes(ctx context.Context, f Filter) ([]model.OutcomeRecord, error)

	// IDs returns the identities stored for kind in insertion order.
	IDs(ctx context.Context, kind model.Kind) ([]string, error)
	Count(ctx context.Context) (Counts, error)

	// Calibration returns the stored overlay, or the zero delta when none was saved.
	Calibration(ctx context.Context) (model.CalibrationDelta, error)
	// SaveCalibration replaces the overlay. Last write wins.
	SaveCalibration(ctx context.Context, c model.CalibrationDelta) error

	// Maintain runs housekeeping such as checkpoints. It is safe to call at any time.
	Maintain(ctx context.Context) error
	Close() error
}

// validate rejects malformed records before anything is written.
func validate(r any) error {
	switch v := r.(type) {
	case model.TrainingImpulse:
		return v.Validate()
	case model.FatigueDataPoint:
		return v.Validate()
	case model.RecoveryObservation:
		return v.Validate()
	case model.PredictionRecord:
		return v.Validate()
	case model.OutcomeRecord:
		return v.Validate()
	}
	return fmt.Errorf("%w: unsupported record %T", model.ErrInvalidRecord, r)
}

// stamp fills the identity and recording time. A prediction is identified
// by its prediction id.
func (o options) stamp(m *model.Meta, predictionID string) {
	m.ID = strings.TrimSpace(m.ID)
	switch {
	case predictionID != "":
		m.ID = predictionID
	case m.ID == "":
		m.ID = o.newID()
	}
	if m.RecordedAt.IsZero() {
		m.RecordedAt = o.now()
	}
	m.RecordedAt = m.RecordedAt.UTC()
}

type record interface {
	Header() model.Meta
}

// applyFilter returns the records of items that pass f, in order.
func applyFilter[T record](items []T, f Filter) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		h := it.Header()
		if h.Seq <= f.AfterSeq {
			continue
		}
		if !f.Since.IsZero() && h.RecordedAt.Before(f.Since) {
			continue
		}
		out = append(out, it)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

func ms(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
