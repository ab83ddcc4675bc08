package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/pkg/metrics"
)

// MemoryStore keeps the observation log in process memory. It is used when
// no database path is configured and in tests.
type MemoryStore struct {
	opts options

	mu          sync.RWMutex
	closed      bool
	seq         uint64
	impulses    []model.TrainingImpulse
	fatigue     []model.FatigueDataPoint
	recovery    []model.RecoveryObservation
	predictions []model.PredictionRecord
	outcomes    []model.OutcomeRecord
	ids         map[model.Kind]map[string]struct{}
	outcomesFor map[string]int
	calibration model.CalibrationDelta
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	ids := make(map[model.Kind]map[string]struct{}, len(model.Kinds))
	for _, k := range model.Kinds {
		ids[k] = make(map[string]struct{})
	}
	return &MemoryStore{opts: o, ids: ids, outcomesFor: make(map[string]int)}
}

// claim checks and records an identity and assigns the next sequence
// number. The caller holds the write lock.
func (s *MemoryStore) claim(kind model.Kind, m *model.Meta) error {
	if s.closed {
		return ErrClosed
	}
	if _, dup := s.ids[kind][m.ID]; dup {
		if kind == model.KindPrediction {
			return fmt.Errorf("%w: %s", ErrDuplicatePrediction, m.ID)
		}
		return fmt.Errorf("%w: %s %s", ErrDuplicateRecord, kind, m.ID)
	}
	s.ids[kind][m.ID] = struct{}{}
	s.seq++
	m.Seq = s.seq
	return nil
}

func (s *MemoryStore) total() int {
	return len(s.impulses) + len(s.fatigue) + len(s.recovery) + len(s.predictions) + len(s.outcomes)
}

func (s *MemoryStore) appended(start time.Time) {
	metrics.RecordStoreLatency("append", ms(start))
	metrics.UpdateTotalObservations(s.total())
}

// AppendImpulse stores a training impulse.
func (s *MemoryStore) AppendImpulse(ctx context.Context, r model.TrainingImpulse) (model.TrainingImpulse, error) {
	if err := validate(r); err != nil {
		return r, err
	}
	start := time.Now()
	s.opts.stamp(&r.Meta, "")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claim(model.KindImpulse, &r.Meta); err != nil {
		return r, err
	}
	s.impulses = append(s.impulses, r)
	s.appended(start)
	return r, nil
}

// AppendFatigue stores a fatigue data point.
func (s *MemoryStore) AppendFatigue(ctx context.Context, r model.FatigueDataPoint) (model.FatigueDataPoint, error) {
	if err := validate(r); err != nil {
		return r, err
	}
	start := time.Now()
	s.opts.stamp(&r.Meta, "")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claim(model.KindFatigue, &r.Meta); err != nil {
		return r, err
	}
	s.fatigue = append(s.fatigue, r)
	s.appended(start)
	return r, nil
}

// AppendRecovery stores a recovery observation.
func (s *MemoryStore) AppendRecovery(ctx context.Context, r model.RecoveryObservation) (model.RecoveryObservation, error) {
	if err := validate(r); err != nil {
		return r, err
	}
	start := time.Now()
	s.opts.stamp(&r.Meta, "")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claim(model.KindRecovery, &r.Meta); err != nil {
		return r, err
	}
	s.recovery = append(s.recovery, r)
	s.appended(start)
	return r, nil
}

// AppendPrediction stores a prediction. Prediction ids are write-once.
func (s *MemoryStore) AppendPrediction(ctx context.Context, r model.PredictionRecord) (model.PredictionRecord, error) {
	if err := validate(r); err != nil {
		return r, err
	}
	start := time.Now()
	s.opts.stamp(&r.Meta, r.PredictionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claim(model.KindPrediction, &r.Meta); err != nil {
		return r, err
	}
	s.predictions = append(s.predictions, r)
	s.appended(start)
	return r, nil
}

// AppendOutcome stores an outcome.
func (s *MemoryStore) AppendOutcome(ctx context.Context, r model.OutcomeRecord) (model.OutcomeRecord, model.OutcomeStatus, error) {
	var status model.OutcomeStatus
	if err := validate(r); err != nil {
		return r, status, err
	}
	start := time.Now()
	s.opts.stamp(&r.Meta, "")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claim(model.KindOutcome, &r.Meta); err != nil {
		return r, status, err
	}
	_, status.Matched = s.ids[model.KindPrediction][r.PredictionID]
	status.Duplicate = s.outcomesFor[r.PredictionID] > 0
	s.outcomesFor[r.PredictionID]++
	s.outcomes = append(s.outcomes, r)
	s.appended(start)
	return r, status, nil
}

func query[T record](s *MemoryStore, items *[]T, f Filter) ([]T, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := applyFilter(*items, f)
	metrics.RecordStoreLatency("query", ms(start))
	return out, nil
}

// Impulses returns stored impulses.
func (s *MemoryStore) Impulses(ctx context.Context, f Filter) ([]model.TrainingImpulse, error) {
	return query(s, &s.impulses, f)
}

// FatiguePoints returns stored fatigue data points.
func (s *MemoryStore) FatiguePoints(ctx context.Context, f Filter) ([]model.FatigueDataPoint, error) {
	return query(s, &s.fatigue, f)
}

// RecoveryObservations returns stored recovery observations.
func (s *MemoryStore) RecoveryObservations(ctx context.Context, f Filter) ([]model.RecoveryObservation, error) {
	return query(s, &s.recovery, f)
}

// Predictions returns stored predictions.
func (s *MemoryStore) Predictions(ctx context.Context, f Filter) ([]model.PredictionRecord, error) {
	return query(s, &s.predictions, f)
}

// Outcomes returns stored outcomes.
func (s *MemoryStore) Outcomes(ctx context.Context, f Filter) ([]model.OutcomeRecord, error) {
	return query(s, &s.outcomes, f)
}

func headers[T record](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Header().ID
	}
	return out
}

// IDs returns the identities stored for kind.
func (s *MemoryStore) IDs(ctx context.Context, kind model.Kind) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	switch kind {
	case model.KindImpulse:
		return headers(s.impulses), nil
	case model.KindFatigue:
		return headers(s.fatigue), nil
	case model.KindRecovery:
		return headers(s.recovery), nil
	case model.KindPrediction:
		return headers(s.predictions), nil
	case model.KindOutcome:
		return headers(s.outcomes), nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", model.ErrInvalidRecord, kind)
}

// Count returns the number of records per kind.
func (s *MemoryStore) Count(ctx context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return Counts{
		model.KindImpulse:    len(s.impulses),
		model.KindFatigue:    len(s.fatigue),
		model.KindRecovery:   len(s.recovery),
		model.KindPrediction: len(s.predictions),
		model.KindOutcome:    len(s.outcomes),
	}, nil
}

// Calibration returns the stored overlay.
func (s *MemoryStore) Calibration(ctx context.Context) (model.CalibrationDelta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.CalibrationDelta{}, ErrClosed
	}
	c := s.calibration
	if c.PrecalibrationContext != nil {
		pc := *c.PrecalibrationContext
		c.PrecalibrationContext = &pc
	}
	return c, nil
}

// SaveCalibration replaces the overlay.
func (s *MemoryStore) SaveCalibration(ctx context.Context, c model.CalibrationDelta) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if c.PrecalibrationContext != nil {
		pc := *c.PrecalibrationContext
		c.PrecalibrationContext = &pc
	}
	s.calibration = c
	return nil
}

// Maintain is a no-op for the memory store.
func (s *MemoryStore) Maintain(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close releases the store. Further calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
