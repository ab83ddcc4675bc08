package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/pkg/metrics"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - initial schema
// 1 - index on outcome prediction references
const currentSchemaVersion = 1

// SQLiteStore persists the observation log and the calibration overlay in
// a SQLite database so both survive a restart.
type SQLiteStore struct {
	db   *sql.DB
	opts options

	mu     sync.RWMutex
	closed bool
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite creates or opens the database at path and applies pragmas and
// migrations. It is safe to call on an existing database.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps the pragmas
	// in effect for every statement.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, opts: o}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("execute %q: %w", p, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < 1 {
		if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_observations_ref ON observations(kind, ref)`); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Version returns the applied schema version.
func (s *SQLiteStore) Version(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
	return v, err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insert writes one record. The identity must already be stamped; the
// assigned sequence number is written back to m.
func (s *SQLiteStore) insert(ctx context.Context, db execer, kind model.Kind, m *model.Meta, ref string, r any) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO observations (kind, id, ref, recorded_at, payload) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (kind, id) DO NOTHING`,
		string(kind), m.ID, ref, m.RecordedAt.UnixNano(), string(payload))
	if err != nil {
		return fmt.Errorf("write %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write %s: %w", kind, err)
	}
	if n == 0 {
		if kind == model.KindPrediction {
			return fmt.Errorf("%w: %s", ErrDuplicatePrediction, m.ID)
		}
		return fmt.Errorf("%w: %s %s", ErrDuplicateRecord, kind, m.ID)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("write %s: %w", kind, err)
	}
	m.Seq = uint64(seq)
	return nil
}

func (s *SQLiteStore) appendRecord(ctx context.Context, kind model.Kind, m *model.Meta, ref string, r any) error {
	if !s.acquire() {
		return ErrClosed
	}
	defer s.mu.RUnlock()
	start := time.Now()
	if err := s.insert(ctx, s.db, kind, m, ref, r); err != nil {
		return err
	}
	metrics.RecordStoreLatency("append", ms(start))
	s.updateTotal(ctx)
	return nil
}

func (s *SQLiteStore) updateTotal(ctx context.Context) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM observations`).Scan(&n); err == nil {
		metrics.UpdateTotalObservations(n)
	}
}

// AppendImpulse stores a training impulse.
func (s *SQLiteStore) AppendImpulse(ctx context.Context, r model.TrainingImpulse) (model.TrainingImpulse, error) {
	if err := validate(r); err != nil {
		return r, err
	}
	s.opts.stamp(&r.Meta, "")
	err := s.appendRecord(ctx, model.KindImpulse, &r.Meta, "", r)
	return r, err
}

// AppendFatigue stores a fatigue data point.
func (s *SQLiteStore) AppendFatigue(ctx context.Context, r model.FatigueDataPoint) (model.FatigueDataPoint, error) {
	if err := validate(r); err != nil {
		return r, err
	}
	s.opts.stamp(&r.Meta, "")
	err := s.appendRecord(ctx, model.KindFatigue, &r.Meta, "", r)
	return r, err
}

// AppendRecovery stores a recovery observation.
func (s *SQLiteStore) AppendRecovery(ctx context.Context, r model.RecoveryObservation) (model.RecoveryObservation, error) {
	if err := validate(r); err != nil {
		return r, err
	}
	s.opts.stamp(&r.Meta, "")
	err := s.appendRecord(ctx, model.KindRecovery, &r.Meta, string(r.Muscle), r)
	return r, err
}

// AppendPrediction stores a prediction. Prediction ids are write-once.
func (s *SQLiteStore) AppendPrediction(ctx context.Context, r model.PredictionRecord) (model.PredictionRecord, error) {
	if err := validate(r); err != nil {
		return r, err
	}
	s.opts.stamp(&r.Meta, r.PredictionID)
	err := s.appendRecord(ctx, model.KindPrediction, &r.Meta, string(r.System), r)
	return r, err
}

// AppendOutcome stores an outcome. The status lookups and the insert run
// in one transaction.
func (s *SQLiteStore) AppendOutcome(ctx context.Context, r model.OutcomeRecord) (model.OutcomeRecord, model.OutcomeStatus, error) {
	var status model.OutcomeStatus
	if err := validate(r); err != nil {
		return r, status, err
	}
	if !s.acquire() {
		return r, status, ErrClosed
	}
	defer s.mu.RUnlock()
	s.opts.stamp(&r.Meta, "")
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return r, status, fmt.Errorf("begin outcome: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM observations WHERE kind = ? AND id = ?)`,
		string(model.KindPrediction), r.PredictionID).Scan(&status.Matched); err != nil {
		return r, status, fmt.Errorf("lookup prediction: %w", err)
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM observations WHERE kind = ? AND ref = ?)`,
		string(model.KindOutcome), r.PredictionID).Scan(&status.Duplicate); err != nil {
		return r, status, fmt.Errorf("lookup outcome: %w", err)
	}
	if err := s.insert(ctx, tx, model.KindOutcome, &r.Meta, r.PredictionID, r); err != nil {
		return r, model.OutcomeStatus{}, err
	}
	if err := tx.Commit(); err != nil {
		return r, model.OutcomeStatus{}, fmt.Errorf("commit outcome: %w", err)
	}
	metrics.RecordStoreLatency("append", ms(start))
	s.updateTotal(ctx)
	return r, status, nil
}

// load decodes the records of kind that pass f, in insertion order.
func load[T any](ctx context.Context, s *SQLiteStore, kind model.Kind, f Filter, meta func(*T) *model.Meta) ([]T, error) {
	if !s.acquire() {
		return nil, ErrClosed
	}
	defer s.mu.RUnlock()
	start := time.Now()
	since := int64(math.MinInt64)
	if !f.Since.IsZero() {
		since = f.Since.UnixNano()
	}
	limit := -1
	if f.Limit > 0 {
		limit = f.Limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, id, recorded_at, payload FROM (
			SELECT seq, id, recorded_at, payload FROM observations
			WHERE kind = ? AND seq > ? AND recorded_at >= ?
			ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`,
		string(kind), int64(f.AfterSeq), since, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var (
			seq        int64
			id         string
			recordedAt int64
			payload    string
		)
		if err := rows.Scan(&seq, &id, &recordedAt, &payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		var r T
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", kind, id, err)
		}
		m := meta(&r)
		m.ID, m.Seq, m.RecordedAt = id, uint64(seq), time.Unix(0, recordedAt).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, err)
	}
	metrics.RecordStoreLatency("query", ms(start))
	return out, nil
}

// Impulses returns stored impulses.
func (s *SQLiteStore) Impulses(ctx context.Context, f Filter) ([]model.TrainingImpulse, error) {
	return load(ctx, s, model.KindImpulse, f, func(r *model.TrainingImpulse) *model.Meta { return &r.Meta })
}

// FatiguePoints returns stored fatigue data points.
func (s *SQLiteStore) FatiguePoints(ctx context.Context, f Filter) ([]model.FatigueDataPoint, error) {
	return load(ctx, s, model.KindFatigue, f, func(r *model.FatigueDataPoint) *model.Meta { return &r.Meta })
}

// RecoveryObservations returns stored recovery observations.
func (s *SQLiteStore) RecoveryObservations(ctx context.Context, f Filter) ([]model.RecoveryObservation, error) {
	return load(ctx, s, model.KindRecovery, f, func(r *model.RecoveryObservation) *model.Meta { return &r.Meta })
}

// Predictions returns stored predictions.
func (s *SQLiteStore) Predictions(ctx context.Context, f Filter) ([]model.PredictionRecord, error) {
	return load(ctx, s, model.KindPrediction, f, func(r *model.PredictionRecord) *model.Meta { return &r.Meta })
}

// Outcomes returns stored outcomes.
func (s *SQLiteStore) Outcomes(ctx context.Context, f Filter) ([]model.OutcomeRecord, error) {
	return load(ctx, s, model.KindOutcome, f, func(r *model.OutcomeRecord) *model.Meta { return &r.Meta })
}

// IDs returns the identities stored for kind.
func (s *SQLiteStore) IDs(ctx context.Context, kind model.Kind) ([]string, error) {
	if !s.acquire() {
		return nil, ErrClosed
	}
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM observations WHERE kind = ? ORDER BY seq`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Count returns the number of records per kind.
func (s *SQLiteStore) Count(ctx context.Context) (Counts, error) {
	if !s.acquire() {
		return nil, ErrClosed
	}
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM observations GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}
	defer rows.Close()
	out := make(Counts, len(model.Kinds))
	for _, k := range model.Kinds {
		out[k] = 0
	}
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[model.Kind(kind)] = n
	}
	return out, rows.Err()
}

// Calibration returns the stored overlay.
func (s *SQLiteStore) Calibration(ctx context.Context) (model.CalibrationDelta, error) {
	var c model.CalibrationDelta
	if !s.acquire() {
		return c, ErrClosed
	}
	defer s.mu.RUnlock()
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM calibration WHERE id = 1`).Scan(&payload)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return c, nil
	case err != nil:
		return c, fmt.Errorf("read calibration: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return model.CalibrationDelta{}, fmt.Errorf("decode calibration: %w", err)
	}
	return c, nil
}

// SaveCalibration replaces the overlay.
func (s *SQLiteStore) SaveCalibration(ctx context.Context, c model.CalibrationDelta) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !s.acquire() {
		return ErrClosed
	}
	defer s.mu.RUnlock()
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode calibration: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO calibration (id, payload, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		string(payload), s.opts.now().UnixNano())
	if err != nil {
		return fmt.Errorf("write calibration: %w", err)
	}
	return nil
}

// Maintain checkpoints the WAL and refreshes planner statistics.
func (s *SQLiteStore) Maintain(ctx context.Context) error {
	if !s.acquire() {
		return ErrClosed
	}
	defer s.mu.RUnlock()
	for _, q := range []string{"PRAGMA wal_checkpoint(TRUNCATE)", "PRAGMA optimize"} {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("execute %q: %w", q, err)
		}
	}
	return nil
}

// acquire read-locks the store for one operation. It reports false, with
// the lock released, once the store is closed.
func (s *SQLiteStore) acquire() bool {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return false
	}
	return true
}

// Close waits for running operations and closes the database. Further
// calls fail with ErrClosed.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
