package simulate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/pkg/logger"
)

const (
	defaultWorkers = 4
	defaultTimeout = 30 * time.Second
)

// Runner drives one simulation against a running service.
type Runner struct {
	cfg    Config
	client *HTTPClient
	logger logger.Logger
}

// NewRunner validates cfg and fills defaults for unset fields.
func NewRunner(cfg Config, opts ...Option) (*Runner, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	}
	if cfg.Days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive", ErrInvalidConfig)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	r := &Runner{
		cfg:    cfg,
		client: newHTTPClient(cfg.BaseURL, cfg.Timeout),
		logger: logger.GetOrNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes a complete simulation with cfg.
func Run(ctx context.Context, cfg Config, opts ...Option) (*Stats, error) {
	r, err := NewRunner(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx)
}

// Run checks the service, generates the history, submits it and verifies
// the resulting snapshot.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	r.logger.Info(ctx, "starting simulation",
		logger.String("baseURL", r.cfg.BaseURL),
		logger.Int("days", r.cfg.Days),
		logger.Any("seed", r.cfg.Seed),
		logger.Int("workers", r.cfg.Workers),
		logger.Duration("timeout", r.cfg.Timeout),
	)

	// Step 1: Check service health
	if err := r.checkServiceHealth(ctx); err != nil {
		return stats, err
	}

	// Step 2: Record the starting point
	before, err := r.snapshot(ctx)
	if err != nil {
		return stats, err
	}
	stats.BaselineRecords = before.TotalObservations

	// Step 3: Generate the history
	history, err := Generate(r.cfg)
	if err != nil {
		return stats, fmt.Errorf("history generation failed: %w", err)
	}
	stats.Generated = len(history.Requests)
	r.logger.Info(ctx, "generated history",
		logger.Int("requests", len(history.Requests)),
		logger.Int("records", history.Records),
		logger.Int("replays", history.Replays),
	)

	// Step 4: Submit concurrently
	if err := r.submit(ctx, history, stats); err != nil {
		return stats, err
	}

	// Step 5: Verify
	after, err := r.snapshot(ctx)
	if err != nil {
		return stats, err
	}
	stats.FinalRecords = after.TotalObservations
	stats.ConfidenceLabel = after.ConfidenceLabel
	stats.PersonalizedMuscle = len(after.PersonalizedRecoveryHours)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	r.displayFinalStats(ctx, stats)

	if err := verify(history, stats); err != nil {
		return stats, err
	}
	r.logger.Info(ctx, "simulation completed successfully")
	return stats, nil
}

func (r *Runner) checkServiceHealth(ctx context.Context) error {
	code, err := r.client.Get(ctx, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if code != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, code)
	}
	return nil
}

func (r *Runner) snapshot(ctx context.Context) (model.AdaptiveCache, error) {
	var snap model.AdaptiveCache
	code, err := r.client.Get(ctx, "/v1/adaptive?fresh=1", &snap)
	if err != nil {
		return snap, fmt.Errorf("read snapshot: %w", err)
	}
	if code != http.StatusOK {
		return snap, fmt.Errorf("read snapshot: status %d", code)
	}
	return snap, nil
}

func (r *Runner) reject(ctx context.Context, req Request, code int, err error) {
	if !r.cfg.Verbose {
		return
	}
	fields := []logger.Field{
		logger.String("path", req.Path),
		logger.String("kind", string(req.Kind)),
		logger.Int("status", code),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	r.logger.Warn(ctx, "request rejected", fields...)
}

func (r *Runner) displayFinalStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	r.logger.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("ignored", stats.Ignored),
		logger.Int("conflicts", stats.Conflicts),
		logger.Int("failed", stats.Failed),
		logger.Int("matchedOutcomes", stats.MatchedOutcomes),
		logger.Int("baselineRecords", int(stats.BaselineRecords)),
		logger.Int("finalRecords", int(stats.FinalRecords)),
		logger.String("confidence", stats.ConfidenceLabel),
		logger.Int("personalizedMuscles", stats.PersonalizedMuscle),
		logger.Duration("duration", stats.Duration),
		logger.Float64("requestsPerSecond", perSecond),
	)
}
