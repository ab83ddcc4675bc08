package app

import (
	"context"

	"github.com/okian/auge/internal/domain/calibration"
	"github.com/okian/auge/internal/domain/model"
	"github.com/okian/auge/pkg/logger"
)

// Calibration returns the active overlay.
func (e *Engine) Calibration(ctx context.Context) (model.CalibrationDelta, error) {
	if err := e.ready(); err != nil {
		return model.CalibrationDelta{}, err
	}
	return e.store.Calibration(ctx)
}

// SetCalibration replaces the overlay. Last write wins.
func (e *Engine) SetCalibration(ctx context.Context, c model.CalibrationDelta) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.calMu.Lock()
	defer e.calMu.Unlock()
	return e.saveCalibration(ctx, c)
}

// saveCalibration persists c. The caller holds calMu.
func (e *Engine) saveCalibration(ctx context.Context, c model.CalibrationDelta) error {
	if c.LastCalibrated.IsZero() {
		c.LastCalibrated = e.now()
	}
	if err := e.store.SaveCalibration(ctx, c); err != nil {
		return err
	}
	e.invalidate()
	e.logger.Info(ctx, "calibration updated",
		logger.Float64("cns", c.CNSDelta),
		logger.Float64("muscular", c.MuscularDelta),
		logger.Float64("spinal", c.SpinalDelta),
	)
	return nil
}

// ApplySliderCalibration stores the difference between what the athlete saw
// for sys and what they set the slider to. Only sys changes.
func (e *Engine) ApplySliderCalibration(ctx context.Context, sys model.SystemTag, displayed, slider float64) (model.CalibrationDelta, error) {
	if err := e.ready(); err != nil {
		return model.CalibrationDelta{}, err
	}
	e.calMu.Lock()
	defer e.calMu.Unlock()
	cur, err := e.store.Calibration(ctx)
	if err != nil {
		return model.CalibrationDelta{}, err
	}
	next, err := calibration.FromSlider(cur, sys, displayed, slider, e.now())
	if err != nil {
		return cur, err
	}
	return next, e.saveCalibration(ctx, next)
}

// ApplyPrecalibrationToBattery seeds the overlay from the cold-start
// questionnaire and up to three heavy exercises.
func (e *Engine) ApplyPrecalibrationToBattery(ctx context.Context, exercises []calibration.HeavyExercise, r calibration.Readiness, bg *model.PrecalibrationContext) (model.CalibrationDelta, error) {
	if err := e.ready(); err != nil {
		return model.CalibrationDelta{}, err
	}
	c, err := calibration.Precalibrate(exercises, r, e.exercises, bg, e.now())
	if err != nil {
		return model.CalibrationDelta{}, err
	}
	e.calMu.Lock()
	defer e.calMu.Unlock()
	return c, e.saveCalibration(ctx, c)
}

// ApplyPrecalibrationReadinessOnly seeds the overlay from the readiness
// sliders alone.
func (e *Engine) ApplyPrecalibrationReadinessOnly(ctx context.Context, r calibration.Readiness) (model.CalibrationDelta, error) {
	if err := e.ready(); err != nil {
		return model.CalibrationDelta{}, err
	}
	c, err := calibration.PrecalibrateReadiness(r, e.now())
	if err != nil {
		return model.CalibrationDelta{}, err
	}
	e.calMu.Lock()
	defer e.calMu.Unlock()
	return c, e.saveCalibration(ctx, c)
}
