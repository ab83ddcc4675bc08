package calibration

import "errors"

// Sentinel errors for calibration input.
var (
	ErrInvalidReadiness = errors.New("readiness answers must be within 1-5")
	ErrTooManyExercises = errors.New("at most three exercises")
	ErrInvalidIntensity = errors.New("unknown intensity")
	ErrInvalidSlider    = errors.New("invalid slider correction")
)
