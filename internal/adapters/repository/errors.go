package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrDuplicateRecord     = errors.New("record id already stored")
	ErrDuplicatePrediction = errors.New("prediction id already stored")
	ErrClosed              = errors.New("store closed")
)
