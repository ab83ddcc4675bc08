package model

import "errors"

// Sentinel error kinds for boundary validation. Callers use errors.Is.
var (
	ErrInvalidRecord  = errors.New("invalid record")
	ErrInvalidSystem  = errors.New("invalid system")
	ErrInvalidContext = errors.New("invalid prediction context")
)
