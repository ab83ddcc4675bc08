package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/auge/internal/adapters/mq/queue"
	"github.com/okian/auge/internal/adapters/repository"
	"github.com/okian/auge/internal/app"
	"github.com/okian/auge/internal/domain/calibration"
	"github.com/okian/auge/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("engine unavailable")
	ErrInternal    = errors.New("internal error")
)

// OpError tags an error with the handler operation and its API kind.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind returns an error of kind for op.
func NewKind(op string, kind error) error {
	return &OpError{Op: op, Kind: kind}
}

// WrapKind wraps err as kind for op.
func WrapKind(op string, kind, err error) error {
	return &OpError{Op: op, Kind: kind, Err: err}
}

// Wrap classifies err from the engine and wraps it for op.
func Wrap(op string, err error) error {
	return WrapKind(op, kindOf(err), err)
}

func kindOf(err error) error {
	switch {
	case errors.Is(err, model.ErrInvalidRecord),
		errors.Is(err, model.ErrInvalidSystem),
		errors.Is(err, model.ErrInvalidContext),
		errors.Is(err, calibration.ErrInvalidReadiness),
		errors.Is(err, calibration.ErrTooManyExercises),
		errors.Is(err, calibration.ErrInvalidIntensity),
		errors.Is(err, calibration.ErrInvalidSlider):
		return ErrBadRequest
	case errors.Is(err, repository.ErrDuplicatePrediction),
		errors.Is(err, repository.ErrDuplicateRecord):
		return ErrConflict
	case errors.Is(err, app.ErrNotStarted),
		errors.Is(err, app.ErrStopped),
		errors.Is(err, repository.ErrClosed),
		errors.Is(err, queue.ErrClosed):
		return ErrUnavailable
	}
	return ErrInternal
}

// status maps an API error to its HTTP status and response code.
func status(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}
