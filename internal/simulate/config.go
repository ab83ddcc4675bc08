// Package simulate generates a synthetic athlete history, posts it through
// the HTTP API of a running engine and checks the resulting snapshot.
package simulate

import (
	"time"

	"github.com/okian/auge/internal/domain/model"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL string        // Base URL of the service
	Days    int           // Days of history to generate
	Seed    int64         // Seed of the generator; equal seeds give equal histories
	Workers int           // Number of concurrent submitters
	Timeout time.Duration // HTTP request timeout
	Start   time.Time     // First simulated day; zero means Days before now
	Verbose bool          // Log every rejected request
}

// Request is one generated API call.
type Request struct {
	Kind model.Kind
	Path string
	Body any
	// Replay marks a deliberate resubmission the server must reject.
	Replay bool
}

// History is a generated request log with its expected effect.
type History struct {
	Requests []Request
	// Records is the number of requests that must be stored.
	Records int
	// Replays is the number of requests that must be rejected as duplicates.
	Replays int
}

// AckResponse is the body answered by the writer endpoints.
type AckResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Seq       uint64 `json:"seq"`
	Matched   bool   `json:"matched"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds run statistics.
type Stats struct {
	Generated          int
	Submitted          int
	Accepted           int
	Ignored            int
	Conflicts          int
	Failed             int
	MatchedOutcomes    int
	BaselineRecords    uint32
	FinalRecords       uint32
	ConfidenceLabel    string
	PersonalizedMuscle int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
