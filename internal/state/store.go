// Package state persists simulator run history in SQLite.
//
// Every simulator invocation made through internal/sim is recorded as a row
// in the runs table: which operation ran, against which model file, how it
// ended and how long it took. The history command reads this table back.
package state

import (
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run ID has no row in the store.
var ErrRunNotFound = errors.New("run not found")

// RunKind identifies which simulator operation produced a run.
type RunKind string

const (
	RunKindRun        RunKind = "run"
	RunKindNullclines RunKind = "nullclines"
	RunKindSweep      RunKind = "sweep"
	RunKindCheck      RunKind = "check"
)

// RunStatus represents the lifecycle state of a recorded run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusError   RunStatus = "error"
)

// Run is one recorded simulator invocation.
type Run struct {
	ID          string     `json:"id"`
	Kind        RunKind    `json:"kind"`
	ModelPath   string     `json:"model_path"`
	Status      RunStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	Rows        int64      `json:"rows"`
	DurationMS  int64      `json:"duration_ms"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
