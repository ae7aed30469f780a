package executor

import (
	"context"
	"sync"
	"time"

	"PojClient/internal/logging"
	"PojClient/internal/models"
	"PojClient/pkg/bundle"
	"PojClient/pkg/downloader"
	"PojClient/pkg/planner"
)

// TaskState is the runtime state of a single planned task.
type TaskState string

const (
	StatePending  TaskState = "PENDING"
	StateRunning  TaskState = "RUNNING"
	StateRetrying TaskState = "RETRYING"
	StateVerified TaskState = "VERIFIED"
	StateSkipped  TaskState = "SKIPPED"
	StateFailed   TaskState = "FAILED"
)

// Fetcher is the part of downloader.Client the executor needs.
type Fetcher interface {
	Download(ctx context.Context, url, destPath string) (int64, error)
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

type Executor struct {
	Client   Fetcher
	Provider bundle.Provider
	// Pool is shared by every install in the process.
	Pool *downloader.Pool

	MaxAttempts int
	Backoff     time.Duration
	// LibraryConcurrency caps library groups; 0 means no cap.
	LibraryConcurrency int

	Progress *Progress
	Logger   *logging.Logger
}

// Outcome is what became of one task.
type Outcome struct {
	Task      *planner.Task
	State     TaskState
	Attempts  int
	Downloads int
	Err       error
}

type Result struct {
	Classpath string

	Client        []Outcome
	BaseLibraries []Outcome
	ModLibraries  []Outcome
	GraphicsShim  []Outcome
	Assets        []Outcome
}

// Progress aggregates counters over a run and fans snapshots out to
// subscribers. Slow subscribers miss intermediate snapshots.
type Progress struct {
	mu          sync.Mutex
	counters    models.TaskProgress
	subscribers []chan models.TaskProgress
	closed      bool
}
