package orchestrator

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"keyforge/internal/board"
	"keyforge/internal/job"
	"keyforge/internal/joblog"
	"keyforge/internal/keycode"
)

// Config are the filesystem and resource parameters of one orchestrator.
type Config struct {
	// ToolchainPath is where the out-of-band firmware toolchain lives.
	// Starting jobs without one configured is refused up front.
	ToolchainPath string
	// OutputRoot is the directory that receives one subdirectory per job.
	OutputRoot string
	// MaxRunning bounds simultaneously running jobs. Zero means 1.
	MaxRunning int
}

// Start-path failures callers may want to distinguish.
var (
	ErrNoToolchain = errors.New("no toolchain path configured")
	ErrBusy        = errors.New("a job is already running")
)

// Orchestrator owns the job table, the cancellation set, and the sole
// worker.
type Orchestrator struct {
	cfg      Config
	boards   *board.Registry
	resolver keycode.Resolver
	logs     *joblog.Dir

	jobs    *job.Store
	cancels *job.CancelSet

	dispatch chan string

	// mu guards the running counter and the worker-liveness flag. It is
	// held only for the reserve/release bookkeeping, never across work.
	mu         sync.Mutex
	running    int
	workerLive bool
}

// New wires an orchestrator. Run must be called before Start can dispatch.
func New(cfg Config, boards *board.Registry, resolver keycode.Resolver, logs *joblog.Dir) *Orchestrator {
	if cfg.MaxRunning <= 0 {
		cfg.MaxRunning = 1
	}
	return &Orchestrator{
		cfg:      cfg,
		boards:   boards,
		resolver: resolver,
		logs:     logs,
		jobs:     job.NewStore(),
		cancels:  job.NewCancelSet(),
		dispatch: make(chan string, 1),
	}
}

// Start accepts or refuses a generate request. Synchronous refusals create
// no job row: missing toolchain configuration, missing layout file, or the
// running-job ceiling already reached.
//
// An accepted request whose dispatch cannot complete (worker not running,
// channel unavailable) still gets a row: it is immediately marked Failed,
// the reason is appended to its durable log, and the reserved slot is
// released. "Start returned a job" never implies "the job will run."
func (o *Orchestrator) Start(layoutPath, boardID, variant string) (job.Job, error) {
	if o.cfg.ToolchainPath == "" {
		return job.Job{}, ErrNoToolchain
	}
	if _, err := os.Stat(layoutPath); err != nil {
		return job.Job{}, fmt.Errorf("layout file %s: %w", layoutPath, err)
	}

	o.mu.Lock()
	if o.running >= o.cfg.MaxRunning {
		o.mu.Unlock()
		return job.Job{}, ErrBusy
	}
	o.running++
	workerLive := o.workerLive
	o.mu.Unlock()

	row := job.New(layoutPath, boardID, variant)
	o.jobs.Put(row)

	dispatched := false
	if workerLive {
		select {
		case o.dispatch <- row.ID:
			dispatched = true
		default:
		}
	}

	if !dispatched {
		reason := "dispatch failed: worker is not accepting jobs"
		o.jobs.Update(row.ID, func(j *job.Job) {
			j.Status = job.Failed
			j.Err = reason
			j.FinishedAt = time.Now().UTC()
		})
		if err := o.logs.Append(row.ID, "ERROR "+reason); err != nil {
			// The row already carries the reason; nothing better to do.
			_ = err
		}
		o.releaseSlot()
		updated, _ := o.jobs.Get(row.ID)
		return updated, nil
	}

	snapshot, _ := o.jobs.Get(row.ID)
	return snapshot, nil
}

// Job returns a copy of one job row.
func (o *Orchestrator) Job(id string) (job.Job, bool) {
	return o.jobs.Get(id)
}

// Jobs returns copies of all job rows, newest first.
func (o *Orchestrator) Jobs() []job.Job {
	return o.jobs.List()
}

// Cancel requests cooperative cancellation. It is a no-op for unknown or
// already-terminal jobs and reports whether the request was recorded.
func (o *Orchestrator) Cancel(id string) bool {
	row, ok := o.jobs.Get(id)
	if !ok || row.Status.Terminal() {
		return false
	}
	o.cancels.Request(id)
	return true
}

// Logs reads a page of the job's durable log.
func (o *Orchestrator) Logs(id string, offset, limit int) ([]string, int, error) {
	if _, ok := o.jobs.Get(id); !ok {
		return nil, 0, fmt.Errorf("unknown job %q", id)
	}
	return o.logs.Read(id, offset, limit)
}

// Archive returns the archive path of a Completed job. Cancelled jobs never
// advertise theirs.
func (o *Orchestrator) Archive(id string) (string, error) {
	row, ok := o.jobs.Get(id)
	if !ok {
		return "", fmt.Errorf("unknown job %q", id)
	}
	if row.Status != job.Completed || row.ArchivePath == "" {
		return "", fmt.Errorf("job %s has no archive (status %s)", id, row.Status)
	}
	return row.ArchivePath, nil
}

func (o *Orchestrator) releaseSlot() {
	o.mu.Lock()
	o.running--
	o.mu.Unlock()
}

// RunningCount is exposed for tests and the health endpoint.
func (o *Orchestrator) RunningCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}
