package orchestrator

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyforge/internal/board"
	"keyforge/internal/job"
	"keyforge/internal/joblog"
	"keyforge/internal/keycode"
	"keyforge/internal/testutil"
)

// gatedResolver blocks the first IsValid call until released, holding the
// pipeline inside validation so tests can act on an in-flight job.
type gatedResolver struct {
	keycode.Resolver
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedResolver(t *testing.T) *gatedResolver {
	t.Helper()
	inner, err := keycode.NewBuiltinResolver()
	require.NoError(t, err)
	return &gatedResolver{
		Resolver: inner,
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (g *gatedResolver) IsValid(token string) bool {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.Resolver.IsValid(token)
}

func newTestOrchestrator(t *testing.T, resolver keycode.Resolver) *Orchestrator {
	t.Helper()
	if resolver == nil {
		builtin, err := keycode.NewBuiltinResolver()
		require.NoError(t, err)
		resolver = builtin
	}
	logs, err := joblog.Open(t.TempDir())
	require.NoError(t, err)
	geo := testutil.TestBoard()
	reg := board.NewRegistry(map[string]*board.Geometry{geo.Key(): geo})
	return New(Config{
		ToolchainPath: "/usr/bin/true",
		OutputRoot:    t.TempDir(),
	}, reg, resolver, logs)
}

func startWorker(t *testing.T, o *Orchestrator) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go o.Run(ctx)
	require.Eventually(t, func() bool {
		o.mu.Lock()
		defer o.mu.Unlock()
		return o.workerLive
	}, time.Second, time.Millisecond)
}

func waitTerminal(t *testing.T, o *Orchestrator, id string) job.Job {
	t.Helper()
	var row job.Job
	require.Eventually(t, func() bool {
		var ok bool
		row, ok = o.Job(id)
		return ok && row.Status.Terminal()
	}, 5*time.Second, 5*time.Millisecond)
	return row
}

func TestStartRequiresToolchain(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	o.cfg.ToolchainPath = ""

	_, err := o.Start(testutil.WriteLayout(t, testutil.FullLayout()), "testboard", "")
	require.ErrorIs(t, err, ErrNoToolchain)
	assert.Empty(t, o.Jobs())
}

func TestStartRequiresLayoutFile(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	_, err := o.Start(filepath.Join(t.TempDir(), "missing.json"), "testboard", "")
	require.Error(t, err)
	assert.Empty(t, o.Jobs())
	assert.Equal(t, 0, o.RunningCount())
}

func TestStartWithoutWorkerFailsTheJob(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	row, err := o.Start(testutil.WriteLayout(t, testutil.FullLayout()), "testboard", "")
	require.NoError(t, err)

	assert.Equal(t, job.Failed, row.Status)
	assert.Contains(t, row.Err, "dispatch failed")
	assert.Equal(t, 0, o.RunningCount())

	// The refusal reason is on the durable log as well.
	lines, _, err := o.Logs(row.ID, 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "dispatch failed")
}

func TestJobRunsToCompletion(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	startWorker(t, o)

	row, err := o.Start(testutil.WriteLayout(t, testutil.FullLayout()), "testboard", "")
	require.NoError(t, err)
	assert.Equal(t, job.Pending, row.Status)

	done := waitTerminal(t, o, row.ID)
	assert.Equal(t, job.Completed, done.Status)
	assert.Equal(t, 100, done.Progress)
	assert.False(t, done.StartedAt.IsZero())
	assert.False(t, done.FinishedAt.IsZero())

	archivePath, err := o.Archive(row.ID)
	require.NoError(t, err)
	assert.FileExists(t, archivePath)
	assert.Equal(t, "testboard.zip", filepath.Base(archivePath))

	// Generated sources landed next to the archive.
	outDir := filepath.Dir(archivePath)
	assert.FileExists(t, filepath.Join(outDir, "keymap.c"))
	assert.FileExists(t, filepath.Join(outDir, "config.h"))

	assert.Equal(t, 0, o.RunningCount())

	lines, _, err := o.Logs(row.ID, 0, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, lines)
}

func TestInvalidLayoutFailsTheJob(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	startWorker(t, o)

	l := testutil.FullLayout()
	l.Layers[0].Assignments[0].Keycode = "KC_BOGUS"
	row, err := o.Start(testutil.WriteLayout(t, l), "testboard", "")
	require.NoError(t, err)

	done := waitTerminal(t, o, row.ID)
	assert.Equal(t, job.Failed, done.Status)
	assert.Contains(t, done.Err, "failed validation")

	_, err = o.Archive(row.ID)
	require.Error(t, err)
	assert.Equal(t, 0, o.RunningCount())
}

func TestUnknownBoardFailsTheJob(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	startWorker(t, o)

	row, err := o.Start(testutil.WriteLayout(t, testutil.FullLayout()), "ghostboard", "")
	require.NoError(t, err)

	done := waitTerminal(t, o, row.ID)
	assert.Equal(t, job.Failed, done.Status)
	assert.Contains(t, done.Err, "ghostboard")
}

func TestRunningCeilingRefusesSecondJob(t *testing.T) {
	gate := newGatedResolver(t)
	o := newTestOrchestrator(t, gate)
	startWorker(t, o)

	first, err := o.Start(testutil.WriteLayout(t, testutil.FullLayout()), "testboard", "")
	require.NoError(t, err)

	// Hold the first job inside validation, then try to start another.
	<-gate.entered
	before := len(o.Jobs())
	_, err = o.Start(testutil.WriteLayout(t, testutil.FullLayout()), "testboard", "")
	require.ErrorIs(t, err, ErrBusy)
	// A refused request leaves no trace in the job table.
	assert.Equal(t, before, len(o.Jobs()))

	close(gate.release)
	done := waitTerminal(t, o, first.ID)
	assert.Equal(t, job.Completed, done.Status)

	// The slot is free again.
	second, err := o.Start(testutil.WriteLayout(t, testutil.FullLayout()), "testboard", "")
	require.NoError(t, err)
	waitTerminal(t, o, second.ID)
}

func TestCancelBeforeStart(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	id := "queued-job"
	o.jobs.Put(&job.Job{ID: id, BoardID: "testboard", Status: job.Pending, CreatedAt: time.Now().UTC()})
	o.cancels.Request(id)

	o.mu.Lock()
	o.running++
	o.mu.Unlock()
	o.process(context.Background(), id)

	row, ok := o.Job(id)
	require.True(t, ok)
	assert.Equal(t, job.Cancelled, row.Status)
	assert.Contains(t, row.Err, "before start")
	assert.Equal(t, 0, o.RunningCount())
}

func TestCancelDuringRun(t *testing.T) {
	gate := newGatedResolver(t)
	o := newTestOrchestrator(t, gate)
	startWorker(t, o)

	row, err := o.Start(testutil.WriteLayout(t, testutil.FullLayout()), "testboard", "")
	require.NoError(t, err)

	<-gate.entered
	require.True(t, o.Cancel(row.ID))
	close(gate.release)

	done := waitTerminal(t, o, row.ID)
	assert.Equal(t, job.Cancelled, done.Status)
	assert.Empty(t, done.ArchivePath)

	// Artifacts may exist on disk but are never advertised.
	_, err = o.Archive(row.ID)
	require.Error(t, err)
	assert.Equal(t, 0, o.RunningCount())
}

func TestCancelUnknownOrTerminal(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	assert.False(t, o.Cancel("unknown"))

	// A job that already failed cannot be cancelled.
	row, err := o.Start(testutil.WriteLayout(t, testutil.FullLayout()), "testboard", "")
	require.NoError(t, err)
	require.Equal(t, job.Failed, row.Status)
	assert.False(t, o.Cancel(row.ID))
}

func TestLogsUnknownJob(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	_, _, err := o.Logs("unknown", 0, 0)
	require.Error(t, err)
}

func TestJobsNewestFirst(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	startWorker(t, o)

	first, err := o.Start(testutil.WriteLayout(t, testutil.FullLayout()), "testboard", "")
	require.NoError(t, err)
	waitTerminal(t, o, first.ID)

	second, err := o.Start(testutil.WriteLayout(t, testutil.FullLayout()), "testboard", "")
	require.NoError(t, err)
	waitTerminal(t, o, second.ID)

	list := o.Jobs()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
}
