package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyforge/internal/board"
	"keyforge/internal/job"
	"keyforge/internal/joblog"
	"keyforge/internal/keycode"
	"keyforge/internal/orchestrator"
	"keyforge/internal/testutil"
)

type fixture struct {
	orch    *orchestrator.Orchestrator
	handler http.Handler
}

func newFixture(t *testing.T, toolchain string) *fixture {
	t.Helper()
	resolver, err := keycode.NewBuiltinResolver()
	require.NoError(t, err)
	logs, err := joblog.Open(t.TempDir())
	require.NoError(t, err)
	geo := testutil.TestBoard()
	reg := board.NewRegistry(map[string]*board.Geometry{geo.Key(): geo})

	orch := orchestrator.New(orchestrator.Config{
		ToolchainPath: toolchain,
		OutputRoot:    t.TempDir(),
	}, reg, resolver, logs)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{orch: orch, handler: New(orch, logger).Handler()}
}

// startWorker runs the job worker and blocks until it accepts dispatches.
func (f *fixture) startWorker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go f.orch.Run(ctx)
	require.Eventually(t, func() bool {
		row, err := f.orch.Start(testutil.WriteLayout(t, testutil.FullLayout()), "testboard", "")
		if err != nil {
			return false
		}
		if row.Status == job.Failed {
			return false
		}
		f.waitTerminal(t, row.ID)
		return true
	}, 5*time.Second, 10*time.Millisecond)
}

func (f *fixture) waitTerminal(t *testing.T, id string) job.Job {
	t.Helper()
	var row job.Job
	require.Eventually(t, func() bool {
		var ok bool
		row, ok = f.orch.Job(id)
		return ok && row.Status.Terminal()
	}, 5*time.Second, 5*time.Millisecond)
	return row
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t, "/usr/bin/true")
	rec := f.do(t, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
}

func TestStartJobValidation(t *testing.T) {
	f := newFixture(t, "/usr/bin/true")

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/jobs", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/jobs", map[string]string{"board_id": "testboard"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing layout file", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/jobs", map[string]string{
			"layout_path": "/nonexistent/layout.json",
			"board_id":    "testboard",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestStartJobWithoutToolchain(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(t, http.MethodPost, "/jobs", map[string]string{
		"layout_path": testutil.WriteLayout(t, testutil.FullLayout()),
		"board_id":    "testboard",
	})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decode[map[string]string](t, rec)
	assert.Contains(t, body["message"], "toolchain")
}

func TestStartJobLifecycle(t *testing.T) {
	f := newFixture(t, "/usr/bin/true")
	f.startWorker(t)

	rec := f.do(t, http.MethodPost, "/jobs", map[string]string{
		"layout_path": testutil.WriteLayout(t, testutil.FullLayout()),
		"board_id":    "testboard",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	accepted := decode[map[string]any](t, rec)
	id, _ := accepted["id"].(string)
	require.NotEmpty(t, id)

	done := f.waitTerminal(t, id)
	require.Equal(t, job.Completed, done.Status)

	t.Run("status", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/jobs/"+id, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[map[string]any](t, rec)
		assert.Equal(t, "completed", body["status"])
		assert.Equal(t, float64(100), body["progress"])
		assert.NotEmpty(t, body["started_at"])
		assert.NotEmpty(t, body["finished_at"])
	})

	t.Run("list", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/jobs", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		list := decode[[]map[string]any](t, rec)
		assert.NotEmpty(t, list)
	})

	t.Run("logs", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/jobs/"+id+"/logs", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[map[string]any](t, rec)
		lines, _ := body["lines"].([]any)
		assert.NotEmpty(t, lines)
		assert.Greater(t, body["next_offset"], float64(0))
	})

	t.Run("paged logs", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, fmt.Sprintf("/jobs/%s/logs?offset=1&limit=2", id), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[map[string]any](t, rec)
		lines, _ := body["lines"].([]any)
		assert.Len(t, lines, 2)
		assert.Equal(t, float64(3), body["next_offset"])
	})

	t.Run("archive", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/jobs/"+id+"/archive", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
		assert.NotEmpty(t, rec.Body.Bytes())
	})

	t.Run("cancel finished job", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/jobs/"+id+"/cancel", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestUnknownJobRoutes(t *testing.T) {
	f := newFixture(t, "/usr/bin/true")

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/jobs/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/jobs/nope/logs", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/jobs/nope/archive", nil).Code)
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/jobs/nope/cancel", nil).Code)
}

func TestArchiveNotAdvertisedForFailedJob(t *testing.T) {
	f := newFixture(t, "/usr/bin/true")
	f.startWorker(t)

	l := testutil.FullLayout()
	l.Layers[0].Assignments[0].Keycode = "KC_BOGUS"
	rec := f.do(t, http.MethodPost, "/jobs", map[string]string{
		"layout_path": testutil.WriteLayout(t, l),
		"board_id":    "testboard",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	body := decode[map[string]any](t, rec)
	id, _ := body["id"].(string)

	done := f.waitTerminal(t, id)
	require.Equal(t, job.Failed, done.Status)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/jobs/"+id+"/archive", nil).Code)
}
