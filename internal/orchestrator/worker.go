package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"keyforge/internal/archive"
	"keyforge/internal/coords"
	"keyforge/internal/ctxlog"
	"keyforge/internal/firmware"
	"keyforge/internal/job"
	"keyforge/internal/layout"
	"keyforge/internal/validate"
)

// Run is the sole worker loop. It processes dispatched job ids in order
// until the context is cancelled. Exactly one Run per orchestrator instance.
func (o *Orchestrator) Run(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	o.mu.Lock()
	o.workerLive = true
	o.mu.Unlock()
	logger.Debug("Job worker started.")

	defer func() {
		o.mu.Lock()
		o.workerLive = false
		o.mu.Unlock()
		logger.Debug("Job worker stopped.")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case id := <-o.dispatch:
			o.process(ctx, id)
		}
	}
}

// process drives one job through the pipeline. The reserved slot is released
// on every exit path.
func (o *Orchestrator) process(ctx context.Context, id string) {
	defer o.releaseSlot()

	logger := ctxlog.FromContext(ctx).With("job", id)

	// Checkpoint 1: cancellation requested while the job sat in the queue.
	if o.cancels.Requested(id) {
		o.finish(id, job.Cancelled, "cancelled before start")
		o.appendLog(ctx, id, "job cancelled before it started")
		return
	}

	row, ok := o.jobs.Get(id)
	if !ok {
		logger.Error("Dispatched job id has no row; dropping.")
		return
	}

	o.jobs.Update(id, func(j *job.Job) {
		j.Status = job.Running
		j.StartedAt = time.Now().UTC()
		j.Progress = 10
	})
	o.appendLog(ctx, id, fmt.Sprintf("job started: layout=%s board=%s variant=%q", row.LayoutPath, row.BoardID, row.Variant))

	// Setup: read the layout file (raw bytes for the archive, parsed form
	// for the pipeline) and resolve the board.
	rawLayout, err := os.ReadFile(row.LayoutPath)
	if err != nil {
		o.fail(ctx, id, fmt.Sprintf("reading layout: %v", err))
		return
	}
	doc, err := layout.Load(row.LayoutPath)
	if err != nil {
		o.fail(ctx, id, fmt.Sprintf("parsing layout: %v", err))
		return
	}
	geo, err := o.boards.Resolve(row.BoardID, row.Variant)
	if err != nil {
		o.fail(ctx, id, err.Error())
		return
	}
	mapping := coords.BuildLogged(ctx, geo.Keys, geo.Rows, geo.Cols)
	o.jobs.Update(id, func(j *job.Job) { j.Progress = 30 })
	o.appendLog(ctx, id, fmt.Sprintf("setup complete: %d keys on a %dx%d matrix", mapping.KeyCount(), geo.Rows, geo.Cols))

	// Checkpoint 2: after setup and log open.
	if o.cancels.Requested(id) {
		o.finish(id, job.Cancelled, "cancelled during setup")
		o.appendLog(ctx, id, "job cancelled during setup")
		return
	}

	report := validate.Validate(doc, mapping, o.resolver)
	for _, p := range report.Errors {
		o.appendLog(ctx, id, "validation error: "+p.String())
	}
	for _, p := range report.Warnings {
		o.appendLog(ctx, id, "validation warning: "+p.String())
	}
	if !report.Valid() {
		o.fail(ctx, id, fmt.Sprintf("layout failed validation with %d errors", len(report.Errors)))
		return
	}
	o.jobs.Update(id, func(j *job.Job) { j.Progress = 60 })
	o.appendLog(ctx, id, fmt.Sprintf("validation passed (%d warnings)", len(report.Warnings)))

	artifacts, err := firmware.Generate(doc, mapping, o.resolver, firmware.BuildSettings{Format: firmware.Both})
	if err != nil {
		o.fail(ctx, id, fmt.Sprintf("generation failed: %v", err))
		return
	}

	outDir := filepath.Join(o.cfg.OutputRoot, id)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		o.fail(ctx, id, fmt.Sprintf("creating output directory: %v", err))
		return
	}
	if err := os.WriteFile(filepath.Join(outDir, archive.MemberKeymap), artifacts.Keymap, 0o644); err != nil {
		o.fail(ctx, id, fmt.Sprintf("writing keymap: %v", err))
		return
	}
	if err := os.WriteFile(filepath.Join(outDir, archive.MemberConfig), artifacts.Config, 0o644); err != nil {
		o.fail(ctx, id, fmt.Sprintf("writing settings header: %v", err))
		return
	}
	o.jobs.Update(id, func(j *job.Job) { j.Progress = 80 })
	o.appendLog(ctx, id, "artifacts generated")

	// Checkpoint 3: after generation returns. The artifacts exist on disk
	// but a cancelled job never advertises them.
	if o.cancels.Requested(id) {
		o.finish(id, job.Cancelled, "cancelled after generation")
		o.appendLog(ctx, id, "job cancelled after generation; artifacts not published")
		return
	}

	logText, _, err := o.logs.Read(id, 0, 10000)
	if err != nil {
		logger.Warn("Could not read back job log for archiving.", "error", err)
	}

	archivePath := filepath.Join(outDir, row.BoardID+".zip")
	manifest := archive.Manifest{
		JobID:     id,
		BoardID:   row.BoardID,
		Variant:   row.Variant,
		CreatedAt: time.Now().UTC(),
	}
	err = archive.Pack(archivePath, manifest,
		archive.Member{Name: archive.MemberLayout, Data: rawLayout},
		archive.Member{Name: archive.MemberKeymap, Data: artifacts.Keymap},
		archive.Member{Name: archive.MemberConfig, Data: artifacts.Config},
		archive.Member{Name: archive.MemberLog, Data: joinLines(logText)},
	)
	if err != nil {
		o.fail(ctx, id, fmt.Sprintf("packaging archive: %v", err))
		return
	}

	if info, statErr := os.Stat(archivePath); statErr == nil {
		logger.Info("Archive packaged.", "path", archivePath, "size", humanize.Bytes(uint64(info.Size())))
	}

	o.jobs.Update(id, func(j *job.Job) {
		j.Status = job.Completed
		j.Progress = 100
		j.ArchivePath = archivePath
		j.FinishedAt = time.Now().UTC()
	})
	o.appendLog(ctx, id, "job completed: "+archivePath)
}

func (o *Orchestrator) fail(ctx context.Context, id, reason string) {
	o.finish(id, job.Failed, reason)
	o.appendLog(ctx, id, "ERROR "+reason)
}

func (o *Orchestrator) finish(id string, status job.Status, reason string) {
	o.jobs.Update(id, func(j *job.Job) {
		j.Status = status
		if status != job.Completed {
			j.Err = reason
		}
		j.FinishedAt = time.Now().UTC()
	})
}

func (o *Orchestrator) appendLog(ctx context.Context, id, line string) {
	if err := o.logs.Append(id, line); err != nil {
		ctxlog.FromContext(ctx).Error("Appending to job log failed.", "job", id, "error", err)
	}
}

func joinLines(lines []string) []byte {
	if len(lines) == 0 {
		return []byte{}
	}
	var out []byte
	for _, l := range lines {
		out = append(out, l...)
		out = append(out, '\n')
	}
	return out
}
