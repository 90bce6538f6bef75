// Package joblog persists one append-only log file per job, named by job id,
// under a configured directory. Files survive process restart; the worker is
// the only writer, concurrent readers are fine.
package joblog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Dir manages the logs directory.
type Dir struct {
	root string
}

// Open ensures the logs directory exists and returns a handle to it.
func Open(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating logs directory %s: %w", root, err)
	}
	return &Dir{root: root}, nil
}

// Path returns the on-disk log file for a job id.
func (d *Dir) Path(jobID string) string {
	return filepath.Join(d.root, jobID+".log")
}

// Append writes one timestamped line to the job's log, creating the file on
// first use. Every line is flushed before returning so the log survives a
// crash of the process.
func (d *Dir) Append(jobID, line string) error {
	f, err := os.OpenFile(d.Path(jobID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening job log: %w", err)
	}
	defer f.Close()

	stamped := fmt.Sprintf("%s %s\n", time.Now().UTC().Format(time.RFC3339), strings.TrimRight(line, "\n"))
	if _, err := f.WriteString(stamped); err != nil {
		return fmt.Errorf("appending job log: %w", err)
	}
	return f.Sync()
}

// Appendf is Append with formatting.
func (d *Dir) Appendf(jobID, format string, args ...any) error {
	return d.Append(jobID, fmt.Sprintf(format, args...))
}

// Read returns up to limit lines starting at the zero-based line offset,
// plus the offset to pass for the next page. A limit <= 0 selects a default
// page size.
func (d *Dir) Read(jobID string, offset, limit int) ([]string, int, error) {
	const defaultLimit = 100
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	f, err := os.Open(d.Path(jobID))
	if err != nil {
		if os.IsNotExist(err) {
			// A job that never logged still has a readable, empty log.
			return nil, offset, nil
		}
		return nil, 0, fmt.Errorf("opening job log: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		if lineNo >= offset {
			lines = append(lines, scanner.Text())
			if len(lines) == limit {
				break
			}
		}
		lineNo++
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading job log: %w", err)
	}

	return lines, offset + len(lines), nil
}
