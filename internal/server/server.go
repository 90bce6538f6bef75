// Package server exposes the job orchestrator over HTTP: start a job, poll
// its status, page through its log, request cancellation, download the
// archive, and a health probe.
//
// Start-time refusals map to 4xx responses; anything that goes wrong after a
// job was accepted surfaces only through the job's own status and log.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"keyforge/internal/job"
	"keyforge/internal/orchestrator"
)

// Server is the HTTP facade over one orchestrator.
type Server struct {
	orch   *orchestrator.Orchestrator
	logger *slog.Logger
}

// New creates the HTTP facade.
func New(orch *orchestrator.Orchestrator, logger *slog.Logger) *Server {
	return &Server{orch: orch, logger: logger}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /jobs", s.withLogging(s.handleStartJob))
	mux.HandleFunc("GET /jobs", s.withLogging(s.handleListJobs))
	mux.HandleFunc("GET /jobs/{id}", s.withLogging(s.handleGetJob))
	mux.HandleFunc("GET /jobs/{id}/logs", s.withLogging(s.handleGetLogs))
	mux.HandleFunc("POST /jobs/{id}/cancel", s.withLogging(s.handleCancelJob))
	mux.HandleFunc("GET /jobs/{id}/archive", s.withLogging(s.handleDownloadArchive))

	return mux
}

type startJobRequest struct {
	LayoutPath string `json:"layout_path"`
	BoardID    string `json:"board_id"`
	Variant    string `json:"variant,omitempty"`
}

// jobResponse is the wire form of a job row.
type jobResponse struct {
	ID         string     `json:"id"`
	BoardID    string     `json:"board_id"`
	Variant    string     `json:"variant,omitempty"`
	LayoutPath string     `json:"layout_path"`
	Status     string     `json:"status"`
	Progress   int        `json:"progress"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func toJobResponse(j job.Job) jobResponse {
	resp := jobResponse{
		ID:         j.ID,
		BoardID:    j.BoardID,
		Variant:    j.Variant,
		LayoutPath: j.LayoutPath,
		Status:     string(j.Status),
		Progress:   j.Progress,
		Error:      j.Err,
		CreatedAt:  j.CreatedAt,
	}
	if !j.StartedAt.IsZero() {
		t := j.StartedAt
		resp.StartedAt = &t
	}
	if !j.FinishedAt.IsZero() {
		t := j.FinishedAt
		resp.FinishedAt = &t
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"running": s.orch.RunningCount(),
	})
}

func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	var req startJobRequest
	if err := parseJSONBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.LayoutPath == "" || req.BoardID == "" {
		s.writeError(w, http.StatusBadRequest, "layout_path and board_id are required")
		return
	}

	row, err := s.orch.Start(req.LayoutPath, req.BoardID, req.Variant)
	switch {
	case errors.Is(err, orchestrator.ErrBusy):
		s.writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, orchestrator.ErrNoToolchain):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// A row that failed at dispatch is still a successful start call; the
	// failure detail lives in the job's status and log.
	s.writeJSON(w, http.StatusAccepted, toJobResponse(row))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	rows := s.orch.Jobs()
	out := make([]jobResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toJobResponse(row))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	row, ok := s.orch.Job(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown job id")
		return
	}
	s.writeJSON(w, http.StatusOK, toJobResponse(row))
}

func (s *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 0)

	lines, next, err := s.orch.Logs(r.PathValue("id"), offset, limit)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"lines":       lines,
		"next_offset": next,
	})
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.orch.Cancel(id) {
		s.writeError(w, http.StatusConflict, "job is unknown or already finished")
		return
	}
	row, _ := s.orch.Job(id)
	s.writeJSON(w, http.StatusAccepted, toJobResponse(row))
}

func (s *Server) handleDownloadArchive(w http.ResponseWriter, r *http.Request) {
	path, err := s.orch.Archive(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	http.ServeFile(w, r, path)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
