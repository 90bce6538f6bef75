package server

import (
	"encoding/json"
	"net/http"
	"time"

	"keyforge/internal/ctxlog"
)

// errorBody is the uniform JSON error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Encoding JSON response failed.", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorBody{
		Error:   http.StatusText(status),
		Message: message,
	})
}

func parseJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// withLogging wraps a handler with request start/finish log lines.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.logger.Debug("Request started.", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)

		next(w, r.WithContext(ctxlog.WithLogger(r.Context(), s.logger)))

		s.logger.Info("Request completed.",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
