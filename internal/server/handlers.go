package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/agbru/fractree/internal/errors"
	"github.com/agbru/fractree/internal/fractal"
	"github.com/agbru/fractree/internal/logging"
	"github.com/agbru/fractree/internal/service"
	"github.com/agbru/fractree/pkg/models"
)

// maxRequestWorkers bounds the workers query parameter.
const maxRequestWorkers = 1024

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// handleGenerate runs one generation described by the query string and
// returns its summary. Branches are never sent.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.parseGenerateParams(r)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()

	summary, err := s.service.Generate(ctx, cfg)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("generation failed", err, logging.String("request_id", middleware.GetReqID(r.Context())))
		}
		s.writeErrorResponse(w, status, err.Error())
		return
	}
	s.writeJSONResponse(w, http.StatusOK, summary)
}

// statusForError maps generation errors to HTTP statuses.
func statusForError(err error) int {
	var verr apperrors.ValidationError
	switch {
	case apperrors.IsInvalidParameters(err), errors.As(err, &verr), errors.Is(err, service.ErrMaxBranchesExceeded):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// parseGenerateParams reads trunk_length, ratio, angle, min_length and
// workers from the query string. Missing parameters keep the server
// defaults; malformed ones are a ValidationError.
func (s *Server) parseGenerateParams(r *http.Request) (fractal.Config, error) {
	cfg := s.cfg.Generation()
	q := r.URL.Query()

	floats := []struct {
		name string
		dst  *float64
	}{
		{"trunk_length", &cfg.TrunkLength},
		{"ratio", &cfg.LengthRatio},
		{"angle", &cfg.BranchAngleDegrees},
		{"min_length", &cfg.MinLength},
	}
	for _, f := range floats {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return cfg, apperrors.NewValidationError(f.name, "must be a number", raw)
		}
		*f.dst = v
	}

	if raw := q.Get("workers"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v > maxRequestWorkers {
			return cfg, apperrors.NewValidationError("workers", "must be an integer between 0 and 1024", raw)
		}
		cfg.Workers = v
	}
	return cfg, nil
}

// writeJSONResponse writes data as JSON with the given status.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", err)
	}
}

// writeErrorResponse writes a standardized error body.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// loggingMiddleware logs each request with its id, status and duration.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			logging.String("request_id", middleware.GetReqID(r.Context())),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", statusOf(ww)),
			logging.Duration("duration", time.Since(start)))
	})
}
