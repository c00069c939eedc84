package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tsmith4014/ccp-quizbot/internal/domain/questionbank"
	"github.com/tsmith4014/ccp-quizbot/internal/service"
	"github.com/tsmith4014/ccp-quizbot/internal/slack"
	"github.com/tsmith4014/ccp-quizbot/internal/store"
)

// Handler holds all dependencies needed by HTTP handlers.
// Instead of relying on package-level globals, every handler method
// receives its dependencies through this struct.
type Handler struct {
	quiz   *service.QuizService
	poster *slack.Poster
	logger *slog.Logger
}

// NewHandler creates a Handler with the given dependencies.
func NewHandler(quiz *service.QuizService, poster *slack.Poster, logger *slog.Logger) *Handler {
	return &Handler{
		quiz:   quiz,
		poster: poster,
		logger: logger,
	}
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError writes an {"error": ...} body with the given status code.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// handleQuizError maps engine errors to HTTP responses. Returns true if an
// error was handled (caller should return).
func (h *Handler) handleQuizError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusBadRequest, "Invalid session")
	case errors.Is(err, service.ErrNoSelection):
		respondError(w, http.StatusBadRequest, "No answers selected")
	case errors.Is(err, service.ErrBadSelection):
		respondError(w, http.StatusBadRequest, "Invalid answer selection")
	case errors.Is(err, questionbank.ErrInvalidRequest),
		errors.Is(err, questionbank.ErrNotEnough):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("quiz error", "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
	}
	return true
}
