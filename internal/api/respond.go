package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/pai-course/internal/ai"
	"github.com/p-n-ai/pai-course/internal/auth"
	"github.com/p-n-ai/pai-course/internal/comprehension"
	"github.com/p-n-ai/pai-course/internal/course"
	"github.com/p-n-ai/pai-course/internal/progress"
)

const maxJSONBody = 1 << 20

// Messages returned for failures that hide the underlying error.
const (
	msgNotFound         = "Not found"
	msgGenerationFailed = "AI generation failed"
	msgQuizFailed       = "Quiz generation failed"
	msgInternal         = "Internal server error"
	msgBudgetExceeded   = "AI token budget exceeded"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// respondError maps service errors to a status code. fallbackStatus and
// fallbackMsg are used for anything unrecognised.
func respondError(w http.ResponseWriter, r *http.Request, err error, fallbackStatus int, fallbackMsg string) {
	switch {
	case errors.Is(err, ai.ErrBudgetExceeded):
		writeError(w, http.StatusTooManyRequests, msgBudgetExceeded)
	case errors.Is(err, course.ErrNotFound), errors.Is(err, auth.ErrUserNotFound):
		writeError(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "Email already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, progress.ErrLengthMismatch),
		errors.Is(err, progress.ErrNoAnswers),
		errors.Is(err, comprehension.ErrEmptyQuestion),
		errors.Is(err, comprehension.ErrEmptyText),
		errors.Is(err, comprehension.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, fallbackStatus, fallbackMsg)
	}
}
