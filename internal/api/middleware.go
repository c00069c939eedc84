package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tsmith4014/ccp-quizbot/internal/slack"
)

// Middleware wraps an http.Handler with extra behavior.
type Middleware func(http.Handler) http.Handler

// Logging logs every request with method, path, status and duration.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}

// Recover turns panics into 500 responses instead of killing the server.
func Recover(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic in handler", "path", r.URL.Path, "panic", rec)
					respondError(w, http.StatusInternalServerError, fmt.Sprint(rec))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// VerifySignature authenticates webhook requests before any processing.
// It reads the raw body for HMAC verification and restores it so handlers
// can still parse the form. Failures respond 403 and stop the chain.
func VerifySignature(verifier *slack.Verifier, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				respondError(w, http.StatusBadRequest, "failed to read body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			timestamp := r.Header.Get(slack.HeaderTimestamp)
			signature := r.Header.Get(slack.HeaderSignature)

			if err := verifier.Verify(time.Now(), body, timestamp, signature); err != nil {
				logger.Warn("request verification failed", "path", r.URL.Path, "error", err)
				respondError(w, http.StatusForbidden, verificationMessage(err))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func verificationMessage(err error) string {
	switch {
	case errors.Is(err, slack.ErrBadTimestamp), errors.Is(err, slack.ErrStaleTimestamp):
		return "Expired"
	case errors.Is(err, slack.ErrBadSignature):
		return "Invalid signature"
	default:
		return "Unauthorized"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
