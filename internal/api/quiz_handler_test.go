package api_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tsmith4014/ccp-quizbot/internal/api"
	"github.com/tsmith4014/ccp-quizbot/internal/domain/questionbank"
	"github.com/tsmith4014/ccp-quizbot/internal/service"
	"github.com/tsmith4014/ccp-quizbot/internal/slack"
	"github.com/tsmith4014/ccp-quizbot/internal/store"
)

const signingSecret = "test-signing-secret"

// sink captures everything posted to the response_url.
type sink struct {
	mu   sync.Mutex
	msgs []slack.Message
}

func (s *sink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var msg slack.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (s *sink) messages() []slack.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]slack.Message(nil), s.msgs...)
}

type env struct {
	handler   http.Handler
	poster    *slack.Poster
	sessions  *store.MemoryStore
	sink      *sink
	sinkURL   string
	drainOnce sync.Once
}

// drain waits for queued response_url posts to finish.
func (e *env) drain() {
	e.drainOnce.Do(e.poster.Close)
}

func newEnv(t *testing.T, entries map[string]questionbank.Entry) *env {
	t.Helper()

	bank, err := questionbank.New(entries)
	if err != nil {
		t.Fatal(err)
	}

	snk := &sink{}
	sinkSrv := httptest.NewServer(snk)
	t.Cleanup(sinkSrv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := store.NewMemory()
	// One worker so posted messages keep their submission order.
	poster := slack.NewPoster(slack.NewClient(2*time.Second), logger, 1, 8)

	quizSvc := service.NewQuizService(bank, sessions, logger)
	handler := api.NewHandler(quizSvc, poster, logger)
	verifier := slack.NewVerifier(signingSecret, 5*time.Minute)

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, handler, api.VerifySignature(verifier, logger))

	e := &env{
		handler:  mux,
		poster:   poster,
		sessions: sessions,
		sink:     snk,
		sinkURL:  sinkSrv.URL,
	}
	t.Cleanup(e.drain)
	return e
}

func singleQuestion() map[string]questionbank.Entry {
	return map[string]questionbank.Entry{
		"1. Q?\nA. x\nB. y": {Answer: "a", Explanation: "because"},
	}
}

// signedPost sends a form-encoded POST with valid signature headers.
func signedPost(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	ts := fmt.Sprint(time.Now().Unix())
	req.Header.Set(slack.HeaderTimestamp, ts)
	req.Header.Set(slack.HeaderSignature,
		slack.NewVerifier(signingSecret, 5*time.Minute).Sign(ts, []byte(body)))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func startForm(e *env, text string) string {
	return url.Values{
		"text":         {text},
		"user_id":      {"U1"},
		"response_url": {e.sinkURL},
	}.Encode()
}

func interactionForm(e *env, actionID string, values ...string) string {
	opts := make([]string, len(values))
	for i, v := range values {
		opts[i] = fmt.Sprintf(`{"value": %q}`, v)
	}
	payload := fmt.Sprintf(
		`{"user": {"id": "U1"}, "response_url": %q, "actions": [{"action_id": %q, "selected_options": [%s]}]}`,
		e.sinkURL, actionID, strings.Join(opts, ","),
	)
	return url.Values{"payload": {payload}}.Encode()
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

func TestStartQuiz(t *testing.T) {
	e := newEnv(t, singleQuestion())

	rr := signedPost(t, e.handler, "/start_quiz", startForm(e, "1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body)
	}
	if !strings.Contains(rr.Body.String(), "in_channel") {
		t.Errorf("expected in_channel acknowledgment, got %s", rr.Body)
	}

	e.drain()

	msgs := e.sink.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 posted message, got %d", len(msgs))
	}
	if msgs[0].Text != "Question 1: Q?" {
		t.Errorf("unexpected first question %q", msgs[0].Text)
	}
	if msgs[0].ResponseType != "in_channel" {
		t.Errorf("expected in_channel post, got %q", msgs[0].ResponseType)
	}
}

func TestStartQuiz_DefaultsToFiveQuestions(t *testing.T) {
	entries := make(map[string]questionbank.Entry)
	for i := 0; i < 6; i++ {
		key := fmt.Sprintf("%d. Question?\nA. yes\nB. no", i+1)
		entries[key] = questionbank.Entry{Answer: "a", Explanation: "because"}
	}
	e := newEnv(t, entries)

	rr := signedPost(t, e.handler, "/start_quiz", startForm(e, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body)
	}

	sess, err := e.sessions.Get(t.Context(), "U1")
	if err != nil {
		t.Fatal(err)
	}
	if sess.NumQuestions != 5 {
		t.Errorf("expected default of 5 questions, got %d", sess.NumQuestions)
	}
}

func TestStartQuiz_Validation(t *testing.T) {
	e := newEnv(t, singleQuestion())

	tests := []struct {
		name string
		body string
	}{
		{"non-numeric count", startForm(e, "abc")},
		{"zero count", startForm(e, "0")},
		{"count exceeds bank", startForm(e, "100")},
		{"missing user", url.Values{"text": {"1"}, "response_url": {e.sinkURL}}.Encode()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := signedPost(t, e.handler, "/start_quiz", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rr.Code, rr.Body)
			}
		})
	}
}

func TestStartQuiz_RejectsBadSignatures(t *testing.T) {
	e := newEnv(t, singleQuestion())
	body := startForm(e, "1")
	verifier := slack.NewVerifier(signingSecret, 5*time.Minute)

	send := func(mutate func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/start_quiz", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		ts := fmt.Sprint(time.Now().Unix())
		req.Header.Set(slack.HeaderTimestamp, ts)
		req.Header.Set(slack.HeaderSignature, verifier.Sign(ts, []byte(body)))
		mutate(req)
		rr := httptest.NewRecorder()
		e.handler.ServeHTTP(rr, req)
		return rr
	}

	t.Run("missing headers", func(t *testing.T) {
		rr := send(func(r *http.Request) {
			r.Header.Del(slack.HeaderTimestamp)
			r.Header.Del(slack.HeaderSignature)
		})
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rr.Code)
		}
		if errorBody(t, rr) != "Unauthorized" {
			t.Errorf("unexpected error %q", errorBody(t, rr))
		}
	})

	t.Run("stale timestamp", func(t *testing.T) {
		rr := send(func(r *http.Request) {
			stale := fmt.Sprint(time.Now().Add(-10 * time.Minute).Unix())
			r.Header.Set(slack.HeaderTimestamp, stale)
			r.Header.Set(slack.HeaderSignature, verifier.Sign(stale, []byte(body)))
		})
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rr.Code)
		}
		if errorBody(t, rr) != "Expired" {
			t.Errorf("unexpected error %q", errorBody(t, rr))
		}
	})

	t.Run("tampered signature", func(t *testing.T) {
		rr := send(func(r *http.Request) {
			r.Header.Set(slack.HeaderSignature, "v0=deadbeef")
		})
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rr.Code)
		}
		if errorBody(t, rr) != "Invalid signature" {
			t.Errorf("unexpected error %q", errorBody(t, rr))
		}
	})

	// None of the rejected requests may have created a session.
	if _, err := e.sessions.Get(t.Context(), "U1"); err == nil {
		t.Error("rejected request created a session")
	}
}

func TestSlackEvents_FullQuiz(t *testing.T) {
	e := newEnv(t, singleQuestion())

	if rr := signedPost(t, e.handler, "/start_quiz", startForm(e, "1")); rr.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", rr.Code, rr.Body)
	}

	rr := signedPost(t, e.handler, "/slack/events",
		interactionForm(e, "select_answer_a1b2c3d4", "1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("select: expected 200, got %d: %s", rr.Code, rr.Body)
	}

	rr = signedPost(t, e.handler, "/slack/events", interactionForm(e, slack.ActionSubmit))
	if rr.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d: %s", rr.Code, rr.Body)
	}

	e.drain()

	msgs := e.sink.messages()
	if len(msgs) != 2 {
		t.Fatalf("expected question + completion, got %d messages", len(msgs))
	}

	final := msgs[1]
	if !final.ReplaceOriginal {
		t.Error("expected completion to replace the original message")
	}
	if !strings.Contains(final.Text, "That's correct!") {
		t.Errorf("expected feedback in completion, got %q", final.Text)
	}
	if !strings.Contains(final.Text, "Quiz completed! Your score is 1/1.") {
		t.Errorf("unexpected completion text %q", final.Text)
	}

	// Completed sessions are gone; a second submit is an invalid session.
	rr = signedPost(t, e.handler, "/slack/events", interactionForm(e, slack.ActionSubmit))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 after completion, got %d", rr.Code)
	}
	if errorBody(t, rr) != "Invalid session" {
		t.Errorf("unexpected error %q", errorBody(t, rr))
	}
}

func TestSlackEvents_IncorrectAnswerShowsNextQuestion(t *testing.T) {
	entries := map[string]questionbank.Entry{
		"1. First?\nA. x\nB. y":  {Answer: "a", Explanation: "first"},
		"2. Second?\nA. x\nB. y": {Answer: "a", Explanation: "second"},
	}
	e := newEnv(t, entries)

	if rr := signedPost(t, e.handler, "/start_quiz", startForm(e, "2")); rr.Code != http.StatusOK {
		t.Fatalf("start: %d: %s", rr.Code, rr.Body)
	}
	signedPost(t, e.handler, "/slack/events", interactionForm(e, "select_answer_x", "2"))
	signedPost(t, e.handler, "/slack/events", interactionForm(e, slack.ActionSubmit))

	e.drain()

	msgs := e.sink.messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}

	next := msgs[1]
	if !next.ReplaceOriginal {
		t.Error("expected next question to replace the original message")
	}
	if !strings.HasPrefix(next.Text, "Question 2: ") {
		t.Errorf("expected next question fallback text, got %q", next.Text)
	}
	if next.Blocks[0].Text == nil ||
		!strings.Contains(next.Blocks[0].Text.Text, "That's incorrect. Correct answer: A") {
		t.Errorf("expected incorrect feedback block, got %+v", next.Blocks[0])
	}
}

func TestSlackEvents_Validation(t *testing.T) {
	e := newEnv(t, singleQuestion())

	t.Run("no session", func(t *testing.T) {
		rr := signedPost(t, e.handler, "/slack/events", interactionForm(e, slack.ActionSubmit))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rr.Code)
		}
		if errorBody(t, rr) != "Invalid session" {
			t.Errorf("unexpected error %q", errorBody(t, rr))
		}
	})

	t.Run("empty selection", func(t *testing.T) {
		if rr := signedPost(t, e.handler, "/start_quiz", startForm(e, "1")); rr.Code != http.StatusOK {
			t.Fatalf("start: %d", rr.Code)
		}
		rr := signedPost(t, e.handler, "/slack/events", interactionForm(e, slack.ActionSubmit))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rr.Code)
		}
		if errorBody(t, rr) != "No answers selected" {
			t.Errorf("unexpected error %q", errorBody(t, rr))
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		rr := signedPost(t, e.handler, "/slack/events", url.Values{"payload": {"{"}}.Encode())
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		rr := signedPost(t, e.handler, "/slack/events", interactionForm(e, "something_else"))
		if rr.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "unknown action") {
			t.Errorf("unexpected body %s", rr.Body)
		}
	})
}

func TestHealth(t *testing.T) {
	e := newEnv(t, singleQuestion())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}
