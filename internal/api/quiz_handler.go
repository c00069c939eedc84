package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tsmith4014/ccp-quizbot/internal/slack"
)

const defaultQuestionCount = 5

// POST /start_quiz
//
// Slash-command entry point. Acknowledges within Slack's deadline and
// posts the first question to the response_url asynchronously.
func (h *Handler) startQuiz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	userID := r.PostFormValue("user_id")
	responseURL := r.PostFormValue("response_url")
	if userID == "" || responseURL == "" {
		respondError(w, http.StatusBadRequest, "user_id and response_url are required")
		return
	}

	n := defaultQuestionCount
	if text := strings.TrimSpace(r.PostFormValue("text")); text != "" {
		parsed, err := strconv.Atoi(text)
		if err != nil {
			respondError(w, http.StatusBadRequest, "question count must be a number")
			return
		}
		n = parsed
	}

	prompt, err := h.quiz.Start(ctx, userID, n)
	if h.handleQuizError(w, err) {
		return
	}

	h.poster.Post(userID, responseURL,
		slack.QuestionMessage(prompt.Number, prompt.Text, prompt.Options, ""))

	respondJSON(w, http.StatusOK, map[string]string{"response_type": "in_channel"})
}

// POST /slack/events
//
// Interactive callback entry point: checkbox selections and submit clicks.
func (h *Handler) slackEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	payload, err := slack.ParseInteraction(r.PostFormValue("payload"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	userID := payload.User.ID
	action := payload.Actions[0]

	switch {
	case slack.IsSelectAction(action.ActionID):
		err := h.quiz.RecordSelection(ctx, userID, action.SelectedValues())
		if h.handleQuizError(w, err) {
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	case action.ActionID == slack.ActionSubmit:
		result, err := h.quiz.Submit(ctx, userID)
		if h.handleQuizError(w, err) {
			return
		}

		feedback := slack.FeedbackText(result.Correct, result.CorrectAnswers, result.Explanation)

		var msg slack.Message
		if result.Completed() {
			msg = slack.CompletionMessage(feedback, result.Score, result.Total)
		} else {
			next := result.Next
			msg = slack.QuestionMessage(next.Number, next.Text, next.Options, feedback)
		}
		h.poster.Post(userID, payload.ResponseURL, msg)

		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	default:
		respondJSON(w, http.StatusOK, map[string]string{"status": "unknown action"})
	}
}
