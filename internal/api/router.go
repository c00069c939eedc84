package api

import "net/http"

// RegisterRoutes mounts the webhook endpoints. Both Slack routes go
// through the signature-verification middleware; the health probe does not.
func RegisterRoutes(mux *http.ServeMux, h *Handler, verify Middleware) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.Handle("POST /start_quiz", verify(http.HandlerFunc(h.startQuiz)))
	mux.Handle("POST /slack/events", verify(http.HandlerFunc(h.slackEvents)))
}
