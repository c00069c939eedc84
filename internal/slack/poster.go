package slack

import (
	"context"
	"log/slog"

	"github.com/tsmith4014/ccp-quizbot/internal/worker"
)

// Poster delivers messages to response_urls off the request goroutine, so
// handlers can acknowledge Slack within its 3-second deadline. Delivery
// failures are terminal: they are logged, never retried.
type Poster struct {
	client *Client
	pool   *worker.Pool[error]
	logger *slog.Logger
	done   chan struct{}
}

func NewPoster(client *Client, logger *slog.Logger, workers, buffer int) *Poster {
	p := &Poster{
		client: client,
		pool:   worker.NewPool[error](workers, buffer),
		logger: logger,
		done:   make(chan struct{}),
	}
	go p.drain()
	return p
}

// Post queues a message for delivery. The label (typically the user id)
// only identifies the job in logs.
func (p *Poster) Post(label, responseURL string, msg Message) {
	p.pool.Submit(label, func() error {
		// Delivery runs after the originating HTTP request has been
		// acknowledged, so it must not inherit that request's context.
		return p.client.Post(context.Background(), responseURL, msg)
	})
}

func (p *Poster) drain() {
	defer close(p.done)
	for res := range p.pool.Results() {
		if res.Output != nil {
			p.logger.Error("failed to post reply", "user_id", res.JobID, "error", res.Output)
		}
	}
}

// Close finishes queued deliveries and stops the pool.
func (p *Poster) Close() {
	p.pool.Stop()
	<-p.done
}
