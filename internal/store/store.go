package store

import (
	"context"
	"errors"

	"github.com/tsmith4014/ccp-quizbot/internal/domain/quizsession"
)

var ErrNotFound = errors.New("not found")

// UpdateFunc mutates a session inside a transactional update. Returning an
// error aborts the update without persisting anything.
type UpdateFunc func(*quizsession.Session) error

// Store persists at most one quiz session per user id.
//
// Update is the read-modify-write primitive: implementations load the
// user's session, apply fn, and persist the result atomically with respect
// to other callers (and, for the file store, other processes). A session
// that fn leaves in the finished state is removed instead of saved, so
// completion and cleanup happen under the same lock.
type Store interface {
	Get(ctx context.Context, userID string) (*quizsession.Session, error)
	Save(ctx context.Context, userID string, s *quizsession.Session) error
	Update(ctx context.Context, userID string, fn UpdateFunc) (*quizsession.Session, error)
	Delete(ctx context.Context, userID string) error
	Close() error
}
