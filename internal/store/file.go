package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/tsmith4014/ccp-quizbot/internal/domain/quizsession"
)

// FileStore persists sessions as a single JSON record set keyed by user id.
// Cross-process mutation is serialized through a companion lock file held
// around each load/modify/save cycle; an in-process mutex serializes
// goroutines sharing the same store.
type FileStore struct {
	path string
	flk  *flock.Flock
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

const lockRetryDelay = 10 * time.Millisecond

// NewFile opens (creating if necessary) the record set at path. The lock
// file lives next to it with a .lock extension.
func NewFile(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}

	// Seed an empty record set so first reads see valid JSON.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
			return nil, fmt.Errorf("create sessions file: %w", err)
		}
	} else if err != nil {
		return nil, err
	}

	lockPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".lock"
	return &FileStore{path: path, flk: flock.New(lockPath)}, nil
}

func (f *FileStore) Get(ctx context.Context, userID string) (*quizsession.Session, error) {
	unlock, err := f.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sessions, err := f.load()
	if err != nil {
		return nil, err
	}

	s, ok := sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (f *FileStore) Save(ctx context.Context, userID string, s *quizsession.Session) error {
	unlock, err := f.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	sessions, err := f.load()
	if err != nil {
		return err
	}

	sessions[userID] = s.Clone()
	return f.save(sessions)
}

func (f *FileStore) Update(ctx context.Context, userID string, fn UpdateFunc) (*quizsession.Session, error) {
	unlock, err := f.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sessions, err := f.load()
	if err != nil {
		return nil, err
	}

	s, ok := sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}

	if err := fn(s); err != nil {
		return nil, err
	}

	if s.Finished() {
		delete(sessions, userID)
	} else {
		sessions[userID] = s
	}
	if err := f.save(sessions); err != nil {
		return nil, err
	}
	return s, nil
}

func (f *FileStore) Delete(ctx context.Context, userID string) error {
	unlock, err := f.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	sessions, err := f.load()
	if err != nil {
		return err
	}

	if _, ok := sessions[userID]; !ok {
		return ErrNotFound
	}
	delete(sessions, userID)
	return f.save(sessions)
}

func (f *FileStore) Close() error { return nil }

// acquire takes the in-process mutex and then the cross-process file lock.
func (f *FileStore) acquire(ctx context.Context) (func(), error) {
	f.mu.Lock()

	locked, err := f.flk.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		f.mu.Unlock()
		return nil, fmt.Errorf("acquire session lock: %w", err)
	}
	if !locked {
		f.mu.Unlock()
		return nil, fmt.Errorf("acquire session lock: %w", ctx.Err())
	}

	return func() {
		_ = f.flk.Unlock()
		f.mu.Unlock()
	}, nil
}

func (f *FileStore) load() (map[string]*quizsession.Session, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read sessions: %w", err)
	}

	sessions := make(map[string]*quizsession.Session)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &sessions); err != nil {
			return nil, fmt.Errorf("parse sessions: %w", err)
		}
	}
	return sessions, nil
}

// save writes through a temp file and renames, so a crash mid-write never
// leaves a truncated record set behind.
func (f *FileStore) save(sessions map[string]*quizsession.Session) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".sessions-*")
	if err != nil {
		return fmt.Errorf("write sessions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write sessions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write sessions: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write sessions: %w", err)
	}
	return nil
}
