package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/tsmith4014/ccp-quizbot/internal/domain/quizsession"
)

const schema = `
CREATE TABLE IF NOT EXISTS quiz_sessions (
    user_id TEXT PRIMARY KEY,
    state   TEXT NOT NULL
);
`

// SQLiteStore keeps one row per user with the session serialized as JSON.
// Updates run inside a transaction so concurrent requests for the same
// user cannot lose writes.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, userID string) (*quizsession.Session, error) {
	var state string
	err := s.db.QueryRowContext(ctx,
		"SELECT state FROM quiz_sessions WHERE user_id = ?", userID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeSession(state)
}

func (s *SQLiteStore) Save(ctx context.Context, userID string, sess *quizsession.Session) error {
	state, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO quiz_sessions (user_id, state) VALUES (?, ?) ON CONFLICT(user_id) DO UPDATE SET state = excluded.state",
		userID, string(state))
	return err
}

func (s *SQLiteStore) Update(ctx context.Context, userID string, fn UpdateFunc) (*quizsession.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var state string
	err = tx.QueryRowContext(ctx,
		"SELECT state FROM quiz_sessions WHERE user_id = ?", userID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sess, err := decodeSession(state)
	if err != nil {
		return nil, err
	}

	if err := fn(sess); err != nil {
		return nil, err
	}

	if sess.Finished() {
		_, err = tx.ExecContext(ctx, "DELETE FROM quiz_sessions WHERE user_id = ?", userID)
	} else {
		var updated []byte
		if updated, err = json.Marshal(sess); err != nil {
			return nil, fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE quiz_sessions SET state = ? WHERE user_id = ?", string(updated), userID)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, userID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM quiz_sessions WHERE user_id = ?", userID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeSession(state string) (*quizsession.Session, error) {
	var sess quizsession.Session
	if err := json.Unmarshal([]byte(state), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}
