package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"member-ledger/internal/models"
	"member-ledger/internal/session"
)

// SessionTable stores sessions in the sessoes table. It implements session.Store.
type SessionTable struct {
	db  *DB
	now func() time.Time
}

var _ session.Store = (*SessionTable)(nil)

// Sessions returns the SQL-backed session store sharing db's connection.
func (db *DB) Sessions() *SessionTable {
	return &SessionTable{db: db, now: time.Now}
}

// Save creates or replaces the session identified by token.
func (s *SessionTable) Save(ctx context.Context, token string, user models.SessionUser, expiresAt time.Time) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	_, err = s.db.conn.ExecContext(ctx,
		s.db.rebind(`INSERT INTO sessoes (token, dados, expires_at) VALUES (?, ?, ?)
			ON CONFLICT (token) DO UPDATE SET dados = excluded.dados, expires_at = excluded.expires_at`),
		token, string(data), expiresAt.Unix(),
	)
	return err
}

// Load returns the payload of a live session, or session.ErrNotFound.
func (s *SessionTable) Load(ctx context.Context, token string) (*models.SessionUser, error) {
	var data string
	err := s.db.conn.GetContext(ctx, &data,
		s.db.rebind("SELECT dados FROM sessoes WHERE token = ? AND expires_at > ?"),
		token, s.now().Unix(),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, err
	}

	var user models.SessionUser
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes a session by token.
func (s *SessionTable) Delete(ctx context.Context, token string) error {
	_, err := s.db.conn.ExecContext(ctx, s.db.rebind("DELETE FROM sessoes WHERE token = ?"), token)
	return err
}

// Purge removes all expired sessions and returns how many were removed.
func (s *SessionTable) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.conn.ExecContext(ctx, s.db.rebind("DELETE FROM sessoes WHERE expires_at <= ?"), s.now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
