package storage

import (
	"context"
	"database/sql"
	"errors"

	"member-ledger/internal/models"
)

const userColumns = "id, username, senha_hash, perfil, ativo"

// CreateUser creates a new active user with the given username, password hash and profile label.
func (db *DB) CreateUser(ctx context.Context, username, passwordHash, perfil string) (*models.User, error) {
	if perfil == "" {
		perfil = "admin"
	}

	var id int64
	err := db.conn.QueryRowxContext(ctx,
		db.rebind("INSERT INTO usuarios (username, senha_hash, perfil, ativo) VALUES (?, ?, ?, ?) RETURNING id"),
		username, passwordHash, perfil, true,
	).Scan(&id)
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		Perfil:       perfil,
		Ativo:        true,
	}, nil
}

// GetUserByUsername retrieves a user by username regardless of its active flag.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.getUser(ctx, "SELECT "+userColumns+" FROM usuarios WHERE username = ?", username)
}

// GetActiveUserByUsername retrieves an active user by username.
func (db *DB) GetActiveUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.getUser(ctx, "SELECT "+userColumns+" FROM usuarios WHERE username = ? AND ativo = ?", username, true)
}

func (db *DB) getUser(ctx context.Context, query string, args ...any) (*models.User, error) {
	var u models.User
	if err := db.conn.GetContext(ctx, &u, db.rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// SetUserActive enables or disables a user account.
func (db *DB) SetUserActive(ctx context.Context, username string, active bool) (int64, error) {
	res, err := db.conn.ExecContext(ctx, db.rebind("UPDATE usuarios SET ativo = ? WHERE username = ?"), active, username)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	err := db.conn.GetContext(ctx, &count, "SELECT COUNT(*) FROM usuarios")
	return count, err
}

// EnsureAdmin creates the given user when no user exists yet.
// It reports whether a user was created.
func (db *DB) EnsureAdmin(ctx context.Context, username, passwordHash string) (bool, error) {
	count, err := db.UserCount(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if _, err := db.CreateUser(ctx, username, passwordHash, "admin"); err != nil {
		return false, err
	}
	return true, nil
}
