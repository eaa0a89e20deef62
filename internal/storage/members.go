package storage

import (
	"context"
	"fmt"

	"member-ledger/internal/models"
)

const memberColumns = "id, nome, telefone, endereco, funcao, data_entrada, observacoes, ativo"

// ListMembers returns all members ordered by name.
func (db *DB) ListMembers(ctx context.Context) ([]models.Member, error) {
	members := []models.Member{}
	if err := db.conn.SelectContext(ctx, &members, "SELECT "+memberColumns+" FROM membros ORDER BY nome"); err != nil {
		return nil, err
	}
	return members, nil
}

// CreateMember inserts m and returns the new identifier.
func (db *DB) CreateMember(ctx context.Context, m *models.Member) (int64, error) {
	var id int64
	err := db.conn.QueryRowxContext(ctx,
		db.rebind(`INSERT INTO membros (nome, telefone, endereco, funcao, data_entrada, observacoes, ativo)
			VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		m.Nome, m.Telefone, m.Endereco, m.Funcao, m.DataEntrada, m.Observacoes, m.Ativo,
	).Scan(&id)
	return id, err
}

// UpdateMember rewrites every column of the member identified by m.ID.
// It returns the number of rows changed, zero when the member does not exist.
func (db *DB) UpdateMember(ctx context.Context, m *models.Member) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		db.rebind(`UPDATE membros SET nome = ?, telefone = ?, endereco = ?, funcao = ?, data_entrada = ?, observacoes = ?, ativo = ?
			WHERE id = ?`),
		m.Nome, m.Telefone, m.Endereco, m.Funcao, m.DataEntrada, m.Observacoes, m.Ativo, m.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteMember removes the member with the given id.
// Members that still own contributions are kept and ErrMemberHasContributions is returned.
func (db *DB) DeleteMember(ctx context.Context, id int64) (int64, error) {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var owned int
	if err := tx.GetContext(ctx, &owned, tx.Rebind("SELECT COUNT(*) FROM contribuicoes WHERE membro_id = ?"), id); err != nil {
		return 0, fmt.Errorf("count contributions: %w", err)
	}
	if owned > 0 {
		return 0, ErrMemberHasContributions
	}

	res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM membros WHERE id = ?"), id)
	if err != nil {
		return 0, err
	}
	changes, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return changes, tx.Commit()
}
