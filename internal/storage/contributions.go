package storage

import (
	"context"
	"fmt"
	"time"

	"member-ledger/internal/models"
)

const contributionSelect = `SELECT c.id, c.membro_id, c.tipo, c.valor, c.data, c.observacoes, m.nome AS membro_nome
	FROM contribuicoes c
	JOIN membros m ON m.id = c.membro_id`

// DateLayout is the storage format for contribution and join dates.
const DateLayout = "2006-01-02"

// ListContributions returns all contributions with their member name, newest first.
func (db *DB) ListContributions(ctx context.Context) ([]models.Contribution, error) {
	contributions := []models.Contribution{}
	if err := db.conn.SelectContext(ctx, &contributions, contributionSelect+" ORDER BY c.data DESC, c.id DESC"); err != nil {
		return nil, err
	}
	return contributions, nil
}

// CreateContribution inserts c and returns the new identifier.
// The member reference is checked by the storage engine's foreign key.
func (db *DB) CreateContribution(ctx context.Context, c *models.Contribution) (int64, error) {
	var id int64
	err := db.conn.QueryRowxContext(ctx,
		db.rebind(`INSERT INTO contribuicoes (membro_id, tipo, valor, data, observacoes)
			VALUES (?, ?, ?, ?, ?) RETURNING id`),
		c.MembroID, c.Tipo, c.Valor, c.Data, c.Observacoes,
	).Scan(&id)
	return id, err
}

// DeleteContribution removes the contribution with the given id.
func (db *DB) DeleteContribution(ctx context.Context, id int64) (int64, error) {
	res, err := db.conn.ExecContext(ctx, db.rebind("DELETE FROM contribuicoes WHERE id = ?"), id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Summary computes the dashboard figures as of now inside one transaction.
func (db *DB) Summary(ctx context.Context, now time.Time) (*models.Summary, error) {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	s := &models.Summary{Ultimas: []models.Contribution{}}

	if err := tx.GetContext(ctx, &s.TotalMembros, tx.Rebind("SELECT COUNT(*) FROM membros WHERE ativo = ?"), true); err != nil {
		return nil, fmt.Errorf("count active members: %w", err)
	}

	start, end := MonthBounds(now)
	if err := tx.GetContext(ctx, &s.TotalMes,
		tx.Rebind("SELECT COALESCE(SUM(valor), 0) FROM contribuicoes WHERE data >= ? AND data < ?"),
		start, end,
	); err != nil {
		return nil, fmt.Errorf("sum month contributions: %w", err)
	}

	if err := tx.SelectContext(ctx, &s.Ultimas, contributionSelect+" ORDER BY c.data DESC, c.id DESC LIMIT 5"); err != nil {
		return nil, fmt.Errorf("latest contributions: %w", err)
	}

	return s, nil
}

// MonthBounds returns the first day of now's month and the first day of the
// following month, both formatted with DateLayout.
func MonthBounds(now time.Time) (string, string) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.Format(DateLayout), first.AddDate(0, 1, 0).Format(DateLayout)
}
