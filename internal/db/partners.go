package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"goeat/internal/model"
)

type partnerRow struct {
	ID           uuid.UUID    `db:"id"`
	Name         string       `db:"name"`
	ManuallyOpen sql.NullBool `db:"manually_open"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (r partnerRow) toModel() model.Partner {
	p := model.Partner{
		ID:        r.ID,
		Name:      r.Name,
		Manual:    model.ManualUnset,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.ManuallyOpen.Valid {
		p.Manual = model.ManualStatusOf(r.ManuallyOpen.Bool)
	}
	return p
}

func manualValue(s model.ManualStatus) sql.NullBool {
	switch s {
	case model.ManualOpen:
		return sql.NullBool{Bool: true, Valid: true}
	case model.ManualClosed:
		return sql.NullBool{Bool: false, Valid: true}
	default:
		return sql.NullBool{}
	}
}

// CreatePartner inserts a newly registered partner. Registration defaults to open.
func (db *DB) CreatePartner(ctx context.Context, p *model.Partner) error {
	if p == nil {
		return fmt.Errorf("partner is nil")
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Manual == model.ManualUnset {
		p.Manual = model.ManualOpen
	}

	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, db.Rebind(`
		INSERT INTO partners (id, name, manually_open, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`),
		p.ID, p.Name, manualValue(p.Manual), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert partner %s: %w", p.ID, err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// FindPartner returns nil, nil when the partner does not exist.
func (db *DB) FindPartner(ctx context.Context, id uuid.UUID) (*model.Partner, error) {
	var row partnerRow
	err := db.GetContext(ctx, &row, db.Rebind(`
		SELECT id, name, manually_open, created_at, updated_at
		FROM partners WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get partner %s: %w", id, err)
	}
	p := row.toModel()
	return &p, nil
}

// ListPartners returns all partners ordered by name.
func (db *DB) ListPartners(ctx context.Context) ([]model.Partner, error) {
	var rows []partnerRow
	err := db.SelectContext(ctx, &rows, `
		SELECT id, name, manually_open, created_at, updated_at
		FROM partners ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}

	partners := make([]model.Partner, 0, len(rows))
	for _, r := range rows {
		partners = append(partners, r.toModel())
	}
	return partners, nil
}

// SaveManualFlag persists an explicit manual status for one partner.
func (db *DB) SaveManualFlag(ctx context.Context, id uuid.UUID, open bool) error {
	_, err := db.ExecContext(ctx, db.Rebind(
		`UPDATE partners SET manually_open = ?, updated_at = ? WHERE id = ?`),
		open, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update manual flag for %s: %w", id, err)
	}
	return nil
}

// FillUnsetManualFlags sets open on every listed partner whose flag is still NULL,
// in one transaction, and returns how many rows changed. Rows that gained an
// explicit flag since they were listed are left alone.
func (db *DB) FillUnsetManualFlags(ctx context.Context, ids []uuid.UUID, open bool) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	query := db.Rebind(`UPDATE partners SET manually_open = ?, updated_at = ? WHERE id = ? AND manually_open IS NULL`)
	filled := 0
	err := db.inTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, query)
		if err != nil {
			return fmt.Errorf("prepare manual flag update: %w", err)
		}
		defer stmt.Close()

		for _, id := range ids {
			res, err := stmt.ExecContext(ctx, open, now, id)
			if err != nil {
				return fmt.Errorf("update manual flag for %s: %w", id, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected for %s: %w", id, err)
			}
			filled += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return filled, nil
}
