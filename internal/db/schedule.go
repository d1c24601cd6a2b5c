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

type hoursRow struct {
	PartnerID   uuid.UUID      `db:"partner_id"`
	DayOfWeek   int            `db:"day_of_week"`
	IsOpen      bool           `db:"is_open"`
	OpeningTime sql.NullString `db:"opening_time"`
	ClosingTime sql.NullString `db:"closing_time"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r hoursRow) toModel() (model.OperatingHours, error) {
	h := model.OperatingHours{
		PartnerID: r.PartnerID,
		DayOfWeek: model.DayOfWeek(r.DayOfWeek),
		IsOpen:    r.IsOpen,
		UpdatedAt: r.UpdatedAt,
	}
	if r.OpeningTime.Valid {
		t, err := model.ParseClockTime(r.OpeningTime.String)
		if err != nil {
			return h, fmt.Errorf("partner %s %s opening_time: %w", r.PartnerID, h.DayOfWeek, err)
		}
		h.OpeningTime = &t
	}
	if r.ClosingTime.Valid {
		t, err := model.ParseClockTime(r.ClosingTime.String)
		if err != nil {
			return h, fmt.Errorf("partner %s %s closing_time: %w", r.PartnerID, h.DayOfWeek, err)
		}
		h.ClosingTime = &t
	}
	return h, nil
}

func clockValue(c *model.ClockTime) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: c.String(), Valid: true}
}

// FindScheduleEntries returns a partner's weekly entries ordered Monday..Sunday.
func (db *DB) FindScheduleEntries(ctx context.Context, partnerID uuid.UUID) ([]model.OperatingHours, error) {
	var rows []hoursRow
	err := db.SelectContext(ctx, &rows, db.Rebind(`
		SELECT partner_id, day_of_week, is_open, opening_time, closing_time, updated_at
		FROM operating_hours
		WHERE partner_id = ?
		ORDER BY day_of_week`), partnerID)
	if err != nil {
		return nil, fmt.Errorf("list schedule for %s: %w", partnerID, err)
	}

	entries := make([]model.OperatingHours, 0, len(rows))
	for _, r := range rows {
		h, err := r.toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, h)
	}
	return entries, nil
}

// FindEntry returns nil, nil when no entry exists for the day.
func (db *DB) FindEntry(ctx context.Context, partnerID uuid.UUID, day model.DayOfWeek) (*model.OperatingHours, error) {
	var row hoursRow
	err := db.GetContext(ctx, &row, db.Rebind(`
		SELECT partner_id, day_of_week, is_open, opening_time, closing_time, updated_at
		FROM operating_hours
		WHERE partner_id = ? AND day_of_week = ?`), partnerID, int(day))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule for %s %s: %w", partnerID, day, err)
	}

	h, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// UpsertEntries creates or replaces entries keyed by (partner, day) in one transaction.
func (db *DB) UpsertEntries(ctx context.Context, entries []model.OperatingHours) error {
	if len(entries) == 0 {
		return nil
	}

	now := time.Now().UTC()
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		for i := range entries {
			if err := upsertEntry(ctx, tx, &entries[i], now); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertEntry(ctx context.Context, tx *sqlx.Tx, h *model.OperatingHours, now time.Time) error {
	if !h.DayOfWeek.Valid() {
		return fmt.Errorf("invalid day of week %d", int(h.DayOfWeek))
	}

	_, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO operating_hours (partner_id, day_of_week, is_open, opening_time, closing_time, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(partner_id, day_of_week) DO UPDATE SET
			is_open = excluded.is_open,
			opening_time = excluded.opening_time,
			closing_time = excluded.closing_time,
			updated_at = excluded.updated_at`),
		h.PartnerID, int(h.DayOfWeek), h.IsOpen, clockValue(h.OpeningTime), clockValue(h.ClosingTime), now,
	)
	if err != nil {
		return fmt.Errorf("upsert schedule for %s %s: %w", h.PartnerID, h.DayOfWeek, err)
	}
	h.UpdatedAt = now
	return nil
}

// ScheduleRow is a joined partner and entry, used for exports.
type ScheduleRow struct {
	Partner model.Partner
	Hours   model.OperatingHours
}

// ListAllSchedules returns every stored entry with its partner, ordered by partner name and day.
func (db *DB) ListAllSchedules(ctx context.Context) ([]ScheduleRow, error) {
	type joined struct {
		partnerRow
		Hours hoursRow `db:"h"`
	}

	var rows []joined
	err := db.SelectContext(ctx, &rows, `
		SELECT p.id, p.name, p.manually_open, p.created_at, p.updated_at,
		       h.partner_id AS "h.partner_id", h.day_of_week AS "h.day_of_week",
		       h.is_open AS "h.is_open", h.opening_time AS "h.opening_time",
		       h.closing_time AS "h.closing_time", h.updated_at AS "h.updated_at"
		FROM operating_hours h
		JOIN partners p ON p.id = h.partner_id
		ORDER BY p.name, p.id, h.day_of_week`)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	out := make([]ScheduleRow, 0, len(rows))
	for _, r := range rows {
		h, err := r.Hours.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, ScheduleRow{Partner: r.partnerRow.toModel(), Hours: h})
	}
	return out, nil
}
