package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"goeat/internal/config"
	"goeat/internal/model"
)

// SyncPartnersFromConfig applies partners.yaml to the database.
// Names follow the file. The manual flag and the schedule are seeded only for
// partners that do not have them yet, so edits made through the API survive
// restarts and reloads. Partners missing from the file are left alone.
func (db *DB) SyncPartnersFromConfig(ctx context.Context, cfg *config.PartnersConfig) error {
	if cfg == nil {
		return fmt.Errorf("partners config is nil")
	}

	now := time.Now().UTC()
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, pc := range cfg.Partners {
			id, err := uuid.Parse(pc.ID)
			if err != nil {
				return fmt.Errorf("sync partner %s: %w", pc.ID, err)
			}

			if err := syncPartnerRow(ctx, tx, id, pc, now); err != nil {
				return err
			}

			entries, err := scheduleFromConfig(id, pc.Schedule)
			if err != nil {
				return fmt.Errorf("sync partner %s schedule: %w", id, err)
			}
			if len(entries) == 0 {
				continue
			}
			var stored int
			if err := tx.GetContext(ctx, &stored, tx.Rebind(
				`SELECT COUNT(*) FROM operating_hours WHERE partner_id = ?`), id); err != nil {
				return fmt.Errorf("count schedule for %s: %w", id, err)
			}
			if stored > 0 {
				continue
			}
			for i := range entries {
				if err := upsertEntry(ctx, tx, &entries[i], now); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func syncPartnerRow(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, pc config.PartnerConfig, now time.Time) error {
	// manually_open and created_at are written on insert only.
	_, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO partners (id, name, manually_open, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at`),
		id, pc.Name, nullableBool(pc.ManuallyOpen), now, now,
	)
	if err != nil {
		return fmt.Errorf("sync partner %s: %w", id, err)
	}

	return nil
}

func nullableBool(b *bool) interface{} {
	if b == nil {
		return nil
	}
	return *b
}

func scheduleFromConfig(partnerID uuid.UUID, days []config.DayScheduleConfig) ([]model.OperatingHours, error) {
	entries := make([]model.OperatingHours, 0, len(days))
	for _, d := range days {
		day, err := model.ParseDayOfWeek(strings.TrimSpace(d.Day))
		if err != nil {
			return nil, err
		}
		h := model.OperatingHours{PartnerID: partnerID, DayOfWeek: day, IsOpen: d.IsOpen}
		if d.OpeningTime != "" {
			t, err := model.ParseClockTime(d.OpeningTime)
			if err != nil {
				return nil, fmt.Errorf("%s opening_time: %w", day, err)
			}
			h.OpeningTime = &t
		}
		if d.ClosingTime != "" {
			t, err := model.ParseClockTime(d.ClosingTime)
			if err != nil {
				return nil, fmt.Errorf("%s closing_time: %w", day, err)
			}
			h.ClosingTime = &t
		}
		entries = append(entries, h)
	}
	return entries, nil
}
