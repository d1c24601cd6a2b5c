// Package hours resolves whether a partner is open right now and edits
// weekly schedules, keeping the open-status cache consistent with writes.
package hours

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"goeat/internal/metrics"
	"goeat/internal/model"
)

// PartnerStore reads partners and writes their manual status.
type PartnerStore interface {
	FindPartner(ctx context.Context, id uuid.UUID) (*model.Partner, error)
	SaveManualFlag(ctx context.Context, id uuid.UUID, open bool) error
}

// ScheduleStore persists weekly schedule entries.
type ScheduleStore interface {
	FindScheduleEntries(ctx context.Context, partnerID uuid.UUID) ([]model.OperatingHours, error)
	FindEntry(ctx context.Context, partnerID uuid.UUID, day model.DayOfWeek) (*model.OperatingHours, error)
	UpsertEntries(ctx context.Context, entries []model.OperatingHours) error
}

// Store is everything Service needs from persistence.
type Store interface {
	PartnerStore
	ScheduleStore
}

// DayInput is one day of an edit request, times as "HH:MM".
type DayInput struct {
	DayOfWeek   string
	IsOpen      bool
	OpeningTime string
	ClosingTime string
}

// FullStatus is a partner's schedule plus live status.
type FullStatus struct {
	Schedules    []model.OperatingHours
	IsOpenNow    bool
	ManuallyOpen bool
}

// PartnerStatus is the combined status shown to customers.
type PartnerStatus struct {
	IsOpenNow      bool
	IsScheduleOpen bool
	IsManuallyOpen bool
}

type Service struct {
	store  Store
	cache  StatusCache
	clock  Clock
	logger zerolog.Logger
}

func NewService(store Store, cache StatusCache, clock Clock, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		clock:  clock,
		logger: logger.With().Str("component", "hours").Logger(),
	}
}

// IsPartnerOpenNow answers from cache when possible, otherwise evaluates the
// manual flag and today's entry and caches the result, negative ones included.
func (s *Service) IsPartnerOpenNow(ctx context.Context, partnerID uuid.UUID) (bool, error) {
	isOpen, ok, err := s.cache.Get(ctx, partnerID)
	switch {
	case err != nil:
		metrics.IncCacheLookup("error")
		s.logger.Warn().Err(err).Str("partner_id", partnerID.String()).Msg("open status cache read failed")
	case ok:
		metrics.IncCacheLookup("hit")
		return isOpen, nil
	default:
		metrics.IncCacheLookup("miss")
	}

	partner, err := s.store.FindPartner(ctx, partnerID)
	if err != nil {
		return false, fmt.Errorf("load partner %s: %w", partnerID, err)
	}
	if partner == nil {
		return false, ErrPartnerNotFound
	}

	if !partner.ManuallyOpen() {
		return s.remember(ctx, partnerID, false, "manual_closed"), nil
	}

	now := s.clock.Now()
	day := model.DayOfWeekOf(now)
	timeOfDay := model.ClockTimeOf(now)

	entry, err := s.store.FindEntry(ctx, partnerID, day)
	if err != nil {
		return false, fmt.Errorf("load %s schedule for %s: %w", day, partnerID, err)
	}

	switch {
	case entry == nil:
		return s.remember(ctx, partnerID, false, "no_entry"), nil
	case !entry.IsOpen:
		return s.remember(ctx, partnerID, false, "day_closed"), nil
	case entry.OpeningTime == nil || entry.ClosingTime == nil:
		return s.remember(ctx, partnerID, false, "missing_times"), nil
	}

	open := entry.Contains(timeOfDay)
	reason := "outside_hours"
	if open {
		reason = "within_hours"
	}
	return s.remember(ctx, partnerID, open, reason), nil
}

func (s *Service) remember(ctx context.Context, partnerID uuid.UUID, isOpen bool, reason string) bool {
	metrics.IncStatusResolution(reason)
	if err := s.cache.Put(ctx, partnerID, isOpen); err != nil {
		s.logger.Warn().Err(err).Str("partner_id", partnerID.String()).Msg("open status cache write failed")
	}
	return isOpen
}

// GetFullStatus returns the schedule Monday..Sunday, creating the default
// schedule on first access.
func (s *Service) GetFullStatus(ctx context.Context, partnerID uuid.UUID) (*FullStatus, error) {
	partner, err := s.requirePartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.FindScheduleEntries(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("load schedule for %s: %w", partnerID, err)
	}

	if len(entries) == 0 {
		entries = model.DefaultWeeklySchedule(partnerID)
		if err := s.store.UpsertEntries(ctx, entries); err != nil {
			return nil, fmt.Errorf("create default schedule for %s: %w", partnerID, err)
		}
		if err := s.cache.Invalidate(ctx, partnerID); err != nil {
			return nil, fmt.Errorf("invalidate open status for %s: %w", partnerID, err)
		}
		s.logger.Info().Str("partner_id", partnerID.String()).Msg("default schedule created")
	}

	isOpenNow, err := s.IsPartnerOpenNow(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	return &FullStatus{
		Schedules:    sortedByDay(entries),
		IsOpenNow:    isOpenNow,
		ManuallyOpen: partner.ManuallyOpen(),
	}, nil
}

// ReplaceSchedule upserts every submitted day in one batch. Days not
// submitted keep their stored entries.
func (s *Service) ReplaceSchedule(ctx context.Context, partnerID uuid.UUID, days []DayInput) (*FullStatus, error) {
	if _, err := s.requirePartner(ctx, partnerID); err != nil {
		return nil, err
	}

	existing, err := s.store.FindScheduleEntries(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("load schedule for %s: %w", partnerID, err)
	}
	byDay := make(map[model.DayOfWeek]model.OperatingHours, len(existing))
	for _, e := range existing {
		byDay[e.DayOfWeek] = e
	}

	var order []model.DayOfWeek
	for _, in := range days {
		day, err := parseDay(in.DayOfWeek)
		if err != nil {
			return nil, err
		}
		current, seen := byDay[day]
		if !seen {
			current = model.OperatingHours{PartnerID: partnerID, DayOfWeek: day}
		}
		updated, err := applyDayInput(current, day, in)
		if err != nil {
			return nil, err
		}
		// Repeated days: the last occurrence wins.
		if !containsDay(order, day) {
			order = append(order, day)
		}
		byDay[day] = updated
	}

	batch := make([]model.OperatingHours, 0, len(order))
	for _, day := range order {
		batch = append(batch, byDay[day])
	}

	if err := s.store.UpsertEntries(ctx, batch); err != nil {
		return nil, fmt.Errorf("save schedule for %s: %w", partnerID, err)
	}
	if err := s.cache.Invalidate(ctx, partnerID); err != nil {
		return nil, fmt.Errorf("invalidate open status for %s: %w", partnerID, err)
	}
	metrics.IncScheduleMutation("replace_schedule")

	s.logger.Info().
		Str("partner_id", partnerID.String()).
		Int("days", len(batch)).
		Msg("schedule updated")

	return s.GetFullStatus(ctx, partnerID)
}

// SetManualStatus stores an explicit open/closed override.
func (s *Service) SetManualStatus(ctx context.Context, partnerID uuid.UUID, isOpen bool) error {
	if _, err := s.requirePartner(ctx, partnerID); err != nil {
		return err
	}

	if err := s.store.SaveManualFlag(ctx, partnerID, isOpen); err != nil {
		return fmt.Errorf("save manual status for %s: %w", partnerID, err)
	}
	if err := s.cache.Invalidate(ctx, partnerID); err != nil {
		return fmt.Errorf("invalidate open status for %s: %w", partnerID, err)
	}
	metrics.IncScheduleMutation("set_manual_status")

	s.logger.Info().
		Str("partner_id", partnerID.String()).
		Bool("is_open", isOpen).
		Msg("manual status updated")

	return nil
}

// UpsertSingleDay creates or updates the entry for day.
func (s *Service) UpsertSingleDay(ctx context.Context, partnerID uuid.UUID, day model.DayOfWeek, in DayInput) (*model.OperatingHours, error) {
	if !day.Valid() {
		return nil, &InvalidArgumentError{Reason: fmt.Sprintf("invalid day of week %d", int(day))}
	}
	if _, err := s.requirePartner(ctx, partnerID); err != nil {
		return nil, err
	}

	current, err := s.store.FindEntry(ctx, partnerID, day)
	if err != nil {
		return nil, fmt.Errorf("load %s schedule for %s: %w", day, partnerID, err)
	}
	if current == nil {
		current = &model.OperatingHours{PartnerID: partnerID, DayOfWeek: day}
	}

	updated, err := applyDayInput(*current, day, in)
	if err != nil {
		return nil, err
	}

	batch := []model.OperatingHours{updated}
	if err := s.store.UpsertEntries(ctx, batch); err != nil {
		return nil, fmt.Errorf("save %s schedule for %s: %w", day, partnerID, err)
	}
	if err := s.cache.Invalidate(ctx, partnerID); err != nil {
		return nil, fmt.Errorf("invalidate open status for %s: %w", partnerID, err)
	}
	metrics.IncScheduleMutation("upsert_day")

	s.logger.Info().
		Str("partner_id", partnerID.String()).
		Str("day", day.String()).
		Bool("is_open", updated.IsOpen).
		Msg("day schedule updated")

	return &batch[0], nil
}

// Status combines the schedule result with the manual flag.
func (s *Service) Status(ctx context.Context, partnerID uuid.UUID) (*PartnerStatus, error) {
	scheduleOpen, err := s.IsPartnerOpenNow(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	partner, err := s.requirePartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	manual := partner.ManuallyOpen()
	return &PartnerStatus{
		IsOpenNow:      scheduleOpen && manual,
		IsScheduleOpen: scheduleOpen,
		IsManuallyOpen: manual,
	}, nil
}

func (s *Service) requirePartner(ctx context.Context, partnerID uuid.UUID) (*model.Partner, error) {
	partner, err := s.store.FindPartner(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("load partner %s: %w", partnerID, err)
	}
	if partner == nil {
		return nil, ErrPartnerNotFound
	}
	return partner, nil
}

func parseDay(s string) (model.DayOfWeek, error) {
	if strings.TrimSpace(s) == "" {
		return 0, &InvalidArgumentError{Reason: "dayOfWeek is required"}
	}
	day, err := model.ParseDayOfWeek(s)
	if err != nil {
		return 0, &InvalidArgumentError{Reason: err.Error()}
	}
	return day, nil
}

// applyDayInput sets the open flag; times change only for open days.
func applyDayInput(h model.OperatingHours, day model.DayOfWeek, in DayInput) (model.OperatingHours, error) {
	h.DayOfWeek = day
	h.IsOpen = in.IsOpen
	if !in.IsOpen {
		return h, nil
	}

	if strings.TrimSpace(in.OpeningTime) == "" || strings.TrimSpace(in.ClosingTime) == "" {
		return h, &InvalidArgumentError{Day: day, Reason: "openingTime and closingTime are required for an open day"}
	}
	opening, err := model.ParseClockTime(in.OpeningTime)
	if err != nil {
		return h, &InvalidArgumentError{Day: day, Reason: err.Error()}
	}
	closing, err := model.ParseClockTime(in.ClosingTime)
	if err != nil {
		return h, &InvalidArgumentError{Day: day, Reason: err.Error()}
	}
	h.OpeningTime = &opening
	h.ClosingTime = &closing
	return h, nil
}

func containsDay(days []model.DayOfWeek, day model.DayOfWeek) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

func sortedByDay(entries []model.OperatingHours) []model.OperatingHours {
	byDay := make(map[model.DayOfWeek]model.OperatingHours, len(entries))
	for _, e := range entries {
		byDay[e.DayOfWeek] = e
	}
	out := make([]model.OperatingHours, 0, len(byDay))
	for _, day := range model.AllDays {
		if e, ok := byDay[day]; ok {
			out = append(out, e)
		}
	}
	return out
}
