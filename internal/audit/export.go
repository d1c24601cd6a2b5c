// Package audit exports partners and their weekly schedules as an Excel workbook.
package audit

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"goeat/internal/db"
	"goeat/internal/model"
)

const (
	PartnersSheet  = "Partners"
	SchedulesSheet = "Operating hours"
)

// ScheduleSource provides the rows to export.
type ScheduleSource interface {
	ListPartners(ctx context.Context) ([]model.Partner, error)
	ListAllSchedules(ctx context.Context) ([]db.ScheduleRow, error)
}

type Exporter struct {
	source ScheduleSource
	logger zerolog.Logger
}

func NewExporter(source ScheduleSource, logger zerolog.Logger) *Exporter {
	return &Exporter{
		source: source,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Filename returns the download name for an export taken at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("operating_hours_%s.xlsx", t.UTC().Format("20060102_150405"))
}

// Export writes the workbook to out.
func (e *Exporter) Export(ctx context.Context, out io.Writer) error {
	partners, err := e.source.ListPartners(ctx)
	if err != nil {
		return fmt.Errorf("list partners: %w", err)
	}
	schedules, err := e.source.ListAllSchedules(ctx)
	if err != nil {
		return fmt.Errorf("list schedules: %w", err)
	}

	wb, err := NewWorkbook()
	if err != nil {
		return err
	}
	defer wb.Close()

	if err := writePartners(wb, partners); err != nil {
		return err
	}
	if err := writeSchedules(wb, schedules); err != nil {
		return err
	}

	if err := wb.Save(out); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	e.logger.Info().
		Int("partners", len(partners)).
		Int("entries", len(schedules)).
		Msg("schedule export written")
	return nil
}

func writePartners(wb *Workbook, partners []model.Partner) error {
	if err := wb.AddSheet(PartnersSheet); err != nil {
		return err
	}
	if err := wb.WriteHeader([]string{"Partner ID", "Name", "Manual status", "Updated at"}); err != nil {
		return err
	}
	for _, p := range partners {
		row := []interface{}{p.ID.String(), p.Name, p.Manual.String(), formatTime(p.UpdatedAt)}
		if err := wb.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

func writeSchedules(wb *Workbook, rows []db.ScheduleRow) error {
	if err := wb.AddSheet(SchedulesSheet); err != nil {
		return err
	}
	if err := wb.WriteHeader([]string{"Partner ID", "Name", "Day", "Open", "Opening time", "Closing time"}); err != nil {
		return err
	}
	for _, r := range rows {
		open := "no"
		if r.Hours.IsOpen {
			open = "yes"
		}
		row := []interface{}{
			r.Partner.ID.String(),
			r.Partner.Name,
			r.Hours.DayOfWeek.String(),
			open,
			formatClock(r.Hours.OpeningTime),
			formatClock(r.Hours.ClosingTime),
		}
		if err := wb.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

func formatClock(c *model.ClockTime) string {
	if c == nil {
		return ""
	}
	return c.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
