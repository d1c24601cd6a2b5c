package audit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"goeat/internal/db"
	"goeat/internal/model"
)

type stubSource struct {
	partners  []model.Partner
	schedules []db.ScheduleRow
	err       error
}

func (s *stubSource) ListPartners(context.Context) ([]model.Partner, error) {
	return s.partners, s.err
}

func (s *stubSource) ListAllSchedules(context.Context) ([]db.ScheduleRow, error) {
	return s.schedules, nil
}

func TestExporter_Export(t *testing.T) {
	p := model.Partner{ID: uuid.New(), Name: "Pizza Napoli", Manual: model.ManualClosed}
	legacy := model.Partner{ID: uuid.New(), Name: "Old Diner"}
	src := &stubSource{
		partners: []model.Partner{p, legacy},
		schedules: []db.ScheduleRow{
			{Partner: p, Hours: model.OperatingHours{
				PartnerID:   p.ID,
				DayOfWeek:   model.Monday,
				IsOpen:      true,
				OpeningTime: model.ClockTimePtr(model.NewClockTime(9, 0, 0)),
				ClosingTime: model.ClockTimePtr(model.NewClockTime(17, 30, 0)),
			}},
			{Partner: p, Hours: model.OperatingHours{PartnerID: p.ID, DayOfWeek: model.Sunday}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewExporter(src, zerolog.New(io.Discard)).Export(context.Background(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{PartnersSheet, SchedulesSheet}, f.GetSheetList())

	partners, err := f.GetRows(PartnersSheet)
	require.NoError(t, err)
	require.Len(t, partners, 3)
	assert.Equal(t, "Manual status", partners[0][2])
	assert.Equal(t, []string{p.ID.String(), "Pizza Napoli", "closed"}, partners[1][:3])
	assert.Equal(t, "unset", partners[2][2])

	hours, err := f.GetRows(SchedulesSheet)
	require.NoError(t, err)
	require.Len(t, hours, 3)
	assert.Equal(t, []string{p.ID.String(), "Pizza Napoli", "MONDAY", "yes", "09:00", "17:30"}, hours[1])
	assert.Equal(t, []string{p.ID.String(), "Pizza Napoli", "SUNDAY", "no"}, hours[2])
}

func TestExporter_SourceError(t *testing.T) {
	src := &stubSource{err: errors.New("db down")}
	var buf bytes.Buffer
	err := NewExporter(src, zerolog.New(io.Discard)).Export(context.Background(), &buf)
	assert.ErrorContains(t, err, "list partners")
	assert.Zero(t, buf.Len())
}

func TestWorkbook_RequiresSheet(t *testing.T) {
	wb, err := NewWorkbook()
	require.NoError(t, err)
	defer wb.Close()

	assert.Error(t, wb.WriteRow([]interface{}{"x"}))
	require.NoError(t, wb.AddSheet("a sheet name that is definitely longer than excel allows"))
	assert.Equal(t, maxSheetName, len(wb.sheet))
}

func TestFilename(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "operating_hours_20260304_050607.xlsx", Filename(ts))
}
