package hours

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"goeat/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memStore is an in-memory Store that counts reads.
type memStore struct {
	mu          sync.Mutex
	partners    map[uuid.UUID]model.Partner
	hours       map[uuid.UUID]map[model.DayOfWeek]model.OperatingHours
	partnerGets int
	entryGets   int
	upserts     int
}

func newMemStore() *memStore {
	return &memStore{
		partners: make(map[uuid.UUID]model.Partner),
		hours:    make(map[uuid.UUID]map[model.DayOfWeek]model.OperatingHours),
	}
}

func (s *memStore) addPartner(manual model.ManualStatus) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.partners[id] = model.Partner{ID: id, Name: "p-" + id.String()[:8], Manual: manual}
	return id
}

func (s *memStore) setEntry(h model.OperatingHours) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hours[h.PartnerID] == nil {
		s.hours[h.PartnerID] = make(map[model.DayOfWeek]model.OperatingHours)
	}
	s.hours[h.PartnerID][h.DayOfWeek] = h
}

func (s *memStore) reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partnerGets + s.entryGets
}

func (s *memStore) FindPartner(_ context.Context, id uuid.UUID) (*model.Partner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partnerGets++
	p, ok := s.partners[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *memStore) SaveManualFlag(_ context.Context, id uuid.UUID, open bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.partners[id]
	p.Manual = model.ManualStatusOf(open)
	s.partners[id] = p
	return nil
}

func (s *memStore) FindScheduleEntries(_ context.Context, partnerID uuid.UUID) ([]model.OperatingHours, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.OperatingHours
	for _, day := range model.AllDays {
		if h, ok := s.hours[partnerID][day]; ok {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *memStore) FindEntry(_ context.Context, partnerID uuid.UUID, day model.DayOfWeek) (*model.OperatingHours, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entryGets++
	h, ok := s.hours[partnerID][day]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (s *memStore) UpsertEntries(_ context.Context, entries []model.OperatingHours) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	for _, h := range entries {
		if s.hours[h.PartnerID] == nil {
			s.hours[h.PartnerID] = make(map[model.DayOfWeek]model.OperatingHours)
		}
		s.hours[h.PartnerID][h.DayOfWeek] = h
	}
	return nil
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindPartner(ctx context.Context, id uuid.UUID) (*model.Partner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Partner), args.Error(1)
}

func (m *mockStore) SaveManualFlag(ctx context.Context, id uuid.UUID, open bool) error {
	return m.Called(ctx, id, open).Error(0)
}

func (m *mockStore) FindScheduleEntries(ctx context.Context, id uuid.UUID) ([]model.OperatingHours, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]model.OperatingHours), args.Error(1)
}

func (m *mockStore) FindEntry(ctx context.Context, id uuid.UUID, day model.DayOfWeek) (*model.OperatingHours, error) {
	args := m.Called(ctx, id, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OperatingHours), args.Error(1)
}

func (m *mockStore) UpsertEntries(ctx context.Context, entries []model.OperatingHours) error {
	return m.Called(ctx, entries).Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, id uuid.UUID) (bool, bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Bool(1), args.Error(2)
}

func (m *mockCache) Put(ctx context.Context, id uuid.UUID, isOpen bool) error {
	return m.Called(ctx, id, isOpen).Error(0)
}

func (m *mockCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCache) InvalidateAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// 2026-01-12 is a Monday.
func monday(hour, minute, second int) time.Time {
	return time.Date(2026, 1, 12, hour, minute, second, 0, time.UTC)
}

func openEntry(partnerID uuid.UUID, day model.DayOfWeek, from, to model.ClockTime) model.OperatingHours {
	return model.OperatingHours{
		PartnerID:   partnerID,
		DayOfWeek:   day,
		IsOpen:      true,
		OpeningTime: model.ClockTimePtr(from),
		ClosingTime: model.ClockTimePtr(to),
	}
}
