package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsAndEnvExpansion(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GOEAT_TEST_SECRET", "s3cret")

	path := writeFile(t, dir, "config.yaml", `
database:
  driver: sqlite3
  dsn: `+filepath.Join(dir, "data", "goeat.db")+`
server:
  trusted_proxies: ["10.0.0.0/8", "127.0.0.1"]
auth:
  jwt_secret: ${GOEAT_TEST_SECRET}
schedule:
  timezone: Europe/Berlin
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "goeat-api", cfg.Auth.Issuer)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.Server.TrustedProxies)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 300000*time.Millisecond, cfg.RepairInterval())
	assert.Equal(t, 5*time.Minute, cfg.CacheFlushInterval())
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())

	rps, burst := cfg.PublicRateLimit()
	assert.Equal(t, 20.0, rps)
	assert.Equal(t, 40, burst)

	assert.DirExists(t, filepath.Join(dir, "data"))
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing jwt secret",
			content: "database:\n  dsn: \"file::memory:\"\n",
			wantErr: "auth.jwt_secret is required",
		},
		{
			name:    "unknown driver",
			content: "database:\n  driver: mysql\n  dsn: x\nauth:\n  jwt_secret: k\n",
			wantErr: "unsupported driver 'mysql'",
		},
		{
			name:    "postgres without dsn",
			content: "database:\n  driver: postgres\nauth:\n  jwt_secret: k\n",
			wantErr: "database.dsn is required",
		},
		{
			name:    "redis backend without address",
			content: "database:\n  dsn: \"file::memory:\"\ncache:\n  backend: redis\nauth:\n  jwt_secret: k\n",
			wantErr: "redis.address is required",
		},
		{
			name:    "bad timezone",
			content: "database:\n  dsn: \"file::memory:\"\nauth:\n  jwt_secret: k\nschedule:\n  timezone: Mars/Olympus\n",
			wantErr: "schedule.timezone",
		},
		{
			name:    "backup on postgres",
			content: "database:\n  driver: postgres\n  dsn: postgres://x\nauth:\n  jwt_secret: k\nbackup:\n  enabled: true\n",
			wantErr: "backup.enabled is only supported for sqlite3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.yaml", tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ExplicitIntervals(t *testing.T) {
	var cfg Config
	cfg.Schedule.RepairIntervalMs = 1500
	cfg.Schedule.CacheFlushIntervalMs = 250
	cfg.Seed.WatchIntervalSeconds = 2

	assert.Equal(t, 1500*time.Millisecond, cfg.RepairInterval())
	assert.Equal(t, 250*time.Millisecond, cfg.CacheFlushInterval())
	assert.Equal(t, 2*time.Second, cfg.SeedWatchInterval())
	assert.Equal(t, time.UTC, cfg.Location())

	assert.Equal(t, 24*time.Hour, cfg.BackupInterval())
	assert.Equal(t, 14*24*time.Hour, cfg.BackupRetention())
	cfg.Backup.IntervalHours = 6
	cfg.Backup.RetentionDays = 3
	assert.Equal(t, 6*time.Hour, cfg.BackupInterval())
	assert.Equal(t, 72*time.Hour, cfg.BackupRetention())
}

const partnersYAML = `
partners:
  - id: 7b4e2a1c-5f7e-4c1a-9a57-2a9c1d0e3b11
    name: Pizza Napoli
    manually_open: true
    schedule:
      - day: monday
        is_open: true
        opening_time: "09:00"
        closing_time: "17:00"
      - day: SUNDAY
        is_open: false
  - id: 0d7f6a34-2b1e-4d55-8f7c-6a5b4c3d2e1f
    name: Sushi Go
`

func TestLoadPartnersConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "partners.yaml", partnersYAML)

	cfg, err := LoadPartnersConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Partners, 2)

	napoli := cfg.Partners[0]
	require.NotNil(t, napoli.ManuallyOpen)
	assert.True(t, *napoli.ManuallyOpen)
	assert.Len(t, napoli.Schedule, 2)

	assert.Nil(t, cfg.Partners[1].ManuallyOpen)
	assert.Equal(t, "PartnersConfig: 2 partners, 2 schedule entries", cfg.String())
}

func TestPartnersConfig_Validate(t *testing.T) {
	const id = "7b4e2a1c-5f7e-4c1a-9a57-2a9c1d0e3b11"

	tests := []struct {
		name    string
		cfg     PartnersConfig
		wantErr string
	}{
		{
			name:    "invalid id",
			cfg:     PartnersConfig{Partners: []PartnerConfig{{ID: "42", Name: "x"}}},
			wantErr: "partner[0]: invalid id '42'",
		},
		{
			name: "duplicate id",
			cfg: PartnersConfig{Partners: []PartnerConfig{
				{ID: id, Name: "a"},
				{ID: id, Name: "b"},
			}},
			wantErr: "partner[1]: duplicate id",
		},
		{
			name:    "missing name",
			cfg:     PartnersConfig{Partners: []PartnerConfig{{ID: id}}},
			wantErr: "partner[0]: name is required",
		},
		{
			name: "bad day",
			cfg: PartnersConfig{Partners: []PartnerConfig{{ID: id, Name: "a",
				Schedule: []DayScheduleConfig{{Day: "FUNDAY"}}}}},
			wantErr: "invalid day 'FUNDAY'",
		},
		{
			name: "duplicate day",
			cfg: PartnersConfig{Partners: []PartnerConfig{{ID: id, Name: "a",
				Schedule: []DayScheduleConfig{{Day: "MONDAY"}, {Day: "monday"}}}}},
			wantErr: "duplicate day MONDAY",
		},
		{
			name: "open day without times",
			cfg: PartnersConfig{Partners: []PartnerConfig{{ID: id, Name: "a",
				Schedule: []DayScheduleConfig{{Day: "MONDAY", IsOpen: true, OpeningTime: "09:00"}}}}},
			wantErr: "required for an open day",
		},
		{
			name: "bad time format",
			cfg: PartnersConfig{Partners: []PartnerConfig{{ID: id, Name: "a",
				Schedule: []DayScheduleConfig{{Day: "MONDAY", IsOpen: true, OpeningTime: "9am", ClosingTime: "17:00"}}}}},
			wantErr: "opening_time: invalid format '9am'",
		},
		{
			name: "single digit hour",
			cfg: PartnersConfig{Partners: []PartnerConfig{{ID: id, Name: "a",
				Schedule: []DayScheduleConfig{{Day: "MONDAY", IsOpen: true, OpeningTime: "09:00", ClosingTime: "9:30"}}}}},
			wantErr: "closing_time: invalid format '9:30'",
		},
		{
			name: "closing before opening",
			cfg: PartnersConfig{Partners: []PartnerConfig{{ID: id, Name: "a",
				Schedule: []DayScheduleConfig{{Day: "MONDAY", IsOpen: true, OpeningTime: "18:00", ClosingTime: "17:00"}}}}},
			wantErr: "closing_time must not be before opening_time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWatchPartners_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "partners.yaml", partnersYAML)

	var mu sync.Mutex
	var seen []*PartnersConfig

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := WatchPartners(ctx, path, 10*time.Millisecond, zerolog.New(io.Discard), func(cfg *PartnersConfig) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, cfg)
	})
	require.NoError(t, err)

	mu.Lock()
	require.Len(t, seen, 1)
	mu.Unlock()

	updated := partnersYAML + `  - id: 3c2b1a09-8f7e-4d6c-9b5a-1e2d3c4b5a69
    name: Taco Town
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2 && len(seen[1].Partners) == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatchPartners_InvalidInitialFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "partners.yaml", "partners:\n  - id: nope\n")
	err := WatchPartners(context.Background(), path, time.Second, zerolog.New(io.Discard), nil)
	assert.Error(t, err)
}
