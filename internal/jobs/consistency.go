package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"goeat/internal/metrics"
	"goeat/internal/model"
)

const DefaultInterval = 300000 * time.Millisecond

// PartnerStore is what the repair task needs from persistence.
type PartnerStore interface {
	ListPartners(ctx context.Context) ([]model.Partner, error)
	FillUnsetManualFlags(ctx context.Context, ids []uuid.UUID, open bool) (int, error)
}

// CacheFlusher drops every cached open-status entry.
type CacheFlusher interface {
	InvalidateAll(ctx context.Context) error
}

type Config struct {
	RepairInterval     time.Duration
	CacheFlushInterval time.Duration
}

// Consistency runs the periodic manual-flag repair and cache flush.
// Each task has its own ticker, so a slow or failing run of one never delays the other.
type Consistency struct {
	partners PartnerStore
	cache    CacheFlusher
	config   Config
	logger   zerolog.Logger
	wg       sync.WaitGroup
}

func NewConsistency(partners PartnerStore, cache CacheFlusher, cfg Config, logger zerolog.Logger) *Consistency {
	if cfg.RepairInterval <= 0 {
		cfg.RepairInterval = DefaultInterval
	}
	if cfg.CacheFlushInterval <= 0 {
		cfg.CacheFlushInterval = DefaultInterval
	}
	return &Consistency{
		partners: partners,
		cache:    cache,
		config:   cfg,
		logger:   logger.With().Str("component", "consistency").Logger(),
	}
}

// Start launches both tasks; each runs once immediately, then at its fixed rate
// until ctx is done.
func (c *Consistency) Start(ctx context.Context) {
	c.logger.Info().
		Dur("repair_interval", c.config.RepairInterval).
		Dur("cache_flush_interval", c.config.CacheFlushInterval).
		Msg("consistency jobs started")

	c.wg.Add(2)
	go c.loop(ctx, "repair_manual_flags", c.config.RepairInterval, func(ctx context.Context) error {
		_, err := c.RepairManualFlags(ctx)
		return err
	})
	go c.loop(ctx, "flush_cache", c.config.CacheFlushInterval, c.FlushCache)
}

// Wait blocks until both loops have returned.
func (c *Consistency) Wait() {
	c.wg.Wait()
}

func (c *Consistency) loop(ctx context.Context, task string, interval time.Duration, run func(context.Context) error) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.runTask(ctx, task, run)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runTask(ctx, task, run)
		}
	}
}

// runTask never lets an error or panic escape into the loop.
func (c *Consistency) runTask(ctx context.Context, task string, run func(context.Context) error) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		metrics.IncJobRun(task, err)
		if err != nil {
			c.logger.Error().Err(err).Str("task", task).Msg("consistency task failed")
		}
	}()
	err = run(ctx)
}

// RepairManualFlags sets every unset manual flag to open in one batch.
// Returns the number of partners repaired.
func (c *Consistency) RepairManualFlags(ctx context.Context) (int, error) {
	partners, err := c.partners.ListPartners(ctx)
	if err != nil {
		return 0, fmt.Errorf("list partners: %w", err)
	}

	var unset []uuid.UUID
	for _, p := range partners {
		if p.Manual == model.ManualUnset {
			unset = append(unset, p.ID)
		}
	}

	repaired := 0
	if len(unset) > 0 {
		repaired, err = c.partners.FillUnsetManualFlags(ctx, unset, true)
		if err != nil {
			return 0, fmt.Errorf("save repaired flags: %w", err)
		}
		metrics.AddPartnersRepaired(repaired)
	}

	c.logger.Info().
		Int("checked", len(partners)).
		Int("repaired", repaired).
		Msg("manual flags checked")

	return repaired, nil
}

// FlushCache drops the whole open-status cache.
func (c *Consistency) FlushCache(ctx context.Context) error {
	if err := c.cache.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("invalidate open status cache: %w", err)
	}
	c.logger.Debug().Msg("open status cache flushed")
	return nil
}
