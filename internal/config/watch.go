package config

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// WatchPartners loads partners.yaml, hands it to onUpdate, then polls the file's
// modification time and repeats on every change until ctx is done.
// A broken file at startup is returned as an error; later broken edits are
// logged and skipped until the file is fixed.
func WatchPartners(
	ctx context.Context,
	path string,
	interval time.Duration,
	logger zerolog.Logger,
	onUpdate func(*PartnersConfig),
) error {
	if path == "" {
		path = DefaultPartnersPath
	}
	if interval <= 0 {
		interval = defaultWatchIntervalSecs * time.Second
	}

	w := &partnersWatcher{path: path, logger: logger, onUpdate: onUpdate}
	if err := w.initial(); err != nil {
		return err
	}

	go w.loop(ctx, interval)
	return nil
}

type partnersWatcher struct {
	path     string
	lastMod  time.Time
	logger   zerolog.Logger
	onUpdate func(*PartnersConfig)
}

func (w *partnersWatcher) initial() error {
	cfg, err := LoadPartnersConfig(w.path)
	if err != nil {
		return err
	}
	info, err := os.Stat(w.path)
	if err != nil {
		return err
	}
	w.lastMod = info.ModTime()
	w.emit(cfg)
	return nil
}

func (w *partnersWatcher) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.reloadIfChanged()
		}
	}
}

func (w *partnersWatcher) reloadIfChanged() {
	info, err := os.Stat(w.path)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", w.path).Msg("stat partners config")
		return
	}
	if !info.ModTime().After(w.lastMod) {
		return
	}

	cfg, err := LoadPartnersConfig(w.path)
	if err != nil {
		w.logger.Error().Err(err).Str("path", w.path).Msg("reload partners config")
		return
	}
	w.lastMod = info.ModTime()
	w.logger.Info().Str("path", w.path).Msg("partners config changed")
	w.emit(cfg)
}

func (w *partnersWatcher) emit(cfg *PartnersConfig) {
	if w.onUpdate != nil {
		w.onUpdate(cfg)
	}
}
