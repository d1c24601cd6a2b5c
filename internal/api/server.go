// Package api exposes operating hours and partner status over HTTP.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"goeat/internal/hours"
	"goeat/internal/model"
)

// StatusService is the schedule and status logic behind the handlers.
type StatusService interface {
	GetFullStatus(ctx context.Context, partnerID uuid.UUID) (*hours.FullStatus, error)
	ReplaceSchedule(ctx context.Context, partnerID uuid.UUID, days []hours.DayInput) (*hours.FullStatus, error)
	SetManualStatus(ctx context.Context, partnerID uuid.UUID, isOpen bool) error
	UpsertSingleDay(ctx context.Context, partnerID uuid.UUID, day model.DayOfWeek, in hours.DayInput) (*model.OperatingHours, error)
	Status(ctx context.Context, partnerID uuid.UUID) (*hours.PartnerStatus, error)
}

// Exporter writes the admin schedule workbook.
type Exporter interface {
	Export(ctx context.Context, out io.Writer) error
}

type Options struct {
	JWTSecret      string
	Issuer         string
	AdminAPIKey    string
	PublicRPS      float64
	PublicBurst    int
	TrustedProxies []string
}

type Server struct {
	svc      StatusService
	exporter Exporter
	logger   zerolog.Logger
	router   *gin.Engine
}

func NewServer(svc StatusService, exporter Exporter, opts Options, logger zerolog.Logger) *Server {
	s := &Server{
		svc:      svc,
		exporter: exporter,
		logger:   logger.With().Str("component", "api").Logger(),
	}
	s.router = s.routes(opts)
	return s
}

func (s *Server) routes(opts Options) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		s.logger.Error().Err(err).Strs("trusted_proxies", opts.TrustedProxies).Msg("invalid trusted proxies, trusting none")
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery(), requestLogger(s.logger))

	rps, burst := opts.PublicRPS, opts.PublicBurst
	if rps <= 0 {
		rps = 20
	}
	if burst <= 0 {
		burst = 40
	}
	public := newRateLimiter(rps, burst).middleware()

	v1 := r.Group("/api/v1")

	own := v1.Group("/operating-hours", partnerAuth([]byte(opts.JWTSecret), opts.Issuer))
	own.GET("", s.handleGetOwnHours)
	own.PUT("", s.handleReplaceSchedule)
	own.PUT("/status", s.handleSetManualStatus)
	own.PUT("/days/:dayOfWeek", s.handleUpsertDay)

	v1.GET("/operating-hours/partners/:partnerId", public, s.handleGetPartnerHours)
	v1.GET("/partners/:partnerId/status", public, s.handlePartnerStatus)

	admin := v1.Group("/admin", apiKeyAuth(opts.AdminAPIKey))
	admin.GET("/operating-hours/export", s.handleExport)

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "not found")
	})
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down within timeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("api server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info().Msg("api server stopped")
	return nil
}
