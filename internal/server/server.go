// Package server is the local preview server. It renders articles from fixture bookings,
// serves generated files and fronts the advertisement workflow.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/bpollino/angelina-jail-activity-automation/internal/ads"
	"github.com/bpollino/angelina-jail-activity-automation/internal/article"
	"github.com/bpollino/angelina-jail-activity-automation/internal/config"
	"github.com/bpollino/angelina-jail-activity-automation/internal/fixtures"
	"github.com/bpollino/angelina-jail-activity-automation/internal/ghost"
	"github.com/bpollino/angelina-jail-activity-automation/internal/logger"
	"github.com/bpollino/angelina-jail-activity-automation/internal/models"
)

// HTTP server timeouts.
const (
	ReadTimeout     = 5 * time.Second
	WriteTimeout    = 10 * time.Second
	IdleTimeout     = 60 * time.Second
	ShutdownTimeout = 10 * time.Second
)

// AdService is the advertisement workflow the server exposes. *ads.Service satisfies it.
type AdService interface {
	ActiveAd(ctx context.Context) *models.AdvertisementRecord
	Submit(ctx context.Context, sub ads.Submission, img *ads.Image) (*ads.SubmitResult, error)
	Stats(ctx context.Context) (*ads.Stats, error)
	Pending(ctx context.Context) ([]models.AdvertisementRecord, error)
	Review(ctx context.Context, id, action, notes string) (*ads.ReviewResult, error)
}

var _ AdService = (*ads.Service)(nil)

// Options configure a Server. Ads may be nil, in which case the ad workflow endpoints
// answer 503.
type Options struct {
	Host      string
	Port      int
	OutputDir string
	Ads       AdService
	Fixtures  *fixtures.Set
	Article   article.Options
	Location  *time.Location
	Registry  *prometheus.Registry
	Logger    *logger.Logger
}

// Server serves previews and the ad workflow.
type Server struct {
	opts    Options
	handler http.Handler
	metrics *metrics
	now     func() time.Time
	logger  *logger.Logger
}

// New builds a server. Missing fixtures are loaded from the embedded sheet.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}

	if opts.Location == nil {
		opts.Location = time.UTC
	}

	if opts.Fixtures == nil {
		set, err := fixtures.Default()
		if err != nil {
			return nil, err
		}

		opts.Fixtures = set
	}

	if opts.Article.Masthead == (article.Masthead{}) {
		opts.Article.Masthead = article.DefaultMasthead()
	}

	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	s := &Server{
		opts:    opts,
		metrics: newMetrics(opts.Registry),
		now:     time.Now,
		logger:  opts.Logger.With("component", "server"),
	}
	s.handler = s.routes()

	return s, nil
}

// NewFromConfig builds the server described by cfg.
func NewFromConfig(cfg *config.Config, adService AdService, log *logger.Logger) (*Server, error) {
	return New(Options{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		OutputDir: cfg.Server.OutputDir,
		Ads:       adService,
		Article: article.Options{
			Masthead:  ghost.MastheadFromConfig(cfg),
			ShowBonds: cfg.Article.ShowBonds,
		},
		Location: cfg.Location(),
		Logger:   log,
	})
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// Run listens on Addr and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}

	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("🌐 preview server listening", "addr", ln.Addr().String())

		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
		defer cancel()

		s.logger.Info("🛑 shutting down preview server")

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// previewDate is the default date of previews: yesterday in the publication calendar.
func (s *Server) previewDate() time.Time {
	n := s.now().In(s.opts.Location)

	return time.Date(n.Year(), n.Month(), n.Day()-1, 0, 0, 0, 0, s.opts.Location)
}
