// Package server exposes the prayer-times view state over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/quranlake/internal/api"
	"github.com/smokyabdulrahman/quranlake/internal/clock"
	"github.com/smokyabdulrahman/quranlake/internal/controller"
	"github.com/smokyabdulrahman/quranlake/internal/quran"
)

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 10 * time.Second

// Views is the controller surface the server drives.
type Views interface {
	Snapshot(ctx context.Context) controller.View
	Refresh(ctx context.Context) error
	ClearCache(ctx context.Context)
	PrayerTimes() *api.Response
}

// Adhan is the trigger surface the server drives.
type Adhan interface {
	Muted() bool
	SetMuted(muted bool)
	PlayNow(ctx context.Context) (string, error)
}

// Catalogue is the reciter and surah source.
type Catalogue interface {
	Reciters(ctx context.Context, language string) ([]quran.Reciter, error)
	Reciter(ctx context.Context, id int, language string) (*quran.Reciter, error)
	Surahs(ctx context.Context, language string) ([]quran.Surah, error)
}

// Deps are the server's collaborators. Adhan and Catalogue may be nil, in
// which case their routes answer 404.
type Deps struct {
	Views     Views
	Adhan     Adhan
	Catalogue Catalogue
	Clock     clock.Clock
	// Gatherer backs /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer
	// TimeFormat is a Go layout for the list endpoint, e.g. "15:04".
	TimeFormat string
	// Language is the default catalogue language (eng or ar).
	Language string
	Logger   zerolog.Logger
}

// Server wraps a chi.Router with the API routes.
type Server struct {
	Router chi.Router

	views      Views
	adhan      Adhan
	catalogue  Catalogue
	clock      clock.Clock
	timeFormat string
	language   string
	log        zerolog.Logger
}

// New builds the router.
func New(d Deps) *Server {
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.TimeFormat == "" {
		d.TimeFormat = "15:04"
	}
	if d.Language == "" {
		d.Language = "eng"
	}

	s := &Server{
		views:      d.Views,
		adhan:      d.Adhan,
		catalogue:  d.Catalogue,
		clock:      d.Clock,
		timeFormat: d.TimeFormat,
		language:   d.Language,
		log:        d.Logger.With().Str("component", "http").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/prayer-times", func(r chi.Router) {
			r.Get("/", s.handleView)
			r.Get("/list", s.handleList)
			r.Post("/refresh", s.handleRefresh)
			r.Delete("/cache", s.handleClearCache)
		})
		if s.adhan != nil {
			r.Route("/adhan", func(r chi.Router) {
				r.Get("/", s.handleAdhanState)
				r.Post("/play", s.handleAdhanPlay)
				r.Put("/mute", s.handleAdhanMute)
			})
		}
		if s.catalogue != nil {
			r.Get("/reciters", s.handleReciters)
			r.Get("/reciters/{id}", s.handleReciter)
			r.Get("/surahs", s.handleSurahs)
		}
	})

	s.Router = r
	return s
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server started")
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info().Msg("HTTP server stopped")
	return <-errCh
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
