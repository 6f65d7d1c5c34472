// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matthewbaird/formbuilder/internal/activity"
	"github.com/matthewbaird/formbuilder/internal/event"
	"github.com/matthewbaird/formbuilder/internal/handler"
	"github.com/matthewbaird/formbuilder/internal/live"
	"github.com/matthewbaird/formbuilder/internal/logging"
	"github.com/matthewbaird/formbuilder/internal/store"
)

// Config holds server configuration.
type Config struct {
	Port            int
	ShutdownTimeout time.Duration
	Version         string

	Configs  *store.Configs
	Drafts   *store.Drafts
	Activity activity.Store
	Recorder event.Recorder
	Sessions *live.Manager
	Logger   *log.Logger
}

// NewRouter registers every route on a chi router.
func NewRouter(cfg Config) http.Handler {
	r, _ := routes(cfg)
	return r
}

func routes(cfg Config) (chi.Router, *live.Handler) {
	logger := logging.Or(cfg.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(handler.Recovery(logger))
	r.Use(handler.Logging(logger))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	bh := handler.NewBuilderHandler(cfg.Version, cfg.Recorder, logger)
	mh := handler.NewModuleHandler(cfg.Configs, cfg.Drafts, cfg.Recorder, logger)
	ah := handler.NewActivityHandler(cfg.Activity, logger)
	lh := live.NewHandler(cfg.Sessions, cfg.Recorder, logger)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/field-types", bh.ListFieldTypes)
		r.Post("/fields/default", bh.DefaultField)
		r.Post("/schema", bh.Schema)
		r.Post("/validate", bh.Validate)
		r.Post("/layout", bh.Layout)
		r.Post("/preview", bh.Preview)
		r.Post("/generate", bh.Generate)

		r.Get("/modules", mh.ListModules)
		r.Route("/modules/{module}", func(r chi.Router) {
			r.Get("/config", mh.GetConfig)
			r.Put("/config", mh.PutConfig)
			r.Delete("/config", mh.DeleteConfig)
			r.Get("/activity", ah.HandleModuleActivity)
		})

		r.Get("/drafts", mh.ListDrafts)
		r.Post("/drafts", mh.SaveDraft)
		r.Get("/drafts/{id}", mh.GetDraft)
		r.Delete("/drafts/{id}", mh.DeleteDraft)

		r.Get("/activity/search", ah.HandleSearch)

		r.Get("/live", lh.ServeHTTP)
	})
	return r, lh
}

// Run listens on the configured port and serves until ctx is done.
func Run(ctx context.Context, cfg Config) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return Serve(ctx, ln, cfg)
}

// Serve serves on ln and shuts the server down when ctx is done. It returns
// once shutdown has finished. Live connections are told to go away.
func Serve(ctx context.Context, ln net.Listener, cfg Config) error {
	logger := logging.Or(cfg.Logger).WithPrefix("server")
	router, lh := routes(cfg)

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(lh.Close)

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		timeout := cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", "err", err)
		}
	}()

	logger.Info("starting server", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdownDone
	logger.Info("server stopped")
	return nil
}
