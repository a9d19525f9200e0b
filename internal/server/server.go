package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"mediagate/internal/api"
	"mediagate/internal/config"
	"mediagate/internal/groups"
	"mediagate/internal/media"
	"mediagate/internal/streaming"
)

type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	httpServer *http.Server
	router     *chi.Mux
	handler    *api.Handler
}

func New(cfg *config.Config, logger zerolog.Logger, resolver *media.Resolver, scanner *media.Scanner, groupService *groups.Service) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
	}

	streamer := streaming.NewHandler(resolver, scanner, cfg.Stream.CacheMaxAge, logger)
	s.handler = api.NewHandler(groupService, scanner, streamer, logger, cfg.Library.Name)

	s.router = chi.NewRouter()
	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     s.router,
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout stays 0 by default: a client crawling through a long
		// video must not have its stream cut mid-transfer.
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(CORSMiddleware)
	s.router.Use(LoggingMiddleware(s.logger))
}

func (s *Server) setupRoutes() {
	// Streaming lives at the root so media URLs stay short and stable for
	// player elements.
	s.router.Get("/stream/{category}/*", s.handler.StreamMedia)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handler.Health)
		r.Get("/stats", s.handler.Stats)

		r.Get("/library/{category}", s.handler.Browse)
		r.Get("/library/{category}/*", s.handler.Browse)

		r.Get("/media/{category}/*", s.handler.MediaInfo)

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", s.handler.ListGroups)
			r.Post("/", s.handler.CreateGroup)
			r.Get("/{id}", s.handler.GetGroup)
			r.Put("/{id}", s.handler.UpdateGroup)
			r.Delete("/{id}", s.handler.DeleteGroup)
		})
	})
}

// Handler exposes the assembled router, mainly for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.httpServer.Addr).
		Msg("starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}
