package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	accounthandlers "github.com/de-tools/cost-atlas/pkg/handlers/accounts"
	costhandlers "github.com/de-tools/cost-atlas/pkg/handlers/cost"
	"github.com/de-tools/cost-atlas/pkg/handlers/respond"
	userhandlers "github.com/de-tools/cost-atlas/pkg/handlers/users"
	atlasmiddleware "github.com/de-tools/cost-atlas/pkg/server/middleware"
	"github.com/de-tools/cost-atlas/pkg/services/auth"
	"github.com/de-tools/cost-atlas/pkg/services/cost"
	"github.com/de-tools/cost-atlas/pkg/services/directory"
	"github.com/de-tools/cost-atlas/pkg/services/registry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const defaultShutdownTimeout = 10 * time.Second

type WebAPI struct {
	router          http.Handler
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Validator interface {
	Struct(s any) error
}

type Dependencies struct {
	Cost      cost.Service
	Registry  registry.Service
	Directory directory.Service
	Verifier  auth.Verifier
	Validator Validator
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	AdminGroup      string
	Dependencies    Dependencies
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	router := ConfigureRouter(&logger, config)

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: timeout,
	}
}

func ConfigureRouter(logger *zerolog.Logger, config Config) http.Handler {
	deps := config.Dependencies
	costHandler := costhandlers.NewHandler(deps.Cost, deps.Registry, deps.Validator)
	accountHandler := accounthandlers.NewHandler(deps.Registry, deps.Validator)
	userHandler := userhandlers.NewHandler(deps.Directory, deps.Registry, deps.Validator, config.AdminGroup)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(atlasmiddleware.Logger(logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respond.OK(w, r, map[string]string{"status": "ok"})
	})

	router.Route("/api", func(r chi.Router) {
		r.Use(atlasmiddleware.Authenticate(deps.Verifier))

		r.Get("/me", userHandler.Me)
		r.Get("/accounts", accountHandler.ListAccounts)

		r.Route("/cost", func(r chi.Router) {
			r.Post("/analysis", costHandler.GetComprehensiveAnalysis)
			r.Post("/total", costHandler.GetTotalMonthlyCost)
			r.Post("/services", costHandler.GetServiceCosts)
			r.Post("/regions", costHandler.GetRegionCosts)
			r.Post("/users", costHandler.GetUserCosts)
			r.Post("/projects", costHandler.GetProjectCosts)
			r.Post("/resources", costHandler.GetResources)
			r.Post("/top-resources", costHandler.GetTopSpendingResources)
			r.Post("/recommendations", costHandler.GetRecommendations)
			r.Post("/trend", costHandler.GetCostTrendData)
			r.Post("/daily", costHandler.GetDailyCostData)
			r.Post("/weekly", costHandler.GetWeeklyCostData)
		})

		r.Group(func(r chi.Router) {
			r.Use(atlasmiddleware.RequireAdmin(config.AdminGroup))

			r.Post("/accounts", accountHandler.CreateAccount)
			r.Post("/accounts/validate", accountHandler.ValidateCredentials)
			r.Get("/users", userHandler.ListUsers)
			r.Put("/users/{id}/role", userHandler.UpdateRole)
			r.Get("/users/{id}/accounts", userHandler.GetUserAccounts)
			r.Put("/users/{id}/accounts", userHandler.SetUserAccounts)
		})
	})

	return router
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
