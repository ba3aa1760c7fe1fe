package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/Adarsh-Dhar/kaia-social-yield/internal/api/handlers"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/api/middleware"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/config"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/settlement"
	"github.com/Adarsh-Dhar/kaia-social-yield/internal/store"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(st *store.Store, engine *settlement.Engine, sessions *middleware.SessionStore, cfg *config.Config) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	slog.Info("router initialized",
		"middleware", []string{"requestLogging", "securityHeaders", "cors"},
		"allowedOrigins", cfg.AllowedOrigins,
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.HealthHandler(cfg, Version))
		r.Post("/auth/login", handlers.Login(st, sessions, cfg))

		// Public mission catalog.
		r.Get("/missions", handlers.ListMissions(st))
		r.Get("/missions/{missionId}", handlers.GetMission(st))

		// User endpoints, bearer session required.
		r.Group(func(r chi.Router) {
			r.Use(middleware.UserAuth(sessions))

			r.Get("/user/boost", handlers.GetBoost(engine))
			r.Get("/user/missions", handlers.GetCompletions(st))
			r.Post("/user/wallet", handlers.ConnectWallet(st))

			r.Post("/missions/{missionId}/complete", handlers.CompleteMission(engine))
			r.Post("/missions/{missionId}/retry-reward", handlers.RetryReward(engine))
			r.Post("/referral/claim", handlers.ClaimReferral(engine))
		})

		// Advertiser endpoints, API-key required.
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdvertiserAuth(st))

			r.Post("/partner/verify", handlers.VerifyCompletion(engine))
			r.Post("/advertiser/missions", handlers.CreateMission(st))
			r.Get("/advertiser/campaigns", handlers.ListCampaigns(st))
			r.Post("/advertiser/campaigns", handlers.CreateCampaign(st))
			r.Patch("/advertiser/campaigns/{campaignId}", handlers.UpdateCampaign(st))
			r.Post("/advertiser/campaigns/{campaignId}/activate", handlers.ActivateCampaign(st))
		})
	})

	return r
}
