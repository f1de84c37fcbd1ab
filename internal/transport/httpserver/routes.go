package httpserver

import (
	"net/http"
	"time"

	"carelink-go/internal/config"
	"carelink-go/internal/transport/httpserver/handler"
	authmw "carelink-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, profiles authmw.ProfileSaver) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORSOrigins))

	registry := prometheus.NewRegistry()
	metrics := authmw.NewMetrics(registry)
	r.Use(metrics.Middleware)

	r.Get("/health", handlers.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		auth := authmw.NewSupabaseAuth(cfg.Supabase, profiles)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.AuthMe)

			r.Get("/care-circle/links", handlers.GetCircleLinks)
			r.Post("/care-circle/invites", handlers.CreateCircleInvite)
			r.Post("/care-circle/links/{link_id}/respond", handlers.RespondCircleLink)
			r.Delete("/care-circle/links/{link_id}", handlers.RemoveCircleLink)
			r.Patch("/care-circle/links/{link_id}/role", handlers.UpdateCircleRole)
			r.Get("/care-circle/links/{link_id}/vault/signed-url", handlers.GetCircleSignedURL)

			r.Post("/families", handlers.CreateFamily)
			r.Get("/families/me", handlers.GetFamilyMe)
			r.Delete("/families/me", handlers.DeleteFamily)
			r.Post("/families/me/invite-codes", handlers.MintInviteCode)
			r.Get("/families/invites/{code}", handlers.PreviewInvite)
			r.Post("/families/join-requests", handlers.RequestJoin)
			r.Post("/families/join-requests/{request_id}/review", handlers.ReviewJoinRequest)
			r.Get("/families/me/join-requests", handlers.GetPendingJoinRequests)
			r.Get("/families/me/members", handlers.GetFamilyMembers)
			r.Get("/families/me/members/{member_id}/vault/signed-url", handlers.GetFamilySignedURL)
		})
	})

	return r
}
