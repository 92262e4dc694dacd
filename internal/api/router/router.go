package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/zapagent/zapagent/internal/api/handlers"
	"github.com/zapagent/zapagent/internal/api/middleware"
	"github.com/zapagent/zapagent/internal/config"
	"github.com/zapagent/zapagent/internal/domain/admin"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/pkg/metrics"
)

// Handlers bundles every HTTP handler the router mounts
type Handlers struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	User    *handlers.UserHandler
	Plan    *handlers.PlanHandler
	Agent   *handlers.AgentHandler
	Payment *handlers.PaymentHandler
	Admin   *handlers.AdminHandler
}

// New builds the HTTP router
func New(cfg *config.Config, log *logger.Logger, adminSvc admin.Service, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.DefaultCORS(cfg.Server.FrontendURL))
	r.Use(middleware.RateLimit(100, 200)) // 100 req/sec, burst of 200

	// Public routes
	r.Group(func(r chi.Router) {
		// Swagger documentation
		r.Get("/swagger/*", httpSwagger.WrapHandler)

		// Health checks and metrics
		r.Get("/health", h.Health.Healthz)
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)
		r.Handle("/metrics", metrics.Handler())

		// Auth endpoints
		r.Post("/api/v1/auth/register", h.Auth.Register)
		r.Post("/api/v1/auth/login", h.Auth.Login)
		r.Post("/api/v1/auth/refresh", h.Auth.Refresh)
		r.Post("/api/v1/auth/logout", h.Auth.Logout)
		r.Post("/api/v1/auth/forgot-password", h.Auth.ForgotPassword)
		r.Post("/api/v1/auth/reset-password", h.Auth.ResetPassword)

		// Plan catalog is public so the pricing page needs no login
		r.Get("/api/v1/plans", h.Plan.Catalog)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
		r.Use(middleware.UserRateLimit(20, 40))

		// Profile
		r.Route("/api/v1/users/me", func(r chi.Router) {
			r.Get("/", h.User.GetProfile)
			r.Put("/", h.User.UpdateProfile)
			r.Put("/password", h.User.ChangePassword)
		})

		// Plans
		r.Get("/api/v1/plans/me", h.Plan.GetMyPlan)
		r.Get("/api/v1/plans/me/trial", h.Plan.TrialStatus)
		r.Post("/api/v1/plans/checkout", h.Plan.Checkout)

		// Payments
		r.Get("/api/v1/payments", h.Payment.ListMine)

		// Agents
		r.Route("/api/v1/agents", func(r chi.Router) {
			r.Get("/", h.Agent.List)
			r.Post("/", h.Agent.Create)
			r.Get("/{agentID}", h.Agent.Get)
			r.Put("/{agentID}", h.Agent.Update)
			r.Delete("/{agentID}", h.Agent.Delete)
			r.Post("/{agentID}/connect", h.Agent.Connect)
			r.Get("/{agentID}/qr", h.Agent.QRCode)
			r.Get("/{agentID}/connection", h.Agent.ConnectionState)
			r.Post("/{agentID}/disconnect", h.Agent.Disconnect)
			r.Post("/{agentID}/preview", h.Agent.Preview)
			r.Get("/{agentID}/analytics", h.Agent.Analytics)
		})

		// Back-office bootstrap needs auth but no admin row yet
		r.Post("/api/v1/admin/bootstrap", h.Admin.Bootstrap)
	})

	// Back-office routes (require an admin row)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
		r.Use(middleware.RequireAdmin(adminSvc))

		r.Route("/api/v1/admin", func(r chi.Router) {
			r.Get("/me", h.Admin.Me)
			r.Get("/dashboard", h.Admin.Dashboard)
			r.Get("/settings/messaging", h.Admin.MessagingHealth)
			r.Get("/users", h.User.ListUsers)

			// Per-user plan edits are scoped to the admin's groups
			r.Route("/users/{userID}/plan", func(r chi.Router) {
				r.Use(middleware.RequireUserAccess(adminSvc))
				r.Get("/", h.Plan.AdminGetPlan)
				r.Put("/", h.Plan.AdminUpdatePlan)
			})

			// Payments
			r.Route("/payments", func(r chi.Router) {
				r.Get("/", h.Payment.List)
				r.Post("/", h.Payment.Register)
				r.Get("/temp", h.Payment.ListTemp)
				r.Post("/reconcile", h.Payment.Reconcile)
				r.Delete("/{paymentID}", h.Payment.Delete)
			})

			// Groups
			r.Route("/groups", func(r chi.Router) {
				r.Get("/", h.Admin.ListGroups)
				r.Post("/", h.Admin.CreateGroup)
				r.Delete("/{groupID}", h.Admin.DeleteGroup)
				r.Post("/{groupID}/users", h.Admin.AddGroupUser)
				r.Delete("/{groupID}/users", h.Admin.RemoveGroupUser)
				r.Post("/{groupID}/admins", h.Admin.AddGroupAdmin)
				r.Delete("/{groupID}/admins", h.Admin.RemoveGroupAdmin)
			})

			// Admin management is master-only
			r.Route("/admins", func(r chi.Router) {
				r.Use(middleware.RequireMaster())
				r.Get("/", h.Admin.ListAdmins)
				r.Post("/", h.Admin.CreateAdmin)
				r.Put("/{adminID}", h.Admin.UpdateAdmin)
				r.Delete("/{adminID}", h.Admin.DeleteAdmin)
			})
		})
	})

	return r
}
