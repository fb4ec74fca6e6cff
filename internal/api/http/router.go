package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Meta           *handlers.MetaHandler
	Tickets        *handlers.TicketsHandler
	Stream         *handlers.StreamHandler
	Users          *handlers.UsersHandler
	Alerts         *handlers.AlertsHandler
	Pages          *handlers.PagesHandler
	AuthMiddleware *auth.AuthMiddleware
	Sessions       *auth.Sessions
	Metrics        *observability.Metrics
	UploadDir      string
	UploadPrefix   string
}

// pageRoutes are the UI entry points. Gating is decided by the route policy.
var pageRoutes = []string{
	"/",
	"/login",
	"/signup",
	"/pending",
	"/reset-password",
	"/dashboard",
	"/my-tickets",
	"/submit-ticket",
	"/open-tickets",
	"/system-status",
	"/my-assigned-tickets",
	"/admin",
	"/ticket/:id",
	"/protected/*",
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	requireAuth := cfg.AuthMiddleware.Handle
	agents := auth.RequireRole(domain.RoleIT, domain.RoleAdmin)
	admin := auth.RequireAdmin()

	if cfg.UploadDir != "" && cfg.UploadPrefix != "" {
		files := app.Group(cfg.UploadPrefix, requireAuth, cfg.Tickets.AuthorizeAttachment(cfg.UploadPrefix))
		files.Static("/", cfg.UploadDir)
	}

	api := app.Group("/api")
	api.Post("/login", cfg.Auth.Login)
	api.Post("/logout", cfg.Auth.Logout)
	api.Get("/authorize", cfg.Meta.Authorize)
	api.Get("/meta/enums", cfg.Meta.Enums)

	authGroup := api.Group("/auth")
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Post("/signup", cfg.Auth.SignUp)
	authGroup.Post("/sign-in", cfg.Auth.SignIn)
	authGroup.Post("/password/forgot", cfg.Auth.ForgotPassword)
	authGroup.Post("/password/reset", cfg.Auth.ResetPassword)
	authGroup.Get("/me", cfg.AuthMiddleware.HandleAllowPending, cfg.Auth.Me)

	tickets := api.Group("/tickets", requireAuth)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/recent", cfg.Tickets.RecentTickets)
	tickets.Get("/stream", cfg.Stream.Stream)
	tickets.Get("/stats", agents, cfg.Tickets.Stats)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/assignee", cfg.Tickets.Assign)
	tickets.Post("/:id/claim", auth.RequireRole(domain.RoleIT), cfg.Tickets.Claim)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Post("/:id/attachments", agents, cfg.Tickets.AddAttachments)

	api.Post("/send-ticket-email", requireAuth, cfg.Tickets.SendTicketEmail)
	api.Get("/alerts", requireAuth, agents, cfg.Alerts.List)

	users := api.Group("/users", requireAuth)
	users.Get("/agents", agents, cfg.Users.Agents)
	users.Get("/stats", admin, cfg.Users.Stats)
	users.Get("/", admin, cfg.Users.List)
	users.Patch("/:id/role", admin, cfg.Users.SetRole)
	users.Post("/approve-user", admin, cfg.Users.Approve)
	users.Post("/reject-user", admin, cfg.Users.Reject)
	api.Post("/reject-user", requireAuth, admin, cfg.Users.Reject)

	gate := auth.PageGate(cfg.Sessions)
	for _, route := range pageRoutes {
		app.Get(route, gate, cfg.Pages.Serve)
	}
}
