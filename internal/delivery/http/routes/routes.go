package routes

import (
	"skill-board/internal/delivery/http/handler"
	"skill-board/internal/delivery/http/middleware"
	"skill-board/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Registry struct {
	Health       *handler.HealthHandler
	Commands     *handler.CommandHandler
	Interactions *handler.InteractionHandler
	Events       *handler.EventHandler
	OAuth        *handler.OAuthHandler
	Signature    *middleware.SlackSignatureMiddleware
	WS           *ws.Handler
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.Health.RegisterRoutes(app)
	r.OAuth.RegisterRoutes(app)

	// Every platform-originated endpoint sits behind signature verification.
	slackGrp := app.Group("/slack", r.Signature.Middleware())
	r.Commands.RegisterRoutes(slackGrp)
	r.Interactions.RegisterRoutes(slackGrp)
	r.Events.RegisterRoutes(slackGrp)

	if r.WS != nil {
		app.Get("/ws/skills", r.WS.HandleSkillsWS)
	}
}
