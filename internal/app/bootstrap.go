package app

import (
	"fmt"
	"log"
	"strings"

	"skill-board/internal/config"
	"skill-board/internal/delivery/http/handler"
	"skill-board/internal/delivery/http/middleware"
	"skill-board/internal/delivery/http/routes"
	"skill-board/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func Bootstrap(cfg config.Config, logger *log.Logger) (*App, func() error, error) {
	c, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	f := fiber.New(fiber.Config{
		AppName: cfg.App.AppName,
	})

	errMw := middleware.NewErrorMiddleware(c.Logger)
	accessMw := middleware.NewAccessLogMiddleware(c.Logger)
	f.Use(errMw.Middleware())
	f.Use(accessMw.Middleware())

	registry := &routes.Registry{
		Health:       handler.NewHealthHandler(),
		Commands:     handler.NewCommandHandler(c.SkillList, c.Users, c.Slack, c.Logger),
		Interactions: handler.NewInteractionHandler(c.Submissions, c.Logger),
		Events:       handler.NewEventHandler(c.Slack, c.Logger),
		OAuth:        handler.NewOAuthHandler(c.Slack, c.Logger),
		Signature:    middleware.NewSlackSignatureMiddleware(cfg.Slack.SigningSecret, c.Logger),
		WS:           ws.NewHandler(c.Hub, c.Logger),
	}
	registry.Register(f)

	return &App{Fiber: f, Container: c}, c.Close, nil
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
