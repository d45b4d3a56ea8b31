package handler

import (
	"context"
	"encoding/json"
	"log"

	"skill-board/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type ViewPublisher interface {
	PublishView(ctx context.Context, userID string, view json.RawMessage) error
}

// EventHandler answers the events URL: the one-time verification challenge
// and app-home opens.
type EventHandler struct {
	slack  ViewPublisher
	logger *log.Logger
}

func NewEventHandler(slack ViewPublisher, logger *log.Logger) *EventHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &EventHandler{slack: slack, logger: logger}
}

func (h *EventHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/events", h.Handle)
}

type eventEnvelope struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Event     struct {
		Type string `json:"type"`
		User string `json:"user"`
	} `json:"event"`
}

func (h *EventHandler) Handle(c fiber.Ctx) error {
	var env eventEnvelope
	if err := json.Unmarshal(c.Body(), &env); err != nil {
		return response.Error(c, fiber.StatusBadRequest, response.MessageBadRequest, nil)
	}

	switch env.Type {
	case "url_verification":
		return c.JSON(fiber.Map{"challenge": env.Challenge})
	case "event_callback":
		if env.Event.Type == "app_home_opened" && env.Event.User != "" {
			view, err := buildHomeView()
			if err == nil {
				if err := h.slack.PublishView(c.Context(), env.Event.User, view); err != nil {
					h.logger.Printf("event: home publish failed: %v", err)
				}
			}
		}
		return c.SendString("")
	default:
		return c.SendString("")
	}
}
