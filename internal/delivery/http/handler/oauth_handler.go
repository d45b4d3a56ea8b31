package handler

import (
	"context"
	"log"
	"strings"

	"skill-board/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type OAuthExchanger interface {
	ExchangeOAuthCode(ctx context.Context, code string) (teamID string, err error)
}

// OAuthHandler completes the install handshake and bounces the browser back
// into the app.
type OAuthHandler struct {
	slack  OAuthExchanger
	logger *log.Logger
}

func NewOAuthHandler(slack OAuthExchanger, logger *log.Logger) *OAuthHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &OAuthHandler{slack: slack, logger: logger}
}

func (h *OAuthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/oauth/callback", h.Callback)
}

func (h *OAuthHandler) Callback(c fiber.Ctx) error {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		return response.Error(c, fiber.StatusBadRequest, response.MessageBadRequest, nil)
	}

	teamID, err := h.slack.ExchangeOAuthCode(c.Context(), code)
	if err != nil {
		h.logger.Printf("oauth: code exchange failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("An error occurred during OAuth.")
	}

	return c.Redirect().To("slack://app?team=" + teamID)
}
