package handler

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"skill-board/internal/pkg/response"
	"skill-board/internal/repository"
	"skill-board/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// ViewOpener is the slice of the platform client the command handler needs.
type ViewOpener interface {
	OpenView(ctx context.Context, triggerID string, view json.RawMessage) error
}

// CommandHandler serves the slash commands by opening the matching modal.
type CommandHandler struct {
	skills usecase.SkillUsecase
	users  repository.UserRepository
	slack  ViewOpener
	logger *log.Logger
}

func NewCommandHandler(skills usecase.SkillUsecase, users repository.UserRepository, slack ViewOpener, logger *log.Logger) *CommandHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &CommandHandler{skills: skills, users: users, slack: slack, logger: logger}
}

func (h *CommandHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/commands", h.Handle)
}

func (h *CommandHandler) Handle(c fiber.Ctx) error {
	command := strings.TrimSpace(c.FormValue("command"))
	userID := strings.TrimSpace(c.FormValue("user_id"))
	triggerID := strings.TrimSpace(c.FormValue("trigger_id"))

	if userID == "" || triggerID == "" {
		return response.Error(c, fiber.StatusBadRequest, response.MessageBadRequest, nil)
	}

	switch command {
	case "/add-skills":
		return h.openAddSkills(c, userID, triggerID)
	case "/find-skills":
		return h.openFindSkills(c, triggerID)
	default:
		return response.Error(c, fiber.StatusBadRequest, response.MessageBadRequest, nil)
	}
}

func (h *CommandHandler) openAddSkills(c fiber.Ctx, userID string, triggerID string) error {
	items, err := h.skills.ListSkills(c.Context())
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.MessageInternalServerError, nil)
	}

	names := make([]string, 0, len(items))
	byID := make(map[uuid.UUID]string, len(items))
	for _, it := range items {
		names = append(names, it.Name)
		byID[it.ID] = it.Name
	}

	// Preselect the user's current skills; a lookup failure degrades to an
	// empty preselection rather than blocking the modal.
	var preselected []string
	if ids, err := h.users.SkillsOf(c.Context(), userID); err == nil {
		for _, id := range ids {
			if name, ok := byID[id]; ok {
				preselected = append(preselected, name)
			}
		}
	} else {
		h.logger.Printf("command: preselect lookup failed for %s: %v", userID, err)
	}

	view, err := buildAddSkillsModal(names, preselected)
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.MessageInternalServerError, nil)
	}

	if err := h.slack.OpenView(c.Context(), triggerID, view); err != nil {
		h.logger.Printf("command: views.open failed: %v", err)
		return response.Error(c, fiber.StatusInternalServerError, response.MessageInternalServerError, nil)
	}
	return c.SendString("")
}

func (h *CommandHandler) openFindSkills(c fiber.Ctx, triggerID string) error {
	items, err := h.skills.ListSkills(c.Context())
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.MessageInternalServerError, nil)
	}

	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}

	view, err := buildFindSkillsModal(names)
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, response.MessageInternalServerError, nil)
	}

	if err := h.slack.OpenView(c.Context(), triggerID, view); err != nil {
		h.logger.Printf("command: views.open failed: %v", err)
		return response.Error(c, fiber.StatusInternalServerError, response.MessageInternalServerError, nil)
	}
	return c.SendString("")
}
