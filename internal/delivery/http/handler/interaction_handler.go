package handler

import (
	"encoding/json"
	"errors"
	"log"
	"strings"

	"skill-board/internal/pkg/response"
	"skill-board/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

// InteractionHandler receives modal submissions and dispatches them to the
// declare or find flow based on the view's callback id.
type InteractionHandler struct {
	submissions usecase.SubmissionUsecase
	logger      *log.Logger
}

func NewInteractionHandler(submissions usecase.SubmissionUsecase, logger *log.Logger) *InteractionHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &InteractionHandler{submissions: submissions, logger: logger}
}

func (h *InteractionHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/interactions", h.Handle)
}

type optionValue struct {
	Value string `json:"value"`
}

type blockValue struct {
	Value           string        `json:"value"`
	SelectedOption  *optionValue  `json:"selected_option"`
	SelectedOptions []optionValue `json:"selected_options"`
}

type interactionPayload struct {
	Type string `json:"type"`
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Team struct {
		ID string `json:"id"`
	} `json:"team"`
	View struct {
		CallbackID string `json:"callback_id"`
		State      struct {
			Values map[string]map[string]blockValue `json:"values"`
		} `json:"state"`
	} `json:"view"`
	ResponseURLs []struct {
		ResponseURL string `json:"response_url"`
	} `json:"response_urls"`
}

func (p *interactionPayload) blockValue(blockID string, actionID string) (blockValue, bool) {
	actions, ok := p.View.State.Values[blockID]
	if !ok {
		return blockValue{}, false
	}
	v, ok := actions[actionID]
	return v, ok
}

func (h *InteractionHandler) Handle(c fiber.Ctx) error {
	raw := c.FormValue("payload")
	if strings.TrimSpace(raw) == "" {
		return response.Error(c, fiber.StatusBadRequest, response.MessageBadRequest, nil)
	}

	var payload interactionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return response.Error(c, fiber.StatusBadRequest, response.MessageBadRequest, nil)
	}

	// Only view submissions carry the flows; anything else is acknowledged
	// and ignored.
	if payload.Type != "view_submission" {
		return c.SendString("")
	}
	if payload.User.ID == "" {
		return response.Error(c, fiber.StatusBadRequest, response.MessageBadRequest, nil)
	}

	switch payload.View.CallbackID {
	case CallbackAddSkills:
		return h.handleDeclare(c, &payload)
	case CallbackFindSkills:
		return h.handleFind(c, &payload)
	default:
		return response.Error(c, fiber.StatusBadRequest, response.MessageBadRequest, nil)
	}
}

func (h *InteractionHandler) handleDeclare(c fiber.Ctx, payload *interactionPayload) error {
	in := usecase.DeclareInput{UserID: payload.User.ID}

	if v, ok := payload.blockValue(blockSkills, actionSkills); ok {
		for _, opt := range v.SelectedOptions {
			in.SelectedSkillNames = append(in.SelectedSkillNames, opt.Value)
		}
	}
	if v, ok := payload.blockValue(blockNewSkill, actionNewSkill); ok {
		in.NewSkillsText = v.Value
	}
	for _, ru := range payload.ResponseURLs {
		in.ResponseURLs = append(in.ResponseURLs, ru.ResponseURL)
	}

	if _, err := h.submissions.DeclareSkills(c.Context(), in); err != nil {
		return h.flowError(c, err)
	}
	return c.SendString("")
}

func (h *InteractionHandler) handleFind(c fiber.Ctx, payload *interactionPayload) error {
	v, ok := payload.blockValue(blockSkills, actionSkills)
	if !ok || v.SelectedOption == nil {
		return response.Error(c, fiber.StatusBadRequest, response.MessageBadRequest, nil)
	}

	in := usecase.FindInput{
		UserID:            payload.User.ID,
		TeamID:            payload.Team.ID,
		SelectedSkillName: v.SelectedOption.Value,
	}

	if _, err := h.submissions.FindHolders(c.Context(), in); err != nil {
		return h.flowError(c, err)
	}
	return c.SendString("")
}

func (h *InteractionHandler) flowError(c fiber.Ctx, err error) error {
	if errors.Is(err, usecase.ErrInvalidInput) {
		return response.Error(c, fiber.StatusBadRequest, response.MessageBadRequest, nil)
	}
	h.logger.Printf("interaction: flow failed: %v", err)
	return response.Error(c, fiber.StatusInternalServerError, response.MessageInternalServerError, nil)
}
