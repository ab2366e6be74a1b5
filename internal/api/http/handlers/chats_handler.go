package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/chat-service/internal/api/dto"
	"github.com/spec-kit/chat-service/internal/auth"
	"github.com/spec-kit/chat-service/internal/service"
	apperrors "github.com/spec-kit/chat-service/pkg/util/errorutil"
)

// ChatsHandler manages chat endpoints.
type ChatsHandler struct {
	service *service.ChatService
}

// NewChatsHandler constructs handler.
func NewChatsHandler(chatService *service.ChatService) *ChatsHandler {
	return &ChatsHandler{service: chatService}
}

// Create POST /chats.
func (h *ChatsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	chat, err := h.service.Create(c.UserContext(), principal.User, req.Subject, req.MemberIDs)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewChatResponse(chat)})
}

// List GET /chats.
func (h *ChatsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	previews, err := h.service.List(c.UserContext(), principal.User)
	if err != nil {
		return err
	}
	items := make([]dto.ChatSummary, 0, len(previews))
	for i := range previews {
		items = append(items, dto.NewChatSummary(&previews[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /chats/:id.
func (h *ChatsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	chat, err := h.service.Get(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewChatResponse(chat)})
}
