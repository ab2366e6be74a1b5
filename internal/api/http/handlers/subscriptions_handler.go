package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/chat-service/internal/api/dto"
	"github.com/spec-kit/chat-service/internal/auth"
	"github.com/spec-kit/chat-service/internal/service"
	apperrors "github.com/spec-kit/chat-service/pkg/util/errorutil"
)

// SubscriptionsHandler manages push subscription endpoints.
type SubscriptionsHandler struct {
	service *service.SubscriptionService
}

// NewSubscriptionsHandler constructs handler.
func NewSubscriptionsHandler(subscriptionService *service.SubscriptionService) *SubscriptionsHandler {
	return &SubscriptionsHandler{service: subscriptionService}
}

// PublicKey GET /notifications/public-key.
func (h *SubscriptionsHandler) PublicKey(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.PublicKeyResponse{PublicKey: h.service.VAPIDPublicKey()}})
}

// Enable POST /notifications/subscriptions.
func (h *SubscriptionsHandler) Enable(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.EnableSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = c.Get(fiber.HeaderUserAgent)
	}

	result, err := h.service.Enable(c.UserContext(), principal.User.ID, service.EnableInput{
		Endpoint:  req.Endpoint,
		P256dh:    req.Keys.P256dh,
		Auth:      req.Keys.Auth,
		UserAgent: userAgent,
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result != service.EnableOK {
		status = http.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{"data": dto.EnableSubscriptionResponse{Result: string(result)}})
}

// Disable DELETE /notifications/subscriptions.
func (h *SubscriptionsHandler) Disable(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.DisableSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.service.Disable(c.UserContext(), principal.User.ID, req.Endpoint); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
