package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/chat-service/internal/auth"
	"github.com/spec-kit/chat-service/internal/domain"
	"github.com/spec-kit/chat-service/internal/realtime"
	"github.com/spec-kit/chat-service/internal/repository"
	apperrors "github.com/spec-kit/chat-service/pkg/util/errorutil"
)

const wsUserKey = "ws_user"

// RealtimeHandler upgrades viewer connections and attaches them to the hub.
type RealtimeHandler struct {
	hub         *realtime.Hub
	memberships repository.MembershipRepository
	logger      *zap.Logger
}

// NewRealtimeHandler constructs handler.
func NewRealtimeHandler(hub *realtime.Hub, memberships repository.MembershipRepository, logger *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, memberships: memberships, logger: logger}
}

// Upgrade gates the route on a WebSocket upgrade request and carries the
// authenticated user into the connection's locals.
func (h *RealtimeHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return apperrors.NewDomainError("UPGRADE_REQUIRED", "websocket upgrade required", fiber.StatusUpgradeRequired, nil)
	}
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	c.Locals(wsUserKey, principal.User)
	return c.Next()
}

// Serve returns the WebSocket handler running the viewer's pumps.
func (h *RealtimeHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		user, ok := conn.Locals(wsUserKey).(*domain.User)
		if !ok {
			_ = conn.Close()
			return
		}

		client := realtime.NewClient(h.hub, conn, user.ID, h.authorize, h.logger)
		client.Register()
		go client.WritePump()
		client.ReadPump()
	})
}

// authorize gates chat-scoped subscriptions on chat membership.
func (h *RealtimeHandler) authorize(userID, chatID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	member, err := h.memberships.IsMember(ctx, chatID, userID)
	if err != nil {
		h.logger.Warn("realtime: membership check failed",
			zap.String("chat_id", chatID), zap.Error(err))
		return false
	}
	return member
}
