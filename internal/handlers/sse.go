package handlers

import (
	"log/slog"

	"github.com/dimitrije/adme-site/internal/middleware"
	"github.com/dimitrije/adme-site/internal/postgrest"
	"github.com/dimitrije/adme-site/internal/sse"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type SSEHandler struct {
	hub      SSEHubInterface
	profiles ProfileServiceInterface
}

func NewSSEHandler(hub SSEHubInterface, profiles ProfileServiceInterface) *SSEHandler {
	return &SSEHandler{
		hub:      hub,
		profiles: profiles,
	}
}

// Connect streams the caller's account updates. Admins and developers also
// receive new-inquiry notifications.
func (h *SSEHandler) Connect(c *drift.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		c.Unauthorized("not authenticated")
		return
	}
	userID := session.User.ID

	staff := false
	ctx := postgrest.WithAccessToken(c.Request.Context(), session.AccessToken)
	if profile, err := h.profiles.GetByID(ctx, userID); err == nil {
		staff = profile.HasAdminAccess()
	} else {
		slog.Warn("event stream without profile",
			slog.String("op", "sse.connect"),
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()),
		)
	}

	sseCtx := c.SSE()

	clientID := uuid.New().String()
	client := &sse.Client{
		ID:     clientID,
		UserID: userID,
		Staff:  staff,
		Send:   make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": clientID,
	}, "system", ""); err != nil {
		return
	}

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
