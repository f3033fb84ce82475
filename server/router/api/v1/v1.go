// Package v1 exposes the JSON/SSE HTTP API under /api/v1.
package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tleai/thomas/internal/profile"
	"github.com/tleai/thomas/server/router/api/v1/chat"
	"github.com/tleai/thomas/store"
)

// userIDHeader carries the caller identity. Authentication itself is handled
// upstream of this service; the header is trusted as resolved identity.
const userIDHeader = "X-User-Id"

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store

	orchestrator *chat.Orchestrator
	limiters     *userLimiters
}

// NewAPIV1Service wires the interactive API. orchestrator may be nil when the
// generation service is not configured; the stream endpoint then reports 503.
func NewAPIV1Service(p *profile.Profile, s *store.Store, orchestrator *chat.Orchestrator) *APIV1Service {
	return &APIV1Service{
		Profile:      p,
		Store:        s,
		orchestrator: orchestrator,
		limiters:     newUserLimiters(),
	}
}

// Register mounts all v1 routes on the given group.
func (s *APIV1Service) Register(g *echo.Group) {
	g.POST("/conversations", s.createConversation)
	g.GET("/conversations", s.listConversations)
	g.GET("/conversations/:uid", s.getConversation)
	g.DELETE("/conversations/:uid", s.deleteConversation)
	g.POST("/conversations/:uid/messages", s.createMessage)
	g.GET("/conversations/:uid/stream", s.streamConversation)
	g.POST("/conversations/:uid/archive", s.archiveConversation)
	g.POST("/conversations/:uid/pin", s.pinConversation)
	g.POST("/conversations/:uid/rename", s.renameConversation)
	g.GET("/conversations/:uid/title", s.getConversationTitle)
	g.GET("/documents", s.listDocuments)
	g.GET("/usage", s.listUsage)
}

// userIDFromRequest resolves the caller identity from the identity header.
func userIDFromRequest(c echo.Context) (int32, error) {
	raw := c.Request().Header.Get(userIDHeader)
	if raw == "" {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "missing identity header")
	}
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "invalid identity header")
	}
	return int32(id), nil
}

// findOwnedConversation loads the conversation by uid and enforces ownership.
func (s *APIV1Service) findOwnedConversation(c echo.Context, userID int32) (*store.Conversation, error) {
	uid := c.Param("uid")
	conversation, err := s.Store.GetConversation(c.Request().Context(), &store.FindConversation{
		UID:       &uid,
		CreatorID: &userID,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to find conversation").SetInternal(err)
	}
	return conversation, nil
}
