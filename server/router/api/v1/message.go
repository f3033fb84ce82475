package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tleai/thomas/store"
)

type messageResponse struct {
	ID        int64            `json:"id"`
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Citations []store.Citation `json:"citations,omitempty"`
	CreatedTs int64            `json:"created_ts"`
}

func convertMessage(m *store.Message) *messageResponse {
	return &messageResponse{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		Citations: m.Citations,
		CreatedTs: m.CreatedTs,
	}
}

type createMessageRequest struct {
	Content string `json:"content"`
}

// createMessage appends a user message. The assistant reply is produced by the
// stream endpoint, not here. Empty content is rejected before any persistence
// or task dispatch.
func (s *APIV1Service) createMessage(c echo.Context) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return err
	}
	conversation, err := s.findOwnedConversation(c, userID)
	if err != nil {
		return err
	}

	request := &createMessageRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	content := strings.TrimSpace(request.Content)
	if content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message content must not be empty")
	}

	message, err := s.Store.CreateMessage(c.Request().Context(), &store.CreateMessage{
		ConversationID: conversation.ID,
		Role:           store.RoleUser,
		Content:        content,
		CreatedTs:      time.Now().UnixMilli(),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create message").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, convertMessage(message))
}
