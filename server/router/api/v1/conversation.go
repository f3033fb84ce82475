package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/tleai/thomas/store"
)

const defaultConversationTitle = "New Conversation"

type conversationResponse struct {
	UID          string `json:"uid"`
	Title        string `json:"title"`
	TitleSource  string `json:"title_source"`
	Pinned       bool   `json:"pinned"`
	Archived     bool   `json:"archived"`
	MessageCount int32  `json:"message_count"`
	CreatedTs    int64  `json:"created_ts"`
	UpdatedTs    int64  `json:"updated_ts"`
}

type conversationDetailResponse struct {
	conversationResponse
	Messages []*messageResponse `json:"messages"`
}

func convertConversation(c *store.Conversation) *conversationResponse {
	return &conversationResponse{
		UID:          c.UID,
		Title:        c.Title,
		TitleSource:  string(c.TitleSource),
		Pinned:       c.Pinned,
		Archived:     c.RowStatus == store.Archived,
		MessageCount: c.MessageCount,
		CreatedTs:    c.CreatedTs,
		UpdatedTs:    c.UpdatedTs,
	}
}

type createConversationRequest struct {
	Title string `json:"title"`
}

func (s *APIV1Service) createConversation(c echo.Context) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return err
	}

	request := &createConversationRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	title := strings.TrimSpace(request.Title)
	titleSource := store.TitleSourceUser
	if title == "" {
		title = defaultConversationTitle
		titleSource = store.TitleSourceDefault
	}

	now := time.Now().UnixMilli()
	conversation, err := s.Store.CreateConversation(c.Request().Context(), &store.Conversation{
		UID:         shortuuid.New(),
		CreatorID:   userID,
		Title:       title,
		TitleSource: titleSource,
		RowStatus:   store.Normal,
		CreatedTs:   now,
		UpdatedTs:   now,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create conversation").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, convertConversation(conversation))
}

func (s *APIV1Service) listConversations(c echo.Context) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return err
	}

	normal := store.Normal
	conversations, err := s.Store.ListConversations(c.Request().Context(), &store.FindConversation{
		CreatorID: &userID,
		RowStatus: &normal,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list conversations").SetInternal(err)
	}

	response := make([]*conversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		response = append(response, convertConversation(conversation))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *APIV1Service) getConversation(c echo.Context) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return err
	}
	conversation, err := s.findOwnedConversation(c, userID)
	if err != nil {
		return err
	}

	messages, err := s.Store.ListMessages(c.Request().Context(), &store.FindMessage{
		ConversationID: &conversation.ID,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list messages").SetInternal(err)
	}

	detail := &conversationDetailResponse{
		conversationResponse: *convertConversation(conversation),
		Messages:             make([]*messageResponse, 0, len(messages)),
	}
	for _, message := range messages {
		detail.Messages = append(detail.Messages, convertMessage(message))
	}
	return c.JSON(http.StatusOK, detail)
}

// deleteConversation removes the conversation and, through the schema's
// cascade rules, its messages and summaries. Usage rows survive with a null
// conversation reference.
func (s *APIV1Service) deleteConversation(c echo.Context) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return err
	}
	conversation, err := s.findOwnedConversation(c, userID)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteConversation(c.Request().Context(), &store.DeleteConversation{ID: conversation.ID}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete conversation").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) archiveConversation(c echo.Context) error {
	archived := store.Archived
	return s.updateConversationFlags(c, &store.UpdateConversation{RowStatus: &archived})
}

type pinConversationRequest struct {
	Pinned bool `json:"pinned"`
}

func (s *APIV1Service) pinConversation(c echo.Context) error {
	request := &pinConversationRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	return s.updateConversationFlags(c, &store.UpdateConversation{Pinned: &request.Pinned})
}

type renameConversationRequest struct {
	Title string `json:"title"`
}

func (s *APIV1Service) renameConversation(c echo.Context) error {
	request := &renameConversationRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	title := strings.TrimSpace(request.Title)
	if title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title must not be empty")
	}
	if len([]rune(title)) > store.TitleMaxLength {
		return echo.NewHTTPError(http.StatusBadRequest, "title too long")
	}
	titleSource := store.TitleSourceUser
	return s.updateConversationFlags(c, &store.UpdateConversation{
		Title:       &title,
		TitleSource: &titleSource,
	})
}

func (s *APIV1Service) updateConversationFlags(c echo.Context, update *store.UpdateConversation) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return err
	}
	conversation, err := s.findOwnedConversation(c, userID)
	if err != nil {
		return err
	}

	update.ID = conversation.ID
	now := time.Now().UnixMilli()
	update.UpdatedTs = &now
	updated, err := s.Store.UpdateConversation(c.Request().Context(), update)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update conversation").SetInternal(err)
	}
	return c.JSON(http.StatusOK, convertConversation(updated))
}

type conversationTitleResponse struct {
	Title       string `json:"title"`
	TitleSource string `json:"title_source"`
}

// getConversationTitle is polled by clients after the first exchange to pick
// up the auto-generated title.
func (s *APIV1Service) getConversationTitle(c echo.Context) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return err
	}
	conversation, err := s.findOwnedConversation(c, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &conversationTitleResponse{
		Title:       conversation.Title,
		TitleSource: string(conversation.TitleSource),
	})
}
