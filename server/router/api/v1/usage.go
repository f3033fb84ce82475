package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tleai/thomas/store"
)

const defaultUsageLimit = 100

type usageResponse struct {
	ID             int64   `json:"id"`
	ConversationID *int32  `json:"conversation_id,omitempty"`
	QueryText      string  `json:"query_text"`
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	Cost           float64 `json:"cost"`
	CreatedTs      int64   `json:"created_ts"`
}

// listUsage returns the caller's usage ledger rows, newest first.
func (s *APIV1Service) listUsage(c echo.Context) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return err
	}

	limit := defaultUsageLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}

	usageLogs, err := s.Store.ListUsageLogs(c.Request().Context(), &store.FindUsageLog{
		UserID: &userID,
		Limit:  &limit,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list usage").SetInternal(err)
	}

	response := make([]*usageResponse, 0, len(usageLogs))
	for _, usageLog := range usageLogs {
		response = append(response, &usageResponse{
			ID:             usageLog.ID,
			ConversationID: usageLog.ConversationID,
			QueryText:      usageLog.QueryText,
			InputTokens:    usageLog.InputTokens,
			OutputTokens:   usageLog.OutputTokens,
			Cost:           usageLog.Cost,
			CreatedTs:      usageLog.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, response)
}
