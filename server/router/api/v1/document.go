package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tleai/thomas/store"
)

type documentResponse struct {
	ID             int32  `json:"id"`
	Title          string `json:"title"`
	Filename       string `json:"filename"`
	ExternalFileID string `json:"external_file_id"`
	Status         string `json:"status"`
	CreatedTs      int64  `json:"created_ts"`
	UpdatedTs      int64  `json:"updated_ts"`
}

// listDocuments exposes the grounding document catalog. Ingestion is handled
// out of band; this is the read side clients use to show sources.
func (s *APIV1Service) listDocuments(c echo.Context) error {
	if _, err := userIDFromRequest(c); err != nil {
		return err
	}

	find := &store.FindDocument{}
	if raw := c.QueryParam("status"); raw != "" {
		status := store.DocumentStatus(raw)
		switch status {
		case store.DocumentStatusPending, store.DocumentStatusProcessing, store.DocumentStatusCompleted, store.DocumentStatusFailed:
			find.Status = &status
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "unknown document status")
		}
	}

	documents, err := s.Store.ListDocuments(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list documents").SetInternal(err)
	}

	response := make([]*documentResponse, 0, len(documents))
	for _, document := range documents {
		response = append(response, &documentResponse{
			ID:             document.ID,
			Title:          document.Title,
			Filename:       document.Filename,
			ExternalFileID: document.ExternalFileID,
			Status:         string(document.Status),
			CreatedTs:      document.CreatedTs,
			UpdatedTs:      document.UpdatedTs,
		})
	}
	return c.JSON(http.StatusOK, response)
}
