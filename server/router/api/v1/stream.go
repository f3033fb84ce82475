package v1

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/tleai/thomas/store"
)

// streamConversation answers the conversation's pending user message over a
// server-sent-event stream. The event framing is a fixed client contract:
// data: {"token":...}, data: {"citations":[...]}, data: {"error":...},
// terminated by data: [DONE].
func (s *APIV1Service) streamConversation(c echo.Context) error {
	userID, err := userIDFromRequest(c)
	if err != nil {
		return err
	}
	conversation, err := s.findOwnedConversation(c, userID)
	if err != nil {
		return err
	}
	if !s.limiters.allow(userID) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many chat requests, slow down")
	}
	if s.orchestrator == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "generation service is not configured")
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	// Disable proxy buffering so deltas reach the client as they happen.
	resp.Header().Set("X-Accel-Buffering", "no")
	resp.WriteHeader(http.StatusOK)

	if err := s.orchestrator.StreamTurn(c.Request().Context(), conversation, &sseWriter{resp: resp}); err != nil {
		// Already relayed to the client as an error event.
		slog.Error("stream turn failed",
			"conversation_uid", conversation.UID,
			"user_id", userID,
			"error", err,
		)
	}
	return nil
}

type sseWriter struct {
	resp *echo.Response
}

type tokenEvent struct {
	Token string `json:"token"`
}

type citationsEvent struct {
	Citations []store.Citation `json:"citations"`
}

type errorEvent struct {
	Error string `json:"error"`
}

func (w *sseWriter) send(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w.resp, "data: %s\n\n", data); err != nil {
		return err
	}
	w.resp.Flush()
	return nil
}

func (w *sseWriter) Token(text string) error {
	return w.send(tokenEvent{Token: text})
}

func (w *sseWriter) Citations(citations []store.Citation) error {
	return w.send(citationsEvent{Citations: citations})
}

func (w *sseWriter) Error(message string) error {
	return w.send(errorEvent{Error: message})
}

func (w *sseWriter) Done() error {
	if _, err := io.WriteString(w.resp, "data: [DONE]\n\n"); err != nil {
		return err
	}
	w.resp.Flush()
	return nil
}

// userLimiters rate limits stream requests per user. Conversations are cheap
// to read but every stream is a billable model call.
type userLimiters struct {
	mu       sync.Mutex
	limiters map[int32]*rate.Limiter
}

func newUserLimiters() *userLimiters {
	return &userLimiters{limiters: make(map[int32]*rate.Limiter)}
}

func (l *userLimiters) allow(userID int32) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.limiters[userID]
	if !ok {
		// One request per 2s sustained, bursts of 5.
		limiter = rate.NewLimiter(rate.Every(2*time.Second), 5)
		l.limiters[userID] = limiter
	}
	return limiter.Allow()
}
