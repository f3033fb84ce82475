// Package server assembles the HTTP server: echo engine, middleware, the v1
// API, the LLM clients, and the background dispatcher.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tleai/thomas/ai"
	"github.com/tleai/thomas/internal/profile"
	apiv1 "github.com/tleai/thomas/server/router/api/v1"
	"github.com/tleai/thomas/server/router/api/v1/chat"
	"github.com/tleai/thomas/server/service/dispatch"
	"github.com/tleai/thomas/store"
)

type Server struct {
	e          *echo.Echo
	profile    *profile.Profile
	store      *store.Store
	dispatcher *dispatch.Dispatcher
}

func NewServer(ctx context.Context, p *profile.Profile, s *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
			)
			return nil
		},
	}))

	dispatcher := dispatch.New(4)

	var orchestrator *chat.Orchestrator
	if p.IsLLMEnabled() {
		llmService, err := ai.NewLLMService(&ai.LLMConfig{
			APIKey:  p.LLMAPIKey,
			BaseURL: p.LLMBaseURL,
			Model:   p.ChatModel,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create llm service")
		}
		assistant, err := ai.NewAssistant(ai.AssistantConfig{
			APIKey:  p.LLMAPIKey,
			BaseURL: p.LLMBaseURL,
			Model:   p.ChatModel,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create assistant client")
		}

		ledger := chat.NewLedger(s, p.InputTokenRate, p.OutputTokenRate)
		orchestrator = chat.NewOrchestrator(s, assistant, ledger, dispatcher, chat.OrchestratorConfig{
			VectorStoreID: p.VectorStoreID,
			MaxSnippets:   p.MaxSnippets,
		})

		summarizer := chat.NewSummarizer(s, llmService, ledger)
		titleGenerator := chat.NewTitleGenerator(s, llmService, ledger)
		dispatcher.Register(chat.TaskSummarizeConversation, summarizer.Summarize, dispatch.RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: 2 * time.Second,
			MaxBackoff:     30 * time.Second,
		})
		dispatcher.Register(chat.TaskGenerateTitle, titleGenerator.Generate, dispatch.DefaultRetryPolicy)

		slog.Info("generation service initialized",
			"model", p.ChatModel,
			"vector_store_configured", p.VectorStoreID != "",
		)
	} else {
		slog.Warn("generation service not configured, chat streaming is unavailable")
	}
	dispatcher.Start(ctx)

	apiService := apiv1.NewAPIV1Service(p, s, orchestrator)
	apiService.Register(e.Group("/api/v1"))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return &Server{
		e:          e,
		profile:    p,
		store:      s,
		dispatcher: dispatcher,
	}, nil
}

// Start begins serving in the background. Listener failures after startup are
// logged, not returned.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	go func() {
		if err := s.e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped unexpectedly", "error", err)
		}
	}()
	return nil
}

// Shutdown drains the HTTP server and the background dispatcher, then closes
// the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.e.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down http server", "error", err)
	}
	if err := s.dispatcher.Shutdown(ctx); err != nil {
		slog.Error("failed to drain dispatcher", "error", err)
	}
	if err := s.store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("thomas stopped")
}
