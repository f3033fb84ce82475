package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// StreamEvent is one event from the grounded generation stream. It is a closed
// set: TextDelta, FileAnnotation, UsageFinal, and OtherEvent for event types
// this client does not interpret. Unknown types are ignorable, not errors.
type StreamEvent interface {
	isStreamEvent()
}

// TextDelta is an incremental chunk of output text.
type TextDelta struct {
	Text string
}

// FileAnnotation marks a grounding source used by the model output.
type FileAnnotation struct {
	FileID   string
	Filename string
}

// UsageFinal carries the token counts reported at stream completion.
type UsageFinal struct {
	InputTokens  int
	OutputTokens int
}

// OtherEvent is any event type the orchestrator has no use for.
type OtherEvent struct {
	Type string
}

func (TextDelta) isStreamEvent()      {}
func (FileAnnotation) isStreamEvent() {}
func (UsageFinal) isStreamEvent()     {}
func (OtherEvent) isStreamEvent()     {}

// GroundedRequest describes one grounded generation call.
type GroundedRequest struct {
	Instructions  string
	History       []Message
	VectorStoreID string
	MaxSnippets   int
	Temperature   float32
}

// AssistantConfig holds configuration for the grounded generation client.
type AssistantConfig struct {
	APIKey  string
	BaseURL string // default: https://api.openai.com/v1
	Model   string
	Timeout int // Stream timeout in seconds (default: 300)
}

// Assistant streams grounded responses from the Responses API with file_search
// enabled against a single vector store. go-openai has no Responses API
// support, so this client speaks the SSE wire format directly.
type Assistant struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	timeout    time.Duration
}

// NewAssistant creates a new grounded generation client.
func NewAssistant(cfg AssistantConfig) (*Assistant, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	httpClient := newHTTPClient()
	// The overall deadline is enforced per request; the stream must be able
	// to stay open longer than a unary call.
	httpClient.Timeout = 0

	return &Assistant{
		httpClient: httpClient,
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      cfg.Model,
		timeout:    timeout,
	}, nil
}

type responsesRequest struct {
	Model        string           `json:"model"`
	Instructions string           `json:"instructions"`
	Input        []responsesInput `json:"input"`
	Tools        []responsesTool  `json:"tools,omitempty"`
	Temperature  float32          `json:"temperature"`
	Stream       bool             `json:"stream"`
}

type responsesInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesTool struct {
	Type           string   `json:"type"`
	VectorStoreIDs []string `json:"vector_store_ids"`
	MaxNumResults  int      `json:"max_num_results"`
}

// streamFrame is the superset of fields this client reads from stream events.
type streamFrame struct {
	Type       string `json:"type"`
	Delta      string `json:"delta"`
	Annotation struct {
		Type     string `json:"type"`
		FileID   string `json:"file_id"`
		Filename string `json:"filename"`
	} `json:"annotation"`
	Response struct {
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	} `json:"response"`
}

// StreamGrounded starts a grounded generation call and returns the event
// channel plus an error channel. Both are closed when the stream ends. The
// caller owns cancellation through ctx.
func (a *Assistant) StreamGrounded(ctx context.Context, req *GroundedRequest) (<-chan StreamEvent, <-chan error) {
	eventChan := make(chan StreamEvent, 16)
	errChan := make(chan error, 1)

	go func() {
		defer close(eventChan)
		defer close(errChan)

		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		input := make([]responsesInput, 0, len(req.History))
		for _, msg := range req.History {
			input = append(input, responsesInput{Role: msg.Role, Content: msg.Content})
		}

		body := responsesRequest{
			Model:        a.model,
			Instructions: req.Instructions,
			Input:        input,
			Temperature:  req.Temperature,
			Stream:       true,
		}
		if req.VectorStoreID != "" {
			body.Tools = []responsesTool{{
				Type:           "file_search",
				VectorStoreIDs: []string{req.VectorStoreID},
				MaxNumResults:  req.MaxSnippets,
			}}
		}

		payload, err := json.Marshal(body)
		if err != nil {
			errChan <- fmt.Errorf("marshal request: %w", err)
			return
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/responses", bytes.NewReader(payload))
		if err != nil {
			errChan <- fmt.Errorf("build request: %w", err)
			return
		}
		httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "text/event-stream")

		resp, err := a.httpClient.Do(httpReq)
		if err != nil {
			errChan <- fmt.Errorf("generation request failed: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			errChan <- fmt.Errorf("generation request failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
			return
		}

		if err := a.relayEvents(ctx, resp.Body, eventChan); err != nil {
			select {
			case errChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	return eventChan, errChan
}

func (a *Assistant) relayEvents(ctx context.Context, body io.Reader, eventChan chan<- StreamEvent) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return nil
		}

		var frame streamFrame
		if err := json.Unmarshal([]byte(data), &frame); err != nil {
			slog.Warn("assistant: skipping malformed stream frame", "error", err)
			continue
		}

		var event StreamEvent
		switch frame.Type {
		case "response.output_text.delta":
			event = TextDelta{Text: frame.Delta}
		case "response.output_text.annotation.added":
			if frame.Annotation.FileID == "" {
				continue
			}
			event = FileAnnotation{
				FileID:   frame.Annotation.FileID,
				Filename: frame.Annotation.Filename,
			}
		case "response.completed":
			event = UsageFinal{
				InputTokens:  frame.Response.Usage.InputTokens,
				OutputTokens: frame.Response.Usage.OutputTokens,
			}
		case "response.failed", "error":
			return fmt.Errorf("generation stream reported failure: %s", data)
		default:
			event = OtherEvent{Type: frame.Type}
		}

		select {
		case eventChan <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}
