package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brainstem-ai/brainstem/internal/config"
)

const defaultOpenAIURL = "https://api.openai.com/v1/chat/completions"

// openAIBackend speaks the standard chat-completions wire format with a tools
// array and tool_choice auto, which several cloud providers accept.
type openAIBackend struct {
	id             string
	apiKey         string
	model          string
	maxTokens      int
	endpoint       string
	requestTimeout time.Duration
	complexTimeout time.Duration
	httpClient     *http.Client
}

func newOpenAIBackend(id string, cfg config.LLMConfig) (Backend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("openai model is required")
	}
	endpoint := cfg.BaseURL
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultOpenAIURL
	}
	return &openAIBackend{
		id:             id,
		apiKey:         cfg.APIKey,
		model:          cfg.Model,
		maxTokens:      cfg.MaxTokens,
		endpoint:       endpoint,
		requestTimeout: cfg.RequestTimeout,
		complexTimeout: cfg.ComplexTimeout,
		httpClient:     http.DefaultClient,
	}, nil
}

func newOpenAIBackendForTest(id, apiKey, model, endpoint string, httpClient *http.Client) (Backend, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("openai endpoint is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &openAIBackend{
		id:         id,
		apiKey:     apiKey,
		model:      model,
		endpoint:   endpoint,
		httpClient: httpClient,
	}, nil
}

func (b *openAIBackend) ID() string { return b.id }

// Send submits one chat-completions request and normalizes the response.
func (b *openAIBackend) Send(ctx context.Context, req Request) (*Response, error) {
	payload := chatCompletionsRequest{
		Model:     b.model,
		Messages:  toWireMessages(req.Messages),
		MaxTokens: b.resolveMaxTokens(req.MaxTokens),
	}
	if len(req.Tools) > 0 {
		payload.Tools = toWireTools(req.Tools)
		// The model decides whether a tool call is needed.
		payload.ToolChoice = "auto"
	}

	callCtx, cancel := deadlineFor(ctx, req, b.requestTimeout, b.complexTimeout)
	defer cancel()

	parsed, err := b.post(callCtx, payload)
	if err != nil {
		return nil, err
	}
	return b.normalize(parsed)
}

func (b *openAIBackend) resolveMaxTokens(requested int) int {
	if requested > 0 {
		return requested
	}
	return b.maxTokens
}

func (b *openAIBackend) post(ctx context.Context, payload chatCompletionsRequest) (*chatCompletionsResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewError(FailureMalformedResponse, b.id, fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, NewError(FailureUnavailable, b.id, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	httpResp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(b.id, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, classifyTransport(b.id, err)
	}
	if kindErr := classifyStatus(b.id, httpResp.StatusCode, respBody); kindErr != nil {
		return nil, kindErr
	}

	var parsed chatCompletionsResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, NewError(FailureMalformedResponse, b.id, fmt.Errorf("decode response: %w", err))
	}
	return &parsed, nil
}

func (b *openAIBackend) normalize(parsed *chatCompletionsResponse) (*Response, error) {
	if len(parsed.Choices) == 0 {
		return nil, NewError(FailureMalformedResponse, b.id, fmt.Errorf("response has no choices"))
	}

	choice := parsed.Choices[0]
	if choice.FinishReason == "content_filter" {
		return nil, NewError(FailureContentFiltered, b.id, fmt.Errorf("response was filtered"))
	}

	msg := choice.Message
	toolCalls := make([]ToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		if tc.Function.Name == "" {
			return nil, NewError(FailureMalformedResponse, b.id, fmt.Errorf("tool call %q has no function name", tc.ID))
		}
		toolCalls = append(toolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return &Response{
		Content:   msg.Content,
		ToolCalls: toolCalls,
		Usage: Usage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
			TotalTokens:  parsed.Usage.TotalTokens,
		},
	}, nil
}

// classifyStatus maps HTTP status codes onto the failure taxonomy. A nil
// return means the status is a success.
func classifyStatus(backendID string, status int, body []byte) *Error {
	if status >= 200 && status < 300 {
		return nil
	}
	detail := fmt.Errorf("status %d: %s", status, strings.TrimSpace(string(body)))
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return NewError(FailureTimeout, backendID, detail)
	case status == http.StatusUnprocessableEntity || status == http.StatusForbidden:
		return NewError(FailureContentFiltered, backendID, detail)
	case status == http.StatusTooManyRequests || status >= 500:
		return NewError(FailureUnavailable, backendID, detail)
	default:
		return NewError(FailureMalformedResponse, backendID, detail)
	}
}

type chatCompletionsRequest struct {
	Model      string        `json:"model"`
	Messages   []wireMessage `json:"messages"`
	Tools      []wireTool    `json:"tools,omitempty"`
	ToolChoice string        `json:"tool_choice,omitempty"`
	MaxTokens  int           `json:"max_tokens,omitempty"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Arguments   string         `json:"arguments,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function wireFunction `json:"function"`
}

type chatCompletionsResponse struct {
	Choices []struct {
		Message      wireMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func toWireMessages(messages []Message) []wireMessage {
	out := make([]wireMessage, 0, len(messages))
	for _, msg := range messages {
		m := wireMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
		if msg.Role == RoleTool {
			m.ToolCallID = msg.ToolCallID
		}
		if len(msg.ToolCalls) > 0 {
			m.ToolCalls = make([]wireToolCall, 0, len(msg.ToolCalls))
			for _, tc := range msg.ToolCalls {
				m.ToolCalls = append(m.ToolCalls, wireToolCall{
					ID:   tc.ID,
					Type: "function",
					Function: wireFunction{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
		}
		out = append(out, m)
	}
	return out
}

func toWireTools(tools []ToolDefinition) []wireTool {
	out := make([]wireTool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, wireTool{
			Type: "function",
			Function: wireFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	return out
}
