package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/brainstem-ai/brainstem/internal/config"
)

const defaultAnthropicMaxTokens = 4096

type anthropicBackend struct {
	id             string
	client         anthropic.Client
	model          anthropic.Model
	maxTokens      int
	requestTimeout time.Duration
	complexTimeout time.Duration
}

func newAnthropicBackend(id string, cfg config.LLMConfig) (Backend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("anthropic model is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &anthropicBackend{
		id:             id,
		client:         anthropic.NewClient(opts...),
		model:          anthropic.Model(cfg.Model),
		maxTokens:      cfg.MaxTokens,
		requestTimeout: cfg.RequestTimeout,
		complexTimeout: cfg.ComplexTimeout,
	}, nil
}

func newAnthropicBackendForTest(id, apiKey, model, baseURL string, httpClient *http.Client) (Backend, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
		// The SDK's own retry loop would hide the failures tests exercise.
		option.WithMaxRetries(0),
	}
	return &anthropicBackend{
		id:     id,
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(model),
	}, nil
}

func (b *anthropicBackend) ID() string { return b.id }

// Send translates the window into Anthropic message params and normalizes the
// response. All SDK errors come back classified.
func (b *anthropicBackend) Send(ctx context.Context, req Request) (*Response, error) {
	system, msgs, err := toAnthropicMessages(req.Messages)
	if err != nil {
		return nil, NewError(FailureMalformedResponse, b.id, err)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = b.maxTokens
	}
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	body := anthropic.MessageNewParams{
		Model:     b.model,
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
	}
	if system != "" {
		body.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(req.Tools) > 0 {
		body.Tools = toAnthropicTools(req.Tools)
	}

	callCtx, cancel := deadlineFor(ctx, req, b.requestTimeout, b.complexTimeout)
	defer cancel()

	msg, err := b.client.Messages.New(callCtx, body)
	if err != nil {
		return nil, b.classify(err)
	}

	var contentParts []string
	var calls []ToolCall
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			if v.Text != "" {
				contentParts = append(contentParts, v.Text)
			}
		case anthropic.ToolUseBlock:
			calls = append(calls, ToolCall{
				ID:        v.ID,
				Name:      v.Name,
				Arguments: string(v.Input),
			})
		}
	}

	if string(msg.StopReason) == "refusal" {
		return nil, NewError(FailureContentFiltered, b.id, fmt.Errorf("model refused the request"))
	}

	usage := Usage{
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens

	return &Response{
		Content:   strings.Join(contentParts, "\n"),
		ToolCalls: calls,
		Usage:     usage,
	}, nil
}

func (b *anthropicBackend) classify(err error) *Error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return classifyTransport(b.id, err)
	}
	switch {
	case apiErr.StatusCode == http.StatusRequestTimeout:
		return NewError(FailureTimeout, b.id, err)
	case apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500:
		return NewError(FailureUnavailable, b.id, err)
	default:
		return NewError(FailureMalformedResponse, b.id, err)
	}
}

func toAnthropicMessages(messages []Message) (string, []anthropic.MessageParam, error) {
	system := ""
	out := make([]anthropic.MessageParam, 0, len(messages))
	for i := 0; i < len(messages); {
		msg := messages[i]
		switch msg.Role {
		case RoleSystem:
			// Anthropic carries system instructions outside the message list.
			if system != "" {
				system += "\n"
			}
			system += msg.Content
			i++
		case RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			i++
		case RoleAssistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.ToolCalls)+1)
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				input := map[string]any{}
				if tc.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil {
						return "", nil, fmt.Errorf("parse assistant tool call args for %q: %w", tc.Name, err)
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			if len(blocks) == 0 {
				blocks = append(blocks, anthropic.NewTextBlock(""))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
			i++
		case RoleTool:
			// Anthropic requires all tool results from one assistant turn in a
			// single user message. Collect consecutive RoleTool entries.
			var resultBlocks []anthropic.ContentBlockParamUnion
			for i < len(messages) && messages[i].Role == RoleTool {
				if messages[i].ToolCallID == "" {
					return "", nil, fmt.Errorf("tool message requires tool_call_id")
				}
				resultBlocks = append(resultBlocks, anthropic.NewToolResultBlock(messages[i].ToolCallID, messages[i].Content, false))
				i++
			}
			out = append(out, anthropic.NewUserMessage(resultBlocks...))
		default:
			return "", nil, fmt.Errorf("unsupported message role %q", msg.Role)
		}
	}
	return system, out, nil
}

func toAnthropicTools(tools []ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		toolParam := anthropic.ToolParam{
			Name:        tool.Name,
			Description: anthropic.String(tool.Description),
			InputSchema: toAnthropicInputSchema(tool.Parameters),
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return out
}

func toAnthropicInputSchema(schema map[string]any) anthropic.ToolInputSchemaParam {
	if len(schema) == 0 {
		return anthropic.ToolInputSchemaParam{}
	}

	var required []string
	if rawRequired, ok := schema["required"]; ok {
		switch v := rawRequired.(type) {
		case []string:
			required = v
		case []any:
			required = make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					required = append(required, s)
				}
			}
		}
	}

	inputSchema := anthropic.ToolInputSchemaParam{
		Required: required,
	}
	if props, ok := schema["properties"]; ok {
		inputSchema.Properties = props
	}
	return inputSchema
}
