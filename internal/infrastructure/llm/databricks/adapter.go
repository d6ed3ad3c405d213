package databricks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"databricks-agent/internal/application/port/output"
	"databricks-agent/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
)

var _ output.LLMPort = (*DatabricksAdapter)(nil)

const (
	HostEnvVar  = "DATABRICKS_HOST"
	TokenEnvVar = "DATABRICKS_TOKEN"

	DefaultEndpoint   = "databricks-claude-sonnet-4"
	DefaultMaxRetries = 2

	retryBaseDelay    = 5 * time.Second
	retryJitter       = 0.2
	promptCachingBeta = "prompt-caching-2024-07-31"

	defaultCallTimeout = 10 * time.Minute
	maxErrorBodyLen    = 500
)

type Config struct {
	Host           string
	Token          string
	Model          string
	Endpoint       string
	MaxRetries     int
	PromptCaching  bool
	ThinkingBudget int
	HTTPClient     *http.Client
	Logger         output.LoggerPort
}

// ConfigFromEnv captures connection credentials from the process
// environment once. Both variables are required; the rest of the
// config carries defaults and can be adjusted before construction.
func ConfigFromEnv(model string) (Config, error) {
	var missing []string
	host := os.Getenv(HostEnvVar)
	if host == "" {
		missing = append(missing, HostEnvVar)
	}
	token := os.Getenv(TokenEnvVar)
	if token == "" {
		missing = append(missing, TokenEnvVar)
	}
	if len(missing) > 0 {
		return Config{}, &ConfigurationError{Missing: missing}
	}

	return Config{
		Host:          host,
		Token:         token,
		Model:         model,
		Endpoint:      DefaultEndpoint,
		MaxRetries:    DefaultMaxRetries,
		PromptCaching: true,
	}, nil
}

// DatabricksAdapter translates vendor-neutral messages into the
// serving endpoint's chat payload and back. Configuration is fixed at
// construction; each Generate call owns its working data, so
// concurrent calls against one adapter are safe.
type DatabricksAdapter struct {
	cfg    Config
	client *http.Client
	logger output.LoggerPort
	sleep  func(time.Duration)
}

func NewDatabricksAdapter(cfg Config) (*DatabricksAdapter, error) {
	var missing []string
	if cfg.Host == "" {
		missing = append(missing, HostEnvVar)
	}
	if cfg.Token == "" {
		missing = append(missing, TokenEnvVar)
	}
	if len(missing) > 0 {
		return nil, &ConfigurationError{Missing: missing}
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultCallTimeout}
		if cfg.Logger != nil {
			client.Transport = &loggingTransport{
				base:   http.DefaultTransport,
				logger: cfg.Logger,
			}
		}
	}

	return &DatabricksAdapter{
		cfg:    cfg,
		client: client,
		logger: cfg.Logger,
		sleep:  time.Sleep,
	}, nil
}

type invocationRequest struct {
	Model       string                         `json:"model,omitempty"`
	Messages    []openai.ChatCompletionMessage `json:"messages"`
	System      string                         `json:"system,omitempty"`
	MaxTokens   int                            `json:"max_tokens"`
	Temperature float32                        `json:"temperature"`
	Tools       []openai.Tool                  `json:"tools,omitempty"`
	ToolChoice  any                            `json:"tool_choice,omitempty"`
	Thinking    *thinkingConfig                `json:"thinking,omitempty"`
}

type thinkingConfig struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

func (a *DatabricksAdapter) Generate(ctx context.Context, req output.GenerateRequest) (*output.GenerateResponse, error) {
	wireMessages, err := convertMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	payload := invocationRequest{
		Model:       a.cfg.Model,
		Messages:    wireMessages,
		System:      req.SystemPrompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Tools:       convertTools(req.Tools),
		ToolChoice:  req.ToolChoice,
	}
	if a.cfg.ThinkingBudget > 0 {
		payload.Thinking = &thinkingConfig{
			Type:         "enabled",
			BudgetTokens: a.cfg.ThinkingBudget,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	raw, err := a.invokeWithRetry(ctx, uuid.NewString(), body)
	if err != nil {
		return nil, err
	}

	messages, err := a.convertResponse(raw)
	if err != nil {
		return nil, err
	}

	return &output.GenerateResponse{
		Messages: messages,
		Metadata: buildMetadata(raw),
	}, nil
}

func convertMessages(messages []entity.Message) ([]openai.ChatCompletionMessage, error) {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		switch m := msg.(type) {
		case entity.TextMessage:
			result = append(result, openai.ChatCompletionMessage{
				Role:    string(m.Role),
				Content: m.Text,
			})
		case entity.ToolInvocationMessage:
			args, err := json.Marshal(m.Arguments)
			if err != nil {
				return nil, fmt.Errorf("marshal tool arguments for %s: %w", m.ToolCallID, err)
			}
			result = append(result, openai.ChatCompletionMessage{
				Role: string(m.Role),
				ToolCalls: []openai.ToolCall{{
					ID:   m.ToolCallID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      m.Name,
						Arguments: string(args),
					},
				}},
			})
		case entity.ToolResultMessage:
			result = append(result, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Content,
				ToolCallID: m.ToolCallID,
			})
		default:
			return nil, &UnsupportedMessageTypeError{Type: fmt.Sprintf("%T", msg)}
		}
	}
	return result, nil
}

func convertTools(tools []entity.ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return result
}

func (a *DatabricksAdapter) invokeWithRetry(ctx context.Context, requestID string, body []byte) (any, error) {
	var lastErr error
	for attempt := 1; attempt <= a.cfg.MaxRetries; attempt++ {
		raw, err := a.invoke(ctx, body)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if attempt == a.cfg.MaxRetries {
			break
		}

		delay := retryDelay()
		if a.logger != nil {
			a.logger.Warn("Serving endpoint call failed, retrying",
				"requestId", requestID,
				"endpoint", a.cfg.Endpoint,
				"attempt", attempt,
				"maxRetries", a.cfg.MaxRetries,
				"delay", delay.String(),
				"error", err.Error())
		}
		a.sleep(delay)
	}
	return nil, &TransportError{Attempts: a.cfg.MaxRetries, Err: lastErr}
}

// retryDelay is the fixed base delay with ±20% jitter, deliberately
// not exponential. Every transport fault is treated as transient until
// the retry budget runs out.
func retryDelay() time.Duration {
	factor := 1 - retryJitter + 2*retryJitter*rand.Float64()
	return time.Duration(float64(retryBaseDelay) * factor)
}

func (a *DatabricksAdapter) invoke(ctx context.Context, body []byte) (any, error) {
	url := fmt.Sprintf("%s/serving-endpoints/%s/invocations",
		strings.TrimRight(a.cfg.Host, "/"), a.cfg.Endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.Token)
	if a.cfg.PromptCaching {
		req.Header.Set("anthropic-beta", promptCachingBeta)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call serving endpoint: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("serving endpoint returned %s: %s", resp.Status, truncateBody(data))
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return raw, nil
}

func (a *DatabricksAdapter) convertResponse(raw any) ([]entity.Message, error) {
	entry := firstPrediction(raw)

	if m, ok := entry.(map[string]any); ok {
		if content, ok := m["content"]; ok {
			return []entity.Message{entity.TextMessage{
				Role: entity.RoleAssistant,
				Text: asText(content),
			}}, nil
		}
		if calls, ok := m["tool_calls"].([]any); ok {
			return convertToolCalls(calls)
		}
	}

	// Unknown shapes degrade to opaque text rather than failing; this
	// keeps the agent running across upstream response-format drift.
	if a.logger != nil {
		a.logger.Warn("Unrecognized response shape, treating as plain text",
			"endpoint", a.cfg.Endpoint,
			"entry", fmt.Sprintf("%v", entry))
	}
	return []entity.Message{entity.TextMessage{
		Role: entity.RoleAssistant,
		Text: fmt.Sprintf("%v", entry),
	}}, nil
}

// firstPrediction unwraps the Databricks predictions envelope when
// present; bare chat-style bodies are used as the entry directly.
func firstPrediction(raw any) any {
	if m, ok := raw.(map[string]any); ok {
		if preds, ok := m["predictions"].([]any); ok && len(preds) > 0 {
			return preds[0]
		}
	}
	return raw
}

func convertToolCalls(calls []any) ([]entity.Message, error) {
	result := make([]entity.Message, 0, len(calls))
	for _, c := range calls {
		call, _ := c.(map[string]any)
		id, _ := call["id"].(string)
		fn, _ := call["function"].(map[string]any)
		name, _ := fn["name"].(string)
		rawArgs, _ := fn["arguments"].(string)

		args := map[string]any{}
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, &MalformedResponseError{ToolCallID: id, Err: err}
			}
		}

		result = append(result, entity.ToolInvocationMessage{
			Role:       entity.RoleAssistant,
			ToolCallID: id,
			Name:       name,
			Arguments:  args,
		})
	}
	return result, nil
}

func buildMetadata(raw any) entity.GenerationMetadata {
	meta := entity.GenerationMetadata{RawResponse: raw}
	m, ok := raw.(map[string]any)
	if !ok {
		return meta
	}
	usage, ok := m["usage"].(map[string]any)
	if !ok {
		return meta
	}
	meta.InputTokens = intField(usage, "input_tokens", "prompt_tokens")
	meta.OutputTokens = intField(usage, "output_tokens", "completion_tokens")
	return meta
}

func intField(m map[string]any, keys ...string) int {
	for _, k := range keys {
		if v, ok := m[k].(float64); ok {
			return int(v)
		}
	}
	return 0
}

func asText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func truncateBody(data []byte) string {
	s := string(data)
	if len(s) > maxErrorBodyLen {
		s = s[:maxErrorBodyLen] + "..."
	}
	return s
}
