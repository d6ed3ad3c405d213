package executor

import (
	"context"
	"errors"
	"testing"

	"databricks-agent/internal/application/port/output"
	"databricks-agent/internal/application/service"
	"databricks-agent/internal/domain/entity"
)

type scriptedLLM struct {
	responses []*output.GenerateResponse
	requests  []output.GenerateRequest
	err       error
}

func (s *scriptedLLM) Generate(ctx context.Context, req output.GenerateRequest) (*output.GenerateResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return resp, nil
}

type echoTool struct {
	calls []string
}

func (t *echoTool) Name() string        { return "echo" }
func (t *echoTool) Description() string { return "Echoes its input" }
func (t *echoTool) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}

func (t *echoTool) Execute(ctx context.Context, arguments string) (string, error) {
	t.calls = append(t.calls, arguments)
	return "echoed: " + arguments, nil
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}
func (l nopLogger) WithField(key string, value any) output.LoggerPort {
	return l
}
func (l nopLogger) WithFields(fields map[string]any) output.LoggerPort {
	return l
}
func (nopLogger) Close() error { return nil }

func TestExecute_PlainAnswer(t *testing.T) {
	llm := &scriptedLLM{
		responses: []*output.GenerateResponse{
			{
				Messages: []entity.Message{
					entity.TextMessage{Role: entity.RoleAssistant, Text: "the answer is 42"},
				},
				Metadata: entity.GenerationMetadata{InputTokens: 10, OutputTokens: 5},
			},
		},
	}

	uc := New(llm, service.NewToolRegistry(), nopLogger{}, Options{
		SystemPrompt: "be brief",
		MaxTokens:    100,
	})

	result, err := uc.Execute(context.Background(), "what is the answer?")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.FinalAnswer != "the answer is 42" {
		t.Errorf("Expected final answer, got %q", result.FinalAnswer)
	}
	if result.Iterations != 1 {
		t.Errorf("Expected 1 iteration, got %d", result.Iterations)
	}
	if result.InputTokens != 10 || result.OutputTokens != 5 {
		t.Errorf("Token accounting wrong: %d/%d", result.InputTokens, result.OutputTokens)
	}
	if llm.requests[0].SystemPrompt != "be brief" {
		t.Errorf("System prompt not passed through")
	}
}

func TestExecute_ToolLoop(t *testing.T) {
	llm := &scriptedLLM{
		responses: []*output.GenerateResponse{
			{
				Messages: []entity.Message{
					entity.ToolInvocationMessage{
						Role:       entity.RoleAssistant,
						ToolCallID: "call_1",
						Name:       "echo",
						Arguments:  map[string]any{"text": "ping"},
					},
				},
			},
			{
				Messages: []entity.Message{
					entity.TextMessage{Role: entity.RoleAssistant, Text: "done"},
				},
			},
		},
	}

	tool := &echoTool{}
	registry := service.NewToolRegistry()
	registry.Register(tool)

	uc := New(llm, registry, nopLogger{}, Options{MaxTokens: 100})

	result, err := uc.Execute(context.Background(), "echo something")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.FinalAnswer != "done" {
		t.Errorf("Expected 'done', got %q", result.FinalAnswer)
	}
	if result.Iterations != 2 {
		t.Errorf("Expected 2 iterations, got %d", result.Iterations)
	}
	if len(tool.calls) != 1 {
		t.Fatalf("Expected 1 tool call, got %d", len(tool.calls))
	}

	// The second request must contain the tool result linked to the call.
	secondReq := llm.requests[1]
	found := false
	for _, msg := range secondReq.Messages {
		if res, ok := msg.(entity.ToolResultMessage); ok {
			if res.ToolCallID != "call_1" {
				t.Errorf("Tool result has wrong call id %q", res.ToolCallID)
			}
			found = true
		}
	}
	if !found {
		t.Error("No ToolResultMessage in the follow-up request")
	}
}

func TestExecute_UnknownToolBecomesObservation(t *testing.T) {
	llm := &scriptedLLM{
		responses: []*output.GenerateResponse{
			{
				Messages: []entity.Message{
					entity.ToolInvocationMessage{
						Role:       entity.RoleAssistant,
						ToolCallID: "call_1",
						Name:       "no_such_tool",
						Arguments:  map[string]any{},
					},
				},
			},
			{
				Messages: []entity.Message{
					entity.TextMessage{Role: entity.RoleAssistant, Text: "gave up"},
				},
			},
		},
	}

	uc := New(llm, service.NewToolRegistry(), nopLogger{}, Options{MaxTokens: 100})

	result, err := uc.Execute(context.Background(), "try a tool")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.FinalAnswer != "gave up" {
		t.Errorf("Expected 'gave up', got %q", result.FinalAnswer)
	}
}

func TestExecute_LLMErrorPropagates(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("endpoint down")}

	uc := New(llm, service.NewToolRegistry(), nopLogger{}, Options{MaxTokens: 100})

	_, err := uc.Execute(context.Background(), "anything")
	if err == nil {
		t.Fatal("Expected error from Execute")
	}
	if !errors.Is(err, llm.err) {
		t.Errorf("Cause not preserved: %v", err)
	}
}

func TestExecute_MaxIterationsExceeded(t *testing.T) {
	llm := &scriptedLLM{
		responses: []*output.GenerateResponse{
			{
				Messages: []entity.Message{
					entity.ToolInvocationMessage{
						Role:       entity.RoleAssistant,
						ToolCallID: "call_1",
						Name:       "echo",
						Arguments:  map[string]any{"text": "again"},
					},
				},
			},
		},
	}

	tool := &echoTool{}
	registry := service.NewToolRegistry()
	registry.Register(tool)

	uc := New(llm, registry, nopLogger{}, Options{MaxTokens: 100, MaxIterations: 3})

	_, err := uc.Execute(context.Background(), "loop forever")
	if err == nil {
		t.Fatal("Expected max iterations error")
	}
	if len(tool.calls) != 3 {
		t.Errorf("Expected 3 tool calls, got %d", len(tool.calls))
	}
}
