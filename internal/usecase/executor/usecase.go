package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"databricks-agent/internal/application/port/input"
	"databricks-agent/internal/application/port/output"
	"databricks-agent/internal/domain/entity"
)

var _ input.TaskExecutor = (*UseCase)(nil)

const (
	defaultMaxIterations = 50
	maxObservationLen    = 20000
)

type UseCase struct {
	llm           output.LLMPort
	tools         output.ToolRegistry
	logger        output.LoggerPort
	ui            output.UserInteractionPort
	systemPrompt  string
	maxTokens     int
	temperature   float32
	maxIterations int
}

type Options struct {
	SystemPrompt    string
	MaxTokens       int
	Temperature     float32
	MaxIterations   int
	UserInteraction output.UserInteractionPort
}

func New(
	llm output.LLMPort,
	tools output.ToolRegistry,
	logger output.LoggerPort,
	opts Options,
) *UseCase {
	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	return &UseCase{
		llm:           llm,
		tools:         tools,
		logger:        logger,
		ui:            opts.UserInteraction,
		systemPrompt:  opts.SystemPrompt,
		maxTokens:     opts.MaxTokens,
		temperature:   opts.Temperature,
		maxIterations: maxIterations,
	}
}

func (uc *UseCase) Execute(ctx context.Context, task string) (*input.ExecuteResult, error) {
	messages := []entity.Message{
		entity.TextMessage{Role: entity.RoleUser, Text: task},
	}

	toolDefs := uc.tools.Definitions()
	inputTokens, outputTokens := 0, 0

	for iteration := 1; iteration <= uc.maxIterations; iteration++ {
		uc.logger.Debug("Starting iteration", "iteration", iteration)
		if uc.ui != nil {
			uc.ui.ShowIteration(ctx, iteration, uc.maxIterations)
		}

		resp, err := uc.llm.Generate(ctx, output.GenerateRequest{
			Messages:     messages,
			SystemPrompt: uc.systemPrompt,
			MaxTokens:    uc.maxTokens,
			Temperature:  uc.temperature,
			Tools:        toolDefs,
		})
		if err != nil {
			return nil, fmt.Errorf("llm request failed: %w", err)
		}

		inputTokens += resp.Metadata.InputTokens
		outputTokens += resp.Metadata.OutputTokens

		messages = append(messages, resp.Messages...)

		invocations := toolInvocations(resp.Messages)
		if len(invocations) == 0 {
			return &input.ExecuteResult{
				FinalAnswer:  collectText(resp.Messages),
				Iterations:   iteration,
				InputTokens:  inputTokens,
				OutputTokens: outputTokens,
			}, nil
		}

		for _, inv := range invocations {
			observation := uc.executeTool(ctx, inv)

			messages = append(messages, entity.ToolResultMessage{
				ToolCallID: inv.ToolCallID,
				Content:    observation,
			})
		}
	}

	return nil, fmt.Errorf("max iterations (%d) exceeded", uc.maxIterations)
}

func (uc *UseCase) executeTool(ctx context.Context, inv entity.ToolInvocationMessage) string {
	tool, ok := uc.tools.Get(inv.Name)
	if !ok {
		uc.logger.Warn("Unknown tool called", "name", inv.Name)
		return fmt.Sprintf("Error: unknown tool '%s'", inv.Name)
	}

	args, err := json.Marshal(inv.Arguments)
	if err != nil {
		uc.logger.Error("Failed to encode tool arguments", "name", inv.Name, "error", err)
		return "Error: " + err.Error()
	}

	uc.logger.Info("Executing tool", "name", inv.Name, "args", string(args))
	if uc.ui != nil {
		uc.ui.ShowToolStart(ctx, inv.Name, string(args))
	}

	result, err := tool.Execute(ctx, string(args))
	if err != nil {
		uc.logger.Error("Tool execution failed", "name", inv.Name, "error", err)
		if uc.ui != nil {
			uc.ui.ShowToolResult(ctx, inv.Name, err.Error(), true)
		}
		return "Error: " + err.Error()
	}

	if len(result) > maxObservationLen {
		result = result[:maxObservationLen] + "\n... (truncated)"
	}

	uc.logger.Debug("Tool completed", "name", inv.Name, "resultLen", len(result))
	if uc.ui != nil {
		uc.ui.ShowToolResult(ctx, inv.Name, result, false)
	}
	return result
}

func toolInvocations(messages []entity.Message) []entity.ToolInvocationMessage {
	var result []entity.ToolInvocationMessage
	for _, msg := range messages {
		if inv, ok := msg.(entity.ToolInvocationMessage); ok {
			result = append(result, inv)
		}
	}
	return result
}

func collectText(messages []entity.Message) string {
	var parts []string
	for _, msg := range messages {
		if text, ok := msg.(entity.TextMessage); ok && text.Text != "" {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}
