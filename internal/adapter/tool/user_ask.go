package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"databricks-agent/internal/application/port/output"
)

var _ output.ToolPort = (*UserAskTool)(nil)

type UserAskTool struct {
	ui     output.UserInteractionPort
	logger output.LoggerPort
}

func NewUserAskTool(ui output.UserInteractionPort, logger output.LoggerPort) *UserAskTool {
	return &UserAskTool{ui: ui, logger: logger}
}

func (t *UserAskTool) Name() string        { return "user_ask_question" }
func (t *UserAskTool) Description() string { return "Asks the user a clarifying question" }
func (t *UserAskTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"question": map[string]interface{}{
				"type":        "string",
				"description": "The question to put to the user",
			},
		},
		"required": []string{"question"},
	}
}

func (t *UserAskTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if input.Question == "" {
		return "", fmt.Errorf("question is required")
	}

	t.logger.Info("Asking user", "question", input.Question)

	answer, err := t.ui.AskQuestion(ctx, input.Question)
	if err != nil {
		return "", err
	}
	return answer, nil
}
