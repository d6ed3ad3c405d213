package output

import (
	"context"

	"databricks-agent/internal/domain/entity"
)

type LLMPort interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

type GenerateRequest struct {
	Messages     []entity.Message
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
	Tools        []entity.ToolDefinition
	ToolChoice   any
}

type GenerateResponse struct {
	Messages []entity.Message
	Metadata entity.GenerationMetadata
}
