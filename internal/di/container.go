package di

import (
	"fmt"

	"databricks-agent/internal/adapter/tool"
	"databricks-agent/internal/application/port/input"
	"databricks-agent/internal/application/port/output"
	"databricks-agent/internal/application/service"
	"databricks-agent/internal/infrastructure/config"
	"databricks-agent/internal/infrastructure/llm/databricks"
	"databricks-agent/internal/infrastructure/logger"
	"databricks-agent/internal/infrastructure/prompts"
	"databricks-agent/internal/infrastructure/userinteraction"
	"databricks-agent/internal/usecase/executor"
)

type Container struct {
	LLM          output.LLMPort
	Logger       output.LoggerPort
	Tools        output.ToolRegistry
	UI           output.UserInteractionPort
	TaskExecutor input.TaskExecutor
}

type Config struct {
	Agent         config.AgentConfig
	WorkspaceRoot string
}

func NewContainer(cfg Config) (*Container, error) {
	log, err := logger.NewLoggerAdapter("agent")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	llmCfg, err := databricks.ConfigFromEnv(cfg.Agent.Model)
	if err != nil {
		log.Close()
		return nil, err
	}
	if cfg.Agent.Endpoint != "" {
		llmCfg.Endpoint = cfg.Agent.Endpoint
	}
	llmCfg.MaxRetries = cfg.Agent.MaxRetries
	llmCfg.PromptCaching = cfg.Agent.CachingEnabled()
	llmCfg.ThinkingBudget = cfg.Agent.ThinkingBudget
	llmCfg.Logger = log

	llm, err := databricks.NewDatabricksAdapter(llmCfg)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create llm adapter: %w", err)
	}

	ui := userinteraction.NewConsoleUserInteraction()

	root := cfg.WorkspaceRoot
	if root == "" {
		root = "."
	}
	tools := service.NewToolRegistry()
	registerWorkspaceTools(tools, root, ui, log)

	systemPrompt := cfg.Agent.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = prompts.DefaultSystemPrompt
	}

	uc := executor.New(llm, tools, log, executor.Options{
		SystemPrompt:    systemPrompt,
		MaxTokens:       cfg.Agent.MaxTokens,
		Temperature:     cfg.Agent.Temperature,
		MaxIterations:   cfg.Agent.MaxIterations,
		UserInteraction: ui,
	})

	return &Container{
		LLM:          llm,
		Logger:       log,
		Tools:        tools,
		UI:           ui,
		TaskExecutor: uc,
	}, nil
}

func (c *Container) Close() {
	if c.Logger != nil {
		c.Logger.Close()
	}
}

func registerWorkspaceTools(registry *service.ToolRegistryImpl, root string, ui output.UserInteractionPort, log output.LoggerPort) {
	registry.Register(tool.NewReadFileTool(root, log))
	registry.Register(tool.NewListFilesTool(root, log))
	registry.Register(tool.NewUserAskTool(ui, log))
}
