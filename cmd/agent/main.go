package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"databricks-agent/internal/di"
	"databricks-agent/internal/infrastructure/config"
	"databricks-agent/internal/infrastructure/env"
)

func main() {
	envService := env.NewEnvService()

	agentCfg, err := config.LoadAgentConfig(envService.Get("AGENT_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if endpoint := envService.Get("SERVING_ENDPOINT"); endpoint != "" {
		agentCfg.Endpoint = endpoint
	}
	agentCfg.ThinkingBudget = envService.GetInt("THINKING_BUDGET", agentCfg.ThinkingBudget)

	fmt.Println("\nEnter a task for the agent:")
	reader := bufio.NewReader(os.Stdin)
	task, err := reader.ReadString('\n')
	if err != nil {
		log.Fatal("Failed to read input: ", err)
	}
	task = strings.TrimSpace(task)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	workspace := envService.Get("WORKSPACE_ROOT")
	if workspace == "" {
		workspace = "."
	}

	container, err := di.NewContainer(di.Config{
		Agent:         agentCfg,
		WorkspaceRoot: workspace,
	})
	if err != nil {
		log.Fatalf("Initialization failed: %v", err)
	}
	defer container.Close()

	container.Logger.Info("Task started", "task", task, "endpoint", agentCfg.Endpoint)
	fmt.Println("\nAgent is working...")

	result, err := container.TaskExecutor.Execute(ctx, task)
	if err != nil {
		container.Logger.Error("Task failed", "error", err)
		fmt.Printf("\nExecution failed: %v\n", err)
		os.Exit(1)
	}

	container.Logger.Info("Task completed",
		"iterations", result.Iterations,
		"inputTokens", result.InputTokens,
		"outputTokens", result.OutputTokens)
	container.UI.ShowAnswer(ctx, result.FinalAnswer)
}
