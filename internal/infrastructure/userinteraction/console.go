package userinteraction

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"databricks-agent/internal/application/port/output"

	"github.com/fatih/color"
)

var _ output.UserInteractionPort = (*ConsoleUserInteraction)(nil)

type ConsoleUserInteraction struct {
	reader *bufio.Reader
}

func NewConsoleUserInteraction() *ConsoleUserInteraction {
	return &ConsoleUserInteraction{
		reader: bufio.NewReader(os.Stdin),
	}
}

func (u *ConsoleUserInteraction) AskQuestion(ctx context.Context, question string) (string, error) {
	fmt.Printf("\n[USER INPUT REQUIRED] %s\n> ", question)

	answer, err := u.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read user input: %w", err)
	}

	return strings.TrimSpace(answer), nil
}

func (u *ConsoleUserInteraction) ShowIteration(ctx context.Context, iteration, maxIterations int) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("\n--- Iteration %d/%d ---\n", iteration, maxIterations)
}

func (u *ConsoleUserInteraction) ShowToolStart(ctx context.Context, toolName, arguments string) {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Printf("\n> %s\n", toolName)

	if arguments != "" {
		dim := color.New(color.Faint)
		dim.Printf("   %s\n", truncate(arguments, 120))
	}
}

func (u *ConsoleUserInteraction) ShowToolResult(ctx context.Context, toolName, result string, isError bool) {
	if isError {
		red := color.New(color.FgRed)
		red.Print("error: ")

		dim := color.New(color.Faint)
		dim.Println(truncate(result, 300))
		return
	}

	green := color.New(color.FgGreen)
	green.Printf("ok %s\n", truncate(result, 100))
}

func (u *ConsoleUserInteraction) ShowAnswer(ctx context.Context, answer string) {
	bold := color.New(color.Bold)
	bold.Println("\nANSWER:")
	fmt.Println(answer)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
