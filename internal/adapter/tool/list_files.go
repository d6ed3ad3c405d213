package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"databricks-agent/internal/application/port/output"
)

var _ output.ToolPort = (*ListFilesTool)(nil)

type ListFilesTool struct {
	root   string
	logger output.LoggerPort
}

func NewListFilesTool(root string, logger output.LoggerPort) *ListFilesTool {
	return &ListFilesTool{root: root, logger: logger}
}

func (t *ListFilesTool) Name() string        { return "list_files" }
func (t *ListFilesTool) Description() string { return "Lists files and directories under a path" }
func (t *ListFilesTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Directory relative to the workspace root, defaults to the root",
			},
		},
	}
}

func (t *ListFilesTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if input.Path == "" {
		input.Path = "."
	}

	path, err := resolvePath(t.root, input.Path)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("list %s: %w", input.Path, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	t.logger.Debug("Listed directory", "path", input.Path, "entries", len(names))
	return strings.Join(names, "\n"), nil
}
