package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"databricks-agent/internal/application/port/output"
)

const maxFileSize = 256 * 1024

var _ output.ToolPort = (*ReadFileTool)(nil)

type ReadFileTool struct {
	root   string
	logger output.LoggerPort
}

func NewReadFileTool(root string, logger output.LoggerPort) *ReadFileTool {
	return &ReadFileTool{root: root, logger: logger}
}

func (t *ReadFileTool) Name() string        { return "read_file" }
func (t *ReadFileTool) Description() string { return "Reads a file from the workspace" }
func (t *ReadFileTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path relative to the workspace root",
			},
		},
		"required": []string{"path"},
	}
}

func (t *ReadFileTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	path, err := resolvePath(t.root, input.Path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", input.Path, err)
	}
	if info.Size() > maxFileSize {
		return "", fmt.Errorf("file %s is too large (%d bytes)", input.Path, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", input.Path, err)
	}

	t.logger.Debug("Read file", "path", input.Path, "bytes", len(data))
	return string(data), nil
}

// resolvePath joins and confines a relative path to the workspace root.
func resolvePath(root, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("path is required")
	}
	path := filepath.Join(root, rel)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if absPath != absRoot && !isWithin(absRoot, absPath) {
		return "", fmt.Errorf("path %s escapes the workspace", rel)
	}
	return absPath, nil
}

func isWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !filepath.IsAbs(rel) && rel != "" &&
		(len(rel) < 3 || rel[:3] != ".."+string(filepath.Separator))
}
