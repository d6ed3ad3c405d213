package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AgentConfig models configs/agent.yaml. Credentials never live here;
// they come from the environment only.
type AgentConfig struct {
	Model          string  `yaml:"model"`
	Endpoint       string  `yaml:"endpoint"`
	MaxRetries     int     `yaml:"max_retries"`
	PromptCaching  *bool   `yaml:"prompt_caching"`
	ThinkingBudget int     `yaml:"thinking_budget"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float32 `yaml:"temperature"`
	MaxIterations  int     `yaml:"max_iterations"`
	SystemPrompt   string  `yaml:"system_prompt"`
}

func Default() AgentConfig {
	caching := true
	return AgentConfig{
		Model:         "claude-sonnet-4",
		MaxRetries:    2,
		PromptCaching: &caching,
		MaxTokens:     8192,
		MaxIterations: 50,
	}
}

// LoadAgentConfig parses the YAML settings file. An empty path keeps
// the defaults; a missing file at an explicit path is an error.
func LoadAgentConfig(path string) (AgentConfig, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return AgentConfig{}, fmt.Errorf("read agent config: %w", err)
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return AgentConfig{}, fmt.Errorf("parse agent config: %w", err)
	}

	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = Default().MaxRetries
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = Default().MaxTokens
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = Default().MaxIterations
	}
	return cfg, nil
}

// CachingEnabled resolves the tri-state prompt_caching flag.
func (c AgentConfig) CachingEnabled() bool {
	if c.PromptCaching == nil {
		return true
	}
	return *c.PromptCaching
}
