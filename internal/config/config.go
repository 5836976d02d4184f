package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sejmwatch/sejmwatch-backend/internal/platform/envutil"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Chat   ChatConfig   `yaml:"chat"`
}

type ServerConfig struct {
	Port         string   `yaml:"port"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type ChatConfig struct {
	// ContextLimit caps how many context documents survive the merge.
	ContextLimit int `yaml:"context_limit"`
	// VectorK is the per-node-type nearest-neighbour budget.
	VectorK int `yaml:"vector_k"`
	// RelationalK is the full-text candidate budget.
	RelationalK int `yaml:"relational_k"`
	// MaxIterations bounds the agent tool loop per turn.
	MaxIterations int `yaml:"max_iterations"`
	// ContentCharBudget truncates inlined context document bodies.
	ContentCharBudget int `yaml:"content_char_budget"`
	// MergeNormalize applies per-source min-max score normalization before
	// the cross-source sort. Off keeps raw-score ordering.
	MergeNormalize bool `yaml:"merge_normalize"`
}

// Load reads the optional YAML file at path (or CONFIG_PATH, or ./config.yaml)
// and applies env overrides on top. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := defaults()

	if strings.TrimSpace(path) == "" {
		path = envutil.String("CONFIG_PATH", "config.yaml")
	}
	raw, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.Server.Port = envutil.String("PORT", cfg.Server.Port)
	cfg.Chat.ContextLimit = envutil.Int("CHAT_CONTEXT_LIMIT", cfg.Chat.ContextLimit)
	cfg.Chat.VectorK = envutil.Int("CHAT_VECTOR_K", cfg.Chat.VectorK)
	cfg.Chat.RelationalK = envutil.Int("CHAT_RELATIONAL_K", cfg.Chat.RelationalK)
	cfg.Chat.MaxIterations = envutil.Int("CHAT_MAX_ITERATIONS", cfg.Chat.MaxIterations)
	cfg.Chat.ContentCharBudget = envutil.Int("CHAT_CONTENT_CHAR_BUDGET", cfg.Chat.ContentCharBudget)
	cfg.Chat.MergeNormalize = envutil.Bool("CHAT_MERGE_NORMALIZE", cfg.Chat.MergeNormalize)

	cfg.clamp()
	return cfg, nil
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: "8080",
			AllowOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
			},
		},
		Chat: ChatConfig{
			ContextLimit:      5,
			VectorK:           5,
			RelationalK:       5,
			MaxIterations:     5,
			ContentCharBudget: 500,
		},
	}
}

func (c *Config) clamp() {
	if c.Chat.ContextLimit < 1 {
		c.Chat.ContextLimit = 1
	}
	if c.Chat.VectorK < 1 {
		c.Chat.VectorK = 1
	}
	if c.Chat.RelationalK < 1 {
		c.Chat.RelationalK = 1
	}
	if c.Chat.MaxIterations < 1 {
		c.Chat.MaxIterations = 1
	}
	if c.Chat.MaxIterations > 10 {
		c.Chat.MaxIterations = 10
	}
	if c.Chat.ContentCharBudget < 100 {
		c.Chat.ContentCharBudget = 100
	}
}
