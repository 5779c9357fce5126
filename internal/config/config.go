package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Library   Library   `yaml:"library"`
	Sources   Sources   `yaml:"sources"`
	Embedding Embedding `yaml:"embedding"`
	Analysis  Analysis  `yaml:"analysis"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
}

type Library struct {
	DataDir string `yaml:"data_dir"`
}

type Sources struct {
	Feeds []Feed `yaml:"feeds"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Embedding struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Dimensions  int    `yaml:"dimensions"`
}

// Analysis holds every tunable threshold of the analysis engine. The exact
// coefficients are configuration, not code constants, so tests and deployments
// can override them per instance.
type Analysis struct {
	DefaultMaxDocuments int     `yaml:"default_max_documents"`
	MaxDocumentCap      int     `yaml:"max_document_cap"`
	MinStatementTokens  int     `yaml:"min_statement_tokens"`
	MaxStatementsPerDoc int     `yaml:"max_statements_per_doc"`
	ThemesPerDocument   int     `yaml:"themes_per_document"`
	MaxThemes           int     `yaml:"max_themes"`
	MinThemeFrequency   int     `yaml:"min_theme_frequency"`
	ClusterSimilarity   float64 `yaml:"cluster_similarity"`
	TopicalSimilarity   float64 `yaml:"topical_similarity"`
	MinConfidence       float64 `yaml:"min_confidence"`
	MaxContradictions   int     `yaml:"max_contradictions"`
	PairWorkers         int     `yaml:"pair_workers"`
	BudgetSeconds       int     `yaml:"budget_seconds"`
}

// Budget returns the per-request wall-clock budget.
func (a Analysis) Budget() time.Duration {
	return time.Duration(a.BudgetSeconds) * time.Second
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for agent-scholar.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "agent-scholar")
}

// DataDir returns the XDG data directory for agent-scholar.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "agent-scholar")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/agent-scholar/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'scholar init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	cfg, _ := parse(nil)
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Embedding: Embedding{
			Provider:    "ollama",
			Model:       "nomic-embed-text",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "text-embedding-3-small",
			APIKeyEnv:   "OPENAI_API_KEY",
			Dimensions:  256,
		},
		Analysis: Analysis{
			DefaultMaxDocuments: 20,
			MaxDocumentCap:      100,
			MinStatementTokens:  4,
			MaxStatementsPerDoc: 60,
			ThemesPerDocument:   15,
			MaxThemes:           20,
			MinThemeFrequency:   2,
			ClusterSimilarity:   0.75,
			TopicalSimilarity:   0.6,
			MinConfidence:       0.5,
			MaxContradictions:   50,
			PairWorkers:         4,
			BudgetSeconds:       120,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Library.DataDir != "" {
		return c.Library.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
