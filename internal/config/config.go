// Package config loads runtime settings and the prompt and example documents.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var ErrMissingAPIKey = errors.New("API key is required")

type Temperatures struct {
	Profile  float32 `yaml:"profile"`
	Event    float32 `yaml:"event"`
	Schedule float32 `yaml:"schedule"`
}

type Config struct {
	Provider      string       `yaml:"provider"`
	APIKey        string       `yaml:"api_key"`
	Model         string       `yaml:"model"`
	ScheduleModel string       `yaml:"schedule_model"`
	BaseURL       string       `yaml:"base_url"`
	MaxTokens     int          `yaml:"max_tokens"`
	PromptsPath   string       `yaml:"prompts_path"`
	ExamplesPath  string       `yaml:"examples_path"`
	Port          string       `yaml:"port"`
	LogLevel      string       `yaml:"log_level"`
	Temperature   Temperatures `yaml:"temperature"`
}

const (
	DefaultProvider     = "gemini"
	DefaultPromptsPath  = "data/prompts.json"
	DefaultExamplesPath = "data/examples.json"
	DefaultPort         = "8080"
)

// Load reads the optional YAML file at path, then a .env file in the working
// directory if one exists, then environment overrides. Values present in the
// environment win over the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Provider, "GENERATOR_PROVIDER")
	setString(&c.Model, "GENERATOR_MODEL")
	setString(&c.ScheduleModel, "GENERATOR_SCHEDULE_MODEL")
	setString(&c.BaseURL, "GENERATOR_BASE_URL")
	setString(&c.PromptsPath, "PROMPTS_PATH")
	setString(&c.ExamplesPath, "EXAMPLES_PATH")
	setString(&c.Port, "PORT")
	setString(&c.LogLevel, "LOG_LEVEL")

	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	c.Provider = strings.ToLower(c.Provider)
	switch c.Provider {
	case "openai":
		setString(&c.APIKey, "OPENAI_API_KEY")
	default:
		setString(&c.APIKey, "GEMINI_API_KEY")
	}

	if v := os.Getenv("GENERATOR_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GENERATOR_MAX_TOKENS: %w", err)
		}
		c.MaxTokens = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.PromptsPath == "" {
		c.PromptsPath = DefaultPromptsPath
	}
	if c.ExamplesPath == "" {
		c.ExamplesPath = DefaultExamplesPath
	}
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Provider == "openai" {
		if c.Model == "" {
			c.Model = "gpt-3.5-turbo"
		}
		if c.ScheduleModel == "" {
			c.ScheduleModel = "gpt-3.5-turbo-16k"
		}
	}
	if c.Temperature.Profile == 0 {
		c.Temperature.Profile = 0.9
	}
	if c.Temperature.Event == 0 {
		c.Temperature.Event = 0.9
	}
	if c.Temperature.Schedule == 0 {
		c.Temperature.Schedule = 0.5
	}
}

// Validate reports the first setting the process cannot start without.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w for provider %s", ErrMissingAPIKey, c.Provider)
	}
	switch c.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unsupported provider %q", c.Provider)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
