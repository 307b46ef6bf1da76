package steps

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type SearchConfig struct {
	TopK      int     `yaml:"top_k"`
	ScoreMin  float64 `yaml:"score_min"`
	Overfetch int     `yaml:"overfetch"`
}

type PlanConfig struct {
	ReuseMinScore   float64 `yaml:"reuse_min_score"`
	EnforceMinScore float64 `yaml:"enforce_min_score"`
	Temperature     float64 `yaml:"temperature"`
}

type WriterConfig struct {
	OutlineTemperature float64 `yaml:"outline_temperature"`
	MaxLessons         int     `yaml:"max_lessons"`
	Parallel           int     `yaml:"parallel"`
	MinWords           int     `yaml:"min_words"`
}

type ExpanderConfig struct {
	PrimaryTemperature float64       `yaml:"primary_temperature"`
	RetryTemperature   float64       `yaml:"retry_temperature"`
	RetryBackoff       time.Duration `yaml:"retry_backoff"`
}

// PipelineConfig holds the planner and writer tunables.
type PipelineConfig struct {
	Search   SearchConfig   `yaml:"search"`
	Plan     PlanConfig     `yaml:"plan"`
	Writer   WriterConfig   `yaml:"writer"`
	Expander ExpanderConfig `yaml:"expander"`
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Search: SearchConfig{TopK: 8, ScoreMin: 0.3, Overfetch: 2},
		Plan: PlanConfig{
			ReuseMinScore:   0.55,
			EnforceMinScore: 0.55,
			Temperature:     0.2,
		},
		Writer: WriterConfig{
			OutlineTemperature: 0.3,
			MaxLessons:         10,
			Parallel:           2,
			MinWords:           900,
		},
		Expander: ExpanderConfig{
			PrimaryTemperature: 0.4,
			RetryTemperature:   0.35,
			RetryBackoff:       600 * time.Millisecond,
		},
	}
}

// LoadPipelineConfig overlays the YAML file at path on the defaults. An empty path yields the defaults.
func LoadPipelineConfig(path string) (PipelineConfig, error) {
	cfg := DefaultPipelineConfig()
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read pipeline config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse pipeline config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("pipeline config %s: %w", path, err)
	}
	return cfg, nil
}

func (c PipelineConfig) Validate() error {
	switch {
	case c.Search.TopK <= 0:
		return fmt.Errorf("search.top_k must be positive")
	case c.Search.Overfetch < 1:
		return fmt.Errorf("search.overfetch must be >= 1")
	case c.Writer.MaxLessons <= 0:
		return fmt.Errorf("writer.max_lessons must be positive")
	case c.Writer.Parallel <= 0:
		return fmt.Errorf("writer.parallel must be positive")
	case c.Writer.MinWords <= 0:
		return fmt.Errorf("writer.min_words must be positive")
	case c.Expander.RetryBackoff < 0:
		return fmt.Errorf("expander.retry_backoff must not be negative")
	}
	return nil
}
