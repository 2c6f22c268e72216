// Package trainerconfig loads trainer hyperparameters from a YAML file with
// a "default" section and optional per-brain sections that override it.
package trainerconfig

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"go.yaml.in/yaml/v3"
)

// DefaultSection is the section every brain inherits from.
const DefaultSection = "default"

// ErrNoDefaultSection is returned when the file has no default section.
var ErrNoDefaultSection = errors.New("trainer config has no default section")

// Trainer names accepted in the trainer field.
const (
	TrainerPPO       = "ppo"
	TrainerSAC       = "sac"
	TrainerOfflineBC = "offline_bc"
	TrainerOnlineBC  = "online_bc"
)

// RewardSignal configures one reward signal.
type RewardSignal struct {
	Strength float64 `yaml:"strength"`
	Gamma    float64 `yaml:"gamma"`
}

// Hyperparameters is the resolved trainer configuration for one brain.
type Hyperparameters struct {
	Trainer        string                  `yaml:"trainer"`
	BatchSize      int                     `yaml:"batch_size"`
	Beta           float64                 `yaml:"beta"`
	BufferSize     int                     `yaml:"buffer_size"`
	Epsilon        float64                 `yaml:"epsilon"`
	HiddenUnits    int                     `yaml:"hidden_units"`
	Lambd          float64                 `yaml:"lambd"`
	LearningRate   float64                 `yaml:"learning_rate"`
	MaxSteps       float64                 `yaml:"max_steps"`
	MemorySize     int                     `yaml:"memory_size"`
	Normalize      bool                    `yaml:"normalize"`
	NumEpoch       int                     `yaml:"num_epoch"`
	NumLayers      int                     `yaml:"num_layers"`
	TimeHorizon    int                     `yaml:"time_horizon"`
	SequenceLength int                     `yaml:"sequence_length"`
	SummaryFreq    int                     `yaml:"summary_freq"`
	UseRecurrent   bool                    `yaml:"use_recurrent"`
	RewardSignals  map[string]RewardSignal `yaml:"reward_signals"`
}

// Validate checks the resolved values for obvious mistakes.
func (h *Hyperparameters) Validate() error {
	switch h.Trainer {
	case TrainerPPO, TrainerSAC, TrainerOfflineBC, TrainerOnlineBC:
	case "":
		return errors.New("trainer is not set")
	default:
		return fmt.Errorf("unknown trainer %q", h.Trainer)
	}
	if h.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", h.BatchSize)
	}
	if h.BufferSize < h.BatchSize {
		return fmt.Errorf("buffer_size (%d) must be at least batch_size (%d)", h.BufferSize, h.BatchSize)
	}
	if h.NumLayers <= 0 {
		return fmt.Errorf("num_layers must be positive, got %d", h.NumLayers)
	}
	if h.HiddenUnits <= 0 {
		return fmt.Errorf("hidden_units must be positive, got %d", h.HiddenUnits)
	}
	if (h.Trainer == TrainerPPO || h.Trainer == TrainerSAC) && len(h.RewardSignals) == 0 {
		return fmt.Errorf("%s trainer needs at least one reward signal", h.Trainer)
	}
	return nil
}

// Config holds the raw sections of a trainer config file.
type Config struct {
	sections map[string]map[string]interface{}
}

// Load reads the trainer config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trainer config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing trainer config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes trainer config content.
func Parse(data []byte) (*Config, error) {
	sections := make(map[string]map[string]interface{})
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("unmarshaling trainer config: %w", err)
	}
	if _, ok := sections[DefaultSection]; !ok {
		return nil, ErrNoDefaultSection
	}
	return &Config{sections: sections}, nil
}

// Brains returns the names of the brain-specific sections, sorted.
func (c *Config) Brains() []string {
	brains := make([]string, 0, len(c.sections))
	for name := range c.sections {
		if name == DefaultSection {
			continue
		}
		brains = append(brains, name)
	}
	sort.Strings(brains)
	return brains
}

// ForBrain resolves the hyperparameters for brain: the default section with
// the brain's own section, if any, laid over it key by key.
func (c *Config) ForBrain(brain string) (*Hyperparameters, error) {
	merged := make(map[string]interface{}, len(c.sections[DefaultSection]))
	for k, v := range c.sections[DefaultSection] {
		merged[k] = v
	}
	for k, v := range c.sections[brain] {
		merged[k] = v
	}

	raw, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encoding hyperparameters for %s: %w", brain, err)
	}
	h := &Hyperparameters{}
	if err := yaml.Unmarshal(raw, h); err != nil {
		return nil, fmt.Errorf("decoding hyperparameters for %s: %w", brain, err)
	}
	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("hyperparameters for %s: %w", brain, err)
	}
	return h, nil
}
