// Package config handles configuration loading and management for curricula.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ProjectConfigName is the project-level override file searched for from
// the working directory upwards.
const ProjectConfigName = ".curricula.yaml"

// NoStartLesson means lessons are not forced to a start value.
const NoStartLesson = -1

// Config holds all configuration for curricula.
type Config struct {
	Curriculum CurriculumConfig `mapstructure:"curriculum"`
	Trainer    TrainerConfig    `mapstructure:"trainer"`
	State      StateConfig      `mapstructure:"state"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Watch      WatchConfig      `mapstructure:"watch"`
}

// CurriculumConfig locates the curriculum folder.
type CurriculumConfig struct {
	// Dir holds one curriculum file per brain.
	Dir string `mapstructure:"dir"`
	// Lesson forces every brain to this lesson at start (-1 to keep).
	Lesson int `mapstructure:"lesson"`
}

// TrainerConfig locates the trainer hyperparameter file.
type TrainerConfig struct {
	Config string `mapstructure:"config"`
}

// StateConfig holds run persistence settings.
type StateConfig struct {
	// DB is the SQLite path. Empty means the project-local default.
	DB string `mapstructure:"db"`
}

// LoggingConfig holds debug log settings.
type LoggingConfig struct {
	// File is the debug log path. Empty disables file logging.
	File string `mapstructure:"file"`
}

// WatchConfig holds curriculum folder watch settings.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (CURRICULA_CURRICULUM_DIR, ...)
// 2. Project config (.curricula.yaml in current directory or parent)
// 3. User config (~/.config/curricula/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	bindEnv(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(cfg)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	bindEnv(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(cfg)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return SaveToPath(cfg, filepath.Join(userConfigDir, "config.yaml"))
}

// SaveToPath writes cfg as YAML to path.
func SaveToPath(cfg *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)

	v.Set("curriculum.dir", cfg.Curriculum.Dir)
	v.Set("curriculum.lesson", cfg.Curriculum.Lesson)
	v.Set("trainer.config", cfg.Trainer.Config)
	v.Set("state.db", cfg.State.DB)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("watch.debounce", cfg.Watch.Debounce.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("curriculum.dir", "curricula")
	v.SetDefault("curriculum.lesson", NoStartLesson)

	v.SetDefault("trainer.config", "trainer_config.yaml")

	v.SetDefault("state.db", "")

	v.SetDefault("logging.file", "")

	v.SetDefault("watch.debounce", "250ms")
}

// bindEnv maps CURRICULA_SECTION_KEY variables onto section.key.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("CURRICULA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// expandPaths expands ${VAR} references in path settings.
func expandPaths(cfg *Config) {
	cfg.Curriculum.Dir = expandEnv(cfg.Curriculum.Dir)
	cfg.Trainer.Config = expandEnv(cfg.Trainer.Config)
	cfg.State.DB = expandEnv(cfg.State.DB)
	cfg.Logging.File = expandEnv(cfg.Logging.File)
}

// getUserConfigDir returns the XDG config directory for curricula.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "curricula")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "curricula")
	}
	return filepath.Join(home, ".config", "curricula")
}

// findProjectConfig searches for .curricula.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Curriculum: CurriculumConfig{
			Dir:    "curricula",
			Lesson: NoStartLesson,
		},
		Trainer: TrainerConfig{
			Config: "trainer_config.yaml",
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
		},
	}
}
