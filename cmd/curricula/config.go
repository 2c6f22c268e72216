package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/curricula/internal/config"
)

var configProject bool

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify curricula configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/curricula/config.yaml
Project-specific overrides can be placed in .curricula.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
			return nil
		case 1:
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		default:
			return setConfigKey(cfg, args[0], args[1])
		}
	},
}

func init() {
	configCmd.Flags().BoolVar(&configProject, "project", false, "Write to "+config.ProjectConfigName+" in the current directory")
}

var configKeys = []string{
	"curriculum.dir",
	"curriculum.lesson",
	"trainer.config",
	"state.db",
	"logging.file",
	"watch.debounce",
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	for _, key := range configKeys {
		value, _ := getConfigValue(cfg, key)
		if value == "" {
			value = "(not set)"
		}
		fmt.Printf("%s: %s\n", key, value)
	}
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) error {
	if err := setConfigValue(cfg, key, value); err != nil {
		return err
	}

	var err error
	if configProject {
		err = config.SaveToPath(cfg, config.ProjectConfigName)
	} else {
		err = config.Save(cfg)
	}
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "curriculum.dir":
		return cfg.Curriculum.Dir, nil
	case "curriculum.lesson":
		return strconv.Itoa(cfg.Curriculum.Lesson), nil
	case "trainer.config":
		return cfg.Trainer.Config, nil
	case "state.db":
		return cfg.State.DB, nil
	case "logging.file":
		return cfg.Logging.File, nil
	case "watch.debounce":
		return cfg.Watch.Debounce.String(), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "curriculum.dir":
		cfg.Curriculum.Dir = value
	case "curriculum.lesson":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for curriculum.lesson: %w", err)
		}
		if n < config.NoStartLesson {
			return fmt.Errorf("invalid value for curriculum.lesson: %d", n)
		}
		cfg.Curriculum.Lesson = n
	case "trainer.config":
		cfg.Trainer.Config = value
	case "state.db":
		cfg.State.DB = value
	case "logging.file":
		cfg.Logging.File = value
	case "watch.debounce":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for watch.debounce: %w", err)
		}
		cfg.Watch.Debounce = d
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
