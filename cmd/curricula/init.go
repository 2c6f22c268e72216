package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/curricula/internal/config"
)

var (
	initForce    bool
	initNoGitIgn bool
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a curricula project",
	Long: `Initialize a directory for use with curricula.

This command sets up:
  - A curricula/ folder with an example curriculum per brain
  - trainer_config.yaml with default and per-brain hyperparameters
  - .curricula.yaml pointing at both
  - .curricula/ for the run database and logs

Existing files are left untouched unless --force is given.

Examples:
  curricula init              # Initialize current directory
  curricula init ./wall-jump  # Initialize specific directory
  curricula init --force      # Overwrite the example files`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing example files")
	initCmd.Flags().BoolVar(&initNoGitIgn, "no-gitignore", false, "Do not touch .gitignore")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	fmt.Printf("Initializing curricula in %s...\n\n", absPath)

	if err := os.MkdirAll(filepath.Join(absPath, ".curricula", "logs"), 0755); err != nil {
		return fmt.Errorf("creating .curricula directory: %w", err)
	}
	printStatus("✓", "Created .curricula directory structure", color.FgGreen)

	written, err := createExampleCurricula(absPath, initForce)
	if err != nil {
		return fmt.Errorf("creating example curricula: %w", err)
	}
	if written {
		printStatus("✓", "Created example curricula in curricula/", color.FgGreen)
	} else {
		printStatus("⚠", "curricula/ already has files, left untouched", color.FgYellow)
	}

	written, err = writeIfMissing(filepath.Join(absPath, exampleTrainerConfigName), exampleTrainerConfig, initForce)
	if err != nil {
		return fmt.Errorf("creating trainer config: %w", err)
	}
	if written {
		printStatus("✓", "Created "+exampleTrainerConfigName, color.FgGreen)
	} else {
		printStatus("⚠", exampleTrainerConfigName+" exists, left untouched", color.FgYellow)
	}

	written, err = writeIfMissing(filepath.Join(absPath, config.ProjectConfigName), projectConfigTemplate, initForce)
	if err != nil {
		return fmt.Errorf("creating project config: %w", err)
	}
	if written {
		printStatus("✓", "Created "+config.ProjectConfigName, color.FgGreen)
	}

	if !initNoGitIgn {
		if err := updateGitignore(absPath); err != nil {
			return fmt.Errorf("updating .gitignore: %w", err)
		}
		printStatus("✓", "Updated .gitignore with curricula entries", color.FgGreen)
	}

	fmt.Printf("\n%s curricula initialization complete!\n\n", color.GreenString("✓"))
	fmt.Println("Next steps:")
	fmt.Println("  1. Inspect the lessons:")
	fmt.Println("     curricula show")
	fmt.Println()
	fmt.Println("  2. Report measures from your training loop:")
	fmt.Println("     curricula advance --measure BigWallBrain=0.8 --buffer BigWallBrain=120")
	fmt.Println()
	fmt.Println("  3. Get the reset parameters for the next episode:")
	fmt.Println("     curricula params")
	return nil
}

const exampleCurriculaDir = "curricula"

const exampleTrainerConfigName = "trainer_config.yaml"

var exampleCurricula = map[string]string{
	"BigWallBrain.json": `{
    "measure" : "progress",
    "thresholds" : [0.1, 0.3, 0.5],
    "min_lesson_length" : 100,
    "signal_smoothing" : true,
    "parameters" :
    {
        "big_wall_min_height" : [0.0, 4.0, 6.0, 8.0],
        "big_wall_max_height" : [4.0, 7.0, 8.0, 8.0]
    }
}
`,
	"SmallWallBrain.json": `{
    "measure" : "progress",
    "thresholds" : [0.1, 0.3, 0.5],
    "min_lesson_length" : 100,
    "signal_smoothing" : true,
    "parameters" :
    {
        "small_wall_height" : [1.5, 2.0, 2.5, 4.0]
    }
}
`,
}

const exampleTrainerConfig = `default:
  trainer: ppo
  batch_size: 1024
  beta: 5.0e-3
  buffer_size: 10240
  epsilon: 0.2
  hidden_units: 128
  lambd: 0.95
  learning_rate: 3.0e-4
  max_steps: 5.0e5
  memory_size: 256
  normalize: false
  num_epoch: 3
  num_layers: 2
  time_horizon: 64
  sequence_length: 64
  summary_freq: 1000
  use_recurrent: false
  reward_signals:
    extrinsic:
      strength: 1.0
      gamma: 0.99

BigWallBrain:
  batch_size: 128
  buffer_size: 2048
  hidden_units: 256
  max_steps: 1.0e6
  time_horizon: 128

SmallWallBrain:
  batch_size: 128
  buffer_size: 2048
  hidden_units: 256
  time_horizon: 128
`

const projectConfigTemplate = `# curricula project configuration
# This file overrides defaults from ~/.config/curricula/config.yaml

curriculum:
  dir: curricula
  # lesson: -1

trainer:
  config: trainer_config.yaml

# state:
#   db: .curricula/state.db

# logging:
#   file: .curricula/logs/curricula.log

# watch:
#   debounce: 200ms
`

// createExampleCurricula writes the example curriculum files. It reports
// false when the folder already had files and force is not set.
func createExampleCurricula(root string, force bool) (bool, error) {
	dir := filepath.Join(root, exampleCurriculaDir)
	if !force {
		entries, err := os.ReadDir(dir)
		if err == nil && len(entries) > 0 {
			return false, nil
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, err
	}
	for name, content := range exampleCurricula {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			return false, err
		}
	}
	return true, nil
}

// writeIfMissing writes content to path unless the file exists and force is
// not set. It reports whether the file was written.
func writeIfMissing(path, content string, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return false, err
	}
	return true, nil
}

// updateGitignore adds curricula entries to .gitignore if not present
func updateGitignore(root string) error {
	gitignorePath := filepath.Join(root, ".gitignore")

	var existingContent string
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existingContent = string(data)
	}

	entries := []string{
		".curricula/state.db*",
		".curricula/logs/",
	}

	var missing []string
	for _, entry := range entries {
		if !strings.Contains(existingContent, entry) {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var newContent strings.Builder
	newContent.WriteString(existingContent)
	if len(existingContent) > 0 && !strings.HasSuffix(existingContent, "\n") {
		newContent.WriteString("\n")
	}
	newContent.WriteString("\n# curricula\n")
	for _, entry := range missing {
		newContent.WriteString(entry + "\n")
	}

	return os.WriteFile(gitignorePath, []byte(newContent.String()), 0644)
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
