package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/curricula/internal/curriculum"
	"github.com/ShayCichocki/curricula/internal/trainerconfig"
)

var showRunID string

var showCmd = &cobra.Command{
	Use:   "show [brain...]",
	Short: "Show curricula and current lessons",
	Long: `Display every curriculum in the curriculum folder.

For each brain shows the measure, thresholds, minimum lesson length, the
current lesson and its reset parameters. Lessons are restored from the
latest active run when a state database exists. When a trainer config is
present, the resolved buffer size is shown next to the minimum lesson
length.`,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&showRunID, "run", "", "Restore lessons from this run")
}

func runShow(cmd *cobra.Command, args []string) error {
	mc, run, err := loadAtRun(showRunID)
	if err != nil {
		return err
	}

	trainer := loadTrainerConfig()

	brains := mc.Brains()
	if len(args) > 0 {
		brains = args
	}

	fmt.Printf("Curriculum folder: %s\n", mc.Dir())
	if run != nil {
		fmt.Printf("Run: %s (%s)\n", run.ID, run.Status)
	}
	fmt.Println()

	bold := color.New(color.Bold)
	for _, brain := range brains {
		entry, ok := mc.Curriculum(brain)
		if !ok {
			return fmt.Errorf("unknown brain: %s", brain)
		}
		c, ok := entry.(*curriculum.Curriculum)
		if !ok {
			continue
		}

		bold.Printf("%s\n", brain)
		fmt.Printf("  File:              %s\n", mc.Path(brain))
		fmt.Printf("  Measure:           %s\n", c.Measure())
		fmt.Printf("  Thresholds:        %s\n", formatFloats(c.Thresholds()))
		fmt.Printf("  Signal smoothing:  %t\n", c.SignalSmoothing())
		fmt.Printf("  Min lesson length: %d\n", c.MinLessonLength())
		if trainer != nil {
			if h, err := trainer.ForBrain(brain); err == nil {
				fmt.Printf("  Buffer size:       %d\n", h.BufferSize)
			} else {
				fmt.Printf("  Buffer size:       %s\n", color.RedString(err.Error()))
			}
		}
		fmt.Printf("  Lesson:            %d of %d\n", c.LessonNum(), c.MaxLessonNum())
		config := c.Config()
		for _, name := range config.Keys() {
			fmt.Printf("    %s = %g\n", name, config[name])
		}
		fmt.Println()
	}
	return nil
}

// loadTrainerConfig returns the configured trainer config, or nil when it
// is unset or missing.
func loadTrainerConfig() *trainerconfig.Config {
	path := appConfig.Trainer.Config
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	cfg, err := trainerconfig.Load(path)
	if err != nil {
		appLogger.Log("trainer config ignored: %v", err)
		return nil
	}
	return cfg
}

func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
