package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	advanceMeasures []string
	advanceBuffers  []string
	advanceRunID    string
)

var advanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Offer measured training signals to the curricula",
	Long: `Offer one evaluation window's measures to the curricula.

Each brain whose measure exceeds its current threshold moves on one lesson.
When buffer sizes are given, a brain only moves on once its buffer holds at
least min_lesson_length entries. Brains without a buffer entry count as
empty. Changes are recorded against the run, which is started if no
active run exists.

Examples:
  curricula advance --measure BigWallBrain=0.4
  curricula advance --measure BigWallBrain=0.4 --buffer BigWallBrain=120`,
	RunE: runAdvance,
}

func init() {
	advanceCmd.Flags().StringArrayVarP(&advanceMeasures, "measure", "m", nil, "Measure for a brain (BRAIN=VALUE)")
	advanceCmd.Flags().StringArrayVarP(&advanceBuffers, "buffer", "b", nil, "Reward buffer size for a brain (BRAIN=N)")
	advanceCmd.Flags().StringVar(&advanceRunID, "run", "", "Run to advance (default: latest active)")
	advanceCmd.MarkFlagRequired("measure")
}

func runAdvance(cmd *cobra.Command, args []string) error {
	measures, err := parseFloatAssignments(advanceMeasures)
	if err != nil {
		return err
	}
	buffers, err := parseIntAssignments(advanceBuffers)
	if err != nil {
		return err
	}

	tracker, db, err := openTracker(advanceRunID, true)
	if err != nil {
		return err
	}
	defer db.Close()

	advanced, err := tracker.Step(measures, buffers)
	if err != nil {
		return err
	}

	lessons := tracker.LessonNums()
	for _, brain := range sortedKeys(advanced) {
		if advanced[brain] {
			printStatus("↑", fmt.Sprintf("%s advanced to lesson %d", brain, lessons[brain]), color.FgGreen)
		} else {
			printStatus("·", fmt.Sprintf("%s stays at lesson %d", brain, lessons[brain]), color.FgWhite)
		}
	}
	fmt.Printf("\nRun: %s\n\n", tracker.Run().ID)
	return writeParams(tracker.Config(), false)
}
