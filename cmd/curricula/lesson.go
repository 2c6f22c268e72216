package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	lessonAll   int
	lessonRunID string
)

var lessonCmd = &cobra.Command{
	Use:   "lesson [BRAIN=N...]",
	Short: "Show or set lessons",
	Long: `Show or override the current lesson of each brain.

Without arguments, prints every brain's lesson. With BRAIN=N pairs, moves
the named brains to those lessons. Unknown brains are ignored and lessons
are clamped into each curriculum's range. --all moves every brain.

Examples:
  curricula lesson
  curricula lesson BigWallBrain=2
  curricula lesson --all 0`,
	RunE: runLesson,
}

func init() {
	lessonCmd.Flags().IntVar(&lessonAll, "all", -1, "Move every brain to this lesson")
	lessonCmd.Flags().StringVar(&lessonRunID, "run", "", "Run to modify (default: latest active)")
}

func runLesson(cmd *cobra.Command, args []string) error {
	nums, err := parseIntAssignments(args)
	if err != nil {
		return err
	}

	if nums == nil && !cmd.Flags().Changed("all") {
		mc, _, err := loadAtRun(lessonRunID)
		if err != nil {
			return err
		}
		printLessons(mc.LessonNums())
		return nil
	}

	tracker, db, err := openTracker(lessonRunID, true)
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.Flags().Changed("all") {
		if err := tracker.SetAllLessonNums(lessonAll); err != nil {
			return err
		}
	}
	if nums != nil {
		if err := tracker.SetLessonNums(nums); err != nil {
			return err
		}
	}

	printLessons(tracker.LessonNums())
	return nil
}

func printLessons(lessons map[string]int) {
	for _, brain := range sortedKeys(lessons) {
		fmt.Printf("%s: %d\n", brain, lessons[brain])
	}
}
