package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/curricula/internal/progress"
	"github.com/ShayCichocki/curricula/internal/state"
)

var (
	statusRunID  string
	statusEvents int
	statusPurge  time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show run state",
	Long: `Display the state of the current training run.

Shows:
  - The active run and how long it has been going
  - Each brain's stored lesson
  - The most recent lesson changes
  - Recently finished runs`,
	RunE: runStatus,
}

var finishCmd = &cobra.Command{
	Use:   "finish [completed|failed|canceled]",
	Short: "Mark the active run as finished",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFinish,
}

func init() {
	statusCmd.Flags().StringVar(&statusRunID, "run", "", "Show this run instead of the active one")
	statusCmd.Flags().IntVar(&statusEvents, "events", 10, "Number of lesson changes to show")
	statusCmd.Flags().DurationVar(&statusPurge, "purge", 0, "Delete finished runs older than this before reporting")

	finishCmd.Flags().StringVar(&statusRunID, "run", "", "Run to finish (default: latest active)")
	rootCmd.AddCommand(finishCmd)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	upStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	downStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func runStatus(cmd *cobra.Command, args []string) error {
	path, err := dbPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("No runs yet. Run 'curricula advance --measure BRAIN=VALUE' to start one.")
		return nil
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if statusPurge > 0 {
		n, err := db.PurgeOldRuns(statusPurge)
		if err != nil {
			return err
		}
		fmt.Printf("Purged %d finished runs\n\n", n)
	}

	var run *state.Run
	if statusRunID != "" {
		run, err = db.GetRun(statusRunID)
	} else {
		dir, dirErr := curriculumDir()
		if dirErr != nil {
			return dirErr
		}
		active := state.RunActive
		run, err = db.GetLatestRunInDir(dir, &active)
	}
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}

	if run == nil {
		if statusRunID != "" {
			return fmt.Errorf("run %s not found", statusRunID)
		}
		fmt.Println("No active run for this curriculum folder.")
		return displayRecentRuns(db)
	}

	lessons, err := db.LoadLessonNums(run.ID)
	if err != nil {
		return err
	}
	events, err := db.ListLessonEvents(run.ID)
	if err != nil {
		return err
	}

	fmt.Println(boxStyle.Render(renderRun(run, lessons)))
	fmt.Println()
	if table := renderEvents(events, statusEvents); table != "" {
		fmt.Println(headerStyle.Render("Recent lesson changes"))
		fmt.Println(table)
		fmt.Println()
	}
	return displayRecentRuns(db)
}

func runFinish(cmd *cobra.Command, args []string) error {
	status := state.RunCompleted
	if len(args) > 0 {
		status = state.RunStatus(args[0])
	}
	switch status {
	case state.RunCompleted, state.RunFailed, state.RunCanceled:
	default:
		return fmt.Errorf("invalid run status: %s", status)
	}

	mc, err := loadMetaCurriculum()
	if err != nil {
		return err
	}
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	tracker := progress.NewTracker(mc, db, appLogger)
	run, err := tracker.Resume(statusRunID)
	if err != nil {
		return err
	}
	if err := tracker.Finish(status); err != nil {
		return err
	}
	fmt.Printf("Run %s marked %s\n", run.ID, status)
	return nil
}

// renderRun renders the run header and its lesson table.
func renderRun(run *state.Run, lessons map[string]int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Run " + run.ID))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Folder: "), run.CurriculumDir)
	fmt.Fprintf(&b, "%s %s ago\n", labelStyle.Render("Started:"), formatDuration(time.Since(run.StartedAt)))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Status: "), run.Status)

	if len(lessons) == 0 {
		b.WriteString(labelStyle.Render("No lessons stored"))
		return b.String()
	}

	brains := sortedKeys(lessons)
	width := len("Brain")
	for _, brain := range brains {
		if len(brain) > width {
			width = len(brain)
		}
	}
	col := cellStyle.Width(width + 2)

	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, col.Render(headerStyle.Render("Brain")), headerStyle.Render("Lesson")))
	for _, brain := range brains {
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, col.Render(brain), fmt.Sprintf("%d", lessons[brain])))
	}
	return b.String()
}

// renderEvents renders the last limit events, newest first.
func renderEvents(events []state.LessonEvent, limit int) string {
	if len(events) == 0 || limit <= 0 {
		return ""
	}
	if len(events) > limit {
		events = events[len(events)-limit:]
	}

	lines := make([]string, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		arrow := upStyle.Render("↑")
		if e.ToLesson < e.FromLesson {
			arrow = downStyle.Render("↓")
		}
		lines = append(lines, fmt.Sprintf("  %s %s %d → %d  %s  %s ago",
			arrow, e.Brain, e.FromLesson, e.ToLesson,
			labelStyle.Render(fmt.Sprintf("measure %g", e.Measure)),
			formatDuration(time.Since(e.CreatedAt))))
	}
	return strings.Join(lines, "\n")
}

func displayRecentRuns(db *state.DB) error {
	runs, err := db.ListRuns(nil)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	var recent []state.Run
	for _, r := range runs {
		if r.Status != state.RunActive {
			recent = append(recent, r)
			if len(recent) >= 5 {
				break
			}
		}
	}

	if len(recent) == 0 {
		return nil
	}

	fmt.Println(headerStyle.Render("Recent runs"))
	for _, r := range recent {
		elapsed := formatDuration(time.Since(r.StartedAt))
		fmt.Printf("  %s: %s (%s ago)\n", r.ID, r.Status, elapsed)
	}
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	days := int(d.Hours()) / 24
	return fmt.Sprintf("%dd", days)
}
