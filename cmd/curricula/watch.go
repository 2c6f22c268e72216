package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/curricula/internal/watch"
)

var watchRunID string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload curricula as their files change",
	Long: `Watch the curriculum folder and reload a brain's curriculum whenever its
file is written. The brain keeps its current lesson across reloads. After
each change the combined reset parameters are printed.

Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchRunID, "run", "", "Restore lessons from this run")
}

func runWatch(cmd *cobra.Command, args []string) error {
	mc, _, err := loadAtRun(watchRunID)
	if err != nil {
		return err
	}

	w, err := watch.New(mc.Dir(), mc, appConfig.Watch.Debounce, appLogger)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Watching %s (%d brains)\n\n", mc.Dir(), len(mc.Brains()))
	return watchLoop(ctx, w.Events(), func() error {
		return writeParams(mc.Config(), false)
	})
}

// watchLoop reports events until ctx is done or the channel closes.
func watchLoop(ctx context.Context, events <-chan watch.Event, onChange func() error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch {
			case ev.Err != nil:
				printStatus("✗", fmt.Sprintf("%s: %v", ev.Path, ev.Err), color.FgRed)
				continue
			case ev.Removed:
				printStatus("−", ev.Brain+" removed", color.FgYellow)
			default:
				printStatus("✓", ev.Brain+" reloaded", color.FgGreen)
			}
			if err := onChange(); err != nil {
				return err
			}
			fmt.Println()
		}
	}
}
