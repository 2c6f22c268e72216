package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/curricula/internal/config"
	"github.com/ShayCichocki/curricula/internal/logging"
	"github.com/ShayCichocki/curricula/internal/metacurriculum"
	"github.com/ShayCichocki/curricula/internal/progress"
	"github.com/ShayCichocki/curricula/internal/state"
)

var (
	flagDir           string
	flagTrainerConfig string
	flagDB            string
	flagLogFile       string
)

// appConfig is populated before any subcommand runs.
var appConfig *config.Config

// appLogger is closed after the subcommand finishes.
var appLogger *logging.DebugLogger

var rootCmd = &cobra.Command{
	Use:   "curricula",
	Short: "Curriculum learning coordinator",
	Long: `curricula manages per-brain lesson progression for reinforcement
learning training runs.

Each brain has a curriculum file (JSON or YAML) in the curriculum folder.
The file lists the thresholds a measured training signal has to cross and
the reset parameters to apply in every lesson. curricula decides when a
brain moves on, remembers where each run is, and produces the combined
reset parameters for the next episode.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd, cfg)
		appConfig = cfg

		appLogger, err = logging.NewDebugLogger(cfg.Logging.File)
		if err != nil {
			return err
		}
		logging.SetDefault(appLogger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		logging.SetDefault(nil)
		return appLogger.Close()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "d", "", "Curriculum folder (one file per brain)")
	rootCmd.PersistentFlags().StringVar(&flagTrainerConfig, "trainer-config", "", "Trainer hyperparameter YAML file")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "State database path")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Debug log path")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(paramsCmd)
	rootCmd.AddCommand(advanceCmd)
	rootCmd.AddCommand(lessonCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

// applyFlagOverrides lets explicitly set flags win over loaded configuration.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Curriculum.Dir = flagDir
	}
	if flags.Changed("trainer-config") {
		cfg.Trainer.Config = flagTrainerConfig
	}
	if flags.Changed("db") {
		cfg.State.DB = flagDB
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = flagLogFile
	}
}

// curriculumDir resolves the configured curriculum folder to an absolute
// path, so runs are matched to their folder regardless of working directory.
func curriculumDir() (string, error) {
	dir, err := filepath.Abs(appConfig.Curriculum.Dir)
	if err != nil {
		return "", fmt.Errorf("resolve curriculum folder: %w", err)
	}
	return dir, nil
}

// loadMetaCurriculum loads the configured curriculum folder.
func loadMetaCurriculum() (*metacurriculum.MetaCurriculum, error) {
	dir, err := curriculumDir()
	if err != nil {
		return nil, err
	}
	return metacurriculum.New(dir)
}

// dbPath resolves the configured state database path.
func dbPath() (string, error) {
	if appConfig.State.DB != "" {
		return appConfig.State.DB, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return state.ProjectDBPath(cwd), nil
}

// openStore opens and migrates the state database.
func openStore() (*state.DB, error) {
	path, err := dbPath()
	if err != nil {
		return nil, err
	}
	db, err := state.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// openTracker loads the curricula and attaches them to a run. An empty
// runID resumes the latest active run; when there is none and start is
// true, a new run is started.
func openTracker(runID string, start bool) (*progress.Tracker, *state.DB, error) {
	mc, err := loadMetaCurriculum()
	if err != nil {
		return nil, nil, err
	}
	db, err := openStore()
	if err != nil {
		return nil, nil, err
	}

	tracker := progress.NewTracker(mc, db, appLogger)
	_, err = tracker.Resume(runID)
	if errors.Is(err, progress.ErrNoRun) && runID == "" && start {
		_, err = tracker.Start(appConfig.Curriculum.Lesson)
	}
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return tracker, db, nil
}

// loadAtRun loads the curricula and, when a state database exists, restores
// lessons from the given run (or the latest active one). The returned run is
// nil when nothing was restored.
func loadAtRun(runID string) (*metacurriculum.MetaCurriculum, *state.Run, error) {
	mc, err := loadMetaCurriculum()
	if err != nil {
		return nil, nil, err
	}

	path, err := dbPath()
	if err != nil {
		return nil, nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if runID != "" {
			return nil, nil, fmt.Errorf("run %s: no state database at %s", runID, path)
		}
		return mc, nil, nil
	}

	db, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	tracker := progress.NewTracker(mc, db, appLogger)
	run, err := tracker.Resume(runID)
	if errors.Is(err, progress.ErrNoRun) && runID == "" {
		return mc, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return mc, run, nil
}
