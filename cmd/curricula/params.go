package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/curricula/pkg/models"
)

var (
	paramsRunID string
	paramsJSON  bool
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Print the combined reset parameters",
	Long: `Print the reset parameters for the next episode: every brain's active
lesson parameters merged into one set. When two brains set the same
parameter, the brain whose name sorts last wins.`,
	RunE: runParams,
}

func init() {
	paramsCmd.Flags().StringVar(&paramsRunID, "run", "", "Restore lessons from this run")
	paramsCmd.Flags().BoolVar(&paramsJSON, "json", false, "Print as JSON instead of YAML")
}

func runParams(cmd *cobra.Command, args []string) error {
	mc, _, err := loadAtRun(paramsRunID)
	if err != nil {
		return err
	}
	return writeParams(mc.Config(), paramsJSON)
}

func writeParams(params models.ResetParameters, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(params)
	}
	if len(params) == 0 {
		fmt.Println("{}")
		return nil
	}
	out, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("encoding parameters: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
