package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/habla/internal/progression"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Inspect the level thresholds",
}

var levelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the level thresholds",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.close()
		st, err := e.openStore(cmd)
		if err != nil {
			return err
		}

		table, err := st.LevelThresholds(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%5s  %8s  %8s\n", "Level", "Min XP", "Max XP")
		fmt.Fprintln(w, strings.Repeat("─", 25))
		for _, th := range table {
			fmt.Fprintf(w, "%5d  %8d  %8d\n", th.Level, th.Min, th.Max)
		}
		return nil
	},
}

var levelsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the level thresholds",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.close()
		st, err := e.openStore(cmd)
		if err != nil {
			return err
		}

		table, err := st.LevelThresholds(cmd.Context())
		if err != nil {
			return err
		}
		if err := table.Validate(); err != nil {
			return fmt.Errorf("level thresholds invalid: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d levels, contiguous from %d to %d XP\n",
			len(table), table[0].Min, table.Top())
		return nil
	},
}

// thresholdJSON is the file format read by levels set.
type thresholdJSON struct {
	Level int `json:"level"`
	Min   int `json:"min"`
	Max   int `json:"max"`
}

var levelsSetCmd = &cobra.Command{
	Use:   "set <file.json>",
	Short: "Replace the level thresholds",
	Long:  `Replace every threshold with the ones in a JSON file: [{"level":1,"min":0,"max":99}, ...]`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var rows []thresholdJSON
		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
		thresholds := make([]progression.Threshold, len(rows))
		for i, r := range rows {
			thresholds[i] = progression.Threshold{Level: r.Level, Min: r.Min, Max: r.Max}
		}

		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.close()
		st, err := e.openStore(cmd)
		if err != nil {
			return err
		}
		if err := st.ReplaceThresholds(cmd.Context(), thresholds); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %d levels\n", len(thresholds))
		return nil
	},
}

func init() {
	levelsCmd.AddCommand(levelsListCmd)
	levelsCmd.AddCommand(levelsCheckCmd)
	levelsCmd.AddCommand(levelsSetCmd)
}
