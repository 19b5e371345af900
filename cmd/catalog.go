package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/habla/internal/catalog"
	"github.com/abhisek/habla/internal/exercise"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the exercise catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file.json>...",
	Short: "Validate and import catalog files",
	Long:  "Import exercises from catalog files. Exercises with an existing ID are replaced.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		var all []exercise.Exercise
		for _, path := range args {
			exs, err := catalog.Load(path)
			if err != nil {
				return err
			}
			all = append(all, exs...)
		}
		if dryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "%d exercises valid\n", len(all))
			return nil
		}
		return importExercises(cmd, all)
	},
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import the built-in exercises",
	RunE: func(cmd *cobra.Command, args []string) error {
		return importExercises(cmd, catalog.Seed())
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exercises",
	RunE: func(cmd *cobra.Command, args []string) error {
		variant, _ := cmd.Flags().GetString("variant")
		activeOnly, _ := cmd.Flags().GetBool("active")

		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.close()
		st, err := e.openStore(cmd)
		if err != nil {
			return err
		}

		exs, err := st.ListExercises(cmd.Context())
		if err != nil {
			return fmt.Errorf("list exercises: %w", err)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-36s  %-10s  %-32s  %-13s  %-4s  %4s  %s\n",
			"ID", "Variant", "Title", "Area", "Ages", "XP", "Active")
		fmt.Fprintln(w, strings.Repeat("─", 118))
		n := 0
		for _, ex := range exs {
			if variant != "" && !strings.EqualFold(string(ex.Variant), variant) {
				continue
			}
			if activeOnly && !ex.Active {
				continue
			}
			active := "yes"
			if !ex.Active {
				active = "no"
			}
			if ex.Payload == nil {
				active += " (malformed)"
			}
			fmt.Fprintf(w, "%-36s  %-10s  %-32s  %-13s  %-4s  %4d  %s\n",
				ex.ID, ex.Variant, truncate(ex.Title, 32), ex.Area.DisplayName(), ex.AgeBand, ex.Reward, active)
			n++
		}
		fmt.Fprintf(w, "\n%d exercises\n", n)
		return nil
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export [file.json]",
	Short: "Write every exercise as a catalog file",
	Args:  cobra.MaximumNArgs(1),
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

		exs, err := st.ListExercises(cmd.Context())
		if err != nil {
			return fmt.Errorf("list exercises: %w", err)
		}
		data, err := catalog.Encode(exs)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		return os.WriteFile(args[0], data, 0o644)
	},
}

func setActiveCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <exercise-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
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
			return st.SetExerciseActive(cmd.Context(), args[0], active)
		},
	}
}

func importExercises(cmd *cobra.Command, exs []exercise.Exercise) error {
	e, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer e.close()
	st, err := e.openStore(cmd)
	if err != nil {
		return err
	}

	if err := st.UpsertExercises(cmd.Context(), exs); err != nil {
		return fmt.Errorf("import exercises: %w", err)
	}
	e.logger.Info("catalog imported", zap.Int("exercises", len(exs)))
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d exercises\n", len(exs))
	return nil
}

func init() {
	catalogImportCmd.Flags().Bool("dry-run", false, "Validate only")
	catalogListCmd.Flags().String("variant", "", "Filter by variant (e.g. ROLES)")
	catalogListCmd.Flags().Bool("active", false, "Only active exercises")

	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogSeedCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogExportCmd)
	catalogCmd.AddCommand(setActiveCmd("enable", "Make an exercise playable", true))
	catalogCmd.AddCommand(setActiveCmd("disable", "Stop offering an exercise", false))
}
