package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/habla/internal/exercise"
	"github.com/abhisek/habla/internal/store"
)

const dateLayout = "2006-01-02"

var patientCmd = &cobra.Command{
	Use:   "patient",
	Short: "Manage patients",
}

var patientAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a patient",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		birth, _ := cmd.Flags().GetString("birth")
		area, _ := cmd.Flags().GetString("area")

		np := store.NewPatient{
			Name:          strings.Join(args, " "),
			DiagnosisArea: exercise.Area(area),
		}
		if birth != "" {
			t, err := time.Parse(dateLayout, birth)
			if err != nil {
				return fmt.Errorf("invalid --birth %q: want YYYY-MM-DD", birth)
			}
			np.BirthDate = t
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

		p, err := st.CreatePatient(cmd.Context(), np)
		if err != nil {
			return fmt.Errorf("create patient: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created patient %s (%s)\n", p.Name, p.ID)
		return nil
	},
}

var patientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List patients with their level",
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

		ctx := cmd.Context()
		patients, err := st.ListPatients(ctx)
		if err != nil {
			return fmt.Errorf("list patients: %w", err)
		}
		if len(patients) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No patients yet. Add one with: habla patient add <name>")
			return nil
		}
		levels, err := st.LevelThresholds(ctx)
		if err != nil {
			return fmt.Errorf("load level thresholds: %w", err)
		}

		w := cmd.OutOrStdout()
		now := time.Now()
		fmt.Fprintf(w, "%-36s  %-24s  %3s  %-14s  %6s  %s\n", "ID", "Name", "Age", "Diagnosis", "XP", "Level")
		fmt.Fprintln(w, strings.Repeat("─", 104))
		for _, p := range patients {
			fmt.Fprintf(w, "%-36s  %-24s  %3d  %-14s  %6d  %s\n",
				p.ID, truncate(p.Name, 24), p.AgeAt(now), p.DiagnosisArea.DisplayName(),
				p.Experience, levels.LevelFor(p.Experience).Label())
		}
		return nil
	},
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <patient-id> <area>",
	Short: "Set a patient's diagnosis area",
	Long: "Record a new clinical diagnosis for a patient. The previous active record is closed.\n" +
		"Areas: pragmatics, semantics, phonology, morphosyntax, or none.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		area := exercise.Area(args[1])
		if args[1] == "none" {
			area = exercise.AreaNone
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

		if err := st.SetDiagnosis(cmd.Context(), args[0], area); err != nil {
			return fmt.Errorf("set diagnosis: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Diagnosis set to %s\n", area.DisplayName())
		return nil
	},
}

func init() {
	patientAddCmd.Flags().String("birth", "", "Birth date (YYYY-MM-DD)")
	patientAddCmd.Flags().String("area", "", "Diagnosis area: pragmatics, semantics, phonology, morphosyntax")

	patientCmd.AddCommand(patientAddCmd)
	patientCmd.AddCommand(patientListCmd)
}
