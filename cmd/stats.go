package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/habla/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats <patient-id>",
	Short: "Show a patient's statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

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
		patient, err := st.GetPatient(ctx, args[0])
		if err != nil {
			return fmt.Errorf("load patient: %w", err)
		}
		sum, err := stats.NewAggregator(st).Summarize(ctx, patient.ID)
		if err != nil {
			return fmt.Errorf("summarize: %w", err)
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		}
		printStats(out, patient.Name, sum)
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("json", false, "Print the summary as JSON")
}

func printStats(w io.Writer, name string, sum *stats.Summary) {
	t := sum.Totals
	fmt.Fprintf(w, "%s\n", name)
	fmt.Fprintf(w, "Played %d  Won %d  Lost %d  Errors %d  Win rate %d%%  Experience %d\n\n",
		t.Played, t.Won, t.Lost, t.Errors, t.Rate, t.Experience)

	printGroups(w, "Variant", sum.ByVariant)
	printGroups(w, "Area", sum.ByArea)

	if len(sum.Recent) == 0 {
		return
	}
	fmt.Fprintf(w, "%-19s  %-10s  %-32s  %s\n", "Played at", "Variant", "Exercise", "Outcome")
	fmt.Fprintln(w, strings.Repeat("─", 76))
	for _, r := range sum.Recent {
		fmt.Fprintf(w, "%-19s  %-10s  %-32s  %s\n",
			r.Instance.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Variant, truncate(r.Title, 32), r.Instance.Outcome)
	}
}

func printGroups(w io.Writer, heading string, groups []stats.Group) {
	if len(groups) == 0 {
		return
	}
	fmt.Fprintf(w, "%-16s  %5s  %5s  %5s\n", heading, "Won", "Lost", "Rate")
	fmt.Fprintln(w, strings.Repeat("─", 38))
	for _, g := range groups {
		fmt.Fprintf(w, "%-16s  %5d  %5d  %4d%%\n", g.Label, g.Won, g.Lost, g.Rate)
	}
	fmt.Fprintln(w)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
