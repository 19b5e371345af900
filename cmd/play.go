package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/habla/internal/app"
	"github.com/abhisek/habla/internal/screens/home"
	"github.com/abhisek/habla/internal/screens/play"
	"github.com/abhisek/habla/internal/selector"
	"github.com/abhisek/habla/internal/session"
	"github.com/abhisek/habla/internal/stats"
)

var playCmd = &cobra.Command{
	Use:   "play [patient-id]",
	Short: "Start a therapy session",
	Long:  "Start the terminal UI. With a patient ID the session starts right away; otherwise pick a patient first.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var patientID string
		if len(args) == 1 {
			patientID = args[0]
		}
		return runApp(cmd, patientID)
	},
}

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command, patientID string) error {
	ctx := cmd.Context()

	e, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer e.close()

	st, err := e.openStore(cmd)
	if err != nil {
		return err
	}
	if err := ensureCatalog(ctx, st, e.logger); err != nil {
		return err
	}
	if patientID != "" {
		if _, err := st.GetPatient(ctx, patientID); err != nil {
			return fmt.Errorf("load patient: %w", err)
		}
	}

	levels, err := st.LevelThresholds(ctx)
	if err != nil {
		return fmt.Errorf("load level thresholds: %w", err)
	}
	provider, err := e.speechProvider(ctx)
	if err != nil {
		return err
	}

	sel := selector.New(st, st, selector.WithLogger(e.logger))
	newRunner := func(id string) play.Runner {
		return session.New(id, session.Deps{
			Patients:    st,
			Selector:    sel,
			Recorder:    st,
			Levels:      levels,
			Transcriber: provider,
			Synthesizer: provider,
		}, session.WithLogger(e.logger))
	}

	e.logger.Info("starting terminal ui",
		zap.String("speech_provider", provider.Name()),
		zap.String("patient", patientID))

	return app.Run(ctx, app.Options{
		Home: home.Deps{
			Patients:  st,
			Stats:     stats.NewAggregator(st),
			Levels:    levels,
			NewRunner: newRunner,
		},
		Status:    "voz: " + provider.Name(),
		PatientID: patientID,
		Logger:    e.logger,
	})
}
