package cmd

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/habla/internal/speech"
)

var speakCmd = &cobra.Command{
	Use:   "speak <text>",
	Short: "Synthesize a phrase with the configured speech provider",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.close()

		provider, err := e.speechProvider(cmd.Context())
		if err != nil {
			return err
		}
		audio, err := provider.Synthesize(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, audio, 0o644); err != nil {
			return fmt.Errorf("write audio: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s (%s)\n", len(audio), out, provider.Name())
		return nil
	},
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio-file>",
	Short: "Transcribe a recording with the configured speech provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mimeType, _ := cmd.Flags().GetString("mime")
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		if mimeType == "" {
			mimeType = mime.TypeByExtension(filepath.Ext(args[0]))
		}

		e, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer e.close()

		provider, err := e.speechProvider(cmd.Context())
		if err != nil {
			return err
		}
		text, err := provider.Transcribe(cmd.Context(), speech.Audio{Data: data, MIMEType: mimeType})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	speakCmd.Flags().StringP("output", "o", "prompt.mp3", "Output audio file")
	transcribeCmd.Flags().String("mime", "", "Audio MIME type (default from the file extension)")
}
