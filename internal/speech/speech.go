// Package speech wraps the speech-to-text and text-to-speech services used
// by exercises answered out loud.
package speech

import "context"

// Audio is a recorded answer.
type Audio struct {
	Data     []byte
	MIMEType string // e.g. "audio/wav", "audio/mpeg"
}

// Transcriber turns recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// Synthesizer turns text into playable audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Provider is a speech backend offering both directions.
type Provider interface {
	Transcriber
	Synthesizer

	// Name identifies the backend in logs and errors.
	Name() string
}

// Op names the operation that failed in a ServiceError.
type Op string

const (
	OpTranscribe Op = "transcribe"
	OpSynthesize Op = "synthesize"
)
