package speech

import (
	"context"
	"fmt"
	"strings"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GoogleProvider transcribes with Cloud Speech-to-Text. It cannot
// synthesize; Synthesize fails with ErrUnsupported.
type GoogleProvider struct {
	client   *gspeech.Client
	language string
}

// NewGoogleProvider creates a Cloud Speech-to-Text client.
func NewGoogleProvider(ctx context.Context, cfg GoogleConfig, language string) (*GoogleProvider, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gspeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	if language == "" {
		language = "es-ES"
	}
	return &GoogleProvider{client: client, language: language}, nil
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) Transcribe(ctx context.Context, audio Audio) (string, error) {
	if len(audio.Data) == 0 {
		return "", nil
	}
	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:               p.language,
			Encoding:                   inferEncoding(audio.MIMEType),
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio.Data},
		},
	}

	resp, err := p.client.Recognize(ctx, req)
	if err != nil {
		return "", p.mapError(OpTranscribe, err)
	}

	var b strings.Builder
	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		text := strings.TrimSpace(alts[0].GetTranscript())
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

func (p *GoogleProvider) Synthesize(context.Context, string) ([]byte, error) {
	return nil, &ServiceError{Provider: p.Name(), Op: OpSynthesize, Err: ErrUnsupported}
}

// Close releases the gRPC connection.
func (p *GoogleProvider) Close() error {
	return p.client.Close()
}

func (p *GoogleProvider) mapError(op Op, err error) error {
	se := &ServiceError{Provider: p.Name(), Op: op, Err: err}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted, codes.Unavailable, codes.Internal, codes.DeadlineExceeded:
			se.Temporary = true
		}
	}
	return se
}

func inferEncoding(mimeType string) speechpb.RecognitionConfig_AudioEncoding {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.Contains(m, "wav"):
		return speechpb.RecognitionConfig_LINEAR16
	case strings.Contains(m, "flac"):
		return speechpb.RecognitionConfig_FLAC
	case strings.Contains(m, "mpeg"), strings.Contains(m, "mp3"):
		return speechpb.RecognitionConfig_MP3
	case strings.Contains(m, "ogg"), strings.Contains(m, "opus"):
		return speechpb.RecognitionConfig_OGG_OPUS
	case strings.Contains(m, "webm"):
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}
