package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider with Whisper transcription and the
// OpenAI speech endpoint.
type OpenAIProvider struct {
	client   *openai.Client
	model    string
	ttsModel openai.SpeechModel
	voice    openai.SpeechVoice
	language string
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig, language string) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	p := &OpenAIProvider{
		client:   openai.NewClientWithConfig(config),
		model:    cfg.Model,
		ttsModel: openai.SpeechModel(cfg.TTSModel),
		voice:    openai.SpeechVoice(cfg.Voice),
		language: isoLanguage(language),
	}
	if p.model == "" {
		p.model = openai.Whisper1
	}
	if p.ttsModel == "" {
		p.ttsModel = openai.TTSModel1
	}
	if p.voice == "" {
		p.voice = openai.VoiceNova
	}
	return p, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Transcribe(ctx context.Context, audio Audio) (string, error) {
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.model,
		FilePath: "answer" + extensionFor(audio.MIMEType),
		Reader:   bytes.NewReader(audio.Data),
		Language: p.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", p.mapError(OpTranscribe, err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func (p *OpenAIProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          p.ttsModel,
		Input:          text,
		Voice:          p.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, p.mapError(OpSynthesize, err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, &ServiceError{Provider: p.Name(), Op: OpSynthesize, Err: fmt.Errorf("read audio: %w", err)}
	}
	if len(data) == 0 {
		return nil, &ServiceError{Provider: p.Name(), Op: OpSynthesize, Err: ErrEmptyResult}
	}
	return data, nil
}

func (p *OpenAIProvider) mapError(op Op, err error) error {
	se := &ServiceError{Provider: p.Name(), Op: op, Err: err}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		se.Temporary = apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	return se
}

// extensionFor returns the file extension the transcription endpoint uses
// to detect the audio format.
func extensionFor(mimeType string) string {
	m := strings.ToLower(mimeType)
	switch {
	case strings.Contains(m, "wav"):
		return ".wav"
	case strings.Contains(m, "mpeg"), strings.Contains(m, "mp3"):
		return ".mp3"
	case strings.Contains(m, "ogg"), strings.Contains(m, "opus"):
		return ".ogg"
	case strings.Contains(m, "flac"):
		return ".flac"
	case strings.Contains(m, "webm"):
		return ".webm"
	case strings.Contains(m, "mp4"), strings.Contains(m, "m4a"):
		return ".m4a"
	default:
		return ".wav"
	}
}

// isoLanguage reduces a BCP-47 tag such as "es-ES" to its language subtag.
func isoLanguage(tag string) string {
	lang, _, _ := strings.Cut(tag, "-")
	return strings.ToLower(lang)
}
