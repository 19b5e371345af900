package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/genai"
)

// geminiModels maps friendly names to Gemini model IDs.
var geminiModels = map[string]string{
	"gemini-flash":     "gemini-2.5-flash",
	"gemini-flash-tts": "gemini-2.5-flash-preview-tts",
	"gemini-pro-tts":   "gemini-2.5-pro-preview-tts",
}

const transcribeInstruction = "Transcribe exactly what the child says in this recording. " +
	"Reply with the transcript only, without quotes or commentary. " +
	"Reply with an empty message if nothing intelligible is said."

// GeminiProvider implements Provider with Gemini audio understanding for
// transcription and a Gemini TTS model for synthesis.
type GeminiProvider struct {
	client   *genai.Client
	model    string
	ttsModel string
	voice    string
	language string
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig, language string) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:   client,
		model:    resolveModel(cfg.Model, geminiModels),
		ttsModel: resolveModel(cfg.TTSModel, geminiModels),
		voice:    cfg.Voice,
		language: language,
	}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Transcribe(ctx context.Context, audio Audio) (string, error) {
	mime := audio.MIMEType
	if mime == "" {
		mime = "audio/wav"
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(transcribeInstruction),
			genai.NewPartFromBytes(audio.Data, mime),
		}, genai.RoleUser),
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return "", p.mapError(OpTranscribe, err)
	}
	return strings.TrimSpace(result.Text()), nil
}

func (p *GeminiProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			LanguageCode: p.language,
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: p.voice},
			},
		},
	}

	result, err := p.client.Models.GenerateContent(ctx, p.ttsModel, genai.Text(text), config)
	if err != nil {
		return nil, p.mapError(OpSynthesize, err)
	}

	for _, c := range result.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			return toWAV(part.InlineData.Data, part.InlineData.MIMEType), nil
		}
	}
	return nil, &ServiceError{Provider: p.Name(), Op: OpSynthesize, Err: ErrEmptyResult}
}

func (p *GeminiProvider) mapError(op Op, err error) error {
	se := &ServiceError{Provider: p.Name(), Op: op, Err: err}
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		se.Temporary = apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	case errors.As(err, &apiErrPtr):
		se.Temporary = apiErrPtr.Code == http.StatusTooManyRequests || apiErrPtr.Code >= 500
	}
	return se
}

// toWAV wraps raw 16-bit little-endian mono PCM in a WAV container. Data
// already in a container format is returned unchanged.
func toWAV(data []byte, mimeType string) []byte {
	if !strings.HasPrefix(strings.ToLower(mimeType), "audio/l16") && !strings.Contains(mimeType, "pcm") {
		return data
	}
	rate := 24000
	for _, param := range strings.Split(mimeType, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
		if ok && k == "rate" {
			if r, err := strconv.Atoi(v); err == nil && r > 0 {
				rate = r
			}
		}
	}

	const (
		channels      = 1
		bitsPerSample = 16
	)
	var buf bytes.Buffer
	buf.Grow(44 + len(data))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVEfmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate*channels*bitsPerSample/8))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels*bitsPerSample/8))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}
