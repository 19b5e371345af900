package speech

import (
	"context"
	"fmt"
	"sync"
)

// MockResponse is a canned transcription for the MockProvider.
type MockResponse struct {
	Transcript string
	Err        error
}

// MockProvider is a deterministic Provider for offline play and tests.
// Transcriptions are served from a FIFO queue; when the queue is empty,
// text/plain audio is echoed back as its own transcript. Synthesis returns
// a short placeholder clip derived from the text.
type MockProvider struct {
	mu          sync.Mutex
	transcripts []MockResponse
	synthErr    error

	TranscribeCalls []Audio
	SynthesizeCalls []string
}

// NewMockProvider creates a MockProvider with the given canned transcripts.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{transcripts: responses}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Transcribe(_ context.Context, audio Audio) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TranscribeCalls = append(m.TranscribeCalls, audio)

	if len(m.transcripts) == 0 {
		if audio.MIMEType == "text/plain" {
			return string(audio.Data), nil
		}
		return "", &ServiceError{Provider: m.Name(), Op: OpTranscribe, Err: ErrEmptyResult}
	}

	resp := m.transcripts[0]
	m.transcripts = m.transcripts[1:]
	if resp.Err != nil {
		return "", serviceError(m.Name(), OpTranscribe, resp.Err)
	}
	return resp.Transcript, nil
}

func (m *MockProvider) Synthesize(_ context.Context, text string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SynthesizeCalls = append(m.SynthesizeCalls, text)
	if m.synthErr != nil {
		return nil, serviceError(m.Name(), OpSynthesize, m.synthErr)
	}
	return []byte(fmt.Sprintf("mock-audio:%s", text)), nil
}

// AddTranscript appends a canned transcription to the queue.
func (m *MockProvider) AddTranscript(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcripts = append(m.transcripts, resp)
}

// FailSynthesis makes every later Synthesize call fail with err.
func (m *MockProvider) FailSynthesis(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synthErr = err
}

// SynthesizeCount returns the number of Synthesize calls made.
func (m *MockProvider) SynthesizeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SynthesizeCalls)
}
