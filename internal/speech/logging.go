package speech

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"
)

// LoggingProvider is a decorator that logs every speech call with its
// latency.
type LoggingProvider struct {
	inner  Provider
	logger *zap.Logger
}

// WithLogging wraps a Provider with structured logging.
func WithLogging(p Provider, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingProvider{inner: p, logger: logger.With(zap.String("provider", p.Name()))}
}

func (l *LoggingProvider) Name() string { return l.inner.Name() }

func (l *LoggingProvider) Transcribe(ctx context.Context, audio Audio) (string, error) {
	start := time.Now()
	text, err := l.inner.Transcribe(ctx, audio)

	fields := []zap.Field{
		zap.String("op", string(OpTranscribe)),
		zap.String("mime_type", audio.MIMEType),
		zap.Int("audio_bytes", len(audio.Data)),
		zap.Duration("latency", time.Since(start)),
	}
	if err != nil {
		l.logger.Warn("speech call failed", append(fields, zap.Error(err))...)
		return "", err
	}
	l.logger.Debug("speech call", append(fields, zap.Int("transcript_chars", len(text)))...)
	return text, nil
}

func (l *LoggingProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	start := time.Now()
	audio, err := l.inner.Synthesize(ctx, text)

	fields := []zap.Field{
		zap.String("op", string(OpSynthesize)),
		zap.Int("text_chars", len(text)),
		zap.Duration("latency", time.Since(start)),
	}
	if err != nil {
		l.logger.Warn("speech call failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	l.logger.Debug("speech call", append(fields, zap.Int("audio_bytes", len(audio)))...)
	return audio, nil
}

// Close releases the wrapped provider's resources, if it holds any.
func (l *LoggingProvider) Close() error {
	if c, ok := l.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
