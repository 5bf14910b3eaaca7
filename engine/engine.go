// Package engine wraps the speech-to-text backends the daemon can load.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dictate/vad"
)

// ErrEngineInvocation wraps every backend failure during Transcribe.
var ErrEngineInvocation = errors.New("transcription engine failed")

type Segment struct {
	Text       string
	Start, End time.Duration
}

type Options struct {
	Language string
	// VAD enables speech filtering with the given gap and padding.
	VAD *vad.Options
}

// Engine transcribes a complete mono waveform at SampleRate. Calls are
// serialized by the caller.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, samples []float32, opts Options) ([]Segment, error)
	Close() error
}

// JoinSegments joins the non-empty segment texts with single spaces.
func JoinSegments(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

type Config struct {
	Engine   string
	Language string

	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAITimeout time.Duration

	WhisperBinary string
	WhisperModel  string
}

// New loads the engine named by cfg.Engine.
func New(cfg Config) (Engine, error) {
	det, err := vad.NewWebRTC()
	if err != nil {
		return nil, fmt.Errorf("vad: %w", err)
	}
	switch strings.ToLower(cfg.Engine) {
	case "", "openai":
		return NewOpenAI(OpenAIConfig{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.OpenAITimeout,
		}, det)
	case "whispercpp", "whisper.cpp", "whisper-cpp":
		return NewWhisperCPP(WhisperCPPConfig{
			Binary: cfg.WhisperBinary,
			Model:  cfg.WhisperModel,
		}, det)
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.Engine)
	}
}

// speech applies the VAD filter when requested. A nil result with nil error
// means no speech was found.
func speech(samples []float32, rate int, det vad.Detector, opts Options) ([]float32, error) {
	if opts.VAD == nil || det == nil {
		return samples, nil
	}
	filtered, _, err := vad.Filter(samples, rate, det, *opts.VAD)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineInvocation, err)
	}
	return filtered, nil
}
