package engine

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"dictate/encoder"
	"dictate/protocol"
	"dictate/vad"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	defaultOpenAIModel   = "whisper-1"
	defaultOpenAITimeout = 120 * time.Second
)

type OpenAIConfig struct {
	// BaseURL points at any OpenAI-compatible server, such as a local
	// faster-whisper or whisper.cpp server. Empty means api.openai.com.
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenAI posts FLAC audio to an OpenAI-compatible /audio/transcriptions
// endpoint.
type OpenAI struct {
	client  openai.Client
	model   string
	timeout time.Duration
	det     vad.Detector
}

func NewOpenAI(cfg OpenAIConfig, det vad.Detector) (*OpenAI, error) {
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultOpenAITimeout
	}
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai engine: API key required for api.openai.com")
	}
	opts := []option.RequestOption{
		option.WithMaxRetries(0),
		option.WithHTTPClient(newHTTPClient()),
		option.WithMiddleware(func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
			return traceRequest(req, next, logUpload)
		}),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		opts = append(opts, option.WithAPIKey("none"))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAI{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		det:     det,
	}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Transcribe(ctx context.Context, samples []float32, opts Options) ([]Segment, error) {
	speech, err := speech(samples, protocol.SampleRate, o.det, opts)
	if err != nil {
		return nil, err
	}
	if len(speech) == 0 {
		return nil, nil
	}

	enc, err := encoder.NewFlac(protocol.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineInvocation, err)
	}
	flacData, err := encoder.Encode(enc, speech)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrEngineInvocation, err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(flacData), "audio.flac", "audio/flac"),
		Model: openai.AudioModel(o.model),
	}
	if opts.Language != "" && opts.Language != "auto" {
		params.Language = openai.String(opts.Language)
	}

	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEngineInvocation, o.model, err)
	}
	dur := time.Duration(len(speech)) * time.Second / protocol.SampleRate
	return []Segment{{Text: resp.Text, End: dur}}, nil
}

func (o *OpenAI) Close() error { return nil }
