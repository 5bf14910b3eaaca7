package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"dictate/encoder"
	"dictate/protocol"
	"dictate/vad"
)

type WhisperCPPConfig struct {
	Binary string
	Model  string
}

// WhisperCPP runs the whisper.cpp CLI on a temporary WAV file and reads its
// JSON output.
type WhisperCPP struct {
	binary string
	model  string
	det    vad.Detector
}

var whisperBinaries = []string{"whisper-cli", "whisper-cpp", "whisper"}

func NewWhisperCPP(cfg WhisperCPPConfig, det vad.Detector) (*WhisperCPP, error) {
	bin := cfg.Binary
	if bin == "" {
		for _, name := range whisperBinaries {
			if p, err := exec.LookPath(name); err == nil {
				bin = p
				break
			}
		}
	}
	if bin == "" {
		return nil, fmt.Errorf("whisper.cpp binary not found (tried %s)", strings.Join(whisperBinaries, ", "))
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("whisper.cpp model path required")
	}
	if _, err := os.Stat(cfg.Model); err != nil {
		return nil, fmt.Errorf("whisper.cpp model: %w", err)
	}
	return &WhisperCPP{binary: bin, model: cfg.Model, det: det}, nil
}

func (w *WhisperCPP) Name() string { return "whispercpp" }

func (w *WhisperCPP) Transcribe(ctx context.Context, samples []float32, opts Options) ([]Segment, error) {
	speech, err := speech(samples, protocol.SampleRate, w.det, opts)
	if err != nil {
		return nil, err
	}
	if len(speech) == 0 {
		return nil, nil
	}

	dir, err := os.MkdirTemp("", "dictate-whisper-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineInvocation, err)
	}
	defer os.RemoveAll(dir)

	wavPath := filepath.Join(dir, "audio.wav")
	f, err := os.Create(wavPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineInvocation, err)
	}
	if err := encoder.WriteWAV(f, speech, protocol.SampleRate); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrEngineInvocation, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineInvocation, err)
	}

	outBase := filepath.Join(dir, "out")
	args := []string{
		"-m", w.model,
		"-f", wavPath,
		"-oj",
		"-of", outBase,
		"--no-prints",
	}
	if opts.Language != "" {
		args = append(args, "-l", opts.Language)
	}

	cmd := exec.CommandContext(ctx, w.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: whisper.cpp: %v: %s", ErrEngineInvocation, err, strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(outBase + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: whisper.cpp output: %v", ErrEngineInvocation, err)
	}
	return parseWhisperJSON(data)
}

func (w *WhisperCPP) Close() error { return nil }

type whisperCppOutput struct {
	Transcription []struct {
		Text    string `json:"text"`
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
	} `json:"transcription"`
}

// parseWhisperJSON reads whisper.cpp -oj output; offsets are milliseconds.
func parseWhisperJSON(data []byte) ([]Segment, error) {
	var out whisperCppOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: parse whisper.cpp json: %v", ErrEngineInvocation, err)
	}
	segments := make([]Segment, 0, len(out.Transcription))
	for _, seg := range out.Transcription {
		segments = append(segments, Segment{
			Text:  seg.Text,
			Start: time.Duration(seg.Offsets.From) * time.Millisecond,
			End:   time.Duration(seg.Offsets.To) * time.Millisecond,
		})
	}
	return segments, nil
}
