package engine

import (
	"context"
	"errors"
	"io"
	"math"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dictate/vad"
)

func TestJoinSegments(t *testing.T) {
	for _, tt := range []struct {
		name string
		segs []Segment
		want string
	}{
		{"none", nil, ""},
		{"single", []Segment{{Text: " hello world "}}, "hello world"},
		{"skip empty", []Segment{{Text: " hello"}, {Text: "  "}, {Text: "world "}}, "hello world"},
		{"all empty", []Segment{{Text: ""}, {Text: " "}}, ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinSegments(tt.segs); got != tt.want {
				t.Errorf("JoinSegments = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseWhisperJSON(t *testing.T) {
	data := []byte(`{
		"result": {"language": "en"},
		"transcription": [
			{"text": " Hello", "offsets": {"from": 0, "to": 1200}},
			{"text": " world.", "offsets": {"from": 1200, "to": 2500}}
		]
	}`)
	segs, err := parseWhisperJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 2 || segs[1].End != 2500*time.Millisecond {
		t.Errorf("segments = %+v", segs)
	}
	if got := JoinSegments(segs); got != "Hello world." {
		t.Errorf("joined = %q", got)
	}

	if _, err := parseWhisperJSON([]byte("not json")); !errors.Is(err, ErrEngineInvocation) {
		t.Errorf("err = %v, want ErrEngineInvocation", err)
	}
}

type alwaysSilent struct{}

func (alwaysSilent) IsSpeech(int, []int16) (bool, error) { return false, nil }

func tone(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.3 * math.Sin(float64(i)/5))
	}
	return out
}

func TestOpenAITranscribe(t *testing.T) {
	var gotPath, gotModel, gotLanguage, gotFilename string
	var gotFileSize int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err != nil {
				break
			}
			data, _ := io.ReadAll(part)
			switch part.FormName() {
			case "model":
				gotModel = string(data)
			case "language":
				gotLanguage = string(data)
			case "file":
				gotFilename = part.FileName()
				gotFileSize = len(data)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text":"hello world"}`)
	}))
	defer srv.Close()

	eng, err := NewOpenAI(OpenAIConfig{BaseURL: srv.URL + "/v1/", Model: "Systran/faster-whisper-small"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	segs, err := eng.Transcribe(context.Background(), tone(16000), Options{Language: "en"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got := JoinSegments(segs); got != "hello world" {
		t.Errorf("text = %q", got)
	}
	if gotPath != "/v1/audio/transcriptions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotModel != "Systran/faster-whisper-small" || gotLanguage != "en" {
		t.Errorf("model = %q, language = %q", gotModel, gotLanguage)
	}
	if gotFilename != "audio.flac" || gotFileSize == 0 {
		t.Errorf("file = %q (%d bytes)", gotFilename, gotFileSize)
	}
}

func TestOpenAIServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model not loaded"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	eng, err := NewOpenAI(OpenAIConfig{BaseURL: srv.URL + "/v1/"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Transcribe(context.Background(), tone(1600), Options{}); !errors.Is(err, ErrEngineInvocation) {
		t.Errorf("err = %v, want ErrEngineInvocation", err)
	}
}

func TestOpenAISilenceSkipsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request sent for silent audio")
	}))
	defer srv.Close()

	eng, err := NewOpenAI(OpenAIConfig{BaseURL: srv.URL + "/v1/"}, alwaysSilent{})
	if err != nil {
		t.Fatal(err)
	}
	segs, err := eng.Transcribe(context.Background(), tone(16000), Options{VAD: &vad.DefaultOptions})
	if err != nil || len(segs) != 0 {
		t.Errorf("segments = %v, err = %v", segs, err)
	}
}

func TestNewOpenAIRequiresKeyForHostedAPI(t *testing.T) {
	if _, err := NewOpenAI(OpenAIConfig{}, nil); err == nil {
		t.Error("expected error without API key or base URL")
	}
}

const fakeWhisper = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
	if [ "$1" = "-of" ]; then out="$2"; fi
	shift
done
cat > "$out.json" <<'JSON'
{"transcription":[{"text":" hello","offsets":{"from":0,"to":500}},{"text":" world","offsets":{"from":500,"to":1000}}]}
JSON
`

func TestWhisperCPP(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "whisper-cli")
	if err := os.WriteFile(bin, []byte(fakeWhisper), 0755); err != nil {
		t.Fatal(err)
	}
	model := filepath.Join(dir, "ggml-base.en.bin")
	if err := os.WriteFile(model, []byte("model"), 0644); err != nil {
		t.Fatal(err)
	}

	eng, err := NewWhisperCPP(WhisperCPPConfig{Binary: bin, Model: model}, nil)
	if err != nil {
		t.Fatal(err)
	}
	segs, err := eng.Transcribe(context.Background(), tone(8000), Options{})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got := JoinSegments(segs); got != "hello world" {
		t.Errorf("text = %q", got)
	}
}

func TestWhisperCPPFailure(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "whisper-cli")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\necho 'failed to load model' >&2\nexit 1\n"), 0755); err != nil {
		t.Fatal(err)
	}
	model := filepath.Join(dir, "model.bin")
	os.WriteFile(model, nil, 0644)

	eng, err := NewWhisperCPP(WhisperCPPConfig{Binary: bin, Model: model}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = eng.Transcribe(context.Background(), tone(8000), Options{})
	if !errors.Is(err, ErrEngineInvocation) || !strings.Contains(err.Error(), "failed to load model") {
		t.Errorf("err = %v", err)
	}
}

func TestNewWhisperCPPMissingModel(t *testing.T) {
	if _, err := NewWhisperCPP(WhisperCPPConfig{Binary: "/bin/true", Model: "/nonexistent/model.bin"}, nil); err == nil {
		t.Error("expected error for missing model")
	}
}

func TestFake(t *testing.T) {
	f := &Fake{Segments: []Segment{{Text: "hi"}}}
	segs, err := f.Transcribe(context.Background(), []float32{1, 2}, Options{VAD: &vad.DefaultOptions})
	if err != nil || len(segs) != 1 {
		t.Fatalf("segments = %v, err = %v", segs, err)
	}
	samples, opts := f.LastCall()
	if f.Calls() != 1 || len(samples) != 2 || opts.VAD.MinSilence != 500*time.Millisecond {
		t.Errorf("recorded call = %d, %v, %+v", f.Calls(), samples, opts)
	}
}

func TestTraceRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	client := newHTTPClient()
	var got []uploadMetrics
	for range 2 {
		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		if err != nil {
			t.Fatal(err)
		}
		resp, err := traceRequest(req, client.Do, func(m uploadMetrics) { got = append(got, m) })
		if err != nil {
			t.Fatal(err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	if len(got) != 2 {
		t.Fatalf("reported %d requests, want 2", len(got))
	}
	if got[0].Total <= 0 || got[0].ConnReused {
		t.Errorf("first request = %+v, want a fresh connection with a total", got[0])
	}
	if !got[1].ConnReused {
		t.Error("second request should reuse the idle connection")
	}
}

func TestTraceRequestEarlyResponse(t *testing.T) {
	// The server answers before draining the upload, so the transport's
	// read and write loops run their hooks at the same time.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)
		rc.EnableFullDuplex()
		w.WriteHeader(http.StatusOK)
		rc.Flush()
		io.Copy(io.Discard, r.Body)
	}))
	defer srv.Close()

	client := newHTTPClient()
	for range 5 {
		req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(strings.Repeat("x", 1<<20)))
		if err != nil {
			t.Fatal(err)
		}
		var got uploadMetrics
		resp, err := traceRequest(req, client.Do, func(m uploadMetrics) { got = m })
		if err != nil {
			t.Fatal(err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if got.Total <= 0 {
			t.Errorf("total = %v, want > 0", got.Total)
		}
	}
}
