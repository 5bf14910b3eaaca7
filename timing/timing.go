// Package timing keeps the daemon's append-only log of audio and
// transcription durations.
package timing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
)

var header = []string{"audio_s", "transcribe_s"}

type Record struct {
	AudioSeconds      float64
	TranscribeSeconds float64
}

// DefaultPath is <data>/dictation/timing.csv, where <data> is
// $XDG_DATA_HOME or ~/.local/share.
func DefaultPath() string {
	data := os.Getenv("XDG_DATA_HOME")
	if data == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		data = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(data, "dictation", "timing.csv")
}

type Log struct {
	path string
	mu   sync.Mutex
}

func NewLog(path string) *Log {
	return &Log{path: path}
}

func (l *Log) Path() string { return l.path }

// Append writes one row, creating the file and its header row if needed.
func (l *Log) Append(r Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("timing log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open timing log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat timing log: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.Write([]string{
		strconv.FormatFloat(r.AudioSeconds, 'f', 2, 64),
		strconv.FormatFloat(r.TranscribeSeconds, 'f', 2, 64),
	}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Read loads every well-formed row of the log at path. Malformed rows are
// skipped.
func Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var records []Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return records, err
		}
		if len(row) < 2 {
			continue
		}
		audio, err1 := strconv.ParseFloat(row[0], 64)
		transcribe, err2 := strconv.ParseFloat(row[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		records = append(records, Record{AudioSeconds: audio, TranscribeSeconds: transcribe})
	}
	return records, nil
}

// Stats holds min, p50, p90, p95, max.
type Stats [5]float64

type Summary struct {
	Count      int
	Audio      Stats
	Transcribe Stats
	// RealTimeFactor is total transcription time over total audio time.
	RealTimeFactor float64
}

func Summarize(records []Record) Summary {
	n := len(records)
	if n == 0 {
		return Summary{}
	}

	extract := func(fn func(Record) float64) []float64 {
		vals := make([]float64, n)
		for i, r := range records {
			vals[i] = fn(r)
		}
		sort.Float64s(vals)
		return vals
	}

	percentile := func(sorted []float64, p float64) float64 {
		idx := int(float64(len(sorted)-1) * p)
		return sorted[idx]
	}

	calcStats := func(sorted []float64) Stats {
		return Stats{
			sorted[0],
			percentile(sorted, 0.50),
			percentile(sorted, 0.90),
			percentile(sorted, 0.95),
			sorted[len(sorted)-1],
		}
	}

	var audioTotal, transcribeTotal float64
	for _, r := range records {
		audioTotal += r.AudioSeconds
		transcribeTotal += r.TranscribeSeconds
	}
	s := Summary{
		Count:      n,
		Audio:      calcStats(extract(func(r Record) float64 { return r.AudioSeconds })),
		Transcribe: calcStats(extract(func(r Record) float64 { return r.TranscribeSeconds })),
	}
	if audioTotal > 0 {
		s.RealTimeFactor = transcribeTotal / audioTotal
	}
	return s
}
