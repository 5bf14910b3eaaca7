// Package protocol implements the client/daemon wire format: raw float32 PCM
// audio in one direction and newline-delimited control lines in the other.
package protocol

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SampleRate is the fixed rate of the audio stream, in Hz.
const SampleRate = 16000

// BytesPerSample is the size of one little-endian float32 sample on the wire.
const BytesPerSample = 4

const (
	tagProgress = 'L'
	tagResult   = 'F'
)

type Kind int

const (
	Progress Kind = iota + 1
	Result
)

func (k Kind) String() string {
	switch k {
	case Progress:
		return "progress"
	case Result:
		return "result"
	default:
		return "unknown"
	}
}

// Message is a decoded control line. Seconds is set for Progress, Text for Result.
type Message struct {
	Kind    Kind
	Seconds float64
	Text    string
}

func ProgressMessage(seconds float64) Message {
	return Message{Kind: Progress, Seconds: seconds}
}

func ResultMessage(text string) Message {
	return Message{Kind: Result, Text: text}
}

// Encode renders m as a single protocol line, newline included.
// Newlines inside result text are replaced by spaces so the line stays intact.
func (m Message) Encode() []byte {
	switch m.Kind {
	case Progress:
		return []byte(fmt.Sprintf("%c %.1f\n", tagProgress, m.Seconds))
	case Result:
		text := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(m.Text)
		return []byte(fmt.Sprintf("%c %s\n", tagResult, text))
	default:
		return nil
	}
}

// WriteMessage writes one encoded message to w.
func WriteMessage(w io.Writer, m Message) error {
	line := m.Encode()
	if line == nil {
		return fmt.Errorf("encode %s message: unknown kind", m.Kind)
	}
	_, err := w.Write(line)
	return err
}

// ParseLine decodes a single line without its trailing newline. The boolean
// is false for unknown or malformed lines.
func ParseLine(line string) (Message, bool) {
	line = strings.TrimSuffix(line, "\r")
	if len(line) < 2 || line[1] != ' ' {
		return Message{}, false
	}
	payload := line[2:]
	switch line[0] {
	case tagProgress:
		secs, err := strconv.ParseFloat(strings.TrimSpace(payload), 64)
		if err != nil {
			return Message{}, false
		}
		return ProgressMessage(secs), true
	case tagResult:
		return ResultMessage(payload), true
	default:
		return Message{}, false
	}
}
