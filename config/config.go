// Package config resolves settings from built-in defaults, the TOML config
// file and the environment. Command-line flags are applied last by main.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"dictate/protocol"
)

type Config struct {
	Audio     Audio     `toml:"audio"`
	Bluetooth Bluetooth `toml:"bluetooth"`
	Daemon    Daemon    `toml:"daemon"`
	Engine    Engine    `toml:"engine"`
	Client    Client    `toml:"client"`
	Log       Log       `toml:"log"`
}

type Audio struct {
	Device      string `toml:"device"`
	BlockMS     int    `toml:"block_ms"`
	QueueFrames int    `toml:"queue_frames"`
}

type Bluetooth struct {
	Enabled       bool `toml:"enabled"`
	SettleMS      int  `toml:"settle_ms"`
	ToolTimeoutMS int  `toml:"tool_timeout_ms"`
}

type Daemon struct {
	Socket       string `toml:"socket"`
	Engine       string `toml:"engine"`
	Language     string `toml:"language"`
	MinSilenceMS int    `toml:"min_silence_ms"`
	SpeechPadMS  int    `toml:"speech_pad_ms"`
	TimingLog    string `toml:"timing_log"`
}

type Engine struct {
	OpenAI     OpenAI     `toml:"openai"`
	WhisperCPP WhisperCPP `toml:"whispercpp"`
}

type OpenAI struct {
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
	TimeoutS int    `toml:"timeout_s"`
}

type WhisperCPP struct {
	Binary string `toml:"binary"`
	Model  string `toml:"model"`
}

type Client struct {
	ErrorDisplayMS int  `toml:"error_display_ms"`
	TickMS         int  `toml:"tick_ms"`
	Paste          bool `toml:"paste"`
	Beep           bool `toml:"beep"`
}

type Log struct {
	Dir string `toml:"dir"`
}

func Default() Config {
	return Config{
		Audio:     Audio{BlockMS: 30, QueueFrames: 2048},
		Bluetooth: Bluetooth{Enabled: true, SettleMS: 500, ToolTimeoutMS: 5000},
		Daemon:    Daemon{Engine: "openai", MinSilenceMS: 500, SpeechPadMS: 300},
		Engine: Engine{
			OpenAI:     OpenAI{Model: "whisper-1", TimeoutS: 120},
			WhisperCPP: WhisperCPP{Binary: "whisper-cli"},
		},
		Client: Client{ErrorDisplayMS: 3000, TickMS: 500, Paste: true, Beep: true},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/dictate/config.toml.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "dictate", "config.toml")
}

// Load reads path (DefaultPath when empty) over the defaults and then
// applies the environment. A missing default file is not an error; a
// missing explicit one is.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case err == nil:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return cfg, fmt.Errorf("%s: unknown keys %v", path, undecoded)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.Daemon.Socket = envOrDefault("DICTATE_SOCKET", c.Daemon.Socket)
	c.Audio.Device = envOrDefault("DICTATE_DEVICE", c.Audio.Device)
	c.Daemon.Engine = envOrDefault("DICTATE_ENGINE", c.Daemon.Engine)
	c.Daemon.Language = envOrDefault("DICTATE_LANGUAGE", c.Daemon.Language)
	c.Log.Dir = envOrDefault("DICTATE_LOG_PATH", c.Log.Dir)
	c.Engine.OpenAI.APIKey = firstNonEmpty(os.Getenv("OPENAI_API_KEY"), c.Engine.OpenAI.APIKey)
	c.Engine.OpenAI.BaseURL = firstNonEmpty(os.Getenv("OPENAI_BASE_URL"), c.Engine.OpenAI.BaseURL)
	c.Engine.OpenAI.Model = envOrDefault("DICTATE_MODEL", c.Engine.OpenAI.Model)
	c.Engine.WhisperCPP.Model = envOrDefault("DICTATE_WHISPER_MODEL", c.Engine.WhisperCPP.Model)
	c.Bluetooth.Enabled = envOrDefaultBool("DICTATE_BLUETOOTH", c.Bluetooth.Enabled)
	c.Bluetooth.SettleMS = envOrDefaultInt("DICTATE_BT_SETTLE_MS", c.Bluetooth.SettleMS)
	c.Client.Paste = envOrDefaultBool("DICTATE_PASTE", c.Client.Paste)
}

func (c Config) Validate() error {
	var errs []error
	if c.Audio.BlockMS <= 0 {
		errs = append(errs, fmt.Errorf("audio.block_ms must be positive, got %d", c.Audio.BlockMS))
	}
	if c.Audio.QueueFrames <= 0 {
		errs = append(errs, fmt.Errorf("audio.queue_frames must be positive, got %d", c.Audio.QueueFrames))
	}
	if c.Bluetooth.SettleMS < 0 || c.Bluetooth.ToolTimeoutMS <= 0 {
		errs = append(errs, errors.New("bluetooth.settle_ms must not be negative and tool_timeout_ms must be positive"))
	}
	if c.Daemon.MinSilenceMS < 0 || c.Daemon.SpeechPadMS < 0 {
		errs = append(errs, errors.New("daemon.min_silence_ms and speech_pad_ms must not be negative"))
	}
	switch strings.ToLower(c.Daemon.Engine) {
	case "openai", "whispercpp", "whisper.cpp", "whisper-cpp":
	default:
		errs = append(errs, fmt.Errorf("daemon.engine: unknown engine %q", c.Daemon.Engine))
	}
	return errors.Join(errs...)
}

// SocketPath is the configured socket, or the default under
// $XDG_RUNTIME_DIR.
func (c Config) SocketPath() string {
	if c.Daemon.Socket != "" {
		return c.Daemon.Socket
	}
	return protocol.SocketPath()
}

func (a Audio) BlockDuration() time.Duration { return ms(a.BlockMS) }

func (b Bluetooth) Settle() time.Duration      { return ms(b.SettleMS) }
func (b Bluetooth) ToolTimeout() time.Duration { return ms(b.ToolTimeoutMS) }

func (d Daemon) MinSilence() time.Duration { return ms(d.MinSilenceMS) }
func (d Daemon) SpeechPad() time.Duration  { return ms(d.SpeechPadMS) }

func (c Client) ErrorDisplay() time.Duration { return ms(c.ErrorDisplayMS) }
func (c Client) Tick() time.Duration         { return ms(c.TickMS) }

func (o OpenAI) Timeout() time.Duration { return time.Duration(o.TimeoutS) * time.Second }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	switch strings.TrimSpace(strings.ToLower(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
