package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"dictate/audio"
	"dictate/bluetooth"
	"dictate/clipboard"
	"dictate/config"
	"dictate/doctor"
	"dictate/extcmd"
	"dictate/log"
	"dictate/paste"
	"dictate/session"
	"dictate/shutdown"
)

var version = "dev"

func main() {
	cmd := ""
	args := os.Args[1:]
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "":
		os.Exit(runClient(args))
	case "daemon":
		os.Exit(runDaemon(args))
	case "doctor":
		os.Exit(runDoctor(args))
	case "stats":
		os.Exit(runStats(args))
	case "devices":
		os.Exit(runDevices(args))
	case "version":
		fmt.Printf("dictate %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "dictate: unknown command %q\n", cmd)
		fmt.Fprintln(os.Stderr, "usage: dictate [daemon|doctor|stats|devices|version] [flags]")
		os.Exit(2)
	}
}

// common holds the flags every command shares.
type common struct {
	configPath string
	logPath    string
	socket     string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/dictate/config.toml)")
	fs.StringVar(&c.logPath, "logpath", "", "log directory path (default: $XDG_CONFIG_HOME/dictate/logs, use ./ for current dir)")
	fs.StringVar(&c.socket, "socket", "", "daemon socket path")
}

// load resolves the config and points the log package at its directory.
func (c *common) load() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	if c.socket != "" {
		cfg.Daemon.Socket = c.socket
	}
	if c.logPath == "" {
		c.logPath = cfg.Log.Dir
	}
	dir, err := log.ResolveDir(c.logPath)
	if err != nil {
		return cfg, fmt.Errorf("resolve log directory: %w", err)
	}
	log.SetDir(dir)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	initCrashLog()
	return cfg, nil
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

func newCodecManager(cfg config.Config) *bluetooth.Manager {
	mgr := bluetooth.NewManager(bluetooth.NewPactlTool(extcmd.Exec{Timeout: cfg.Bluetooth.ToolTimeout()}))
	mgr.SetSettleDelay(cfg.Bluetooth.Settle())
	return mgr
}

func runDoctor(args []string) int {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	var c common
	c.register(fs)
	device := fs.String("device", "", "preferred input device name")
	captureFor := fs.Duration("capture", time.Second, "record this long from the selected device (0 skips)")
	fs.Parse(args)

	cfg, err := c.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *device == "" {
		*device = cfg.Audio.Device
	}

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	env := doctor.Env{
		Out:        os.Stdout,
		Lookup:     extcmd.Available,
		Bluetooth:  bluetooth.NewPactlTool(extcmd.Exec{Timeout: cfg.Bluetooth.ToolTimeout()}),
		Device:     *device,
		CaptureFor: *captureFor,
		Socket:     cfg.SocketPath(),
		Clipboard:  checkClipboard,
		Keyboard:   paste.Init,
	}
	actx, err := audio.NewContext()
	if err != nil {
		env.AudioErr = err
	} else {
		defer actx.Close()
		env.Audio = actx
	}
	return doctor.Run(ctx, env)
}

func checkClipboard() error {
	if clipboard.Unsupported() {
		return errors.New("no clipboard helper found (install xclip, xsel or wl-clipboard)")
	}
	return nil
}

func runDevices(args []string) int {
	fs := flag.NewFlagSet("devices", flag.ExitOnError)
	var c common
	c.register(fs)
	device := fs.String("device", "", "preferred input device name")
	fs.Parse(args)

	cfg, err := c.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *device == "" {
		*device = cfg.Audio.Device
	}

	actx, err := audio.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
		return 1
	}
	defer actx.Close()
	if err := audio.List(os.Stdout, actx, *device); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// exitCode maps a finished session to the process exit status.
func exitCode(res session.Result) int {
	switch res.State {
	case session.Succeeded, session.Cancelled:
		return 0
	default:
		return 1
	}
}
