package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"dictate/audio"
	"dictate/beep"
	"dictate/clipboard"
	"dictate/config"
	"dictate/extcmd"
	"dictate/log"
	"dictate/paste"
	"dictate/session"
	"dictate/shutdown"
)

func runClient(args []string) int {
	fs := flag.NewFlagSet("dictate", flag.ExitOnError)
	var c common
	c.register(fs)
	device := fs.String("device", "", "preferred input device name (overrides the Bluetooth headset)")
	noBT := fs.Bool("no-bt", false, "skip Bluetooth headset profile negotiation")
	noPaste := fs.Bool("no-paste", false, "copy the transcript without pasting it")
	guiFlag := fs.Bool("gui", false, "show the fyne popup (needs -tags gui)")
	fs.Parse(args)

	cfg, err := c.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *device != "" {
		cfg.Audio.Device = *device
	}
	if *noBT {
		cfg.Bluetooth.Enabled = false
	}
	if *noPaste {
		cfg.Client.Paste = false
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
		return 1
	}
	defer actx.Close()

	scfg := clientConfig(ctx, cfg, actx)

	var res session.Result
	switch {
	case *guiFlag:
		res = runGUI(ctx, scfg)
	case term.IsTerminal(int(os.Stdin.Fd())):
		res = runTUI(ctx, scfg)
	default:
		res = runHeadless(ctx, scfg, os.Stdin, os.Stdout)
	}
	return exitCode(res)
}

// clientConfig builds the session collaborators. The paste target is
// recorded here, before any window of ours takes focus.
func clientConfig(ctx context.Context, cfg config.Config, actx audio.Context) session.Config {
	scfg := session.Config{
		Audio:        actx,
		Capture:      audio.CaptureConfig{BlockDuration: cfg.Audio.BlockDuration()},
		Device:       cfg.Audio.Device,
		Dial:         session.DialUnix(cfg.SocketPath()),
		Clipboard:    clipboard.System{},
		Tones:        beep.Player{Disabled: !cfg.Client.Beep},
		QueueFrames:  cfg.Audio.QueueFrames,
		Tick:         cfg.Client.Tick(),
		ErrorDisplay: cfg.Client.ErrorDisplay(),
	}
	if cfg.Bluetooth.Enabled {
		scfg.Codec = newCodecManager(cfg)
	}
	if cfg.Client.Paste {
		runner := extcmd.Exec{}
		scfg.Paster = paste.New(runner, paste.ActiveWindow(ctx, runner))
		// The virtual keyboard needs a moment to register with the
		// display server; recording covers that.
		go func() {
			if err := paste.Init(); err != nil {
				log.Warnf("virtual keyboard: %v", err)
			}
		}()
	}
	return scfg
}
