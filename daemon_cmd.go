package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"dictate/daemon"
	"dictate/engine"
	"dictate/log"
	"dictate/shutdown"
	"dictate/timing"
	"dictate/vad"
)

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ExitOnError)
	var c common
	c.register(fs)
	engineFlag := fs.String("engine", "", "transcription engine: openai or whispercpp")
	fs.Parse(args)

	cfg, err := c.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *engineFlag != "" {
		cfg.Daemon.Engine = *engineFlag
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()
	log.SetMirror(os.Stderr)

	eng, err := engine.New(engine.Config{
		Engine:        cfg.Daemon.Engine,
		Language:      cfg.Daemon.Language,
		OpenAIBaseURL: cfg.Engine.OpenAI.BaseURL,
		OpenAIAPIKey:  cfg.Engine.OpenAI.APIKey,
		OpenAIModel:   cfg.Engine.OpenAI.Model,
		OpenAITimeout: cfg.Engine.OpenAI.Timeout(),
		WhisperBinary: cfg.Engine.WhisperCPP.Binary,
		WhisperModel:  cfg.Engine.WhisperCPP.Model,
	})
	if err != nil {
		log.Errorf("engine init: %v", err)
		return 1
	}
	defer eng.Close()

	timingPath := cfg.Daemon.TimingLog
	if timingPath == "" {
		timingPath = timing.DefaultPath()
	}
	srv := daemon.New(eng, timing.NewLog(timingPath), cfg.Daemon.Language)
	srv.Options.VAD = &vad.Options{
		MinSilence: cfg.Daemon.MinSilence(),
		SpeechPad:  cfg.Daemon.SpeechPad(),
	}

	socket := cfg.SocketPath()
	ln, err := daemon.Listen(socket)
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}
	log.DaemonListen(socket, eng.Name())

	ctx, stop := shutdown.Context(context.Background())
	defer stop()
	if err := srv.Serve(ctx, ln); err != nil {
		log.Errorf("serve: %v", err)
		return 1
	}
	log.Info("daemon stopped")
	return 0
}
