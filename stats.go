package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"dictate/timing"
)

func runStats(args []string) int {
	flags := flag.NewFlagSet("stats", flag.ExitOnError)
	var c common
	c.register(flags)
	path := flags.String("file", "", "timing log (default from config, else $XDG_DATA_HOME/dictation/timing.csv)")
	flags.Parse(args)

	if *path == "" {
		cfg, err := c.load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		*path = cfg.Daemon.TimingLog
	}
	if *path == "" {
		*path = timing.DefaultPath()
	}

	records, err := timing.Read(*path)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("No transcriptions logged yet (%s)\n", *path)
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	printStats(os.Stdout, timing.Summarize(records))
	return 0
}

func printStats(w io.Writer, s timing.Summary) {
	if s.Count == 0 {
		fmt.Fprintln(w, "No transcriptions logged yet")
		return
	}
	a, t := s.Audio, s.Transcribe
	fmt.Fprintf(w, "%d transcriptions, real-time factor %.2f\n\n", s.Count, s.RealTimeFactor)
	fmt.Fprintf(w,
		"             %6s %6s %6s %6s %6s\n"+
			"audio s      %6.1f %6.1f %6.1f %6.1f %6.1f\n"+
			"transcribe s %6.2f %6.2f %6.2f %6.2f %6.2f\n",
		"min", "p50", "p90", "p95", "max",
		a[0], a[1], a[2], a[3], a[4],
		t[0], t[1], t[2], t[3], t[4],
	)
}
