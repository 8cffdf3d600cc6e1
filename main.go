// ABOUTME: Entry point for the avio media player
// ABOUTME: Parses CLI flags, sets up logging, and starts playback
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avio-player/avio-go/internal/app"
	"github.com/avio-player/avio-go/internal/probe"
	"github.com/avio-player/avio-go/internal/ui"
	"github.com/avio-player/avio-go/internal/version"
)

var (
	volume  = flag.Float64("volume", 0.7, "Initial audio volume (0.0 to 1.0)")
	logFile = flag.String("log-file", "avio.log", "Log file path")
	noTUI   = flag.Bool("no-tui", false, "Disable TUI, play headless with streaming logs")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <media-file>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file, the terminal belongs to bubbletea
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("Starting %s %s", version.Product, version.Version)

	report, err := probe.Inspect(path)
	if err != nil {
		log.Printf("Probe failed: %v", err)
	} else {
		log.Printf("Media info:\n%s", report.String())
	}

	player := app.New(nil)
	if err := player.Load(path); err != nil {
		log.SetOutput(io.MultiWriter(os.Stderr, f))
		log.Fatalf("Failed to load %s: %v", path, err)
	}
	defer player.Close()

	player.SetVolume(*volume)

	if useTUI {
		if _, err := ui.Run(player, report).Run(); err != nil {
			log.Fatalf("TUI error: %v", err)
		}
		return
	}

	runHeadless(player)
}

// runHeadless paces playback without a UI until the stream ends or the
// process is interrupted.
func runHeadless(player *app.Player) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(player.FrameInterval())
	defer ticker.Stop()

	lastLogged := int64(-1)
	for {
		select {
		case <-sigCh:
			log.Printf("Interrupted, shutting down")
			return
		case now := <-ticker.C:
			if err := player.Advance(now); err != nil {
				log.Printf("Playback error: %v", err)
			}
			if player.AtEnd() {
				log.Printf("Playback finished")
				return
			}
			cur, dur := player.Times()
			if sec := cur / 1000; sec != lastLogged {
				lastLogged = sec
				log.Printf("Position: %ds / %ds", sec, dur/1000)
			}
		}
	}
}
