package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/term"
)

func init() {
	// The simulation role belongs to the goroutine that starts the
	// coordinator; keep it on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runRun(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "pause":
		os.Exit(runPause(os.Args[2:], true))
	case "resume":
		os.Exit(runPause(os.Args[2:], false))
	case "fullscreen":
		os.Exit(runFullscreen(os.Args[2:]))
	case "snapshot":
		os.Exit(runSnapshot(os.Args[2:]))
	case "record":
		os.Exit(runRecord(os.Args[2:]))
	case "fx":
		os.Exit(runFX(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "monitors":
		os.Exit(runMonitors(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "quit":
		os.Exit(runQuit(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: winthread <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Open the windows and run the simulation (foreground)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  status              Show status of the running instance")
	fmt.Fprintln(w, "  pause               Pause the simulation")
	fmt.Fprintln(w, "  resume              Resume the simulation")
	fmt.Fprintln(w, "  fullscreen          Toggle fullscreen on every window")
	fmt.Fprintln(w, "  snapshot            Save the current frame of every window")
	fmt.Fprintln(w, "  record              Start or stop frame recording")
	fmt.Fprintln(w, "  fx                  Toggle the scanline effect")
	fmt.Fprintln(w, "  windows             List windows")
	fmt.Fprintln(w, "  monitors            List monitors")
	fmt.Fprintln(w, "  reload              Reload the config file")
	fmt.Fprintln(w, "  quit                Ask the running instance to exit")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config init         Write a default config file")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'winthread <command> --help' for command-specific options.")
}

// newLogger writes text to a terminal and JSON otherwise.
func newLogger(level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
