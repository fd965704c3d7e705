package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/1broseidon/winthread/internal/ipc"
)

// parseCommand parses a client subcommand that takes only flags. ok is false
// when the caller should return code.
func parseCommand(fs *flag.FlagSet, args []string, usage, summary string) (code int, ok bool) {
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s\n", usage)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, summary)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", fs.Name())
		fs.Usage()
		return 2, false
	}
	return 0, true
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print JSON")
	if code, ok := parseCommand(fs, args, "winthread status [--json]", "Show status of the running instance via IPC."); !ok {
		return code
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(status)
	}
	fmt.Printf("session:        %s\n", status.Session)
	fmt.Printf("pid:            %d\n", status.PID)
	fmt.Printf("state:          %s\n", status.State)
	fmt.Printf("multithreaded:  %v\n", status.Multithreaded)
	fmt.Printf("throttled:      %v\n", status.Throttled)
	fmt.Printf("paused:         %v (depth %d)\n", status.Paused, status.PauseDepth)
	fmt.Printf("windows:        %d\n", status.Windows)
	fmt.Printf("backend:        %s\n", status.Backend)
	fmt.Printf("frames:         queued %d, skipped %d, drawn %d\n", status.FramesQueued, status.FramesSkipped, status.FramesDrawn)
	fmt.Printf("ticks:          %d\n", status.Ticks)
	fmt.Printf("os_threads:     %d\n", status.OSThreads)
	fmt.Printf("rss_bytes:      %d\n", status.RSSBytes)
	fmt.Printf("uptime:         %s\n", time.Duration(status.UptimeSeconds)*time.Second)
	return 0
}

func runPause(args []string, pause bool) int {
	name, summary := "resume", "Resume the simulation, or release one temporary pause."
	if pause {
		name, summary = "pause", "Pause the simulation, or take a nested temporary pause."
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	temporary := fs.Bool("temporary", false, "Use the nested UI pause instead of the user pause")
	if code, ok := parseCommand(fs, args, "winthread "+name+" [--temporary]", summary); !ok {
		return code
	}

	client := ipc.NewClient()
	var err error
	if pause {
		err = client.Pause(*temporary)
	} else {
		err = client.Resume(*temporary)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runFullscreen(args []string) int {
	fs := flag.NewFlagSet("fullscreen", flag.ContinueOnError)
	if code, ok := parseCommand(fs, args, "winthread fullscreen", "Toggle fullscreen on every window."); !ok {
		return code
	}
	on, err := ipc.NewClient().ToggleFullscreen()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("fullscreen: %v\n", on)
	return 0
}

func runSnapshot(args []string) int {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	if code, ok := parseCommand(fs, args, "winthread snapshot", "Save the current frame of every window as PNG."); !ok {
		return code
	}
	paths, err := ipc.NewClient().Snapshot()
	for _, p := range paths {
		fmt.Println(p)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runRecord(args []string) int {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	if code, ok := parseCommand(fs, args, "winthread record", "Start or stop recording frames."); !ok {
		return code
	}
	on, err := ipc.NewClient().ToggleRecording()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("recording: %v\n", on)
	return 0
}

func runFX(args []string) int {
	fs := flag.NewFlagSet("fx", flag.ContinueOnError)
	if code, ok := parseCommand(fs, args, "winthread fx", "Toggle the scanline effect."); !ok {
		return code
	}
	on, err := ipc.NewClient().ToggleFX()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("fx: %v\n", on)
	return 0
}

func runWindows(args []string) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print JSON")
	if code, ok := parseCommand(fs, args, "winthread windows [--json]", "List the windows of the running instance."); !ok {
		return code
	}
	data, err := ipc.NewClient().ListWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(data.Windows)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HANDLE\tSURFACE\tSTATE\tMONITOR\tSIZE\tFULLSCREEN\tSAFE\tRENDERER")
	for _, w := range data.Windows {
		fmt.Fprintf(tw, "%s\t0x%x\t%s\t%s\t%dx%d\t%v\t%v\t%v\n",
			w.Handle, w.Surface, w.State, w.Monitor, w.Width, w.Height,
			w.Fullscreen, w.FullscreenSafe, w.HasRenderer)
	}
	tw.Flush()
	return 0
}

func runMonitors(args []string) int {
	fs := flag.NewFlagSet("monitors", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print JSON")
	if code, ok := parseCommand(fs, args, "winthread monitors [--json]", "List monitors as seen by the running instance."); !ok {
		return code
	}
	data, err := ipc.NewClient().GetMonitors()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(data.Monitors)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRIMARY\tBOUNDS\tWORK AREA")
	for _, m := range data.Monitors {
		fmt.Fprintf(tw, "%d\t%s\t%v\t%dx%d+%d+%d\t%dx%d+%d+%d\n",
			m.ID, m.Name, m.Primary,
			m.Width, m.Height, m.X, m.Y,
			m.WorkW, m.WorkH, m.WorkX, m.WorkY)
	}
	tw.Flush()
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	if code, ok := parseCommand(fs, args, "winthread reload", "Reload the config file of the running instance."); !ok {
		return code
	}
	data, err := ipc.NewClient().Reload()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("applied: %v\n", data.Applied)
	if len(data.RestartRequired) > 0 {
		fmt.Printf("restart required: %v\n", data.RestartRequired)
	}
	return 0
}

func runQuit(args []string) int {
	fs := flag.NewFlagSet("quit", flag.ContinueOnError)
	if code, ok := parseCommand(fs, args, "winthread quit", "Ask the running instance to exit."); !ok {
		return code
	}
	if err := ipc.NewClient().Quit(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
