package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/cueforge/cueforge/audio"
	"github.com/cueforge/cueforge/cue"
	"github.com/cueforge/cueforge/health"
	"github.com/cueforge/cueforge/remote"
	"github.com/cueforge/cueforge/show"
	"github.com/spf13/cobra"
	"k8s.io/utils/clock"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <workspace>",
		Short: "Open a workspace and run the console transport",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0])
		},
	}
}

func runShow(opts *rootOptions, path string) error {
	sink := health.NewHandler(clock.RealClock{})
	sink.StartMonitor(time.Duration(opts.cfg.Health.CheckIntervalSeconds) * time.Second)
	defer sink.StopMonitor()
	if opts.cfg.Health.MaxHistory > 0 {
		sink.SetMaxHistory(opts.cfg.Health.MaxHistory)
	}

	engine := audio.NewBeepEngine(opts.fs)
	if err := engine.Init(opts.cfg.Audio.SampleRate); err != nil {
		// Run the sheet anyway; audio cues will report through the sink.
		sink.ReportCritical(fmt.Sprintf("Audio engine init failed: %v", err), "AudioEngine")
	}

	var feedback *remote.Feedback
	if opts.cfg.OSC.Enabled && opts.cfg.OSC.FeedbackAddr != "" {
		f, err := remote.NewFeedback(opts.cfg.OSC.FeedbackAddr)
		if err != nil {
			return err
		}
		feedback = f
	}

	manager := show.New(show.Options{
		Files:  opts.fs,
		Audio:  engine,
		Health: sink,
		Notifier: show.Notifier{
			StandByChanged: func(id string) {
				log.Debugf("standby -> %s", id)
				if feedback != nil {
					feedback.StandBy(id)
				}
			},
			PlaybackChanged: func() {
				if feedback != nil {
					feedback.Playback()
				}
			},
		},
	})
	if err := manager.LoadWorkspace(path); err != nil {
		return err
	}

	if opts.cfg.OSC.Enabled {
		server := remote.NewServer(opts.cfg.OSC.Addr, manager)
		server.SetFeedback(feedback)
		if err := server.Start(); err != nil {
			return err
		}
		defer server.Stop()
	}

	fmt.Printf("%d cues loaded. Commands: go, stop, pause, panic, next, prev, list, quit\n",
		manager.CueCount())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		switch strings.TrimSpace(scanner.Text()) {
		case "go", "g", "":
			manager.Go()
		case "stop", "s":
			manager.StopAll(0)
		case "pause", "p":
			manager.TogglePause()
		case "panic", "!":
			manager.Panic()
		case "next", "n":
			manager.NextCue()
		case "prev":
			manager.PreviousCue()
		case "list", "l":
			printCueSheet(manager)
		case "quit", "q":
			if manager.IsDirty() {
				discard := true
				form := huh.NewForm(
					huh.NewGroup(
						huh.NewConfirm().
							Title("Workspace has unsaved changes. Quit anyway?").
							Value(&discard),
					),
				)
				if err := form.Run(); err != nil {
					return err
				}
				if !discard {
					continue
				}
			}
			manager.Panic()
			return nil
		default:
			fmt.Println("commands: go, stop, pause, panic, next, prev, list, quit")
		}
	}
	return scanner.Err()
}

func printCueSheet(manager *show.Manager) {
	standBy := manager.StandBy()
	for _, c := range manager.Cues() {
		marker := " "
		if c.ID() == standBy {
			marker = ">"
		}
		fmt.Printf("%s %-4s %-30s %-8s %6.1fs\n",
			marker, c.Number(), c.Name(), c.Status(), c.Duration())
		if g, ok := c.(*cue.GroupCue); ok {
			for _, child := range g.Children() {
				fmt.Printf("      %-4s %-28s %-8s %6.1fs\n",
					child.Number(), child.Name(), child.Status(), child.Duration())
			}
		}
	}
}
