package main

import (
	"fmt"

	"github.com/cueforge/cueforge/show"
	"github.com/spf13/cobra"
)

func newValidateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <workspace>",
		Short: "Check every cue in a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := show.New(show.Options{Files: opts.fs})
			if err := manager.LoadWorkspace(args[0]); err != nil {
				return err
			}
			broken := manager.ValidateAll()
			if len(broken) == 0 {
				fmt.Printf("%d cues, all valid\n", manager.CueCount())
				return nil
			}
			for _, id := range broken {
				c := manager.Cue(id)
				if c == nil {
					continue
				}
				fmt.Printf("cue %s (%s): %s\n", c.Number(), c.Name(), c.ValidationError())
			}
			return fmt.Errorf("%d broken cues", len(broken))
		},
	}
}
