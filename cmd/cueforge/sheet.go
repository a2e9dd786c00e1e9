package main

import (
	"github.com/cueforge/cueforge/show"
	"github.com/spf13/cobra"
)

func newShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <workspace>",
		Short: "Print the cue sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := show.New(show.Options{Files: opts.fs})
			if err := manager.LoadWorkspace(args[0]); err != nil {
				return err
			}
			printCueSheet(manager)
			return nil
		},
	}
}
