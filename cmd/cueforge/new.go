package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/cueforge/cueforge/show"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newNewCommand(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "new <workspace>",
		Short: "Create an empty workspace file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			exists, err := afero.Exists(opts.fs, path)
			if err != nil {
				return err
			}
			if exists && !force {
				var overwrite bool
				form := huh.NewForm(
					huh.NewGroup(
						huh.NewConfirm().
							Title(fmt.Sprintf("%s already exists. Overwrite it?", path)).
							Value(&overwrite),
					),
				)
				if err := form.Run(); err != nil {
					return err
				}
				if !overwrite {
					return fmt.Errorf("workspace %s already exists", path)
				}
			}

			manager := show.New(show.Options{Files: opts.fs})
			manager.NewWorkspace()
			if err := manager.SaveWorkspace(path); err != nil {
				return err
			}
			fmt.Printf("created %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite without asking")
	return cmd
}
