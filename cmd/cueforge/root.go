package main

import (
	"github.com/charmbracelet/log"
	"github.com/cueforge/cueforge/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// rootOptions carries the global flags and the loaded configuration.
type rootOptions struct {
	configPath string
	verbose    bool

	cfg config.Config
	fs  afero.Fs
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:           "cueforge",
		Short:         "Cue-based show control",
		Long:          "CueForge runs cue sheets for live events: audio, waits, groups and control cues advanced with a single GO.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.fs, opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			if opts.verbose {
				log.SetLevel(log.DebugLevel)
			} else {
				log.SetLevel(parseLogLevel(cfg.LogLevel))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newValidateCommand(opts))
	cmd.AddCommand(newShowCommand(opts))
	cmd.AddCommand(newNewCommand(opts))
	return cmd
}

func parseLogLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
