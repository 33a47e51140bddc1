package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sketchdesk/internal/config"
	"sketchdesk/internal/logger"
)

const (
	AppName = "SketchDesk"
	AppID   = "io.sketchdesk.app"
)

type rootOptions struct {
	configPath string
	dev        bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "sketchdesk",
		Short:        "SketchDesk is a desktop whiteboard",
		Long:         "SketchDesk is a desktop whiteboard that remembers your theme, sidebar and view preferences between runs.",
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			app, err := NewApplication(cfg, log)
			if err != nil {
				return fmt.Errorf("initialize application: %w", err)
			}
			return app.Run(cmd.Context())
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("sketchdesk %s (commit %s)\n", version, commit))
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().BoolVar(&opts.dev, "dev", false, "enable dev tools and dev-only host commands")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newStateCmd(opts))
	root.AddCommand(newVersionCmd())

	return root
}

// load reads the config file and environment, then applies flags.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.NewLoader(o.configPath).Load()
	if err != nil {
		return nil, err
	}
	if o.dev {
		cfg.DevMode = true
	}
	if o.verbose {
		cfg.LogLevel = logger.DebugLevel.String()
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) logger.Logger {
	if cfg.JSONLogs {
		return logger.NewJSONLogger(cfg.Level(), os.Stderr)
	}
	return logger.NewConsoleLogger(cfg.Level())
}
