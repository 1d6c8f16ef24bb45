package cmd

import (
	"io"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/panelvault/coverid/internal/config"
	"github.com/panelvault/coverid/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFile    string

	cfg       config.Config
	logCloser io.Closer
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{cfg: config.Default()}

	cmd := &cobra.Command{
		Use:   "coverid",
		Short: "Identify comic issues from OCR text of a cover or grading slab",
		Long: `coverid turns the OCR text of a comic cover or CGC/CBCS slab label into a
ranked list of catalog issues.

It extracts the title, issue number, publisher and year from the scan, scores
catalog candidates against them, and decides whether to offer a short list of
choices or prompt for a manual search.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional
			_ = godotenv.Load()
			return opts.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logCloser != nil {
				_ = opts.logCloser.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: trace, debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Also write JSON logs to this file")

	cmd.AddCommand(newIdentifyCmd(opts.config))
	cmd.AddCommand(newServeCmd(opts.config))
	cmd.AddCommand(newEvalCmd(opts.config))

	return cmd
}

func (o *rootOptions) load() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFile != "" {
		cfg.LogFile = o.logFile
	}

	closer, err := logging.Init(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.logCloser = closer

	log.Debug().Str("config", o.configPath).Str("catalog", cfg.Catalog).Msg("configuration loaded")
	return nil
}

func (o *rootOptions) config() config.Config {
	return o.cfg
}
