package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/viant/cogniflow"
)

type options struct {
	configPath string
	verbose    bool
	jsonLogs   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "cogniflow",
		Short: "cogniflow - plan, review, execute and synthesize answers",
		Long: `cogniflow turns a request into a reviewable plan, runs each step against a
closed set of tools and streams the synthesized answer.

One-shot question:  cogniflow ask "compute 2+2 using code"
HTTP service:       cogniflow serve --config cogniflow.yaml
Configuration:      cogniflow config show`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogging(cmd.ErrOrStderr(), opts)
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().BoolVar(&opts.jsonLogs, "json-logs", false, "log JSON lines instead of console output")

	cmd.AddCommand(newAskCmd(opts), newServeCmd(opts), newConfigCmd(opts), &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("cogniflow v%s\n", cogniflow.Version)
		},
	})
	return cmd
}

func initLogging(w io.Writer, opts *options) {
	level := zerolog.InfoLevel
	if opts.verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	if w == nil {
		w = os.Stderr
	}
	if !opts.jsonLogs {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

func loadConfig(opts *options) (*cogniflow.Config, error) {
	return cogniflow.LoadConfig(opts.configPath)
}
