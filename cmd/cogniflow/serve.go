package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/viant/cogniflow"
	transport "github.com/viant/cogniflow/transport/http"
)

func newServeCmd(opts *options) *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sessions over HTTP and websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := cogniflow.NewViper(opts.configPath)
			if err != nil {
				return err
			}
			config, err := cogniflow.DecodeConfig(v)
			if err != nil {
				return err
			}
			if address != "" {
				config.Server.Address = address
			}
			srv, err := cogniflow.New(cogniflow.WithConfig(config), cogniflow.WithLogger(log.Logger))
			if err != nil {
				return err
			}
			defer srv.Close(context.Background())
			if opts.configPath != "" {
				watchPolicy(v, srv, log.Logger)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return transport.New(srv).ListenAndServe(ctx, config.Server.Address)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address, overrides server.address")
	return cmd
}

// watchPolicy re-applies the review policy whenever the config file changes.
// Other sections need a restart.
func watchPolicy(v *viper.Viper, srv *cogniflow.Service, logger zerolog.Logger) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		config, err := cogniflow.DecodeConfig(v)
		if err != nil {
			logger.Warn().Err(err).Str("file", e.Name).Msg("ignoring invalid config change")
			return
		}
		srv.Policy().Apply(&config.Policy)
		logger.Info().Str("file", e.Name).Str("mode", config.Policy.Mode).Strs("blocked", config.Policy.BlockList).Msg("policy reloaded")
	})
	v.WatchConfig()
}
