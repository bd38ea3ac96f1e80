package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"phishjudge/pkg/logger"
	"phishjudge/pkg/server"
)

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP detection service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.Server.WatchBlacklist && a.blacklist.Path() != "" {
				go func() {
					if err := a.blacklist.Watch(cmd.Context(), a.metrics.SetBlacklistSize); err != nil {
						a.log.Warn("blacklist watch disabled", logger.Error(err))
					}
				}()
			}

			srv := server.New(server.Config{
				Addr:           a.cfg.Server.Addr,
				Debug:          debug,
				Version:        Version,
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
			}, a.detector, a.blacklist, a.metrics, a.log)
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	if err := v.BindPFlag("server.addr", cmd.Flags().Lookup("addr")); err != nil {
		panic(fmt.Sprintf("bind addr flag: %v", err))
	}
	return cmd
}
