/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/longkey1/shopchat/internal/shopchat/config"
	"github.com/longkey1/shopchat/internal/shopchat/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host the chat widget for browsers",
	Long: `Serve the chat widget over HTTP.

Every browser gets its own transcript, tracked by a session cookie and kept
in memory only. Transcripts idle for longer than session_idle_ttl are dropped.

The server stops cleanly on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		client, err := newClient(cfg)
		if err != nil {
			return fmt.Errorf("creating client: %w", err)
		}

		srv, err := server.New(client, server.Settings{
			Addr:           cfg.ListenAddr,
			Title:          cfg.Title,
			SiteURL:        cfg.SiteURL,
			ErrorText:      cfg.ErrorText,
			AllowedOrigins: cfg.AllowedOrigins,
			IdleTTL:        cfg.SessionIdleTTL,
			StaticDir:      cfg.StaticDir,
		}, server.WithLogger(logger.With().Str("component", "server").Logger()))
		if err != nil {
			return fmt.Errorf("creating server: %w", err)
		}

		logger.Info().
			Str("addr", cfg.ListenAddr).
			Str("endpoint", cfg.EndpointURL).
			Msg("serving chat widget")
		return srv.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "address to listen on (overrides listen_addr)")
	cobra.CheckErr(viper.BindPFlag("listen_addr", serveCmd.Flags().Lookup("listen")))
}
