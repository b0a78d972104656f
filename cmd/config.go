package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/longkey1/shopchat/internal/shopchat/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configFields = "configfile, endpoint_url, site_url, request_timeout, listen_addr, allowed_origins, session_idle_ttl, static_dir, title, error_text, log_level"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [field]",
	Short: "Display current configuration",
	Long: `Display the current configuration values.
This command shows all configuration values loaded from the config file and environment variables.

If a field name is specified, only that field's value is displayed.
Available fields: ` + configFields + `

Examples:
  shopchat config                  # Show all configuration
  shopchat config endpoint_url     # Show only the chat endpoint
  shopchat config request_timeout  # Show only the request timeout`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if len(args) > 0 {
			return printConfigField(cmd.OutOrStdout(), cfg, viper.ConfigFileUsed(), args[0])
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ConfigFile: %s\n", viper.ConfigFileUsed())
		fmt.Fprintf(out, "EndpointURL: %s\n", cfg.EndpointURL)
		fmt.Fprintf(out, "SiteURL: %s\n", cfg.SiteURL)
		fmt.Fprintf(out, "RequestTimeout: %s\n", cfg.RequestTimeout)
		fmt.Fprintf(out, "ListenAddr: %s\n", cfg.ListenAddr)
		fmt.Fprintf(out, "AllowedOrigins: %s\n", strings.Join(cfg.AllowedOrigins, ","))
		fmt.Fprintf(out, "SessionIdleTTL: %s\n", cfg.SessionIdleTTL)
		fmt.Fprintf(out, "StaticDir: %s\n", cfg.StaticDir)
		fmt.Fprintf(out, "Title: %s\n", cfg.Title)
		fmt.Fprintf(out, "ErrorText: %s\n", cfg.ErrorText)
		fmt.Fprintf(out, "LogLevel: %s\n", cfg.LogLevel)
		return nil
	},
}

// printConfigField writes a single configuration value
func printConfigField(w io.Writer, cfg *config.Config, configFile, field string) error {
	switch strings.ToLower(field) {
	case "configfile":
		fmt.Fprintln(w, configFile)
	case "endpoint_url", "endpointurl":
		fmt.Fprintln(w, cfg.EndpointURL)
	case "site_url", "siteurl":
		fmt.Fprintln(w, cfg.SiteURL)
	case "request_timeout", "requesttimeout":
		fmt.Fprintln(w, cfg.RequestTimeout)
	case "listen_addr", "listenaddr":
		fmt.Fprintln(w, cfg.ListenAddr)
	case "allowed_origins", "allowedorigins":
		fmt.Fprintln(w, strings.Join(cfg.AllowedOrigins, ","))
	case "session_idle_ttl", "sessionidlettl":
		fmt.Fprintln(w, cfg.SessionIdleTTL)
	case "static_dir", "staticdir":
		fmt.Fprintln(w, cfg.StaticDir)
	case "title":
		fmt.Fprintln(w, cfg.Title)
	case "error_text", "errortext":
		fmt.Fprintln(w, cfg.ErrorText)
	case "log_level", "loglevel":
		fmt.Fprintln(w, cfg.LogLevel)
	default:
		return fmt.Errorf("unknown field: %s (available fields: %s)", field, configFields)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
}
