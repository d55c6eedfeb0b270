package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format only")
	cmd.PersistentFlags().String("config", "", "Path to a JSON5 configuration file (optional)")
	cmd.PersistentFlags().String("base-url", "", "Forum root, ending in / (default https://keyfc.net/bbs/)")
	cmd.PersistentFlags().String("proxy", "", "Set HTTP/SOCKS5 proxy (e.g., http://localhost:8080)")
	cmd.PersistentFlags().String("timeout", "30s", "Set hard timeout for requests")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().StringArrayP("header", "H", nil, "Extra request header (e.g., -H \"Referer: https://keyfc.net/\")")
	cmd.PersistentFlags().StringP("username", "u", "", "Forum account (password from KEYFC_PASSWORD)")
	cmd.PersistentFlags().StringP("session", "s", "", "Name of a saved session to use")
	cmd.PersistentFlags().String("session-dir", "", "Store sessions as files in this directory instead of the keyring")
	cmd.PersistentFlags().Bool("strict", false, "Fail forum and topic pages that carry no breadcrumbs")
	cmd.PersistentFlags().Bool("no-auto-login", false, "Never log in automatically when the session is stale")
	cmd.PersistentFlags().String("otlp-endpoint", "", "Export request traces to this OTLP/HTTP endpoint (e.g., http://localhost:4318)")
}
