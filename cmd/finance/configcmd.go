package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration and exit",
	Long: `Config prints the effective configuration after defaults, the optional
config file, and environment variables have been merged. Secrets are
redacted. No database or network connection is made.`,
	RunE: runConfig,
}

// configView is the printable shape of the resolved config. The secret key
// and admin password never leave the process.
type configView struct {
	Server struct {
		Addr string `json:"addr"`
	} `json:"server"`
	Database struct {
		Backend string `json:"backend"`
		Driver  string `json:"driver"`
	} `json:"database"`
	Auth struct {
		SecretKeyDefault bool   `json:"secret_key_default"`
		TokenTTL         string `json:"token_ttl"`
		LoginMaxFailures int    `json:"login_max_failures"`
		LoginWindow      string `json:"login_window"`
	} `json:"auth"`
	AdminEnabled bool `json:"admin_enabled"`
	RedisEnabled bool `json:"redis_enabled"`
	Telemetry    struct {
		OTLPEndpoint string `json:"otlp_endpoint,omitempty"`
		LogLevel     string `json:"log_level"`
	} `json:"telemetry"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	var view configView
	view.Server.Addr = cfg.Server.Addr()
	view.Database.Backend = string(cfg.Database.Backend)
	view.Database.Driver = cfg.Database.Driver
	view.Auth.SecretKeyDefault = cfg.Auth.SecretKeyDefault
	view.Auth.TokenTTL = cfg.Auth.TokenTTL.String()
	view.Auth.LoginMaxFailures = cfg.Auth.LoginMaxFailures
	view.Auth.LoginWindow = cfg.Auth.LoginWindow.String()
	view.AdminEnabled = cfg.Admin.Enabled()
	view.RedisEnabled = cfg.Redis.URL != ""
	view.Telemetry.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	view.Telemetry.LogLevel = cfg.Telemetry.LogLevel

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
