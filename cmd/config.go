package main

import (
	"io"
	"net/url"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/shopfloor/internal/config"
)

const redacted = "xxxxx"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  "Prints the configuration after merging config.yaml, environment and defaults. Secrets and database passwords are masked.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeConfig(os.Stdout, cfg)
	},
}

func writeConfig(w io.Writer, c *config.Config) error {
	masked := *c
	masked.Store.DatabaseURL = redactURL(c.Store.DatabaseURL)
	masked.Audit.DatabaseURL = redactURL(c.Audit.DatabaseURL)
	if masked.Auth.JWTSecret != "" {
		masked.Auth.JWTSecret = redacted
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(masked); err != nil {
		return eris.Wrap(err, "config: encode")
	}
	return eris.Wrap(enc.Close(), "config: encode")
}

// redactURL masks the password of a connection URL. Values that are not
// URLs, such as SQLite paths, pass through.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), redacted)
	return u.String()
}

func init() {
	rootCmd.AddCommand(configCmd)
}
