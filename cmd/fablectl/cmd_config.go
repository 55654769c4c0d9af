package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fablecraft/backend/internal/infrastructure/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configFlags struct {
	format string
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets redacted",
	Long:  "Loads config.toml and FABLE_* environment variables the way the server\ndoes, applies defaults and validation, and prints the result.",
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().StringVar(&configFlags.format, "format", "yaml", "yaml or json")
}

const redacted = "<redacted>"

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFrom(rootFlags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return dumpConfig(cmd.OutOrStdout(), redact(*cfg), configFlags.format)
}

// redact blanks credentials; empty values stay empty so a missing secret shows
func redact(cfg config.Config) config.Config {
	mask := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}
	mask(&cfg.Database.Password)
	mask(&cfg.Redis.Password)
	mask(&cfg.JWT.Secret)
	mask(&cfg.JWT.RefreshSecret)
	mask(&cfg.AI.APIKey)
	mask(&cfg.Storage.AccessKeyID)
	mask(&cfg.Storage.SecretAccessKey)
	return cfg
}

func dumpConfig(w io.Writer, cfg config.Config, format string) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	default:
		return fmt.Errorf("unknown format %q, want yaml or json", format)
	}
}
