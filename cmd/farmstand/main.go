// Command farmstand serves the farm stand catalog and manages its data.
//
// Usage:
//
//	farmstand serve [--port 3000] [--driver sqlite|postgres|mongo]
//	farmstand seed  [--file seed.yaml]
//
// Configuration comes from environment variables (optionally loaded from a
// .env file); flags override the environment.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-farmstand/internal/config"
	"github.com/tbourn/go-farmstand/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "farmstand",
		Short:         "Farm stand product and farm catalog",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().String("driver", "", "storage driver override (sqlite, postgres, mongo)")

	root.AddCommand(newServeCmd(), newSeedCmd())
	return root
}

// loadConfig reads the dotenv file and environment, then applies flag
// overrides and re-validates.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if err := config.LoadDotenv(envFile); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}

	driver, err := cmd.Flags().GetString("driver")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get driver flag: %w", err)
	}
	cfg.Storage.Driver = sysutil.FirstNonEmpty(driver, cfg.Storage.Driver)

	if cmd.Flags().Lookup("port") != nil {
		port, err := cmd.Flags().GetString("port")
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to get port flag: %w", err)
		}
		cfg.Port = sysutil.FirstNonEmpty(port, cfg.Port)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	sysutil.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	return cfg, nil
}
