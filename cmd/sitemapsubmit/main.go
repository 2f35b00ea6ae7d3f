package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sitemapsubmit/internal/sitemapsubmit"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "sitemapsubmit",
	Short:         "Submit sitemap changes to search engines",
	Long:          "sitemapsubmit pings search-engine endpoints when site content changes and clears the companion sitemap cache.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", getenvDefault("SITEMAPSUBMIT_CONFIG", "sitemapsubmit.yaml"), "path to sitemapsubmit.yaml")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openService loads the config and builds the service. Callers must Close it.
func openService(ctx context.Context) (*sitemapsubmit.Service, error) {
	cfg, err := sitemapsubmit.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	sitemapsubmit.InitLogger(os.Stderr, cfg.Log.Level)

	svc, err := sitemapsubmit.NewService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init service: %w", err)
	}
	return svc, nil
}

func getenvDefault(name, def string) string {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	return v
}
