package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sitemapsubmit/internal/sitemapsubmit"
)

var verifyWrite bool

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that the configured sitemap URL is reachable",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		loc, verr := svc.Verify(cmd.Context())
		if verifyWrite {
			if err := sitemapsubmit.SaveConfig(configPath, svc.Config()); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
		}
		if verr != nil {
			return verr
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s verified\n", loc.URL)
		return nil
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyWrite, "write", false, "store the verification result in the config file")
	rootCmd.AddCommand(verifyCmd)
}
