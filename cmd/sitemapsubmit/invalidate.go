package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var invalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Clear the companion module's sitemap cache",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		if !svc.Invalidate(cmd.Context()) {
			return errors.New("sitemap cache not cleared")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "sitemap cache cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(invalidateCmd)
}
