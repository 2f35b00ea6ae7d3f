package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sitemapsubmit/internal/sitemapsubmit"
)

var logLines int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent submission activity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		fl := svc.FileLog()
		if fl == nil {
			return errors.New("log.dir is not configured")
		}
		lines, err := fl.Tail(sitemapsubmit.LogChannel, logLines)
		if err != nil {
			return err
		}
		for _, l := range lines {
			fmt.Fprintln(cmd.OutOrStdout(), l)
		}
		return nil
	},
}

func init() {
	logCmd.Flags().IntVarP(&logLines, "lines", "n", 20, "number of lines to show")
	rootCmd.AddCommand(logCmd)
}
