package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pingExpect int

var pingCmd = &cobra.Command{
	Use:   "ping <url>",
	Short: "Send a single check request to a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		res := svc.Ping(cmd.Context(), args[0], pingExpect)
		outcome := "Success"
		if !res.Success {
			outcome = res.ErrorMessage
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"URL", "Status", "Result"},
			[][]string{{args[0], statusText(res.HTTPStatus), outcome}},
		))
		if !res.Success {
			return fmt.Errorf("ping %s: %s", args[0], res.ErrorMessage)
		}
		return nil
	},
}

func init() {
	pingCmd.Flags().IntVar(&pingExpect, "expect", 200, "expected HTTP status")
	rootCmd.AddCommand(pingCmd)
}
