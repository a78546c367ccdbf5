package main

import (
	"github.com/spf13/cobra"
)

func purgeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Clear the candidate pool for debugging or resync",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON(addr, "/purge", struct{}{})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "control API address")
	return cmd
}
