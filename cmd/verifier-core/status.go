package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show candidate pool occupancy and active overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp statusResponse
			if err := getJSON(addr, "/status", &resp); err != nil {
				return err
			}
			fmt.Printf("heights with candidates: %v\n", resp.Heights)
			fmt.Printf("threshold overrides: %v\n", resp.ThresholdOverrides)
			fmt.Printf("hash overrides: %v\n", resp.HashOverrides)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "control API address")
	return cmd
}
