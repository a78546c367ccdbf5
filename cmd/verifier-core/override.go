package main

import (
	"github.com/spf13/cobra"
)

func overrideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Set or clear a threshold or hash override at a height",
	}
	cmd.AddCommand(overrideThresholdCmd(), overrideHashCmd())
	return cmd
}

func overrideThresholdCmd() *cobra.Command {
	var (
		addr    string
		height  uint64
		percent int
	)
	cmd := &cobra.Command{
		Use:   "threshold",
		Short: "Set the freeze threshold percent at a height (0 removes it)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON(addr, "/override/threshold", thresholdRequest{Height: height, Percent: percent})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "control API address")
	cmd.Flags().Uint64Var(&height, "height", 0, "height to override")
	cmd.Flags().IntVar(&percent, "percent", 0, "threshold percent in [1, 99]; 0 removes the override")
	return cmd
}

func overrideHashCmd() *cobra.Command {
	var (
		addr   string
		height uint64
		hash   string
	)
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Force VoteDecider's vote at a height to a specific hash (the zero hash removes it)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON(addr, "/override/hash", hashRequest{Height: height, Hash: hash})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "control API address")
	cmd.Flags().Uint64Var(&height, "height", 0, "height to override")
	cmd.Flags().StringVar(&hash, "hash", "", "forced hash, in ids.ID string form")
	return cmd
}
