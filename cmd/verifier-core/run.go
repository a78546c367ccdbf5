package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luxfi/ids"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/veriloom/unfrozen/config"
	"github.com/veriloom/unfrozen/consensustest"
	"github.com/veriloom/unfrozen/core"
)

func runCmd() *cobra.Command {
	var (
		addr          string
		configPath    string
		tickInterval  time.Duration
		frozenEdge    uint64
		meshSize      uint64
		cycleLength   uint64
		defaultThresh int
		perHeightCap  int
		fallbackDelay time.Duration
		freezeDwell   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the consensus core's tick loop with a loopback control API",
		Long: `run starts the candidate pool, admission, vote decider, freezer, and
fetcher, ticking them on an interval, and serves the operator control
surface and Prometheus metrics over HTTP for the status/override/purge
subcommands to reach.

This standalone harness wires in-memory stand-ins for FrozenChain,
BalanceEngine, VoteRegistry, MeshTransport, and NodeRegistry; an embedding
node process supplies the real collaborators in production.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg config.Config
			var err error
			if configPath != "" {
				cfg, err = config.LoadFile(configPath)
				if err != nil {
					return err
				}
			} else {
				cfg, err = config.NewBuilder().
					WithPerHeightCap(perHeightCap).
					WithDefaultThresholdPercent(defaultThresh).
					WithFallbackDelay(fallbackDelay).
					WithFreezeDwell(freezeDwell).
					Build()
				if err != nil {
					return err
				}
			}

			chain := consensustest.NewFrozenChain(frozenEdge)
			chain.SetCurrentCycleLength(cycleLength)
			balance := consensustest.NewBalanceEngine()
			registry := consensustest.NewVoteRegistry()
			transport := consensustest.NewMeshTransport()
			nodes := consensustest.NewNodeRegistry(meshSize)
			clock := consensustest.NewClock(time.Now().UnixMilli())

			reg := prometheus.NewRegistry()
			n, err := core.New(cfg, ids.GenerateTestNodeID(), chain, balance, registry, transport, nodes, clock, nil, reg)
			if err != nil {
				return err
			}

			mux := http.NewServeMux()
			(&controlServer{node: n}).routes(mux)
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			server := &http.Server{Addr: addr, Handler: mux}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					fmt.Fprintln(os.Stderr, "control server error:", err)
				}
			}()

			fmt.Printf("verifier-core listening on %s, frozen edge %d\n", addr, frozenEdge)
			err = n.Run(ctx, tickInterval)
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = server.Shutdown(shutdownCtx)
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "control/metrics HTTP listen address")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file (replaces --default-threshold, --per-height-cap, --fallback-delay and --freeze-dwell)")
	cmd.Flags().DurationVar(&tickInterval, "tick", time.Second, "interval between consensus ticks")
	cmd.Flags().Uint64Var(&frozenEdge, "frozen-edge", 0, "starting frozen edge height")
	cmd.Flags().Uint64Var(&meshSize, "mesh-size", 8, "mesh size used during the genesis cycle")
	cmd.Flags().Uint64Var(&cycleLength, "cycle-length", 8, "cycle length used after the genesis cycle")
	cmd.Flags().IntVar(&defaultThresh, "default-threshold", 75, "default freeze threshold percent")
	cmd.Flags().IntVar(&perHeightCap, "per-height-cap", 500, "maximum candidates retained per height")
	cmd.Flags().DurationVar(&fallbackDelay, "fallback-delay", 10*time.Second, "consensus-follow fallback delay")
	cmd.Flags().DurationVar(&freezeDwell, "freeze-dwell", 500*time.Millisecond, "freeze pre/post-check dwell")

	return cmd
}
