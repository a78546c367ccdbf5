// Package core wires the pool, admission, vote, freeze, fetch, and tally
// components into a single cooperating-workers process: one node, one set
// of collaborators, a periodic tick.
package core

import (
	"context"
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/veriloom/unfrozen/admission"
	"github.com/veriloom/unfrozen/collab"
	"github.com/veriloom/unfrozen/config"
	"github.com/veriloom/unfrozen/fetch"
	"github.com/veriloom/unfrozen/freeze"
	"github.com/veriloom/unfrozen/pool"
	"github.com/veriloom/unfrozen/tally"
	"github.com/veriloom/unfrozen/vote"
)

// Node owns the unfrozen-block consensus core: the candidate pool plus the
// four worker components that read and mutate it on each tick.
type Node struct {
	Pool      *pool.Pool
	Admission *admission.Admission
	Vote      *vote.Decider
	Freeze    *freeze.Freezer
	Fetch     *fetch.Fetcher
}

// New wires every component from cfg and the external collaborators.
func New(
	cfg config.Config,
	self ids.NodeID,
	chain collab.FrozenChain,
	balance collab.BalanceEngine,
	registry collab.VoteRegistry,
	transport collab.MeshTransport,
	nodes collab.NodeRegistry,
	clock collab.Clock,
	logger log.Logger,
	reg prometheus.Registerer,
) (*Node, error) {
	p, err := pool.New(cfg.PerHeightCap, logger, reg)
	if err != nil {
		return nil, err
	}

	a := admission.New(p, chain, balance, cfg.MinVerificationInterval, logger)

	d, err := vote.New(p, chain, registry, transport, nodes, clock, self, cfg.FallbackDelay.Milliseconds(), logger, reg)
	if err != nil {
		return nil, err
	}

	fz, err := freeze.New(p, chain, registry, nodes, cfg.FreezeDwell, cfg.DefaultThresholdPercent, logger, reg)
	if err != nil {
		return nil, err
	}

	fe, err := fetch.New(p, chain, registry, transport, a, logger, reg)
	if err != nil {
		return nil, err
	}

	return &Node{Pool: p, Admission: a, Vote: d, Freeze: fz, Fetch: fe}, nil
}

// Tick runs one round: vote, attempt a freeze, then sweep for missing
// blocks, in that order.
func (n *Node) Tick(ctx context.Context) error {
	if err := n.Vote.Tick(ctx); err != nil {
		return err
	}
	if err := n.Freeze.Pass(ctx); err != nil {
		return err
	}
	return n.Fetch.Sweep(ctx)
}

// Run ticks every interval until ctx is done.
func (n *Node) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := n.Tick(ctx); err != nil {
				return err
			}
		}
	}
}

// NewBootstrapTally returns a fresh, independent BootstrapTally instance
// for a new bootstrap attempt.
func NewBootstrapTally(reg prometheus.Registerer) (*tally.Tally, error) {
	return tally.New(reg)
}
