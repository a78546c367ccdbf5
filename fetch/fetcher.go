// Package fetch implements MissingBlockFetcher: closing the loop between
// peer votes for blocks this node does not hold and Admission.
package fetch

import (
	"context"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/veriloom/unfrozen/admission"
	"github.com/veriloom/unfrozen/collab"
	"github.com/veriloom/unfrozen/pool"
)

// Fetcher requests candidate blocks peers have voted for but this node
// does not hold.
type Fetcher struct {
	log log.Logger

	pool      *pool.Pool
	chain     collab.FrozenChain
	registry  collab.VoteRegistry
	transport collab.MeshTransport
	admission *admission.Admission

	requests prometheus.Counter
}

// New returns a Fetcher backed by admission, into which every matching peer
// response is re-submitted.
func New(
	p *pool.Pool,
	chain collab.FrozenChain,
	registry collab.VoteRegistry,
	transport collab.MeshTransport,
	admit *admission.Admission,
	logger log.Logger,
	reg prometheus.Registerer,
) (*Fetcher, error) {
	requests := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "missing_block_fetcher_requests_total",
		Help: "Number of missing-block requests issued to peers",
	})
	if reg != nil {
		if err := reg.Register(requests); err != nil {
			return nil, err
		}
	}
	return &Fetcher{
		log:       logger,
		pool:      p,
		chain:     chain,
		registry:  registry,
		transport: transport,
		admission: admit,
		requests:  requests,
	}, nil
}

// Sweep requests every height/hash VoteRegistry knows about above the
// frozen edge that the pool does not currently hold.
func (f *Fetcher) Sweep(ctx context.Context) error {
	frozenEdge := f.chain.FrozenEdgeHeight()
	for _, h := range f.registry.Heights() {
		if h <= frozenEdge {
			continue
		}
		for _, hash := range f.registry.HashesFor(h) {
			if _, ok := f.pool.Get(h, hash); ok {
				continue
			}
			if err := f.Fetch(ctx, h, hash); err != nil {
				return err
			}
		}
	}
	return nil
}

// Fetch requests a single (height, hash) block from a random peer and
// submits it to Admission if the response matches.
func (f *Fetcher) Fetch(ctx context.Context, height uint64, hash ids.ID) error {
	f.requests.Inc()
	resp, err := f.transport.FetchBlockFromRandomPeer(ctx, collab.MissingBlockRequest{Height: height, Hash: hash})
	if err != nil {
		// Network errors are absorbed by transport; the next sweep re-issues.
		if f.log != nil {
			f.log.Debug("missing block fetch failed", "height", height, "hash", hash, "err", err)
		}
		return nil
	}
	if resp.Block == nil {
		return nil
	}
	if resp.Block.Hash() != hash {
		// Silently discarded: the peer answered a different block than asked.
		if f.log != nil {
			f.log.Debug("discarding mismatched block response", "requestedHash", hash, "gotHash", resp.Block.Hash())
		}
		return nil
	}
	f.admission.Admit(ctx, resp.Block, nil)
	return nil
}
