// Package collab declares the external collaborators the unfrozen-block
// consensus core depends on but does not implement: persistence, balance
// recomputation, vote storage, mesh transport, validator-set membership,
// and wall-clock time. Block (de)serialization and signing have no
// interface here; the core sees only Block.SignatureIsValid. Production
// nodes wire real implementations; consensustest provides in-memory fakes
// for tests.
package collab

import (
	"context"

	"github.com/luxfi/ids"

	"github.com/veriloom/unfrozen/block"
)

// FrozenChain persists frozen blocks and reports the authoritative frozen
// edge and cycle/genesis regime the core needs to size its voting pool.
type FrozenChain interface {
	// FrozenEdgeHeight is the highest height already committed to the
	// canonical chain.
	FrozenEdgeHeight() uint64

	// Freeze commits b as the canonical block at its height. Implementations
	// must not return until the frozen edge has advanced.
	Freeze(ctx context.Context, b block.Block) error

	// InGenesisCycle reports whether the node is still in the early-protocol
	// regime where the validator set is derived from mesh membership.
	InGenesisCycle() bool

	// CurrentCycleLength is the voting-pool divisor once past genesis.
	CurrentCycleLength() uint64

	// OpenEdgeHeight is a lenient upper bound on plausible block heights,
	// used by Admission to reject implausibly far-future candidates.
	OpenEdgeHeight(lenient bool) uint64
}

// BalanceEngine recomputes the balance list implied by a candidate block
// and returns its hash. A block whose claimed balance-list hash diverges
// from the recomputed one is the authoritative signal of transaction-level
// invalidity.
type BalanceEngine interface {
	// ComputeBalanceListHash returns the hash of the balance list b implies,
	// or an error if the balance list cannot be computed (e.g. an
	// unresolvable ancestor).
	ComputeBalanceListHash(ctx context.Context, b block.Block) (ids.ID, error)
}

// VoteRegistry stores peer block votes and this node's own vote per height.
type VoteRegistry interface {
	// LeadingHash returns the most-voted-for hash at height and its vote
	// count. ok is false if no votes are registered at that height.
	LeadingHash(height uint64) (hash ids.ID, votes int, ok bool)

	// LocalVote returns this node's currently registered vote at height, if
	// any.
	LocalVote(height uint64) (hash ids.ID, ok bool)

	// RegisterVote records voter's vote for hash at height.
	RegisterVote(voter ids.NodeID, height uint64, hash ids.ID, timestamp int64)

	// Heights returns every height with at least one registered vote.
	Heights() []uint64

	// HashesFor returns every distinct hash voted for at height.
	HashesFor(height uint64) []ids.ID
}

// MeshTransport broadcasts this node's votes and fetches blocks from peers.
type MeshTransport interface {
	// BroadcastVote gossips v to the mesh.
	BroadcastVote(ctx context.Context, v BlockVote) error

	// FetchBlockFromRandomPeer asks a random peer for the block identified
	// by (height, hash) and returns the peer's response.
	FetchBlockFromRandomPeer(ctx context.Context, req MissingBlockRequest) (MissingBlockResponse, error)
}

// NodeRegistry reports mesh membership size, used to size the voting pool
// during the genesis cycle.
type NodeRegistry interface {
	// MeshSize is the number of known mesh participants.
	MeshSize() uint64
}

// Clock is the wall-clock time collaborator, abstracted so tests can
// control "now" deterministically.
type Clock interface {
	// NowMillis returns the current wall-clock time in milliseconds since
	// the epoch.
	NowMillis() int64
}

// BlockVote is the wire payload broadcast whenever a node's vote changes.
type BlockVote struct {
	Height    uint64
	Hash      ids.ID
	Timestamp int64
}

// MissingBlockRequest is unicast to a random peer to request a block this
// node has seen voted for but does not hold.
type MissingBlockRequest struct {
	Height uint64
	Hash   ids.ID
}

// MissingBlockResponse is a peer's reply to a MissingBlockRequest. Block is
// nil if the peer does not have it.
type MissingBlockResponse struct {
	Block block.Block
}
