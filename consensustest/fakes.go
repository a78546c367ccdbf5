// Package consensustest provides in-memory fakes for every external
// collaborator the unfrozen-block consensus core depends on.
package consensustest

import (
	"context"
	"errors"
	"sync"

	"github.com/luxfi/ids"

	"github.com/veriloom/unfrozen/block"
	"github.com/veriloom/unfrozen/collab"
	"github.com/veriloom/unfrozen/internal/bag"
)

// FrozenChain is a fake collab.FrozenChain backed by plain fields, with a
// mutex since Freezer calls it from within the pool's critical section.
type FrozenChain struct {
	mu sync.Mutex

	edge        uint64
	genesis     bool
	cycleLength uint64
	openEdge    uint64

	Frozen []block.Block
}

// NewFrozenChain returns a fake FrozenChain starting at frozenEdge.
func NewFrozenChain(frozenEdge uint64) *FrozenChain {
	return &FrozenChain{
		edge:        frozenEdge,
		cycleLength: 8,
		openEdge:    frozenEdge + 1_000_000,
	}
}

func (f *FrozenChain) FrozenEdgeHeight() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.edge
}

func (f *FrozenChain) Freeze(ctx context.Context, b block.Block) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.Height() != f.edge+1 {
		return errors.New("consensustest: freeze called out of order")
	}
	f.edge = b.Height()
	f.Frozen = append(f.Frozen, b)
	return nil
}

func (f *FrozenChain) InGenesisCycle() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.genesis
}

func (f *FrozenChain) SetGenesisCycle(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genesis = v
}

func (f *FrozenChain) CurrentCycleLength() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cycleLength
}

func (f *FrozenChain) SetCurrentCycleLength(n uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cycleLength = n
}

func (f *FrozenChain) OpenEdgeHeight(lenient bool) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openEdge
}

func (f *FrozenChain) SetOpenEdgeHeight(h uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openEdge = h
}

// BalanceEngine is a fake collab.BalanceEngine. By default it accepts every
// block's claimed balance-list hash; tests that need a mismatch set
// Override or Fail for a specific hash.
type BalanceEngine struct {
	mu       sync.Mutex
	Override map[ids.ID]ids.ID
	Fail     map[ids.ID]bool
}

// NewBalanceEngine returns a permissive fake BalanceEngine.
func NewBalanceEngine() *BalanceEngine {
	return &BalanceEngine{
		Override: make(map[ids.ID]ids.ID),
		Fail:     make(map[ids.ID]bool),
	}
}

func (e *BalanceEngine) ComputeBalanceListHash(ctx context.Context, b block.Block) (ids.ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Fail[b.Hash()] {
		return ids.Empty, errors.New("consensustest: balance list computation failed")
	}
	if override, ok := e.Override[b.Hash()]; ok {
		return override, nil
	}
	return b.BalanceListHash(), nil
}

// VoteRegistry is a fake collab.VoteRegistry storing votes in a bag per
// height.
type VoteRegistry struct {
	mu        sync.Mutex
	votes     map[uint64]bag.Bag[ids.ID]
	voted     map[uint64]map[ids.NodeID]bool
	localVote map[uint64]ids.ID
}

// NewVoteRegistry returns an empty fake VoteRegistry.
func NewVoteRegistry() *VoteRegistry {
	return &VoteRegistry{
		votes:     make(map[uint64]bag.Bag[ids.ID]),
		voted:     make(map[uint64]map[ids.NodeID]bool),
		localVote: make(map[uint64]ids.ID),
	}
}

func (v *VoteRegistry) RegisterVote(voter ids.NodeID, height uint64, hash ids.ID, timestamp int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	b, ok := v.votes[height]
	if !ok {
		b = bag.New[ids.ID]()
	}
	b.Add(hash)
	v.votes[height] = b
	v.localVote[height] = hash
}

// SeedVotes sets the vote count for hash at height directly, for test
// setup that doesn't care about individual voter identities.
func (v *VoteRegistry) SeedVotes(height uint64, hash ids.ID, count int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	b, ok := v.votes[height]
	if !ok {
		b = bag.New[ids.ID]()
	}
	for i := 0; i < count; i++ {
		b.Add(hash)
	}
	v.votes[height] = b
}

func (v *VoteRegistry) LeadingHash(height uint64) (ids.ID, int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	b, ok := v.votes[height]
	if !ok || b.Len() == 0 {
		return ids.Empty, 0, false
	}
	hash, count := b.Mode()
	return hash, count, true
}

func (v *VoteRegistry) LocalVote(height uint64) (ids.ID, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	hash, ok := v.localVote[height]
	return hash, ok
}

func (v *VoteRegistry) Heights() []uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]uint64, 0, len(v.votes))
	for h := range v.votes {
		out = append(out, h)
	}
	return out
}

func (v *VoteRegistry) HashesFor(height uint64) []ids.ID {
	v.mu.Lock()
	defer v.mu.Unlock()
	b, ok := v.votes[height]
	if !ok {
		return nil
	}
	return b.List()
}

// MeshTransport is a fake collab.MeshTransport recording broadcast votes
// and serving canned fetch responses.
type MeshTransport struct {
	mu         sync.Mutex
	Broadcasts []collab.BlockVote
	Responses  map[ids.ID]collab.MissingBlockResponse
}

// NewMeshTransport returns an empty fake MeshTransport.
func NewMeshTransport() *MeshTransport {
	return &MeshTransport{Responses: make(map[ids.ID]collab.MissingBlockResponse)}
}

func (m *MeshTransport) BroadcastVote(ctx context.Context, v collab.BlockVote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Broadcasts = append(m.Broadcasts, v)
	return nil
}

func (m *MeshTransport) SetResponse(hash ids.ID, resp collab.MissingBlockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[hash] = resp
}

func (m *MeshTransport) FetchBlockFromRandomPeer(ctx context.Context, req collab.MissingBlockRequest) (collab.MissingBlockResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if resp, ok := m.Responses[req.Hash]; ok {
		return resp, nil
	}
	return collab.MissingBlockResponse{}, nil
}

// NodeRegistry is a fake collab.NodeRegistry with a settable mesh size.
type NodeRegistry struct {
	mu   sync.Mutex
	size uint64
}

// NewNodeRegistry returns a fake NodeRegistry reporting size.
func NewNodeRegistry(size uint64) *NodeRegistry {
	return &NodeRegistry{size: size}
}

func (n *NodeRegistry) MeshSize() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.size
}

func (n *NodeRegistry) SetMeshSize(size uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.size = size
}

// Clock is a fake collab.Clock with a settable "now".
type Clock struct {
	mu  sync.Mutex
	now int64
}

// NewClock returns a fake Clock starting at now.
func NewClock(now int64) *Clock {
	return &Clock{now: now}
}

func (c *Clock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *Clock) Advance(deltaMillis int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += deltaMillis
}

// Block builds a block.Block with a fluent setter chain for tests.
type Block struct {
	height       uint64
	hash         ids.ID
	previousHash ids.ID
	verifyTs     int64
	minVoteTs    int64
	balanceHash  ids.ID
	sigValid     bool
	score        int64
}

// NewBlock returns a Block builder for height with a freshly generated hash.
func NewBlock(height uint64) *Block {
	return &Block{
		height:   height,
		hash:     ids.GenerateTestID(),
		sigValid: true,
	}
}

func (b *Block) WithHash(h ids.ID) *Block              { b.hash = h; return b }
func (b *Block) WithPreviousHash(h ids.ID) *Block      { b.previousHash = h; return b }
func (b *Block) WithVerificationTimestamp(t int64) *Block { b.verifyTs = t; return b }
func (b *Block) WithMinimumVoteTimestamp(t int64) *Block  { b.minVoteTs = t; return b }
func (b *Block) WithBalanceListHash(h ids.ID) *Block   { b.balanceHash = h; return b }
func (b *Block) WithSignatureValid(v bool) *Block      { b.sigValid = v; return b }
func (b *Block) WithChainScore(s int64) *Block         { b.score = s; return b }

// Build returns the block.Block described by the builder.
func (b *Block) Build() block.Block {
	return block.New(b.height, b.hash, b.previousHash, b.verifyTs, b.minVoteTs, b.balanceHash, b.sigValid,
		func(uint64) int64 { return b.score })
}
