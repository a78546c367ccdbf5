package main

import (
	"encoding/json"
	"net/http"

	"github.com/luxfi/ids"

	"github.com/veriloom/unfrozen/core"
)

// controlServer exposes threshold/hash overrides, pool status, and purge
// over HTTP loopback so the override/status/purge subcommands can reach a
// running `verifier-core run` process.
type controlServer struct {
	node *core.Node
}

func (c *controlServer) routes(mux *http.ServeMux) {
	mux.HandleFunc("/status", c.handleStatus)
	mux.HandleFunc("/override/threshold", c.handleSetThreshold)
	mux.HandleFunc("/override/hash", c.handleSetHash)
	mux.HandleFunc("/purge", c.handlePurge)
}

type statusResponse struct {
	Heights            []uint64         `json:"heights"`
	ThresholdOverrides map[uint64]int   `json:"thresholdOverrides"`
	HashOverrides      map[uint64]string `json:"hashOverrides"`
}

func (c *controlServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	hashOverrides := make(map[uint64]string)
	for h, v := range c.node.Pool.GetHashOverrides() {
		hashOverrides[h] = v.String()
	}
	resp := statusResponse{
		Heights:            c.node.Pool.Heights(),
		ThresholdOverrides: c.node.Pool.GetThresholdOverrides(),
		HashOverrides:      hashOverrides,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type thresholdRequest struct {
	Height  uint64 `json:"height"`
	Percent int    `json:"percent"`
}

func (c *controlServer) handleSetThreshold(w http.ResponseWriter, r *http.Request) {
	var req thresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c.node.Pool.SetThresholdOverride(req.Height, req.Percent)
	w.WriteHeader(http.StatusNoContent)
}

type hashRequest struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash"`
}

func (c *controlServer) handleSetHash(w http.ResponseWriter, r *http.Request) {
	var req hashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	hash, err := ids.FromString(req.Hash)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c.node.Pool.SetHashOverride(req.Height, hash)
	w.WriteHeader(http.StatusNoContent)
}

func (c *controlServer) handlePurge(w http.ResponseWriter, r *http.Request) {
	c.node.Pool.Clear()
	w.WriteHeader(http.StatusNoContent)
}
