// Package remote runs circuit programs on a backend process over
// msgpack-RPC, so a controller can offload sampling to a dedicated
// simulator host.
package remote

import "github.com/GitTumb/QuFRes/internal/circuit"

// #region wire types

// ExecuteRequest carries one program execution over the wire.
type ExecuteRequest struct {
	Program circuit.Program `codec:"program"`
	Shots   int             `codec:"shots"`
	Seed    int64           `codec:"seed"`
}

// ExecuteResponse is the sampled outcome histogram. Counts is keyed by
// outcome index and sums to the requested shot count.
type ExecuteResponse struct {
	Counts map[int]int `codec:"counts"`
}

// PingRequest and PingResponse probe backend liveness.
type PingRequest struct{}

type PingResponse struct {
	MaxQubits int `codec:"max_qubits"`
}

// #endregion
