package domain

import "strings"

const zeroAddress = "0x0000000000000000000000000000000000000000"

// PoolInfo is the subset of the vault's pool state the sentinel cares about.
// It is always re-read from the contract, never persisted.
type PoolInfo struct {
	ID                     uint64
	Creator                string
	Sentinel               string
	SentinelCommitHash     string
	SentinelRevealDeadline int64
	SentinelRevealed       bool
	Drawn                  bool
	Canceled               bool
}

// HasSentinel reports whether a second committer is registered on the pool.
func (p PoolInfo) HasSentinel() bool {
	return p.Sentinel != "" && !strings.EqualFold(p.Sentinel, zeroAddress)
}

// Finalized reports whether the pool can no longer accept a reveal.
func (p PoolInfo) Finalized() bool {
	return p.Drawn || p.Canceled
}

// TrackedPool associates a discovered pool with the commitment registered on it.
type TrackedPool struct {
	PoolID     uint64 `badgerhold:"key"`
	Commitment string
}

// PoolCreatedEvent is the pool-creation notification emitted by the vault.
// It carries only a subset of the pool fields, full detail requires a read back.
type PoolCreatedEvent struct {
	PoolID      uint64
	Creator     string
	HasSentinel bool
}
