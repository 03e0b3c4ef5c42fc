package domain

import "context"

// SaltRepository persists salt records and pool associations. Implementations
// must flush to stable storage before returning from any mutation and must
// serialize concurrent mutations internally.
type SaltRepository interface {
	// GetSalt returns the record for a commitment or ErrSaltNotFound.
	GetSalt(ctx context.Context, commitment string) (*SaltRecord, error)
	// AddSalt inserts or overwrites a record keyed by its commitment.
	AddSalt(ctx context.Context, record SaltRecord) error
	// MarkPoolAssociation records the pool-to-commitment mapping, also for
	// commitments with no known salt.
	MarkPoolAssociation(ctx context.Context, poolID uint64, commitment string) error
	// MarkRevealed flags the record as revealed and records the pool id.
	MarkRevealed(ctx context.Context, commitment string, poolID uint64) error
	// GetPendingPools returns the tracked pools whose salt is known and not
	// yet revealed.
	GetPendingPools(ctx context.Context) ([]TrackedPool, error)
	// GetAll returns the entire store. The dump contains raw salts.
	GetAll(ctx context.Context) (*StoreDump, error)
	Close()
}
