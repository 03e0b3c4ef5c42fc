package ports

import (
	"context"

	"github.com/fairplay-vault/sentinel/internal/core/domain"
)

// RevealReceipt holds the confirmation details of a reveal transaction.
type RevealReceipt struct {
	TxHash      string
	BlockNumber uint64
}

// VaultService is the gateway to the on-chain prize-pool vault contract. All
// failures cross this boundary as plain error messages, transport details must
// not leak to callers. Terminal contract rejections wrap domain.ErrPoolFinalized.
type VaultService interface {
	// SentinelAddress returns the service's own on-chain address.
	SentinelAddress() string
	// VaultAddress returns the address of the vault contract.
	VaultAddress() string
	// ChainID returns the id of the connected chain.
	ChainID() uint64
	// GetPool reads the authoritative pool state from the contract.
	GetPool(ctx context.Context, poolID uint64) (*domain.PoolInfo, error)
	// ChainTime returns the latest block timestamp.
	ChainTime(ctx context.Context) (int64, error)
	// RevealSentinel submits revealSentinel(poolId, salt) and waits for
	// confirmation. Single attempt, no internal retry.
	RevealSentinel(ctx context.Context, poolID uint64, saltHex string) (*RevealReceipt, error)
	// PoolCreatedEvents streams pool-creation events until ctx is done. The
	// implementation reconnects internally, delivery is at-least-once.
	PoolCreatedEvents(ctx context.Context) <-chan domain.PoolCreatedEvent
	Close()
}
