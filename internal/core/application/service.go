package application

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fairplay-vault/sentinel/internal/core/domain"
	"github.com/fairplay-vault/sentinel/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// CommitmentInfo is returned when a new commitment is minted. The salt is
// handed to the caller once, the service keeps its own copy for the reveal.
type CommitmentInfo struct {
	Address    string
	Commitment string
	Salt       string
}

// Status summarizes the service state for diagnostics.
type Status struct {
	Address            string
	ChainID            uint64
	VaultAddress       string
	TrackedCommitments int
	TrackedPools       int
	CurrentChainTime   int64
}

type Service interface {
	Start() error
	Stop()
	GenerateCommitment(ctx context.Context, label string) (*CommitmentInfo, error)
	ImportSalt(ctx context.Context, saltHex, label string) (string, error)
	SchedulePool(ctx context.Context, poolID uint64) error
	Status(ctx context.Context) (*Status, error)
	DumpStore(ctx context.Context) (*domain.StoreDump, error)
}

type service struct {
	repoManager ports.RepoManager
	vault       ports.VaultService
	revealer    *revealer

	stopWatch context.CancelFunc
}

func NewService(
	repoManager ports.RepoManager,
	vault ports.VaultService,
	scheduler ports.SchedulerService,
	safetyMargin int64,
) (Service, error) {
	if safetyMargin < 0 {
		return nil, fmt.Errorf("invalid reveal safety margin %d", safetyMargin)
	}

	svc := &service{
		repoManager: repoManager,
		vault:       vault,
		revealer:    newRevealer(vault, repoManager, scheduler, safetyMargin),
	}
	return svc, nil
}

func (s *service) Start() error {
	if err := s.revealer.start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopWatch = cancel
	go s.watchPools(ctx)

	return nil
}

func (s *service) Stop() {
	if s.stopWatch != nil {
		s.stopWatch()
	}
	s.revealer.stop()
	s.vault.Close()
	s.repoManager.Close()
}

// GenerateCommitment mints a fresh 32-byte salt and persists it before
// returning. A persistence failure fails the whole operation, an advertised
// commitment whose salt was lost could never be revealed.
func (s *service) GenerateCommitment(ctx context.Context, label string) (*CommitmentInfo, error) {
	var salt [32]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, fmt.Errorf("failed to draw salt: %s", err)
	}

	saltHex := hexutil.Encode(salt[:])
	commitment := commitmentOf(saltHex)

	record := domain.SaltRecord{
		Commitment: commitment,
		Salt:       saltHex,
		Label:      label,
		CreatedAt:  time.Now().Unix(),
	}
	if err := s.repoManager.Salts().AddSalt(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist salt: %w", err)
	}

	log.Debugf("minted commitment %s", commitment)

	return &CommitmentInfo{
		Address:    s.vault.SentinelAddress(),
		Commitment: commitment,
		Salt:       saltHex,
	}, nil
}

// ImportSalt accepts a salt generated elsewhere, for example migrated from
// another deployment. Importing the same salt twice keeps the commitment
// mapping stable and only refreshes the metadata.
func (s *service) ImportSalt(ctx context.Context, saltHex, label string) (string, error) {
	if !domain.IsHex32(saltHex) {
		return "", domain.ErrInvalidSalt
	}

	// the salt is stored verbatim, only the commitment key is normalized
	commitment := commitmentOf(saltHex)

	record := domain.SaltRecord{
		Commitment: commitment,
		Salt:       saltHex,
		Label:      label,
		ImportedAt: time.Now().Unix(),
	}

	salts := s.repoManager.Salts()
	if existing, err := salts.GetSalt(ctx, commitment); err == nil {
		// keep provenance and reveal bookkeeping of the earlier record
		record.PoolID = existing.PoolID
		record.Revealed = existing.Revealed
		record.CreatedAt = existing.CreatedAt
	}

	if err := salts.AddSalt(ctx, record); err != nil {
		return "", fmt.Errorf("failed to persist salt: %w", err)
	}

	log.Debugf("imported commitment %s", commitment)
	return commitment, nil
}

// SchedulePool forces a scheduling pass for a specific pool.
func (s *service) SchedulePool(ctx context.Context, poolID uint64) error {
	return s.revealer.scheduleOrReveal(ctx, poolID)
}

func (s *service) Status(ctx context.Context) (*Status, error) {
	dump, err := s.repoManager.Salts().GetAll(ctx)
	if err != nil {
		return nil, err
	}

	now, err := s.vault.ChainTime(ctx)
	if err != nil {
		return nil, err
	}

	return &Status{
		Address:            s.vault.SentinelAddress(),
		ChainID:            s.vault.ChainID(),
		VaultAddress:       s.vault.VaultAddress(),
		TrackedCommitments: len(dump.Commits),
		TrackedPools:       len(dump.Pools),
		CurrentChainTime:   now,
	}, nil
}

// DumpStore exposes the raw store including salts. Callers must restrict
// access to operators.
func (s *service) DumpStore(ctx context.Context) (*domain.StoreDump, error) {
	return s.repoManager.Salts().GetAll(ctx)
}

// watchPools consumes pool-creation events until ctx is done. Every per-event
// failure is swallowed after logging, one bad event must never stop the loop.
func (s *service) watchPools(ctx context.Context) {
	events := s.vault.PoolCreatedEvents(ctx)
	for event := range events {
		s.handlePoolCreated(ctx, event)
	}
	log.Debug("pool watcher stopped")
}

func (s *service) handlePoolCreated(ctx context.Context, event domain.PoolCreatedEvent) {
	if !event.HasSentinel {
		return
	}

	log.Debugf("pool %d: created by %s", event.PoolID, event.Creator)

	if err := s.revealer.scheduleOrReveal(ctx, event.PoolID); err != nil {
		log.WithError(err).Errorf("pool %d: failed to process creation event", event.PoolID)
	}
}

// commitmentOf returns the lowercase keccak256 digest of a 32-byte hex salt.
func commitmentOf(saltHex string) string {
	return strings.ToLower(crypto.Keccak256Hash(hexutil.MustDecode(saltHex)).Hex())
}
