package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/fairplay-vault/sentinel/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const saltStoreDir = "salts"

type saltRepository struct {
	store *badgerhold.Store
}

func NewSaltRepository(config ...interface{}) (domain.SaltRepository, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, saltStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open salt store: %s", err)
	}

	return &saltRepository{store}, nil
}

func (r *saltRepository) GetSalt(
	ctx context.Context, commitment string,
) (*domain.SaltRecord, error) {
	commitment = strings.ToLower(commitment)

	var record domain.SaltRecord
	if err := r.store.Get(commitment, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrSaltNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *saltRepository) AddSalt(ctx context.Context, record domain.SaltRecord) error {
	record.Commitment = strings.ToLower(record.Commitment)
	if err := r.store.Upsert(record.Commitment, &record); err != nil {
		return fmt.Errorf("failed to persist salt: %s", err)
	}
	return nil
}

func (r *saltRepository) MarkPoolAssociation(
	ctx context.Context, poolID uint64, commitment string,
) error {
	commitment = strings.ToLower(commitment)

	pool := domain.TrackedPool{PoolID: poolID, Commitment: commitment}
	if err := r.store.Upsert(poolID, &pool); err != nil {
		return fmt.Errorf("failed to track pool: %s", err)
	}

	var record domain.SaltRecord
	if err := r.store.Get(commitment, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil
		}
		return err
	}
	record.PoolID = &poolID
	return r.store.Upsert(commitment, &record)
}

func (r *saltRepository) MarkRevealed(
	ctx context.Context, commitment string, poolID uint64,
) error {
	commitment = strings.ToLower(commitment)

	var record domain.SaltRecord
	if err := r.store.Get(commitment, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return domain.ErrSaltNotFound
		}
		return err
	}

	record.Revealed = true
	record.PoolID = &poolID
	if err := r.store.Upsert(commitment, &record); err != nil {
		return err
	}

	pool := domain.TrackedPool{PoolID: poolID, Commitment: commitment}
	return r.store.Upsert(poolID, &pool)
}

func (r *saltRepository) GetPendingPools(ctx context.Context) ([]domain.TrackedPool, error) {
	var pools []domain.TrackedPool
	if err := r.store.Find(&pools, nil); err != nil {
		return nil, err
	}

	pending := make([]domain.TrackedPool, 0, len(pools))
	for _, pool := range pools {
		var record domain.SaltRecord
		if err := r.store.Get(pool.Commitment, &record); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if record.Revealed {
			continue
		}
		pending = append(pending, pool)
	}
	return pending, nil
}

func (r *saltRepository) GetAll(ctx context.Context) (*domain.StoreDump, error) {
	var records []domain.SaltRecord
	if err := r.store.Find(&records, nil); err != nil {
		return nil, err
	}
	var pools []domain.TrackedPool
	if err := r.store.Find(&pools, nil); err != nil {
		return nil, err
	}

	dump := &domain.StoreDump{
		Commits: make(map[string]domain.SaltRecord, len(records)),
		Pools:   make(map[uint64]string, len(pools)),
	}
	for _, record := range records {
		dump.Commits[record.Commitment] = record
	}
	for _, pool := range pools {
		dump.Pools[pool.PoolID] = pool.Commitment
	}
	return dump, nil
}

func (r *saltRepository) Close() {
	// nolint:all
	r.store.Close()
}
