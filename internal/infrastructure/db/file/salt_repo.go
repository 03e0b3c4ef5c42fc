package filedb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fairplay-vault/sentinel/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

const storeFile = "salts.json"

// saltRepository persists the whole store in a single human-readable JSON
// file. Every mutation is a load-modify-flush cycle under the lock, the flush
// writes a temp file, fsyncs and renames so a crash leaves either the old or
// the new content, never a truncated one.
type saltRepository struct {
	path string
	lock *sync.Mutex
}

func NewSaltRepository(config ...interface{}) (domain.SaltRepository, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create datadir: %s", err)
	}

	return &saltRepository{
		path: filepath.Join(baseDir, storeFile),
		lock: &sync.Mutex{},
	}, nil
}

func (r *saltRepository) GetSalt(
	ctx context.Context, commitment string,
) (*domain.SaltRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	store := r.load()
	record, ok := store.Commits[strings.ToLower(commitment)]
	if !ok {
		return nil, domain.ErrSaltNotFound
	}
	return &record, nil
}

func (r *saltRepository) AddSalt(ctx context.Context, record domain.SaltRecord) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	record.Commitment = strings.ToLower(record.Commitment)

	store := r.load()
	store.Commits[record.Commitment] = record
	return r.flush(store)
}

func (r *saltRepository) MarkPoolAssociation(
	ctx context.Context, poolID uint64, commitment string,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	commitment = strings.ToLower(commitment)

	store := r.load()
	store.Pools[poolID] = commitment
	if record, ok := store.Commits[commitment]; ok {
		record.PoolID = &poolID
		store.Commits[commitment] = record
	}
	return r.flush(store)
}

func (r *saltRepository) MarkRevealed(
	ctx context.Context, commitment string, poolID uint64,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	commitment = strings.ToLower(commitment)

	store := r.load()
	record, ok := store.Commits[commitment]
	if !ok {
		return domain.ErrSaltNotFound
	}
	record.Revealed = true
	record.PoolID = &poolID
	store.Commits[commitment] = record
	store.Pools[poolID] = commitment
	return r.flush(store)
}

func (r *saltRepository) GetPendingPools(ctx context.Context) ([]domain.TrackedPool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	store := r.load()
	pending := make([]domain.TrackedPool, 0, len(store.Pools))
	for poolID, commitment := range store.Pools {
		record, ok := store.Commits[commitment]
		if !ok || record.Revealed {
			continue
		}
		pending = append(pending, domain.TrackedPool{PoolID: poolID, Commitment: commitment})
	}
	return pending, nil
}

func (r *saltRepository) GetAll(ctx context.Context) (*domain.StoreDump, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	store := r.load()
	return &store, nil
}

func (r *saltRepository) Close() {}

// load reads the persisted store. A missing file yields an empty store, a
// corrupt one is logged as a warning and also yields an empty store, a fresh
// store must never block startup.
func (r *saltRepository) load() domain.StoreDump {
	store := domain.StoreDump{
		Commits: make(map[string]domain.SaltRecord),
		Pools:   make(map[uint64]string),
	}

	buf, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warnf("failed to read salt store %s, starting empty", r.path)
		}
		return store
	}

	if err := json.Unmarshal(buf, &store); err != nil {
		log.WithError(err).Warnf("corrupt salt store %s, starting empty", r.path)
		store.Commits = make(map[string]domain.SaltRecord)
		store.Pools = make(map[uint64]string)
		return store
	}

	if store.Commits == nil {
		store.Commits = make(map[string]domain.SaltRecord)
	}
	if store.Pools == nil {
		store.Pools = make(map[uint64]string)
	}
	return store
}

func (r *saltRepository) flush(store domain.StoreDump) error {
	buf, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode salt store: %s", err)
	}

	tmp := r.path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write salt store: %s", err)
	}
	if _, err := file.Write(buf); err != nil {
		// nolint:all
		file.Close()
		return fmt.Errorf("failed to write salt store: %s", err)
	}
	if err := file.Sync(); err != nil {
		// nolint:all
		file.Close()
		return fmt.Errorf("failed to sync salt store: %s", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close salt store: %s", err)
	}

	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace salt store: %s", err)
	}
	return nil
}
