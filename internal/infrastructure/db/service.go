package db

import (
	"fmt"

	"github.com/fairplay-vault/sentinel/internal/core/domain"
	"github.com/fairplay-vault/sentinel/internal/core/ports"
	badgerdb "github.com/fairplay-vault/sentinel/internal/infrastructure/db/badger"
	filedb "github.com/fairplay-vault/sentinel/internal/infrastructure/db/file"
)

var (
	saltStoreTypes = map[string]func(...interface{}) (domain.SaltRepository, error){
		"file":   filedb.NewSaltRepository,
		"badger": badgerdb.NewSaltRepository,
	}
)

type ServiceConfig struct {
	DataStoreType   string
	DataStoreConfig []interface{}
}

type service struct {
	saltStore domain.SaltRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	saltStoreFactory, ok := saltStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}

	saltStore, err := saltStoreFactory(config.DataStoreConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create salt store: %w", err)
	}

	return &service{saltStore}, nil
}

func (s *service) Salts() domain.SaltRepository {
	return s.saltStore
}

func (s *service) Close() {
	s.saltStore.Close()
}
