package ports

import "github.com/fairplay-vault/sentinel/internal/core/domain"

type RepoManager interface {
	Salts() domain.SaltRepository
	Close()
}
