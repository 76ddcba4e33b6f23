package ports

import (
	"context"

	"github.com/jurifinder/legal-vault/internal/core/domain"
)

// DocumentCache is a disposable per-identity mirror of document metadata.
// It is never the system of record and is not coordinated across writers.
type DocumentCache interface {
	Load(ctx context.Context, userID string) ([]domain.Document, error)
	Save(ctx context.Context, userID string, docs []domain.Document) error
}

// SearchHistory keeps an identity's recent search terms, newest first.
type SearchHistory interface {
	Recent(ctx context.Context, userID string) ([]string, error)
	Push(ctx context.Context, userID, term string, keep int) ([]string, error)
}
