package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jurifinder/legal-vault/internal/api/metrics"
	"github.com/jurifinder/legal-vault/internal/core/domain"
	"github.com/jurifinder/legal-vault/internal/core/ports"
	"github.com/jurifinder/legal-vault/pkg/logger"
)

// recentSearchLimit is how many distinct search terms are remembered.
const recentSearchLimit = 5

type documentService struct {
	cache   ports.DocumentCache
	history ports.SearchHistory
	log     zerolog.Logger
	now     func() time.Time
}

// NewDocumentService returns a DocumentService over a per-identity cache.
func NewDocumentService(cache ports.DocumentCache, history ports.SearchHistory, log zerolog.Logger) ports.DocumentService {
	return &documentService{
		cache:   cache,
		history: history,
		log:     logger.Component(log, "document_service"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Upload validates the file and records its metadata. The file content is
// only sniffed for its format and is not kept.
func (s *documentService) Upload(ctx context.Context, userID string, in ports.UploadInput) (*domain.Document, error) {
	if in.FileName == "" || in.Content == nil {
		return nil, domain.ErrNoFile
	}

	mtype, err := mimetype.DetectReader(in.Content)
	if err != nil {
		return nil, fmt.Errorf("detect file type: %w", err)
	}
	if !acceptedMIME(mtype) {
		s.log.Debug().Str("mime", mtype.String()).Str("file", in.FileName).Msg("rejected file type")
		return nil, domain.ErrInvalidFileType
	}
	if in.Size > domain.MaxDocumentSize {
		return nil, domain.ErrFileTooLarge
	}

	if in.Type == "" {
		return nil, domain.ErrDocumentTypeRequired
	}
	if !domain.IsDocumentType(in.Type) {
		return nil, domain.ErrInvalidDocumentType
	}

	doc := domain.Document{
		ID:         uuid.NewString(),
		Name:       in.FileName,
		Type:       in.Type,
		Size:       in.Size,
		DateAdded:  s.now(),
		Tags:       splitTags(in.Tags),
		ClientName: strings.TrimSpace(in.ClientName),
	}

	docs, err := s.cache.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	if err := s.cache.Save(ctx, userID, append(docs, doc)); err != nil {
		return nil, fmt.Errorf("save documents: %w", err)
	}

	metrics.DocumentsUploadedTotal.WithLabelValues(doc.Type).Inc()
	s.log.Info().Str("user_id", userID).Str("document_id", doc.ID).Str("type", doc.Type).Msg("document uploaded")
	return &doc, nil
}

func acceptedMIME(m *mimetype.MIME) bool {
	for _, accepted := range domain.AcceptedMIMETypes {
		if m.Is(accepted) {
			return true
		}
	}
	return false
}

func splitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// List reloads the cache and filters it. Stats always describe the whole list.
func (s *documentService) List(ctx context.Context, userID string, f ports.ListDocumentsFilter) (*ports.DocumentList, error) {
	docs, err := s.cache.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	items := make([]domain.Document, 0, len(docs))
	term := strings.ToLower(strings.TrimSpace(f.Search))
	for _, d := range docs {
		if f.Type != "" && f.Type != "all" && d.Type != f.Type {
			continue
		}
		if term != "" && !matches(d, term) {
			continue
		}
		items = append(items, d)
	}

	return &ports.DocumentList{Items: items, Stats: stats(docs)}, nil
}

// matches is a plain substring scan; term must already be lower-cased.
func matches(d domain.Document, term string) bool {
	if strings.Contains(strings.ToLower(d.Name), term) ||
		strings.Contains(strings.ToLower(d.ClientName), term) ||
		strings.Contains(strings.ToLower(d.Type), term) {
		return true
	}
	for _, tag := range d.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

func stats(docs []domain.Document) domain.DocumentStats {
	clients := make(map[string]struct{})
	for _, d := range docs {
		if d.ClientName != "" {
			clients[d.ClientName] = struct{}{}
		}
	}
	return domain.DocumentStats{TotalDocuments: len(docs), ClientCount: len(clients)}
}

func (s *documentService) Get(ctx context.Context, userID, id string) (*domain.Document, error) {
	docs, err := s.cache.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	for _, d := range docs {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

func (s *documentService) Delete(ctx context.Context, userID, id string) error {
	docs, err := s.cache.Load(ctx, userID)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}

	kept := make([]domain.Document, 0, len(docs))
	for _, d := range docs {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	if len(kept) == len(docs) {
		return domain.ErrDocumentNotFound
	}

	if err := s.cache.Save(ctx, userID, kept); err != nil {
		return fmt.Errorf("save documents: %w", err)
	}
	s.log.Info().Str("user_id", userID).Str("document_id", id).Msg("document deleted")
	return nil
}

func (s *documentService) RecordSearch(ctx context.Context, userID, term string) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.ErrEmptySearch
	}
	return s.history.Push(ctx, userID, term, recentSearchLimit)
}

func (s *documentService) RecentSearches(ctx context.Context, userID string) ([]string, error) {
	return s.history.Recent(ctx, userID)
}
