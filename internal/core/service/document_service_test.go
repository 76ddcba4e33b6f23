package service

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jurifinder/legal-vault/internal/core/domain"
	"github.com/jurifinder/legal-vault/internal/core/ports"
)

var (
	pdfBytes  = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
)

type memCache struct {
	mu   sync.Mutex
	docs map[string][]domain.Document
}

func (m *memCache) Load(_ context.Context, userID string) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Document{}, m.docs[userID]...), nil
}

func (m *memCache) Save(_ context.Context, userID string, docs []domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[userID] = append([]domain.Document(nil), docs...)
	return nil
}

type memHistory struct {
	mu    sync.Mutex
	terms map[string][]string
}

func (m *memHistory) Recent(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.terms[userID]...), nil
}

func (m *memHistory) Push(_ context.Context, userID, term string, keep int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{term}
	for _, t := range m.terms[userID] {
		if t != term {
			out = append(out, t)
		}
	}
	if len(out) > keep {
		out = out[:keep]
	}
	m.terms[userID] = out
	return append([]string{}, out...), nil
}

func newDocumentFixture() (ports.DocumentService, *memCache) {
	cache := &memCache{docs: map[string][]domain.Document{}}
	history := &memHistory{terms: map[string][]string{}}
	return NewDocumentService(cache, history, zerolog.Nop()), cache
}

func upload(name string, content []byte, typ, client, tags string) ports.UploadInput {
	return ports.UploadInput{
		FileName:   name,
		Size:       int64(len(content)),
		Content:    bytes.NewReader(content),
		Type:       typ,
		ClientName: client,
		Tags:       tags,
	}
}

func TestDocumentService_UploadAndGet(t *testing.T) {
	svc, cache := newDocumentFixture()
	ctx := context.Background()

	doc, err := svc.Upload(ctx, "u1", upload("contrato.pdf", pdfBytes, domain.DocContract, " Acme Ltda ", "urgent, , 2024 "))
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if doc.ID == "" || doc.DateAdded.IsZero() {
		t.Fatalf("id and date must be assigned: %+v", doc)
	}
	if doc.ClientName != "Acme Ltda" {
		t.Errorf("client = %q", doc.ClientName)
	}
	if !reflect.DeepEqual(doc.Tags, []string{"urgent", "2024"}) {
		t.Errorf("tags = %v", doc.Tags)
	}
	if len(cache.docs["u1"]) != 1 || len(cache.docs["u2"]) != 0 {
		t.Fatal("document must be cached for its owner only")
	}

	got, err := svc.Get(ctx, "u1", doc.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Name != "contrato.pdf" || got.Size != int64(len(pdfBytes)) {
		t.Errorf("unexpected document %+v", got)
	}
	if _, err := svc.Get(ctx, "u2", doc.ID); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("other identity must not see it, got %v", err)
	}
}

func TestDocumentService_UploadValidation(t *testing.T) {
	tests := []struct {
		name string
		in   ports.UploadInput
		want error
	}{
		{"no file", ports.UploadInput{Type: domain.DocContract}, domain.ErrNoFile},
		{"plain text", upload("notes.txt", []byte("just some notes"), domain.DocOther, "", ""), domain.ErrInvalidFileType},
		{"too large", ports.UploadInput{FileName: "big.pdf", Size: domain.MaxDocumentSize + 1, Content: bytes.NewReader(pdfBytes), Type: domain.DocEvidence}, domain.ErrFileTooLarge},
		{"missing type", upload("scan.png", pngBytes, "", "", ""), domain.ErrDocumentTypeRequired},
		{"unknown type", upload("scan.png", pngBytes, "invoice", "", ""), domain.ErrInvalidDocumentType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, cache := newDocumentFixture()
			if _, err := svc.Upload(context.Background(), "u1", tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if len(cache.docs["u1"]) != 0 {
				t.Fatal("rejected upload must not be cached")
			}
		})
	}
}

func TestDocumentService_ListFiltersAndStats(t *testing.T) {
	svc, _ := newDocumentFixture()
	ctx := context.Background()

	for _, in := range []ports.UploadInput{
		upload("peticao-inicial.pdf", pdfBytes, domain.DocPetition, "Acme", "civel"),
		upload("contrato.pdf", pdfBytes, domain.DocContract, "Acme", ""),
		upload("foto.jpg", jpegBytes, domain.DocEvidence, "Beta SA", "trabalhista"),
		upload("memo.png", pngBytes, domain.DocOther, "", ""),
	} {
		if _, err := svc.Upload(ctx, "u1", in); err != nil {
			t.Fatalf("Upload(%s) returned %v", in.FileName, err)
		}
	}

	all, err := svc.List(ctx, "u1", ports.ListDocumentsFilter{Type: "all"})
	if err != nil {
		t.Fatalf("List returned %v", err)
	}
	if len(all.Items) != 4 || all.Stats.TotalDocuments != 4 || all.Stats.ClientCount != 2 {
		t.Fatalf("unexpected list %+v", all)
	}

	byType, _ := svc.List(ctx, "u1", ports.ListDocumentsFilter{Type: domain.DocContract})
	if len(byType.Items) != 1 || byType.Items[0].Name != "contrato.pdf" {
		t.Fatalf("type filter returned %+v", byType.Items)
	}
	if byType.Stats.TotalDocuments != 4 {
		t.Error("stats must describe the whole list")
	}

	for term, want := range map[string]int{
		"ACME":        2,
		"trabalhista": 1,
		"peticao":     1,
		"evidence":    1,
		"nothing":     0,
	} {
		res, _ := svc.List(ctx, "u1", ports.ListDocumentsFilter{Search: term})
		if len(res.Items) != want {
			t.Errorf("search %q returned %d items, want %d", term, len(res.Items), want)
		}
	}
}

func TestDocumentService_Delete(t *testing.T) {
	svc, cache := newDocumentFixture()
	ctx := context.Background()
	doc, err := svc.Upload(ctx, "u1", upload("contrato.pdf", pdfBytes, domain.DocContract, "", ""))
	if err != nil {
		t.Fatalf("Upload returned %v", err)
	}

	if err := svc.Delete(ctx, "u1", "missing"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, "u1", doc.ID); err != nil {
		t.Fatalf("Delete returned %v", err)
	}
	if len(cache.docs["u1"]) != 0 {
		t.Fatal("document still cached")
	}
}

func TestDocumentService_Searches(t *testing.T) {
	svc, _ := newDocumentFixture()
	ctx := context.Background()

	if _, err := svc.RecordSearch(ctx, "u1", "   "); !errors.Is(err, domain.ErrEmptySearch) {
		t.Fatalf("expected ErrEmptySearch, got %v", err)
	}

	for _, term := range []string{"a", "b", "c", "d", "e", "f", "c"} {
		if _, err := svc.RecordSearch(ctx, "u1", term); err != nil {
			t.Fatalf("RecordSearch(%q) returned %v", term, err)
		}
	}
	recent, err := svc.RecentSearches(ctx, "u1")
	if err != nil {
		t.Fatalf("RecentSearches returned %v", err)
	}
	if want := []string{"c", "f", "e", "d", "b"}; !reflect.DeepEqual(recent, want) {
		t.Fatalf("recent = %v, want %v", recent, want)
	}
}
