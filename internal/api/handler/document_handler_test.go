package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/jurifinder/legal-vault/internal/api/middleware"
	"github.com/jurifinder/legal-vault/internal/core/domain"
	"github.com/jurifinder/legal-vault/internal/core/ports"
)

type stubDocumentService struct {
	uploadFn func(ctx context.Context, userID string, in ports.UploadInput) (*domain.Document, error)
	listFn   func(ctx context.Context, userID string, f ports.ListDocumentsFilter) (*ports.DocumentList, error)
	recent   []string
}

func (s *stubDocumentService) Upload(ctx context.Context, userID string, in ports.UploadInput) (*domain.Document, error) {
	return s.uploadFn(ctx, userID, in)
}

func (s *stubDocumentService) List(ctx context.Context, userID string, f ports.ListDocumentsFilter) (*ports.DocumentList, error) {
	return s.listFn(ctx, userID, f)
}

func (s *stubDocumentService) Get(context.Context, string, string) (*domain.Document, error) {
	return nil, domain.ErrDocumentNotFound
}

func (s *stubDocumentService) Delete(context.Context, string, string) error {
	return domain.ErrDocumentNotFound
}

func (s *stubDocumentService) RecordSearch(_ context.Context, _ string, term string) ([]string, error) {
	if term == "" {
		return nil, domain.ErrEmptySearch
	}
	s.recent = append([]string{term}, s.recent...)
	return s.recent, nil
}

func (s *stubDocumentService) RecentSearches(context.Context, string) ([]string, error) {
	return s.recent, nil
}

func TestDocumentHandler_Dashboard(t *testing.T) {
	e := newEcho()
	stub := &stubDocumentService{
		listFn: func(_ context.Context, userID string, f ports.ListDocumentsFilter) (*ports.DocumentList, error) {
			if userID != "u1" || f.Search != "acme" || f.Type != "contract" {
				t.Fatalf("unexpected args: %s %+v", userID, f)
			}
			return &ports.DocumentList{
				Items: []domain.Document{{ID: "d1", Name: "contrato.pdf", Type: "contract"}},
				Stats: domain.DocumentStats{TotalDocuments: 3, ClientCount: 1},
			}, nil
		},
	}
	h := NewDocumentHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/dashboard?search=acme&type=contract", nil), rec)
	c.Set(middleware.ViewKey, activeView(false))

	if err := h.Dashboard(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp dashboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Documents) != 1 || resp.Stats.TotalDocuments != 3 || resp.User.Email != "ana@example.com" {
		t.Fatalf("unexpected payload %+v", resp)
	}
	if resp.RecentSearches == nil {
		t.Fatal("recent searches must encode as an empty list")
	}
}

func TestDocumentHandler_DashboardRequiresSession(t *testing.T) {
	e := newEcho()
	h := NewDocumentHandler(&stubDocumentService{})

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/dashboard", nil), httptest.NewRecorder())
	c.Set(middleware.ViewKey, domain.SessionView{IsAdmin: true, IsActive: true})
	if err := h.Dashboard(c); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func multipartUpload(t *testing.T, fields map[string]string, fileName string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestDocumentHandler_Upload(t *testing.T) {
	e := newEcho()
	pdf := []byte("%PDF-1.4\n%test\n")
	stub := &stubDocumentService{
		uploadFn: func(_ context.Context, userID string, in ports.UploadInput) (*domain.Document, error) {
			got, _ := io.ReadAll(in.Content)
			if userID != "u1" || in.FileName != "contrato.pdf" || in.Type != "contract" || in.ClientName != "Acme" || in.Tags != "a,b" {
				t.Fatalf("unexpected input %+v", in)
			}
			if !bytes.Equal(got, pdf) || in.Size != int64(len(pdf)) {
				t.Fatalf("content not forwarded: %q (%d)", got, in.Size)
			}
			return &domain.Document{ID: "d1", Name: in.FileName, Type: in.Type}, nil
		},
	}
	h := NewDocumentHandler(stub)

	rec := httptest.NewRecorder()
	req := multipartUpload(t, map[string]string{"type": "contract", "client_name": "Acme", "tags": "a,b"}, "contrato.pdf", pdf)
	c := e.NewContext(req, rec)
	c.Set(middleware.ViewKey, activeView(false))

	if err := h.Upload(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestDocumentHandler_UploadWithoutFile(t *testing.T) {
	e := newEcho()
	h := NewDocumentHandler(&stubDocumentService{})

	c := e.NewContext(multipartUpload(t, map[string]string{"type": "contract"}, "", nil), httptest.NewRecorder())
	c.Set(middleware.ViewKey, activeView(false))
	if err := h.Upload(c); !errors.Is(err, domain.ErrNoFile) {
		t.Fatalf("expected ErrNoFile, got %v", err)
	}
}

func TestDocumentHandler_RecordSearch(t *testing.T) {
	e := newEcho()
	stub := &stubDocumentService{}
	h := NewDocumentHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/dashboard/searches", `{"term":"habeas"}`), rec)
	c.Set(middleware.ViewKey, activeView(false))
	if err := h.RecordSearch(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp searchesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.RecentSearches) != 1 || resp.RecentSearches[0] != "habeas" {
		t.Fatalf("unexpected payload %+v", resp)
	}
}
