package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jurifinder/legal-vault/internal/core/domain"
	"github.com/jurifinder/legal-vault/internal/core/ports"
)

// DocumentHandler serves the dashboard, the uploader and search history.
type DocumentHandler struct {
	documents ports.DocumentService
}

func NewDocumentHandler(documents ports.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Dashboard handles GET /dashboard. The cache is reloaded on every call.
//
// @Summary      Dashboard
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Substring to match"
// @Param        type    query     string  false  "Document type or all"
// @Success      200     {object}  dashboardResponse
// @Failure      401     {object}  errorResponse
// @Router       /dashboard [get]
func (h *DocumentHandler) Dashboard(c echo.Context) error {
	view, err := signedIn(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	userID := view.Identity.ID

	list, err := h.documents.List(ctx, userID, ports.ListDocumentsFilter{
		Search: c.QueryParam("search"),
		Type:   c.QueryParam("type"),
	})
	if err != nil {
		return err
	}
	recent, err := h.documents.RecentSearches(ctx, userID)
	if err != nil {
		return err
	}
	if recent == nil {
		recent = []string{}
	}

	return c.JSON(http.StatusOK, dashboardResponse{
		User:           view.Identity,
		IsAdmin:        view.IsAdmin,
		Documents:      list.Items,
		Stats:          list.Stats,
		RecentSearches: recent,
	})
}

// Get handles GET /dashboard/documents/:id.
//
// @Summary      Document metadata
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      404  {object}  errorResponse
// @Router       /dashboard/documents/{id} [get]
func (h *DocumentHandler) Get(c echo.Context) error {
	view, err := signedIn(c)
	if err != nil {
		return err
	}
	doc, err := h.documents.Get(c.Request().Context(), view.Identity.ID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// Delete handles DELETE /dashboard/documents/:id.
//
// @Summary      Delete a document
// @Tags         documents
// @Security     BearerAuth
// @Param        id   path  string  true  "Document ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /dashboard/documents/{id} [delete]
func (h *DocumentHandler) Delete(c echo.Context) error {
	view, err := signedIn(c)
	if err != nil {
		return err
	}
	if err := h.documents.Delete(c.Request().Context(), view.Identity.ID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Upload handles POST /upload (multipart: file, type, client_name, tags).
//
// @Summary      Upload a document
// @Tags         documents
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file         formData  file    true   "PDF, DOC, DOCX, JPG or PNG up to 10MB"
// @Param        type         formData  string  true   "Document type"
// @Param        client_name  formData  string  false  "Client name"
// @Param        tags         formData  string  false  "Comma separated tags"
// @Success      201          {object}  domain.Document
// @Failure      400          {object}  errorResponse
// @Failure      413          {object}  errorResponse
// @Failure      422          {object}  errorResponse
// @Router       /upload [post]
func (h *DocumentHandler) Upload(c echo.Context) error {
	view, err := signedIn(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return domain.ErrNoFile
		}
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := h.documents.Upload(c.Request().Context(), view.Identity.ID, ports.UploadInput{
		FileName:   fh.Filename,
		Size:       fh.Size,
		Content:    f,
		Type:       c.FormValue("type"),
		ClientName: c.FormValue("client_name"),
		Tags:       c.FormValue("tags"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, doc)
}

// RecentSearches handles GET /dashboard/searches.
//
// @Summary      Recent searches
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  searchesResponse
// @Router       /dashboard/searches [get]
func (h *DocumentHandler) RecentSearches(c echo.Context) error {
	view, err := signedIn(c)
	if err != nil {
		return err
	}
	recent, err := h.documents.RecentSearches(c.Request().Context(), view.Identity.ID)
	if err != nil {
		return err
	}
	if recent == nil {
		recent = []string{}
	}
	return c.JSON(http.StatusOK, searchesResponse{RecentSearches: recent})
}

// RecordSearch handles POST /dashboard/searches.
//
// @Summary      Remember a search term
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      searchRequest  true  "Search term"
// @Success      200   {object}  searchesResponse
// @Failure      400   {object}  errorResponse
// @Router       /dashboard/searches [post]
func (h *DocumentHandler) RecordSearch(c echo.Context) error {
	view, err := signedIn(c)
	if err != nil {
		return err
	}
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	recent, err := h.documents.RecordSearch(c.Request().Context(), view.Identity.ID, req.Term)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, searchesResponse{RecentSearches: recent})
}
