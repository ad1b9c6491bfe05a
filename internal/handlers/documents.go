package handlers

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"docquery/internal/contextutil"
	"docquery/internal/service"
)

// maxUploadBytes bounds the size of an uploaded document file.
const maxUploadBytes = 32 << 20 // 32 MiB

// DocumentsHandler handles HTTP requests for document upload, listing, and
// deletion.
type DocumentsHandler struct {
	service service.DocumentService
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(svc service.DocumentService) *DocumentsHandler {
	return &DocumentsHandler{service: svc}
}

// ListResponse represents the document listing response.
type ListResponse struct {
	Documents any `json:"documents"`
}

// DeleteResponse represents the deletion response.
type DeleteResponse struct {
	DocumentID    string `json:"documentId"`
	DeletedChunks int    `json:"deletedChunks"`
}

// Upload handles multipart document uploads. The file is read from the "file"
// form field; the content type is taken from the part header and falls back
// to the filename extension.
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.WarnContext(ctx, "invalid multipart request", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.WarnContext(ctx, "missing file field", "error", err)
		writeError(w, http.StatusBadRequest, "A \"file\" form field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read uploaded file", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	result, err := h.service.Upload(ctx, service.UploadRequest{
		Filename: header.Filename,
		MimeType: detectMimeType(header.Filename, header.Header.Get("Content-Type")),
		Data:     data,
	})
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to ingest document")
		return
	}

	writeJSON(ctx, w, http.StatusCreated, result)
}

// List returns all ingested documents.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docs, err := h.service.ListDocuments(ctx)
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to list documents")
		return
	}

	writeJSON(ctx, w, http.StatusOK, ListResponse{Documents: docs})
}

// Delete removes all chunks of a document. Deleting an unknown document
// succeeds with a zero count.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	documentID := chi.URLParam(r, "documentID")
	deleted, err := h.service.DeleteDocument(ctx, documentID)
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to delete document")
		return
	}

	writeJSON(ctx, w, http.StatusOK, DeleteResponse{
		DocumentID:    documentID,
		DeletedChunks: deleted,
	})
}

// detectMimeType resolves the content type of an upload, preferring the part
// header and falling back to the filename extension.
func detectMimeType(filename, headerType string) string {
	if headerType != "" && headerType != "application/octet-stream" {
		return headerType
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	case ".html", ".htm":
		return "text/html"
	case ".pdf":
		return "application/pdf"
	}
	if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
		return byExt
	}
	return headerType
}
