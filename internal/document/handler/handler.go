// Package handler exposes the document endpoints.
package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustbridge/internal/document"
	"trustbridge/internal/document/service"
	"trustbridge/internal/platform/web"
	id "trustbridge/pkg/domain"
	dErrors "trustbridge/pkg/domain-errors"
	"trustbridge/pkg/requestcontext"
)

type Handler struct {
	service *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{service: svc}
}

// Register mounts the document routes. All of them require authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/documents/upload", h.upload)
	r.Get("/documents", h.list)
	r.Get("/documents/{documentID}/status", h.status)
}

type documentResponse struct {
	ID               string     `json:"id"`
	Filename         string     `json:"filename"`
	ContentType      string     `json:"content_type"`
	SizeBytes        int64      `json:"size_bytes"`
	Status           string     `json:"status"`
	DocumentType     string     `json:"document_type,omitempty"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	TransactionCount *int       `json:"transaction_count,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
}

func toDocumentResponse(doc *document.Document) documentResponse {
	return documentResponse{
		ID:           doc.ID.String(),
		Filename:     doc.Filename,
		ContentType:  doc.ContentType,
		SizeBytes:    doc.SizeBytes,
		Status:       string(doc.Status),
		DocumentType: string(doc.DocumentType),
		ErrorMessage: doc.ErrorMessage,
		CreatedAt:    doc.CreatedAt,
		ProcessedAt:  doc.ProcessedAt,
	}
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxUploadBytes+1)
	file, header, err := r.FormFile("file")
	if err != nil {
		web.Error(w, dErrors.New(dErrors.CodeInvalidInput, "multipart field 'file' is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		web.Error(w, dErrors.New(dErrors.CodeInvalidInput, "failed to read uploaded file"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	doc, err := h.service.Upload(r.Context(), requestcontext.UserID(r.Context()), header.Filename, contentType, data)
	if err != nil {
		web.Error(w, err)
		return
	}
	web.Respond(w, http.StatusAccepted, toDocumentResponse(doc))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.List(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		web.Error(w, err)
		return
	}
	out := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDocumentResponse(doc))
	}
	web.Respond(w, http.StatusOK, map[string]any{"documents": out})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	docID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		web.Error(w, err)
		return
	}

	view, err := h.service.Status(r.Context(), requestcontext.UserID(r.Context()), docID)
	if err != nil {
		web.Error(w, err)
		return
	}
	resp := toDocumentResponse(view.Document)
	resp.TransactionCount = &view.TransactionCount
	web.Respond(w, http.StatusOK, resp)
}
