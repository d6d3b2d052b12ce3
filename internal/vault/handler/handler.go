package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"keepsafe/internal/http/shared"
	"keepsafe/internal/vault/models"
	"keepsafe/internal/vault/schema"
	dErrors "keepsafe/pkg/domain-errors"
	"keepsafe/pkg/requestcontext"
)

// Service defines the interface for vault operations.
type Service interface {
	GetAll(ctx context.Context, ownerID, domain string) (*models.SectionedRecord, error)
	AddLineItem(ctx context.Context, ownerID, domain string, item models.LineItem) (*models.LineItem, error)
	ReplaceAllSections(ctx context.Context, ownerID, domain string, sections models.Sections) (*models.SectionedRecord, error)
	DeleteLineItem(ctx context.Context, ownerID, domain, itemID string) error
	DeleteRecord(ctx context.Context, ownerID, domain string) error
}

// Handler exposes the four record operations for every vault domain. Routes
// are registered per domain from the schema descriptors, so the URL surface
// stays the classic per-domain REST shape while the implementation is one
// engine.
type Handler struct {
	vault   Service
	logger  *slog.Logger
	resolve func(http.Handler) http.Handler
}

// New creates a vault Handler. resolve is the file-attachment resolver
// middleware; it runs ahead of the write handlers only.
func New(vault Service, logger *slog.Logger, resolve func(http.Handler) http.Handler) *Handler {
	if resolve == nil {
		resolve = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{vault: vault, logger: logger, resolve: resolve}
}

// Register wires the per-domain routes onto an authenticated router group.
func (h *Handler) Register(r chi.Router) {
	for _, domain := range schema.All() {
		name := domain.Name
		r.Get("/"+name, h.handleGetAll(name))
		r.With(h.resolve).Post("/"+name+"/document", h.handleAdd(name))
		r.With(h.resolve).Put("/"+name, h.handleReplace(name))
		r.Delete("/"+name+"/document/{id}", h.handleDelete(name))
		if domain.AllowRecordDelete {
			r.Delete("/"+name, h.handleDeleteRecord(name))
		}
	}
}

func (h *Handler) handleGetAll(domain string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ownerID, ok := h.ownerID(ctx, w)
		if !ok {
			return
		}

		record, err := h.vault.GetAll(ctx, ownerID, domain)
		if err != nil {
			shared.WriteError(w, err)
			return
		}

		d, _ := schema.ByName(domain)
		shared.WriteMessage(w, http.StatusOK, "records fetched", map[string]any{
			d.PayloadKey: record.Sections,
		})
	}
}

func (h *Handler) handleAdd(domain string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ownerID, ok := h.ownerID(ctx, w)
		if !ok {
			return
		}

		item, err := decodeLineItem(r)
		if err != nil {
			h.logger.WarnContext(ctx, "invalid add-document request",
				"domain", domain,
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}

		saved, err := h.vault.AddLineItem(ctx, ownerID, domain, item)
		if err != nil {
			shared.WriteError(w, err)
			return
		}

		shared.WriteMessage(w, http.StatusCreated, "document added", map[string]any{
			"document": saved,
		})
	}
}

func (h *Handler) handleReplace(domain string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ownerID, ok := h.ownerID(ctx, w)
		if !ok {
			return
		}

		sections, err := decodeSections(r)
		if err != nil {
			h.logger.WarnContext(ctx, "invalid replace request",
				"domain", domain,
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}

		record, err := h.vault.ReplaceAllSections(ctx, ownerID, domain, sections)
		if err != nil {
			shared.WriteError(w, err)
			return
		}

		d, _ := schema.ByName(domain)
		shared.WriteMessage(w, http.StatusOK, "records updated", map[string]any{
			d.PayloadKey: record.Sections,
		})
	}
}

func (h *Handler) handleDelete(domain string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ownerID, ok := h.ownerID(ctx, w)
		if !ok {
			return
		}

		itemID := chi.URLParam(r, "id")
		if itemID == "" {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "document id is required"))
			return
		}

		if err := h.vault.DeleteLineItem(ctx, ownerID, domain, itemID); err != nil {
			shared.WriteError(w, err)
			return
		}

		shared.WriteMessage(w, http.StatusOK, "document deleted", nil)
	}
}

func (h *Handler) handleDeleteRecord(domain string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ownerID, ok := h.ownerID(ctx, w)
		if !ok {
			return
		}

		if err := h.vault.DeleteRecord(ctx, ownerID, domain); err != nil {
			shared.WriteError(w, err)
			return
		}

		shared.WriteMessage(w, http.StatusOK, "record deleted", nil)
	}
}

// ownerID pulls the authenticated user from the context. RequireAuth runs
// ahead of every vault route, so an empty value is a wiring bug, not a
// client error.
func (h *Handler) ownerID(ctx context.Context, w http.ResponseWriter) (string, bool) {
	ownerID := requestcontext.UserID(ctx)
	if ownerID == "" {
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return "", false
	}
	return ownerID, true
}

// decodeLineItem reads a flat document from a JSON body, or from form values
// when the client submitted multipart (the resolver has already consumed the
// file parts by then).
func decodeLineItem(r *http.Request) (models.LineItem, error) {
	var item models.LineItem
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		item.Fields = make(map[string]string)
		if r.MultipartForm != nil {
			for key, values := range r.MultipartForm.Value {
				if len(values) == 0 {
					continue
				}
				if key == "fileUrl" {
					item.FileURL = values[0]
					continue
				}
				item.Fields[key] = values[0]
			}
		}
		return item, nil
	}

	err := json.NewDecoder(r.Body).Decode(&item)
	return item, err
}

func decodeSections(r *http.Request) (models.Sections, error) {
	var sections models.Sections
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		// Multipart replace carries the sections JSON in a "data" field
		// alongside the file parts.
		data := r.FormValue("data")
		if data == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "missing data field")
		}
		err := json.Unmarshal([]byte(data), &sections)
		return sections, err
	}

	err := json.NewDecoder(r.Body).Decode(&sections)
	return sections, err
}
