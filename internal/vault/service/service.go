// Package service implements the sectioned-record operations for every vault
// domain. One engine interprets the schema descriptors; domain differences
// (validation, section routing, delete strength) live in data, not in
// per-domain code.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"keepsafe/internal/audit"
	"keepsafe/internal/platform/metrics"
	"keepsafe/internal/vault/models"
	"keepsafe/internal/vault/schema"
	"keepsafe/internal/vault/store"
	dErrors "keepsafe/pkg/domain-errors"
	"keepsafe/pkg/requestcontext"
)

// AuditPublisher is the seam to the audit pipeline.
type AuditPublisher interface {
	Publish(ctx context.Context, event audit.Event)
}

type Service struct {
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func New(st store.Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("vault store is required")
	}
	svc := &Service{
		store:  st,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// GetAll returns the owner's record for a domain. A missing record is not an
// error: the caller gets the empty-sections shape.
func (s *Service) GetAll(ctx context.Context, ownerID, domainName string) (*models.SectionedRecord, error) {
	domain, ok := schema.ByName(domainName)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown domain %q", domainName)
	}

	record, err := s.store.Get(ctx, ownerID, domain.Name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Empty(ownerID, domain.Name, domain.Sections), nil
		}
		s.logger.ErrorContext(ctx, "vault read failed",
			"owner_id", ownerID,
			"domain", domain.Name,
			"operation", "get_all",
			"error", err,
		)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load records", err)
	}

	record.Normalize(domain.Sections)
	return record, nil
}

// AddLineItem validates, routes, appends, and only reports success after a
// follow-up read confirms the item is retrievable. The read-back is a
// caller-visible durability guarantee, not an internal consistency check.
func (s *Service) AddLineItem(ctx context.Context, ownerID, domainName string, item models.LineItem) (*models.LineItem, error) {
	domain, ok := schema.ByName(domainName)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown domain %q", domainName)
	}

	// The resolver runs ahead of the controller; a single uploaded file
	// attaches to the single item being added.
	if item.FileURL == "" {
		if uploads := requestcontext.Uploads(ctx); len(uploads) > 0 {
			item.FileURL = uploads[0]
		}
	}

	if err := domain.Validate(item); err != nil {
		s.recordOp(domain.Name, "add", "validation_error")
		return nil, err
	}
	if domain.FileRequired && item.FileURL == "" {
		s.recordOp(domain.Name, "add", "validation_error")
		return nil, dErrors.New(dErrors.CodeBadRequest, "a file attachment is required for this document")
	}

	item.ID = uuid.NewString()
	item.CreatedAt = requestcontext.Now(ctx)
	section := domain.Route(item)

	if err := s.store.AppendItem(ctx, ownerID, domain.Name, section, item); err != nil {
		s.recordOp(domain.Name, "add", "error")
		s.logger.ErrorContext(ctx, "vault append failed",
			"owner_id", ownerID,
			"domain", domain.Name,
			"section", section,
			"operation", "add",
			"error", err,
		)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to save document", err)
	}

	// Read-after-write verification: do not return success unless the item
	// is retrievable.
	record, err := s.store.Get(ctx, ownerID, domain.Name)
	if err != nil {
		s.recordOp(domain.Name, "add", "error")
		return nil, dErrors.Wrap(dErrors.CodeInternal, "saved document could not be confirmed", err)
	}
	if _, found := record.FindItem(item.ID); found == nil {
		s.recordOp(domain.Name, "add", "error")
		s.logger.ErrorContext(ctx, "vault append not confirmed by read-back",
			"owner_id", ownerID,
			"domain", domain.Name,
			"item_id", item.ID,
		)
		return nil, dErrors.New(dErrors.CodeInternal, "saved document could not be confirmed")
	}

	s.recordOp(domain.Name, "add", "ok")
	s.publishAudit(ctx, ownerID, audit.ActionVaultAdd, domain.Name, item.ID)
	return &item, nil
}

// ReplaceAllSections overwrites the owner's record wholesale, upserting when
// absent. Items without identifiers get one; fileUrl fields left unresolved
// by the client are backfilled positionally from the resolver's upload list.
func (s *Service) ReplaceAllSections(ctx context.Context, ownerID, domainName string, sections models.Sections) (*models.SectionedRecord, error) {
	domain, ok := schema.ByName(domainName)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown domain %q", domainName)
	}

	for name := range sections {
		if !containsSection(domain.Sections, name) {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown section %q", name)
		}
	}

	record := &models.SectionedRecord{
		OwnerID:  ownerID,
		Domain:   domain.Name,
		Sections: sections,
	}
	record.Normalize(domain.Sections)

	now := requestcontext.Now(ctx)
	for _, name := range domain.Sections {
		items := record.Sections[name]
		for i := range items {
			if items[i].ID == "" {
				items[i].ID = uuid.NewString()
			}
			if items[i].CreatedAt.IsZero() {
				items[i].CreatedAt = now
			}
		}
	}

	BackfillFileURLs(domain, record.Sections, requestcontext.Uploads(ctx))

	if err := s.store.Upsert(ctx, record); err != nil {
		s.recordOp(domain.Name, "replace", "error")
		s.logger.ErrorContext(ctx, "vault replace failed",
			"owner_id", ownerID,
			"domain", domain.Name,
			"operation", "replace",
			"error", err,
		)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to save records", err)
	}

	s.recordOp(domain.Name, "replace", "ok")
	s.publishAudit(ctx, ownerID, audit.ActionVaultReplace, domain.Name, "")
	return record, nil
}

// DeleteLineItem removes one item by identifier. Strict domains delete with
// a single owner+id-filtered store call; the rest fetch the owner's record,
// filter every section, and save what remains. Both variants are preserved
// deliberately; call sites depend on each domain's existing check strength.
func (s *Service) DeleteLineItem(ctx context.Context, ownerID, domainName, itemID string) error {
	domain, ok := schema.ByName(domainName)
	if !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "unknown domain %q", domainName)
	}

	var err error
	if domain.StrictDelete {
		err = s.store.DeleteItemStrict(ctx, ownerID, domain.Name, itemID)
	} else {
		err = s.deleteByFetchFilter(ctx, ownerID, domain, itemID)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || dErrors.Is(err, dErrors.CodeNotFound) {
			s.recordOp(domain.Name, "delete_item", "not_found")
			return dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		s.recordOp(domain.Name, "delete_item", "error")
		s.logger.ErrorContext(ctx, "vault delete failed",
			"owner_id", ownerID,
			"domain", domain.Name,
			"item_id", itemID,
			"operation", "delete_item",
			"error", err,
		)
		return dErrors.Wrap(dErrors.CodeInternal, "failed to delete document", err)
	}

	s.recordOp(domain.Name, "delete_item", "ok")
	s.publishAudit(ctx, ownerID, audit.ActionVaultDeleteItem, domain.Name, itemID)
	return nil
}

// deleteByFetchFilter is the weaker variant: the fetch is owner-scoped, the
// filter matches on id alone. The item necessarily belongs to the owner
// because the record itself was owner-scoped.
func (s *Service) deleteByFetchFilter(ctx context.Context, ownerID string, domain *schema.Domain, itemID string) error {
	record, err := s.store.Get(ctx, ownerID, domain.Name)
	if err != nil {
		return err
	}
	if !record.RemoveItem(itemID) {
		return store.ErrNotFound
	}
	return s.store.Upsert(ctx, record)
}

// DeleteRecord removes the owner's whole record for domains that allow it.
func (s *Service) DeleteRecord(ctx context.Context, ownerID, domainName string) error {
	domain, ok := schema.ByName(domainName)
	if !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "unknown domain %q", domainName)
	}
	if !domain.AllowRecordDelete {
		return dErrors.Newf(dErrors.CodeBadRequest, "domain %q does not support record deletion", domain.Name)
	}

	if err := s.store.DeleteRecord(ctx, ownerID, domain.Name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.recordOp(domain.Name, "delete_record", "not_found")
			return dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		s.recordOp(domain.Name, "delete_record", "error")
		return dErrors.Wrap(dErrors.CodeInternal, "failed to delete record", err)
	}

	s.recordOp(domain.Name, "delete_record", "ok")
	s.publishAudit(ctx, ownerID, audit.ActionVaultDeleteRecord, domain.Name, "")
	return nil
}

// DeleteAllForOwner is the admin cascade: every domain record for one owner.
func (s *Service) DeleteAllForOwner(ctx context.Context, ownerID string) error {
	if err := s.store.DeleteAllForOwner(ctx, ownerID); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to delete owner records", err)
	}
	return nil
}

// BackfillFileURLs attaches upload i to the i-th item in schema section
// order: item j of section s takes upload offset(s)+j, where offset is the
// cumulative item count of preceding sections. The positional contract is
// load-bearing; clients order their file inputs to match, so the slicing
// must never be "fixed" to something smarter.
func BackfillFileURLs(domain *schema.Domain, sections models.Sections, uploads []string) {
	if len(uploads) == 0 {
		return
	}
	offset := 0
	for _, name := range domain.Sections {
		items := sections[name]
		for i := range items {
			if idx := offset + i; items[i].FileURL == "" && idx < len(uploads) {
				items[i].FileURL = uploads[idx]
			}
		}
		offset += len(items)
	}
}

func containsSection(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func (s *Service) recordOp(domain, operation, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordVaultOp(domain, operation, outcome)
	}
}

func (s *Service) publishAudit(ctx context.Context, ownerID, action, domain, itemID string) {
	if s.audit == nil {
		return
	}
	event := audit.NewEvent(ctx, ownerID, action)
	event.Domain = domain
	event.ItemID = itemID
	s.audit.Publish(ctx, event)
}
