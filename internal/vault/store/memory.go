package store

import (
	"context"
	"sync"
	"time"

	"keepsafe/internal/vault/models"
)

type recordKey struct {
	ownerID string
	domain  string
}

// InMemoryStore keeps records in a map for unit tests and no-database dev
// mode. Records are cloned on the way in and out so callers never share
// slices with the store.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[recordKey]*models.SectionedRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[recordKey]*models.SectionedRecord)}
}

func (s *InMemoryStore) Get(_ context.Context, ownerID, domain string) (*models.SectionedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[recordKey{ownerID, domain}]
	if !ok {
		return nil, ErrNotFound
	}
	return record.Clone(), nil
}

func (s *InMemoryStore) Upsert(_ context.Context, record *models.SectionedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey{record.OwnerID, record.Domain}
	stored := record.Clone()
	now := time.Now()
	if existing, ok := s.records[key]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.records[key] = stored
	return nil
}

func (s *InMemoryStore) AppendItem(_ context.Context, ownerID, domain, section string, item models.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey{ownerID, domain}
	record, ok := s.records[key]
	if !ok {
		record = &models.SectionedRecord{
			OwnerID:   ownerID,
			Domain:    domain,
			Sections:  models.Sections{},
			CreatedAt: time.Now(),
		}
		s.records[key] = record
	}
	record.Sections[section] = append(record.Sections[section], item)
	record.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) DeleteItemStrict(_ context.Context, ownerID, domain, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[recordKey{ownerID, domain}]
	if !ok {
		return ErrNotFound
	}
	if !record.RemoveItem(itemID) {
		return ErrNotFound
	}
	record.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) DeleteRecord(_ context.Context, ownerID, domain string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey{ownerID, domain}
	if _, ok := s.records[key]; !ok {
		return ErrNotFound
	}
	delete(s.records, key)
	return nil
}

func (s *InMemoryStore) DeleteAllForOwner(_ context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.records {
		if key.ownerID == ownerID {
			delete(s.records, key)
		}
	}
	return nil
}
