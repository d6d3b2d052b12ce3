// Package models defines the sectioned-record shapes shared by the vault
// store, service, and handlers.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// LineItem is one flat document inside a section: a bank account, a family
// member, a credential. Field values are text; the optional file attachment
// is an opaque URL into the external object store, never validated for
// reachability here.
type LineItem struct {
	ID        string
	FileURL   string
	CreatedAt time.Time
	Fields    map[string]string
}

// Reserved keys lifted out of Fields during JSON (and JSONB) round-trips.
const (
	keyID        = "id"
	keyFileURL   = "fileUrl"
	keyCreatedAt = "createdAt"
)

// MarshalJSON flattens the item: domain fields, id, fileUrl, and createdAt
// all live at the top level, matching the wire format clients submit.
func (li LineItem) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(li.Fields)+3)
	for k, v := range li.Fields {
		out[k] = v
	}
	out[keyID] = li.ID
	if li.FileURL != "" {
		out[keyFileURL] = li.FileURL
	}
	if !li.CreatedAt.IsZero() {
		out[keyCreatedAt] = li.CreatedAt.UTC().Format(time.RFC3339)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts flat objects with string, numeric, or boolean values;
// everything is normalized to text.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	item := LineItem{Fields: make(map[string]string, len(raw))}
	for k, v := range raw {
		s, err := coerceString(k, v)
		if err != nil {
			return err
		}
		switch k {
		case keyID:
			item.ID = s
		case keyFileURL:
			item.FileURL = s
		case keyCreatedAt:
			if s != "" {
				t, err := time.Parse(time.RFC3339, s)
				if err != nil {
					return fmt.Errorf("parse %s: %w", keyCreatedAt, err)
				}
				item.CreatedAt = t
			}
		default:
			item.Fields[k] = s
		}
	}

	*li = item
	return nil
}

func coerceString(key string, v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("field %q: unsupported value type %T", key, v)
	}
}

// Field returns the named field value, empty when absent.
func (li LineItem) Field(name string) string {
	return li.Fields[name]
}

// Sections maps section name to its ordered line items. A section present in
// the domain schema is never nil once a record passes through Normalize.
type Sections map[string][]LineItem

// SectionedRecord is the one-per-(owner, domain) document.
type SectionedRecord struct {
	OwnerID   string    `json:"ownerId"`
	Domain    string    `json:"domain"`
	Sections  Sections  `json:"sections"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Empty builds the empty-sections shape for a domain: every schema section
// present as an empty slice. Absence of data is a valid state, never an
// error.
func Empty(ownerID, domain string, sectionNames []string) *SectionedRecord {
	sections := make(Sections, len(sectionNames))
	for _, name := range sectionNames {
		sections[name] = []LineItem{}
	}
	return &SectionedRecord{OwnerID: ownerID, Domain: domain, Sections: sections}
}

// Normalize fills in missing schema sections as empty slices so callers can
// range without nil checks.
func (r *SectionedRecord) Normalize(sectionNames []string) {
	if r.Sections == nil {
		r.Sections = make(Sections, len(sectionNames))
	}
	for _, name := range sectionNames {
		if r.Sections[name] == nil {
			r.Sections[name] = []LineItem{}
		}
	}
}

// FindItem locates an item by ID across all sections.
func (r *SectionedRecord) FindItem(itemID string) (section string, item *LineItem) {
	for name, items := range r.Sections {
		for i := range items {
			if items[i].ID == itemID {
				return name, &items[i]
			}
		}
	}
	return "", nil
}

// RemoveItem deletes an item by ID from whichever section contains it.
// Returns false when no section held the item.
func (r *SectionedRecord) RemoveItem(itemID string) bool {
	for name, items := range r.Sections {
		for i := range items {
			if items[i].ID == itemID {
				r.Sections[name] = append(items[:i:i], items[i+1:]...)
				return true
			}
		}
	}
	return false
}

// ItemCount sums line items across sections.
func (r *SectionedRecord) ItemCount() int {
	n := 0
	for _, items := range r.Sections {
		n += len(items)
	}
	return n
}

// Clone deep-copies the record so in-memory stores never hand out aliased
// slices.
func (r *SectionedRecord) Clone() *SectionedRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Sections = make(Sections, len(r.Sections))
	for name, items := range r.Sections {
		copied := make([]LineItem, len(items))
		for i, item := range items {
			copied[i] = item
			copied[i].Fields = make(map[string]string, len(item.Fields))
			for k, v := range item.Fields {
				copied[i].Fields[k] = v
			}
		}
		out.Sections[name] = copied
	}
	return &out
}
