package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"keepsafe/internal/vault/models"
)

// PostgresStore keeps one JSONB row per (owner, domain). All mutations are
// single-row statements, so consistency rests on postgres row atomicity,
// matching the concurrency model: no locks are held across requests.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the vault table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS vault_records (
			owner_id   TEXT NOT NULL,
			domain     TEXT NOT NULL,
			sections   JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (owner_id, domain)
		)`)
	if err != nil {
		return fmt.Errorf("ensure vault schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, ownerID, domain string) (*models.SectionedRecord, error) {
	record := &models.SectionedRecord{OwnerID: ownerID, Domain: domain}
	var sectionsRaw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT sections, created_at, updated_at
		FROM vault_records
		WHERE owner_id = $1 AND domain = $2`,
		ownerID, domain,
	).Scan(&sectionsRaw, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get vault record: %w", err)
	}
	if err := json.Unmarshal(sectionsRaw, &record.Sections); err != nil {
		return nil, fmt.Errorf("decode vault sections: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, record *models.SectionedRecord) error {
	sectionsRaw, err := json.Marshal(record.Sections)
	if err != nil {
		return fmt.Errorf("encode vault sections: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vault_records (owner_id, domain, sections)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, domain) DO UPDATE
		SET sections = EXCLUDED.sections, updated_at = now()`,
		record.OwnerID, record.Domain, sectionsRaw,
	)
	if err != nil {
		return fmt.Errorf("upsert vault record: %w", err)
	}
	return nil
}

// AppendItem is the find-or-create-then-append path as a single atomic
// statement: a missing record is created with the item as its first section
// entry, an existing record has the item concatenated onto the section array.
func (s *PostgresStore) AppendItem(ctx context.Context, ownerID, domain, section string, item models.LineItem) error {
	itemRaw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode line item: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vault_records (owner_id, domain, sections)
		VALUES ($1, $2, jsonb_build_object($3::text, jsonb_build_array($4::jsonb)))
		ON CONFLICT (owner_id, domain) DO UPDATE
		SET sections = jsonb_set(
				vault_records.sections,
				ARRAY[$3::text],
				COALESCE(vault_records.sections -> $3::text, '[]'::jsonb) || $4::jsonb),
			updated_at = now()`,
		ownerID, domain, section, itemRaw,
	)
	if err != nil {
		return fmt.Errorf("append line item: %w", err)
	}
	return nil
}

// DeleteItemStrict filters on owner and item id in the same statement; the
// WHERE clause refuses to touch a record that does not contain the item, so
// a cross-owner id can never match.
func (s *PostgresStore) DeleteItemStrict(ctx context.Context, ownerID, domain, itemID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE vault_records
		SET sections = (
				SELECT COALESCE(jsonb_object_agg(s.key, (
					SELECT COALESCE(jsonb_agg(e.elem), '[]'::jsonb)
					FROM jsonb_array_elements(s.value) AS e(elem)
					WHERE e.elem ->> 'id' <> $3
				)), '{}'::jsonb)
				FROM jsonb_each(vault_records.sections) AS s(key, value)
			),
			updated_at = now()
		WHERE owner_id = $1 AND domain = $2
		  AND EXISTS (
			  SELECT 1
			  FROM jsonb_each(vault_records.sections) AS s(key, value),
			       jsonb_array_elements(s.value) AS e(elem)
			  WHERE e.elem ->> 'id' = $3
		  )`,
		ownerID, domain, itemID,
	)
	if err != nil {
		return fmt.Errorf("delete line item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete line item: rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteRecord(ctx context.Context, ownerID, domain string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM vault_records WHERE owner_id = $1 AND domain = $2`,
		ownerID, domain,
	)
	if err != nil {
		return fmt.Errorf("delete vault record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete vault record: rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteAllForOwner(ctx context.Context, ownerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM vault_records WHERE owner_id = $1`, ownerID)
	if err != nil {
		return fmt.Errorf("delete vault records for owner: %w", err)
	}
	return nil
}
