// Package postgres implements the DocumentStore on a single jsonb
// documents table. Transactions run serializable with row locks;
// change subscriptions are fed by a trigger emitting pg_notify.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/maroltinger/votebox/internal/core/ports"
)

type Store struct {
	db  *sql.DB
	hub *listenerHub
}

// NewStore wires the document store to db. connStr is used by the
// LISTEN connection of the change feed; it must point at the same
// database.
func NewStore(db *sql.DB, connStr string) (*Store, error) {
	hub, err := newListenerHub(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to start change listener: %w", err)
	}
	return &Store{db: db, hub: hub}, nil
}

// Close stops the change feed. The *sql.DB stays open; it is owned by
// the caller.
func (s *Store) Close() error {
	return s.hub.close()
}

func (s *Store) Get(ctx context.Context, collection, id string) (ports.Document, bool, error) {
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	var raw []byte
	err := s.db.QueryRowContext(ctx, query, collection, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}
	doc, err := unmarshalDocument(raw)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data ports.Document) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	query := `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
	          ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`
	if _, err := s.db.ExecContext(ctx, query, collection, id, raw); err != nil {
		return fmt.Errorf("failed to set document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) RunTransaction(ctx context.Context, fn func(tx ports.DocumentTx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&documentTx{ctx: ctx, tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Subscribe(ctx context.Context, collection, id string, onChange func(ports.Document)) (ports.UnsubscribeFunc, error) {
	return s.hub.subscribe(collection, id, onChange), nil
}

type documentTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *documentTx) Get(collection, id string) (ports.Document, bool, error) {
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`
	var raw []byte
	err := t.tx.QueryRowContext(t.ctx, query, collection, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}
	doc, err := unmarshalDocument(raw)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func (t *documentTx) Set(collection, id string, data ports.Document) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	query := `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
	          ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`
	if _, err := t.tx.ExecContext(t.ctx, query, collection, id, raw); err != nil {
		return fmt.Errorf("failed to set document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (t *documentTx) Update(collection, id string, fields ports.Document) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal fields: %w", err)
	}
	query := `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
	          ON CONFLICT (collection, id) DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = NOW()`
	if _, err := t.tx.ExecContext(t.ctx, query, collection, id, raw); err != nil {
		return fmt.Errorf("failed to update document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (t *documentTx) DeleteField(collection, id, field string) error {
	query := `UPDATE documents SET data = data - $3, updated_at = NOW() WHERE collection = $1 AND id = $2`
	if _, err := t.tx.ExecContext(t.ctx, query, collection, id, field); err != nil {
		return fmt.Errorf("failed to delete field %s of %s/%s: %w", field, collection, id, err)
	}
	return nil
}

func unmarshalDocument(raw []byte) (ports.Document, error) {
	doc := ports.Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}
