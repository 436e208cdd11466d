package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fxamacker/cbor/v2"

	"github.com/vbonduro/plantcare/internal/domain"
)

// PlantStore persists each plant as a CBOR document. The name and next_due
// columns are copies kept for ordering and inspection only.
type PlantStore struct {
	db *sql.DB
}

func NewPlantStore(db *sql.DB) *PlantStore {
	return &PlantStore{db: db}
}

const upsertPlant = `
	INSERT INTO plants (id, name, next_due, doc, updated_at) VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		next_due = excluded.next_due,
		doc = excluded.doc,
		updated_at = excluded.updated_at
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Put replaces the stored record for p.ID entirely.
func (s *PlantStore) Put(ctx context.Context, p *domain.Plant) error {
	return putPlant(ctx, s.db, p)
}

// PutAll writes every plant in one transaction; either all land or none do.
func (s *PlantStore) PutAll(ctx context.Context, plants []*domain.Plant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, p := range plants {
		if err := putPlant(ctx, tx, p); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				slog.Error("failed to roll back plant batch", "error", rerr)
			}
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit plants: %w", err)
	}
	return nil
}

func putPlant(ctx context.Context, db execer, p *domain.Plant) error {
	if p.ID == "" {
		return fmt.Errorf("failed to put plant: empty id: %w", domain.ErrInvalidInput)
	}
	doc, err := cbor.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode plant %s: %w", p.ID, err)
	}
	if _, err := db.ExecContext(ctx, upsertPlant, p.ID, p.Name, p.NextDue, doc, p.UpdatedAt); err != nil {
		return fmt.Errorf("failed to put plant %s: %w", p.ID, err)
	}
	return nil
}

func (s *PlantStore) Get(ctx context.Context, id string) (*domain.Plant, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM plants WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plant: %w", err)
	}
	return decodePlant(doc)
}

func (s *PlantStore) List(ctx context.Context) ([]*domain.Plant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM plants ORDER BY next_due ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plants: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var plants []*domain.Plant
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan plant: %w", err)
		}
		p, err := decodePlant(doc)
		if err != nil {
			return nil, err
		}
		plants = append(plants, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plants: %w", err)
	}

	return plants, nil
}

func (s *PlantStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM plants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("plant %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func decodePlant(doc []byte) (*domain.Plant, error) {
	p := &domain.Plant{}
	if err := cbor.Unmarshal(doc, p); err != nil {
		return nil, fmt.Errorf("failed to decode plant: %w", err)
	}
	return p, nil
}
