package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepoPG stores audit entries in PostgreSQL.
type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

func (r *RepoPG) Insert(ctx context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO donor_audit (id, donor_id, actor, action, delta)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.DonorID, e.Actor, e.Action, e.Delta)
	if err != nil {
		return fmt.Errorf("insert audit entry for %s: %w", e.DonorID, err)
	}
	return nil
}

func (r *RepoPG) ListByDonor(ctx context.Context, donorID string, limit, offset int) ([]*Entry, int, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM donor_audit WHERE donor_id = $1`, donorID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count audit entries for %s: %w", donorID, err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, donor_id, actor, action, delta, recorded_at
		 FROM donor_audit
		 WHERE donor_id = $1
		 ORDER BY recorded_at DESC
		 LIMIT $2 OFFSET $3`, donorID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries for %s: %w", donorID, err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.DonorID, &e.Actor, &e.Action, &e.Delta, &e.RecordedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, total, rows.Err()
}
