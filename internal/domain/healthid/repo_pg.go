package healthid

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type registryPG struct{ db queryable }

// NewRegistryPG returns a Registry backed by the health_ids table.
func NewRegistryPG(pool *pgxpool.Pool) Registry {
	return &registryPG{db: pool}
}

const recordCols = `id, health_id_number, full_name, date_of_birth, state_code, is_active, created_at, updated_at`

func (r *registryPG) scanRow(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.HealthIDNumber, &rec.FullName, &rec.DateOfBirth,
		&rec.StateCode, &rec.IsActive, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *registryPG) Exists(ctx context.Context, healthID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM health_ids WHERE health_id_number = $1)`, healthID).Scan(&exists)
	return exists, err
}

func (r *registryPG) GetByNumber(ctx context.Context, healthID string) (*Record, error) {
	return r.scanRow(r.db.QueryRow(ctx, `SELECT `+recordCols+` FROM health_ids WHERE health_id_number = $1`, healthID))
}

func (r *registryPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO health_ids (id, health_id_number, full_name, date_of_birth, state_code, is_active)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		rec.ID, rec.HealthIDNumber, rec.FullName, rec.DateOfBirth, rec.StateCode, rec.IsActive,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	return mapPGError(err)
}

// CreateBatch inserts records in one round trip, silently skipping numbers
// that are already present. It returns the number of rows inserted.
func (r *registryPG) CreateBatch(ctx context.Context, records []*Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		rec.ID = uuid.New()
		batch.Queue(`
			INSERT INTO health_ids (id, health_id_number, full_name, date_of_birth, state_code, is_active)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (health_id_number) DO NOTHING`,
			rec.ID, rec.HealthIDNumber, rec.FullName, rec.DateOfBirth, rec.StateCode, rec.IsActive)
	}
	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for range records {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert health id batch: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (r *registryPG) List(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM health_ids`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+recordCols+` FROM health_ids ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		rec, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}

func (r *registryPG) SetActive(ctx context.Context, healthID string, active bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE health_ids SET is_active = $2, updated_at = NOW() WHERE health_id_number = $1`, healthID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	return err
}
