package flagging

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// Repository persists flags in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new flag.
func (r *Repository) Insert(ctx context.Context, f Flag) (Flag, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO flags (id, trainee_id, reason, points_deducted)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, f.ID, f.TraineeID, f.Reason, f.PointsDeducted)
	if err := row.Scan(&f.CreatedAt); err != nil {
		return Flag{}, err
	}
	return f, nil
}

// ListByTrainee returns a trainee's flags newest-first.
func (r *Repository) ListByTrainee(ctx context.Context, traineeID string) ([]Flag, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, trainee_id, reason, points_deducted, created_at
		FROM flags
		WHERE trainee_id = $1
		ORDER BY created_at DESC
	`, traineeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Flag
	for rows.Next() {
		var f Flag
		if err := rows.Scan(&f.ID, &f.TraineeID, &f.Reason, &f.PointsDeducted, &f.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, f)
	}
	return res, rows.Err()
}
