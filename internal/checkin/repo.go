package checkin

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"traineehub/internal/store"
)

// Repository persists check-ins in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new check-in. The unique index on (trainee_id,
// checkin_date) is the authoritative once-per-day guard: a second insert for
// the same trainee and day fails with ErrAlreadyCheckedIn no matter how the
// callers race.
func (r *Repository) Insert(ctx context.Context, c Checkin) (Checkin, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO checkins (id, trainee_id, checkin_time, checkin_date, points_awarded)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, c.ID, c.TraineeID, c.CheckinTime, c.Date, c.PointsAwarded)
	if err := row.Scan(&c.CreatedAt); err != nil {
		if store.IsUniqueViolation(err, "checkins_trainee_id_checkin_date_key") {
			return Checkin{}, ErrAlreadyCheckedIn
		}
		return Checkin{}, err
	}
	return c, nil
}

// ExistsForDay reports whether the trainee already has a check-in on the
// given calendar day. Advisory only; Insert is what makes the rule atomic.
func (r *Repository) ExistsForDay(ctx context.Context, traineeID string, day time.Time) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM checkins WHERE trainee_id = $1 AND checkin_date = $2
	`, traineeID, day).Scan(&n)
	return n > 0, err
}

// ListByTrainee returns a trainee's check-ins newest-first.
func (r *Repository) ListByTrainee(ctx context.Context, traineeID string, limit int) ([]Checkin, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, trainee_id, checkin_time, checkin_date, points_awarded, created_at
		FROM checkins
		WHERE trainee_id = $1
		ORDER BY checkin_time DESC
		LIMIT $2
	`, traineeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Checkin
	for rows.Next() {
		var c Checkin
		if err := rows.Scan(&c.ID, &c.TraineeID, &c.CheckinTime, &c.Date, &c.PointsAwarded, &c.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// Recent returns the latest check-ins joined with trainee identity, for the
// dashboard view when the Redis copy is unavailable.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.trainee_id, t.full_name, t.serial_number, t.reward_points, c.checkin_time
		FROM checkins c
		JOIN trainees t ON t.id = c.trainee_id
		ORDER BY c.checkin_time DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.TraineeID, &e.FullName, &e.SerialNumber, &e.RewardPoints, &e.CheckinTime); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
