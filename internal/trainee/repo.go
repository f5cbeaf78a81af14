package trainee

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const traineeColumns = `id, serial_number, qr_token, full_name, id_card_number,
	phone_number, email, date_of_birth, education_level, reward_points,
	card_image_url, created_at, updated_at`

// Repository persists trainees in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// NextSerial draws the next serial ordinal from the database sequence.
// Sequences never hand the same value to two callers, so concurrent
// registrations cannot collide on serial numbers.
func (r *Repository) NextSerial(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT nextval('trainee_serial_seq')`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next serial: %w", err)
	}
	return n, nil
}

// Insert writes a new trainee row. Unique violations on serial_number or
// qr_token are returned untranslated so the service can decide to retry.
func (r *Repository) Insert(ctx context.Context, t Trainee) (Trainee, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO trainees (id, serial_number, qr_token, full_name, id_card_number,
			phone_number, email, date_of_birth, education_level, reward_points)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,0)
		RETURNING reward_points, created_at, updated_at
	`, t.ID, t.SerialNumber, t.QRToken, t.FullName, t.IDCardNumber,
		t.PhoneNumber, t.Email, t.DateOfBirth, t.EducationLevel)
	if err := row.Scan(&t.RewardPoints, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Trainee{}, err
	}
	return t, nil
}

// Get returns a trainee by id.
func (r *Repository) Get(ctx context.Context, id string) (Trainee, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+traineeColumns+` FROM trainees WHERE id = $1`, id)
	return scanTrainee(row)
}

// FindByToken resolves the check-in credential to a trainee.
func (r *Repository) FindByToken(ctx context.Context, token string) (Trainee, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+traineeColumns+` FROM trainees WHERE qr_token = $1`, token)
	return scanTrainee(row)
}

// FindBySerial returns a trainee by serial number.
func (r *Repository) FindBySerial(ctx context.Context, serial string) (Trainee, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+traineeColumns+` FROM trainees WHERE serial_number = $1`, serial)
	return scanTrainee(row)
}

// List returns trainees newest-first with an optional name/serial search.
func (r *Repository) List(ctx context.Context, search string, limit, offset int) ([]Trainee, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + traineeColumns + ` FROM trainees`
	args := []any{}
	if search != "" {
		query += ` WHERE full_name ILIKE $1 OR serial_number ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Trainee
	for rows.Next() {
		t, err := scanTrainee(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// Count returns the number of registered trainees.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trainees`).Scan(&n)
	return n, err
}

// AdjustPoints applies delta to a trainee's balance in a single statement,
// clamped at zero in SQL so concurrent check-ins and flags cannot lose
// updates or drive the balance negative. Returns the new balance.
func (r *Repository) AdjustPoints(ctx context.Context, id string, delta int) (int, error) {
	var points int
	err := r.db.QueryRowContext(ctx, `
		UPDATE trainees
		SET reward_points = GREATEST(0, reward_points + $2), updated_at = NOW()
		WHERE id = $1
		RETURNING reward_points
	`, id, delta).Scan(&points)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return points, err
}

// AttachCard records the rendered card asset URL on the trainee.
func (r *Repository) AttachCard(ctx context.Context, id, url string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE trainees SET card_image_url = $2, updated_at = NOW() WHERE id = $1
	`, id, url)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrainee(row rowScanner) (Trainee, error) {
	var t Trainee
	err := row.Scan(&t.ID, &t.SerialNumber, &t.QRToken, &t.FullName, &t.IDCardNumber,
		&t.PhoneNumber, &t.Email, &t.DateOfBirth, &t.EducationLevel, &t.RewardPoints,
		&t.CardImageURL, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Trainee{}, ErrNotFound
	}
	if err != nil {
		return Trainee{}, err
	}
	return t, nil
}
