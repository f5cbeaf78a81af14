package checkin

import (
	"context"
	"errors"
	"log"
	"time"

	"traineehub/internal/apperr"
	"traineehub/internal/trainee"
)

// Directory is the trainee lookup and points surface the service needs.
type Directory interface {
	FindByToken(ctx context.Context, token string) (trainee.Trainee, error)
	AdjustPoints(ctx context.Context, id string, delta int) (int, error)
}

// Ledger persists check-in rows.
type Ledger interface {
	Insert(ctx context.Context, c Checkin) (Checkin, error)
	ExistsForDay(ctx context.Context, traineeID string, day time.Time) (bool, error)
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// View is the bounded recent-check-ins collaborator. Failures here never
// fail a check-in.
type View interface {
	Push(ctx context.Context, e Entry) error
	List(ctx context.Context) ([]Entry, error)
}

// Result is what the scanner screen displays after a successful check-in.
type Result struct {
	Trainee trainee.Trainee `json:"trainee"`
	Checkin Checkin         `json:"checkin"`
}

// Service runs the scan-to-check-in decision procedure.
type Service struct {
	dir    Directory
	ledger Ledger
	view   View
	loc    *time.Location
	now    func() time.Time
}

// NewService creates a check-in service. loc fixes the calendar-day boundary;
// nil means server-local time.
func NewService(dir Directory, ledger Ledger, view View, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{dir: dir, ledger: ledger, view: view, loc: loc, now: time.Now}
}

// CheckIn resolves a scanned token, enforces the once-per-day rule, records
// the event, and awards the point. The unique index on (trainee_id,
// checkin_date) makes the rule atomic; the ExistsForDay read only answers
// the common repeat scan without burning an insert.
//
// On ErrTraineeNotFound or ErrAlreadyCheckedIn nothing is written and points
// are unchanged. An insert that lands followed by a failed points update
// surfaces as *apperr.Partial.
func (s *Service) CheckIn(ctx context.Context, token string) (Result, error) {
	t, err := s.dir.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, trainee.ErrNotFound) {
			return Result{}, ErrTraineeNotFound
		}
		return Result{}, err
	}

	now := s.now().In(s.loc)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if exists, err := s.ledger.ExistsForDay(ctx, t.ID, day); err == nil && exists {
		return Result{}, ErrAlreadyCheckedIn
	}

	rec, err := s.ledger.Insert(ctx, Checkin{
		TraineeID:     t.ID,
		CheckinTime:   now,
		Date:          day,
		PointsAwarded: PointsPerCheckin,
	})
	if err != nil {
		return Result{}, err
	}

	points, err := s.dir.AdjustPoints(ctx, t.ID, PointsPerCheckin)
	if err != nil {
		return Result{}, &apperr.Partial{Op: "checkin", Done: "checkin row inserted", Err: err}
	}
	t.RewardPoints = points

	if s.view != nil {
		entry := Entry{
			TraineeID:    t.ID,
			FullName:     t.FullName,
			SerialNumber: t.SerialNumber,
			RewardPoints: points,
			CheckinTime:  rec.CheckinTime,
		}
		if err := s.view.Push(ctx, entry); err != nil {
			log.Printf("recent check-ins push failed for %s: %v", t.ID, err)
		}
	}

	return Result{Trainee: t, Checkin: rec}, nil
}

// Recent serves the bounded most-recent-first view, falling back to the
// ledger when the view is unavailable or empty.
func (s *Service) Recent(ctx context.Context) ([]Entry, error) {
	if s.view != nil {
		if entries, err := s.view.List(ctx); err == nil && len(entries) > 0 {
			return entries, nil
		}
	}
	return s.ledger.Recent(ctx, recentSize)
}
