package flagging

import (
	"context"
	"strings"

	"traineehub/internal/apperr"
)

// Recorder persists flag rows.
type Recorder interface {
	Insert(ctx context.Context, f Flag) (Flag, error)
	ListByTrainee(ctx context.Context, traineeID string) ([]Flag, error)
}

// PointsAccount adjusts a trainee's balance.
type PointsAccount interface {
	AdjustPoints(ctx context.Context, id string, delta int) (int, error)
}

// Result pairs the recorded flag with the trainee's balance after deduction.
type Result struct {
	Flag         Flag `json:"flag"`
	RewardPoints int  `json:"reward_points"`
}

// Service records flags and applies point deductions.
type Service struct {
	recorder Recorder
	points   PointsAccount
}

// NewService creates a flag service.
func NewService(recorder Recorder, points PointsAccount) *Service {
	return &Service{recorder: recorder, points: points}
}

// Flag records a disciplinary note against the trainee. The flag stores the
// deduction as requested; the balance update is clamped at zero in the
// persistence layer, so points can never go negative regardless of input.
// A recorded flag whose points update then fails surfaces as *apperr.Partial.
func (s *Service) Flag(ctx context.Context, traineeID, reason string, pointsToDeduct int) (Result, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Result{}, ErrEmptyReason
	}
	if pointsToDeduct < 0 {
		return Result{}, ErrNegativeDeduction
	}

	rec, err := s.recorder.Insert(ctx, Flag{
		TraineeID:      traineeID,
		Reason:         reason,
		PointsDeducted: pointsToDeduct,
	})
	if err != nil {
		return Result{}, err
	}

	// AdjustPoints clamps at zero, so a deduction larger than the balance
	// empties it rather than going negative. Delta 0 leaves the balance as
	// is and just reports it.
	points, err := s.points.AdjustPoints(ctx, traineeID, -pointsToDeduct)
	if err != nil {
		if pointsToDeduct > 0 {
			return Result{}, &apperr.Partial{Op: "flag", Done: "flag row inserted", Err: err}
		}
		return Result{}, err
	}

	return Result{Flag: rec, RewardPoints: points}, nil
}

// History returns a trainee's flags newest-first.
func (s *Service) History(ctx context.Context, traineeID string) ([]Flag, error) {
	return s.recorder.ListByTrainee(ctx, traineeID)
}
