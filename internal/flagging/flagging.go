// Package flagging records disciplinary notes against trainees and applies
// the optional reward-point deduction.
package flagging

import (
	"errors"
	"time"
)

var (
	// ErrEmptyReason rejects flags with no reason text.
	ErrEmptyReason = errors.New("flag reason required")
	// ErrNegativeDeduction rejects a negative points deduction.
	ErrNegativeDeduction = errors.New("points to deduct must be >= 0")
)

// Flag is one disciplinary record. Rows are append-only. PointsDeducted
// stores the deduction as requested; the applied change is clamped so the
// trainee's balance never goes below zero.
type Flag struct {
	ID             string    `json:"id"`
	TraineeID      string    `json:"trainee_id"`
	Reason         string    `json:"reason"`
	PointsDeducted int       `json:"points_deducted"`
	CreatedAt      time.Time `json:"created_at"`
}
