// Package checkin records attendance events scanned from trainee QR cards and
// enforces the one-check-in-per-calendar-day rule.
package checkin

import (
	"errors"
	"time"
)

// PointsPerCheckin is the fixed award for one attendance event.
const PointsPerCheckin = 1

var (
	// ErrTraineeNotFound means the scanned token matched no trainee.
	ErrTraineeNotFound = errors.New("no trainee for token")
	// ErrAlreadyCheckedIn means the trainee already has a check-in today.
	ErrAlreadyCheckedIn = errors.New("already checked in today")
)

// Checkin is one attendance event. Rows are append-only.
type Checkin struct {
	ID            string    `json:"id"`
	TraineeID     string    `json:"trainee_id"`
	CheckinTime   time.Time `json:"checkin_time"`
	Date          time.Time `json:"-"` // calendar day used for the uniqueness rule
	PointsAwarded int       `json:"points_awarded"`
	CreatedAt     time.Time `json:"created_at"`
}

// Entry is one row of the bounded recent-check-ins view.
type Entry struct {
	TraineeID    string    `json:"trainee_id"`
	FullName     string    `json:"full_name"`
	SerialNumber string    `json:"serial_number"`
	RewardPoints int       `json:"reward_points"`
	CheckinTime  time.Time `json:"checkin_time"`
}
