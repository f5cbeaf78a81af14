// Package trainee owns the trainee aggregate: registration, lookup, and the
// reward-points balance that check-ins and flags move.
package trainee

import (
	"errors"
	"time"
)

// Education levels accepted at registration.
var EducationLevels = []string{
	"High School",
	"Associate Degree",
	"Bachelor Degree",
	"Master Degree",
	"PhD",
	"Other",
}

var (
	// ErrNotFound means no trainee matched the lookup.
	ErrNotFound = errors.New("trainee not found")
	// ErrValidation marks rejected registration input.
	ErrValidation = errors.New("invalid trainee input")
	// ErrDuplicate means a unique identifier collided and retries ran out.
	ErrDuplicate = errors.New("duplicate trainee identifier")
)

// Trainee is one registrant. SerialNumber and QRToken are immutable after
// creation; RewardPoints and CardImageURL are the only fields mutated later.
type Trainee struct {
	ID             string     `json:"id"`
	SerialNumber   string     `json:"serial_number"`
	QRToken        string     `json:"qr_token"`
	FullName       string     `json:"full_name"`
	IDCardNumber   string     `json:"id_card_number"`
	PhoneNumber    string     `json:"phone_number"`
	Email          string     `json:"email"`
	DateOfBirth    time.Time  `json:"date_of_birth"`
	EducationLevel string     `json:"education_level"`
	RewardPoints   int        `json:"reward_points"`
	CardImageURL   *string    `json:"card_image_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func validEducationLevel(level string) bool {
	for _, l := range EducationLevels {
		if l == level {
			return true
		}
	}
	return false
}
