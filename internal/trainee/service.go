package trainee

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"traineehub/internal/identity"
	"traineehub/internal/queue"
	"traineehub/internal/store"
)

// Registry is the persistence surface registration needs.
type Registry interface {
	NextSerial(ctx context.Context) (int64, error)
	Insert(ctx context.Context, t Trainee) (Trainee, error)
}

// RegisterInput carries the registration form fields. DateOfBirth arrives as
// a plain YYYY-MM-DD string from the form.
type RegisterInput struct {
	FullName       string `json:"full_name" binding:"required"`
	IDCardNumber   string `json:"id_card_number" binding:"required"`
	PhoneNumber    string `json:"phone_number" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	DateOfBirth    string `json:"date_of_birth" binding:"required"`
	EducationLevel string `json:"education_level" binding:"required"`
}

// Service registers trainees and hands card rendering to the worker.
type Service struct {
	registry Registry
	jobs     queue.Queue
}

// NewService creates a registration service.
func NewService(registry Registry, jobs queue.Queue) *Service {
	return &Service{registry: registry, jobs: jobs}
}

// Register validates input, allocates a serial number and QR token, and
// inserts the trainee. A card-render job is enqueued on success; queue
// failures are logged but never fail the registration, and the trainee is
// usable for check-in before the card exists.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Trainee, error) {
	dob, err := validate(in)
	if err != nil {
		return Trainee{}, err
	}

	ordinal, err := s.registry.NextSerial(ctx)
	if err != nil {
		return Trainee{}, err
	}
	serial := identity.SerialNumber(int(ordinal) - 1)

	// Token collisions are astronomically unlikely but the unique constraint
	// is authoritative; one retry with a fresh token covers it.
	var created Trainee
	for attempt := 0; attempt < 2; attempt++ {
		token, err := identity.NewToken()
		if err != nil {
			return Trainee{}, err
		}
		created, err = s.registry.Insert(ctx, Trainee{
			SerialNumber:   serial,
			QRToken:        token,
			FullName:       strings.TrimSpace(in.FullName),
			IDCardNumber:   strings.TrimSpace(in.IDCardNumber),
			PhoneNumber:    strings.TrimSpace(in.PhoneNumber),
			Email:          strings.TrimSpace(in.Email),
			DateOfBirth:    dob,
			EducationLevel: in.EducationLevel,
		})
		if err == nil {
			break
		}
		if store.IsUniqueViolation(err, "trainees_qr_token_key") && attempt == 0 {
			continue
		}
		if store.IsUniqueViolation(err, "") {
			return Trainee{}, fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return Trainee{}, err
	}

	if s.jobs != nil {
		msg := queue.Message{Type: queue.TypeCardRender, Body: []byte(created.ID)}
		if err := s.jobs.Publish(ctx, msg); err != nil {
			log.Printf("card render enqueue failed for %s: %v", created.ID, err)
		}
	}
	return created, nil
}

func validate(in RegisterInput) (time.Time, error) {
	switch {
	case strings.TrimSpace(in.FullName) == "":
		return time.Time{}, fmt.Errorf("%w: full name required", ErrValidation)
	case strings.TrimSpace(in.IDCardNumber) == "":
		return time.Time{}, fmt.Errorf("%w: id card number required", ErrValidation)
	case strings.TrimSpace(in.PhoneNumber) == "":
		return time.Time{}, fmt.Errorf("%w: phone number required", ErrValidation)
	case strings.TrimSpace(in.Email) == "":
		return time.Time{}, fmt.Errorf("%w: email required", ErrValidation)
	case !validEducationLevel(in.EducationLevel):
		return time.Time{}, fmt.Errorf("%w: unknown education level %q", ErrValidation, in.EducationLevel)
	}
	dob, err := time.Parse("2006-01-02", in.DateOfBirth)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date of birth must be YYYY-MM-DD", ErrValidation)
	}
	return dob, nil
}
