package trainee

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"traineehub/internal/queue"
)

type fakeRegistry struct {
	serial     int64
	inserted   []Trainee
	failTokens int // first N inserts fail with a qr_token unique violation
}

func (f *fakeRegistry) NextSerial(ctx context.Context) (int64, error) {
	f.serial++
	return f.serial, nil
}

func (f *fakeRegistry) Insert(ctx context.Context, t Trainee) (Trainee, error) {
	if f.failTokens > 0 {
		f.failTokens--
		return Trainee{}, &pgconn.PgError{Code: "23505", ConstraintName: "trainees_qr_token_key"}
	}
	t.ID = "t-1"
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	f.inserted = append(f.inserted, t)
	return t, nil
}

type fakeQueue struct {
	published []queue.Message
}

func (f *fakeQueue) Publish(ctx context.Context, msg queue.Message) error {
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeQueue) Consume(ctx context.Context) (<-chan queue.Message, error) {
	return nil, nil
}

func validInput() RegisterInput {
	return RegisterInput{
		FullName:       "Lina Haddad",
		IDCardNumber:   "9912345678",
		PhoneNumber:    "+962790000000",
		Email:          "lina@example.com",
		DateOfBirth:    "1999-04-12",
		EducationLevel: "Bachelor Degree",
	}
}

func TestRegisterFirstTrainee(t *testing.T) {
	reg := &fakeRegistry{}
	jobs := &fakeQueue{}
	svc := NewService(reg, jobs)

	created, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, "TCH-0001", created.SerialNumber)
	require.Equal(t, 0, created.RewardPoints)
	require.Regexp(t, `^TCH-[0-9A-Z]{9}$`, created.QRToken)

	require.Len(t, jobs.published, 1)
	require.Equal(t, queue.TypeCardRender, jobs.published[0].Type)
	require.Equal(t, created.ID, string(jobs.published[0].Body))
}

func TestRegisterSerialFollowsSequence(t *testing.T) {
	reg := &fakeRegistry{serial: 41} // 41 trainees already allocated
	svc := NewService(reg, &fakeQueue{})

	created, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, "TCH-0042", created.SerialNumber)
}

func TestRegisterRetriesTokenCollision(t *testing.T) {
	reg := &fakeRegistry{failTokens: 1}
	svc := NewService(reg, &fakeQueue{})

	created, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	require.Len(t, reg.inserted, 1)
	require.NotEmpty(t, created.QRToken)
}

func TestRegisterGivesUpAfterRetry(t *testing.T) {
	reg := &fakeRegistry{failTokens: 2}
	svc := NewService(reg, &fakeQueue{})

	_, err := svc.Register(context.Background(), validInput())
	require.ErrorIs(t, err, ErrDuplicate)
	require.Empty(t, reg.inserted)
}

func TestRegisterValidation(t *testing.T) {
	mutations := map[string]func(*RegisterInput){
		"empty name":        func(in *RegisterInput) { in.FullName = "  " },
		"empty id card":     func(in *RegisterInput) { in.IDCardNumber = "" },
		"empty phone":       func(in *RegisterInput) { in.PhoneNumber = "" },
		"empty email":       func(in *RegisterInput) { in.Email = "" },
		"empty birth date":  func(in *RegisterInput) { in.DateOfBirth = "" },
		"bad birth date":    func(in *RegisterInput) { in.DateOfBirth = "12/04/1999" },
		"unknown education": func(in *RegisterInput) { in.EducationLevel = "Bootcamp" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			reg := &fakeRegistry{}
			svc := NewService(reg, &fakeQueue{})
			in := validInput()
			mutate(&in)

			_, err := svc.Register(context.Background(), in)
			require.ErrorIs(t, err, ErrValidation)
			require.Empty(t, reg.inserted)
		})
	}
}
