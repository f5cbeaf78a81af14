package checkin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"traineehub/internal/apperr"
	"traineehub/internal/trainee"
)

type fakeDirectory struct {
	trainees   map[string]trainee.Trainee // keyed by token
	points     map[string]int             // keyed by id
	failAdjust error
}

func (f *fakeDirectory) FindByToken(ctx context.Context, token string) (trainee.Trainee, error) {
	t, ok := f.trainees[token]
	if !ok {
		return trainee.Trainee{}, trainee.ErrNotFound
	}
	t.RewardPoints = f.points[t.ID]
	return t, nil
}

func (f *fakeDirectory) AdjustPoints(ctx context.Context, id string, delta int) (int, error) {
	if f.failAdjust != nil {
		return 0, f.failAdjust
	}
	next := f.points[id] + delta
	if next < 0 {
		next = 0
	}
	f.points[id] = next
	return next, nil
}

type fakeLedger struct {
	rows []Checkin
}

func (f *fakeLedger) Insert(ctx context.Context, c Checkin) (Checkin, error) {
	for _, existing := range f.rows {
		if existing.TraineeID == c.TraineeID && existing.Date.Equal(c.Date) {
			return Checkin{}, ErrAlreadyCheckedIn
		}
	}
	c.ID = "c-1"
	c.CreatedAt = c.CheckinTime
	f.rows = append(f.rows, c)
	return c, nil
}

func (f *fakeLedger) ExistsForDay(ctx context.Context, traineeID string, day time.Time) (bool, error) {
	for _, c := range f.rows {
		if c.TraineeID == traineeID && c.Date.Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return nil, nil
}

type fakeView struct {
	entries []Entry
}

func (f *fakeView) Push(ctx context.Context, e Entry) error {
	f.entries = append([]Entry{e}, f.entries...)
	return nil
}

func (f *fakeView) List(ctx context.Context) ([]Entry, error) {
	return f.entries, nil
}

func newFixture() (*fakeDirectory, *fakeLedger, *fakeView, *Service) {
	dir := &fakeDirectory{
		trainees: map[string]trainee.Trainee{
			"TCH-A1B2C3D4E": {ID: "t-1", SerialNumber: "TCH-0001", FullName: "Lina Haddad"},
		},
		points: map[string]int{"t-1": 0},
	}
	ledger := &fakeLedger{}
	view := &fakeView{}
	svc := NewService(dir, ledger, view, time.UTC)
	return dir, ledger, view, svc
}

func TestCheckInFreshTrainee(t *testing.T) {
	dir, ledger, view, svc := newFixture()

	res, err := svc.CheckIn(context.Background(), "TCH-A1B2C3D4E")
	require.NoError(t, err)
	require.Equal(t, 1, res.Trainee.RewardPoints)
	require.Equal(t, PointsPerCheckin, res.Checkin.PointsAwarded)
	require.Len(t, ledger.rows, 1)
	require.Equal(t, 1, dir.points["t-1"])

	require.Len(t, view.entries, 1)
	require.Equal(t, "TCH-0001", view.entries[0].SerialNumber)
}

func TestCheckInTwiceSameDay(t *testing.T) {
	dir, ledger, _, svc := newFixture()

	_, err := svc.CheckIn(context.Background(), "TCH-A1B2C3D4E")
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), "TCH-A1B2C3D4E")
	require.ErrorIs(t, err, ErrAlreadyCheckedIn)
	require.Len(t, ledger.rows, 1, "no second row")
	require.Equal(t, 1, dir.points["t-1"], "points unchanged")
}

func TestCheckInNextDaySucceeds(t *testing.T) {
	dir, ledger, _, svc := newFixture()

	base := time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	_, err := svc.CheckIn(context.Background(), "TCH-A1B2C3D4E")
	require.NoError(t, err)

	// Two minutes later it is a new calendar day.
	svc.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = svc.CheckIn(context.Background(), "TCH-A1B2C3D4E")
	require.NoError(t, err)
	require.Len(t, ledger.rows, 2)
	require.Equal(t, 2, dir.points["t-1"])
}

func TestCheckInUnknownToken(t *testing.T) {
	_, ledger, _, svc := newFixture()

	_, err := svc.CheckIn(context.Background(), "TCH-NOPENOPE1")
	require.ErrorIs(t, err, ErrTraineeNotFound)
	require.Empty(t, ledger.rows)
}

func TestCheckInRaceLosesToConstraint(t *testing.T) {
	// Simulate the double-scan race: the guard read sees nothing, but the
	// insert hits the unique constraint because a concurrent check-in landed.
	dir, _, _, _ := newFixture()
	ledger := &racingLedger{}
	svc := NewService(dir, ledger, nil, time.UTC)

	_, err := svc.CheckIn(context.Background(), "TCH-A1B2C3D4E")
	require.ErrorIs(t, err, ErrAlreadyCheckedIn)
	require.Equal(t, 0, dir.points["t-1"], "points unchanged when the insert loses")
}

type racingLedger struct{}

func (r *racingLedger) Insert(ctx context.Context, c Checkin) (Checkin, error) {
	return Checkin{}, ErrAlreadyCheckedIn
}

func (r *racingLedger) ExistsForDay(ctx context.Context, traineeID string, day time.Time) (bool, error) {
	return false, nil
}

func (r *racingLedger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return nil, nil
}

func TestCheckInPartialFailureOnPoints(t *testing.T) {
	dir, ledger, _, svc := newFixture()
	dir.failAdjust = errors.New("connection reset")

	_, err := svc.CheckIn(context.Background(), "TCH-A1B2C3D4E")
	var partial *apperr.Partial
	require.ErrorAs(t, err, &partial)
	require.Equal(t, "checkin", partial.Op)
	require.Len(t, ledger.rows, 1, "the check-in row already landed")
}

func TestRecentPrefersView(t *testing.T) {
	_, _, view, svc := newFixture()
	view.entries = []Entry{{SerialNumber: "TCH-0002"}}

	entries, err := svc.Recent(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "TCH-0002", entries[0].SerialNumber)
}
