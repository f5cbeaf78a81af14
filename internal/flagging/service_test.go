package flagging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"traineehub/internal/apperr"
)

type fakeRecorder struct {
	rows []Flag
}

func (f *fakeRecorder) Insert(ctx context.Context, fl Flag) (Flag, error) {
	fl.ID = "f-1"
	fl.CreatedAt = time.Now()
	f.rows = append(f.rows, fl)
	return fl, nil
}

func (f *fakeRecorder) ListByTrainee(ctx context.Context, traineeID string) ([]Flag, error) {
	return f.rows, nil
}

type fakeAccount struct {
	balance    int
	failAdjust error
}

func (f *fakeAccount) AdjustPoints(ctx context.Context, id string, delta int) (int, error) {
	if f.failAdjust != nil {
		return 0, f.failAdjust
	}
	f.balance += delta
	if f.balance < 0 {
		f.balance = 0
	}
	return f.balance, nil
}

func TestFlagDeductsPoints(t *testing.T) {
	rec := &fakeRecorder{}
	acct := &fakeAccount{balance: 5}
	svc := NewService(rec, acct)

	res, err := svc.Flag(context.Background(), "t-1", "late twice this week", 2)
	require.NoError(t, err)
	require.Equal(t, 3, res.RewardPoints)
	require.Equal(t, 2, res.Flag.PointsDeducted)
	require.Len(t, rec.rows, 1)
}

func TestFlagClampsAtZero(t *testing.T) {
	rec := &fakeRecorder{}
	acct := &fakeAccount{balance: 5}
	svc := NewService(rec, acct)

	res, err := svc.Flag(context.Background(), "t-1", "damaged equipment", 10)
	require.NoError(t, err)
	require.Equal(t, 0, res.RewardPoints, "balance clamps at zero")
	require.Equal(t, 10, res.Flag.PointsDeducted, "flag records the requested deduction")
}

func TestFlagZeroDeduction(t *testing.T) {
	rec := &fakeRecorder{}
	acct := &fakeAccount{balance: 5}
	svc := NewService(rec, acct)

	res, err := svc.Flag(context.Background(), "t-1", "verbal warning", 0)
	require.NoError(t, err)
	require.Equal(t, 5, res.RewardPoints, "balance untouched")
	require.Len(t, rec.rows, 1)
}

func TestFlagRejectsEmptyReason(t *testing.T) {
	rec := &fakeRecorder{}
	svc := NewService(rec, &fakeAccount{balance: 5})

	for _, reason := range []string{"", "   ", "\t\n"} {
		_, err := svc.Flag(context.Background(), "t-1", reason, 1)
		require.ErrorIs(t, err, ErrEmptyReason)
	}
	require.Empty(t, rec.rows, "no flag row created")
}

func TestFlagRejectsNegativeDeduction(t *testing.T) {
	rec := &fakeRecorder{}
	svc := NewService(rec, &fakeAccount{balance: 5})

	_, err := svc.Flag(context.Background(), "t-1", "reason", -3)
	require.ErrorIs(t, err, ErrNegativeDeduction)
	require.Empty(t, rec.rows)
}

func TestFlagPartialFailureOnPoints(t *testing.T) {
	rec := &fakeRecorder{}
	acct := &fakeAccount{balance: 5, failAdjust: errors.New("connection reset")}
	svc := NewService(rec, acct)

	_, err := svc.Flag(context.Background(), "t-1", "late", 2)
	var partial *apperr.Partial
	require.ErrorAs(t, err, &partial)
	require.Equal(t, "flag", partial.Op)
	require.Len(t, rec.rows, 1, "the flag row already landed")
}
