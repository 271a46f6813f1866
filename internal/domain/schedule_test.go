package domain

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferSchedule_Validate(t *testing.T) {
	tests := []struct {
		name     string
		schedule TransferSchedule
		wantErr  error
		errMsg   string
	}{
		{
			name: "Valid monthly schedule should pass",
			schedule: TransferSchedule{
				ID:      uuid.New(),
				UserID:  uuid.New(),
				GoalID:  uuid.New(),
				Amount:  decimal.NewFromInt(250),
				Cadence: CadenceMonthly,
				Active:  true,
			},
		},
		{
			name: "Zero amount should fail",
			schedule: TransferSchedule{
				UserID:  uuid.New(),
				GoalID:  uuid.New(),
				Amount:  decimal.Zero,
				Cadence: CadenceWeekly,
			},
			wantErr: ErrInvalidAmount,
		},
		{
			name: "Negative amount should fail",
			schedule: TransferSchedule{
				UserID:  uuid.New(),
				GoalID:  uuid.New(),
				Amount:  decimal.NewFromInt(-5),
				Cadence: CadenceWeekly,
			},
			wantErr: ErrInvalidAmount,
		},
		{
			name: "Unknown cadence should fail",
			schedule: TransferSchedule{
				UserID:  uuid.New(),
				GoalID:  uuid.New(),
				Amount:  decimal.NewFromInt(10),
				Cadence: Cadence("daily"),
			},
			wantErr: ErrInvalidCadence,
		},
		{
			name: "Missing goal should fail",
			schedule: TransferSchedule{
				UserID:  uuid.New(),
				Amount:  decimal.NewFromInt(10),
				Cadence: CadenceMonthly,
			},
			errMsg: "schedule must reference a goal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schedule.Validate()
			switch {
			case tt.wantErr != nil:
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			case tt.errMsg != "":
				assert.EqualError(t, err, tt.errMsg)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestCadence_Next(t *testing.T) {
	from := time.Date(2026, time.January, 15, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, time.January, 22, 9, 30, 0, 0, time.UTC), CadenceWeekly.Next(from))
	assert.Equal(t, time.Date(2026, time.January, 29, 9, 30, 0, 0, time.UTC), CadenceBiweekly.Next(from))
	assert.Equal(t, time.Date(2026, time.February, 15, 9, 30, 0, 0, time.UTC), CadenceMonthly.Next(from))

	// Calendar month arithmetic normalizes overflowing days
	endOfJan := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC), CadenceMonthly.Next(endOfJan))
}

func TestParseCadence(t *testing.T) {
	c, err := ParseCadence("")
	require.NoError(t, err)
	assert.Equal(t, CadenceMonthly, c)

	c, err = ParseCadence("biweekly")
	require.NoError(t, err)
	assert.Equal(t, CadenceBiweekly, c)

	_, err = ParseCadence("yearly")
	assert.True(t, errors.Is(err, ErrInvalidCadence))
}

func TestTransferSchedule_IsDue(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	s := TransferSchedule{Active: true, NextDueAt: now}
	assert.True(t, s.IsDue(now), "schedule due exactly now should fire")

	s.NextDueAt = now.Add(time.Second)
	assert.False(t, s.IsDue(now), "future schedule should not fire")

	s.NextDueAt = now.Add(-time.Hour)
	s.Active = false
	assert.False(t, s.IsDue(now), "inactive schedule should never fire")
}

func TestTransferSchedule_RecordSuccess(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	s := TransferSchedule{
		Amount:           decimal.NewFromInt(100),
		Cadence:          CadenceWeekly,
		Active:           true,
		NextDueAt:        now.Add(-time.Hour),
		TotalTransferred: decimal.NewFromInt(300),
		FiredCount:       3,
	}

	s.RecordSuccess(now, decimal.NewFromInt(40))

	require.NotNil(t, s.LastFiredAt)
	assert.Equal(t, now, *s.LastFiredAt)
	assert.Equal(t, now.AddDate(0, 0, 7), s.NextDueAt)
	assert.True(t, s.TotalTransferred.Equal(decimal.NewFromInt(340)))
	assert.Equal(t, 4, s.FiredCount)
}

func TestTransferSchedule_Reschedule(t *testing.T) {
	now := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	lastFired := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Never fired anchors on now", func(t *testing.T) {
		s := TransferSchedule{Cadence: CadenceMonthly}
		s.Reschedule(CadenceWeekly, now)
		assert.Equal(t, CadenceWeekly, s.Cadence)
		assert.Equal(t, now.AddDate(0, 0, 7), s.NextDueAt)
	})

	t.Run("Fired schedule anchors on last transfer and may move earlier", func(t *testing.T) {
		s := TransferSchedule{Cadence: CadenceMonthly, LastFiredAt: &lastFired, NextDueAt: lastFired.AddDate(0, 1, 0)}
		s.Reschedule(CadenceWeekly, now)
		assert.Equal(t, lastFired.AddDate(0, 0, 7), s.NextDueAt)
		assert.True(t, s.NextDueAt.Before(now))
	})
}
