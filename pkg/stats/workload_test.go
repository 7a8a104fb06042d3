package stats

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeeklyHours(t *testing.T) {
	r := newRoster(t, 10)
	mon := addShift(t, r, "Grocery", day(13, 9, 0), day(13, 17, 0), 1)
	// 周六 4.5 小时
	addShift(t, r, "Grocery", day(18, 9, 0), day(18, 13, 30), 1)
	// 下周日、上周六不计入本周
	addShift(t, r, "Grocery", day(19, 9, 0), day(19, 17, 0), 1)
	addShift(t, r, "Grocery", day(11, 9, 0), day(11, 17, 0), 1)

	assigned := r.ShiftsOf(1)

	tests := []struct {
		name     string
		ref      time.Time
		exclude  uuid.UUID
		expected float64
	}{
		{"本周", day(14, 11, 0), uuid.Nil, 12.5},
		{"排除指定班次", day(14, 11, 0), mon.ID, 4.5},
		{"周日开始的新一周", day(19, 0, 0), uuid.Nil, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, WeeklyHours(assigned, tt.ref, tt.exclude), 1e-9)
		})
	}
}

func TestMonthlyHours(t *testing.T) {
	r := newRoster(t, 10)
	s := addShift(t, r, "Grocery", day(13, 9, 0), day(13, 17, 0), 1)
	addShift(t, r, "Grocery", time.Date(2017, 3, 1, 9, 0, 0, 0, time.UTC), time.Date(2017, 3, 1, 10, 0, 0, 0, time.UTC), 1)

	assert.Equal(t, 8.0, MonthlyHours(r.ShiftsOf(1), feb2017, uuid.Nil))
	assert.Equal(t, 0.0, MonthlyHours(r.ShiftsOf(1), feb2017, s.ID))
}

func TestWorkload(t *testing.T) {
	r := newRoster(t, 10)
	for d := 12; d <= 17; d++ {
		addShift(t, r, "Grocery", day(d, 9, 0), day(d, 17, 0), 1)
	}

	got := Workload(r, feb2017)
	require.Len(t, got, 1)
	assert.Equal(t, 6, got[0].ShiftCount)
	assert.Equal(t, 48.0, got[0].Hours)
	assert.Equal(t, 48.0, got[0].PeakWeekHours)
	assert.True(t, got[0].Overtime)
}
