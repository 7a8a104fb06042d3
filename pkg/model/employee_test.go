package model

import (
	"testing"
	"time"

	"github.com/paiban/rescheduler/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployee_InDepartment(t *testing.T) {
	emp := &Employee{
		ID:                   1,
		FirstName:            "A",
		PrimaryDepartment:    "Grocery",
		Alternate1Department: "Deli",
		Alternate2Department: "Bakery",
	}

	tests := []struct {
		dep     string
		in      bool
		primary bool
	}{
		{"Grocery", true, true},
		{"Deli", true, false},
		{"Bakery", true, false},
		{"Pharmacy", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.dep, func(t *testing.T) {
			assert.Equal(t, tt.in, emp.InDepartment(tt.dep))
			assert.Equal(t, tt.primary, emp.IsPrimary(tt.dep))
		})
	}
}

func TestEmployee_Validate(t *testing.T) {
	t.Run("有效", func(t *testing.T) {
		emp := &Employee{ID: 1, FirstName: "A", Wage: decimal.NewFromInt(10)}
		assert.NoError(t, emp.Validate())
	})

	t.Run("负时薪", func(t *testing.T) {
		emp := &Employee{ID: 1, FirstName: "A", Wage: decimal.NewFromInt(-1)}
		assert.True(t, errors.Is(emp.Validate(), errors.CodeInvalidInput))
	})

	t.Run("缺少名字", func(t *testing.T) {
		emp := &Employee{ID: 1}
		assert.Error(t, emp.Validate())
	})
}

func TestNewVacation(t *testing.T) {
	start := at(14, 0, 0)

	t.Run("整天休假", func(t *testing.T) {
		v, err := NewVacation(3, start, at(14, 23, 59))
		require.NoError(t, err)
		assert.Equal(t, int64(3), v.EmployeeID)
		assert.True(t, v.Range().Overlaps(TimeRange{at(14, 11, 0), at(14, 13, 0)}))
	})

	t.Run("开始等于结束允许", func(t *testing.T) {
		_, err := NewVacation(3, start, start)
		assert.NoError(t, err)
	})

	t.Run("开始晚于结束", func(t *testing.T) {
		_, err := NewVacation(3, at(15, 0, 0), start)
		assert.True(t, errors.Is(err, errors.CodeInvalidTimeRange))
	})
}

func TestNewRepeatUnavailability(t *testing.T) {
	t.Run("有效", func(t *testing.T) {
		r, err := NewRepeatUnavailability(2, time.Tuesday, NewClockTime(12, 0), NewClockTime(16, 0))
		require.NoError(t, err)
		assert.Equal(t, "Tue 12:00 - 16:00", r.String())
	})

	t.Run("开始不早于结束", func(t *testing.T) {
		_, err := NewRepeatUnavailability(2, time.Tuesday, NewClockTime(16, 0), NewClockTime(16, 0))
		assert.True(t, errors.Is(err, errors.CodeInvalidTimeRange))
	})

	t.Run("星期越界", func(t *testing.T) {
		_, err := NewRepeatUnavailability(2, time.Weekday(7), NewClockTime(12, 0), NewClockTime(16, 0))
		assert.True(t, errors.Is(err, errors.CodeInvalidInput))
	})
}

func TestRepeatUnavailability_Occurrences(t *testing.T) {
	r, err := NewRepeatUnavailability(2, time.Tuesday, NewClockTime(12, 0), NewClockTime(16, 0))
	require.NoError(t, err)

	month := MonthKey{Year: 2017, Month: time.February}
	got, err := r.Occurrences(month.Start(time.UTC), month.End(time.UTC))
	require.NoError(t, err)

	// 2017年2月的周二：7、14、21、28
	require.Len(t, got, 4)
	for i, day := range []int{7, 14, 21, 28} {
		assert.Equal(t, at(day, 12, 0), got[i].Start)
		assert.Equal(t, at(day, 16, 0), got[i].End)
	}

	t.Run("空区间", func(t *testing.T) {
		got, err := r.Occurrences(at(14, 0, 0), at(14, 0, 0))
		assert.NoError(t, err)
		assert.Empty(t, got)
	})
}
