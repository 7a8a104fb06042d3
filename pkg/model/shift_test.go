package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paiban/rescheduler/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShift(t *testing.T) {
	t.Run("有效班次", func(t *testing.T) {
		s, err := NewShift(at(14, 11, 0), at(14, 13, 0), "Grocery")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, s.ID)
		assert.False(t, s.IsAssigned())
		assert.Equal(t, MonthKey{2017, time.February}, s.Month())
		assert.Equal(t, "2017-02-14", s.Day())
		assert.Equal(t, time.Tuesday, s.Weekday())
		assert.Equal(t, 2.0, s.Hours())
	})

	t.Run("开始等于结束", func(t *testing.T) {
		_, err := NewShift(at(14, 11, 0), at(14, 11, 0), "Grocery")
		assert.True(t, errors.Is(err, errors.CodeInvalidTimeRange))
	})

	t.Run("缺少部门", func(t *testing.T) {
		_, err := NewShift(at(14, 11, 0), at(14, 13, 0), "")
		assert.True(t, errors.Is(err, errors.CodeInvalidInput))
	})
}

func TestShift_Clock(t *testing.T) {
	s := &Shift{Start: at(14, 22, 0), End: at(15, 2, 0)}
	c := s.Clock()
	assert.Equal(t, NewClockTime(22, 0), c.Start)
	assert.Equal(t, NewClockTime(26, 0), c.End)
}

func TestShiftLabel(t *testing.T) {
	emp := &Employee{ID: 1, FirstName: "Alice"}

	tests := []struct {
		name     string
		hideS    bool
		hideE    bool
		assignee *Employee
		expected string
	}{
		{"已分配", false, false, emp, "11:00 - 01:00  Alice"},
		{"未分配", false, false, nil, "11:00 - 01:00"},
		{"开始待定", true, false, emp, "? - 01:00  Alice"},
		{"结束待定", false, true, nil, "11:00 - ?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Shift{
				Start:             at(14, 11, 0),
				End:               at(14, 13, 0),
				StartUndetermined: tt.hideS,
				EndUndetermined:   tt.hideE,
			}
			assert.Equal(t, tt.expected, ShiftLabel(s, tt.assignee))
		})
	}
}

func TestShift_Clone(t *testing.T) {
	id := int64(7)
	s := &Shift{ID: uuid.New(), EmployeeID: &id}
	c := s.Clone()
	*c.EmployeeID = 8

	assert.Equal(t, int64(7), *s.EmployeeID)
	assert.True(t, c.AssignedTo(8))
}
