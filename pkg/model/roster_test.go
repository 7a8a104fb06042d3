package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paiban/rescheduler/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoster(t *testing.T) (*Roster, *Shift) {
	t.Helper()
	r := NewRoster()
	require.NoError(t, r.AddEmployee(&Employee{ID: 1, FirstName: "A"}))
	require.NoError(t, r.AddEmployee(&Employee{ID: 2, FirstName: "B"}))

	s, err := NewShift(at(14, 11, 0), at(14, 13, 0), "Grocery")
	require.NoError(t, err)
	require.NoError(t, r.Add(s))
	return r, s
}

func TestRoster_AddEmployee(t *testing.T) {
	r, _ := newTestRoster(t)

	err := r.AddEmployee(&Employee{ID: 1, FirstName: "dup"})
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))

	names := []string{}
	for _, e := range r.Employees() {
		names = append(names, e.FirstName)
	}
	assert.Equal(t, []string{"A", "B"}, names)
}

func TestRoster_AssignAndReassign(t *testing.T) {
	r, s := newTestRoster(t)

	require.NoError(t, r.Assign(s.ID, 1))
	assert.Len(t, r.ShiftsOf(1), 1)
	assert.True(t, s.AssignedTo(1))

	// 改派后原员工的索引同步清除
	require.NoError(t, r.Assign(s.ID, 2))
	assert.Empty(t, r.ShiftsOf(1))
	assert.Len(t, r.ShiftsOf(2), 1)
	assert.True(t, s.AssignedTo(2))

	prev, err := r.Unassign(s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), *prev)
	assert.Empty(t, r.ShiftsOf(2))
	assert.False(t, s.IsAssigned())
}

func TestRoster_Errors(t *testing.T) {
	r, s := newTestRoster(t)

	assert.True(t, errors.Is(r.Assign(uuid.New(), 1), errors.CodeNotFound))
	assert.True(t, errors.Is(r.Assign(s.ID, 99), errors.CodeNotFound))

	_, err := r.Unassign(uuid.New())
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	orphan, _ := NewShift(at(15, 9, 0), at(15, 10, 0), "Deli")
	ghost := int64(99)
	orphan.EmployeeID = &ghost
	assert.True(t, errors.Is(r.Add(orphan), errors.CodeNotFound))
}

func TestRoster_Remove(t *testing.T) {
	r, s := newTestRoster(t)
	require.NoError(t, r.Assign(s.ID, 1))

	removed, ok := r.Remove(s.ID)
	require.True(t, ok)
	assert.Equal(t, s, removed)
	assert.Empty(t, r.ShiftsOf(1))

	_, ok = r.Get(s.ID)
	assert.False(t, ok)
	_, ok = r.Remove(s.ID)
	assert.False(t, ok)
}

func TestRoster_InMonth(t *testing.T) {
	r, s := newTestRoster(t)
	march, _ := NewShift(time.Date(2017, 3, 1, 9, 0, 0, 0, time.UTC), time.Date(2017, 3, 1, 17, 0, 0, 0, time.UTC), "Grocery")
	require.NoError(t, r.Add(march))

	feb := r.InMonth(MonthKey{2017, time.February})
	require.Len(t, feb, 1)
	assert.Equal(t, s.ID, feb[0].ID)
	assert.Len(t, r.Shifts(), 2)
}

func TestRoster_Clone(t *testing.T) {
	r, s := newTestRoster(t)
	require.NoError(t, r.Assign(s.ID, 1))

	c := r.Clone()
	require.NoError(t, c.Assign(s.ID, 2))

	assert.True(t, s.AssignedTo(1))
	assert.Len(t, r.ShiftsOf(1), 1)
	assert.Len(t, c.ShiftsOf(2), 1)
	assert.Empty(t, c.ShiftsOf(1))
}
