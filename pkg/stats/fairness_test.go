package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkloadFairness(t *testing.T) {
	loads := []EmployeeWorkload{
		{EmployeeID: 1, Hours: 40, DesiredHours: 40},
		{EmployeeID: 2, Hours: 20, DesiredHours: 40},
		{EmployeeID: 3, Hours: 0, Overtime: false},
		{EmployeeID: 4, Hours: 60, Overtime: true},
	}

	f := WorkloadFairness(loads)
	assert.Equal(t, 4, f.Employees)
	assert.InDelta(t, 30, f.MeanHours, 1e-9)
	// 方差 (100+100+900+900)/4 = 500
	assert.InDelta(t, 22.3607, f.StdDev, 1e-4)
	assert.Equal(t, 60.0, f.MaxHours)
	assert.Equal(t, 0.0, f.MinHours)
	assert.Equal(t, 60.0, f.HoursRange)
	assert.Equal(t, 1, f.Overtime)
	assert.Equal(t, 1, f.BelowDesired)
	assert.True(t, f.Gini > 0 && f.Gini < 1)
}

func TestWorkloadFairness_Equal(t *testing.T) {
	loads := []EmployeeWorkload{{Hours: 8}, {Hours: 8}, {Hours: 8}}
	f := WorkloadFairness(loads)
	assert.Zero(t, f.Gini)
	assert.Zero(t, f.StdDev)
	assert.Zero(t, f.HoursRange)
}

func TestWorkloadFairness_Empty(t *testing.T) {
	f := WorkloadFairness(nil)
	assert.Equal(t, Fairness{}, f)

	// 全部为 0 工时不算不公平
	f = WorkloadFairness([]EmployeeWorkload{{}, {}})
	assert.Zero(t, f.Gini)
}

func TestGini_Concentrated(t *testing.T) {
	// 工时全部集中在一人：(n-1)/n
	assert.InDelta(t, 0.75, gini([]float64{0, 0, 0, 10}), 1e-9)
}
