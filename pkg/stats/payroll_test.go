package stats

import (
	"testing"
	"time"

	"github.com/paiban/rescheduler/pkg/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var feb2017 = model.MonthKey{Year: 2017, Month: time.February}

func day(d, h, m int) time.Time {
	return time.Date(2017, 2, d, h, m, 0, 0, time.UTC)
}

func newRoster(t *testing.T, wage int64) *model.Roster {
	t.Helper()
	r := model.NewRoster()
	require.NoError(t, r.AddEmployee(&model.Employee{
		ID:                1,
		FirstName:         "A",
		PrimaryDepartment: "Grocery",
		Wage:              decimal.NewFromInt(wage),
		OvertimeHours:     40,
	}))
	return r
}

func addShift(t *testing.T, r *model.Roster, dep string, start, end time.Time, emp int64) *model.Shift {
	t.Helper()
	s, err := model.NewShift(start, end, dep)
	require.NoError(t, err)
	require.NoError(t, r.Add(s))
	if emp != 0 {
		require.NoError(t, r.Assign(s.ID, emp))
	}
	return s
}

func revenue(t *testing.T, month model.MonthKey, amount int64) *model.MonthlyRevenue {
	t.Helper()
	rev, err := model.NewMonthlyRevenue(month, decimal.NewFromInt(amount))
	require.NoError(t, err)
	return rev
}

func TestShiftCost_IgnoresBenefitRates(t *testing.T) {
	r := model.NewRoster()
	require.NoError(t, r.AddEmployee(&model.Employee{
		ID:                1,
		FirstName:         "A",
		PrimaryDepartment: "Grocery",
		Wage:              decimal.NewFromInt(10),
		Medical:           decimal.NewFromInt(5),
		WorkmansComp:      decimal.NewFromInt(3),
		SocialSecurity:    decimal.NewFromInt(2),
	}))
	s := addShift(t, r, "Grocery", day(14, 11, 0), day(14, 13, 0), 1)

	assert.True(t, decimal.NewFromInt(20).Equal(ShiftCost(s, r)))
}

func TestShiftCost(t *testing.T) {
	r := newRoster(t, 10)

	tests := []struct {
		name     string
		end      time.Time
		assign   bool
		expected int64
	}{
		{"1小时59分按1小时计", day(14, 12, 59), true, 10},
		{"整2小时", day(14, 13, 0), true, 20},
		{"不足1小时", day(14, 11, 30), true, 0},
		{"未分配", day(14, 13, 0), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var emp int64
			if tt.assign {
				emp = 1
			}
			s := addShift(t, r, "Grocery", day(14, 11, 0), tt.end, emp)
			got := ShiftCost(s, r)
			assert.True(t, decimal.NewFromInt(tt.expected).Equal(got), "ShiftCost() = %s", got)
		})
	}
}

func TestMonthlyAverageRevenue(t *testing.T) {
	samples := []*model.MonthlyRevenue{
		revenue(t, feb2017, 1000),
		revenue(t, feb2017, 3000),
		// 同月不同年不参与
		revenue(t, model.MonthKey{Year: 2016, Month: time.February}, 9000),
		revenue(t, model.MonthKey{Year: 2017, Month: time.March}, 500),
	}

	avg := MonthlyAverageRevenue(samples, feb2017)
	require.True(t, avg.Known)
	assert.True(t, decimal.NewFromInt(2000).Equal(avg.Amount))

	t.Run("无样本", func(t *testing.T) {
		assert.Equal(t, NoData, MonthlyAverageRevenue(samples, model.MonthKey{Year: 2017, Month: time.April}))
	})

	t.Run("平均值为0", func(t *testing.T) {
		zero := []*model.MonthlyRevenue{revenue(t, feb2017, 0)}
		assert.False(t, MonthlyAverageRevenue(zero, feb2017).Known)
	})
}

func TestDepartmentPercentage_RoundHalfUp(t *testing.T) {
	r := newRoster(t, 10)
	// 成本 10 / 营收 400 = 2.5% 四舍五入为 3%
	s := addShift(t, r, "Grocery", day(14, 11, 0), day(14, 12, 0), 1)

	avg := AverageRevenue{Amount: decimal.NewFromInt(400), Known: true}
	pct := DepartmentPercentage([]*model.Shift{s}, r, avg)
	assert.Equal(t, int64(3), pct.Value)
	assert.Equal(t, "3%", pct.String())

	assert.Equal(t, NoDataLabel, DepartmentPercentage([]*model.Shift{s}, r, NoData).String())
}

func TestBuildPayrollReport(t *testing.T) {
	r := newRoster(t, 10)
	// 各部门 2.5% → 3%，合计按已取整值相加为 6%，而不是 5%
	addShift(t, r, "Grocery", day(14, 11, 0), day(14, 12, 0), 1)
	addShift(t, r, "Deli", day(15, 11, 0), day(15, 12, 0), 1)
	addShift(t, r, "Deli", day(16, 11, 0), day(16, 12, 0), 0)
	addShift(t, r, "Grocery", time.Date(2017, 3, 1, 9, 0, 0, 0, time.UTC), time.Date(2017, 3, 1, 17, 0, 0, 0, time.UTC), 1)

	samples := []*model.MonthlyRevenue{revenue(t, feb2017, 400)}
	report := BuildPayrollReport(feb2017, []string{"Grocery", "Deli", "Bakery"}, r.Shifts(), r, samples)

	require.Len(t, report.Departments, 3)
	labels := report.Labels()
	assert.Equal(t, "3%", labels["Grocery"])
	assert.Equal(t, "3%", labels["Deli"])
	assert.Equal(t, "0%", labels["Bakery"])
	assert.Equal(t, "6%", labels["Total"])
	assert.True(t, decimal.NewFromInt(10).Equal(report.Departments[0].Cost))
	require.NotNil(t, report.AverageRevenue)

	t.Run("无营收数据全部显示 No Data", func(t *testing.T) {
		report := BuildPayrollReport(feb2017, []string{"Grocery", "Deli"}, r.Shifts(), r, nil)
		for dep, label := range report.Labels() {
			assert.Equal(t, NoDataLabel, label, dep)
		}
		assert.Nil(t, report.AverageRevenue)
	})

	t.Run("未登记部门时取班次中的部门", func(t *testing.T) {
		report := BuildPayrollReport(feb2017, nil, r.Shifts(), r, samples)
		require.Len(t, report.Departments, 2)
		assert.Equal(t, "Deli", report.Departments[0].Department)
		assert.Equal(t, "Grocery", report.Departments[1].Department)
	})

	t.Run("未登记部门排在已登记部门之后并计入合计", func(t *testing.T) {
		report := BuildPayrollReport(feb2017, []string{"Grocery"}, r.Shifts(), r, samples)
		require.Len(t, report.Departments, 2)
		assert.Equal(t, "Grocery", report.Departments[0].Department)
		assert.Equal(t, "Deli", report.Departments[1].Department)
		assert.Equal(t, "6%", report.Labels()["Total"])
	})
}
