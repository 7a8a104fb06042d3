package stats

import (
	"sort"

	"github.com/google/uuid"
	"github.com/paiban/rescheduler/pkg/model"
)

// CoverageReport 月度班次覆盖情况
type CoverageReport struct {
	Month          model.MonthKey `json:"month"`
	TotalShifts    int            `json:"total_shifts"`
	AssignedShifts int            `json:"assigned_shifts"`
	// 已分配班次占比（%），没有班次时为 100
	OverallCoverage float64              `json:"overall_coverage"`
	Departments     []DepartmentCoverage `json:"departments"`
	Daily           []DayCoverage        `json:"daily"`
	Uncovered       []UncoveredShift     `json:"uncovered"`
}

// DepartmentCoverage 部门覆盖情况
type DepartmentCoverage struct {
	Department      string  `json:"department"`
	TotalShifts     int     `json:"total_shifts"`
	Assigned        int     `json:"assigned"`
	CoverageRate    float64 `json:"coverage_rate"`
	UnassignedHours float64 `json:"unassigned_hours"`
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date         string  `json:"date"`
	TotalShifts  int     `json:"total_shifts"`
	Assigned     int     `json:"assigned"`
	CoverageRate float64 `json:"coverage_rate"`
	StaffCount   int     `json:"staff_count"`
	TotalHours   float64 `json:"total_hours"`
}

// UncoveredShift 未分配的班次
type UncoveredShift struct {
	ShiftID    uuid.UUID `json:"shift_id"`
	Department string    `json:"department"`
	Date       string    `json:"date"`
	Label      string    `json:"label"`
}

// Coverage 统计开始于指定月份的班次覆盖情况。
// departments 决定部门顺序，班次中出现但未登记的部门按名称排在后面
func Coverage(roster *model.Roster, month model.MonthKey, departments []string) *CoverageReport {
	report := &CoverageReport{
		Month:           month,
		OverallCoverage: 100,
		Departments:     []DepartmentCoverage{},
		Daily:           []DayCoverage{},
		Uncovered:       []UncoveredShift{},
	}

	byDep := make(map[string]*DepartmentCoverage)
	var extra []string
	for _, dep := range departments {
		byDep[dep] = &DepartmentCoverage{Department: dep}
	}

	byDay := make(map[string]*DayCoverage)
	staff := make(map[string]map[int64]bool)
	var days []string

	for _, s := range roster.InMonth(month) {
		report.TotalShifts++

		dc, ok := byDep[s.Department]
		if !ok {
			dc = &DepartmentCoverage{Department: s.Department}
			byDep[s.Department] = dc
			extra = append(extra, s.Department)
		}
		dc.TotalShifts++

		date := s.Day()
		day, ok := byDay[date]
		if !ok {
			day = &DayCoverage{Date: date}
			byDay[date] = day
			staff[date] = make(map[int64]bool)
			days = append(days, date)
		}
		day.TotalShifts++
		day.TotalHours += s.Hours()

		if s.IsAssigned() {
			report.AssignedShifts++
			dc.Assigned++
			day.Assigned++
			staff[date][*s.EmployeeID] = true
			continue
		}
		dc.UnassignedHours += s.Hours()
		report.Uncovered = append(report.Uncovered, UncoveredShift{
			ShiftID:    s.ID,
			Department: s.Department,
			Date:       date,
			Label:      model.ShiftLabel(s, nil),
		})
	}

	if report.TotalShifts > 0 {
		report.OverallCoverage = rate(report.AssignedShifts, report.TotalShifts)
	}

	sort.Strings(extra)
	for _, dep := range append(append([]string(nil), departments...), extra...) {
		dc := byDep[dep]
		dc.CoverageRate = rate(dc.Assigned, dc.TotalShifts)
		report.Departments = append(report.Departments, *dc)
	}

	sort.Strings(days)
	for _, date := range days {
		day := byDay[date]
		day.CoverageRate = rate(day.Assigned, day.TotalShifts)
		day.StaffCount = len(staff[date])
		report.Daily = append(report.Daily, *day)
	}
	return report
}

// rate 百分比，total 为 0 时视为全部覆盖
func rate(n, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(n) / float64(total) * 100
}
