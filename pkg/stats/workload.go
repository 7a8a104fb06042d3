// Package stats 提供工时与人工成本统计
package stats

import (
	"time"

	"github.com/google/uuid"
	"github.com/paiban/rescheduler/pkg/model"
)

// WeeklyHours 计算与 ref 同一周（周日开始）的班次总工时，exclude 对应的班次不计
func WeeklyHours(shifts []*model.Shift, ref time.Time, exclude uuid.UUID) float64 {
	var total time.Duration
	for _, s := range shifts {
		if s.ID == exclude {
			continue
		}
		if model.SameWeek(ref, s.Start) {
			total += s.Duration()
		}
	}
	return total.Hours()
}

// MonthlyHours 计算开始于指定月份的班次总工时，exclude 对应的班次不计
func MonthlyHours(shifts []*model.Shift, month model.MonthKey, exclude uuid.UUID) float64 {
	var total time.Duration
	for _, s := range shifts {
		if s.ID == exclude {
			continue
		}
		if month.Contains(s.Start) {
			total += s.Duration()
		}
	}
	return total.Hours()
}

// EmployeeWorkload 员工月度工时汇总
type EmployeeWorkload struct {
	EmployeeID   int64   `json:"employee_id"`
	Name         string  `json:"name"`
	ShiftCount   int     `json:"shift_count"`
	Hours        float64 `json:"hours"`
	DesiredHours int     `json:"desired_hours"`
	// 最忙一周的工时
	PeakWeekHours float64 `json:"peak_week_hours"`
	Overtime      bool    `json:"overtime"`
}

// Workload 汇总名单中每位员工在指定月份的工时
func Workload(roster *model.Roster, month model.MonthKey) []EmployeeWorkload {
	employees := roster.Employees()
	result := make([]EmployeeWorkload, 0, len(employees))

	for _, emp := range employees {
		assigned := roster.ShiftsOf(emp.ID)
		w := EmployeeWorkload{
			EmployeeID:   emp.ID,
			Name:         emp.FullName(),
			DesiredHours: emp.DesiredHours,
			Hours:        MonthlyHours(assigned, month, uuid.Nil),
		}

		weeks := make(map[time.Time]time.Duration)
		for _, s := range assigned {
			if !month.Contains(s.Start) {
				continue
			}
			w.ShiftCount++
			weeks[model.WeekStart(s.Start)] += s.Duration()
		}
		for start := range weeks {
			// 跨月的周要把相邻月份的班次也算进去
			h := WeeklyHours(assigned, start, uuid.Nil)
			if h > w.PeakWeekHours {
				w.PeakWeekHours = h
			}
		}
		w.Overtime = w.PeakWeekHours > float64(emp.OvertimeHours)

		result = append(result, w)
	}
	return result
}
