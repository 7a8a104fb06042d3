// Package model 定义排班引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/paiban/rescheduler/pkg/errors"
)

// labelClockLayout 班次标签的时刻格式（12小时制）
const labelClockLayout = "03:04"

// Shift 班次
// 班次是分配关系的持有方，员工侧只通过 Roster 索引反查
type Shift struct {
	ID                uuid.UUID `json:"id" db:"id"`
	Start             time.Time `json:"start" db:"start_datetime"`
	End               time.Time `json:"end" db:"end_datetime"`
	Department        string    `json:"department" db:"department"`
	EmployeeID        *int64    `json:"employee_id,omitempty" db:"employee_id"`
	StartUndetermined bool      `json:"start_undetermined" db:"hide_start"`
	EndUndetermined   bool      `json:"end_undetermined" db:"hide_end"`
}

// NewShift 创建未分配的班次，开始时间必须早于结束时间
func NewShift(start, end time.Time, department string) (*Shift, error) {
	if !start.Before(end) {
		return nil, errors.InvalidTimeRange("shift", start, end)
	}
	if department == "" {
		return nil, errors.InvalidInput("department", "不能为空")
	}
	return &Shift{
		ID:         uuid.New(),
		Start:      start,
		End:        end,
		Department: department,
	}, nil
}

// Range 返回班次时间范围
func (s *Shift) Range() TimeRange {
	return TimeRange{Start: s.Start, End: s.End}
}

// Duration 返回班次时长
func (s *Shift) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Hours 返回班次小时数（含小数）
func (s *Shift) Hours() float64 {
	return s.Duration().Hours()
}

// Month 班次所属月份，由开始时间决定
func (s *Shift) Month() MonthKey {
	return MonthOf(s.Start)
}

// Day 班次所属日期 YYYY-MM-DD
func (s *Shift) Day() string {
	return s.Start.Format(DateLayout)
}

// Weekday 班次开始的星期
func (s *Shift) Weekday() time.Weekday {
	return s.Start.Weekday()
}

// Clock 返回班次在一天内的时刻范围
// 跨午夜的班次结束时刻按 24:00 之后计算
func (s *Shift) Clock() ClockRange {
	start := ClockOf(s.Start)
	return ClockRange{Start: start, End: start + ClockTime(s.Duration())}
}

// Overlaps 检查两个班次时间是否重叠
func (s *Shift) Overlaps(other *Shift) bool {
	return Overlaps(s.Start, s.End, other.Start, other.End)
}

// IsAssigned 是否已分配员工
func (s *Shift) IsAssigned() bool {
	return s.EmployeeID != nil
}

// AssignedTo 是否分配给指定员工
func (s *Shift) AssignedTo(employeeID int64) bool {
	return s.EmployeeID != nil && *s.EmployeeID == employeeID
}

// Clone 复制班次
func (s *Shift) Clone() *Shift {
	c := *s
	if s.EmployeeID != nil {
		id := *s.EmployeeID
		c.EmployeeID = &id
	}
	return &c
}

// ShiftLabel 返回日历中显示的班次文本，如 "11:00 - 01:00  Alice"
// 待定的开始或结束时间显示为 "?"，未分配时不带姓名
func ShiftLabel(s *Shift, assignee *Employee) string {
	start, end := "?", "?"
	if !s.StartUndetermined {
		start = s.Start.Format(labelClockLayout)
	}
	if !s.EndUndetermined {
		end = s.End.Format(labelClockLayout)
	}

	label := start + " - " + end
	if assignee != nil {
		label += "  " + assignee.FirstName
	}
	return label
}
