// Package model 定义排班引擎的核心数据模型
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paiban/rescheduler/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/teambition/rrule-go"
)

// Employee 员工
// 工号由外部指定，不自动生成；部门字段为自由文本，仅与部门表做字符串匹配
type Employee struct {
	ID                   int64           `json:"employee_id" db:"employee_id"`
	FirstName            string          `json:"first_name" db:"first_name"`
	LastName             string          `json:"last_name" db:"last_name"`
	PrimaryDepartment    string          `json:"primary_department" db:"primary_department"`
	Alternate1Department string          `json:"alternate1_department,omitempty" db:"alternate1_department"`
	Alternate2Department string          `json:"alternate2_department,omitempty" db:"alternate2_department"`
	Wage                 decimal.Decimal `json:"wage" db:"wage"`                   // 时薪
	DesiredHours         int             `json:"desired_hours" db:"desired_hours"` // 期望周工时
	OvertimeHours        int             `json:"overtime_hours" db:"overtime"`     // 周加班阈值（小时）

	// 福利费率，仅存档展示，不参与成本计算
	Medical        decimal.Decimal `json:"medical" db:"medical"`
	WorkmansComp   decimal.Decimal `json:"workmans_comp" db:"workmans_comp"`
	SocialSecurity decimal.Decimal `json:"social_security" db:"social_security"`

	Vacations              []*Vacation             `json:"vacations,omitempty" db:"-"`
	RepeatUnavailabilities []*RepeatUnavailability `json:"repeat_unavailabilities,omitempty" db:"-"`
}

// FullName 返回全名
func (e *Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// InDepartment 检查员工的主部门或任一备选部门是否为指定部门
func (e *Employee) InDepartment(dep string) bool {
	return e.PrimaryDepartment == dep ||
		e.Alternate1Department == dep ||
		e.Alternate2Department == dep
}

// IsPrimary 检查指定部门是否为员工主部门
func (e *Employee) IsPrimary(dep string) bool {
	return e.PrimaryDepartment == dep
}

// Validate 校验员工字段
func (e *Employee) Validate() error {
	if e.FirstName == "" {
		return errors.InvalidInput("first_name", "不能为空")
	}
	if e.Wage.IsNegative() {
		return errors.InvalidInput("wage", "不能为负数")
	}
	if e.OvertimeHours < 0 {
		return errors.InvalidInput("overtime_hours", "不能为负数")
	}
	return nil
}

// Vacation 休假（按具体日期时间）
type Vacation struct {
	ID         uuid.UUID `json:"id" db:"id"`
	EmployeeID int64     `json:"employee_id" db:"employee_id"`
	Start      time.Time `json:"start" db:"start_datetime"`
	End        time.Time `json:"end" db:"end_datetime"`
}

// NewVacation 创建休假，开始时间不能晚于结束时间
func NewVacation(employeeID int64, start, end time.Time) (*Vacation, error) {
	if start.After(end) {
		return nil, errors.InvalidTimeRange("vacation", start, end)
	}
	return &Vacation{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		Start:      start,
		End:        end,
	}, nil
}

// Range 返回休假的时间范围
func (v *Vacation) Range() TimeRange {
	return TimeRange{Start: v.Start, End: v.End}
}

// RepeatUnavailability 每周固定不可用时段
type RepeatUnavailability struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	EmployeeID int64        `json:"employee_id" db:"employee_id"`
	Weekday    time.Weekday `json:"weekday" db:"weekday"`
	Start      ClockTime    `json:"start" db:"start_time"`
	End        ClockTime    `json:"end" db:"end_time"`
}

// NewRepeatUnavailability 创建每周固定不可用时段
func NewRepeatUnavailability(employeeID int64, weekday time.Weekday, start, end ClockTime) (*RepeatUnavailability, error) {
	if weekday < time.Sunday || weekday > time.Saturday {
		return nil, errors.InvalidInput("weekday", fmt.Sprintf("%d 不在 0-6 范围内", weekday))
	}
	if start >= end {
		return nil, errors.New(errors.CodeInvalidTimeRange,
			fmt.Sprintf("不可用时段开始 %s 必须早于结束 %s", start, end))
	}
	return &RepeatUnavailability{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		Weekday:    weekday,
		Start:      start,
		End:        end,
	}, nil
}

// Clock 返回时刻范围
func (r *RepeatUnavailability) Clock() ClockRange {
	return ClockRange{Start: r.Start, End: r.End}
}

// String 返回如 "Tue 12:00 - 16:00"
func (r *RepeatUnavailability) String() string {
	return fmt.Sprintf("%s %s - %s", r.Weekday.String()[:3], r.Start, r.End)
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// Occurrences 展开 [from, to) 内的每次不可用时段
func (r *RepeatUnavailability) Occurrences(from, to time.Time) ([]TimeRange, error) {
	if !from.Before(to) {
		return nil, nil
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rruleWeekdays[r.Weekday]},
		Dtstart:   r.Start.On(from),
	})
	if err != nil {
		return nil, fmt.Errorf("构建重复规则失败: %w", err)
	}

	length := time.Duration(r.End - r.Start)
	starts := rule.Between(from, to, true)
	ranges := make([]TimeRange, 0, len(starts))
	for _, s := range starts {
		if !s.Before(to) {
			continue
		}
		ranges = append(ranges, TimeRange{Start: s, End: s.Add(length)})
	}
	return ranges, nil
}
