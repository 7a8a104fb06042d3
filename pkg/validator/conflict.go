// Package validator 提供班次冲突检测功能
package validator

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/paiban/rescheduler/pkg/model"
	"github.com/paiban/rescheduler/pkg/stats"
)

// Tier 员工相对某个班次的可用等级
// 数值即排名时的分组顺序
type Tier int

const (
	TierAvailable Tier = iota
	TierOvertime
	TierUnavailableRepeat
	TierVacation
	TierScheduleConflict
)

// Tiers 按排名顺序列出全部等级
var Tiers = []Tier{
	TierAvailable,
	TierOvertime,
	TierUnavailableRepeat,
	TierVacation,
	TierScheduleConflict,
}

var tierNames = map[Tier]string{
	TierAvailable:         "AVAILABLE",
	TierOvertime:          "OVERTIME",
	TierUnavailableRepeat: "UNAVAILABLE_REPEAT",
	TierVacation:          "VACATION",
	TierScheduleConflict:  "SCHEDULE_CONFLICT",
}

var tierFlags = map[Tier]string{
	TierAvailable:         "A",
	TierOvertime:          "O",
	TierUnavailableRepeat: "U",
	TierVacation:          "V",
	TierScheduleConflict:  "S",
}

var tierWarnings = map[Tier]string{
	TierOvertime:          "分配后该员工本周将超出加班阈值",
	TierUnavailableRepeat: "该员工在此时段有每周固定不可用安排",
	TierVacation:          "该员工在此时段休假",
	TierScheduleConflict:  "该员工在此时段已有其他班次",
}

// String 返回等级名称
func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// Flag 返回单字母标记
func (t Tier) Flag() string {
	return tierFlags[t]
}

// Warning 非可用等级的提示文本，可用等级返回空串
func (t Tier) Warning() string {
	return tierWarnings[t]
}

// MarshalText 以名称序列化
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictOverlap      ConflictType = "overlap"      // 班次时间重叠
	ConflictVacation     ConflictType = "vacation"     // 休假
	ConflictAvailability ConflictType = "availability" // 每周固定不可用
	ConflictMaxHours     ConflictType = "max_hours"    // 超过加班阈值
)

var tierConflictTypes = map[Tier]ConflictType{
	TierOvertime:          ConflictMaxHours,
	TierUnavailableRepeat: ConflictAvailability,
	TierVacation:          ConflictVacation,
	TierScheduleConflict:  ConflictOverlap,
}

// Conflict 冲突信息
type Conflict struct {
	Type       ConflictType `json:"type"`
	Tier       Tier         `json:"tier"`
	Severity   string       `json:"severity"` // error/warning
	EmployeeID int64        `json:"employee_id"`
	ShiftID    uuid.UUID    `json:"shift_id"`
	Department string       `json:"department"`
	Date       string       `json:"date"`
	Message    string       `json:"message"`
}

// ConflictDetector 冲突检测器
type ConflictDetector struct{}

// NewConflictDetector 创建冲突检测器
func NewConflictDetector() *ConflictDetector {
	return &ConflictDetector{}
}

// Classify 判定员工相对候选班次的等级，按固定顺序首个命中即返回：
// 班次冲突、休假、固定不可用、加班、可用。
// assigned 为员工当前分配的班次，候选班次本身会被排除
func (d *ConflictDetector) Classify(emp *model.Employee, assigned []*model.Shift, candidate *model.Shift) Tier {
	for _, s := range assigned {
		if s.ID == candidate.ID {
			continue
		}
		if s.Overlaps(candidate) {
			return TierScheduleConflict
		}
	}

	for _, v := range emp.Vacations {
		if model.Overlaps(candidate.Start, candidate.End, v.Start, v.End) {
			return TierVacation
		}
	}

	clock := candidate.Clock()
	for _, r := range emp.RepeatUnavailabilities {
		if r.Weekday == candidate.Weekday() && clock.Overlaps(r.Clock()) {
			return TierUnavailableRepeat
		}
	}

	weekly := stats.WeeklyHours(assigned, candidate.Start, candidate.ID) + candidate.Hours()
	if weekly > float64(emp.OvertimeHours) {
		return TierOvertime
	}

	return TierAvailable
}

// Audit 检查某月每个已分配班次的员工，报告所有非可用等级
func (d *ConflictDetector) Audit(roster *model.Roster, month model.MonthKey) []Conflict {
	var conflicts []Conflict

	for _, s := range roster.InMonth(month) {
		if s.EmployeeID == nil {
			continue
		}
		emp, ok := roster.Employee(*s.EmployeeID)
		if !ok {
			continue
		}

		tier := d.Classify(emp, roster.ShiftsOf(emp.ID), s)
		if tier == TierAvailable {
			continue
		}

		severity := "warning"
		if tier == TierScheduleConflict {
			severity = "error"
		}
		conflicts = append(conflicts, Conflict{
			Type:       tierConflictTypes[tier],
			Tier:       tier,
			Severity:   severity,
			EmployeeID: emp.ID,
			ShiftID:    s.ID,
			Department: s.Department,
			Date:       s.Day(),
			Message:    fmt.Sprintf("员工 %s 在 %s: %s", emp.FullName(), s.Day(), tier.Warning()),
		})
	}

	return conflicts
}
