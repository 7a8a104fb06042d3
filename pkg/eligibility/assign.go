package eligibility

import (
	"fmt"

	"github.com/paiban/rescheduler/pkg/model"
)

// Outcome 分配结果
// Changed 为 false 表示无变化，调用方无需刷新
type Outcome struct {
	Changed  bool   `json:"changed"`
	Label    string `json:"label,omitempty"`
	Previous *int64 `json:"previous_employee_id,omitempty"`
	Current  *int64 `json:"employee_id,omitempty"`
}

// ChangeFunc 分配变化后的回调，用于重算该月成本
type ChangeFunc func(shift *model.Shift, outcome Outcome)

// Assigner 在名单快照上执行分配
type Assigner struct {
	roster   *model.Roster
	onChange ChangeFunc
}

// NewAssigner 创建分配器，onChange 可为 nil
func NewAssigner(roster *model.Roster, onChange ChangeFunc) *Assigner {
	return &Assigner{roster: roster, onChange: onChange}
}

// Assign 将班次分配给排名中第 index 位员工
// index 越界属于调用方错误，直接 panic
func (a *Assigner) Assign(ranking *Ranking, index int, shift *model.Shift) (Outcome, error) {
	if index < 0 || index >= ranking.Len() {
		panic(fmt.Sprintf("eligibility: index %d out of range [0, %d)", index, ranking.Len()))
	}
	target := ranking.Candidates[index].EmployeeID

	if shift.AssignedTo(target) {
		return Outcome{Changed: false, Previous: shift.EmployeeID, Current: shift.EmployeeID}, nil
	}

	prev := shift.EmployeeID
	if err := a.roster.Assign(shift.ID, target); err != nil {
		return Outcome{}, err
	}
	// roster 中的班次可能是另一份副本
	if stored, ok := a.roster.Get(shift.ID); ok && stored != shift {
		id := target
		shift.EmployeeID = &id
	}

	emp, _ := a.roster.Employee(target)
	out := Outcome{
		Changed:  true,
		Label:    model.ShiftLabel(shift, emp),
		Previous: prev,
		Current:  shift.EmployeeID,
	}
	a.notify(shift, out)
	return out, nil
}

// Unassign 清除班次的员工，已为空时返回无变化
func (a *Assigner) Unassign(shift *model.Shift) (Outcome, error) {
	if shift.EmployeeID == nil {
		return Outcome{Changed: false}, nil
	}

	prev, err := a.roster.Unassign(shift.ID)
	if err != nil {
		return Outcome{}, err
	}
	shift.EmployeeID = nil

	out := Outcome{
		Changed:  true,
		Label:    model.ShiftLabel(shift, nil),
		Previous: prev,
	}
	a.notify(shift, out)
	return out, nil
}

func (a *Assigner) notify(shift *model.Shift, out Outcome) {
	if a.onChange != nil {
		a.onChange(shift, out)
	}
}
