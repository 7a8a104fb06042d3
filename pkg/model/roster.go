package model

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/paiban/rescheduler/pkg/errors"
)

// Roster 员工与班次的快照
// 班次按 ID 存放，员工到班次的反向关系只保存在索引中
type Roster struct {
	employees  map[int64]*Employee
	order      []int64
	shifts     map[uuid.UUID]*Shift
	byEmployee map[int64]map[uuid.UUID]struct{}
}

// NewRoster 创建空快照
func NewRoster() *Roster {
	return &Roster{
		employees:  make(map[int64]*Employee),
		shifts:     make(map[uuid.UUID]*Shift),
		byEmployee: make(map[int64]map[uuid.UUID]struct{}),
	}
}

// AddEmployee 添加员工，工号必须唯一
func (r *Roster) AddEmployee(e *Employee) error {
	if _, ok := r.employees[e.ID]; ok {
		return errors.InvalidInput("employee_id", fmt.Sprintf("%d 已存在", e.ID))
	}
	r.employees[e.ID] = e
	r.order = append(r.order, e.ID)
	return nil
}

// Employee 按工号查找员工
func (r *Roster) Employee(id int64) (*Employee, bool) {
	e, ok := r.employees[id]
	return e, ok
}

// Employees 按加入顺序返回全部员工
func (r *Roster) Employees() []*Employee {
	list := make([]*Employee, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.employees[id])
	}
	return list
}

// Add 添加班次；已分配的班次要求员工存在
func (r *Roster) Add(s *Shift) error {
	if _, ok := r.shifts[s.ID]; ok {
		return errors.InvalidInput("shift_id", fmt.Sprintf("%s 已存在", s.ID))
	}
	if s.EmployeeID != nil {
		if _, ok := r.employees[*s.EmployeeID]; !ok {
			return errors.NotFound("employee", fmt.Sprint(*s.EmployeeID))
		}
	}
	r.shifts[s.ID] = s
	if s.EmployeeID != nil {
		r.link(*s.EmployeeID, s.ID)
	}
	return nil
}

// Remove 删除班次，同时从原员工的索引中移除
func (r *Roster) Remove(id uuid.UUID) (*Shift, bool) {
	s, ok := r.shifts[id]
	if !ok {
		return nil, false
	}
	if s.EmployeeID != nil {
		r.unlink(*s.EmployeeID, id)
	}
	delete(r.shifts, id)
	return s, true
}

// Get 按 ID 查找班次
func (r *Roster) Get(id uuid.UUID) (*Shift, bool) {
	s, ok := r.shifts[id]
	return s, ok
}

// Shifts 按开始时间返回全部班次
func (r *Roster) Shifts() []*Shift {
	list := make([]*Shift, 0, len(r.shifts))
	for _, s := range r.shifts {
		list = append(list, s)
	}
	sortShifts(list)
	return list
}

// ShiftsOf 返回员工当前分配的班次
func (r *Roster) ShiftsOf(employeeID int64) []*Shift {
	ids := r.byEmployee[employeeID]
	list := make([]*Shift, 0, len(ids))
	for id := range ids {
		list = append(list, r.shifts[id])
	}
	sortShifts(list)
	return list
}

// Assign 将班次分配给员工，原员工（如有）同时解除
func (r *Roster) Assign(shiftID uuid.UUID, employeeID int64) error {
	s, ok := r.shifts[shiftID]
	if !ok {
		return errors.NotFound("shift", shiftID.String())
	}
	if _, ok := r.employees[employeeID]; !ok {
		return errors.NotFound("employee", fmt.Sprint(employeeID))
	}
	if s.EmployeeID != nil {
		r.unlink(*s.EmployeeID, shiftID)
	}
	id := employeeID
	s.EmployeeID = &id
	r.link(employeeID, shiftID)
	return nil
}

// Unassign 清除班次的员工，返回原员工工号
func (r *Roster) Unassign(shiftID uuid.UUID) (*int64, error) {
	s, ok := r.shifts[shiftID]
	if !ok {
		return nil, errors.NotFound("shift", shiftID.String())
	}
	prev := s.EmployeeID
	if prev != nil {
		r.unlink(*prev, shiftID)
	}
	s.EmployeeID = nil
	return prev, nil
}

// InMonth 返回开始于指定月份的班次
func (r *Roster) InMonth(month MonthKey) []*Shift {
	var list []*Shift
	for _, s := range r.shifts {
		if month.Contains(s.Start) {
			list = append(list, s)
		}
	}
	sortShifts(list)
	return list
}

// Clone 深拷贝班次与索引；员工记录只读共享
func (r *Roster) Clone() *Roster {
	c := NewRoster()
	for _, id := range r.order {
		c.employees[id] = r.employees[id]
	}
	c.order = append(c.order, r.order...)
	for id, s := range r.shifts {
		c.shifts[id] = s.Clone()
	}
	for emp, set := range r.byEmployee {
		for id := range set {
			c.link(emp, id)
		}
	}
	return c
}

func (r *Roster) link(employeeID int64, shiftID uuid.UUID) {
	set, ok := r.byEmployee[employeeID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		r.byEmployee[employeeID] = set
	}
	set[shiftID] = struct{}{}
}

func (r *Roster) unlink(employeeID int64, shiftID uuid.UUID) {
	set := r.byEmployee[employeeID]
	delete(set, shiftID)
	if len(set) == 0 {
		delete(r.byEmployee, employeeID)
	}
}

// sortShifts 按开始时间排序，相同时按 ID 保证稳定输出
func sortShifts(list []*Shift) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Start.Equal(list[j].Start) {
			return list[i].Start.Before(list[j].Start)
		}
		return list[i].ID.String() < list[j].ID.String()
	})
}
