package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/paiban/rescheduler/pkg/errors"
	"github.com/paiban/rescheduler/pkg/model"
)

// MemoryStore 内存存储，用于演示、命令行和测试
// 读操作返回副本，调用方修改不会影响存储
type MemoryStore struct {
	mu          sync.RWMutex
	employees   []*model.Employee
	employeeIdx map[int64]*model.Employee
	shifts      map[uuid.UUID]*model.Shift
	revenue     []*model.MonthlyRevenue
	departments []model.Department
}

// NewMemoryStore 创建空的内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		employeeIdx: make(map[int64]*model.Employee),
		shifts:      make(map[uuid.UUID]*model.Shift),
	}
}

// Employees 查询全部员工，按工号排序
func (m *MemoryStore) Employees(ctx context.Context) ([]*model.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*model.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		c := *e
		list = append(list, &c)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// Shifts 按条件查询班次
func (m *MemoryStore) Shifts(ctx context.Context, filter ShiftFilter) ([]*model.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var list []*model.Shift
	for _, s := range m.shifts {
		if !filter.From.IsZero() && s.Start.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !s.Start.Before(filter.To) {
			continue
		}
		if filter.Department != "" && s.Department != filter.Department {
			continue
		}
		if filter.EmployeeID != nil && !s.AssignedTo(*filter.EmployeeID) {
			continue
		}
		list = append(list, s.Clone())
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Start.Equal(list[j].Start) {
			return list[i].Start.Before(list[j].Start)
		}
		return list[i].ID.String() < list[j].ID.String()
	})
	return list, nil
}

// Shift 查询单个班次
func (m *MemoryStore) Shift(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.shifts[id]
	if !ok {
		return nil, errors.NotFound("shift", id.String())
	}
	return s.Clone(), nil
}

// CreateShift 创建班次
func (m *MemoryStore) CreateShift(ctx context.Context, shift *model.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}
	if _, ok := m.shifts[shift.ID]; ok {
		return fmt.Errorf("创建班次失败: %s 已存在", shift.ID)
	}
	if shift.EmployeeID != nil {
		if _, ok := m.employeeIdx[*shift.EmployeeID]; !ok {
			return errors.NotFound("employee", fmt.Sprint(*shift.EmployeeID))
		}
	}
	m.shifts[shift.ID] = shift.Clone()
	return nil
}

// DeleteShift 删除班次
func (m *MemoryStore) DeleteShift(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.shifts[id]; !ok {
		return errors.NotFound("shift", id.String())
	}
	delete(m.shifts, id)
	return nil
}

// SetAssignee 比较并设置班次员工
func (m *MemoryStore) SetAssignee(ctx context.Context, id uuid.UUID, expected, next *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shifts[id]
	if !ok {
		return errors.NotFound("shift", id.String())
	}
	if !sameAssignee(s.EmployeeID, expected) {
		return errors.AssignmentConflict(id.String())
	}
	if next != nil {
		if _, ok := m.employeeIdx[*next]; !ok {
			return errors.NotFound("employee", fmt.Sprint(*next))
		}
		v := *next
		s.EmployeeID = &v
	} else {
		s.EmployeeID = nil
	}
	return nil
}

// Revenues 查询某月营收样本
func (m *MemoryStore) Revenues(ctx context.Context, month model.MonthKey) ([]*model.MonthlyRevenue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var list []*model.MonthlyRevenue
	for _, r := range m.revenue {
		if r.Month == month {
			c := *r
			list = append(list, &c)
		}
	}
	return list, nil
}

// Departments 查询部门登记表
func (m *MemoryStore) Departments(ctx context.Context) ([]model.Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]model.Department, len(m.departments))
	copy(list, m.departments)
	return list, nil
}

// CreateDepartment 登记部门，已存在时忽略
func (m *MemoryStore) CreateDepartment(ctx context.Context, d model.Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.departments {
		if existing.Name == d.Name {
			return nil
		}
	}
	m.departments = append(m.departments, d)
	return nil
}

// CreateEmployee 创建员工，工号必须唯一
func (m *MemoryStore) CreateEmployee(ctx context.Context, e *model.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.employeeIdx[e.ID]; ok {
		return errors.InvalidInput("employee_id", fmt.Sprintf("%d 已存在", e.ID))
	}
	c := *e
	m.employees = append(m.employees, &c)
	m.employeeIdx[e.ID] = &c
	return nil
}

// CreateRevenue 添加营收样本
func (m *MemoryStore) CreateRevenue(ctx context.Context, r *model.MonthlyRevenue) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *r
	m.revenue = append(m.revenue, &c)
	return nil
}

// Import 写入初始数据
func (m *MemoryStore) Import(ctx context.Context, seed *Seed) error {
	return seed.apply(ctx, m)
}

// Health 内存存储始终可用
func (m *MemoryStore) Health(ctx context.Context) error {
	return nil
}

func sameAssignee(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
