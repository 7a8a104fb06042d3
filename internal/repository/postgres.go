package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/paiban/rescheduler/internal/database"
	"github.com/paiban/rescheduler/pkg/model"
)

// PostgresStore 基于 PostgreSQL 的存储
type PostgresStore struct {
	db        *database.DB
	employees *EmployeeRepository
	shifts    *ShiftRepository
	revenue   *RevenueRepository
}

// NewPostgresStore 创建 PostgreSQL 存储
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{
		db:        db,
		employees: NewEmployeeRepository(db),
		shifts:    NewShiftRepository(db),
		revenue:   NewRevenueRepository(db),
	}
}

// Employees 查询全部员工
func (s *PostgresStore) Employees(ctx context.Context) ([]*model.Employee, error) {
	return s.employees.List(ctx)
}

// Shifts 按条件查询班次
func (s *PostgresStore) Shifts(ctx context.Context, filter ShiftFilter) ([]*model.Shift, error) {
	return s.shifts.List(ctx, filter)
}

// Shift 查询单个班次
func (s *PostgresStore) Shift(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	return s.shifts.GetByID(ctx, id)
}

// CreateShift 创建班次
func (s *PostgresStore) CreateShift(ctx context.Context, shift *model.Shift) error {
	return s.shifts.Create(ctx, shift)
}

// DeleteShift 删除班次
func (s *PostgresStore) DeleteShift(ctx context.Context, id uuid.UUID) error {
	return s.shifts.Delete(ctx, id)
}

// SetAssignee 比较并设置班次员工
func (s *PostgresStore) SetAssignee(ctx context.Context, id uuid.UUID, expected, next *int64) error {
	return s.shifts.SetAssignee(ctx, id, expected, next)
}

// Revenues 查询某月营收样本
func (s *PostgresStore) Revenues(ctx context.Context, month model.MonthKey) ([]*model.MonthlyRevenue, error) {
	return s.revenue.ListByMonth(ctx, month)
}

// Departments 查询部门登记表
func (s *PostgresStore) Departments(ctx context.Context) ([]model.Department, error) {
	return s.revenue.ListDepartments(ctx)
}

// Import 在一个事务中写入初始数据
func (s *PostgresStore) Import(ctx context.Context, seed *Seed) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		return seed.apply(ctx, &pgSeeder{
			employees: NewEmployeeRepository(tx),
			shifts:    NewShiftRepository(tx),
			revenue:   NewRevenueRepository(tx),
		})
	})
}

// Health 检查数据库连接
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

type pgSeeder struct {
	employees *EmployeeRepository
	shifts    *ShiftRepository
	revenue   *RevenueRepository
}

func (p *pgSeeder) CreateDepartment(ctx context.Context, d model.Department) error {
	return p.revenue.CreateDepartment(ctx, d)
}

func (p *pgSeeder) CreateEmployee(ctx context.Context, e *model.Employee) error {
	if err := p.employees.Create(ctx, e); err != nil {
		return err
	}
	for _, v := range e.Vacations {
		if err := p.employees.CreateVacation(ctx, v); err != nil {
			return err
		}
	}
	for _, ru := range e.RepeatUnavailabilities {
		if err := p.employees.CreateRepeatUnavailability(ctx, ru); err != nil {
			return err
		}
	}
	return nil
}

func (p *pgSeeder) CreateShift(ctx context.Context, s *model.Shift) error {
	return p.shifts.Create(ctx, s)
}

func (p *pgSeeder) CreateRevenue(ctx context.Context, r *model.MonthlyRevenue) error {
	return p.revenue.Create(ctx, r)
}
