package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paiban/rescheduler/pkg/model"
)

// EmployeeRepository 员工仓储（含休假和每周不可用时段）
type EmployeeRepository struct {
	db DB
}

// NewEmployeeRepository 创建员工仓储
func NewEmployeeRepository(db DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create 创建员工，工号由调用方指定
func (r *EmployeeRepository) Create(ctx context.Context, emp *model.Employee) error {
	query := `
		INSERT INTO employees (
			employee_id, first_name, last_name, primary_department,
			alternate1_department, alternate2_department, wage, desired_hours, overtime,
			medical, workmans_comp, social_security
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		emp.ID, emp.FirstName, emp.LastName, emp.PrimaryDepartment,
		emp.Alternate1Department, emp.Alternate2Department, emp.Wage, emp.DesiredHours, emp.OvertimeHours,
		emp.Medical, emp.WorkmansComp, emp.SocialSecurity,
	)
	if err != nil {
		return fmt.Errorf("创建员工失败: %w", err)
	}

	return nil
}

// List 查询全部员工并填充休假与不可用时段，按工号排序
func (r *EmployeeRepository) List(ctx context.Context) ([]*model.Employee, error) {
	query := `
		SELECT employee_id, first_name, last_name, primary_department,
			alternate1_department, alternate2_department, wage, desired_hours, overtime,
			medical, workmans_comp, social_security
		FROM employees
		WHERE deleted_at IS NULL
		ORDER BY employee_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询员工列表失败: %w", err)
	}
	defer rows.Close()

	var employees []*model.Employee
	byID := make(map[int64]*model.Employee)
	for rows.Next() {
		emp, err := r.scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
		byID[emp.ID] = emp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历员工列表失败: %w", err)
	}

	if err := r.attachVacations(ctx, byID); err != nil {
		return nil, err
	}
	if err := r.attachRepeats(ctx, byID); err != nil {
		return nil, err
	}

	return employees, nil
}

// scanEmployee 扫描员工数据
func (r *EmployeeRepository) scanEmployee(row Scanner) (*model.Employee, error) {
	emp := &model.Employee{}
	err := row.Scan(
		&emp.ID, &emp.FirstName, &emp.LastName, &emp.PrimaryDepartment,
		&emp.Alternate1Department, &emp.Alternate2Department, &emp.Wage, &emp.DesiredHours, &emp.OvertimeHours,
		&emp.Medical, &emp.WorkmansComp, &emp.SocialSecurity,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描员工数据失败: %w", err)
	}
	return emp, nil
}

// CreateVacation 创建休假
func (r *EmployeeRepository) CreateVacation(ctx context.Context, v *model.Vacation) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	query := `INSERT INTO vacations (id, employee_id, start_datetime, end_datetime) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, v.ID, v.EmployeeID, v.Start, v.End); err != nil {
		return fmt.Errorf("创建休假失败: %w", err)
	}
	return nil
}

// CreateRepeatUnavailability 创建每周不可用时段
func (r *EmployeeRepository) CreateRepeatUnavailability(ctx context.Context, ru *model.RepeatUnavailability) error {
	if ru.ID == uuid.Nil {
		ru.ID = uuid.New()
	}
	query := `
		INSERT INTO repeat_unavailability (id, employee_id, weekday, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		ru.ID, ru.EmployeeID, int(ru.Weekday), ru.Start.String()+":00", ru.End.String()+":00",
	)
	if err != nil {
		return fmt.Errorf("创建不可用时段失败: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) attachVacations(ctx context.Context, byID map[int64]*model.Employee) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, employee_id, start_datetime, end_datetime
		FROM vacations
		ORDER BY start_datetime
	`)
	if err != nil {
		return fmt.Errorf("查询休假失败: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		v := &model.Vacation{}
		if err := rows.Scan(&v.ID, &v.EmployeeID, &v.Start, &v.End); err != nil {
			return fmt.Errorf("扫描休假数据失败: %w", err)
		}
		if emp, ok := byID[v.EmployeeID]; ok {
			emp.Vacations = append(emp.Vacations, v)
		}
	}
	return rows.Err()
}

func (r *EmployeeRepository) attachRepeats(ctx context.Context, byID map[int64]*model.Employee) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, employee_id, weekday, start_time, end_time
		FROM repeat_unavailability
		ORDER BY weekday, start_time
	`)
	if err != nil {
		return fmt.Errorf("查询不可用时段失败: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ru := &model.RepeatUnavailability{}
		var weekday int
		// lib/pq 将 TIME 列解码为 0000-01-01 的 time.Time
		var start, end time.Time
		if err := rows.Scan(&ru.ID, &ru.EmployeeID, &weekday, &start, &end); err != nil {
			return fmt.Errorf("扫描不可用时段失败: %w", err)
		}
		ru.Weekday = time.Weekday(weekday)
		ru.Start = model.ClockOf(start)
		ru.End = model.ClockOf(end)
		if emp, ok := byID[ru.EmployeeID]; ok {
			emp.RepeatUnavailabilities = append(emp.RepeatUnavailabilities, ru)
		}
	}
	return rows.Err()
}
