package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paiban/rescheduler/pkg/model"
)

// RevenueRepository 月度营收与部门仓储
type RevenueRepository struct {
	db DB
}

// NewRevenueRepository 创建营收仓储
func NewRevenueRepository(db DB) *RevenueRepository {
	return &RevenueRepository{db: db}
}

// Create 添加营收样本，月份存为当月第一天
func (r *RevenueRepository) Create(ctx context.Context, rev *model.MonthlyRevenue) error {
	if rev.ID == uuid.Nil {
		rev.ID = uuid.New()
	}
	query := `INSERT INTO monthly_revenue (id, month_and_year, total_sales) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, rev.ID, rev.Month.Start(time.UTC), rev.TotalSales); err != nil {
		return fmt.Errorf("创建营收记录失败: %w", err)
	}
	return nil
}

// ListByMonth 查询指定年月的营收样本
func (r *RevenueRepository) ListByMonth(ctx context.Context, month model.MonthKey) ([]*model.MonthlyRevenue, error) {
	query := `
		SELECT id, month_and_year, total_sales
		FROM monthly_revenue
		WHERE month_and_year >= $1 AND month_and_year < $2
		ORDER BY month_and_year, id
	`

	rows, err := r.db.QueryContext(ctx, query, month.Start(time.UTC), month.End(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("查询营收记录失败: %w", err)
	}
	defer rows.Close()

	var list []*model.MonthlyRevenue
	for rows.Next() {
		rev := &model.MonthlyRevenue{}
		var day time.Time
		if err := rows.Scan(&rev.ID, &day, &rev.TotalSales); err != nil {
			return nil, fmt.Errorf("扫描营收数据失败: %w", err)
		}
		rev.Month = model.MonthOf(day)
		list = append(list, rev)
	}
	return list, rows.Err()
}

// CreateDepartment 登记部门，已存在时忽略
func (r *RevenueRepository) CreateDepartment(ctx context.Context, dep model.Department) error {
	query := `INSERT INTO departments (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, dep.Name); err != nil {
		return fmt.Errorf("创建部门失败: %w", err)
	}
	return nil
}

// ListDepartments 查询部门登记表
func (r *RevenueRepository) ListDepartments(ctx context.Context) ([]model.Department, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM departments ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("查询部门失败: %w", err)
	}
	defer rows.Close()

	var list []model.Department
	for rows.Next() {
		var d model.Department
		if err := rows.Scan(&d.Name); err != nil {
			return nil, fmt.Errorf("扫描部门数据失败: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}
