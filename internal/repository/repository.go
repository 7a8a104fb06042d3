// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"time"
)

// ShiftFilter 班次查询过滤器
type ShiftFilter struct {
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Department string    `json:"department,omitempty"`
	EmployeeID *int64    `json:"employee_id,omitempty"`
}

// Between 返回开始时间在 [from, to) 内的过滤器
func Between(from, to time.Time) ShiftFilter {
	return ShiftFilter{From: from, To: to}
}

// WithDepartment 设置部门过滤
func (f ShiftFilter) WithDepartment(dep string) ShiftFilter {
	f.Department = dep
	return f
}

// WithEmployee 设置员工过滤
func (f ShiftFilter) WithEmployee(id int64) ShiftFilter {
	f.EmployeeID = &id
	return f
}

// DB 数据库接口
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Scanner 行扫描接口
type Scanner interface {
	Scan(dest ...interface{}) error
}
