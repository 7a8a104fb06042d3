package model

import (
	"github.com/google/uuid"
	"github.com/paiban/rescheduler/pkg/errors"
	"github.com/shopspring/decimal"
)

// MonthlyRevenue 月度营收样本，同月多条取平均
type MonthlyRevenue struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Month      MonthKey        `json:"month" db:"-"`
	TotalSales decimal.Decimal `json:"total_sales" db:"total_sales"`
}

// NewMonthlyRevenue 创建月度营收样本
func NewMonthlyRevenue(month MonthKey, totalSales decimal.Decimal) (*MonthlyRevenue, error) {
	if month.Month < 1 || month.Month > 12 {
		return nil, errors.InvalidInput("month", "月份应在 1-12 之间")
	}
	if totalSales.IsNegative() {
		return nil, errors.InvalidInput("total_sales", "不能为负数")
	}
	return &MonthlyRevenue{
		ID:         uuid.New(),
		Month:      month,
		TotalSales: totalSales,
	}, nil
}

// Department 部门，仅作为员工和班次部门字段的取值表
type Department struct {
	Name string `json:"name" db:"name"`
}
