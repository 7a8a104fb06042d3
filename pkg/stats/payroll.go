package stats

import (
	"fmt"
	"sort"

	"github.com/paiban/rescheduler/pkg/model"
	"github.com/shopspring/decimal"
)

// NoDataLabel 缺少营收数据时的显示文本
const NoDataLabel = "No Data"

var hundred = decimal.NewFromInt(100)

// EmployeeLookup 按工号查找员工
type EmployeeLookup interface {
	Employee(id int64) (*model.Employee, bool)
}

// AverageRevenue 月均营收；Known 为 false 表示无数据
type AverageRevenue struct {
	Amount decimal.Decimal
	Known  bool
}

// NoData 无营收数据
var NoData = AverageRevenue{}

// Percentage 人工成本占营收的百分比
type Percentage struct {
	Value  int64
	NoData bool
}

// String 返回 "12%" 或 "No Data"
func (p Percentage) String() string {
	if p.NoData {
		return NoDataLabel
	}
	return fmt.Sprintf("%d%%", p.Value)
}

// MarshalText 以显示文本序列化
func (p Percentage) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ShiftCost 班次成本：时长按秒整除到整小时后乘以时薪，未分配为 0
func ShiftCost(s *model.Shift, employees EmployeeLookup) decimal.Decimal {
	if s.EmployeeID == nil {
		return decimal.Zero
	}
	emp, ok := employees.Employee(*s.EmployeeID)
	if !ok {
		return decimal.Zero
	}
	hours := int64(s.Duration().Seconds()) / 3600
	return decimal.NewFromInt(hours).Mul(emp.Wage)
}

// MonthlyAverageRevenue 计算年月匹配的营收样本平均值
// 没有样本时返回 NoData。样本平均值为 0 时同样按 NoData 处理，
// 否则百分比需要除以 0
func MonthlyAverageRevenue(samples []*model.MonthlyRevenue, month model.MonthKey) AverageRevenue {
	sum := decimal.Zero
	n := 0
	for _, r := range samples {
		if r.Month != month {
			continue
		}
		sum = sum.Add(r.TotalSales)
		n++
	}
	if n == 0 {
		return NoData
	}
	avg := sum.Div(decimal.NewFromInt(int64(n)))
	if avg.IsZero() {
		return NoData
	}
	return AverageRevenue{Amount: avg, Known: true}
}

// DepartmentPercentage 计算一组班次成本占月均营收的百分比，四舍五入到整数
func DepartmentPercentage(shifts []*model.Shift, employees EmployeeLookup, average AverageRevenue) Percentage {
	if !average.Known {
		return Percentage{NoData: true}
	}
	return percentOf(totalCost(shifts, employees), average)
}

func totalCost(shifts []*model.Shift, employees EmployeeLookup) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range shifts {
		sum = sum.Add(ShiftCost(s, employees))
	}
	return sum
}

func percentOf(cost decimal.Decimal, average AverageRevenue) Percentage {
	// Round 对正数即四舍五入
	return Percentage{Value: cost.Mul(hundred).Div(average.Amount).Round(0).IntPart()}
}

// DepartmentCost 部门成本
type DepartmentCost struct {
	Department string          `json:"department"`
	Cost       decimal.Decimal `json:"cost"`
	Percentage Percentage      `json:"percentage"`
}

// PayrollReport 月度人工成本报表
type PayrollReport struct {
	Month          model.MonthKey   `json:"month"`
	AverageRevenue *decimal.Decimal `json:"average_revenue,omitempty"`
	Departments    []DepartmentCost `json:"departments"`
	Total          Percentage       `json:"total"`
}

// Labels 返回部门名到显示文本的映射，含 "Total"
func (r *PayrollReport) Labels() map[string]string {
	labels := make(map[string]string, len(r.Departments)+1)
	for _, d := range r.Departments {
		labels[d.Department] = d.Percentage.String()
	}
	labels["Total"] = r.Total.String()
	return labels
}

// BuildPayrollReport 生成月度报表
// departments 为部门登记表；为空时取班次中出现的部门。
// 总百分比为各部门已取整百分比之和，而不是总成本再取整
func BuildPayrollReport(
	month model.MonthKey,
	departments []string,
	shifts []*model.Shift,
	employees EmployeeLookup,
	samples []*model.MonthlyRevenue,
) *PayrollReport {
	average := MonthlyAverageRevenue(samples, month)
	report := &PayrollReport{Month: month}
	if average.Known {
		amt := average.Amount
		report.AverageRevenue = &amt
	}

	byDep := make(map[string][]*model.Shift)
	for _, s := range shifts {
		if month.Contains(s.Start) {
			byDep[s.Department] = append(byDep[s.Department], s)
		}
	}
	// 班次中出现但未登记的部门按名称排在后面，成本不能漏算
	listed := make(map[string]bool, len(departments))
	for _, dep := range departments {
		listed[dep] = true
	}
	var extra []string
	for dep := range byDep {
		if !listed[dep] {
			extra = append(extra, dep)
		}
	}
	sort.Strings(extra)

	var total int64
	for _, dep := range append(append([]string(nil), departments...), extra...) {
		depShifts := byDep[dep]
		pct := DepartmentPercentage(depShifts, employees, average)
		report.Departments = append(report.Departments, DepartmentCost{
			Department: dep,
			Cost:       totalCost(depShifts, employees),
			Percentage: pct,
		})
		total += pct.Value
	}

	report.Total = Percentage{Value: total, NoData: !average.Known}
	return report
}
