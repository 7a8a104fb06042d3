package repository

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paiban/rescheduler/pkg/model"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// SeedTimeLayout 初始数据文件中的日期时间格式
const SeedTimeLayout = "2006-01-02T15:04"

// Seeder 可写入初始数据的存储
type Seeder interface {
	CreateDepartment(ctx context.Context, d model.Department) error
	CreateEmployee(ctx context.Context, e *model.Employee) error
	CreateShift(ctx context.Context, s *model.Shift) error
	CreateRevenue(ctx context.Context, r *model.MonthlyRevenue) error
}

// Seed 已校验的初始数据
type Seed struct {
	Departments []model.Department
	Employees   []*model.Employee
	Shifts      []*model.Shift
	Revenue     []*model.MonthlyRevenue
}

type seedFile struct {
	Departments []string       `yaml:"departments"`
	Employees   []seedEmployee `yaml:"employees"`
	Shifts      []seedShift    `yaml:"shifts"`
	Revenue     []seedRevenue  `yaml:"revenue"`
}

type seedEmployee struct {
	ID                   int64          `yaml:"id"`
	FirstName            string         `yaml:"first_name"`
	LastName             string         `yaml:"last_name"`
	PrimaryDepartment    string         `yaml:"primary_department"`
	Alternate1Department string         `yaml:"alternate1_department"`
	Alternate2Department string         `yaml:"alternate2_department"`
	Wage                 string         `yaml:"wage"`
	DesiredHours         int            `yaml:"desired_hours"`
	OvertimeHours        int            `yaml:"overtime_hours"`
	Vacations            []seedInterval `yaml:"vacations"`
	Repeats              []seedRepeat   `yaml:"repeat_unavailability"`
}

type seedInterval struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type seedRepeat struct {
	Weekday string `yaml:"weekday"`
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
}

type seedShift struct {
	ID                string `yaml:"id"`
	Start             string `yaml:"start"`
	End               string `yaml:"end"`
	Department        string `yaml:"department"`
	EmployeeID        *int64 `yaml:"employee_id"`
	StartUndetermined bool   `yaml:"start_undetermined"`
	EndUndetermined   bool   `yaml:"end_undetermined"`
}

type seedRevenue struct {
	Month      string `yaml:"month"`
	TotalSales string `yaml:"total_sales"`
}

// LoadSeedFile 读取并解析初始数据文件
func LoadSeedFile(path string, loc *time.Location) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取初始数据失败: %w", err)
	}
	return ParseSeed(data, loc)
}

// ParseSeed 解析 YAML 初始数据，时间按 loc 解释
func ParseSeed(data []byte, loc *time.Location) (*Seed, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("解析初始数据失败: %w", err)
	}

	seed := &Seed{}
	for _, name := range f.Departments {
		seed.Departments = append(seed.Departments, model.Department{Name: name})
	}

	for i, se := range f.Employees {
		emp, err := se.build(loc)
		if err != nil {
			return nil, fmt.Errorf("employees[%d]: %w", i, err)
		}
		seed.Employees = append(seed.Employees, emp)
	}

	for i, ss := range f.Shifts {
		shift, err := ss.build(loc)
		if err != nil {
			return nil, fmt.Errorf("shifts[%d]: %w", i, err)
		}
		seed.Shifts = append(seed.Shifts, shift)
	}

	for i, sr := range f.Revenue {
		month, err := model.ParseMonth(sr.Month)
		if err != nil {
			return nil, fmt.Errorf("revenue[%d]: %w", i, err)
		}
		sales, err := decimal.NewFromString(sr.TotalSales)
		if err != nil {
			return nil, fmt.Errorf("revenue[%d]: %w", i, err)
		}
		rev, err := model.NewMonthlyRevenue(month, sales)
		if err != nil {
			return nil, fmt.Errorf("revenue[%d]: %w", i, err)
		}
		seed.Revenue = append(seed.Revenue, rev)
	}

	return seed, nil
}

func (se seedEmployee) build(loc *time.Location) (*model.Employee, error) {
	emp := &model.Employee{
		ID:                   se.ID,
		FirstName:            se.FirstName,
		LastName:             se.LastName,
		PrimaryDepartment:    se.PrimaryDepartment,
		Alternate1Department: se.Alternate1Department,
		Alternate2Department: se.Alternate2Department,
		DesiredHours:         se.DesiredHours,
		OvertimeHours:        se.OvertimeHours,
	}
	if se.Wage != "" {
		wage, err := decimal.NewFromString(se.Wage)
		if err != nil {
			return nil, fmt.Errorf("wage: %w", err)
		}
		emp.Wage = wage
	}
	if err := emp.Validate(); err != nil {
		return nil, err
	}

	for _, iv := range se.Vacations {
		start, err := time.ParseInLocation(SeedTimeLayout, iv.Start, loc)
		if err != nil {
			return nil, err
		}
		end, err := time.ParseInLocation(SeedTimeLayout, iv.End, loc)
		if err != nil {
			return nil, err
		}
		v, err := model.NewVacation(emp.ID, start, end)
		if err != nil {
			return nil, err
		}
		emp.Vacations = append(emp.Vacations, v)
	}

	for _, rp := range se.Repeats {
		weekday, err := ParseWeekday(rp.Weekday)
		if err != nil {
			return nil, err
		}
		start, err := model.ParseClock(rp.Start)
		if err != nil {
			return nil, err
		}
		end, err := model.ParseClock(rp.End)
		if err != nil {
			return nil, err
		}
		ru, err := model.NewRepeatUnavailability(emp.ID, weekday, start, end)
		if err != nil {
			return nil, err
		}
		emp.RepeatUnavailabilities = append(emp.RepeatUnavailabilities, ru)
	}

	return emp, nil
}

func (ss seedShift) build(loc *time.Location) (*model.Shift, error) {
	start, err := time.ParseInLocation(SeedTimeLayout, ss.Start, loc)
	if err != nil {
		return nil, err
	}
	end, err := time.ParseInLocation(SeedTimeLayout, ss.End, loc)
	if err != nil {
		return nil, err
	}
	shift, err := model.NewShift(start, end, ss.Department)
	if err != nil {
		return nil, err
	}
	if ss.ID != "" {
		if shift.ID, err = uuid.Parse(ss.ID); err != nil {
			return nil, fmt.Errorf("id: %w", err)
		}
	}
	shift.EmployeeID = ss.EmployeeID
	shift.StartUndetermined = ss.StartUndetermined
	shift.EndUndetermined = ss.EndUndetermined
	return shift, nil
}

// ParseWeekday 解析星期，支持 0-6（周日为 0）或英文名称及缩写
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("星期 %d 不在 0-6 范围内", n)
		}
		return time.Weekday(n), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("无法识别的星期 %q", s)
}

// apply 按部门、员工、班次、营收的顺序写入
func (s *Seed) apply(ctx context.Context, dst Seeder) error {
	for _, d := range s.Departments {
		if err := dst.CreateDepartment(ctx, d); err != nil {
			return err
		}
	}
	for _, e := range s.Employees {
		if err := dst.CreateEmployee(ctx, e); err != nil {
			return err
		}
	}
	for _, sh := range s.Shifts {
		if err := dst.CreateShift(ctx, sh); err != nil {
			return err
		}
	}
	for _, r := range s.Revenue {
		if err := dst.CreateRevenue(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
