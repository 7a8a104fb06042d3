// Package export 将月度排班导出为 Excel 工作簿
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/paiban/rescheduler/pkg/model"
	"github.com/paiban/rescheduler/pkg/stats"
	"github.com/xuri/excelize/v2"
)

// 工作表名称
const (
	BlockedSheet = "Unavailable"
	PayrollSheet = "Payroll"
)

const (
	headerRow    = 2 // 星期表头
	firstWeekRow = 3 // 第一周的日期行，下一行为班次
	maxSheetName = 31
)

var weekdayHeaders = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Calendar 导出所需数据
type Calendar struct {
	Month       model.MonthKey
	Version     string
	Location    *time.Location
	Departments []string
	Roster      *model.Roster
	Payroll     *stats.PayrollReport
}

// BlockedWindow 员工不可排班的时间段
type BlockedWindow struct {
	EmployeeID int64
	Name       string
	Kind       string // vacation/repeat
	Range      model.TimeRange
	Note       string
}

// Write 生成工作簿并写入 w
func Write(w io.Writer, c *Calendar) error {
	f, err := Build(c)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("写入工作簿失败: %w", err)
	}
	return nil
}

// Build 生成工作簿：每个部门一张日历表，另有不可用时段表和人工成本表
func Build(c *Calendar) (*excelize.File, error) {
	if c.Location == nil {
		c.Location = time.UTC
	}

	f := excelize.NewFile()
	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	for _, dep := range c.Departments {
		if err := writeDepartment(f, c, dep, wrap, bold); err != nil {
			f.Close()
			return nil, fmt.Errorf("部门 %s: %w", dep, err)
		}
	}

	if err := writeBlocked(f, c, bold); err != nil {
		f.Close()
		return nil, err
	}
	if c.Payroll != nil {
		if err := writePayroll(f, c.Payroll, bold); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, err
	}
	if len(c.Departments) > 0 {
		if idx, err := f.GetSheetIndex(SheetName(c.Departments[0])); err == nil && idx >= 0 {
			f.SetActiveSheet(idx)
		}
	}
	return f, nil
}

func writeDepartment(f *excelize.File, c *Calendar, dep string, wrap, bold int) error {
	sheet := SheetName(dep)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := []interface{}{c.Month.Start(c.Location).Month().String(), c.Month.Year, dep}
	if c.Version != "" {
		header = append(header, "Version:  "+c.Version)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell(1, headerRow), &weekdayHeaders); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", cell(7, headerRow), bold); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "G", 22); err != nil {
		return err
	}

	days := DayLabels(c.Roster, c.Month, dep, c.Location)
	start := c.Month.Start(c.Location)
	end := c.Month.End(c.Location)
	offset := int(start.Weekday())
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		pos := offset + d.Day() - 1
		col := pos%7 + 1
		row := firstWeekRow + (pos/7)*2

		if err := f.SetCellValue(sheet, cell(col, row), d.Day()); err != nil {
			return err
		}
		body := cell(col, row+1)
		if err := f.SetCellValue(sheet, body, strings.Join(days[d.Day()], "\n")); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, body, body, wrap); err != nil {
			return err
		}
	}
	return nil
}

func writeBlocked(f *excelize.File, c *Calendar, bold int) error {
	if _, err := f.NewSheet(BlockedSheet); err != nil {
		return err
	}
	header := []string{"Employee ID", "Name", "Kind", "Start", "End", "Note"}
	if err := f.SetSheetRow(BlockedSheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(BlockedSheet, "A1", "F1", bold); err != nil {
		return err
	}

	windows, err := BlockedWindows(c.Roster, c.Month, c.Location)
	if err != nil {
		return err
	}
	const layout = "2006-01-02 15:04"
	for i, bw := range windows {
		row := []interface{}{
			bw.EmployeeID, bw.Name, bw.Kind,
			bw.Range.Start.Format(layout), bw.Range.End.Format(layout), bw.Note,
		}
		if err := f.SetSheetRow(BlockedSheet, cell(1, i+2), &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(BlockedSheet, "B", "F", 18)
}

func writePayroll(f *excelize.File, report *stats.PayrollReport, bold int) error {
	if _, err := f.NewSheet(PayrollSheet); err != nil {
		return err
	}
	header := []string{"Department", "Cost", "Percentage"}
	if err := f.SetSheetRow(PayrollSheet, "A1", &header); err != nil {
		return err
	}

	row := 2
	for _, d := range report.Departments {
		values := []interface{}{d.Department, d.Cost.StringFixed(2), d.Percentage.String()}
		if err := f.SetSheetRow(PayrollSheet, cell(1, row), &values); err != nil {
			return err
		}
		row++
	}
	total := []interface{}{"Total", "", report.Total.String()}
	if err := f.SetSheetRow(PayrollSheet, cell(1, row), &total); err != nil {
		return err
	}

	avg := stats.NoDataLabel
	if report.AverageRevenue != nil {
		avg = report.AverageRevenue.StringFixed(2)
	}
	avgRow := []interface{}{"Average Revenue", avg}
	if err := f.SetSheetRow(PayrollSheet, cell(1, row+2), &avgRow); err != nil {
		return err
	}

	if err := f.SetCellStyle(PayrollSheet, "A1", "C1", bold); err != nil {
		return err
	}
	return f.SetCellStyle(PayrollSheet, cell(1, row), cell(3, row), bold)
}

// DayLabels 返回部门某月每天（按日号）的班次显示文本，按开始时间排序
func DayLabels(roster *model.Roster, month model.MonthKey, department string, loc *time.Location) map[int][]string {
	days := make(map[int][]string)
	for _, s := range roster.InMonth(month) {
		if s.Department != department {
			continue
		}
		var emp *model.Employee
		if s.EmployeeID != nil {
			emp, _ = roster.Employee(*s.EmployeeID)
		}
		day := s.Start.In(loc).Day()
		days[day] = append(days[day], model.ShiftLabel(s, emp))
	}
	return days
}

// BlockedWindows 列出某月内所有员工的休假和展开后的每周固定不可用时段
func BlockedWindows(roster *model.Roster, month model.MonthKey, loc *time.Location) ([]BlockedWindow, error) {
	from, to := month.Start(loc), month.End(loc)
	var windows []BlockedWindow

	for _, emp := range roster.Employees() {
		for _, v := range emp.Vacations {
			if !model.Overlaps(v.Start, v.End, from, to) {
				continue
			}
			windows = append(windows, BlockedWindow{
				EmployeeID: emp.ID,
				Name:       emp.FullName(),
				Kind:       "vacation",
				Range:      v.Range(),
			})
		}
		for _, ru := range emp.RepeatUnavailabilities {
			occ, err := ru.Occurrences(from, to)
			if err != nil {
				return nil, fmt.Errorf("展开员工 %d 的固定不可用时段失败: %w", emp.ID, err)
			}
			for _, tr := range occ {
				windows = append(windows, BlockedWindow{
					EmployeeID: emp.ID,
					Name:       emp.FullName(),
					Kind:       "repeat",
					Range:      tr,
					Note:       ru.String(),
				})
			}
		}
	}

	sort.SliceStable(windows, func(i, j int) bool {
		if !windows[i].Range.Start.Equal(windows[j].Range.Start) {
			return windows[i].Range.Start.Before(windows[j].Range.Start)
		}
		return windows[i].EmployeeID < windows[j].EmployeeID
	})
	return windows, nil
}

// SheetName 生成合法的工作表名称
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	if name == "" {
		name = "_"
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
