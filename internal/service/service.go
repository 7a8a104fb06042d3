// Package service 编排调班操作：加载快照、排名、分配写回、成本重算
package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/paiban/rescheduler/internal/export"
	"github.com/paiban/rescheduler/internal/metrics"
	"github.com/paiban/rescheduler/internal/repository"
	"github.com/paiban/rescheduler/pkg/eligibility"
	"github.com/paiban/rescheduler/pkg/errors"
	"github.com/paiban/rescheduler/pkg/logger"
	"github.com/paiban/rescheduler/pkg/model"
	"github.com/paiban/rescheduler/pkg/stats"
	"github.com/paiban/rescheduler/pkg/validator"
)

// Store 持久化协作方，由 PostgresStore 和 MemoryStore 实现
type Store interface {
	Employees(ctx context.Context) ([]*model.Employee, error)
	Shifts(ctx context.Context, filter repository.ShiftFilter) ([]*model.Shift, error)
	Shift(ctx context.Context, id uuid.UUID) (*model.Shift, error)
	CreateShift(ctx context.Context, shift *model.Shift) error
	DeleteShift(ctx context.Context, id uuid.UUID) error
	SetAssignee(ctx context.Context, id uuid.UUID, expected, next *int64) error
	Revenues(ctx context.Context, month model.MonthKey) ([]*model.MonthlyRevenue, error)
	Departments(ctx context.Context) ([]model.Department, error)
	Health(ctx context.Context) error
}

var (
	_ Store = (*repository.MemoryStore)(nil)
	_ Store = (*repository.PostgresStore)(nil)
)

// Options 服务选项
type Options struct {
	Location           *time.Location
	DefaultDepartments []string
	Logger             *logger.EngineLogger
}

// Service 调班服务
type Service struct {
	store    Store
	detector *validator.ConflictDetector
	ranker   *eligibility.Ranker
	log      *logger.EngineLogger
	loc      *time.Location
	defaults []string
}

// New 创建调班服务
func New(store Store, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewEngineLogger()
	}
	detector := validator.NewConflictDetector()
	return &Service{
		store:    store,
		detector: detector,
		ranker:   eligibility.NewRanker(detector),
		log:      opts.Logger,
		loc:      opts.Location,
		defaults: opts.DefaultDepartments,
	}
}

// Location 返回服务使用的时区
func (s *Service) Location() *time.Location {
	return s.loc
}

// Health 检查存储可用性
func (s *Service) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}

// Eligibles 候选员工列表，各切片与排名平行
type Eligibles struct {
	ShiftID       uuid.UUID               `json:"shift_id"`
	Department    string                  `json:"department"`
	ShiftLabel    string                  `json:"shift_label"`
	Labels        []string                `json:"labels"`
	EmployeeIDs   []int64                 `json:"employee_ids"`
	Tiers         []validator.Tier        `json:"tiers"`
	AssignedIndex int                     `json:"assigned_index"`
	Candidates    []eligibility.Candidate `json:"candidates"`
}

// Selection 分配目标，Index 与 EmployeeID 二选一
type Selection struct {
	Index      *int   `json:"index,omitempty"`
	EmployeeID *int64 `json:"employee_id,omitempty"`
}

// AssignResult 分配结果，发生变化时附带重算后的成本
type AssignResult struct {
	eligibility.Outcome
	Index int                  `json:"index"`
	Costs *stats.PayrollReport `json:"costs,omitempty"`
}

// ShiftInput 新建班次参数
type ShiftInput struct {
	Start             time.Time
	End               time.Time
	Department        string
	StartUndetermined bool
	EndUndetermined   bool
}

// snapshot 加载某月名单快照。班次范围覆盖该月涉及的所有整周，
// 并向前多取一天以包含跨夜班次
func (s *Service) snapshot(ctx context.Context, month model.MonthKey) (*model.Roster, error) {
	employees, err := s.store.Employees(ctx)
	if err != nil {
		return nil, storeError("查询员工", err)
	}

	from := model.WeekStart(month.Start(s.loc)).AddDate(0, 0, -1)
	last := month.End(s.loc).AddDate(0, 0, -1)
	to := model.WeekStart(last).AddDate(0, 0, 7)

	shifts, err := s.store.Shifts(ctx, repository.Between(from, to))
	if err != nil {
		return nil, storeError("查询班次", err)
	}

	roster := model.NewRoster()
	for _, e := range employees {
		if err := roster.AddEmployee(e); err != nil {
			return nil, err
		}
	}
	for _, sh := range shifts {
		sh.Start, sh.End = sh.Start.In(s.loc), sh.End.In(s.loc)
		if err := roster.Add(sh); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "构建名单快照失败")
		}
	}
	return roster, nil
}

// loadShift 查询班次并加载其所在月份的快照，返回快照中的班次
func (s *Service) loadShift(ctx context.Context, id uuid.UUID) (*model.Roster, *model.Shift, error) {
	stored, err := s.store.Shift(ctx, id)
	if err != nil {
		return nil, nil, storeError("查询班次", err)
	}
	roster, err := s.snapshot(ctx, model.MonthOf(stored.Start.In(s.loc)))
	if err != nil {
		return nil, nil, err
	}
	shift, ok := roster.Get(id)
	if !ok {
		return nil, nil, errors.NotFound("shift", id.String())
	}
	return roster, shift, nil
}

func (s *Service) rank(ctx context.Context, roster *model.Roster, shift *model.Shift) *eligibility.Ranking {
	started := time.Now()
	ranking := s.ranker.Rank(roster, shift.Department, shift)
	elapsed := time.Since(started)

	metrics.RecordRanking(shift.Department, ranking.Len(), elapsed)
	s.log.Ranked(ctx, shift.Department, shift.ID.String(), ranking.Len(), elapsed)
	return ranking
}

// Eligibles 返回班次的候选员工排名及当前员工位置
func (s *Service) Eligibles(ctx context.Context, shiftID uuid.UUID) (*Eligibles, error) {
	roster, shift, err := s.loadShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	ranking := s.rank(ctx, roster, shift)
	return newEligibles(roster, shift, ranking), nil
}

func newEligibles(roster *model.Roster, shift *model.Shift, ranking *eligibility.Ranking) *Eligibles {
	var assignee *model.Employee
	if shift.EmployeeID != nil {
		assignee, _ = roster.Employee(*shift.EmployeeID)
	}
	tiers := make([]validator.Tier, ranking.Len())
	for i, c := range ranking.Candidates {
		tiers[i] = c.Tier
	}
	return &Eligibles{
		ShiftID:       shift.ID,
		Department:    shift.Department,
		ShiftLabel:    model.ShiftLabel(shift, assignee),
		Labels:        ranking.Labels(),
		EmployeeIDs:   ranking.EmployeeIDs(),
		Tiers:         tiers,
		AssignedIndex: eligibility.AssignedIndex(ranking, shift),
		Candidates:    ranking.Candidates,
	}
}

// Assign 把班次分配给排名中的员工。
// 排名位置越界返回 INVALID_INPUT，指定的员工不在排名中返回 NOT_ELIGIBLE，
// 快照之后存储中的员工已被他人修改时返回 ASSIGNMENT_CONFLICT
func (s *Service) Assign(ctx context.Context, shiftID uuid.UUID, sel Selection) (*AssignResult, error) {
	if (sel.Index == nil) == (sel.EmployeeID == nil) {
		return nil, errors.InvalidInput("index", "index 与 employee_id 必须且只能指定一个")
	}

	roster, shift, err := s.loadShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	ranking := s.rank(ctx, roster, shift)

	var index int
	if sel.EmployeeID != nil {
		index = ranking.IndexOf(*sel.EmployeeID)
		if index == eligibility.NotAssigned {
			return nil, errors.NotEligible(*sel.EmployeeID, shift.Department)
		}
	} else {
		index = *sel.Index
		if index < 0 || index >= ranking.Len() {
			return nil, errors.InvalidInput("index", "超出候选员工范围").
				WithField("candidates", ranking.Len())
		}
	}

	return s.apply(ctx, roster, shift, func(a *eligibility.Assigner) (eligibility.Outcome, error) {
		return a.Assign(ranking, index, shift)
	}, index)
}

// Unassign 清除班次的员工
func (s *Service) Unassign(ctx context.Context, shiftID uuid.UUID) (*AssignResult, error) {
	roster, shift, err := s.loadShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, roster, shift, func(a *eligibility.Assigner) (eligibility.Outcome, error) {
		return a.Unassign(shift)
	}, eligibility.NotAssigned)
}

// apply 在快照上执行操作，发生变化时写回存储并重算该月成本
func (s *Service) apply(
	ctx context.Context,
	roster *model.Roster,
	shift *model.Shift,
	op func(*eligibility.Assigner) (eligibility.Outcome, error),
	index int,
) (*AssignResult, error) {
	var writeErr error
	assigner := eligibility.NewAssigner(roster, func(sh *model.Shift, out eligibility.Outcome) {
		writeErr = s.store.SetAssignee(ctx, sh.ID, out.Previous, out.Current)
	})

	out, err := op(assigner)
	if err != nil {
		return nil, err
	}
	if writeErr != nil {
		if errors.Is(writeErr, errors.CodeAssignmentConflict) {
			metrics.RecordAssignmentConflict()
		}
		return nil, storeError("更新班次员工", writeErr)
	}

	metrics.RecordAssignment(out.Changed)
	s.log.Assigned(ctx, shift.ID.String(), out.Previous, out.Current, out.Changed)

	result := &AssignResult{Outcome: out, Index: index}
	if !out.Changed {
		return result, nil
	}
	result.Costs, err = s.payroll(ctx, roster, shift.Month())
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateShift 创建未分配的班次，返回班次与重算后的成本
func (s *Service) CreateShift(ctx context.Context, in ShiftInput) (*model.Shift, *stats.PayrollReport, error) {
	shift, err := model.NewShift(in.Start.In(s.loc), in.End.In(s.loc), in.Department)
	if err != nil {
		return nil, nil, err
	}
	shift.StartUndetermined = in.StartUndetermined
	shift.EndUndetermined = in.EndUndetermined

	if err := s.store.CreateShift(ctx, shift); err != nil {
		return nil, nil, storeError("创建班次", err)
	}

	costs, err := s.Costs(ctx, shift.Month())
	if err != nil {
		return nil, nil, err
	}
	return shift, costs, nil
}

// RemoveShift 删除班次并重算所在月份成本
func (s *Service) RemoveShift(ctx context.Context, shiftID uuid.UUID) (*stats.PayrollReport, error) {
	shift, err := s.store.Shift(ctx, shiftID)
	if err != nil {
		return nil, storeError("查询班次", err)
	}
	if err := s.store.DeleteShift(ctx, shiftID); err != nil {
		return nil, storeError("删除班次", err)
	}
	return s.Costs(ctx, model.MonthOf(shift.Start.In(s.loc)))
}

// Costs 计算某月各部门人工成本占平均营收的百分比
func (s *Service) Costs(ctx context.Context, month model.MonthKey) (*stats.PayrollReport, error) {
	roster, err := s.snapshot(ctx, month)
	if err != nil {
		return nil, err
	}
	return s.payroll(ctx, roster, month)
}

func (s *Service) payroll(ctx context.Context, roster *model.Roster, month model.MonthKey) (*stats.PayrollReport, error) {
	samples, err := s.store.Revenues(ctx, month)
	if err != nil {
		return nil, storeError("查询营收", err)
	}
	departments, err := s.departments(ctx)
	if err != nil {
		return nil, err
	}

	report := stats.BuildPayrollReport(month, departments, roster.InMonth(month), roster, samples)

	metrics.RecordPayroll(month.String(), report.Total.Value, report.Total.NoData)
	s.log.CostsRecomputed(ctx, month.String(), report.Total.NoData, report.Total.String())
	return report, nil
}

// departments 先列登记表中的部门，再补上配置的默认部门
// 只在班次中出现的部门由报表自行追加
func (s *Service) departments(ctx context.Context) ([]string, error) {
	registered, err := s.store.Departments(ctx)
	if err != nil {
		return nil, storeError("查询部门", err)
	}
	seen := make(map[string]bool, len(registered)+len(s.defaults))
	names := make([]string, 0, len(registered)+len(s.defaults))
	for _, d := range registered {
		if !seen[d.Name] {
			seen[d.Name] = true
			names = append(names, d.Name)
		}
	}
	for _, name := range s.defaults {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}

// Audit 检查某月已分配班次的隐患
func (s *Service) Audit(ctx context.Context, month model.MonthKey) ([]validator.Conflict, error) {
	roster, err := s.snapshot(ctx, month)
	if err != nil {
		return nil, err
	}
	conflicts := s.detector.Audit(roster, month)
	if conflicts == nil {
		conflicts = []validator.Conflict{}
	}

	metrics.SetHazards(month.String(), len(conflicts))
	s.log.HazardsFound(ctx, month.String(), len(conflicts))
	return conflicts, nil
}

// Workload 某月员工工作量
func (s *Service) Workload(ctx context.Context, month model.MonthKey) ([]stats.EmployeeWorkload, error) {
	roster, err := s.snapshot(ctx, month)
	if err != nil {
		return nil, err
	}
	return stats.Workload(roster, month), nil
}

// Coverage 某月班次覆盖情况
func (s *Service) Coverage(ctx context.Context, month model.MonthKey) (*stats.CoverageReport, error) {
	roster, err := s.snapshot(ctx, month)
	if err != nil {
		return nil, err
	}
	departments, err := s.departments(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Coverage(roster, month, departments), nil
}

// Export 导出某月排班日历、不可用时段和人工成本
func (s *Service) Export(ctx context.Context, month model.MonthKey, version string, w io.Writer) error {
	roster, err := s.snapshot(ctx, month)
	if err != nil {
		return err
	}
	report, err := s.payroll(ctx, roster, month)
	if err != nil {
		return err
	}
	departments := make([]string, 0, len(report.Departments))
	for _, d := range report.Departments {
		departments = append(departments, d.Department)
	}

	err = export.Write(w, &export.Calendar{
		Month:       month,
		Version:     version,
		Location:    s.loc,
		Departments: departments,
		Roster:      roster,
		Payroll:     report,
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "导出工作簿失败")
	}
	return nil
}

// storeError 保留存储返回的业务错误，其余包装为数据库错误
func storeError(op string, err error) error {
	if errors.GetCode(err) != errors.CodeUnknown {
		return err
	}
	return errors.Database(op, err)
}
