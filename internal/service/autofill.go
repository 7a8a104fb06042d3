package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/paiban/rescheduler/internal/metrics"
	"github.com/paiban/rescheduler/pkg/eligibility"
	"github.com/paiban/rescheduler/pkg/errors"
	"github.com/paiban/rescheduler/pkg/model"
	"github.com/paiban/rescheduler/pkg/stats"
	"github.com/paiban/rescheduler/pkg/validator"
)

// Filled 自动填充的一条分配
type Filled struct {
	ShiftID    uuid.UUID      `json:"shift_id"`
	Department string         `json:"department"`
	EmployeeID int64          `json:"employee_id"`
	Tier       validator.Tier `json:"tier"`
	Label      string         `json:"label"`
}

// AutofillResult 自动填充结果
type AutofillResult struct {
	Filled  []Filled             `json:"filled"`
	Skipped int                  `json:"skipped"` // 没有候选员工的空班次
	Costs   *stats.PayrollReport `json:"costs,omitempty"`
}

// Autofill 按时间顺序把某月每个空班次分配给排名第一的员工。
// department 为空时处理所有部门。每次分配后重新排名，工时变化会影响后续班次
func (s *Service) Autofill(ctx context.Context, month model.MonthKey, department string) (*AutofillResult, error) {
	roster, err := s.snapshot(ctx, month)
	if err != nil {
		return nil, err
	}

	var writeErr error
	assigner := eligibility.NewAssigner(roster, func(sh *model.Shift, out eligibility.Outcome) {
		writeErr = s.store.SetAssignee(ctx, sh.ID, out.Previous, out.Current)
	})

	result := &AutofillResult{Filled: []Filled{}}
	for _, shift := range roster.InMonth(month) {
		if shift.IsAssigned() || (department != "" && shift.Department != department) {
			continue
		}
		ranking := s.rank(ctx, roster, shift)
		if ranking.Len() == 0 {
			result.Skipped++
			continue
		}

		out, err := assigner.Assign(ranking, 0, shift)
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
		top := ranking.Candidates[0]
		result.Filled = append(result.Filled, Filled{
			ShiftID:    shift.ID,
			Department: shift.Department,
			EmployeeID: top.EmployeeID,
			Tier:       top.Tier,
			Label:      out.Label,
		})
	}

	if len(result.Filled) > 0 {
		if result.Costs, err = s.payroll(ctx, roster, month); err != nil {
			return nil, err
		}
	}
	return result, nil
}
