// Package eligibility 对候选员工排名并执行班次分配
package eligibility

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/paiban/rescheduler/pkg/model"
	"github.com/paiban/rescheduler/pkg/stats"
	"github.com/paiban/rescheduler/pkg/validator"
)

// NotAssigned 班次未分配时 AssignedIndex 的返回值
const NotAssigned = -1

// Candidate 排名中的一名员工
type Candidate struct {
	EmployeeID int64          `json:"employee_id"`
	FirstName  string         `json:"first_name"`
	Tier       validator.Tier `json:"tier"`
	Hours      float64        `json:"hours"`
	Primary    bool           `json:"primary"`
	Label      string         `json:"label"`
}

// Ranking 某班次的候选员工排名
type Ranking struct {
	Department string      `json:"department"`
	ShiftID    uuid.UUID   `json:"shift_id"`
	Candidates []Candidate `json:"candidates"`
}

// Len 候选人数
func (r *Ranking) Len() int {
	return len(r.Candidates)
}

// Labels 返回与排名平行的显示文本
func (r *Ranking) Labels() []string {
	labels := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		labels[i] = c.Label
	}
	return labels
}

// EmployeeIDs 返回与排名平行的工号列表
func (r *Ranking) EmployeeIDs() []int64 {
	ids := make([]int64, len(r.Candidates))
	for i, c := range r.Candidates {
		ids[i] = c.EmployeeID
	}
	return ids
}

// IndexOf 返回员工在排名中的位置，不存在时返回 NotAssigned
func (r *Ranking) IndexOf(employeeID int64) int {
	for i, c := range r.Candidates {
		if c.EmployeeID == employeeID {
			return i
		}
	}
	return NotAssigned
}

// AssignedIndex 返回班次当前员工在排名中的位置
func AssignedIndex(r *Ranking, shift *model.Shift) int {
	if shift.EmployeeID == nil {
		return NotAssigned
	}
	return r.IndexOf(*shift.EmployeeID)
}

// Label 等级为可用时只显示名字，否则加上等级标记，如 "(U) Bob"
func Label(tier validator.Tier, firstName string) string {
	if tier == validator.TierAvailable {
		return firstName
	}
	return fmt.Sprintf("(%s) %s", tier.Flag(), firstName)
}

// Ranker 候选员工排名器
type Ranker struct {
	detector *validator.ConflictDetector
}

// NewRanker 创建排名器
func NewRanker(detector *validator.ConflictDetector) *Ranker {
	if detector == nil {
		detector = validator.NewConflictDetector()
	}
	return &Ranker{detector: detector}
}

// Rank 对部门内候选员工排名：
// 按等级分组，组内按当月工时升序，再把主部门员工稳定地提到组前
func (rk *Ranker) Rank(roster *model.Roster, department string, shift *model.Shift) *Ranking {
	buckets := make(map[validator.Tier][]Candidate, len(validator.Tiers))
	month := shift.Month()

	for _, emp := range roster.Employees() {
		if !emp.InDepartment(department) {
			continue
		}
		assigned := roster.ShiftsOf(emp.ID)
		tier := rk.detector.Classify(emp, assigned, shift)
		buckets[tier] = append(buckets[tier], Candidate{
			EmployeeID: emp.ID,
			FirstName:  emp.FirstName,
			Tier:       tier,
			Hours:      stats.MonthlyHours(assigned, month, shift.ID),
			Primary:    emp.IsPrimary(department),
			Label:      Label(tier, emp.FirstName),
		})
	}

	ranking := &Ranking{
		Department: department,
		ShiftID:    shift.ID,
		Candidates: []Candidate{},
	}
	for _, tier := range validator.Tiers {
		bucket := buckets[tier]
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Hours < bucket[j].Hours
		})
		ranking.Candidates = append(ranking.Candidates, promotePrimary(bucket)...)
	}
	return ranking
}

// promotePrimary 稳定划分：主部门员工在前，两部分各自保持原顺序
func promotePrimary(bucket []Candidate) []Candidate {
	out := make([]Candidate, 0, len(bucket))
	for _, c := range bucket {
		if c.Primary {
			out = append(out, c)
		}
	}
	for _, c := range bucket {
		if !c.Primary {
			out = append(out, c)
		}
	}
	return out
}
