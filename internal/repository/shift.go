package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/paiban/rescheduler/pkg/errors"
	"github.com/paiban/rescheduler/pkg/model"
)

const shiftColumns = `id, start_datetime, end_datetime, department, employee_id, hide_start, hide_end`

// ShiftRepository 班次仓储
type ShiftRepository struct {
	db DB
}

// NewShiftRepository 创建班次仓储
func NewShiftRepository(db DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// Create 创建班次
func (r *ShiftRepository) Create(ctx context.Context, shift *model.Shift) error {
	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}

	query := `INSERT INTO shifts (` + shiftColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		shift.ID, shift.Start, shift.End, shift.Department, nullInt64(shift.EmployeeID),
		shift.StartUndetermined, shift.EndUndetermined,
	)
	if err != nil {
		return fmt.Errorf("创建班次失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取班次，不存在时返回 NOT_FOUND
func (r *ShiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1`

	shift, err := r.scanShift(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("shift", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("查询班次失败: %w", err)
	}
	return shift, nil
}

// List 按过滤条件查询班次，按开始时间排序
func (r *ShiftRepository) List(ctx context.Context, filter ShiftFilter) ([]*model.Shift, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if !filter.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("start_datetime >= $%d", argIndex))
		args = append(args, filter.From)
		argIndex++
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("start_datetime < $%d", argIndex))
		args = append(args, filter.To)
		argIndex++
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", argIndex))
		args = append(args, filter.Department)
		argIndex++
	}
	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argIndex))
		args = append(args, *filter.EmployeeID)
	}

	query := `SELECT ` + shiftColumns + ` FROM shifts`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_datetime, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询班次列表失败: %w", err)
	}
	defer rows.Close()

	var shifts []*model.Shift
	for rows.Next() {
		shift, err := r.scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("扫描班次数据失败: %w", err)
		}
		shifts = append(shifts, shift)
	}

	return shifts, rows.Err()
}

// Delete 删除班次
func (r *ShiftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("删除班次失败: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("读取删除行数失败: %w", err)
	}
	if rows == 0 {
		return errors.NotFound("shift", id.String())
	}

	return nil
}

// SetAssignee 比较并设置班次员工：只有当前员工等于 expected 时才写入 next。
// 不一致时返回 ASSIGNMENT_CONFLICT
func (r *ShiftRepository) SetAssignee(ctx context.Context, id uuid.UUID, expected, next *int64) error {
	query := `
		UPDATE shifts SET employee_id = $2
		WHERE id = $1 AND employee_id IS NOT DISTINCT FROM $3
	`

	result, err := r.db.ExecContext(ctx, query, id, nullInt64(next), nullInt64(expected))
	if err != nil {
		return fmt.Errorf("更新班次员工失败: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("读取更新行数失败: %w", err)
	}
	if rows == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM shifts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("查询班次失败: %w", err)
	}
	if !exists {
		return errors.NotFound("shift", id.String())
	}
	return errors.AssignmentConflict(id.String())
}

// scanShift 扫描班次数据
func (r *ShiftRepository) scanShift(row Scanner) (*model.Shift, error) {
	shift := &model.Shift{}
	var employeeID sql.NullInt64
	err := row.Scan(
		&shift.ID, &shift.Start, &shift.End, &shift.Department, &employeeID,
		&shift.StartUndetermined, &shift.EndUndetermined,
	)
	if err != nil {
		return nil, err
	}
	if employeeID.Valid {
		id := employeeID.Int64
		shift.EmployeeID = &id
	}
	return shift, nil
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}
