package handler

import (
	"net/http"

	"github.com/paiban/rescheduler/internal/service"
	"github.com/paiban/rescheduler/pkg/model"
	"github.com/paiban/rescheduler/pkg/stats"
)

// CreateShiftRequest 新建班次请求
type CreateShiftRequest struct {
	Start             string `json:"start" validate:"required"`
	End               string `json:"end" validate:"required"`
	Department        string `json:"department" validate:"required,max=64"`
	StartUndetermined bool   `json:"start_undetermined"`
	EndUndetermined   bool   `json:"end_undetermined"`
}

// ShiftResponse 班次变更响应，附带该月重算后的成本
type ShiftResponse struct {
	Shift *model.Shift         `json:"shift,omitempty"`
	Costs *stats.PayrollReport `json:"costs"`
}

// AssignRequest 分配请求，index 与 employee_id 二选一，由服务层校验
type AssignRequest struct {
	Index      *int   `json:"index"`
	EmployeeID *int64 `json:"employee_id"`
}

// CreateShift 创建空班次
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req CreateShiftRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	loc := h.svc.Location()
	start, err := parseTime("start", req.Start, loc)
	if err != nil {
		respondError(w, r, err)
		return
	}
	end, err := parseTime("end", req.End, loc)
	if err != nil {
		respondError(w, r, err)
		return
	}

	shift, costs, err := h.svc.CreateShift(r.Context(), service.ShiftInput{
		Start:             start,
		End:               end,
		Department:        req.Department,
		StartUndetermined: req.StartUndetermined,
		EndUndetermined:   req.EndUndetermined,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, ShiftResponse{Shift: shift, Costs: costs})
}

// RemoveShift 删除班次
func (h *Handler) RemoveShift(w http.ResponseWriter, r *http.Request) {
	id, err := shiftID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	costs, err := h.svc.RemoveShift(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ShiftResponse{Costs: costs})
}

// Eligibles 候选员工排名
func (h *Handler) Eligibles(w http.ResponseWriter, r *http.Request) {
	id, err := shiftID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	el, err := h.svc.Eligibles(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, el)
}

// Assign 分配班次
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := shiftID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req AssignRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.svc.Assign(r.Context(), id, service.Selection{Index: req.Index, EmployeeID: req.EmployeeID})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// Unassign 清除班次员工
func (h *Handler) Unassign(w http.ResponseWriter, r *http.Request) {
	id, err := shiftID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	res, err := h.svc.Unassign(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
