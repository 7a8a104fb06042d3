package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/paiban/rescheduler/pkg/model"
	"github.com/paiban/rescheduler/pkg/stats"
	"github.com/paiban/rescheduler/pkg/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CostsResponse 月度人工成本，labels 为部门名和 "Total" 到显示文本的映射
type CostsResponse struct {
	Month  string               `json:"month"`
	Labels map[string]string    `json:"labels"`
	Report *stats.PayrollReport `json:"report"`
}

// AuditResponse 月度隐患检查结果
type AuditResponse struct {
	Month     string               `json:"month"`
	Count     int                  `json:"count"`
	Conflicts []validator.Conflict `json:"conflicts"`
}

// WorkloadResponse 月度工作量
type WorkloadResponse struct {
	Month     string                   `json:"month"`
	Employees []stats.EmployeeWorkload `json:"employees"`
	Fairness  stats.Fairness           `json:"fairness"`
}

// AutofillRequest 自动填充请求
type AutofillRequest struct {
	Month      string `json:"month" validate:"required,datetime=2006-01"`
	Department string `json:"department"`
}

// Costs 月度人工成本
func (h *Handler) Costs(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	report, err := h.svc.Costs(r.Context(), month)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, CostsResponse{
		Month:  month.String(),
		Labels: report.Labels(),
		Report: report,
	})
}

// Audit 月度隐患检查
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	conflicts, err := h.svc.Audit(r.Context(), month)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, AuditResponse{
		Month:     month.String(),
		Count:     len(conflicts),
		Conflicts: conflicts,
	})
}

// Workload 月度工作量
func (h *Handler) Workload(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	loads, err := h.svc.Workload(r.Context(), month)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, WorkloadResponse{
		Month:     month.String(),
		Employees: loads,
		Fairness:  stats.WorkloadFairness(loads),
	})
}

// Coverage 月度班次覆盖情况
func (h *Handler) Coverage(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	report, err := h.svc.Coverage(r.Context(), month)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Autofill 把某月空班次分配给排名第一的员工
func (h *Handler) Autofill(w http.ResponseWriter, r *http.Request) {
	var req AutofillRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	month, err := model.ParseMonth(req.Month)
	if err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.svc.Autofill(r.Context(), month, req.Department)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// Export 导出 Excel 工作簿，version 为可选的版本标记
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	version := r.URL.Query().Get("version")

	// 先写入缓冲区，失败时仍能返回 JSON 错误
	var buf bytes.Buffer
	if err := h.svc.Export(r.Context(), month, version, &buf); err != nil {
		respondError(w, r, err)
		return
	}

	filename := fmt.Sprintf("schedule-%s.xlsx", month)
	if version != "" {
		filename = fmt.Sprintf("schedule-%s-ver-%s.xlsx", month, version)
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
