// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/paiban/rescheduler/internal/service"
	"github.com/paiban/rescheduler/pkg/errors"
	"github.com/paiban/rescheduler/pkg/logger"
	"github.com/paiban/rescheduler/pkg/model"
)

// 请求体时间格式，RFC3339 之外也接受不带时区的本地时间
const localTimeLayout = "2006-01-02T15:04"

// VersionInfo 构建信息
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// Handler 调班 API 处理器
type Handler struct {
	svc      *service.Service
	validate *validator.Validate
	version  VersionInfo
}

// New 创建处理器
func New(svc *service.Service, version VersionInfo) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
		version:  version,
	}
}

// Register 注册路由
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /version", h.Version)
	mux.HandleFunc("GET /api/v1/{$}", h.Index)

	mux.HandleFunc("POST /api/v1/shifts", h.CreateShift)
	mux.HandleFunc("DELETE /api/v1/shifts/{id}", h.RemoveShift)
	mux.HandleFunc("GET /api/v1/shifts/{id}/eligibles", h.Eligibles)
	mux.HandleFunc("POST /api/v1/shifts/{id}/assign", h.Assign)
	mux.HandleFunc("POST /api/v1/shifts/{id}/unassign", h.Unassign)

	mux.HandleFunc("GET /api/v1/costs", h.Costs)
	mux.HandleFunc("GET /api/v1/audit", h.Audit)
	mux.HandleFunc("GET /api/v1/workload", h.Workload)
	mux.HandleFunc("GET /api/v1/coverage", h.Coverage)
	mux.HandleFunc("POST /api/v1/autofill", h.Autofill)
	mux.HandleFunc("GET /api/v1/export", h.Export)
}

// Health 健康检查
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Health(r.Context()); err != nil {
		logger.WithContext(r.Context()).Warn().Err(err).Msg("健康检查失败")
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "unavailable",
			"service": "rescheduler",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "rescheduler",
	})
}

// Version 版本信息
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.version)
}

// Index API 根路由
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Rescheduler API v1",
		"endpoints": map[string]map[string]string{
			"shifts": {
				"create":    "POST /api/v1/shifts",
				"remove":    "DELETE /api/v1/shifts/{id}",
				"eligibles": "GET /api/v1/shifts/{id}/eligibles",
				"assign":    "POST /api/v1/shifts/{id}/assign",
				"unassign":  "POST /api/v1/shifts/{id}/unassign",
			},
			"reports": {
				"costs":    "GET /api/v1/costs?month=YYYY-MM",
				"audit":    "GET /api/v1/audit?month=YYYY-MM",
				"workload": "GET /api/v1/workload?month=YYYY-MM",
				"coverage": "GET /api/v1/coverage?month=YYYY-MM",
				"export":   "GET /api/v1/export?month=YYYY-MM",
			},
			"bulk": {
				"autofill": "POST /api/v1/autofill",
			},
		},
	})
}

// decode 解析并校验请求体
func (h *Handler) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败")
	}
	if err := h.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, errors.CodeValidationFail, "验证失败")
	}
	ve := &errors.ValidationErrors{}
	for _, fe := range verrs {
		ve.Add(fe.Field(), fe.Tag())
	}
	return ve.ToAppError()
}

func shiftID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, errors.InvalidInput("id", "无效的班次ID格式")
	}
	return id, nil
}

func monthParam(r *http.Request) (model.MonthKey, error) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return model.MonthKey{}, errors.InvalidInput("month", "不能为空，格式为 YYYY-MM")
	}
	month, err := model.ParseMonth(raw)
	if err != nil {
		return model.MonthKey{}, errors.InvalidInput("month", "格式应为 YYYY-MM")
	}
	return month, nil
}

// parseTime 解析 RFC3339，或按服务时区解析 YYYY-MM-DDTHH:MM
func parseTime(field, raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	t, err := time.ParseInLocation(localTimeLayout, raw, loc)
	if err != nil {
		return time.Time{}, errors.InvalidInput(field, "时间格式应为 RFC3339 或 YYYY-MM-DDTHH:MM")
	}
	return t, nil
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应，服务端错误写日志
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := errors.AsAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.WithContext(r.Context()).Error().Err(err).Str("code", string(appErr.Code)).Msg("请求失败")
	}

	body := map[string]interface{}{
		"error":   true,
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if appErr.Details != "" {
		body["details"] = appErr.Details
	}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	respondJSON(w, appErr.HTTPStatus, body)
}
