// Package errors 定义调班服务的错误码及其 HTTP 状态
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Code 错误码
type Code string

const (
	// 通用错误码
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeRateLimited  Code = "RATE_LIMITED"
	CodeUnauthorized Code = "UNAUTHORIZED"

	// 调班相关
	CodeInvalidTimeRange   Code = "INVALID_TIME_RANGE"
	CodeAssignmentConflict Code = "ASSIGNMENT_CONFLICT"
	CodeNotEligible        Code = "NOT_ELIGIBLE"

	// 数据相关
	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeValidationFail Code = "VALIDATION_FAILED"
)

// AppError 应用错误
type AppError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithField 添加字段
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New 创建新错误
func New(code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

var httpStatus = map[Code]int{
	CodeInvalidInput:       http.StatusBadRequest,
	CodeValidationFail:     http.StatusBadRequest,
	CodeInvalidTimeRange:   http.StatusBadRequest,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeNotFound:           http.StatusNotFound,
	CodeAssignmentConflict: http.StatusConflict,
	CodeNotEligible:        http.StatusUnprocessableEntity,
	CodeRateLimited:        http.StatusTooManyRequests,
}

// 未列出的错误码一律 500
func codeToHTTPStatus(code Code) int {
	if status, ok := httpStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Is 检查错误是否为特定类型
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode 获取错误码
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetHTTPStatus 获取HTTP状态码
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// AsAppError 将任意错误转换为 AppError，非 AppError 归为内部错误
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeInternal, "内部错误")
}

// InvalidInput 创建输入无效错误
func InvalidInput(field, reason string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("字段 '%s' 无效: %s", field, reason))
}

// InvalidTimeRange 创建时间范围无效错误（开始晚于结束）
func InvalidTimeRange(what string, start, end time.Time) *AppError {
	return New(CodeInvalidTimeRange,
		fmt.Sprintf("%s 开始时间 %s 晚于结束时间 %s", what,
			start.Format(time.RFC3339), end.Format(time.RFC3339))).
		WithField("start", start).
		WithField("end", end)
}

// NotFound 创建资源不存在错误
func NotFound(resource, id string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s '%s' 不存在", resource, id))
}

// AssignmentConflict 创建并发分配冲突错误
func AssignmentConflict(shiftID string) *AppError {
	return New(CodeAssignmentConflict, fmt.Sprintf("班次 %s 已被其他操作修改", shiftID)).
		WithField("shift_id", shiftID)
}

// NotEligible 创建员工不具备资格错误
func NotEligible(employeeID int64, department string) *AppError {
	return New(CodeNotEligible, fmt.Sprintf("员工 %d 不属于部门 %s", employeeID, department)).
		WithField("employee_id", employeeID)
}

// Unauthorized 创建缺少或无效 API 密钥的错误
func Unauthorized(reason string) *AppError {
	return New(CodeUnauthorized, reason)
}

// Database 包装数据库错误
func Database(op string, err error) *AppError {
	return Wrap(err, CodeDatabaseError, op+"失败")
}

// ValidationErrors 验证错误集合
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ValidationError 单个验证错误
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 实现 error 接口
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "验证失败"
	}
	return fmt.Sprintf("验证失败: %s - %s", ve.Errors[0].Field, ve.Errors[0].Message)
}

// Add 添加验证错误
func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

// HasErrors 检查是否有错误
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// ToAppError 转换为 AppError
func (ve *ValidationErrors) ToAppError() *AppError {
	err := New(CodeValidationFail, "验证失败")
	err.Fields = make(map[string]interface{})
	for _, e := range ve.Errors {
		err.Fields[e.Field] = e.Message
	}
	return err
}
