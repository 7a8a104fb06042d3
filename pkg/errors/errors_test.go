package errors

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeInvalidTimeRange, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeAssignmentConflict, http.StatusConflict},
		{CodeNotEligible, http.StatusUnprocessableEntity},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeDatabaseError, http.StatusInternalServerError},
		{CodeUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "x").HTTPStatus)
		})
	}
}

func TestIsAndGetCode(t *testing.T) {
	err := fmt.Errorf("外层: %w", NotFound("shift", "abc"))

	assert.True(t, Is(err, CodeNotFound))
	assert.False(t, Is(err, CodeInternal))
	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.Equal(t, CodeUnknown, GetCode(fmt.Errorf("普通错误")))
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(err))
}

func TestAsAppError(t *testing.T) {
	t.Run("空错误", func(t *testing.T) {
		assert.Nil(t, AsAppError(nil))
	})

	t.Run("普通错误归为内部错误", func(t *testing.T) {
		appErr := AsAppError(fmt.Errorf("boom"))
		assert.Equal(t, CodeInternal, appErr.Code)
		assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
	})

	t.Run("保留原有错误码", func(t *testing.T) {
		appErr := AsAppError(AssignmentConflict("s1"))
		assert.Equal(t, CodeAssignmentConflict, appErr.Code)
		assert.Equal(t, "s1", appErr.Fields["shift_id"])
	})
}

func TestInvalidTimeRange(t *testing.T) {
	start := time.Date(2017, 2, 14, 13, 0, 0, 0, time.UTC)
	end := time.Date(2017, 2, 14, 11, 0, 0, 0, time.UTC)

	err := InvalidTimeRange("shift", start, end)
	assert.Equal(t, CodeInvalidTimeRange, err.Code)
	assert.Contains(t, err.Message, "shift")
	assert.Equal(t, start, err.Fields["start"])
}

func TestValidationErrors(t *testing.T) {
	ve := &ValidationErrors{}
	assert.False(t, ve.HasErrors())
	assert.Equal(t, "验证失败", ve.Error())

	ve.Add("month", "格式应为 YYYY-MM")
	assert.True(t, ve.HasErrors())

	appErr := ve.ToAppError()
	assert.Equal(t, CodeValidationFail, appErr.Code)
	assert.Equal(t, "格式应为 YYYY-MM", appErr.Fields["month"])
}
