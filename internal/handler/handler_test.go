package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/paiban/rescheduler/internal/repository"
	"github.com/paiban/rescheduler/internal/service"
	"github.com/paiban/rescheduler/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const groceryShift = "6f1c2a4e-0000-4000-8000-000000000001"

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	seed, err := repository.LoadSeedFile("../repository/testdata/seed.yaml", time.UTC)
	require.NoError(t, err)
	store := repository.NewMemoryStore()
	require.NoError(t, store.Import(context.Background(), seed))

	svc := service.New(store, service.Options{
		Location: time.UTC,
		Logger:   logger.NewEngineLoggerFrom(zerolog.Nop()),
	})
	mux := http.NewServeMux()
	New(svc, VersionInfo{Version: "test"}).Register(mux)
	return mux
}

func do(t *testing.T, mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestHealthAndVersion(t *testing.T) {
	mux := newTestMux(t)

	rec := do(t, mux, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])

	rec = do(t, mux, "GET", "/version", "")
	assert.Equal(t, "test", decodeBody(t, rec)["version"])

	rec = do(t, mux, "GET", "/api/v1/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEligibles(t *testing.T) {
	mux := newTestMux(t)

	rec := do(t, mux, "GET", "/api/v1/shifts/"+groceryShift+"/eligibles", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var el service.Eligibles
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &el))
	assert.Equal(t, []string{"A", "E", "(U) B", "(U) F", "(V) C", "(V) G", "(S) D", "(S) H"}, el.Labels)
	assert.Equal(t, -1, el.AssignedIndex)

	tests := []struct {
		name   string
		id     string
		status int
		code   string
	}{
		{"无效ID", "not-a-uuid", http.StatusBadRequest, "INVALID_INPUT"},
		{"班次不存在", "6f1c2a4e-0000-4000-8000-0000000000ff", http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, "GET", "/api/v1/shifts/"+tt.id+"/eligibles", "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeBody(t, rec)["code"])
		})
	}
}

func TestAssignAndUnassign(t *testing.T) {
	mux := newTestMux(t)
	path := "/api/v1/shifts/" + groceryShift

	rec := do(t, mux, "POST", path+"/assign", `{"index": 0}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["changed"])
	assert.Equal(t, "11:00 - 13:00  A", body["label"])
	assert.EqualValues(t, 1, body["employee_id"])
	costs := body["costs"].(map[string]interface{})
	assert.Equal(t, "1%", costs["total"])
	assert.Equal(t, "2017-02", costs["month"])

	rec = do(t, mux, "POST", path+"/assign", `{"employee_id": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, false, body["changed"])
	assert.Nil(t, body["costs"])

	rec = do(t, mux, "POST", path+"/unassign", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decodeBody(t, rec)
	assert.Equal(t, true, body["changed"])
	assert.Equal(t, "11:00 - 13:00", body["label"])
}

func TestAssign_Errors(t *testing.T) {
	mux := newTestMux(t)
	path := "/api/v1/shifts/" + groceryShift + "/assign"

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"请求体格式错误", `{"index":`, http.StatusBadRequest, "INVALID_INPUT"},
		{"未选择员工", `{}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"位置越界", `{"index": 42}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"员工不可选", `{"employee_id": 9}`, http.StatusUnprocessableEntity, "NOT_ELIGIBLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, "POST", path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeBody(t, rec)["code"])
		})
	}
}

func TestCreateAndRemoveShift(t *testing.T) {
	mux := newTestMux(t)

	rec := do(t, mux, "POST", "/api/v1/shifts",
		`{"start": "2017-02-20T09:00", "end": "2017-02-20T17:00", "department": "Deli"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	shift := body["shift"].(map[string]interface{})
	id, _ := shift["id"].(string)
	require.NotEmpty(t, id)

	rec = do(t, mux, "GET", "/api/v1/shifts/"+id+"/eligibles", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, mux, "DELETE", "/api/v1/shifts/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, mux, "DELETE", "/api/v1/shifts/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateShift_Invalid(t *testing.T) {
	mux := newTestMux(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"缺少部门", `{"start": "2017-02-20T09:00", "end": "2017-02-20T17:00"}`, "VALIDATION_FAILED"},
		{"时间格式错误", `{"start": "tomorrow", "end": "2017-02-20T17:00", "department": "Deli"}`, "INVALID_INPUT"},
		{"结束早于开始", `{"start": "2017-02-20T17:00", "end": "2017-02-20T09:00", "department": "Deli"}`, "INVALID_TIME_RANGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, "POST", "/api/v1/shifts", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeBody(t, rec)["code"])
		})
	}
}

func TestCosts(t *testing.T) {
	mux := newTestMux(t)

	rec := do(t, mux, "GET", "/api/v1/costs?month=2017-02", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	labels := body["labels"].(map[string]interface{})
	assert.Equal(t, "0%", labels["Grocery"])
	assert.Equal(t, "0%", labels["Total"])

	rec = do(t, mux, "GET", "/api/v1/costs?month=2017-03", "")
	labels = decodeBody(t, rec)["labels"].(map[string]interface{})
	assert.Equal(t, "No Data", labels["Total"])

	rec = do(t, mux, "GET", "/api/v1/costs", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, mux, "GET", "/api/v1/costs?month=Feb", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditAndWorkload(t *testing.T) {
	mux := newTestMux(t)

	rec := do(t, mux, "GET", "/api/v1/audit?month=2017-02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 0, body["count"])
	assert.NotNil(t, body["conflicts"])

	rec = do(t, mux, "GET", "/api/v1/workload?month=2017-02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Len(t, body["employees"].([]interface{}), 9)
	fairness := body["fairness"].(map[string]interface{})
	assert.EqualValues(t, 9, fairness["employees"])

	rec = do(t, mux, "GET", "/api/v1/coverage?month=2017-02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.EqualValues(t, 3, body["total_shifts"])
	assert.EqualValues(t, 2, body["assigned_shifts"])
	assert.Len(t, body["uncovered"].([]interface{}), 1)
}

func TestAutofill(t *testing.T) {
	mux := newTestMux(t)

	rec := do(t, mux, "POST", "/api/v1/autofill", `{"month": "2017-02", "department": "Grocery"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	filled := body["filled"].([]interface{})
	require.Len(t, filled, 1)

	rec = do(t, mux, "POST", "/api/v1/autofill", `{"month": "February"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", decodeBody(t, rec)["code"])
}

func TestExport(t *testing.T) {
	mux := newTestMux(t)

	rec := do(t, mux, "GET", "/api/v1/export?month=2017-02&version=3", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="schedule-2017-02-ver-3.xlsx"`, rec.Header().Get("Content-Disposition"))
	// xlsx 为 zip 格式
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}
