package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shifta/shifta/pkg/engine"
	"github.com/shifta/shifta/pkg/model"
)

const (
	testEmpID = "11111111-1111-1111-1111-111111111111"
	testJtID  = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
)

func optimizeBody() map[string]interface{} {
	return map[string]interface{}{
		"start_date": "2024-03-04",
		"end_date":   "2024-03-04",
		"employees": []map[string]interface{}{
			{
				"id":             testEmpID,
				"name":           "甲",
				"qualifications": []string{testJtID},
			},
		},
		"job_types": []map[string]interface{}{
			{
				"id":             testJtID,
				"name":           "白班",
				"start_time":     "09:00",
				"end_time":       "17:00",
				"required_staff": 1,
			},
		},
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("编码请求失败: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestOptimize_同步执行(t *testing.T) {
	h := NewRunHandler(nil, engine.New(), nil, model.DefaultConfig())

	body := optimizeBody()
	body["options"] = map[string]interface{}{"wait": true}

	rec := postJSON(t, h.Optimize, "/api/v1/optimize", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result model.RunResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if result.Status != model.StatusOptimal {
		t.Errorf("Status = %s, want %s", result.Status, model.StatusOptimal)
	}
	if len(result.Assignments) != 1 {
		t.Errorf("分配数量 = %d, want 1", len(result.Assignments))
	}
}

func TestOptimize_异步受理(t *testing.T) {
	h := NewRunHandler(nil, engine.New(), nil, model.DefaultConfig())

	rec := postJSON(t, h.Optimize, "/api/v1/optimize", optimizeBody())
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp OptimizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.RunID == "" || resp.Status != "pending" {
		t.Errorf("受理响应异常: %+v", resp)
	}
}

func TestOptimize_请求校验(t *testing.T) {
	h := NewRunHandler(nil, engine.New(), nil, model.DefaultConfig())

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{"缺少开始日期", func(b map[string]interface{}) { delete(b, "start_date") }},
		{"日期格式错误", func(b map[string]interface{}) { b["start_date"] = "03/04/2024" }},
		{"员工列表为空", func(b map[string]interface{}) { b["employees"] = []map[string]interface{}{} }},
		{"员工ID非UUID", func(b map[string]interface{}) {
			b["employees"] = []map[string]interface{}{{"id": "not-a-uuid", "name": "甲"}}
		}},
		{"职种时刻格式错误", func(b map[string]interface{}) {
			b["job_types"] = []map[string]interface{}{
				{"id": testJtID, "name": "白班", "start_time": "9am", "end_time": "17:00"},
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := optimizeBody()
			tt.mutate(body)
			rec := postJSON(t, h.Optimize, "/api/v1/optimize", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400, body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestOptimize_服务级默认配置与请求级覆盖(t *testing.T) {
	defaults := model.DefaultConfig()
	defaults.SolverTimeout = 5 * time.Second
	defaults.MaxIterations = 500
	h := NewRunHandler(nil, engine.New(), nil, defaults)

	req := &OptimizeRequest{
		StartDate: "2024-03-04",
		EndDate:   "2024-03-04",
		Employees: []EmployeeInput{{ID: testEmpID, Name: "甲"}},
		JobTypes:  []JobTypeInput{{ID: testJtID, Name: "白班", StartTime: "09:00", EndTime: "17:00", RequiredStaff: 1}},
	}

	// 无 options 时沿用服务级配置
	input, err := h.toInput(req)
	if err != nil {
		t.Fatalf("toInput() error = %v", err)
	}
	if input.Config.SolverTimeout != 5*time.Second {
		t.Errorf("SolverTimeout = %v, want 5s", input.Config.SolverTimeout)
	}
	if input.Config.MaxIterations != 500 {
		t.Errorf("MaxIterations = %d, want 500", input.Config.MaxIterations)
	}

	// 请求级 options 覆盖，级别 0（禁用放宽）是合法取值
	zero := 0
	req.Options = &OptimizeOptions{MaxRelaxationLevel: &zero, MaxIterations: 50}
	input, err = h.toInput(req)
	if err != nil {
		t.Fatalf("toInput() error = %v", err)
	}
	if input.Config.MaxRelaxationLevel != 0 {
		t.Errorf("MaxRelaxationLevel = %d, want 0", input.Config.MaxRelaxationLevel)
	}
	if input.Config.MaxIterations != 50 {
		t.Errorf("MaxIterations = %d, want 50", input.Config.MaxIterations)
	}
}

func TestGetRun_未启用持久化(t *testing.T) {
	h := NewRunHandler(nil, engine.New(), nil, model.DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+testEmpID, nil)
	req.SetPathValue("id", testEmpID)
	rec := httptest.NewRecorder()
	h.GetRun(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListRuns_未启用持久化(t *testing.T) {
	h := NewRunHandler(nil, engine.New(), nil, model.DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	rec := httptest.NewRecorder()
	h.ListRuns(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Total != 0 {
		t.Errorf("total = %d, want 0", resp.Total)
	}
}

func TestGetRulesHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rules", nil)
	rec := httptest.NewRecorder()
	GetRulesHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Rules []struct {
			Name string `json:"name"`
		} `json:"rules"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if len(resp.Rules) == 0 {
		t.Error("规则目录不应为空")
	}
}

func TestGetStatsHandler(t *testing.T) {
	body := map[string]interface{}{
		"employees": []map[string]interface{}{
			{"id": testEmpID, "name": "甲"},
		},
		"job_types": []map[string]interface{}{
			{
				"id":             testJtID,
				"name":           "白班",
				"start_time":     "09:00",
				"end_time":       "17:00",
				"required_staff": 1,
			},
		},
		"slots": []map[string]interface{}{
			{"date": "2024-03-04", "job_type_id": testJtID},
		},
		"assignments": []map[string]interface{}{
			{
				"employee_id": testEmpID,
				"job_type_id": testJtID,
				"date":        "2024-03-04",
				"start_time":  "2024-03-04T09:00:00Z",
				"end_time":    "2024-03-04T17:00:00Z",
			},
		},
	}

	rec := postJSON(t, GetStatsHandler, "/api/v1/stats", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var s model.Statistics
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if s.FillRate != 1.0 {
		t.Errorf("FillRate = %v, want 1.0", s.FillRate)
	}
	if s.TotalHours != 8 {
		t.Errorf("TotalHours = %v, want 8", s.TotalHours)
	}
}
