// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shifta/shifta/internal/metrics"
	"github.com/shifta/shifta/internal/repository"
	"github.com/shifta/shifta/pkg/engine"
	"github.com/shifta/shifta/pkg/errors"
	"github.com/shifta/shifta/pkg/logger"
	"github.com/shifta/shifta/pkg/model"
)

// RunHandler 排班运行处理器
type RunHandler struct {
	runs     repository.RunRepositoryInterface
	engine   *engine.Engine
	metrics  *metrics.Metrics
	defaults model.Config
}

// NewRunHandler 创建排班运行处理器
// runs 为 nil 时不持久化运行记录，仅同步返回结果；
// defaults 是服务级引擎配置，单次请求可通过 options 覆盖
func NewRunHandler(runs repository.RunRepositoryInterface, eng *engine.Engine, m *metrics.Metrics, defaults model.Config) *RunHandler {
	return &RunHandler{runs: runs, engine: eng, metrics: m, defaults: defaults}
}

// OptimizeRequest 排班优化请求
type OptimizeRequest struct {
	StartDate   string            `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string            `json:"end_date" validate:"required,datetime=2006-01-02"`
	Employees   []EmployeeInput   `json:"employees" validate:"required,min=1,dive"`
	JobTypes    []JobTypeInput    `json:"job_types" validate:"required,min=1,dive"`
	Slots       []SlotInput       `json:"slots" validate:"omitempty,dive"` // 省略时按周期×职种自动生成
	Preferences []PreferenceInput `json:"preferences" validate:"omitempty,dive"`
	Options     *OptimizeOptions  `json:"options"`
}

// EmployeeInput 员工输入
type EmployeeInput struct {
	ID                 string   `json:"id" validate:"required,uuid"`
	Name               string   `json:"name" validate:"required"`
	Code               string   `json:"code"`
	Qualifications     []string `json:"qualifications" validate:"omitempty,dive,uuid"`
	MaxWeeklyHours     float64  `json:"max_weekly_hours" validate:"gte=0,lte=168"`
	MinRestHours       float64  `json:"min_rest_hours" validate:"gte=0,lte=48"`
	MaxConsecutiveDays int      `json:"max_consecutive_days" validate:"gte=0,lte=31"`
	EmploymentType     string   `json:"employment_type" validate:"omitempty,oneof=full_time part_time"`
}

// JobTypeInput 职种输入
type JobTypeInput struct {
	ID                    string `json:"id" validate:"required,uuid"`
	Name                  string `json:"name" validate:"required"`
	Code                  string `json:"code"`
	StartTime             string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime               string `json:"end_time" validate:"required,datetime=15:04"`
	RequiredStaff         int    `json:"required_staff" validate:"gte=0"`
	RequiredQualification string `json:"required_qualification" validate:"omitempty,uuid"`
	Color                 string `json:"color"`
}

// SlotInput 槽位输入
type SlotInput struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	JobTypeID string `json:"job_type_id" validate:"required,uuid"`
}

// PreferenceInput 偏好输入
type PreferenceInput struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	JobTypeID  string `json:"job_type_id" validate:"omitempty,uuid"`
	Score      int    `json:"score" validate:"gte=-1,lte=5"`
}

// OptimizeOptions 优化选项
type OptimizeOptions struct {
	TimeoutSeconds         int   `json:"timeout_seconds" validate:"gte=0,lte=600"`
	MaxIterations          int   `json:"max_iterations" validate:"gte=0"`
	MaxRelaxationLevel     *int  `json:"max_relaxation_level" validate:"omitempty,gte=0,lte=3"` // 0 表示禁用放宽
	RandomSeed             int64 `json:"random_seed"`
	EnforceRestHours       *bool `json:"enforce_rest_hours"`
	EnforceConsecutiveDays *bool `json:"enforce_consecutive_days"`
	EnforceWeeklyHours     *bool `json:"enforce_weekly_hours"`
	Wait                   bool  `json:"wait"` // true 时同步等待结果
}

// OptimizeResponse 异步受理响应
type OptimizeResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// Optimize 受理排班优化请求
//
// 默认异步执行：立即返回运行ID，结果通过 GET /runs/{id} 查询；
// options.wait 为 true 时同步等待并直接返回完整结果。
func (h *RunHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if err := validateStruct(&req); err != nil {
		respondError(w, err)
		return
	}

	input, err := h.toInput(&req)
	if err != nil {
		respondError(w, err)
		return
	}

	if h.runs != nil {
		record := &repository.Run{
			ID:        input.RunID,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		}
		if err := h.runs.Create(r.Context(), record); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "创建运行记录失败"))
			return
		}
	}

	if req.Options != nil && req.Options.Wait {
		result, err := h.execute(r.Context(), input)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
		return
	}

	// 异步执行与请求生命周期解耦，求解时限由引擎配置控制
	go func() {
		if _, err := h.execute(context.Background(), input); err != nil {
			logger.Error().
				Err(err).
				Str("run_id", input.RunID.String()).
				Msg("异步排班运行失败")
		}
	}()

	respondJSON(w, http.StatusAccepted, OptimizeResponse{
		RunID:  input.RunID.String(),
		Status: "pending",
	})
}

// execute 执行一次运行并持久化结果
func (h *RunHandler) execute(ctx context.Context, input *model.Input) (*model.RunResult, error) {
	runID := input.RunID

	if h.metrics != nil {
		h.metrics.RunStarted()
	}
	if h.runs != nil {
		_ = h.runs.UpdateStatus(ctx, runID, "running")
		_ = h.runs.AppendLog(ctx, runID, fmt.Sprintf("开始求解：%d 名员工，%d 个槽位", len(input.Employees), len(input.Slots)))
	}

	result, err := h.engine.Run(ctx, input)
	if err != nil {
		if h.runs != nil {
			_ = h.runs.SaveFailure(ctx, runID, err.Error())
		}
		if h.metrics != nil {
			h.metrics.RunFinished(string(model.StatusFatalError), 0, 0, 0, 0)
		}
		return nil, err
	}

	if h.runs != nil {
		if err := h.runs.SaveResult(ctx, result); err != nil {
			logger.Error().Err(err).Str("run_id", runID.String()).Msg("保存运行结果失败")
		}
		_ = h.runs.AppendLog(ctx, runID, fmt.Sprintf(
			"求解完成：状态 %s，分配 %d 条，冲突 %d 条，放宽级别 %d",
			result.Status, len(result.Assignments), len(result.Conflicts), result.RelaxationLevel,
		))
	}

	if h.metrics != nil {
		fillRate := 0.0
		if result.Statistics != nil {
			fillRate = result.Statistics.FillRate
		}
		h.metrics.RunFinished(string(result.Status), result.Elapsed, result.Iterations, result.RelaxationLevel, fillRate)
		for _, c := range result.Conflicts {
			h.metrics.ConflictRecorded(string(c.Kind))
		}
	}

	return result, nil
}

// GetRun 查询运行详情
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, errors.New(errors.CodeNotFound, "未启用运行持久化"))
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的运行ID格式"))
		return
	}

	run, err := h.runs.GetByID(r.Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			respondError(w, errors.New(errors.CodeNotFound, "运行记录不存在"))
			return
		}
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询运行记录失败"))
		return
	}

	assignments, err := h.runs.GetAssignments(r.Context(), id)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询分配记录失败"))
		return
	}
	conflicts, err := h.runs.GetConflicts(r.Context(), id)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询冲突记录失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run":         run,
		"assignments": assignments,
		"conflicts":   conflicts,
	})
}

// ListRuns 查询运行列表
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"runs": []*repository.Run{}, "total": 0})
		return
	}

	filter := repository.DefaultListFilter()
	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		filter = filter.WithStatus(status)
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 && limit <= 100 {
		filter = filter.WithLimit(limit)
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset >= 0 {
		filter = filter.WithOffset(offset)
	}

	runs, total, err := h.runs.List(r.Context(), filter)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询运行列表失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"total": total,
	})
}

// toInput 把请求DTO转换为引擎输入
func (h *RunHandler) toInput(req *OptimizeRequest) (*model.Input, error) {
	input := &model.Input{
		RunID: uuid.New(),
		Period: model.DateRange{
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		},
		Config: h.defaults,
	}

	for _, e := range req.Employees {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的员工ID格式: "+e.ID)
		}
		var quals []uuid.UUID
		for _, q := range e.Qualifications {
			qid, err := uuid.Parse(q)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的资格ID格式: "+q)
			}
			quals = append(quals, qid)
		}
		employmentType := model.EmploymentFullTime
		if e.EmploymentType == string(model.EmploymentPartTime) {
			employmentType = model.EmploymentPartTime
		}
		input.Employees = append(input.Employees, &model.Employee{
			ID:                 id,
			Name:               e.Name,
			Code:               e.Code,
			Qualifications:     quals,
			MaxWeeklyHours:     e.MaxWeeklyHours,
			MinRestHours:       e.MinRestHours,
			MaxConsecutiveDays: e.MaxConsecutiveDays,
			EmploymentType:     employmentType,
		})
	}

	for _, jt := range req.JobTypes {
		id, err := uuid.Parse(jt.ID)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的职种ID格式: "+jt.ID)
		}
		var qual uuid.UUID
		if jt.RequiredQualification != "" {
			qual, err = uuid.Parse(jt.RequiredQualification)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的资格ID格式: "+jt.RequiredQualification)
			}
		}
		input.JobTypes = append(input.JobTypes, &model.JobType{
			ID:                    id,
			Name:                  jt.Name,
			Code:                  jt.Code,
			StartTime:             jt.StartTime,
			EndTime:               jt.EndTime,
			RequiredStaff:         jt.RequiredStaff,
			RequiredQualification: qual,
			Color:                 jt.Color,
		})
	}

	if len(req.Slots) > 0 {
		for _, s := range req.Slots {
			jtID, err := uuid.Parse(s.JobTypeID)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的职种ID格式: "+s.JobTypeID)
			}
			input.Slots = append(input.Slots, model.NewSlot(s.Date, jtID))
		}
	} else {
		// 未显式给出槽位时，周期内每一天为每个职种生成一个槽位
		dates, err := input.Period.Dates()
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的排班周期")
		}
		for _, day := range dates {
			for _, jt := range input.JobTypes {
				input.Slots = append(input.Slots, model.NewSlot(day, jt.ID))
			}
		}
	}

	for _, p := range req.Preferences {
		empID, err := uuid.Parse(p.EmployeeID)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的员工ID格式: "+p.EmployeeID)
		}
		var jtID uuid.UUID
		if p.JobTypeID != "" {
			jtID, err = uuid.Parse(p.JobTypeID)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的职种ID格式: "+p.JobTypeID)
			}
		}
		input.Preferences = append(input.Preferences, &model.PreferenceEntry{
			EmployeeID: empID,
			Date:       p.Date,
			JobTypeID:  jtID,
			Score:      p.Score,
		})
	}

	if opts := req.Options; opts != nil {
		if opts.TimeoutSeconds > 0 {
			input.Config.SolverTimeout = time.Duration(opts.TimeoutSeconds) * time.Second
		}
		if opts.MaxIterations > 0 {
			input.Config.MaxIterations = opts.MaxIterations
		}
		if opts.MaxRelaxationLevel != nil {
			input.Config.MaxRelaxationLevel = *opts.MaxRelaxationLevel
		}
		if opts.RandomSeed != 0 {
			input.Config.RandomSeed = opts.RandomSeed
		}
		if opts.EnforceRestHours != nil {
			input.Config.EnforceRestHours = *opts.EnforceRestHours
		}
		if opts.EnforceConsecutiveDays != nil {
			input.Config.EnforceConsecutiveDays = *opts.EnforceConsecutiveDays
		}
		if opts.EnforceWeeklyHours != nil {
			input.Config.EnforceWeeklyHours = *opts.EnforceWeeklyHours
		}
	}

	return input, nil
}
