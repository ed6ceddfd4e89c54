// Package model 定义优化引擎的核心数据模型
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Assignment 排班分配：引擎的输出单元
type Assignment struct {
	ID         uuid.UUID `json:"id"`
	SlotID     uuid.UUID `json:"slot_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	JobTypeID  uuid.UUID `json:"job_type_id"`
	Date       string    `json:"date"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

// NewAssignmentID 由槽位与员工派生分配ID
// 同一内部解两次物化得到完全相同的记录
func NewAssignmentID(slotID, employeeID uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(assignmentNamespace, []byte(slotID.String()+"/"+employeeID.String()))
}

// WorkingHours 计算工作时长（小时）
func (a *Assignment) WorkingHours() float64 {
	return a.EndTime.Sub(a.StartTime).Hours()
}

// Window 返回分配的时间窗口
func (a *Assignment) Window() TimeRange {
	return TimeRange{Start: a.StartTime, End: a.EndTime}
}

// Overlaps 检查两个分配的时间窗口是否重叠
func (a *Assignment) Overlaps(other *Assignment) bool {
	return a.Window().Overlaps(other.Window())
}

// ConflictKind 冲突类型
type ConflictKind string

const (
	ConflictUnderstaffed    ConflictKind = "understaffed"      // 人手不足
	ConflictNoEligibleStaff ConflictKind = "no_eligible_staff" // 无可用人选
	ConflictPreference      ConflictKind = "preference_violated"
	ConflictRuleRelaxed     ConflictKind = "rule_relaxed" // 规则被放宽
)

// ConflictSeverity 冲突严重程度
type ConflictSeverity string

const (
	SeverityError   ConflictSeverity = "error"
	SeverityWarning ConflictSeverity = "warning"
)

// Conflict 冲突记录：未满足或被放宽的约束
// 只由冲突消解器产生，绝不静默丢弃
type Conflict struct {
	Kind       ConflictKind     `json:"kind"`
	Severity   ConflictSeverity `json:"severity"`
	SlotID     uuid.UUID        `json:"slot_id,omitempty"`
	JobTypeID  uuid.UUID        `json:"job_type_id,omitempty"`
	EmployeeID uuid.UUID        `json:"employee_id,omitempty"`
	Date       string           `json:"date,omitempty"`
	Level      int              `json:"level"` // 记录时所处的放宽级别
	Message    string           `json:"message"`
}

// RunStatus 运行状态
type RunStatus string

const (
	StatusOptimal           RunStatus = "optimal"
	StatusSuboptimalTimeout RunStatus = "suboptimal_timeout"
	StatusBestEffort        RunStatus = "best_effort_with_conflicts"
	StatusFatalError        RunStatus = "fatal_error"
)

// Config 引擎运行配置
// 显式的具名字段代替开放式动态映射，运行开始时校验一次
type Config struct {
	// 规则开关
	EnforceRestHours       bool `json:"enforce_rest_hours"`
	EnforceConsecutiveDays bool `json:"enforce_consecutive_days"`
	EnforceWeeklyHours     bool `json:"enforce_weekly_hours"`

	// 放宽策略：允许的最高放宽级别（0-3）
	MaxRelaxationLevel int `json:"max_relaxation_level"`

	// L3 放宽时最小休息时间减少的小时数
	RestRelaxMarginHours float64 `json:"rest_relax_margin_hours"`

	// 求解器参数
	SolverTimeout time.Duration `json:"solver_timeout"`
	MaxIterations int           `json:"max_iterations"`
	RandomSeed    int64         `json:"random_seed"`

	// 偏好权重
	// NeutralWeight 零值是合法的显式取值，nil 表示未设置
	NeutralWeight      *float64 `json:"neutral_weight,omitempty"` // 无显式偏好时的默认权重
	UnavailablePenalty float64  `json:"unavailable_penalty"`      // "不可用"的软约束惩罚（取正值）
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	neutral := 1.0
	return Config{
		EnforceRestHours:       true,
		EnforceConsecutiveDays: true,
		EnforceWeeklyHours:     true,
		MaxRelaxationLevel:     3,
		RestRelaxMarginHours:   2,
		SolverTimeout:          30 * time.Second,
		MaxIterations:          2000,
		RandomSeed:             1,
		NeutralWeight:          &neutral,
		UnavailablePenalty:     1000,
	}
}

// Validate 校验配置并填充默认值
func (c *Config) Validate() error {
	if c.MaxRelaxationLevel < 0 || c.MaxRelaxationLevel > 3 {
		return fmt.Errorf("max_relaxation_level 必须在 0-3 之间: %d", c.MaxRelaxationLevel)
	}
	if c.SolverTimeout <= 0 {
		c.SolverTimeout = 30 * time.Second
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 2000
	}
	if c.NeutralWeight == nil {
		neutral := 1.0
		c.NeutralWeight = &neutral
	}
	if c.UnavailablePenalty <= 0 {
		c.UnavailablePenalty = 1000
	}
	if c.RestRelaxMarginHours < 0 {
		return fmt.Errorf("rest_relax_margin_hours 不能为负数: %.1f", c.RestRelaxMarginHours)
	}
	if c.RestRelaxMarginHours == 0 {
		c.RestRelaxMarginHours = 2
	}
	return nil
}

// Input 一次优化运行的完整输入快照
// 引擎不保留跨运行状态：相同输入必然产生相同输出
type Input struct {
	RunID       uuid.UUID          `json:"run_id"`
	Period      DateRange          `json:"period"`
	Employees   []*Employee        `json:"employees"`
	JobTypes    []*JobType         `json:"job_types"`
	Slots       []*Slot            `json:"slots"`
	Preferences []*PreferenceEntry `json:"preferences"`
	Config      Config             `json:"config"`
}

// Statistics 运行统计
type Statistics struct {
	TotalSlots          int     `json:"total_slots"`
	FilledSlots         int     `json:"filled_slots"`
	RequiredPositions   int     `json:"required_positions"`
	AssignedPositions   int     `json:"assigned_positions"`
	FillRate            float64 `json:"fill_rate"`
	TotalHours          float64 `json:"total_hours"`
	AvgHoursPerEmployee float64 `json:"avg_hours_per_employee"`
	FairnessScore       float64 `json:"fairness_score"`
}

// RunResult 一次优化运行的完整输出
type RunResult struct {
	RunID           uuid.UUID     `json:"run_id"`
	Status          RunStatus     `json:"status"`
	Assignments     []*Assignment `json:"assignments"`
	Conflicts       []*Conflict   `json:"conflicts"`
	RelaxationLevel int           `json:"relaxation_level"`
	Iterations      int           `json:"iterations"`
	Elapsed         time.Duration `json:"elapsed"`
	Statistics      *Statistics   `json:"statistics,omitempty"`
}

// Understaffed 返回人手不足类冲突数量
func (r *RunResult) Understaffed() int {
	count := 0
	for _, c := range r.Conflicts {
		if c.Kind == ConflictUnderstaffed || c.Kind == ConflictNoEligibleStaff {
			count++
		}
	}
	return count
}
