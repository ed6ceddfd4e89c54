// Package engine 提供排班优化引擎的入口
//
// 引擎是一个无状态纯函数：每次优化运行是
// (员工, 职种, 槽位, 偏好, 配置) -> (分配, 冲突) 的映射，
// 不保留任何跨运行状态，相同输入必然产生相同输出。
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shifta/shifta/pkg/engine/compiler"
	"github.com/shifta/shifta/pkg/engine/resolver"
	"github.com/shifta/shifta/pkg/engine/scorer"
	"github.com/shifta/shifta/pkg/errors"
	"github.com/shifta/shifta/pkg/logger"
	"github.com/shifta/shifta/pkg/model"
	"github.com/shifta/shifta/pkg/stats"
	"github.com/shifta/shifta/pkg/validator"
)

// Engine 排班优化引擎
type Engine struct {
	logger *logger.EngineLogger
}

// New 创建优化引擎
func New() *Engine {
	return &Engine{
		logger: logger.NewEngineLogger(),
	}
}

// Run 执行一次完整的优化运行
//
// 控制流：输入验证 -> 约束编译 + 偏好评分 -> 冲突消解循环（内部逐级
// 放宽并重解）-> 结果物化。所有非致命状况以数据形式返回
// （冲突记录 + 运行状态）；只有输入错误和求解器故障以 error 传播。
func (e *Engine) Run(ctx context.Context, input *model.Input) (*model.RunResult, error) {
	start := time.Now()

	if err := validateInput(input); err != nil {
		return nil, err
	}

	cfg := input.Config
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "引擎配置无效")
	}

	runID := input.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	e.logger.StartRun(runID.String(), len(input.Employees), len(input.Slots))

	set, preConflicts, err := compiler.Compile(input)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidModel, "约束编译失败")
	}

	weights := scorer.Score(set, input.Preferences, cfg)

	// 求解受墙钟时限约束；超时返回当前最优解而非空结果
	solveCtx, cancel := context.WithTimeout(ctx, cfg.SolverTimeout)
	defer cancel()

	res := resolver.New(cfg)
	outcome, err := res.Resolve(solveCtx, runID.String(), set, weights)
	if err != nil {
		return nil, err
	}

	assignments := materialize(set, outcome)

	conflicts := make([]*model.Conflict, 0, len(preConflicts)+len(outcome.Conflicts))
	conflicts = append(conflicts, preConflicts...)
	conflicts = append(conflicts, outcome.Conflicts...)

	// 物化后的方案必须满足不可违反的硬性不变量；
	// 违反意味着求解器自身缺陷，按致命错误处理
	if err := verify(input, set, outcome, assignments); err != nil {
		return nil, err
	}

	result := &model.RunResult{
		RunID:           runID,
		Status:          status(outcome, conflicts),
		Assignments:     assignments,
		Conflicts:       conflicts,
		RelaxationLevel: outcome.Level,
		Iterations:      iterations(outcome),
		Elapsed:         time.Since(start),
		Statistics:      stats.Compute(input, assignments),
	}

	e.logger.RunComplete(runID.String(), string(result.Status), result.Elapsed, len(conflicts))
	return result, nil
}

// materialize 将内部变量索引映射回领域模型分配记录
//
// 纯投影：分配ID由槽位与员工派生，输出按
// (日期, 槽位开始时刻, 员工ID) 排序，同一内部解两次物化结果完全一致。
func materialize(set *compiler.ConstraintSet, outcome *resolver.Outcome) []*model.Assignment {
	if outcome.Solution == nil {
		return []*model.Assignment{}
	}

	assignments := make([]*model.Assignment, 0, outcome.Solution.TotalAssigned())
	for slotIdx, picks := range outcome.Solution.Picks {
		slot := set.Slots[slotIdx]
		for _, empIdx := range picks {
			emp := set.Employees[empIdx]
			assignments = append(assignments, &model.Assignment{
				ID:         model.NewAssignmentID(slot.Slot.ID, emp.ID),
				SlotID:     slot.Slot.ID,
				EmployeeID: emp.ID,
				JobTypeID:  slot.JobType.ID,
				Date:       slot.Slot.Date,
				StartTime:  slot.Window.Start,
				EndTime:    slot.Window.End,
			})
		}
	}

	sort.Slice(assignments, func(i, j int) bool {
		ai, aj := assignments[i], assignments[j]
		if ai.Date != aj.Date {
			return ai.Date < aj.Date
		}
		if !ai.StartTime.Equal(aj.StartTime) {
			return ai.StartTime.Before(aj.StartTime)
		}
		if ai.EmployeeID != aj.EmployeeID {
			return ai.EmployeeID.String() < aj.EmployeeID.String()
		}
		return ai.JobTypeID.String() < aj.JobTypeID.String()
	})

	return assignments
}

// iterations 返回最终采纳解的迭代次数
func iterations(outcome *resolver.Outcome) int {
	if outcome.Solution == nil {
		return 0
	}
	return outcome.Solution.Iterations
}

// verify 用独立检查器复核物化方案的硬性不变量
func verify(input *model.Input, set *compiler.ConstraintSet, outcome *resolver.Outcome, assignments []*model.Assignment) error {
	relaxation := validator.Relaxation{}
	if outcome.Level >= 2 {
		relaxation.ConsecutiveDayBonus = 1
	}
	if outcome.Level >= 3 {
		relaxation.RestMarginHours = input.Config.RestRelaxMarginHours
	}

	checker := validator.New(validator.Config{
		EnforceRestHours:       input.Config.EnforceRestHours,
		EnforceConsecutiveDays: input.Config.EnforceConsecutiveDays,
		EnforceWeeklyHours:     input.Config.EnforceWeeklyHours,
		Relaxation:             relaxation,
	})

	violations := checker.Check(assignments, input.Employees, input.JobTypes)
	if len(violations) > 0 {
		return errors.SolverFatal(violations[0].Message).
			WithField("violations", len(violations))
	}

	// 槽位人数不得超过需求
	counts := make(map[uuid.UUID]int)
	for _, a := range assignments {
		counts[a.SlotID]++
	}
	for _, slot := range set.Slots {
		if counts[slot.Slot.ID] > slot.Required {
			return errors.SolverFatal("槽位分配人数超过需求").
				WithField("slot", slot.Slot.Key())
		}
	}
	return nil
}

// status 推导运行状态
//
// 有任何冲突（预求解不可行、缺员、规则放宽）即为尽力而为；
// 无冲突但求解超时为次优；否则为最优
func status(outcome *resolver.Outcome, conflicts []*model.Conflict) model.RunStatus {
	if len(conflicts) > 0 {
		return model.StatusBestEffort
	}
	if outcome.TimedOut {
		return model.StatusSuboptimalTimeout
	}
	return model.StatusOptimal
}
