// Package resolver 提供冲突消解器：放宽级别状态机
//
// 级别 0：全部约束保持原样
// 级别 1：对仍缺员的槽位，将"不可用"软惩罚放宽至中性权重
// 级别 2：最大连续工作天数放宽一天
// 级别 3：最小休息时间按配置的幅度放宽
// 终态：尽力而为。穷尽放宽级别后仍缺员不是错误，
// 引擎总是返回最优分配方案加完整冲突列表
package resolver

import (
	"context"
	"fmt"

	"github.com/shifta/shifta/pkg/engine/compiler"
	"github.com/shifta/shifta/pkg/engine/scorer"
	"github.com/shifta/shifta/pkg/engine/solver"
	"github.com/shifta/shifta/pkg/logger"
	"github.com/shifta/shifta/pkg/model"
)

// Outcome 消解结果
type Outcome struct {
	Solution  *solver.Solution
	Conflicts []*model.Conflict
	Level     int  // 实际到达的放宽级别
	TimedOut  bool // 任意一轮求解发生超时
}

// Resolver 冲突消解器
type Resolver struct {
	cfg    model.Config
	solver *solver.Solver
	logger *logger.EngineLogger
}

// New 创建冲突消解器
func New(cfg model.Config) *Resolver {
	return &Resolver{
		cfg:    cfg,
		solver: solver.New(cfg),
		logger: logger.NewEngineLogger(),
	}
}

// Resolve 逐级放宽并重解，直至无缺员、级别穷尽或无进展
//
// 转移规则：每轮求解后若仍有槽位缺员则提升一个放宽级别重解；
// 连续两级产生完全相同的缺员槽位集合视为无进展，停止提升（避免死循环）。
// 每次应用的放宽即使最终解满员也会记录为冲突，消费方始终能看到妥协内容。
func (r *Resolver) Resolve(ctx context.Context, runID string, set *compiler.ConstraintSet, weights *scorer.Weights) (*Outcome, error) {
	outcome := &Outcome{}

	// 放宽操作作用于副本，调用方的权重保持原样
	working := weights.Clone()
	relax := solver.Relaxation{}

	var best *solver.Solution
	var prevUnderstaffed []int
	level := 0

	for {
		sol, err := r.solver.Solve(ctx, set, working, relax)
		if err != nil {
			// 求解器内部错误是致命的，不伪造部分结果
			return nil, err
		}
		r.logger.SolveRound(runID, level, sol.TotalAssigned(), sol.TotalShortfall(), sol.Duration)

		if sol.TimedOut {
			outcome.TimedOut = true
		}
		if better(sol, best) {
			best = sol
			outcome.Level = level
		}

		understaffed := sol.UnderstaffedSlots()
		if len(understaffed) == 0 {
			break
		}
		if outcome.TimedOut {
			// 时间预算已耗尽，保留当前最优解
			break
		}
		if level >= r.cfg.MaxRelaxationLevel {
			break
		}
		if prevUnderstaffed != nil && equalSlotSets(prevUnderstaffed, understaffed) {
			// 两级结果相同，继续放宽不会有进展
			break
		}
		prevUnderstaffed = understaffed

		// 未改变模型的级别（如无不可用标记时的级别1）直接跳过，
		// 避免无意义的重解触发无进展判定
		changed := false
		for !changed && level < r.cfg.MaxRelaxationLevel {
			level++
			var applied []*model.Conflict
			applied, changed = r.applyLevel(level, set, working, understaffed, &relax)
			if changed {
				r.logger.RelaxationApplied(runID, level, len(understaffed))
			}
			outcome.Conflicts = append(outcome.Conflicts, applied...)
		}
		if !changed {
			break
		}
	}

	outcome.Solution = best
	outcome.Conflicts = append(outcome.Conflicts, r.understaffedConflicts(set, best, outcome.Level)...)
	return outcome, nil
}

// applyLevel 应用一个放宽级别，返回相应的冲突记录和模型是否被实际改变
// 放宽是累积的：高级别保留低级别已经应用的全部放宽
func (r *Resolver) applyLevel(level int, set *compiler.ConstraintSet, weights *scorer.Weights, understaffed []int, relax *solver.Relaxation) ([]*model.Conflict, bool) {
	var conflicts []*model.Conflict

	switch level {
	case 1:
		relaxed := weights.RelaxUnavailable(understaffed)
		if relaxed == 0 {
			return nil, false
		}
		for _, slotIdx := range understaffed {
			slot := set.Slots[slotIdx]
			conflicts = append(conflicts, &model.Conflict{
				Kind:      model.ConflictRuleRelaxed,
				Severity:  model.SeverityWarning,
				SlotID:    slot.Slot.ID,
				JobTypeID: slot.JobType.ID,
				Date:      slot.Slot.Date,
				Level:     level,
				Message:   fmt.Sprintf("%s 职种 '%s' 缺员，\"不可用\"标记已放宽至中性权重", slot.Slot.Date, slot.JobType.Name),
			})
		}
	case 2:
		// 规则本身已关闭时放宽不会改变模型
		if !set.Rules.EnforceConsecutive {
			return nil, false
		}
		relax.ConsecutiveDayBonus = 1
		conflicts = append(conflicts, &model.Conflict{
			Kind:     model.ConflictRuleRelaxed,
			Severity: model.SeverityWarning,
			Level:    level,
			Message:  "最大连续工作天数已放宽一天",
		})
	case 3:
		if !set.Rules.EnforceRest {
			return nil, false
		}
		relax.RestMarginHours = r.cfg.RestRelaxMarginHours
		conflicts = append(conflicts, &model.Conflict{
			Kind:     model.ConflictRuleRelaxed,
			Severity: model.SeverityWarning,
			Level:    level,
			Message:  fmt.Sprintf("班次间最小休息时间已放宽 %.1f 小时", r.cfg.RestRelaxMarginHours),
		})
	}

	return conflicts, true
}

// understaffedConflicts 为最终解中仍缺员的槽位生成冲突记录
// 缺员只作为冲突上报，绝不静默丢弃
func (r *Resolver) understaffedConflicts(set *compiler.ConstraintSet, sol *solver.Solution, level int) []*model.Conflict {
	if sol == nil {
		return nil
	}
	var conflicts []*model.Conflict
	for _, slotIdx := range sol.UnderstaffedSlots() {
		slot := set.Slots[slotIdx]
		conflicts = append(conflicts, &model.Conflict{
			Kind:      model.ConflictUnderstaffed,
			Severity:  model.SeverityError,
			SlotID:    slot.Slot.ID,
			JobTypeID: slot.JobType.ID,
			Date:      slot.Slot.Date,
			Level:     level,
			Message: fmt.Sprintf("%s 职种 '%s' 缺员 %d 人（需要 %d 人，已分配 %d 人）",
				slot.Slot.Date, slot.JobType.Name, sol.Shortfall[slotIdx], slot.Required, len(sol.Picks[slotIdx])),
		})
	}
	return conflicts
}

// better 比较两个解：缺员少者优先，其次目标值高者优先
func better(candidate, incumbent *solver.Solution) bool {
	if incumbent == nil {
		return true
	}
	if candidate.TotalShortfall() != incumbent.TotalShortfall() {
		return candidate.TotalShortfall() < incumbent.TotalShortfall()
	}
	return candidate.Objective > incumbent.Objective
}

// equalSlotSets 比较两个升序槽位索引集合
func equalSlotSets(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
