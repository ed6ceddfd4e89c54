// Package solver 提供二元指派问题的求解器
//
// 每个可行 (槽位, 员工) 对是一个二元决策变量，目标为在满足全部硬约束的
// 前提下最大化偏好权重总和。求解分三个阶段：确定性贪心构造、缺员修复、
// 局部搜索改进。超时返回当前最优解而非失败。
package solver

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/shifta/shifta/pkg/engine/compiler"
	"github.com/shifta/shifta/pkg/engine/scorer"
	"github.com/shifta/shifta/pkg/errors"
	"github.com/shifta/shifta/pkg/logger"
	"github.com/shifta/shifta/pkg/model"
)

// coverageReward 单个分配的覆盖奖励
// 大于偏好得分上限，保证任何非负权重的候选人都值得分配；
// 同时小于"不可用"惩罚，保证缺员优于强行使用不可用员工
const coverageReward = 10.0

// 超时检查间隔（迭代次数）
const deadlineCheckInterval = 32

// Relaxation 求解时生效的规则放宽量，由冲突消解器逐级提高
type Relaxation struct {
	ConsecutiveDayBonus int     // 最大连续工作天数的放宽量
	RestMarginHours     float64 // 最小休息时间的放宽量（小时）
}

// Solution 求解结果
type Solution struct {
	Picks      [][]int // 槽位索引 -> 员工索引（升序）
	Shortfall  []int   // 槽位索引 -> 缺员数
	Objective  float64
	TimedOut   bool
	Iterations int
	Duration   time.Duration
}

// TotalShortfall 返回总缺员人次
func (s *Solution) TotalShortfall() int {
	total := 0
	for _, n := range s.Shortfall {
		total += n
	}
	return total
}

// UnderstaffedSlots 返回存在缺员的槽位索引（升序）
func (s *Solution) UnderstaffedSlots() []int {
	var slots []int
	for i, n := range s.Shortfall {
		if n > 0 {
			slots = append(slots, i)
		}
	}
	return slots
}

// TotalAssigned 返回总分配数
func (s *Solution) TotalAssigned() int {
	total := 0
	for _, p := range s.Picks {
		total += len(p)
	}
	return total
}

// Solver 指派求解器
type Solver struct {
	cfg    model.Config
	logger *logger.EngineLogger
}

// New 创建求解器
func New(cfg model.Config) *Solver {
	return &Solver{
		cfg:    cfg,
		logger: logger.NewEngineLogger(),
	}
}

// Solve 求解指派问题
//
// 确定性保证：权重相同的候选人按员工索引升序决胜，槽位按编译顺序处理，
// 随机数来自配置的固定种子。相同输入必然产生相同输出。
// 超时不是错误：返回当前最优解并标记 TimedOut；
// 只有模型构建无效才返回致命错误。
func (s *Solver) Solve(ctx context.Context, set *compiler.ConstraintSet, weights *scorer.Weights, relax Relaxation) (*Solution, error) {
	start := time.Now()

	if err := validateModel(set); err != nil {
		return nil, err
	}

	st := newState(set, relax)
	rng := rand.New(rand.NewSource(s.cfg.RandomSeed))

	timedOut := s.greedy(ctx, st, weights)
	iterations := 0
	if !timedOut {
		timedOut = s.repair(ctx, st, weights)
	}
	if !timedOut {
		iterations, timedOut = s.improve(ctx, st, weights, rng)
	}

	sol := &Solution{
		Picks:      st.snapshot(),
		Shortfall:  make([]int, len(set.Slots)),
		Objective:  st.objective(weights),
		TimedOut:   timedOut,
		Iterations: iterations,
		Duration:   time.Since(start),
	}
	for i, slot := range set.Slots {
		if missing := slot.Required - len(sol.Picks[i]); missing > 0 {
			sol.Shortfall[i] = missing
		}
	}
	return sol, nil
}

// validateModel 检查约束集自身的一致性，失败属于致命错误
func validateModel(set *compiler.ConstraintSet) error {
	if set == nil {
		return errors.InvalidModel("约束集为空")
	}
	for _, slot := range set.Slots {
		if slot.JobType == nil {
			return errors.InvalidModel("槽位缺少职种定义")
		}
		if slot.Required < 0 {
			return errors.InvalidModel("槽位需求人数为负数")
		}
		for _, empIdx := range slot.Eligible {
			if empIdx < 0 || empIdx >= len(set.Employees) {
				return errors.InvalidModel("候选员工索引越界")
			}
		}
	}
	return nil
}

// candidates 返回槽位的候选员工，按 (权重降序, 员工索引升序) 排列
// 权重低于覆盖奖励负值的候选人被排除：宁可缺员也不强行分配
func (s *Solver) candidates(st *state, weights *scorer.Weights, slotIdx int) []int {
	slot := st.set.Slots[slotIdx]
	cands := make([]int, 0, len(slot.Eligible))
	for _, empIdx := range slot.Eligible {
		if weights.Get(slotIdx, empIdx)+coverageReward > 0 {
			cands = append(cands, empIdx)
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		wi := weights.Get(slotIdx, cands[i])
		wj := weights.Get(slotIdx, cands[j])
		if wi != wj {
			return wi > wj
		}
		return cands[i] < cands[j]
	})
	return cands
}

// greedy 贪心构造初始解：按基准顺序遍历槽位，优先分配高权重候选人
func (s *Solver) greedy(ctx context.Context, st *state, weights *scorer.Weights) bool {
	for slotIdx, slot := range st.set.Slots {
		if expired(ctx) {
			return true
		}
		if slot.Required == 0 {
			continue
		}
		for _, empIdx := range s.candidates(st, weights, slotIdx) {
			if len(st.picks[slotIdx]) >= slot.Required {
				break
			}
			if st.canAssign(empIdx, slotIdx) {
				st.assign(empIdx, slotIdx)
			}
		}
	}
	return false
}

// repair 缺员修复：尝试通过挪动阻塞分配来填补缺员槽位
//
// 对每个缺员槽位的每个候选人：若因已有分配而不可行，
// 尝试将其中一个阻塞分配交给其他可行候选人，腾出位置后再分配。
// 仅在整体覆盖不下降时接受，循环到无进展为止。
func (s *Solver) repair(ctx context.Context, st *state, weights *scorer.Weights) bool {
	for {
		progressed := false

		for slotIdx, slot := range st.set.Slots {
			if expired(ctx) {
				return true
			}
			if len(st.picks[slotIdx]) >= slot.Required {
				continue
			}

			for _, empIdx := range s.candidates(st, weights, slotIdx) {
				if len(st.picks[slotIdx]) >= slot.Required {
					break
				}
				if st.assigned(empIdx, slotIdx) {
					continue
				}
				if st.canAssign(empIdx, slotIdx) {
					st.assign(empIdx, slotIdx)
					progressed = true
					continue
				}
				if s.relocateBlocker(st, weights, empIdx, slotIdx) {
					st.assign(empIdx, slotIdx)
					progressed = true
				}
			}
		}

		if !progressed {
			return false
		}
	}
}

// relocateBlocker 尝试将员工的一个阻塞分配转移给其他可行候选人
// 成功腾出位置返回 true，否则恢复原状返回 false
func (s *Solver) relocateBlocker(st *state, weights *scorer.Weights, empIdx, targetSlot int) bool {
	blockers := make([]int, len(st.byEmp[empIdx]))
	copy(blockers, st.byEmp[empIdx])
	sort.Ints(blockers)

	for _, blocked := range blockers {
		st.unassign(empIdx, blocked)
		if !st.canAssign(empIdx, targetSlot) {
			st.assign(empIdx, blocked)
			continue
		}

		// 为被腾出的槽位寻找替补，保证覆盖不下降
		replaced := false
		for _, alt := range s.candidates(st, weights, blocked) {
			if alt == empIdx || st.assigned(alt, blocked) {
				continue
			}
			if st.canAssign(alt, blocked) {
				st.assign(alt, blocked)
				replaced = true
				break
			}
		}
		if replaced {
			return true
		}
		st.assign(empIdx, blocked)
	}
	return false
}

// improve 局部搜索改进：用固定种子的随机替换移动提升偏好目标
// 只接受目标值严格提升的移动，当前解始终是已知最优解
func (s *Solver) improve(ctx context.Context, st *state, weights *scorer.Weights, rng *rand.Rand) (int, bool) {
	if len(st.set.Slots) == 0 {
		return 0, false
	}

	iterations := 0
	for ; iterations < s.cfg.MaxIterations; iterations++ {
		if iterations%deadlineCheckInterval == 0 && expired(ctx) {
			return iterations, true
		}

		slotIdx := rng.Intn(len(st.set.Slots))
		picks := st.picks[slotIdx]
		if len(picks) == 0 {
			continue
		}
		current := picks[rng.Intn(len(picks))]

		cands := s.candidates(st, weights, slotIdx)
		if len(cands) == 0 {
			continue
		}
		alt := cands[rng.Intn(len(cands))]
		if alt == current || st.assigned(alt, slotIdx) {
			continue
		}

		delta := weights.Get(slotIdx, alt) - weights.Get(slotIdx, current)
		if delta <= 0 {
			continue
		}

		st.unassign(current, slotIdx)
		if st.canAssign(alt, slotIdx) {
			st.assign(alt, slotIdx)
		} else {
			st.assign(current, slotIdx)
		}
	}
	return iterations, false
}

// expired 检查上下文是否已取消或超时
func expired(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
