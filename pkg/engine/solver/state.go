// Package solver 提供二元指派问题的求解器
package solver

import (
	"github.com/shifta/shifta/pkg/engine/compiler"
	"github.com/shifta/shifta/pkg/engine/scorer"
	"github.com/shifta/shifta/pkg/model"
)

// state 求解过程中的排班状态，维护可行性检查所需的全部索引
type state struct {
	set   *compiler.ConstraintSet
	relax Relaxation

	picks     [][]int              // 槽位索引 -> 已分配员工索引（升序）
	byEmp     [][]int              // 员工索引 -> 已分配槽位索引
	weekHours []map[string]float64 // 员工索引 -> 周起始日期 -> 小时数
	workDates []map[string]int     // 员工索引 -> 工作日期 -> 当日分配数
}

func newState(set *compiler.ConstraintSet, relax Relaxation) *state {
	st := &state{
		set:       set,
		relax:     relax,
		picks:     make([][]int, len(set.Slots)),
		byEmp:     make([][]int, len(set.Employees)),
		weekHours: make([]map[string]float64, len(set.Employees)),
		workDates: make([]map[string]int, len(set.Employees)),
	}
	for i := range set.Employees {
		st.weekHours[i] = make(map[string]float64)
		st.workDates[i] = make(map[string]int)
	}
	return st
}

// assigned 检查员工是否已分配到该槽位
func (st *state) assigned(empIdx, slotIdx int) bool {
	for _, s := range st.byEmp[empIdx] {
		if s == slotIdx {
			return true
		}
	}
	return false
}

// canAssign 检查分配是否满足全部硬性时序约束
// 约束覆盖整个排班周期，而不仅限于单周
func (st *state) canAssign(empIdx, slotIdx int) bool {
	if st.assigned(empIdx, slotIdx) {
		return false
	}

	emp := st.set.Employees[empIdx]
	slot := st.set.Slots[slotIdx]

	// 时间重叠：任何两个分配的时间窗口不得相交
	for _, s := range st.byEmp[empIdx] {
		if st.set.Slots[s].Window.Overlaps(slot.Window) {
			return false
		}
	}

	// 班次间最小休息
	if st.set.Rules.EnforceRest && emp.MinRestHours > 0 {
		minRest := emp.MinRestHours - st.relax.RestMarginHours
		if minRest < 0 {
			minRest = 0
		}
		for _, s := range st.byEmp[empIdx] {
			rest := model.RestHoursBetween(st.set.Slots[s].Window, slot.Window)
			if rest >= 0 && rest < minRest {
				return false
			}
		}
	}

	// 最大连续工作天数
	if st.set.Rules.EnforceConsecutive && emp.MaxConsecutiveDays > 0 {
		// 同一天已有分配时不会新增工作日，无需检查
		if st.workDates[empIdx][slot.Slot.Date] == 0 {
			maxDays := emp.MaxConsecutiveDays + st.relax.ConsecutiveDayBonus
			if st.consecutiveRunWith(empIdx, slot.Slot.Date) > maxDays {
				return false
			}
		}
	}

	// 每周最大工时
	if st.set.Rules.EnforceWeekly && emp.MaxWeeklyHours > 0 {
		week := model.WeekStart(slot.Slot.Date)
		if st.weekHours[empIdx][week]+slot.Window.Hours() > emp.MaxWeeklyHours {
			return false
		}
	}

	return true
}

// consecutiveRunWith 计算加入目标日期后形成的最大连续工作天数
func (st *state) consecutiveRunWith(empIdx int, date string) int {
	dates := st.workDates[empIdx]

	run := 1
	current := model.PreviousDate(date)
	for dates[current] > 0 {
		run++
		current = model.PreviousDate(current)
		if run > 60 { // 防止无限循环
			break
		}
	}
	current = model.NextDate(date)
	for dates[current] > 0 {
		run++
		current = model.NextDate(current)
		if run > 60 {
			break
		}
	}
	return run
}

// assign 执行分配并更新索引
func (st *state) assign(empIdx, slotIdx int) {
	slot := st.set.Slots[slotIdx]

	// 保持槽位内员工索引升序，输出顺序由此保证确定性
	inserted := false
	for i, e := range st.picks[slotIdx] {
		if empIdx < e {
			st.picks[slotIdx] = append(st.picks[slotIdx][:i], append([]int{empIdx}, st.picks[slotIdx][i:]...)...)
			inserted = true
			break
		}
	}
	if !inserted {
		st.picks[slotIdx] = append(st.picks[slotIdx], empIdx)
	}

	st.byEmp[empIdx] = append(st.byEmp[empIdx], slotIdx)
	st.weekHours[empIdx][model.WeekStart(slot.Slot.Date)] += slot.Window.Hours()
	st.workDates[empIdx][slot.Slot.Date]++
}

// unassign 撤销分配并更新索引
func (st *state) unassign(empIdx, slotIdx int) {
	slot := st.set.Slots[slotIdx]

	for i, e := range st.picks[slotIdx] {
		if e == empIdx {
			st.picks[slotIdx] = append(st.picks[slotIdx][:i], st.picks[slotIdx][i+1:]...)
			break
		}
	}
	for i, s := range st.byEmp[empIdx] {
		if s == slotIdx {
			st.byEmp[empIdx] = append(st.byEmp[empIdx][:i], st.byEmp[empIdx][i+1:]...)
			break
		}
	}

	week := model.WeekStart(slot.Slot.Date)
	st.weekHours[empIdx][week] -= slot.Window.Hours()
	if st.weekHours[empIdx][week] <= 0 {
		delete(st.weekHours[empIdx], week)
	}
	st.workDates[empIdx][slot.Slot.Date]--
	if st.workDates[empIdx][slot.Slot.Date] <= 0 {
		delete(st.workDates[empIdx], slot.Slot.Date)
	}
}

// objective 计算当前状态的目标值：偏好权重总和加覆盖奖励
func (st *state) objective(weights *scorer.Weights) float64 {
	total := 0.0
	for slotIdx, picks := range st.picks {
		for _, empIdx := range picks {
			total += weights.Get(slotIdx, empIdx) + coverageReward
		}
	}
	return total
}

// snapshot 导出当前分配方案的深拷贝
func (st *state) snapshot() [][]int {
	picks := make([][]int, len(st.picks))
	for i, p := range st.picks {
		picks[i] = make([]int, len(p))
		copy(picks[i], p)
	}
	return picks
}
