// Package compiler 将领域模型事实编译为求解器可消费的归一化约束集
package compiler

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shifta/shifta/pkg/model"
)

// CompiledSlot 归一化槽位：时间窗口已展开，候选员工已筛选
type CompiledSlot struct {
	Slot     *model.Slot
	JobType  *model.JobType
	Window   model.TimeRange
	Required int

	// 具备任职资格的员工索引（指向 ConstraintSet.Employees），按员工ID升序
	Eligible []int
}

// Rules 作用于整个排班周期的员工时序规则
type Rules struct {
	EnforceRest        bool
	EnforceConsecutive bool
	EnforceWeekly      bool
}

// ConstraintSet 归一化约束集：求解器的唯一输入模型
type ConstraintSet struct {
	Period    model.DateRange
	Employees []*model.Employee // 按ID升序
	Slots     []*CompiledSlot   // 按 (日期, 开始时刻, 职种ID) 排序
	Rules     Rules

	jobTypes map[uuid.UUID]*model.JobType
}

// EmployeeIndex 返回员工在约束集中的索引，不存在时返回 -1
func (s *ConstraintSet) EmployeeIndex(id uuid.UUID) int {
	for i, e := range s.Employees {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// JobType 按ID获取职种
func (s *ConstraintSet) JobType(id uuid.UUID) *model.JobType {
	return s.jobTypes[id]
}

// Compile 编译归一化约束集（纯变换，无副作用）
//
// 无资格候选人的槽位在此处直接判定为预求解不可行：
// 任何求解迭代都无法修复它，因此不进入模型，而是立即产生冲突记录。
func Compile(input *model.Input) (*ConstraintSet, []*model.Conflict, error) {
	set := &ConstraintSet{
		Period: input.Period,
		Rules: Rules{
			EnforceRest:        input.Config.EnforceRestHours,
			EnforceConsecutive: input.Config.EnforceConsecutiveDays,
			EnforceWeekly:      input.Config.EnforceWeeklyHours,
		},
		jobTypes: make(map[uuid.UUID]*model.JobType, len(input.JobTypes)),
	}

	// 员工按ID升序，保证后续所有按索引的遍历都是确定性的
	set.Employees = make([]*model.Employee, len(input.Employees))
	copy(set.Employees, input.Employees)
	sort.Slice(set.Employees, func(i, j int) bool {
		return set.Employees[i].ID.String() < set.Employees[j].ID.String()
	})

	for _, jt := range input.JobTypes {
		set.jobTypes[jt.ID] = jt
	}

	var preConflicts []*model.Conflict

	for _, slot := range input.Slots {
		jt := set.jobTypes[slot.JobTypeID]
		if jt == nil {
			// 输入验证应已拦截，此处属于模型构建错误
			return nil, nil, fmt.Errorf("槽位 %s 引用了未知职种 %s", slot.Key(), slot.JobTypeID)
		}

		window, err := jt.Window(slot.Date)
		if err != nil {
			return nil, nil, fmt.Errorf("槽位 %s 时间窗口无效: %w", slot.Key(), err)
		}

		compiled := &CompiledSlot{
			Slot:     slot,
			JobType:  jt,
			Window:   window,
			Required: jt.RequiredStaff,
		}

		// 资格约束：只有具备资格的 (槽位, 员工) 对才成为决策变量
		qualification := jt.Qualification()
		for i, emp := range set.Employees {
			if emp.IsQualified(qualification) {
				compiled.Eligible = append(compiled.Eligible, i)
			}
		}

		if compiled.Required > 0 && len(compiled.Eligible) == 0 {
			preConflicts = append(preConflicts, &model.Conflict{
				Kind:      model.ConflictNoEligibleStaff,
				Severity:  model.SeverityError,
				SlotID:    slot.ID,
				JobTypeID: jt.ID,
				Date:      slot.Date,
				Message:   fmt.Sprintf("%s 职种 '%s' 无可用人选（需要 %d 人）", slot.Date, jt.Name, compiled.Required),
			})
			continue
		}

		set.Slots = append(set.Slots, compiled)
	}

	// 槽位按日期、开始时刻、职种ID排序，作为求解和输出的基准顺序
	sort.Slice(set.Slots, func(i, j int) bool {
		si, sj := set.Slots[i], set.Slots[j]
		if si.Slot.Date != sj.Slot.Date {
			return si.Slot.Date < sj.Slot.Date
		}
		if !si.Window.Start.Equal(sj.Window.Start) {
			return si.Window.Start.Before(sj.Window.Start)
		}
		return si.JobType.ID.String() < sj.JobType.ID.String()
	})

	return set, preConflicts, nil
}
