// Package scorer 将员工偏好提交转换为加权目标贡献
package scorer

import (
	"github.com/google/uuid"
	"github.com/shifta/shifta/pkg/engine/compiler"
	"github.com/shifta/shifta/pkg/model"
)

// pairKey 决策变量标识：(槽位索引, 员工索引)
type pairKey struct {
	Slot int
	Emp  int
}

// Weights 每个可行 (槽位, 员工) 对的目标权重
type Weights struct {
	weights     map[pairKey]float64
	unavailable map[pairKey]bool
	neutral     float64
}

// Get 返回变量权重；不可行对返回 0
func (w *Weights) Get(slot, emp int) float64 {
	return w.weights[pairKey{Slot: slot, Emp: emp}]
}

// IsUnavailable 检查该对是否带有"不可用"标记
func (w *Weights) IsUnavailable(slot, emp int) bool {
	return w.unavailable[pairKey{Slot: slot, Emp: emp}]
}

// RelaxUnavailable 将指定槽位上"不可用"对的权重放宽至中性值
// 返回实际放宽的对数；由冲突消解器在 L1 级别调用
func (w *Weights) RelaxUnavailable(slots []int) int {
	relaxed := 0
	for _, slot := range slots {
		for key := range w.unavailable {
			if key.Slot == slot && w.unavailable[key] {
				w.weights[key] = w.neutral
				w.unavailable[key] = false
				relaxed++
			}
		}
	}
	return relaxed
}

// Clone 深拷贝权重表（放宽操作不得污染原始权重）
func (w *Weights) Clone() *Weights {
	clone := &Weights{
		weights:     make(map[pairKey]float64, len(w.weights)),
		unavailable: make(map[pairKey]bool, len(w.unavailable)),
		neutral:     w.neutral,
	}
	for k, v := range w.weights {
		clone.weights[k] = v
	}
	for k, v := range w.unavailable {
		clone.unavailable[k] = v
	}
	return clone
}

// Score 为约束集中每个可行对计算权重
//
// 有显式偏好时使用其得分；缺省时使用配置的中性权重。
// "不可用"转换为大额负权重，建模为强软约束而非硬约束：
// 冲突消解器可以在显式放宽下作为最后手段覆盖它，
// 求解器不会无条件失败。
func Score(set *compiler.ConstraintSet, prefs []*model.PreferenceEntry, cfg model.Config) *Weights {
	// 偏好索引：(员工, 日期, 职种) -> 得分
	type prefKey struct {
		Employee uuid.UUID
		Date     string
		JobType  uuid.UUID
	}
	byKey := make(map[prefKey]int, len(prefs))
	for _, p := range prefs {
		byKey[prefKey{Employee: p.EmployeeID, Date: p.Date, JobType: p.JobTypeID}] = p.Score
	}

	w := &Weights{
		weights:     make(map[pairKey]float64),
		unavailable: make(map[pairKey]bool),
		neutral:     *cfg.NeutralWeight,
	}

	for slotIdx, slot := range set.Slots {
		for _, empIdx := range slot.Eligible {
			emp := set.Employees[empIdx]
			key := pairKey{Slot: slotIdx, Emp: empIdx}

			score, ok := byKey[prefKey{Employee: emp.ID, Date: slot.Slot.Date, JobType: slot.JobType.ID}]
			if !ok {
				// 职种留空的偏好作用于该员工当天所有槽位
				score, ok = byKey[prefKey{Employee: emp.ID, Date: slot.Slot.Date, JobType: uuid.Nil}]
			}
			switch {
			case !ok:
				w.weights[key] = w.neutral
			case score == model.ScoreUnavailable:
				w.weights[key] = -cfg.UnavailablePenalty
				w.unavailable[key] = true
			default:
				w.weights[key] = float64(score)
			}
		}
	}

	return w
}
