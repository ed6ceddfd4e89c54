// Package stats 提供排班结果的统计分析功能
package stats

import (
	"math"

	"github.com/google/uuid"
	"github.com/shifta/shifta/pkg/model"
)

// Compute 计算一次排班运行的汇总统计
func Compute(input *model.Input, assignments []*model.Assignment) *model.Statistics {
	s := &model.Statistics{}

	jtByID := make(map[uuid.UUID]*model.JobType, len(input.JobTypes))
	for _, jt := range input.JobTypes {
		jtByID[jt.ID] = jt
	}

	// 需求侧：每个槽位需要的人数
	s.TotalSlots = len(input.Slots)
	for _, slot := range input.Slots {
		if jt := jtByID[slot.JobTypeID]; jt != nil {
			s.RequiredPositions += jt.RequiredStaff
		}
	}

	// 供给侧：实际分配
	assignedBySlot := make(map[uuid.UUID]int)
	hoursByEmployee := make(map[uuid.UUID]float64)
	for _, a := range assignments {
		assignedBySlot[a.SlotID]++
		hoursByEmployee[a.EmployeeID] += a.WorkingHours()
		s.TotalHours += a.WorkingHours()
	}
	s.AssignedPositions = len(assignments)

	for _, slot := range input.Slots {
		jt := jtByID[slot.JobTypeID]
		if jt == nil || jt.RequiredStaff <= 0 {
			continue
		}
		if assignedBySlot[slot.ID] >= jt.RequiredStaff {
			s.FilledSlots++
		}
	}

	if s.RequiredPositions > 0 {
		s.FillRate = float64(s.AssignedPositions) / float64(s.RequiredPositions)
		if s.FillRate > 1 {
			s.FillRate = 1
		}
	}

	if len(input.Employees) > 0 {
		s.AvgHoursPerEmployee = s.TotalHours / float64(len(input.Employees))
	}

	s.FairnessScore = fairnessScore(input.Employees, hoursByEmployee)

	return s
}

// fairnessScore 基于工时变异系数计算公平性评分 (0-100)
// 所有员工工时相同时为 100，分布越分散分数越低
func fairnessScore(employees []*model.Employee, hoursByEmployee map[uuid.UUID]float64) float64 {
	if len(employees) == 0 {
		return 100
	}

	hours := make([]float64, 0, len(employees))
	var total float64
	for _, emp := range employees {
		h := hoursByEmployee[emp.ID]
		hours = append(hours, h)
		total += h
	}
	mean := total / float64(len(hours))
	if mean == 0 {
		return 100
	}

	var variance float64
	for _, h := range hours {
		variance += (h - mean) * (h - mean)
	}
	variance /= float64(len(hours))
	cv := math.Sqrt(variance) / mean

	score := 100 * (1 - cv)
	if score < 0 {
		score = 0
	}
	return math.Round(score*10) / 10
}
