// Package model 定义优化引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// EmploymentType 雇佣形态
type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "full_time" // 全职
	EmploymentPartTime EmploymentType = "part_time" // 兼职
)

// Employee 员工
// 每次优化运行中员工记录为只读，由外部HR系统提供
type Employee struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
	Code string    `json:"code,omitempty" db:"code"`

	// 任职资格：可胜任的职种ID集合
	Qualifications []uuid.UUID `json:"qualifications" db:"qualifications"`

	// 排班规则参数
	MaxWeeklyHours     float64 `json:"max_weekly_hours" db:"max_weekly_hours"`
	MinRestHours       float64 `json:"min_rest_hours" db:"min_rest_hours"`
	MaxConsecutiveDays int     `json:"max_consecutive_days" db:"max_consecutive_days"`

	// 雇佣形态（影响周工时目标）
	EmploymentType EmploymentType `json:"employment_type" db:"employment_type"`
}

// IsQualified 检查员工是否具备某职种资格
func (e *Employee) IsQualified(jobTypeID uuid.UUID) bool {
	for _, q := range e.Qualifications {
		if q == jobTypeID {
			return true
		}
	}
	return false
}

// WeeklyHourTarget 返回周工时目标
// 未显式设置时按雇佣形态取默认值
func (e *Employee) WeeklyHourTarget() float64 {
	if e.MaxWeeklyHours > 0 {
		return e.MaxWeeklyHours
	}
	if e.EmploymentType == EmploymentPartTime {
		return 24
	}
	return 40
}
