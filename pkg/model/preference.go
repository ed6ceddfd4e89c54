// Package model 定义优化引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// 偏好得分取值
const (
	ScoreUnavailable = -1 // 不可用
	ScoreMin         = 0
	ScoreMax         = 5
)

// PreferenceEntry 员工偏好提交
// 每个 (员工, 日期, 职种) 组合至多一条，重复提交属于调用方错误
type PreferenceEntry struct {
	EmployeeID uuid.UUID `json:"employee_id" db:"employee_id"`
	Date       string    `json:"date" db:"date"` // YYYY-MM-DD
	JobTypeID  uuid.UUID `json:"job_type_id" db:"job_type_id"`
	Score      int       `json:"score" db:"score"` // -1=不可用，0..5=期望程度
}

// Key 返回偏好条目的唯一键
func (p *PreferenceEntry) Key() string {
	return p.EmployeeID.String() + "/" + p.Date + "/" + p.JobTypeID.String()
}

// IsUnavailable 检查是否为不可用标记
func (p *PreferenceEntry) IsUnavailable() bool {
	return p.Score == ScoreUnavailable
}

// IsValidScore 检查得分是否在允许范围内
func (p *PreferenceEntry) IsValidScore() bool {
	return p.Score == ScoreUnavailable || (p.Score >= ScoreMin && p.Score <= ScoreMax)
}
