// Package model 定义优化引擎的核心数据模型
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobType 职种（班次模板）
type JobType struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code,omitempty" db:"code"`
	StartTime string    `json:"start_time" db:"start_time"` // HH:MM
	EndTime   string    `json:"end_time" db:"end_time"`     // HH:MM，不晚于开始时间视为跨日班次

	// 每个班次实例所需人数
	RequiredStaff int `json:"required_staff" db:"required_staff"`

	// 任职资格要求；为空时默认为职种自身ID
	RequiredQualification uuid.UUID `json:"required_qualification,omitempty" db:"required_qualification"`

	// 显示颜色（与优化无关）
	Color string `json:"color,omitempty" db:"color"`
}

// Qualification 返回职种的任职资格要求
func (j *JobType) Qualification() uuid.UUID {
	if j.RequiredQualification != uuid.Nil {
		return j.RequiredQualification
	}
	return j.ID
}

// Window 返回职种在指定日期的具体时间窗口
// 跨日班次的结束时间落在次日
func (j *JobType) Window(date string) (TimeRange, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return TimeRange{}, fmt.Errorf("日期格式无效: %s", date)
	}
	start, err := clockOnDate(day, j.StartTime)
	if err != nil {
		return TimeRange{}, fmt.Errorf("开始时间无效: %s", j.StartTime)
	}
	end, err := clockOnDate(day, j.EndTime)
	if err != nil {
		return TimeRange{}, fmt.Errorf("结束时间无效: %s", j.EndTime)
	}
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return TimeRange{Start: start, End: end}, nil
}

// DurationHours 返回班次时长（小时）
func (j *JobType) DurationHours() float64 {
	w, err := j.Window("2024-01-01")
	if err != nil {
		return 0
	}
	return w.Hours()
}

// clockOnDate 在指定日期解析 HH:MM 时刻
func clockOnDate(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

// Slot 覆盖需求实例：某日期上的一个班次模板
// 由外部排班日历展开后提供给引擎
type Slot struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Date      string    `json:"date" db:"date"` // YYYY-MM-DD
	JobTypeID uuid.UUID `json:"job_type_id" db:"job_type_id"`
}

// NewSlot 创建覆盖需求实例，ID由日期与职种派生以保证确定性
func NewSlot(date string, jobTypeID uuid.UUID) *Slot {
	return &Slot{
		ID:        uuid.NewSHA1(slotNamespace, []byte(date+"/"+jobTypeID.String())),
		Date:      date,
		JobTypeID: jobTypeID,
	}
}

// Key 返回槽位的稳定排序键
func (s *Slot) Key() string {
	return s.Date + "/" + s.JobTypeID.String()
}
