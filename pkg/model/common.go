// Package model 定义优化引擎的核心数据模型
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// 日期与时刻的统一格式
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// 派生ID的固定命名空间（保证同一输入生成相同ID）
var (
	slotNamespace       = uuid.MustParse("7b5eca1e-4f2d-4c39-9d57-8a2f0c4b6d11")
	assignmentNamespace = uuid.MustParse("3fa2d8c4-91be-4e7a-b0d3-5c6e1f9a7402")
)

// TimeRange 时间范围
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration 返回时间范围的持续时间
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Hours 返回时间范围的小时数
func (tr TimeRange) Hours() float64 {
	return tr.End.Sub(tr.Start).Hours()
}

// Overlaps 检查两个时间范围是否重叠
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// Contains 检查时间范围是否包含某个时间点
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && t.Before(tr.End)
}

// RestHoursBetween 计算两个时间范围之间的休息小时数
// 范围重叠时返回 -1
func RestHoursBetween(a, b TimeRange) float64 {
	if a.Overlaps(b) {
		return -1
	}
	if !a.End.After(b.Start) {
		return b.Start.Sub(a.End).Hours()
	}
	return a.Start.Sub(b.End).Hours()
}

// DateRange 日期范围
type DateRange struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// Days 返回日期范围内的天数
func (dr DateRange) Days() int {
	start, err1 := time.Parse(DateLayout, dr.StartDate)
	end, err2 := time.Parse(DateLayout, dr.EndDate)
	if err1 != nil || err2 != nil || end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Dates 按顺序返回日期范围内的所有日期
func (dr DateRange) Dates() ([]string, error) {
	start, err := time.Parse(DateLayout, dr.StartDate)
	if err != nil {
		return nil, fmt.Errorf("无效的开始日期 %q: %w", dr.StartDate, err)
	}
	end, err := time.Parse(DateLayout, dr.EndDate)
	if err != nil {
		return nil, fmt.Errorf("无效的结束日期 %q: %w", dr.EndDate, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("结束日期 %s 早于开始日期 %s", dr.EndDate, dr.StartDate)
	}

	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates, nil
}

// PreviousDate 获取前一天日期
func PreviousDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(DateLayout)
}

// NextDate 获取后一天日期
func NextDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, 1).Format(DateLayout)
}

// IsConsecutiveDate 检查两个日期是否相邻
func IsConsecutiveDate(date1, date2 string) bool {
	t1, err1 := time.Parse(DateLayout, date1)
	t2, err2 := time.Parse(DateLayout, date2)
	if err1 != nil || err2 != nil {
		return false
	}
	return t2.Sub(t1) == 24*time.Hour
}

// WeekStart 获取日期所在周的开始日期（周日）
func WeekStart(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, -int(t.Weekday())).Format(DateLayout)
}
