// Package engine 提供排班优化引擎的入口
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shifta/shifta/pkg/errors"
	"github.com/shifta/shifta/pkg/model"
)

// validateInput 在任何求解尝试前拒绝畸形或自相矛盾的输入
// 报告具体的违规记录，绝不静默丢弃
func validateInput(input *model.Input) error {
	if input == nil {
		return errors.InvalidInput("input", "输入为空")
	}

	if _, err := time.Parse(model.DateLayout, input.Period.StartDate); err != nil {
		return errors.InvalidInput("period.start_date", fmt.Sprintf("日期格式无效: %s", input.Period.StartDate))
	}
	if _, err := time.Parse(model.DateLayout, input.Period.EndDate); err != nil {
		return errors.InvalidInput("period.end_date", fmt.Sprintf("日期格式无效: %s", input.Period.EndDate))
	}
	if input.Period.Days() == 0 {
		return errors.InvalidInput("period", fmt.Sprintf("结束日期早于开始日期: %s - %s", input.Period.StartDate, input.Period.EndDate))
	}

	employees := make(map[uuid.UUID]bool, len(input.Employees))
	for _, emp := range input.Employees {
		if emp == nil || emp.ID == uuid.Nil {
			return errors.InvalidInput("employees", "员工缺少标识")
		}
		if employees[emp.ID] {
			return errors.DuplicateRecord("员工", emp.ID.String())
		}
		employees[emp.ID] = true
		if emp.MaxWeeklyHours < 0 {
			return errors.InvalidInput("employees", fmt.Sprintf("员工 %s 的每周最大工时为负数", emp.ID))
		}
		if emp.MinRestHours < 0 {
			return errors.InvalidInput("employees", fmt.Sprintf("员工 %s 的最小休息时间为负数", emp.ID))
		}
		if emp.MaxConsecutiveDays < 0 {
			return errors.InvalidInput("employees", fmt.Sprintf("员工 %s 的最大连续工作天数为负数", emp.ID))
		}
	}

	jobTypes := make(map[uuid.UUID]bool, len(input.JobTypes))
	for _, jt := range input.JobTypes {
		if jt == nil || jt.ID == uuid.Nil {
			return errors.InvalidInput("job_types", "职种缺少标识")
		}
		if jobTypes[jt.ID] {
			return errors.DuplicateRecord("职种", jt.ID.String())
		}
		jobTypes[jt.ID] = true
		if jt.RequiredStaff < 0 {
			return errors.InvalidInput("job_types", fmt.Sprintf("职种 %s 的需求人数为负数: %d", jt.ID, jt.RequiredStaff))
		}
		if _, err := time.Parse(model.ClockLayout, jt.StartTime); err != nil {
			return errors.InvalidInput("job_types", fmt.Sprintf("职种 %s 的开始时间无效: %s", jt.ID, jt.StartTime))
		}
		if _, err := time.Parse(model.ClockLayout, jt.EndTime); err != nil {
			return errors.InvalidInput("job_types", fmt.Sprintf("职种 %s 的结束时间无效: %s", jt.ID, jt.EndTime))
		}
	}

	slots := make(map[string]bool, len(input.Slots))
	for _, slot := range input.Slots {
		if slot == nil {
			return errors.InvalidInput("slots", "槽位为空")
		}
		if _, err := time.Parse(model.DateLayout, slot.Date); err != nil {
			return errors.InvalidInput("slots", fmt.Sprintf("槽位日期无效: %s", slot.Date))
		}
		if !jobTypes[slot.JobTypeID] {
			return errors.UnknownRef("槽位", slot.Key(), fmt.Sprintf("职种 %s", slot.JobTypeID))
		}
		if slots[slot.Key()] {
			return errors.DuplicateRecord("槽位", slot.Key())
		}
		slots[slot.Key()] = true
	}

	seen := make(map[string]bool, len(input.Preferences))
	for _, pref := range input.Preferences {
		if pref == nil {
			return errors.InvalidInput("preferences", "偏好条目为空")
		}
		if !employees[pref.EmployeeID] {
			return errors.UnknownRef("偏好条目", pref.Key(), fmt.Sprintf("员工 %s", pref.EmployeeID))
		}
		// 职种留空表示作用于当天所有槽位
		if pref.JobTypeID != uuid.Nil && !jobTypes[pref.JobTypeID] {
			return errors.UnknownRef("偏好条目", pref.Key(), fmt.Sprintf("职种 %s", pref.JobTypeID))
		}
		if !pref.IsValidScore() {
			return errors.InvalidInput("preferences", fmt.Sprintf("偏好条目 %s 的得分越界: %d", pref.Key(), pref.Score))
		}
		// 同一 (员工, 日期, 职种) 重复提交属于调用方错误
		if seen[pref.Key()] {
			return errors.DuplicateRecord("偏好条目", pref.Key())
		}
		seen[pref.Key()] = true
	}

	return nil
}
