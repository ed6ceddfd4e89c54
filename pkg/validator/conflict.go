// Package validator 提供排班方案的独立验证功能
package validator

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shifta/shifta/pkg/model"
)

// ViolationType 违规类型
type ViolationType string

const (
	ViolationOverlap       ViolationType = "overlap"       // 时间重叠
	ViolationRestTime      ViolationType = "rest_time"     // 休息时间不足
	ViolationConsecutive   ViolationType = "consecutive"   // 连续天数过多
	ViolationQualification ViolationType = "qualification" // 资格不匹配
	ViolationWeeklyHours   ViolationType = "weekly_hours"  // 超过每周最大工时
)

// Violation 违规信息
type Violation struct {
	Type        ViolationType `json:"type"`
	EmployeeID  uuid.UUID     `json:"employee_id"`
	Date        string        `json:"date"`
	Message     string        `json:"message"`
	Assignments []uuid.UUID   `json:"assignments,omitempty"` // 相关的分配ID
}

// Relaxation 验证时承认的规则放宽量
// 引擎在放宽级别下产出的方案按放宽后的限值验证
type Relaxation struct {
	ConsecutiveDayBonus int
	RestMarginHours     float64
}

// Config 检查器配置
type Config struct {
	EnforceRestHours       bool
	EnforceConsecutiveDays bool
	EnforceWeeklyHours     bool
	Relaxation             Relaxation
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		EnforceRestHours:       true,
		EnforceConsecutiveDays: true,
		EnforceWeeklyHours:     true,
	}
}

// Checker 排班方案检查器
type Checker struct {
	config Config
}

// New 创建检查器
func New(config Config) *Checker {
	return &Checker{config: config}
}

// Check 检查整套方案的硬性不变量
func (c *Checker) Check(assignments []*model.Assignment, employees []*model.Employee, jobTypes []*model.JobType) []Violation {
	var violations []Violation

	empByID := make(map[uuid.UUID]*model.Employee, len(employees))
	for _, emp := range employees {
		empByID[emp.ID] = emp
	}
	jtByID := make(map[uuid.UUID]*model.JobType, len(jobTypes))
	for _, jt := range jobTypes {
		jtByID[jt.ID] = jt
	}

	violations = append(violations, c.checkQualifications(assignments, empByID, jtByID)...)

	byEmployee := groupByEmployee(assignments)
	empIDs := make([]uuid.UUID, 0, len(byEmployee))
	for id := range byEmployee {
		empIDs = append(empIDs, id)
	}
	sort.Slice(empIDs, func(i, j int) bool { return empIDs[i].String() < empIDs[j].String() })

	for _, empID := range empIDs {
		emp := empByID[empID]
		if emp == nil {
			continue
		}
		empAssignments := byEmployee[empID]
		violations = append(violations, c.checkOverlaps(emp, empAssignments)...)
		if c.config.EnforceRestHours {
			violations = append(violations, c.checkRestTime(emp, empAssignments)...)
		}
		if c.config.EnforceConsecutiveDays {
			violations = append(violations, c.checkConsecutiveDays(emp, empAssignments)...)
		}
		if c.config.EnforceWeeklyHours {
			violations = append(violations, c.checkWeeklyHours(emp, empAssignments)...)
		}
	}

	return violations
}

// checkQualifications 检查每个分配的员工是否具备职种资格
func (c *Checker) checkQualifications(assignments []*model.Assignment, employees map[uuid.UUID]*model.Employee, jobTypes map[uuid.UUID]*model.JobType) []Violation {
	var violations []Violation

	for _, a := range assignments {
		emp := employees[a.EmployeeID]
		jt := jobTypes[a.JobTypeID]
		if emp == nil || jt == nil {
			continue
		}
		if !emp.IsQualified(jt.Qualification()) {
			violations = append(violations, Violation{
				Type:        ViolationQualification,
				EmployeeID:  emp.ID,
				Date:        a.Date,
				Message:     fmt.Sprintf("员工 %s 不具备职种 '%s' 的任职资格", emp.Name, jt.Name),
				Assignments: []uuid.UUID{a.ID},
			})
		}
	}

	return violations
}

// checkOverlaps 检查时间重叠
func (c *Checker) checkOverlaps(emp *model.Employee, assignments []*model.Assignment) []Violation {
	var violations []Violation

	sorted := sortByStart(assignments)
	for i := 0; i < len(sorted)-1; i++ {
		for j := i + 1; j < len(sorted); j++ {
			if !sorted[i].Overlaps(sorted[j]) {
				break
			}
			violations = append(violations, Violation{
				Type:        ViolationOverlap,
				EmployeeID:  emp.ID,
				Date:        sorted[i].Date,
				Message:     fmt.Sprintf("员工 %s 在 %s 存在时间重叠的分配", emp.Name, sorted[i].Date),
				Assignments: []uuid.UUID{sorted[i].ID, sorted[j].ID},
			})
		}
	}

	return violations
}

// checkRestTime 检查班次间休息时间
func (c *Checker) checkRestTime(emp *model.Employee, assignments []*model.Assignment) []Violation {
	var violations []Violation

	if emp.MinRestHours <= 0 || len(assignments) < 2 {
		return violations
	}

	minRest := emp.MinRestHours - c.config.Relaxation.RestMarginHours
	if minRest < 0 {
		minRest = 0
	}

	sorted := sortByStart(assignments)
	for i := 0; i < len(sorted)-1; i++ {
		rest := model.RestHoursBetween(sorted[i].Window(), sorted[i+1].Window())
		if rest >= 0 && rest < minRest {
			violations = append(violations, Violation{
				Type:        ViolationRestTime,
				EmployeeID:  emp.ID,
				Date:        sorted[i+1].Date,
				Message:     fmt.Sprintf("员工 %s 班次间休息仅 %.1f 小时，少于要求的 %.1f 小时", emp.Name, rest, minRest),
				Assignments: []uuid.UUID{sorted[i].ID, sorted[i+1].ID},
			})
		}
	}

	return violations
}

// checkConsecutiveDays 检查整个周期内的最大连续工作天数
func (c *Checker) checkConsecutiveDays(emp *model.Employee, assignments []*model.Assignment) []Violation {
	var violations []Violation

	if emp.MaxConsecutiveDays <= 0 || len(assignments) == 0 {
		return violations
	}
	maxDays := emp.MaxConsecutiveDays + c.config.Relaxation.ConsecutiveDayBonus

	workDates := make(map[string]bool)
	for _, a := range assignments {
		workDates[a.Date] = true
	}
	dates := make([]string, 0, len(workDates))
	for d := range workDates {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	consecutive := 1
	maxConsecutive := 1
	startDate := dates[0]
	for i := 1; i < len(dates); i++ {
		if model.IsConsecutiveDate(dates[i-1], dates[i]) {
			consecutive++
			if consecutive > maxConsecutive {
				maxConsecutive = consecutive
			}
		} else {
			consecutive = 1
			startDate = dates[i]
		}
	}

	if maxConsecutive > maxDays {
		violations = append(violations, Violation{
			Type:       ViolationConsecutive,
			EmployeeID: emp.ID,
			Date:       startDate,
			Message:    fmt.Sprintf("员工 %s 连续工作 %d 天，超过限制 %d 天", emp.Name, maxConsecutive, maxDays),
		})
	}

	return violations
}

// checkWeeklyHours 检查每周工时上限
func (c *Checker) checkWeeklyHours(emp *model.Employee, assignments []*model.Assignment) []Violation {
	var violations []Violation

	if emp.MaxWeeklyHours <= 0 {
		return violations
	}

	hoursByWeek := make(map[string]float64)
	for _, a := range assignments {
		hoursByWeek[model.WeekStart(a.Date)] += a.WorkingHours()
	}

	weeks := make([]string, 0, len(hoursByWeek))
	for w := range hoursByWeek {
		weeks = append(weeks, w)
	}
	sort.Strings(weeks)

	for _, week := range weeks {
		if hoursByWeek[week] > emp.MaxWeeklyHours {
			violations = append(violations, Violation{
				Type:       ViolationWeeklyHours,
				EmployeeID: emp.ID,
				Date:       week,
				Message:    fmt.Sprintf("员工 %s 在周 %s 工作 %.1f 小时，超过限制 %.1f 小时", emp.Name, week, hoursByWeek[week], emp.MaxWeeklyHours),
			})
		}
	}

	return violations
}

// sortByStart 按开始时间排序（副本）
func sortByStart(assignments []*model.Assignment) []*model.Assignment {
	sorted := make([]*model.Assignment, len(assignments))
	copy(sorted, assignments)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})
	return sorted
}

// groupByEmployee 按员工分组
func groupByEmployee(assignments []*model.Assignment) map[uuid.UUID][]*model.Assignment {
	result := make(map[uuid.UUID][]*model.Assignment)
	for _, a := range assignments {
		result[a.EmployeeID] = append(result[a.EmployeeID], a)
	}
	return result
}
