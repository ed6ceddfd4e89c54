package validator

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shifta/shifta/pkg/model"
)

var (
	empX = uuid.MustParse("aaaa0000-0000-0000-0000-000000000001")
	jtA  = uuid.MustParse("bbbb0000-0000-0000-0000-000000000001")
	jtB  = uuid.MustParse("bbbb0000-0000-0000-0000-000000000002")
)

func testEmployee() *model.Employee {
	return &model.Employee{
		ID:                 empX,
		Name:               "甲",
		Qualifications:     []uuid.UUID{jtA},
		MaxWeeklyHours:     40,
		MinRestHours:       11,
		MaxConsecutiveDays: 3,
	}
}

func assignment(date, start, end string, jtID uuid.UUID) *model.Assignment {
	day, _ := time.Parse(model.DateLayout, date)
	s, _ := time.Parse(model.ClockLayout, start)
	e, _ := time.Parse(model.ClockLayout, end)
	startAt := time.Date(day.Year(), day.Month(), day.Day(), s.Hour(), s.Minute(), 0, 0, time.UTC)
	endAt := time.Date(day.Year(), day.Month(), day.Day(), e.Hour(), e.Minute(), 0, 0, time.UTC)
	if !endAt.After(startAt) {
		endAt = endAt.Add(24 * time.Hour)
	}
	slotID := model.NewSlot(date, jtID).ID
	return &model.Assignment{
		ID:         model.NewAssignmentID(slotID, empX),
		SlotID:     slotID,
		EmployeeID: empX,
		JobTypeID:  jtID,
		Date:       date,
		StartTime:  startAt,
		EndTime:    endAt,
	}
}

func TestChecker_Check(t *testing.T) {
	jobTypes := []*model.JobType{
		{ID: jtA, Name: "白班", StartTime: "09:00", EndTime: "17:00"},
		{ID: jtB, Name: "夜班", StartTime: "22:00", EndTime: "06:00"},
	}

	tests := []struct {
		name        string
		config      Config
		assignments []*model.Assignment
		wantTypes   []ViolationType
	}{
		{
			name:   "合规方案无违规",
			config: DefaultConfig(),
			assignments: []*model.Assignment{
				assignment("2024-03-04", "09:00", "17:00", jtA),
				assignment("2024-03-05", "09:00", "17:00", jtA),
			},
			wantTypes: nil,
		},
		{
			name:   "时间重叠",
			config: DefaultConfig(),
			assignments: []*model.Assignment{
				assignment("2024-03-04", "09:00", "17:00", jtA),
				{
					ID:         uuid.MustParse("cccc0000-0000-0000-0000-000000000001"),
					SlotID:     uuid.MustParse("cccc0000-0000-0000-0000-000000000002"),
					EmployeeID: empX,
					JobTypeID:  jtA,
					Date:       "2024-03-04",
					StartTime:  time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC),
					EndTime:    time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC),
				},
			},
			wantTypes: []ViolationType{ViolationOverlap},
		},
		{
			name:   "资格不匹配",
			config: DefaultConfig(),
			assignments: []*model.Assignment{
				assignment("2024-03-04", "22:00", "06:00", jtB), // 甲无夜班资格
			},
			wantTypes: []ViolationType{ViolationQualification},
		},
		{
			name:   "休息时间不足",
			config: DefaultConfig(),
			assignments: []*model.Assignment{
				assignment("2024-03-04", "12:00", "20:00", jtA),
				assignment("2024-03-05", "01:00", "06:00", jtA), // 仅5小时休息
			},
			wantTypes: []ViolationType{ViolationRestTime},
		},
		{
			name: "休息时间在放宽余量内不违规",
			config: Config{
				EnforceRestHours: true,
				Relaxation:       Relaxation{RestMarginHours: 3},
			},
			assignments: []*model.Assignment{
				assignment("2024-03-04", "09:00", "17:00", jtA),
				assignment("2024-03-05", "02:00", "10:00", jtA), // 9小时休息，放宽后限值8
			},
			wantTypes: nil,
		},
		{
			name:   "连续天数超限",
			config: Config{EnforceConsecutiveDays: true},
			assignments: []*model.Assignment{
				assignment("2024-03-04", "09:00", "17:00", jtA),
				assignment("2024-03-05", "09:00", "17:00", jtA),
				assignment("2024-03-06", "09:00", "17:00", jtA),
				assignment("2024-03-07", "09:00", "17:00", jtA), // 连续4天，限制3天
			},
			wantTypes: []ViolationType{ViolationConsecutive},
		},
		{
			name: "连续天数在放宽余量内不违规",
			config: Config{
				EnforceConsecutiveDays: true,
				Relaxation:             Relaxation{ConsecutiveDayBonus: 1},
			},
			assignments: []*model.Assignment{
				assignment("2024-03-04", "09:00", "17:00", jtA),
				assignment("2024-03-05", "09:00", "17:00", jtA),
				assignment("2024-03-06", "09:00", "17:00", jtA),
				assignment("2024-03-07", "09:00", "17:00", jtA),
			},
			wantTypes: nil,
		},
		{
			name:   "每周工时超限",
			config: Config{EnforceWeeklyHours: true},
			assignments: []*model.Assignment{
				// 同一周内6个8小时班次 = 48小时 > 40
				assignment("2024-03-04", "09:00", "17:00", jtA),
				assignment("2024-03-05", "09:00", "17:00", jtA),
				assignment("2024-03-06", "09:00", "17:00", jtA),
				assignment("2024-03-07", "09:00", "17:00", jtA),
				assignment("2024-03-08", "09:00", "17:00", jtA),
				assignment("2024-03-09", "09:00", "17:00", jtA),
			},
			wantTypes: []ViolationType{ViolationWeeklyHours},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(tt.config)
			violations := checker.Check(tt.assignments, []*model.Employee{testEmployee()}, jobTypes)

			if len(violations) != len(tt.wantTypes) {
				t.Fatalf("violations = %d (%v), want %d", len(violations), violations, len(tt.wantTypes))
			}
			for i, want := range tt.wantTypes {
				if violations[i].Type != want {
					t.Errorf("violations[%d].Type = %v, want %v", i, violations[i].Type, want)
				}
			}
		})
	}
}

func TestChecker_Check_规则开关(t *testing.T) {
	// 全部开关关闭时，时序违规不再报告
	checker := New(Config{})
	assignments := []*model.Assignment{
		assignment("2024-03-04", "12:00", "20:00", jtA),
		assignment("2024-03-05", "01:00", "06:00", jtA),
		assignment("2024-03-05", "09:00", "17:00", jtA),
		assignment("2024-03-06", "09:00", "17:00", jtA),
		assignment("2024-03-07", "09:00", "17:00", jtA),
		assignment("2024-03-08", "09:00", "17:00", jtA),
	}

	violations := checker.Check(assignments, []*model.Employee{testEmployee()}, []*model.JobType{
		{ID: jtA, Name: "白班", StartTime: "09:00", EndTime: "17:00"},
	})
	for _, v := range violations {
		if v.Type == ViolationRestTime || v.Type == ViolationConsecutive || v.Type == ViolationWeeklyHours {
			t.Errorf("关闭的规则仍产生违规: %v", v.Type)
		}
	}
}
