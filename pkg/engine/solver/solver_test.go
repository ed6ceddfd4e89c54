package solver

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shifta/shifta/pkg/engine/compiler"
	"github.com/shifta/shifta/pkg/engine/scorer"
	"github.com/shifta/shifta/pkg/errors"
	"github.com/shifta/shifta/pkg/model"
)

var (
	empX = uuid.MustParse("66666666-0000-0000-0000-000000000001")
	empY = uuid.MustParse("66666666-0000-0000-0000-000000000002")
	jtA  = uuid.MustParse("77777777-0000-0000-0000-000000000001")
	jtB  = uuid.MustParse("77777777-0000-0000-0000-000000000002")
)

func buildSet(t *testing.T, input *model.Input) (*compiler.ConstraintSet, *scorer.Weights) {
	t.Helper()
	set, _, err := compiler.Compile(input)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return set, scorer.Score(set, input.Preferences, input.Config)
}

func twoEmployeeInput() *model.Input {
	return &model.Input{
		Period: model.DateRange{StartDate: "2024-03-04", EndDate: "2024-03-08"},
		Employees: []*model.Employee{
			{ID: empX, Name: "甲", Qualifications: []uuid.UUID{jtA, jtB}, MaxWeeklyHours: 40, MinRestHours: 10, MaxConsecutiveDays: 6},
			{ID: empY, Name: "乙", Qualifications: []uuid.UUID{jtA, jtB}, MaxWeeklyHours: 40, MinRestHours: 10, MaxConsecutiveDays: 6},
		},
		JobTypes: []*model.JobType{
			{ID: jtA, Name: "白班", StartTime: "09:00", EndTime: "17:00", RequiredStaff: 1},
			{ID: jtB, Name: "晚班", StartTime: "17:00", EndTime: "23:00", RequiredStaff: 1},
		},
		Config: model.DefaultConfig(),
	}
}

func TestSolver_Solve_贪心填满(t *testing.T) {
	input := twoEmployeeInput()
	input.Slots = []*model.Slot{
		model.NewSlot("2024-03-04", jtA),
		model.NewSlot("2024-03-04", jtB),
	}
	set, weights := buildSet(t, input)

	sol, err := New(input.Config).Solve(context.Background(), set, weights, Relaxation{})
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	if sol.TotalAssigned() != 2 {
		t.Errorf("TotalAssigned() = %d, want 2", sol.TotalAssigned())
	}
	if sol.TotalShortfall() != 0 {
		t.Errorf("TotalShortfall() = %d, want 0", sol.TotalShortfall())
	}
	if sol.TimedOut {
		t.Errorf("不应超时")
	}

	// 白班晚班间休息为0，两个班次必须不同员工
	if reflect.DeepEqual(sol.Picks[0], sol.Picks[1]) {
		t.Errorf("同一员工承担了休息不足的两个班次")
	}
}

func TestSolver_Solve_偏好优先(t *testing.T) {
	input := twoEmployeeInput()
	input.Slots = []*model.Slot{model.NewSlot("2024-03-04", jtA)}
	// 乙强烈偏好该槽位
	input.Preferences = []*model.PreferenceEntry{
		{EmployeeID: empY, Date: "2024-03-04", JobTypeID: jtA, Score: 5},
	}
	set, weights := buildSet(t, input)

	sol, err := New(input.Config).Solve(context.Background(), set, weights, Relaxation{})
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	if len(sol.Picks[0]) != 1 {
		t.Fatalf("Picks[0] = %v, want 1人", sol.Picks[0])
	}
	if set.Employees[sol.Picks[0][0]].ID != empY {
		t.Errorf("高偏好员工未被优先分配")
	}
}

func TestSolver_Solve_不可用候选人宁缺勿用(t *testing.T) {
	input := twoEmployeeInput()
	input.Employees = input.Employees[:1] // 只留甲
	input.Slots = []*model.Slot{model.NewSlot("2024-03-04", jtA)}
	input.Preferences = []*model.PreferenceEntry{
		{EmployeeID: empX, Date: "2024-03-04", JobTypeID: jtA, Score: model.ScoreUnavailable},
	}
	set, weights := buildSet(t, input)

	sol, err := New(input.Config).Solve(context.Background(), set, weights, Relaxation{})
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	if sol.TotalAssigned() != 0 {
		t.Errorf("不可用员工不应被分配，TotalAssigned() = %d", sol.TotalAssigned())
	}
	if sol.TotalShortfall() != 1 {
		t.Errorf("TotalShortfall() = %d, want 1", sol.TotalShortfall())
	}
	if got := sol.UnderstaffedSlots(); len(got) != 1 || got[0] != 0 {
		t.Errorf("UnderstaffedSlots() = %v, want [0]", got)
	}
}

func TestSolver_Solve_休息时间放宽(t *testing.T) {
	// 晚班23:00结束，次日09:00开始，休息10小时
	input := twoEmployeeInput()
	input.Employees = input.Employees[:1]
	input.Employees[0].MinRestHours = 12
	input.Slots = []*model.Slot{
		model.NewSlot("2024-03-04", jtB),
		model.NewSlot("2024-03-05", jtA),
	}
	set, weights := buildSet(t, input)

	// 不放宽：第二个班次无法分配
	sol, err := New(input.Config).Solve(context.Background(), set, weights, Relaxation{})
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if sol.TotalAssigned() != 1 {
		t.Errorf("未放宽时 TotalAssigned() = %d, want 1", sol.TotalAssigned())
	}

	// 放宽2小时后休息要求降为10小时，两个班次都可分配
	sol, err = New(input.Config).Solve(context.Background(), set, weights, Relaxation{RestMarginHours: 2})
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if sol.TotalAssigned() != 2 {
		t.Errorf("放宽后 TotalAssigned() = %d, want 2", sol.TotalAssigned())
	}
}

func TestSolver_Solve_连续天数放宽(t *testing.T) {
	input := twoEmployeeInput()
	input.Employees = input.Employees[:1]
	input.Employees[0].MaxConsecutiveDays = 2
	input.Employees[0].MinRestHours = 0
	for _, date := range []string{"2024-03-04", "2024-03-05", "2024-03-06"} {
		input.Slots = append(input.Slots, model.NewSlot(date, jtA))
	}
	set, weights := buildSet(t, input)

	sol, err := New(input.Config).Solve(context.Background(), set, weights, Relaxation{})
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if sol.TotalAssigned() != 2 {
		t.Errorf("未放宽时 TotalAssigned() = %d, want 2", sol.TotalAssigned())
	}

	sol, err = New(input.Config).Solve(context.Background(), set, weights, Relaxation{ConsecutiveDayBonus: 1})
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if sol.TotalAssigned() != 3 {
		t.Errorf("放宽后 TotalAssigned() = %d, want 3", sol.TotalAssigned())
	}
}

func TestSolver_Solve_每周工时上限(t *testing.T) {
	input := twoEmployeeInput()
	input.Employees = input.Employees[:1]
	input.Employees[0].MaxWeeklyHours = 20 // 白班8小时，一周最多2个
	input.Employees[0].MinRestHours = 0
	for _, date := range []string{"2024-03-04", "2024-03-05", "2024-03-06"} {
		input.Slots = append(input.Slots, model.NewSlot(date, jtA))
	}
	set, weights := buildSet(t, input)

	sol, err := New(input.Config).Solve(context.Background(), set, weights, Relaxation{})
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if sol.TotalAssigned() != 2 {
		t.Errorf("TotalAssigned() = %d, want 2", sol.TotalAssigned())
	}
}

func TestSolver_Solve_确定性(t *testing.T) {
	build := func() (*compiler.ConstraintSet, *scorer.Weights, model.Config) {
		input := twoEmployeeInput()
		for _, date := range []string{"2024-03-04", "2024-03-05", "2024-03-06"} {
			input.Slots = append(input.Slots,
				model.NewSlot(date, jtA),
				model.NewSlot(date, jtB),
			)
		}
		input.Preferences = []*model.PreferenceEntry{
			{EmployeeID: empX, Date: "2024-03-05", JobTypeID: jtA, Score: 5},
			{EmployeeID: empY, Date: "2024-03-05", JobTypeID: jtA, Score: 5}, // 同分，按索引决胜
		}
		set, _, err := compiler.Compile(input)
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
		return set, scorer.Score(set, input.Preferences, input.Config), input.Config
	}

	set1, w1, cfg := build()
	sol1, err := New(cfg).Solve(context.Background(), set1, w1, Relaxation{})
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	set2, w2, _ := build()
	sol2, err := New(cfg).Solve(context.Background(), set2, w2, Relaxation{})
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	if !reflect.DeepEqual(sol1.Picks, sol2.Picks) {
		t.Errorf("相同输入产生不同解:\n%v\n%v", sol1.Picks, sol2.Picks)
	}
	if sol1.Objective != sol2.Objective {
		t.Errorf("目标值不一致: %v vs %v", sol1.Objective, sol2.Objective)
	}
}

func TestSolver_Solve_超时返回当前解(t *testing.T) {
	input := twoEmployeeInput()
	input.Slots = []*model.Slot{model.NewSlot("2024-03-04", jtA)}
	set, weights := buildSet(t, input)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	sol, err := New(input.Config).Solve(ctx, set, weights, Relaxation{})
	if err != nil {
		t.Fatalf("超时不应是错误: %v", err)
	}
	if !sol.TimedOut {
		t.Errorf("TimedOut = false, want true")
	}
	if sol.Picks == nil {
		t.Errorf("超时仍须返回解的快照")
	}
}

func TestSolver_Solve_模型无效_致命错误(t *testing.T) {
	tests := []struct {
		name string
		set  *compiler.ConstraintSet
	}{
		{name: "约束集为空", set: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(model.DefaultConfig()).Solve(context.Background(), tt.set, nil, Relaxation{})
			if err == nil {
				t.Fatalf("Solve() error = nil, want 致命错误")
			}
			if !errors.Is(err, errors.CodeInvalidModel) {
				t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.CodeInvalidModel)
			}
		})
	}
}
