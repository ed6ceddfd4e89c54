package compiler

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shifta/shifta/pkg/model"
)

var (
	empX = uuid.MustParse("11111111-0000-0000-0000-000000000001")
	empY = uuid.MustParse("11111111-0000-0000-0000-000000000002")
	jtA  = uuid.MustParse("22222222-0000-0000-0000-000000000001")
	jtB  = uuid.MustParse("22222222-0000-0000-0000-000000000002")
)

func testInput() *model.Input {
	return &model.Input{
		Period: model.DateRange{StartDate: "2024-03-04", EndDate: "2024-03-05"},
		Employees: []*model.Employee{
			{ID: empY, Name: "乙", Qualifications: []uuid.UUID{jtA, jtB}},
			{ID: empX, Name: "甲", Qualifications: []uuid.UUID{jtA}},
		},
		JobTypes: []*model.JobType{
			{ID: jtA, Name: "白班", StartTime: "09:00", EndTime: "17:00", RequiredStaff: 1},
			{ID: jtB, Name: "夜班", StartTime: "22:00", EndTime: "06:00", RequiredStaff: 1},
		},
		Config: model.DefaultConfig(),
	}
}

func TestCompile_员工按ID升序(t *testing.T) {
	input := testInput()
	input.Slots = []*model.Slot{model.NewSlot("2024-03-04", jtA)}

	set, _, err := Compile(input)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if len(set.Employees) != 2 {
		t.Fatalf("Employees = %d, want 2", len(set.Employees))
	}
	if set.Employees[0].ID != empX || set.Employees[1].ID != empY {
		t.Errorf("员工排序错误: %v, %v", set.Employees[0].ID, set.Employees[1].ID)
	}
}

func TestCompile_资格筛选(t *testing.T) {
	input := testInput()
	input.Slots = []*model.Slot{
		model.NewSlot("2024-03-04", jtA),
		model.NewSlot("2024-03-04", jtB),
	}

	set, conflicts, err := Compile(input)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("conflicts = %d, want 0", len(conflicts))
	}
	if len(set.Slots) != 2 {
		t.Fatalf("Slots = %d, want 2", len(set.Slots))
	}

	// 白班：两人都有资格；夜班：只有乙
	for _, slot := range set.Slots {
		switch slot.JobType.ID {
		case jtA:
			if len(slot.Eligible) != 2 {
				t.Errorf("白班候选人 = %d, want 2", len(slot.Eligible))
			}
		case jtB:
			if len(slot.Eligible) != 1 {
				t.Errorf("夜班候选人 = %d, want 1", len(slot.Eligible))
			}
			if set.Employees[slot.Eligible[0]].ID != empY {
				t.Errorf("夜班候选人应为乙")
			}
		}
	}
}

func TestCompile_无候选人槽位_预求解冲突(t *testing.T) {
	input := testInput()
	// 两名员工都没有该职种资格
	jtC := uuid.MustParse("22222222-0000-0000-0000-000000000003")
	input.JobTypes = append(input.JobTypes, &model.JobType{
		ID: jtC, Name: "特护班", StartTime: "08:00", EndTime: "16:00", RequiredStaff: 2,
	})
	input.Slots = []*model.Slot{
		model.NewSlot("2024-03-04", jtA),
		model.NewSlot("2024-03-04", jtC),
	}

	set, conflicts, err := Compile(input)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if len(conflicts) != 1 {
		t.Fatalf("conflicts = %d, want 1", len(conflicts))
	}
	if conflicts[0].Kind != model.ConflictNoEligibleStaff {
		t.Errorf("conflict kind = %v, want %v", conflicts[0].Kind, model.ConflictNoEligibleStaff)
	}
	if conflicts[0].Severity != model.SeverityError {
		t.Errorf("conflict severity = %v, want %v", conflicts[0].Severity, model.SeverityError)
	}

	// 不可行槽位不进入模型
	if len(set.Slots) != 1 {
		t.Errorf("Slots = %d, want 1", len(set.Slots))
	}
}

func TestCompile_槽位排序与跨日窗口(t *testing.T) {
	input := testInput()
	input.Slots = []*model.Slot{
		model.NewSlot("2024-03-05", jtA),
		model.NewSlot("2024-03-04", jtB),
		model.NewSlot("2024-03-04", jtA),
	}

	set, _, err := Compile(input)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if len(set.Slots) != 3 {
		t.Fatalf("Slots = %d, want 3", len(set.Slots))
	}

	// 日期优先，同日按开始时刻
	wantOrder := []struct {
		date string
		jt   uuid.UUID
	}{
		{"2024-03-04", jtA},
		{"2024-03-04", jtB},
		{"2024-03-05", jtA},
	}
	for i, want := range wantOrder {
		got := set.Slots[i]
		if got.Slot.Date != want.date || got.JobType.ID != want.jt {
			t.Errorf("slot[%d] = (%s, %v), want (%s, %v)", i, got.Slot.Date, got.JobType.ID, want.date, want.jt)
		}
	}

	// 夜班跨日：结束时刻落在次日
	night := set.Slots[1]
	if !night.Window.End.After(night.Window.Start) {
		t.Errorf("跨日窗口结束时刻应晚于开始时刻")
	}
	if night.Window.Hours() != 8 {
		t.Errorf("夜班时长 = %.1f, want 8", night.Window.Hours())
	}
}
