package scorer

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shifta/shifta/pkg/engine/compiler"
	"github.com/shifta/shifta/pkg/model"
)

var (
	empX = uuid.MustParse("44444444-0000-0000-0000-000000000001")
	jtA  = uuid.MustParse("55555555-0000-0000-0000-000000000001")
)

func compiledSet(t *testing.T) *compiler.ConstraintSet {
	t.Helper()
	input := &model.Input{
		Period: model.DateRange{StartDate: "2024-03-04", EndDate: "2024-03-05"},
		Employees: []*model.Employee{
			{ID: empX, Name: "甲", Qualifications: []uuid.UUID{jtA}},
		},
		JobTypes: []*model.JobType{
			{ID: jtA, Name: "白班", StartTime: "09:00", EndTime: "17:00", RequiredStaff: 1},
		},
		Slots: []*model.Slot{
			model.NewSlot("2024-03-04", jtA),
			model.NewSlot("2024-03-05", jtA),
		},
		Config: model.DefaultConfig(),
	}
	set, _, err := compiler.Compile(input)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return set
}

func TestScore_权重计算(t *testing.T) {
	set := compiledSet(t)
	cfg := model.DefaultConfig()

	tests := []struct {
		name       string
		prefs      []*model.PreferenceEntry
		wantSlot0  float64
		wantUnavail bool
	}{
		{
			name:      "无偏好取中性权重",
			prefs:     nil,
			wantSlot0: *cfg.NeutralWeight,
		},
		{
			name: "显式偏好取其得分",
			prefs: []*model.PreferenceEntry{
				{EmployeeID: empX, Date: "2024-03-04", JobTypeID: jtA, Score: 4},
			},
			wantSlot0: 4,
		},
		{
			name: "不可用转换为大额负权重",
			prefs: []*model.PreferenceEntry{
				{EmployeeID: empX, Date: "2024-03-04", JobTypeID: jtA, Score: model.ScoreUnavailable},
			},
			wantSlot0:   -cfg.UnavailablePenalty,
			wantUnavail: true,
		},
		{
			name: "职种留空作用于当天所有槽位",
			prefs: []*model.PreferenceEntry{
				{EmployeeID: empX, Date: "2024-03-04", Score: model.ScoreUnavailable},
			},
			wantSlot0:   -cfg.UnavailablePenalty,
			wantUnavail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Score(set, tt.prefs, cfg)

			if got := w.Get(0, 0); got != tt.wantSlot0 {
				t.Errorf("Get(0,0) = %v, want %v", got, tt.wantSlot0)
			}
			if got := w.IsUnavailable(0, 0); got != tt.wantUnavail {
				t.Errorf("IsUnavailable(0,0) = %v, want %v", got, tt.wantUnavail)
			}
			// 另一天不受影响
			if got := w.Get(1, 0); got != *cfg.NeutralWeight {
				t.Errorf("Get(1,0) = %v, want %v", got, *cfg.NeutralWeight)
			}
		})
	}
}

func TestScore_中性权重可显式置零(t *testing.T) {
	set := compiledSet(t)
	cfg := model.DefaultConfig()
	zero := 0.0
	cfg.NeutralWeight = &zero
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if *cfg.NeutralWeight != 0 {
		t.Fatalf("显式置零的中性权重被覆盖: %v", *cfg.NeutralWeight)
	}

	w := Score(set, nil, cfg)
	if got := w.Get(0, 0); got != 0 {
		t.Errorf("Get(0,0) = %v, want 0", got)
	}
}

func TestWeights_RelaxUnavailable(t *testing.T) {
	set := compiledSet(t)
	cfg := model.DefaultConfig()

	w := Score(set, []*model.PreferenceEntry{
		{EmployeeID: empX, Date: "2024-03-04", JobTypeID: jtA, Score: model.ScoreUnavailable},
		{EmployeeID: empX, Date: "2024-03-05", JobTypeID: jtA, Score: model.ScoreUnavailable},
	}, cfg)

	// 只放宽槽位0
	relaxed := w.RelaxUnavailable([]int{0})
	if relaxed != 1 {
		t.Errorf("RelaxUnavailable() = %d, want 1", relaxed)
	}
	if got := w.Get(0, 0); got != *cfg.NeutralWeight {
		t.Errorf("放宽后 Get(0,0) = %v, want %v", got, *cfg.NeutralWeight)
	}
	if w.IsUnavailable(0, 0) {
		t.Errorf("放宽后不应保留不可用标记")
	}

	// 槽位1保持原样
	if got := w.Get(1, 0); got != -cfg.UnavailablePenalty {
		t.Errorf("Get(1,0) = %v, want %v", got, -cfg.UnavailablePenalty)
	}
}

func TestWeights_Clone隔离(t *testing.T) {
	set := compiledSet(t)
	cfg := model.DefaultConfig()

	orig := Score(set, []*model.PreferenceEntry{
		{EmployeeID: empX, Date: "2024-03-04", JobTypeID: jtA, Score: model.ScoreUnavailable},
	}, cfg)

	clone := orig.Clone()
	clone.RelaxUnavailable([]int{0})

	if got := orig.Get(0, 0); got != -cfg.UnavailablePenalty {
		t.Errorf("克隆上的放宽污染了原始权重: Get(0,0) = %v", got)
	}
	if !orig.IsUnavailable(0, 0) {
		t.Errorf("原始权重的不可用标记丢失")
	}
}
