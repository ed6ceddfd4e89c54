// Package rules 提供排班规则目录
package rules

// RuleParam 规则参数定义
type RuleParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, string, bool
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// RuleDefinition 规则定义
type RuleDefinition struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name"`
	Type        string      `json:"type"` // hard 硬约束, soft 软约束
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Relaxable   bool        `json:"relaxable"` // 求解不可行时是否可被放宽
	RelaxLevel  int         `json:"relax_level,omitempty"`
	Params      []RuleParam `json:"params"`
}

// CatalogResponse 规则目录响应
type CatalogResponse struct {
	Rules []RuleDefinition `json:"rules"`
}

// Catalog 返回引擎支持的完整规则目录
func Catalog() []RuleDefinition {
	return []RuleDefinition{
		// =====================================================
		// 硬约束
		// =====================================================
		{
			Name:        "qualification_required",
			DisplayName: "任职资格匹配",
			Type:        "hard",
			Category:    "资质要求",
			Description: "只能把具备职种所需资格的员工分配到该职种的班次。任何放宽级别下都不会放宽。",
			Relaxable:   false,
			Params:      []RuleParam{},
		},
		{
			Name:        "no_overlap",
			DisplayName: "禁止时间重叠",
			Type:        "hard",
			Category:    "时间冲突",
			Description: "同一员工不能同时出现在两个时间重叠的班次中。任何放宽级别下都不会放宽。",
			Relaxable:   false,
			Params:      []RuleParam{},
		},
		{
			Name:        "max_hours_per_week",
			DisplayName: "每周最大工时",
			Type:        "hard",
			Category:    "工时限制",
			Description: "限制员工每周的累计工作时长，确保符合劳动法规定。按自然周（周日起始）累计。",
			Relaxable:   false,
			Params: []RuleParam{
				{Name: "max_hours", Type: "float", Description: "最大工时(小时)", Default: "40", Min: "0", Max: "80"},
			},
		},
		{
			Name:        "min_rest_between_shifts",
			DisplayName: "班次间最小休息时间",
			Type:        "hard",
			Category:    "休息保障",
			Description: "确保员工在两个班次之间有足够的休息时间，防止过度疲劳。三级放宽时允许减少固定的余量。",
			Relaxable:   true,
			RelaxLevel:  3,
			Params: []RuleParam{
				{Name: "min_hours", Type: "float", Description: "最小休息时间(小时)", Default: "11", Min: "0", Max: "24"},
				{Name: "relax_margin", Type: "float", Description: "放宽余量(小时)", Default: "2", Min: "0", Max: "8"},
			},
		},
		{
			Name:        "max_consecutive_days",
			DisplayName: "最大连续工作天数",
			Type:        "hard",
			Category:    "休息保障",
			Description: "限制员工连续工作的最大天数，确保员工有足够的休息日。二级放宽时上限加一天。",
			Relaxable:   true,
			RelaxLevel:  2,
			Params: []RuleParam{
				{Name: "max_days", Type: "int", Description: "最大连续天数", Default: "6", Min: "1", Max: "14"},
			},
		},
		// =====================================================
		// 软约束
		// =====================================================
		{
			Name:        "preference_score",
			DisplayName: "员工偏好",
			Type:        "soft",
			Category:    "偏好优化",
			Description: "按员工对日期和职种的偏好评分（0-5）优化分配，评分越高越优先。",
			Relaxable:   false,
			Params: []RuleParam{
				{Name: "neutral_weight", Type: "float", Description: "未填偏好时的默认权重", Default: "1"},
			},
		},
		{
			Name:        "unavailable",
			DisplayName: "不可用日",
			Type:        "soft",
			Category:    "偏好优化",
			Description: "员工标记为不可用的日期默认不参与分配。一级放宽时，人手不足的班次可以使用不可用员工。",
			Relaxable:   true,
			RelaxLevel:  1,
			Params: []RuleParam{
				{Name: "penalty", Type: "float", Description: "不可用惩罚权重", Default: "1000"},
			},
		},
		{
			Name:        "coverage",
			DisplayName: "人手覆盖",
			Type:        "soft",
			Category:    "覆盖优化",
			Description: "尽量满足每个班次的需求人数。无法满足时产生缺员冲突而不是求解失败。",
			Relaxable:   false,
			Params: []RuleParam{
				{Name: "required_staff", Type: "int", Description: "需求人数", Min: "0"},
			},
		},
	}
}
