package config

import (
	"testing"
	"time"
)

func TestLoad_默认值(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Port != 8080 {
		t.Errorf("App.Port = %d, want 8080", cfg.App.Port)
	}
	if cfg.Engine.SolverTimeout != 30*time.Second {
		t.Errorf("Engine.SolverTimeout = %v, want 30s", cfg.Engine.SolverTimeout)
	}
	if cfg.Engine.MaxRelaxationLevel != 3 {
		t.Errorf("Engine.MaxRelaxationLevel = %d, want 3", cfg.Engine.MaxRelaxationLevel)
	}
}

func TestLoad_引擎环境变量(t *testing.T) {
	t.Setenv("ENGINE_SOLVER_TIMEOUT", "5s")
	t.Setenv("ENGINE_MAX_ITERATIONS", "500")
	t.Setenv("ENGINE_MAX_RELAXATION_LEVEL", "1")
	t.Setenv("ENGINE_REST_RELAX_MARGIN_HOURS", "1.5")
	t.Setenv("ENGINE_RANDOM_SEED", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	mc := cfg.Engine.ModelConfig()
	if mc.SolverTimeout != 5*time.Second {
		t.Errorf("SolverTimeout = %v, want 5s", mc.SolverTimeout)
	}
	if mc.MaxIterations != 500 {
		t.Errorf("MaxIterations = %d, want 500", mc.MaxIterations)
	}
	if mc.MaxRelaxationLevel != 1 {
		t.Errorf("MaxRelaxationLevel = %d, want 1", mc.MaxRelaxationLevel)
	}
	if mc.RestRelaxMarginHours != 1.5 {
		t.Errorf("RestRelaxMarginHours = %v, want 1.5", mc.RestRelaxMarginHours)
	}
	if mc.RandomSeed != 7 {
		t.Errorf("RandomSeed = %d, want 7", mc.RandomSeed)
	}

	// 规则开关与权重沿用运行配置默认值
	if !mc.EnforceRestHours || !mc.EnforceConsecutiveDays || !mc.EnforceWeeklyHours {
		t.Errorf("规则开关默认应全部开启")
	}
	if mc.NeutralWeight == nil || *mc.NeutralWeight != 1 {
		t.Errorf("NeutralWeight = %v, want 1", mc.NeutralWeight)
	}
}
