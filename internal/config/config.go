// Package config 提供配置管理
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shifta/shifta/pkg/model"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `envPrefix:"APP_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	Engine   EngineConfig   `envPrefix:"ENGINE_"`
	Metrics  MetricsConfig  `envPrefix:"METRICS_"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name     string `env:"NAME" envDefault:"shifta"`
	Env      string `env:"ENV" envDefault:"development"`
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            int           `env:"PORT" envDefault:"5432"`
	Name            string        `env:"NAME" envDefault:"shifta"`
	User            string        `env:"USER" envDefault:"shifta"`
	Password        string        `env:"PASSWORD"`
	SSLMode         string        `env:"SSL_MODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// EngineConfig 求解引擎配置
type EngineConfig struct {
	SolverTimeout        time.Duration `env:"SOLVER_TIMEOUT" envDefault:"30s"`
	MaxIterations        int           `env:"MAX_ITERATIONS" envDefault:"2000"`
	MaxRelaxationLevel   int           `env:"MAX_RELAXATION_LEVEL" envDefault:"3"`
	RestRelaxMarginHours float64       `env:"REST_RELAX_MARGIN_HOURS" envDefault:"2"`
	RandomSeed           int64         `env:"RANDOM_SEED" envDefault:"1"`
}

// ModelConfig 把服务级引擎配置转换为运行配置的默认值
// 单次请求仍可通过 options 覆盖其中的求解参数
func (c *EngineConfig) ModelConfig() model.Config {
	cfg := model.DefaultConfig()
	cfg.SolverTimeout = c.SolverTimeout
	cfg.MaxIterations = c.MaxIterations
	cfg.MaxRelaxationLevel = c.MaxRelaxationLevel
	cfg.RestRelaxMarginHours = c.RestRelaxMarginHours
	cfg.RandomSeed = c.RandomSeed
	return cfg
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Path    string `env:"PATH" envDefault:"/metrics"`
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("解析环境变量配置失败: %w", err)
	}
	return cfg, nil
}
