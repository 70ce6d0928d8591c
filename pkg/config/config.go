package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/limaJavier/timetabling/pkg/logger"
	"github.com/limaJavier/timetabling/pkg/optimizer"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load, e.g. TIMETABLE_OPTIMIZER_RUNS
const EnvPrefix = "TIMETABLE"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Log       logger.Config    `mapstructure:"log"`
	Optimizer optimizer.Config `mapstructure:"optimizer"`
	Database  DatabaseConfig   `mapstructure:"database"`
	Report    ReportConfig     `mapstructure:"report"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host" validate:"required"`
	Port         int    `mapstructure:"port" validate:"gte=1,lte=65535"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name" validate:"required"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

func (cfg DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

// ReportConfig controls how timeslots are labelled in text and PDF timetables
type ReportConfig struct {
	Title     string `mapstructure:"title"`
	FirstHour int    `mapstructure:"first_hour" validate:"gte=0,lte=23"`
}

// Load reads the configuration from defaults, an optional config file (YAML, JSON or TOML) and TIMETABLE_* environment
// variables, in increasing precedence. A .env file in the working directory is loaded first when present
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("cannot read config file %v: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	log := logger.DefaultConfig()
	v.SetDefault("log.level", log.Level)
	v.SetDefault("log.format", log.Format)

	opt := optimizer.DefaultConfig()
	v.SetDefault("optimizer.seed", opt.Seed)
	v.SetDefault("optimizer.runs", opt.Runs)
	v.SetDefault("optimizer.max_stagnation", opt.MaxStagnation)
	v.SetDefault("optimizer.adaptation_window", opt.AdaptationWindow)
	v.SetDefault("optimizer.initial_sigma", opt.InitialSigma)
	v.SetDefault("optimizer.sigma_factor", opt.SigmaFactor)
	v.SetDefault("optimizer.repair_fraction", opt.RepairFraction)
	v.SetDefault("optimizer.anneal_iterations", opt.AnnealIterations)
	v.SetDefault("optimizer.initial_temperature", opt.InitialTemperature)
	v.SetDefault("optimizer.cooling_rate", opt.CoolingRate)
	v.SetDefault("optimizer.anneal_fraction", opt.AnnealFraction)
	v.SetDefault("optimizer.progress_interval", opt.ProgressInterval)
	v.SetDefault("optimizer.weights.group_idle", opt.Weights.GroupIdle)
	v.SetDefault("optimizer.weights.teacher_idle", opt.Weights.TeacherIdle)
	v.SetDefault("optimizer.weights.no_free_hour", opt.Weights.NoFreeHour)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "timetabling")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 2)

	v.SetDefault("report.title", "Timetable")
	v.SetDefault("report.first_hour", 9)
}
