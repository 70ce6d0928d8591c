package optimizer

import (
	"github.com/go-playground/validator/v10"
)

// Weights combine the soft-constraint measures into the annealing cost
type Weights struct {
	GroupIdle   float64 `mapstructure:"group_idle" json:"group_idle" validate:"gte=0"`
	TeacherIdle float64 `mapstructure:"teacher_idle" json:"teacher_idle" validate:"gte=0"`
	NoFreeHour  float64 `mapstructure:"no_free_hour" json:"no_free_hour" validate:"gte=0"`
}

type Config struct {
	Seed uint64 `mapstructure:"seed" json:"seed"`

	//** Repair
	Runs             int     `mapstructure:"runs" json:"runs" validate:"gte=1"`
	MaxStagnation    int     `mapstructure:"max_stagnation" json:"max_stagnation" validate:"gte=1"`
	AdaptationWindow int     `mapstructure:"adaptation_window" json:"adaptation_window" validate:"gte=1"`
	InitialSigma     float64 `mapstructure:"initial_sigma" json:"initial_sigma" validate:"gt=0"`
	SigmaFactor      float64 `mapstructure:"sigma_factor" json:"sigma_factor" validate:"gt=0,lt=1"`
	RepairFraction   float64 `mapstructure:"repair_fraction" json:"repair_fraction" validate:"gt=0,lte=1"`

	//** Annealing
	AnnealIterations   int     `mapstructure:"anneal_iterations" json:"anneal_iterations" validate:"gte=0"`
	InitialTemperature float64 `mapstructure:"initial_temperature" json:"initial_temperature" validate:"gt=0"`
	CoolingRate        float64 `mapstructure:"cooling_rate" json:"cooling_rate" validate:"gt=0,lte=1"`
	AnnealFraction     float64 `mapstructure:"anneal_fraction" json:"anneal_fraction" validate:"gt=0,lte=1"`
	ProgressInterval   int     `mapstructure:"progress_interval" json:"progress_interval" validate:"gte=1"`
	Weights            Weights `mapstructure:"weights" json:"weights"`
}

func DefaultConfig() Config {
	return Config{
		Runs:               5,
		MaxStagnation:      200,
		AdaptationWindow:   3,
		InitialSigma:       2,
		SigmaFactor:        0.85,
		RepairFraction:     0.25,
		AnnealIterations:   2500,
		InitialTemperature: 0.5,
		CoolingRate:        0.99,
		AnnealFraction:     0.25,
		ProgressInterval:   100,
		Weights: Weights{
			GroupIdle:   1,
			TeacherIdle: 0,
			NoFreeHour:  1,
		},
	}
}

func (cfg Config) Validate() error {
	return validator.New().Struct(cfg)
}

// batchSize returns the given fraction of the sessions, never less than one
func batchSize(sessions int, fraction float64) int {
	return max(1, int(float64(sessions)*fraction))
}
