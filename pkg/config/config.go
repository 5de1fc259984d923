package config

import (
	"github.com/sirupsen/logrus"

	"github.com/pipetlab/pipet/pkg/liquid"
)

// Schedule is an optional cron-driven lab temperature setpoint, e.g. for
// labs whose HVAC runs day/night profiles. An empty Cron disables it.
type Schedule struct {
	Cron        string  `json:"cron"`
	Temperature float64 `json:"temperature"`
}

type Config interface {
	LabTemperature() float64
	AllowNonRootAccess() bool
	ParametersFile() string
	Liquids() map[string]liquid.Definition
	Liquid(name string) (liquid.Definition, bool)
	TemperatureSchedule() Schedule

	SetLabTemperature(float64)
	SetAllowNonRootAccess(bool)
	SetParametersFile(string)
	SetLiquid(liquid.Definition)
	RemoveLiquid(name string) bool
	SetTemperatureSchedule(Schedule)

	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
