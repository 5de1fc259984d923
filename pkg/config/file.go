package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/pipetlab/pipet/pkg/liquid"
	"github.com/pipetlab/pipet/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		LabTemperature:     ptr.To(liquid.DefaultLabTemperature),
		AllowNonRootAccess: ptr.To(false),
		ParametersFile:     ptr.To("/etc/pipet/optimized_pipette_parameters.csv"),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = defaultFileConfig
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

type RawFileConfig struct {
	LabTemperature      *float64                     `json:"labTemperature,omitempty"`
	AllowNonRootAccess  *bool                        `json:"allowNonRootAccess,omitempty"`
	ParametersFile      *string                      `json:"parametersFile,omitempty"`
	Liquids             map[string]liquid.Definition `json:"liquids,omitempty"`
	TemperatureSchedule *Schedule                    `json:"temperatureSchedule,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	rawConfig := &RawFileConfig{
		LabTemperature:     ptr.To(c.LabTemperature()),
		AllowNonRootAccess: ptr.To(c.AllowNonRootAccess()),
		ParametersFile:     ptr.To(c.ParametersFile()),
		Liquids:            c.Liquids(),
	}
	if sch := c.TemperatureSchedule(); sch.Cron != "" {
		rawConfig.TemperatureSchedule = &sch
	}

	return rawConfig, nil
}

func (f *File) LabTemperature() float64 {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	var temp float64

	if f.c.LabTemperature != nil {
		temp = *f.c.LabTemperature
	} else {
		temp = *defaultFileConfig.LabTemperature
	}

	return temp
}

func (f *File) AllowNonRootAccess() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	var allowNonRootAccess bool

	if f.c.AllowNonRootAccess != nil {
		allowNonRootAccess = *f.c.AllowNonRootAccess
	} else {
		allowNonRootAccess = *defaultFileConfig.AllowNonRootAccess
	}

	return allowNonRootAccess
}

func (f *File) ParametersFile() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	var path string

	if f.c.ParametersFile != nil {
		path = *f.c.ParametersFile
	} else {
		path = *defaultFileConfig.ParametersFile
	}

	return path
}

// Liquids returns a copy of the configured liquid definitions.
func (f *File) Liquids() map[string]liquid.Definition {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	liquids := make(map[string]liquid.Definition, len(f.c.Liquids))
	for name, def := range f.c.Liquids {
		liquids[name] = def
	}

	return liquids
}

func (f *File) Liquid(name string) (liquid.Definition, bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	def, ok := f.c.Liquids[name]
	return def, ok
}

func (f *File) TemperatureSchedule() Schedule {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.TemperatureSchedule == nil {
		return Schedule{}
	}

	return *f.c.TemperatureSchedule
}

func (f *File) SetLabTemperature(t float64) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.LabTemperature = &t
}

func (f *File) SetAllowNonRootAccess(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.AllowNonRootAccess = &b
}

func (f *File) SetParametersFile(path string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.ParametersFile = &path
}

func (f *File) SetLiquid(def liquid.Definition) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.c.Liquids == nil {
		f.c.Liquids = make(map[string]liquid.Definition)
	}
	f.c.Liquids[def.Name] = def
}

func (f *File) RemoveLiquid(name string) bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.c.Liquids[name]; !ok {
		return false
	}
	delete(f.c.Liquids, name)
	return true
}

func (f *File) SetTemperatureSchedule(s Schedule) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if s.Cron == "" {
		f.c.TemperatureSchedule = nil
		return
	}
	f.c.TemperatureSchedule = &s
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}
	configString := string(b)

	if strings.TrimSpace(configString) == "" {
		// If the file is empty, return the empty config.
		// Do not make f.c a nil.
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}

	for name, def := range conf.Liquids {
		if def.Name == "" {
			def.Name = name
			conf.Liquids[name] = def
		}
		if err := def.Validate(); err != nil {
			return pkgerrors.Wrapf(err, "invalid liquid %q in %s", name, f.filepath)
		}
	}

	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"labTemperature":     f.LabTemperature(),
		"allowNonRootAccess": f.AllowNonRootAccess(),
		"parametersFile":     f.ParametersFile(),
		"liquids":            len(f.Liquids()),
		"schedule":           f.TemperatureSchedule().Cron,
	}
}
