package daemon

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pipetlab/pipet/pkg/events"
	"github.com/pipetlab/pipet/pkg/liquid"
	"github.com/pipetlab/pipet/pkg/params"
)

var paramsRefreshInterval = time.Duration(30) * time.Second

// snapshotCache holds the configured liquids evaluated at the current lab
// temperature, so property reads do not re-interpolate per request.
type snapshotCache struct {
	mu      sync.RWMutex
	liquids map[string]*liquid.Liquid
}

var cache = &snapshotCache{liquids: make(map[string]*liquid.Liquid)}

func (s *snapshotCache) get(name string) (*liquid.Liquid, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.liquids[name]
	return l, ok
}

func (s *snapshotCache) replace(liquids map[string]*liquid.Liquid) {
	s.mu.Lock()
	s.liquids = liquids
	s.mu.Unlock()
}

// refreshSnapshots re-evaluates every configured liquid at the current lab
// temperature. Definitions are validated on their way into the config, so a
// failure here means the config file was edited behind our back; the liquid
// is skipped and reported rather than served stale.
func refreshSnapshots() {
	labTemp := conf.LabTemperature()
	defs := conf.Liquids()

	liquids := make(map[string]*liquid.Liquid, len(defs))
	for name, def := range defs {
		l, err := liquid.New(def, labTemp)
		if err != nil {
			logrus.Errorf("failed to evaluate liquid %q at %g°C: %v", name, labTemp, err)
			continue
		}
		liquids[name] = l
	}

	cache.replace(liquids)
	logrus.WithFields(logrus.Fields{
		"labTemperature": labTemp,
		"liquids":        len(liquids),
	}).Debug("liquid snapshots refreshed")
}

var (
	paramsMu    sync.RWMutex
	paramsTable *params.Table
	paramsMtime time.Time
)

func loadParams() error {
	path := conf.ParametersFile()

	st, err := os.Stat(path)
	if err != nil {
		return err
	}

	table, err := params.Load(path)
	if err != nil {
		return err
	}

	paramsMu.Lock()
	paramsTable = table
	paramsMtime = st.ModTime()
	paramsMu.Unlock()

	hub.Publish(events.ParametersReloaded, nil)
	logrus.Infof("loaded %d optimized pipetting parameter entries from %s", table.Len(), path)
	return nil
}

func lookupParams(pipette, liquidName string) (params.Entry, bool) {
	paramsMu.RLock()
	table := paramsTable
	paramsMu.RUnlock()

	return table.Lookup(pipette, liquidName)
}

// refreshLoop watches the parameter table for modifications (calibration
// runs rewrite it in place) and keeps liquid snapshots in sync with config
// events.
func refreshLoop(stop chan struct{}) {
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	ticker := time.NewTicker(paramsRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st, err := os.Stat(conf.ParametersFile())
			if err != nil {
				continue
			}

			paramsMu.RLock()
			mtime := paramsMtime
			paramsMu.RUnlock()

			if st.ModTime().After(mtime) {
				if err := loadParams(); err != nil {
					logrus.Errorf("failed to reload optimized pipetting parameters: %v", err)
				}
			}
		case ev, ok := <-sub:
			if !ok {
				return
			}
			switch ev.Name {
			case events.LiquidChanged, events.ConfigReloaded:
				refreshSnapshots()
			}
		case <-stop:
			return
		}
	}
}
