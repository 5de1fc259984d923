package daemon

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// idleWait keeps the loop timer parked while no schedule is set.
const idleWait = time.Hour * 10000

// TemperatureScheduler applies a lab temperature setpoint at cron-scheduled
// times. The next run can be postponed or skipped without touching the
// schedule itself.
type TemperatureScheduler struct {
	// Apply makes the target the active lab temperature.
	Apply func(target float64) error

	parser cron.Parser

	mu       sync.Mutex
	schedule cron.Schedule
	target   float64
	nextRun  time.Time
	running  bool

	nudgeCh chan struct{}
	stopCh  chan struct{}
}

func NewTemperatureScheduler(apply func(target float64) error) *TemperatureScheduler {
	if apply == nil {
		panic("apply function cannot be nil")
	}

	return &TemperatureScheduler{
		Apply:   apply,
		parser:  cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		nudgeCh: make(chan struct{}, 4),
		stopCh:  make(chan struct{}),
	}
}

// Set replaces the schedule. An empty cron expression disables it.
func (s *TemperatureScheduler) Set(cronExpr string, target float64) error {
	var sh cron.Schedule
	if cronExpr != "" {
		var err error
		sh, err = s.parser.Parse(cronExpr)
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.schedule = sh
	s.target = target
	if sh == nil {
		s.nextRun = time.Time{}
	} else {
		s.nextRun = sh.Next(time.Now())
	}
	s.mu.Unlock()

	s.nudge()
	return nil
}

// Postpone delays the next run. The postponed time must still come before
// the run after it.
func (s *TemperatureScheduler) Postpone(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("postpone duration must be positive")
	}

	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		s.nudge()
	}()

	if s.schedule == nil || s.nextRun.IsZero() {
		return fmt.Errorf("no active schedule to postpone")
	}

	postponed := s.nextRun.Add(d).Truncate(time.Second)
	following := s.schedule.Next(s.nextRun).Truncate(time.Second)
	if postponed.Compare(following) >= 0 {
		return fmt.Errorf("postpone duration too long")
	}

	s.nextRun = postponed
	return nil
}

// Skip drops the next run and moves on to the one after it.
func (s *TemperatureScheduler) Skip() error {
	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		s.nudge()
	}()

	if s.schedule == nil || s.nextRun.IsZero() {
		return fmt.Errorf("no active schedule to skip")
	}

	s.nextRun = s.schedule.Next(s.nextRun)
	return nil
}

// Status reports the next run, its target temperature and whether a
// schedule is active.
func (s *TemperatureScheduler) Status() (nextRun time.Time, target float64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.nextRun, s.target, s.schedule != nil
}

// NextRuns returns up to n upcoming run times.
func (s *TemperatureScheduler) NextRuns(n int) []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == nil || s.nextRun.IsZero() {
		return nil
	}

	runs := make([]time.Time, 0, n)
	t := s.nextRun
	for i := 0; i < n; i++ {
		runs = append(runs, t)
		t = s.schedule.Next(t)
	}
	return runs
}

func (s *TemperatureScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.run()
}

func (s *TemperatureScheduler) Stop() {
	select {
	case <-s.stopCh: // already closed
	default:
		close(s.stopCh)
	}
}

// nudge wakes the run loop so it recomputes its timer from current state.
func (s *TemperatureScheduler) nudge() {
	select {
	case s.nudgeCh <- struct{}{}:
	default:
	}
}

func (s *TemperatureScheduler) run() {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		logrus.Debug("temperature scheduler stopped")
	}()

	logrus.Debug("temperature scheduler started")

	for {
		s.mu.Lock()
		schedule, nextRun, target := s.schedule, s.nextRun, s.target
		s.mu.Unlock()

		var timer *time.Timer
		if schedule == nil || nextRun.IsZero() {
			timer = time.NewTimer(idleWait)
		} else {
			wait := time.Until(nextRun)
			if wait < 0 {
				wait = 0
			}
			timer = time.NewTimer(wait)
		}

		select {
		case <-timer.C:
			if schedule == nil || nextRun.IsZero() {
				continue
			}

			logrus.Debugf("applying scheduled temperature %g°C at %s", target, nextRun.Format(time.DateTime))
			go func(target float64) {
				if err := s.Apply(target); err != nil {
					logrus.Errorf("scheduled temperature change failed: %v", err)
				}
			}(target)

			s.mu.Lock()
			if s.schedule != nil {
				s.nextRun = s.schedule.Next(time.Now())
			}
			s.mu.Unlock()
		case <-s.stopCh:
			timer.Stop()
			return
		case <-s.nudgeCh:
			timer.Stop()
		}
	}
}
