package daemon

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pipetlab/pipet/pkg/config"
	"github.com/pipetlab/pipet/pkg/events"
	"github.com/pipetlab/pipet/pkg/liquid"
	"github.com/pipetlab/pipet/pkg/version"
)

func getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

func getLabTemperature(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, conf.LabTemperature())
}

func setLabTemperature(c *gin.Context) {
	var t float64
	if err := c.BindJSON(&t); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if math.IsNaN(t) || math.IsInf(t, 0) {
		err := fmt.Errorf("lab temperature must be a finite number, got %v", t)
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	old := conf.LabTemperature()
	conf.SetLabTemperature(t)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	refreshSnapshots()
	hub.Publish(events.LabTemperatureChanged, events.LabTemperatureEvent{
		From: old,
		To:   t,
		Ts:   time.Now().Unix(),
	})

	logrus.Infof("set lab temperature to %g°C", t)
	c.IndentedJSON(http.StatusOK, "ok")
}

func getLiquids(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, conf.Liquids())
}

func getLiquid(c *gin.Context) {
	name := c.Param("name")
	def, ok := conf.Liquid(name)
	if !ok {
		c.IndentedJSON(http.StatusNotFound, fmt.Sprintf("unknown liquid %q", name))
		return
	}
	c.IndentedJSON(http.StatusOK, def)
}

func setLiquid(c *gin.Context) {
	name := c.Param("name")

	var def liquid.Definition
	if err := c.BindJSON(&def); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}
	def.Name = name

	// Evaluating now surfaces calibration errors to the caller instead of
	// leaving them for the next snapshot refresh.
	if _, err := liquid.New(def, conf.LabTemperature()); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetLiquid(def)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	hub.Publish(events.LiquidChanged, events.LiquidEvent{Name: name, Ts: time.Now().Unix()})

	logrus.Infof("liquid %q updated", name)
	c.IndentedJSON(http.StatusOK, "ok")
}

func deleteLiquid(c *gin.Context) {
	name := c.Param("name")

	if !conf.RemoveLiquid(name) {
		c.IndentedJSON(http.StatusNotFound, fmt.Sprintf("unknown liquid %q", name))
		return
	}
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	hub.Publish(events.LiquidChanged, events.LiquidEvent{Name: name, Removed: true, Ts: time.Now().Unix()})

	logrus.Infof("liquid %q removed", name)
	c.IndentedJSON(http.StatusOK, "ok")
}

// liquidAt resolves a configured liquid at the current lab temperature,
// preferring the snapshot cache but never serving a liquid that is no
// longer configured.
func liquidAt(name string) (*liquid.Liquid, error) {
	def, ok := conf.Liquid(name)
	if !ok {
		return nil, fmt.Errorf("unknown liquid %q", name)
	}

	if l, ok := cache.get(name); ok && l.LabTemperature == conf.LabTemperature() {
		return l, nil
	}

	return liquid.New(def, conf.LabTemperature())
}

func getLiquidProperties(c *gin.Context) {
	l, err := liquidAt(c.Param("name"))
	if err != nil {
		c.IndentedJSON(http.StatusNotFound, err.Error())
		return
	}
	c.IndentedJSON(http.StatusOK, l.Properties)
}

func getLiquidHandling(c *gin.Context) {
	l, err := liquidAt(c.Param("name"))
	if err != nil {
		c.IndentedJSON(http.StatusNotFound, err.Error())
		return
	}
	c.IndentedJSON(http.StatusOK, l.Handling)
}

func getTransferPlan(c *gin.Context) {
	name := c.Param("name")

	pipette := c.Query("pipette")
	if pipette == "" {
		c.IndentedJSON(http.StatusBadRequest, "missing pipette query parameter")
		return
	}

	volume, err := strconv.ParseFloat(c.Query("volume"), 64)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, fmt.Sprintf("invalid volume: %v", err))
		return
	}

	l, err := liquidAt(name)
	if err != nil {
		c.IndentedJSON(http.StatusNotFound, err.Error())
		return
	}

	plan, err := l.NewTransferPlan(pipette, volume)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if entry, ok := lookupParams(pipette, name); ok {
		entry.Apply(plan)
	}

	c.IndentedJSON(http.StatusOK, plan)
}

type interpolateRequest struct {
	T1 float64 `json:"t1"`
	V1 float64 `json:"v1"`
	T2 float64 `json:"t2"`
	V2 float64 `json:"v2"`
	T  float64 `json:"t"`
}

func postInterpolate(c *gin.Context) {
	var req interpolateRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	v, err := liquid.Interpolate(req.T1, req.V1, req.T2, req.V2, req.T)
	if err != nil {
		if errors.Is(err, liquid.ErrEqualTemperatures) || errors.Is(err, liquid.ErrNonFiniteInput) {
			c.IndentedJSON(http.StatusBadRequest, err.Error())
			_ = c.AbortWithError(http.StatusBadRequest, err)
			return
		}
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.IndentedJSON(http.StatusOK, v)
}

func getParams(c *gin.Context) {
	pipette := c.Param("pipette")
	liquidName := c.Param("liquid")

	entry, ok := lookupParams(pipette, liquidName)
	if !ok {
		c.IndentedJSON(http.StatusNotFound,
			fmt.Sprintf("no optimized parameters for pipette %q and liquid %q", pipette, liquidName))
		return
	}
	c.IndentedJSON(http.StatusOK, entry)
}

// scheduleStatus is the wire form of the temperature schedule.
type scheduleStatus struct {
	Cron        string      `json:"cron,omitempty"`
	Temperature float64     `json:"temperature,omitempty"`
	NextRuns    []time.Time `json:"nextRuns,omitempty"`
}

func getSchedule(c *gin.Context) {
	s := conf.TemperatureSchedule()
	c.IndentedJSON(http.StatusOK, scheduleStatus{
		Cron:        s.Cron,
		Temperature: s.Temperature,
		NextRuns:    sched.NextRuns(3),
	})
}

func setSchedule(c *gin.Context) {
	var s config.Schedule
	if err := c.BindJSON(&s); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if s.Cron == "" {
		c.IndentedJSON(http.StatusBadRequest, "cron expression cannot be empty")
		return
	}
	if math.IsNaN(s.Temperature) || math.IsInf(s.Temperature, 0) {
		c.IndentedJSON(http.StatusBadRequest, "schedule temperature must be a finite number")
		return
	}

	if err := sched.Set(s.Cron, s.Temperature); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	conf.SetTemperatureSchedule(s)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	hub.Publish(events.ScheduleChanged, s)

	logrus.Infof("temperature schedule set: %q -> %g°C", s.Cron, s.Temperature)
	c.IndentedJSON(http.StatusOK, scheduleStatus{
		Cron:        s.Cron,
		Temperature: s.Temperature,
		NextRuns:    sched.NextRuns(3),
	})
}

func deleteSchedule(c *gin.Context) {
	if err := sched.Set("", 0); err != nil {
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	conf.SetTemperatureSchedule(config.Schedule{})
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	hub.Publish(events.ScheduleChanged, config.Schedule{})

	logrus.Info("temperature schedule disabled")
	c.IndentedJSON(http.StatusOK, "ok")
}

func postponeSchedule(c *gin.Context) {
	var durationStr string
	if err := c.BindJSON(&durationStr); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, fmt.Sprintf("invalid duration: %v", err))
		return
	}

	if err := sched.Postpone(d); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		return
	}

	c.IndentedJSON(http.StatusOK, scheduleStatus{NextRuns: sched.NextRuns(1)})
}

func skipSchedule(c *gin.Context) {
	if err := sched.Skip(); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		return
	}

	c.IndentedJSON(http.StatusOK, scheduleStatus{NextRuns: sched.NextRuns(1)})
}
