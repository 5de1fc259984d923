package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pipetlab/pipet/pkg/config"
	"github.com/pipetlab/pipet/pkg/events"
)

var (
	conf  config.Config
	hub   *events.Hub
	sched *TemperatureScheduler
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/config", getConfig)
	router.GET("/lab-temperature", getLabTemperature)
	router.PUT("/lab-temperature", setLabTemperature)
	router.GET("/liquids", getLiquids)
	router.GET("/liquids/:name", getLiquid)
	router.PUT("/liquids/:name", setLiquid)
	router.DELETE("/liquids/:name", deleteLiquid)
	router.GET("/liquids/:name/properties", getLiquidProperties)
	router.GET("/liquids/:name/handling", getLiquidHandling)
	router.GET("/liquids/:name/plan", getTransferPlan)
	router.POST("/interpolate", postInterpolate)
	router.GET("/params/:pipette/:liquid", getParams)
	router.GET("/schedule", getSchedule)
	router.PUT("/schedule", setSchedule)
	router.DELETE("/schedule", deleteSchedule)
	router.POST("/schedule/postpone", postponeSchedule)
	router.POST("/schedule/skip", skipSchedule)
	router.GET("/version", getVersion)

	return router
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	router := setupRoutes()

	var err error
	conf, err = config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	hub = events.NewHub()

	refreshSnapshots()

	if err := loadParams(); err != nil {
		// A missing parameter table is normal on fresh installs; transfers
		// fall back to parameters derived from physical properties.
		logrus.Warnf("optimized pipetting parameters unavailable: %v", err)
	}

	sched = NewTemperatureScheduler(applyScheduledTemperature)
	if s := conf.TemperatureSchedule(); s.Cron != "" {
		if err := sched.Set(s.Cron, s.Temperature); err != nil {
			logrus.Errorf("invalid temperature schedule in config: %v", err)
		}
	}
	sched.Start()

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			err := conf.Load()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			hub.Publish(events.ConfigReloaded, nil)
			resyncSchedule()
			logrus.Infof("config reloaded")
		}
	}()

	stopRefresh := make(chan struct{})
	go refreshLoop(stopRefresh)

	srv := &http.Server{
		Handler: router,
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	logrus.Info("stopping temperature scheduler")
	sched.Stop()
	close(stopRefresh)

	logrus.Info("exiting")
	return nil
}

// resyncSchedule pushes the configured schedule into the running scheduler,
// e.g. after a SIGHUP config reload.
func resyncSchedule() {
	s := conf.TemperatureSchedule()
	if err := sched.Set(s.Cron, s.Temperature); err != nil {
		logrus.Errorf("invalid temperature schedule in config: %v", err)
	}
}

// applyScheduledTemperature is the scheduler task: it makes a configured
// setpoint the active lab temperature.
func applyScheduledTemperature(target float64) error {
	old := conf.LabTemperature()
	conf.SetLabTemperature(target)
	if err := conf.Save(); err != nil {
		return err
	}

	hub.Publish(events.LabTemperatureChanged, events.LabTemperatureEvent{
		From: old,
		To:   target,
		Ts:   time.Now().Unix(),
	})
	refreshSnapshots()

	logrus.Infof("scheduled lab temperature applied: %g -> %g", old, target)
	return nil
}
