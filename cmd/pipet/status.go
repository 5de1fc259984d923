package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pipetlab/pipet/pkg/client"
	"github.com/pipetlab/pipet/pkg/config"
)

type statusData struct {
	version     string
	labTemp     float64
	config      *config.RawFileConfig
	schedule    *client.ScheduleStatus
	scheduleErr error
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData() (*statusData, error) {
	version, err := apiClient.GetVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to get daemon version: %w", err)
	}

	labTemp, err := apiClient.GetLabTemperature()
	if err != nil {
		return nil, fmt.Errorf("failed to get lab temperature: %w", err)
	}

	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	// A missing schedule is normal, keep the error for display instead of
	// failing the whole command.
	schedule, scheduleErr := apiClient.GetSchedule()

	return &statusData{
		version:     version,
		labTemp:     labTemp,
		config:      conf,
		schedule:    schedule,
		scheduleErr: scheduleErr,
	}, nil
}

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current status of pipet",
		Long:    `Get daemon status, the lab temperature, configured liquids, and the temperature schedule.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Get various info first.
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			config := config.NewFileFromConfig(data.config, "")

			cmd.Println(bold("Daemon:"))
			cmd.Printf("  Version: %s\n", bold("%s", data.version))
			cmd.Println("  Allow non-root users to access the daemon: " + bool2Text(config.AllowNonRootAccess()))
			if f := config.ParametersFile(); f != "" {
				cmd.Printf("  Optimized parameters file: %s\n", bold("%s", f))
			}

			cmd.Println()

			cmd.Println(bold("Lab temperature:"))
			cmd.Printf("  Current: %s\n", bold("%g°C", data.labTemp))

			cmd.Println()

			cmd.Println(bold("Liquids:"))
			liquids := config.Liquids()
			if len(liquids) == 0 {
				cmd.Println("  none configured")
			} else {
				names := make([]string, 0, len(liquids))
				for name := range liquids {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					props, err := apiClient.GetProperties(name)
					if err != nil {
						cmd.Printf("  %s: %s\n", name, color.RedString("%v", err))
						continue
					}
					cmd.Printf("  %s: density %s, viscosity %s, surface tension %s, vapor pressure %s\n",
						bold("%s", name),
						bold("%g", props.Density),
						bold("%g", props.Viscosity),
						bold("%g", props.SurfaceTension),
						bold("%g", props.VaporPressure))
				}
			}

			cmd.Println()

			cmd.Println(bold("Temperature schedule:"))
			switch {
			case data.scheduleErr != nil:
				cmd.Printf("  unavailable: %v\n", data.scheduleErr)
			case data.schedule == nil || data.schedule.Cron == "":
				cmd.Println("  disabled")
			default:
				cmd.Printf("  Cron: %s\n", bold("%s", data.schedule.Cron))
				cmd.Printf("  Target temperature: %s\n", bold("%g°C", data.schedule.Temperature))
				for i, t := range data.schedule.NextRuns {
					if i >= 3 {
						break
					}
					cmd.Printf("  Next run: %s\n", t.Local().String())
				}
			}

			return nil
		},
	}
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
