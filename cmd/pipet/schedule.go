package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func NewScheduleCommand() *cobra.Command {
	var temperature float64

	cmd := &cobra.Command{
		Use:     "schedule [cron-expression]",
		Aliases: []string{"sch", "sche", "sched"},
		Short:   "Manage the lab temperature schedule",
		Long: `Manage the lab temperature schedule.

The schedule command can be used in multiple ways:
  pipet schedule 'minute hour day month weekday' -t 19.5  Set schedule with cron expression
  pipet schedule disable                                  Disable the schedule
  pipet schedule postpone [duration]                      Postpone next run
  pipet schedule skip                                     Skip next run
  pipet schedule show                                     Show current schedule

On each run the daemon sets the lab temperature to the target. Pair two
schedules by running "pipet schedule" again with a different target to
model day/night lab setpoints.`,
		Example: `  pipet schedule '0 19 * * *' -t 19.5 (At 19:00 every day, drop to 19.5°C)
  pipet schedule '0 7 * * 1-5' -t 22.5 (At 07:00 on weekdays, back to 22.5°C)`,
		GroupID: gAdvanced,
		RunE: func(cmd *cobra.Command, args []string) error {
			// If no arguments, show the current schedule
			if len(args) == 0 {
				return runScheduleShow(cmd)
			}
			if !cmd.Flags().Changed("temperature") {
				return fmt.Errorf("setting a schedule requires --temperature")
			}
			return runScheduleSet(cmd, args[0], temperature)
		},
	}

	cmd.Flags().Float64VarP(&temperature, "temperature", "t", 22.5, "Lab temperature to set when the schedule fires (°C)")

	// Add subcommands
	cmd.AddCommand(
		newScheduleDisableCommand(),
		newSchedulePostponeCommand(),
		newScheduleSkipCommand(),
		newScheduleShowCommand(),
	)

	return cmd
}

func newScheduleDisableCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disable",
		Short: "Disable the lab temperature schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScheduleDisable(cmd)
		},
	}
	return cmd
}

func newSchedulePostponeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "postpone [duration]",
		Short: "Postpone the next scheduled temperature change",
		Example: `  pipet schedule postpone      (Postpone by 1 hour)
  pipet schedule postpone 90m  (Postpone by 90 minutes)
  pipet schedule postpone 2h   (Postpone by 2 hours)`,
		Long: `Postpone the next scheduled temperature change by a specified duration.
If no duration is provided, defaults to 1 hour.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := time.Hour // default
			if len(args) > 0 {
				parsed, err := time.ParseDuration(args[0])
				if err != nil {
					return fmt.Errorf("invalid duration %q: %w", args[0], err)
				}
				d = parsed
			}
			return runSchedulePostpone(cmd, d)
		},
	}
	return cmd
}

func newScheduleSkipCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skip",
		Short: "Skip the next scheduled temperature change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScheduleSkip(cmd)
		},
	}
	return cmd
}

func newScheduleShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current schedule and next run times",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScheduleShow(cmd)
		},
	}
	return cmd
}

func runScheduleSet(cmd *cobra.Command, cronExpr string, temperature float64) error {
	if cronExpr == "" {
		return fmt.Errorf("cron expression cannot be empty")
	}
	status, err := apiClient.SetSchedule(cronExpr, temperature)
	if err != nil {
		return err
	}
	cmd.Printf("Scheduled %g°C. Next %d run(s):\n", status.Temperature, len(status.NextRuns))
	for _, run := range status.NextRuns {
		cmd.Printf("  - %s\n", run.Local().Format(time.DateTime))
	}
	return nil
}

func runScheduleDisable(cmd *cobra.Command) error {
	if _, err := apiClient.DisableSchedule(); err != nil {
		return err
	}
	cmd.Println("Temperature schedule disabled.")
	return nil
}

func runSchedulePostpone(cmd *cobra.Command, duration time.Duration) error {
	if _, err := apiClient.PostponeSchedule(duration); err != nil {
		return err
	}
	cmd.Printf("Next run postponed by %s.\n", duration)
	return nil
}

func runScheduleSkip(cmd *cobra.Command) error {
	if _, err := apiClient.SkipSchedule(); err != nil {
		return err
	}
	cmd.Println("Next scheduled run skipped.")
	return nil
}

func runScheduleShow(cmd *cobra.Command) error {
	status, err := apiClient.GetSchedule()
	if err != nil {
		return err
	}
	if status == nil || status.Cron == "" {
		cmd.Println("Temperature schedule is not set.")
		return nil
	}
	cmd.Printf("Cron: %s\n", status.Cron)
	cmd.Printf("Target temperature: %g°C\n", status.Temperature)
	cmd.Printf("Next %d run(s):\n", len(status.NextRuns))
	for _, run := range status.NextRuns {
		cmd.Printf("  - %s\n", run.Local().Format(time.DateTime))
	}
	return nil
}
