package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pipetlab/pipet/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewTemperatureCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "temperature [celsius]",
		Aliases: []string{"temp"},
		Short:   "Get or set the lab temperature",
		GroupID: gBasic,
		Long: `Get or set the lab temperature.

Without an argument, the current lab temperature is printed. With an argument,
the lab temperature is changed and every liquid's properties are re-estimated
at the new temperature.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				t, err := apiClient.GetLabTemperature()
				if err != nil {
					return fmt.Errorf("failed to get lab temperature: %v", err)
				}
				cmd.Printf("%g°C\n", t)
				return nil
			}

			t, err := parseFloatArg(args, "temperature")
			if err != nil {
				return err
			}

			ret, err := apiClient.SetLabTemperature(t)
			if err != nil {
				return fmt.Errorf("failed to set lab temperature: %v", err)
			}

			if ret != "" {
				logrus.Debugf("daemon responded: %s", ret)
			}

			logrus.Infof("successfully set lab temperature to %g°C", t)

			return nil
		},
	}
}

// NewPlanCommand .
func NewPlanCommand() *cobra.Command {
	var (
		pipette string
		volume  float64
	)

	cmd := &cobra.Command{
		Use:     "plan [liquid]",
		Short:   "Compute a transfer plan for a liquid",
		GroupID: gBasic,
		Long: `Compute a transfer plan for a liquid.

The plan combines optimized pipetting parameters measured for the given
pipette (when present in the parameter table) with parameters derived from
the liquid's physical properties at the current lab temperature.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := apiClient.GetTransferPlan(args[0], pipette, volume)
			if err != nil {
				return fmt.Errorf("failed to get transfer plan: %v", err)
			}

			cmd.Printf("Transfer plan for %s (%s, %g µL, %s parameters):\n",
				plan.Liquid, plan.Pipette, plan.Volume, plan.Source)
			cmd.Printf("  Aspirate: rate %s, delay %gs, withdrawal %s\n",
				rateOrDefault(plan.AspirationRate, "µL/s"), plan.AspirationDelay,
				rateOrDefault(plan.WithdrawalSpeed, "mm/s"))
			cmd.Printf("  Dispense: rate %s, delay %gs, blowout %s\n",
				rateOrDefault(plan.DispenseRate, "µL/s"), plan.DispenseDelay,
				rateOrDefault(plan.BlowoutRate, "µL/s"))
			cmd.Printf("  Speeds:   aspirate ×%.2f, dispense ×%.2f\n",
				plan.Handling.AspirateSpeed, plan.Handling.DispenseSpeed)
			cmd.Printf("  Air gap:  %g µL, pre-wet: %v, touch tip: %v\n",
				plan.Handling.TrailingAirGap, plan.Handling.PreWet, plan.TouchTip)

			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&pipette, "pipette", "p", "", "pipette model or full driver name (e.g. P300 or p300_single_gen2)")
	f.Float64VarP(&volume, "volume", "v", 0, "transfer volume in µL")
	_ = cmd.MarkFlagRequired("pipette")
	_ = cmd.MarkFlagRequired("volume")

	return cmd
}

func rateOrDefault(v float64, unit string) string {
	if v == 0 {
		return "pipette default"
	}
	return fmt.Sprintf("%g %s", v, unit)
}

// NewParamsCommand .
func NewParamsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "params [pipette] [liquid]",
		Short:   "Show optimized pipetting parameters",
		GroupID: gAdvanced,
		Long: `Show the optimized pipetting parameters measured for a (pipette, liquid)
pair, as loaded from the parameter table on the daemon host.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := apiClient.GetParams(args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to get optimized parameters: %v", err)
			}

			cmd.Printf("%s / %s:\n", entry.Pipette, entry.Liquid)
			cmd.Printf("  Aspiration rate:   %g µL/s\n", entry.AspirationRate)
			cmd.Printf("  Aspiration delay:  %g s\n", entry.AspirationDelay)
			cmd.Printf("  Withdrawal speed:  %g mm/s\n", entry.WithdrawalSpeed)
			cmd.Printf("  Dispense rate:     %g µL/s\n", entry.DispenseRate)
			cmd.Printf("  Dispense delay:    %g s\n", entry.DispenseDelay)
			cmd.Printf("  Blowout rate:      %g µL/s\n", entry.BlowoutRate)
			cmd.Printf("  Touch tip:         %v\n", entry.TouchTip)

			return nil
		},
	}
}
