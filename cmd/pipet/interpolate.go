package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pipetlab/pipet/pkg/liquid"
)

// NewInterpolateCommand computes locally, so it works without a running
// daemon.
func NewInterpolateCommand() *cobra.Command {
	var (
		t1, v1, t2, v2 float64
	)

	cmd := &cobra.Command{
		Use:     "interpolate [temperature]",
		Short:   "Interpolate a property value at a temperature",
		GroupID: gBasic,
		Long: `Interpolate a property value at a temperature.

Given two calibration points (--t1/--v1 and --t2/--v2), prints the property
value on the straight line through them at the requested temperature.
Temperatures outside the calibration range extrapolate along the same line;
judge the physical validity of extrapolated values yourself.`,
		Example: `  pipet interpolate 22.5 --t1 20 --v1 1000 --t2 25 --v2 950`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseFloatArg(args, "temperature")
			if err != nil {
				return err
			}

			v, err := liquid.Interpolate(t1, v1, t2, v2, t)
			if err != nil {
				return fmt.Errorf("failed to interpolate: %v", err)
			}

			cmd.Printf("%g\n", v)
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&t1, "t1", liquid.RefTemperatureLow, "first calibration temperature (°C)")
	f.Float64Var(&v1, "v1", 0, "property value at --t1")
	f.Float64Var(&t2, "t2", liquid.RefTemperatureHigh, "second calibration temperature (°C)")
	f.Float64Var(&v2, "v2", 0, "property value at --t2")
	_ = cmd.MarkFlagRequired("v1")
	_ = cmd.MarkFlagRequired("v2")

	return cmd
}
