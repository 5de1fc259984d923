package main

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pipetlab/pipet/pkg/liquid"
)

func NewLiquidCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "liquid",
		Aliases: []string{"liquids"},
		Short:   "Manage liquid definitions",
		GroupID: gBasic,
		Long: `Manage liquid definitions.

A liquid definition holds two calibration points per physical property
(vapor pressure, density, surface tension, viscosity). The daemon estimates
each property at the lab temperature by linear interpolation between its
calibration points.`,
	}

	cmd.AddCommand(
		newLiquidListCommand(),
		newLiquidShowCommand(),
		newLiquidSetCommand(),
		newLiquidRemoveCommand(),
	)

	return cmd
}

func newLiquidListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured liquids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			liquids, err := apiClient.GetLiquids()
			if err != nil {
				return fmt.Errorf("failed to list liquids: %v", err)
			}

			if len(liquids) == 0 {
				cmd.Println("No liquids configured. Add one with \"pipet liquid set\".")
				return nil
			}

			names := make([]string, 0, len(liquids))
			for name := range liquids {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				cmd.Println(name)
			}

			return nil
		},
	}
}

func newLiquidShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Show a liquid's properties at the lab temperature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			props, err := apiClient.GetProperties(name)
			if err != nil {
				return fmt.Errorf("failed to get properties: %v", err)
			}
			handling, err := apiClient.GetHandling(name)
			if err != nil {
				return fmt.Errorf("failed to get handling: %v", err)
			}

			cmd.Printf("%s at %g°C:\n", name, props.Temperature)
			cmd.Printf("  Vapor pressure:  %g\n", props.VaporPressure)
			cmd.Printf("  Density:         %g\n", props.Density)
			cmd.Printf("  Surface tension: %g\n", props.SurfaceTension)
			cmd.Printf("  Viscosity:       %g\n", props.Viscosity)
			cmd.Println("Handling:")
			cmd.Printf("  Aspirate speed:  ×%.2f at %g mm\n", handling.AspirateSpeed, handling.AspirateHeight)
			cmd.Printf("  Dispense speed:  ×%.2f at %g mm\n", handling.DispenseSpeed, handling.DispenseHeight)
			cmd.Printf("  Air gap:         %g µL\n", handling.TrailingAirGap)
			cmd.Printf("  Blowout:         %g µL\n", handling.Blowout)
			cmd.Printf("  Pre-wet:         %v\n", handling.PreWet)
			cmd.Printf("  Volume:          ×%g %+g µL\n", handling.ScalingFactor, handling.Offset)

			return nil
		},
	}
}

func newLiquidSetCommand() *cobra.Command {
	var (
		refLow, refHigh float64
		vp              []float64
		density         []float64
		st              []float64
		viscosity       []float64
	)

	cmd := &cobra.Command{
		Use:   "set [name]",
		Short: "Add or update a liquid definition",
		Long: `Add or update a liquid definition.

Each property takes two values, measured at the reference temperatures
(20°C and 25°C unless overridden with --ref-low/--ref-high).`,
		Example: `  pipet liquid set glycerol \
    --vapor-pressure 0.0002,0.0003 \
    --density 1261,1258 \
    --surface-tension 63.4,62.9 \
    --viscosity 1412,945`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			curve := func(flag string, vals []float64) (liquid.Curve, error) {
				if len(vals) != 2 {
					return liquid.Curve{}, fmt.Errorf("--%s needs exactly two values, got %d", flag, len(vals))
				}
				return liquid.Curve{
					P1: liquid.CalibrationPoint{Temperature: refLow, Value: vals[0]},
					P2: liquid.CalibrationPoint{Temperature: refHigh, Value: vals[1]},
				}, nil
			}

			def := liquid.Definition{Name: name}
			var err error
			if def.VaporPressure, err = curve("vapor-pressure", vp); err != nil {
				return err
			}
			if def.Density, err = curve("density", density); err != nil {
				return err
			}
			if def.SurfaceTension, err = curve("surface-tension", st); err != nil {
				return err
			}
			if def.Viscosity, err = curve("viscosity", viscosity); err != nil {
				return err
			}

			if err := def.Validate(); err != nil {
				return err
			}

			ret, err := apiClient.SetLiquid(def)
			if err != nil {
				return fmt.Errorf("failed to set liquid: %v", err)
			}

			if ret != "" {
				logrus.Debugf("daemon responded: %s", ret)
			}

			logrus.Infof("successfully set liquid %q", name)

			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&refLow, "ref-low", liquid.RefTemperatureLow, "first reference temperature (°C)")
	f.Float64Var(&refHigh, "ref-high", liquid.RefTemperatureHigh, "second reference temperature (°C)")
	f.Float64SliceVar(&vp, "vapor-pressure", nil, "vapor pressure at the reference temperatures")
	f.Float64SliceVar(&density, "density", nil, "density at the reference temperatures")
	f.Float64SliceVar(&st, "surface-tension", nil, "surface tension at the reference temperatures")
	f.Float64SliceVar(&viscosity, "viscosity", nil, "viscosity at the reference temperatures")
	_ = cmd.MarkFlagRequired("vapor-pressure")
	_ = cmd.MarkFlagRequired("density")
	_ = cmd.MarkFlagRequired("surface-tension")
	_ = cmd.MarkFlagRequired("viscosity")

	return cmd
}

func newLiquidRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove [name]",
		Aliases: []string{"rm", "delete"},
		Short:   "Remove a liquid definition",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			name := args[0]

			ret, err := apiClient.RemoveLiquid(name)
			if err != nil {
				return fmt.Errorf("failed to remove liquid: %v", err)
			}

			if ret != "" {
				logrus.Debugf("daemon responded: %s", ret)
			}

			logrus.Infof("successfully removed liquid %q", name)

			return nil
		},
	}
}
