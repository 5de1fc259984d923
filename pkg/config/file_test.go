package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pipetlab/pipet/pkg/liquid"
)

func TestFileDefaults(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "pipet.json"))
	if err != nil {
		t.Fatalf("NewFile returned error: %v", err)
	}

	if got := f.LabTemperature(); got != liquid.DefaultLabTemperature {
		t.Errorf("LabTemperature = %v, want %v", got, liquid.DefaultLabTemperature)
	}
	if f.AllowNonRootAccess() {
		t.Error("AllowNonRootAccess must default to false")
	}
	if f.ParametersFile() == "" {
		t.Error("ParametersFile must have a default")
	}
	if len(f.Liquids()) != 0 {
		t.Errorf("Liquids must default to empty, got %v", f.Liquids())
	}
	if sch := f.TemperatureSchedule(); sch.Cron != "" {
		t.Errorf("TemperatureSchedule must default to disabled, got %+v", sch)
	}
}

func TestFileSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipet.json")

	f, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile returned error: %v", err)
	}

	f.SetLabTemperature(21.0)
	f.SetAllowNonRootAccess(true)
	f.SetParametersFile("/var/lib/pipet/params.csv")
	f.SetLiquid(liquid.Definition{
		Name:           "glycerol",
		VaporPressure:  liquid.TwoPoint(1, 2),
		Density:        liquid.TwoPoint(1.26, 1.25),
		SurfaceTension: liquid.TwoPoint(63, 62),
		Viscosity:      liquid.TwoPoint(10, 9),
	})
	f.SetTemperatureSchedule(Schedule{Cron: "0 8 * * *", Temperature: 23})

	if err := f.Save(); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	g, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile (reload) returned error: %v", err)
	}

	if g.LabTemperature() != 21.0 {
		t.Errorf("LabTemperature = %v, want 21.0", g.LabTemperature())
	}
	if !g.AllowNonRootAccess() {
		t.Error("AllowNonRootAccess not persisted")
	}
	if g.ParametersFile() != "/var/lib/pipet/params.csv" {
		t.Errorf("ParametersFile = %q", g.ParametersFile())
	}
	def, ok := g.Liquid("glycerol")
	if !ok {
		t.Fatal("liquid glycerol not persisted")
	}
	if def.Viscosity.P1.Value != 10 {
		t.Errorf("viscosity calibration lost: %+v", def.Viscosity)
	}
	sch := g.TemperatureSchedule()
	if sch.Cron != "0 8 * * *" || sch.Temperature != 23 {
		t.Errorf("schedule not persisted: %+v", sch)
	}
}

func TestFileRemoveLiquid(t *testing.T) {
	f := NewFileFromConfig(&RawFileConfig{}, filepath.Join(t.TempDir(), "pipet.json"))

	f.SetLiquid(liquid.Definition{
		Name:           "ethanol",
		VaporPressure:  liquid.TwoPoint(44, 59),
		Density:        liquid.TwoPoint(0.789, 0.785),
		SurfaceTension: liquid.TwoPoint(22.3, 21.9),
		Viscosity:      liquid.TwoPoint(1.2, 1.0),
	})

	if !f.RemoveLiquid("ethanol") {
		t.Fatal("RemoveLiquid returned false for existing liquid")
	}
	if f.RemoveLiquid("ethanol") {
		t.Fatal("RemoveLiquid returned true for missing liquid")
	}
}

func TestFileLoadRejectsInvalidLiquid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipet.json")
	raw := `{"liquids":{"broken":{"density":{"p1":{"temperature":20,"value":1},"p2":{"temperature":20,"value":2}}}}}`
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := NewFile(path); err == nil {
		t.Fatal("expected error for invalid calibration in config")
	}
}

func TestFileDisableSchedule(t *testing.T) {
	f := NewFileFromConfig(&RawFileConfig{
		TemperatureSchedule: &Schedule{Cron: "0 8 * * *", Temperature: 23},
	}, filepath.Join(t.TempDir(), "pipet.json"))

	f.SetTemperatureSchedule(Schedule{})
	if sch := f.TemperatureSchedule(); sch.Cron != "" {
		t.Errorf("schedule not disabled: %+v", sch)
	}
}
