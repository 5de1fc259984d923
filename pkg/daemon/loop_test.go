package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRefreshSnapshots(t *testing.T) {
	setupTestDaemon(t)

	l, ok := cache.get("glycerol")
	if !ok {
		t.Fatal("expected glycerol snapshot after refresh")
	}
	if l.LabTemperature != 22.5 {
		t.Fatalf("snapshot temperature = %v, want 22.5", l.LabTemperature)
	}
	if l.Properties.Density != 975 {
		t.Fatalf("snapshot density = %v, want 975", l.Properties.Density)
	}

	if _, ok := cache.get("nope"); ok {
		t.Fatal("unexpected snapshot for unknown liquid")
	}
}

func TestRefreshSnapshotsTracksTemperature(t *testing.T) {
	setupTestDaemon(t)

	conf.SetLabTemperature(25)
	refreshSnapshots()

	l, ok := cache.get("glycerol")
	if !ok {
		t.Fatal("expected glycerol snapshot after refresh")
	}
	if l.Properties.Density != 950 {
		t.Fatalf("snapshot density = %v, want 950 at 25°C", l.Properties.Density)
	}
}

func TestLoadParams(t *testing.T) {
	setupTestDaemon(t)

	conf.SetParametersFile(filepath.Join(t.TempDir(), "missing.csv"))
	if err := loadParams(); err == nil {
		t.Fatal("expected error for missing parameters file")
	}

	csv := "Pipette,Liquid,Aspiration Rate (µL/s),Touch tip\nP300,glycerol,20.5,Yes\n"
	path := filepath.Join(t.TempDir(), "params.csv")
	if err := os.WriteFile(path, []byte(csv), 0644); err != nil {
		t.Fatalf("failed to write params csv: %v", err)
	}
	conf.SetParametersFile(path)

	if err := loadParams(); err != nil {
		t.Fatalf("loadParams returned error: %v", err)
	}

	entry, ok := lookupParams("p300_single_gen2", "glycerol")
	if !ok {
		t.Fatal("expected optimized entry after load")
	}
	if entry.AspirationRate != 20.5 || !entry.TouchTip {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}
