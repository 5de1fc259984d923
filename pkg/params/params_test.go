package params

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pipetlab/pipet/pkg/liquid"
)

const sampleCSV = `Pipette,Liquid,Aspiration Rate (µL/s),Aspiration Delay (s),Aspiration Withdrawal Rate (mm/s),Dispense Rate (µL/s),Dispense Delay (s),Blowout Rate (µL/s),Touch tip
P300,Glycerol 50%,20.5,2,4,15,1.5,10,Yes
P20,Ethanol 80%,6,0.5,10,6,0,3.5,No
`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "optimized_pipette_parameters.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write sample csv: %v", err)
	}
	return path
}

func TestLoadAndLookup(t *testing.T) {
	table, err := Load(writeSample(t, sampleCSV))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len = %d, want 2", table.Len())
	}

	e, ok := table.Lookup("P300", "Glycerol 50%")
	if !ok {
		t.Fatal("expected entry for (P300, Glycerol 50%)")
	}
	if e.AspirationRate != 20.5 || e.DispenseRate != 15 || !e.TouchTip {
		t.Fatalf("unexpected entry: %+v", e)
	}

	// Full Opentrons driver names must resolve to the model.
	if _, ok := table.Lookup("p300_single_gen2", "Glycerol 50%"); !ok {
		t.Fatal("expected driver name p300_single_gen2 to match model P300")
	}

	e, ok = table.Lookup("p20_multi_gen2", "Ethanol 80%")
	if !ok {
		t.Fatal("expected entry for (P20, Ethanol 80%)")
	}
	if e.TouchTip {
		t.Fatal("Touch tip \"No\" must parse as false")
	}

	if _, ok := table.Lookup("P1000", "Glycerol 50%"); ok {
		t.Fatal("unexpected entry for unknown pipette")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadMissingColumns(t *testing.T) {
	_, err := Load(writeSample(t, "Pipette,Aspiration Rate (µL/s)\nP300,20\n"))
	if err == nil {
		t.Fatal("expected error for missing Liquid column")
	}
}

func TestLoadBadNumber(t *testing.T) {
	_, err := Load(writeSample(t, "Pipette,Liquid,Dispense Rate (µL/s)\nP300,water,fast\n"))
	if err == nil {
		t.Fatal("expected error for unparsable rate")
	}
}

func TestNilTable(t *testing.T) {
	var table *Table
	if table.Len() != 0 {
		t.Fatal("nil table must be empty")
	}
	if _, ok := table.Lookup("P300", "water"); ok {
		t.Fatal("nil table must not match")
	}
}

func TestEntryApply(t *testing.T) {
	l, err := liquid.NewTwoPoint("glycerol", 1, 2, 1.26, 1.25, 63, 62, 10, 9, 22.5)
	if err != nil {
		t.Fatalf("NewTwoPoint returned error: %v", err)
	}
	plan, err := l.NewTransferPlan("P300", 100)
	if err != nil {
		t.Fatalf("NewTransferPlan returned error: %v", err)
	}

	e := Entry{
		Pipette:         "P300",
		Liquid:          "glycerol",
		AspirationRate:  20.5,
		AspirationDelay: 2,
		WithdrawalSpeed: 4,
		DispenseRate:    15,
		DispenseDelay:   1.5,
		BlowoutRate:     10,
		TouchTip:        true,
	}
	e.Apply(plan)

	if plan.Source != "optimized" {
		t.Errorf("source = %q, want optimized", plan.Source)
	}
	if plan.AspirationRate != 20.5 || plan.DispenseDelay != 1.5 || !plan.TouchTip {
		t.Errorf("entry not applied: %+v", plan)
	}
}
