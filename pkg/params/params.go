// Package params loads the optimized pipetting parameter table produced by
// lab calibration runs. The table is a CSV keyed by (pipette model, liquid
// name); when a transfer matches an entry, its measured rates replace the
// parameters derived from physical properties.
package params

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"

	"github.com/pipetlab/pipet/pkg/liquid"
)

// Column headers as written by the calibration pipeline.
const (
	colPipette         = "Pipette"
	colLiquid          = "Liquid"
	colAspirationRate  = "Aspiration Rate (µL/s)"
	colAspirationDelay = "Aspiration Delay (s)"
	colWithdrawalRate  = "Aspiration Withdrawal Rate (mm/s)"
	colDispenseRate    = "Dispense Rate (µL/s)"
	colDispenseDelay   = "Dispense Delay (s)"
	colBlowoutRate     = "Blowout Rate (µL/s)"
	colTouchTip        = "Touch tip"
)

// Entry holds the optimized parameters for one (pipette, liquid) pair.
type Entry struct {
	Pipette         string  `json:"pipette"`
	Liquid          string  `json:"liquid"`
	AspirationRate  float64 `json:"aspirationRate"`
	AspirationDelay float64 `json:"aspirationDelay"`
	WithdrawalSpeed float64 `json:"withdrawalSpeed"`
	DispenseRate    float64 `json:"dispenseRate"`
	DispenseDelay   float64 `json:"dispenseDelay"`
	BlowoutRate     float64 `json:"blowoutRate"`
	TouchTip        bool    `json:"touchTip"`
}

// Apply overrides a transfer plan with the optimized rates.
func (e Entry) Apply(p *liquid.TransferPlan) {
	p.AspirationRate = e.AspirationRate
	p.AspirationDelay = e.AspirationDelay
	p.WithdrawalSpeed = e.WithdrawalSpeed
	p.DispenseRate = e.DispenseRate
	p.DispenseDelay = e.DispenseDelay
	p.BlowoutRate = e.BlowoutRate
	p.TouchTip = e.TouchTip
	p.Source = "optimized"
}

// Table is an immutable lookup of optimized parameter entries. A nil Table
// is valid and contains no entries.
type Table struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func keyOf(pipette, liquidName string) string {
	return NormalizePipette(pipette) + "\x00" + liquidName
}

// NormalizePipette reduces a pipette name to its model, so full driver
// names and bare models key the same entries: "p300_single_gen2" -> "P300".
func NormalizePipette(name string) string {
	model := name
	if i := strings.IndexByte(name, '_'); i >= 0 {
		model = name[:i]
	}
	return strings.ToUpper(model)
}

// Load reads an optimized parameter CSV. Unknown columns are ignored;
// missing required columns or unparsable numbers fail the whole load.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open parameters file")
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to parse %s", path)
	}
	if len(records) == 0 {
		return &Table{entries: map[string]Entry{}}, nil
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colPipette, colLiquid} {
		if _, ok := col[required]; !ok {
			return nil, pkgerrors.Errorf("parameters file %s is missing column %q", path, required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	entries := make(map[string]Entry, len(records)-1)
	for n, row := range records[1:] {
		e := Entry{
			Pipette: NormalizePipette(field(row, colPipette)),
			Liquid:  field(row, colLiquid),
		}
		if e.Pipette == "" || e.Liquid == "" {
			return nil, pkgerrors.Errorf("row %d of %s has an empty pipette or liquid", n+2, path)
		}

		for _, c := range []struct {
			name string
			out  *float64
		}{
			{colAspirationRate, &e.AspirationRate},
			{colAspirationDelay, &e.AspirationDelay},
			{colWithdrawalRate, &e.WithdrawalSpeed},
			{colDispenseRate, &e.DispenseRate},
			{colDispenseDelay, &e.DispenseDelay},
			{colBlowoutRate, &e.BlowoutRate},
		} {
			s := field(row, c.name)
			if s == "" {
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, pkgerrors.Wrapf(err, "row %d of %s: bad %q", n+2, path, c.name)
			}
			*c.out = v
		}

		e.TouchTip = strings.EqualFold(field(row, colTouchTip), "yes")
		entries[keyOf(e.Pipette, e.Liquid)] = e
	}

	return &Table{entries: entries}, nil
}

// Lookup finds the entry for a pipette (model or full driver name) and a
// liquid name.
func (t *Table) Lookup(pipette, liquidName string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[keyOf(pipette, liquidName)]
	return e, ok
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.entries)
}
