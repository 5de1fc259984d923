package liquid

import pkgerrors "github.com/pkg/errors"

// TransferPlan is the fully resolved parameter set for one transfer of a
// liquid with a given pipette. Rates of 0 mean "use the pipette default";
// relative speeds from Handling are carried separately so drivers without
// absolute rate calibration can still scale their defaults.
type TransferPlan struct {
	Liquid  string  `json:"liquid"`
	Pipette string  `json:"pipette"`
	Volume  float64 `json:"volume"`

	AspirationRate  float64 `json:"aspirationRate"`  // µL/s, 0 = pipette default
	AspirationDelay float64 `json:"aspirationDelay"` // s
	WithdrawalSpeed float64 `json:"withdrawalSpeed"` // mm/s, 0 = pipette default
	DispenseRate    float64 `json:"dispenseRate"`    // µL/s, 0 = pipette default
	DispenseDelay   float64 `json:"dispenseDelay"`   // s
	BlowoutRate     float64 `json:"blowoutRate"`     // µL/s, 0 = pipette default
	TouchTip        bool    `json:"touchTip"`

	Handling Handling `json:"handling"`

	// Source records where the rates came from: "optimized" when an entry
	// from the optimized parameter table was applied, "derived" otherwise.
	Source string `json:"source"`
}

// NewTransferPlan builds the baseline plan for transferring volume µL of the
// liquid. Absolute rates are left at the pipette defaults; speed scaling,
// air gap and blowout come from the liquid's handling parameters. An
// optimized parameter table entry, when available, is applied on top by the
// caller.
func (l *Liquid) NewTransferPlan(pipette string, volume float64) (*TransferPlan, error) {
	if volume <= 0 {
		return nil, pkgerrors.Errorf("transfer volume must be positive, got %g", volume)
	}

	return &TransferPlan{
		Liquid:   l.Name,
		Pipette:  pipette,
		Volume:   volume*l.Handling.ScalingFactor + l.Handling.Offset,
		TouchTip: false,
		Handling: l.Handling,
		Source:   "derived",
	}, nil
}
