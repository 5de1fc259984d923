package events

import "encoding/json"

// Event name constants
const (
	LabTemperatureChanged = "config.lab-temperature"
	LiquidChanged         = "config.liquid"
	ScheduleChanged       = "config.schedule"
	ParametersReloaded    = "params.reloaded"
	ConfigReloaded        = "config.reloaded"
)

// Event is a generic event published by the daemon.
type Event struct {
	Name string          // event name
	Data json.RawMessage // raw JSON payload
}

// LabTemperatureEvent is the typed payload for config.lab-temperature.
type LabTemperatureEvent struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
	Ts   int64   `json:"ts"`
}

// LiquidEvent is the typed payload for config.liquid.
type LiquidEvent struct {
	Name    string `json:"name"`
	Removed bool   `json:"removed,omitempty"`
	Ts      int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is
// empty, it returns the zero value of T with a nil error.
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
