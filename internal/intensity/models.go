package intensity

import (
	"strconv"
	"time"
)

// Unit is the label attached to an aggregated carbon value.
type Unit string

const UnitGrams Unit = "gCO2eq"

// Observation field names, as they appear in JSON/YAML input.
const (
	FieldTimestamp        = "timestamp"
	FieldDuration         = "duration"
	FieldZone             = "zone"
	FieldLatitude         = "latitude"
	FieldLongitude        = "longitude"
	FieldPowerConsumption = "power_consumption"

	FieldCarbonIntensity = "carbonIntensity"
	FieldUnit            = "unit"
)

// Observation is one raw unit of work as decoded from a request body or manifest.
// Fields beyond the recognized ones are carried through to the output untouched.
type Observation map[string]any

// Record is an Observation augmented with carbonIntensity and unit.
type Record map[string]any

// Location identifies where intensity is queried: either a Zone or Coordinates.
type Location interface {
	// Key returns a canonical string used in logs.
	Key() string
	isLocation()
}

// Zone is a provider-defined grid region code (e.g. "DE", "PJM").
type Zone struct {
	Code string `json:"zone"`
}

func (z Zone) Key() string { return z.Code }
func (Zone) isLocation()   {}

// Coordinates is a latitude/longitude pair resolved to a zone by the provider.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) Key() string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + ":" + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}
func (Coordinates) isLocation() {}

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Request is a validated Observation.
type Request struct {
	Start    time.Time
	Duration float64 // seconds
	Location Location

	// PowerConsumption is nil when the observation did not carry one.
	PowerConsumption *float64
}

// Window returns the query window covered by the request.
func (r Request) Window() Window {
	return Window{
		Start: r.Start,
		End:   r.Start.Add(secondsToDuration(r.Duration)),
	}
}

// HourlySample is one clock hour of provider data, in gCO2eq/kWh.
type HourlySample struct {
	HourStart time.Time `json:"datetime"`
	Intensity float64   `json:"carbonIntensity"`
}

// Result is the aggregated value for a single observation.
type Result struct {
	Value float64 `json:"carbonIntensity"`
	Unit  Unit    `json:"unit"`
}

// NewRecord builds the output record for obs without mutating it.
func NewRecord(obs Observation, res Result) Record {
	rec := make(Record, len(obs)+2)
	for k, v := range obs {
		rec[k] = v
	}
	rec[FieldCarbonIntensity] = res.Value
	rec[FieldUnit] = string(res.Unit)
	return rec
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}
