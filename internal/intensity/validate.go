package intensity

import (
	"time"

	"github.com/i474232898/carbon-intensity-aggregation/internal/common"
)

const (
	// MinDuration is the shortest accepted window, in seconds.
	MinDuration = 3600
	// MaxWindow is the exclusive upper bound on a window's span.
	MaxWindow = 10 * 24 * time.Hour

	pluginSource = "ElectricityMapsCarbonIntensity"
)

type violation int

const (
	timestampRequired violation = iota
	timestampNotString
	timestampInvalid
	durationRequired
	durationNotNumber
	durationNotPositive
	durationTooShort
	windowTooLong
	latitudeNotNumber
	longitudeNotNumber
	zoneNotString
	zoneEmpty
	longitudeRequired
	latitudeRequired
	zoneWithCoordinates
	locationRequired
	powerNotNumber
	powerNotPositive
)

var violationMessages = map[violation]string{
	timestampRequired:   "The 'timestamp' field is required",
	timestampNotString:  "The 'timestamp' field must be a string",
	timestampInvalid:    "Invalid timestamp; must be a valid ISO date string",
	durationRequired:    "The 'duration' field is required",
	durationNotNumber:   "The 'duration' field must be a number",
	durationNotPositive: "Invalid duration; must be a positive number",
	durationTooShort:    "Invalid duration: 'duration' must be greater than 3600",
	windowTooLong:       "The maximum duration is 10 days for the Electricity Maps API",
	latitudeNotNumber:   "The 'latitude' field must be a number",
	longitudeNotNumber:  "The 'longitude' field must be a number",
	zoneNotString:       "The 'zone' field must be a string",
	zoneEmpty:           "The 'zone' field must not be empty",
	longitudeRequired:   "The 'longitude' field is required if 'latitude' is provided",
	latitudeRequired:    "The 'latitude' field is required if 'longitude' is provided",
	zoneWithCoordinates: "The 'zone' field cannot be combined with 'longitude' and 'latitude'",
	locationRequired:    "Either the 'zone' field OR both 'longitude' and 'latitude' fields must be provided",
	powerNotNumber:      "The 'power_consumption' field must be a number",
	powerNotPositive:    "Invalid power_consumption; must be a positive number",
}

func (v violation) err() *Error {
	return NewError(InputValidationError, pluginSource, "input", violationMessages[v], nil)
}

// Validate checks every observation in order and returns the typed requests.
// The first violation aborts the whole batch.
func Validate(batch []Observation) ([]Request, error) {
	reqs := make([]Request, 0, len(batch))
	for _, obs := range batch {
		req, err := ParseObservation(obs)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// ParseObservation validates a single observation and converts it to a Request.
func ParseObservation(obs Observation) (Request, error) {
	start, v, ok := parseTimestamp(obs)
	if !ok {
		return Request{}, v.err()
	}

	duration, v, ok := parseDuration(obs)
	if !ok {
		return Request{}, v.err()
	}

	if duration >= MaxWindow.Seconds() {
		return Request{}, windowTooLong.err()
	}

	loc, v, ok := parseLocation(obs)
	if !ok {
		return Request{}, v.err()
	}

	req := Request{
		Start:    start,
		Duration: duration,
		Location: loc,
	}

	if raw, present := obs[FieldPowerConsumption]; present {
		power, isNum := common.ToFloat(raw)
		if !isNum {
			return Request{}, powerNotNumber.err()
		}
		if power <= 0 {
			return Request{}, powerNotPositive.err()
		}
		req.PowerConsumption = &power
	}

	return req, nil
}

func parseTimestamp(obs Observation) (time.Time, violation, bool) {
	raw, present := obs[FieldTimestamp]
	if !present {
		return time.Time{}, timestampRequired, false
	}

	// YAML decoders may hand over an already-parsed instant.
	if ts, isTime := raw.(time.Time); isTime {
		return ts, 0, true
	}

	s, isString := raw.(string)
	if !isString {
		return time.Time{}, timestampNotString, false
	}
	ts, err := common.ParseISOTime(s)
	if err != nil {
		return time.Time{}, timestampInvalid, false
	}
	return ts, 0, true
}

func parseDuration(obs Observation) (float64, violation, bool) {
	raw, present := obs[FieldDuration]
	if !present {
		return 0, durationRequired, false
	}
	d, isNum := common.ToFloat(raw)
	if !isNum {
		return 0, durationNotNumber, false
	}
	if d <= 0 {
		return 0, durationNotPositive, false
	}
	if d < MinDuration {
		return 0, durationTooShort, false
	}
	return d, 0, true
}

func parseLocation(obs Observation) (Location, violation, bool) {
	rawLat, hasLat := obs[FieldLatitude]
	rawLon, hasLon := obs[FieldLongitude]
	rawZone, hasZone := obs[FieldZone]

	var lat, lon float64
	if hasLat {
		f, isNum := common.ToFloat(rawLat)
		if !isNum {
			return nil, latitudeNotNumber, false
		}
		lat = f
	}
	if hasLon {
		f, isNum := common.ToFloat(rawLon)
		if !isNum {
			return nil, longitudeNotNumber, false
		}
		lon = f
	}

	var zone string
	if hasZone {
		s, isString := rawZone.(string)
		if !isString {
			return nil, zoneNotString, false
		}
		if s == "" {
			return nil, zoneEmpty, false
		}
		zone = s
	}

	switch {
	case hasLat && !hasLon:
		return nil, longitudeRequired, false
	case hasLon && !hasLat:
		return nil, latitudeRequired, false
	case hasZone && hasLat:
		return nil, zoneWithCoordinates, false
	case hasZone:
		return Zone{Code: zone}, 0, true
	case hasLat:
		return Coordinates{Latitude: lat, Longitude: lon}, 0, true
	default:
		return nil, locationRequired, false
	}
}
