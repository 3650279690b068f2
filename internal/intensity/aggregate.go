package intensity

import (
	"fmt"
	"math"
	"time"

	"github.com/i474232898/carbon-intensity-aggregation/internal/common"
)

// HourlyWeights returns, for each provider hour consumed by a window starting
// at start and lasting duration seconds, the fraction of that hour to count.
//
// There are floor(duration/3600) weights. The first covers start up to the
// next clock hour, the last covers the start of its clock hour up to the end
// of the window, and every hour in between counts fully. When only one hour
// is consumed the last-hour rule applies to it. The last weight can exceed 1
// when the window ends past the clock hour following start+i hours.
func HourlyWeights(start time.Time, duration float64) []float64 {
	if !windowInRange(duration) {
		return nil
	}
	numHours := int(math.Floor(duration / MinDuration))

	end := start.Add(secondsToDuration(duration))
	weights := make([]float64, numHours)

	for i := range weights {
		switch {
		case i == numHours-1:
			hourStart := common.StartOfHour(start.Add(time.Duration(i) * time.Hour))
			weights[i] = end.Sub(hourStart).Seconds() / MinDuration
		case i == 0:
			next := common.StartOfHour(start.Add(time.Hour))
			weights[i] = next.Sub(start).Seconds() / MinDuration
		default:
			weights[i] = 1
		}
	}

	return weights
}

// Aggregate reduces hourly samples to one duration-weighted value.
//
// The weighted sum is not divided by the number of hours. When power is nil
// the multiplier is 1. The unit is always UnitGrams.
func Aggregate(start time.Time, duration float64, samples []HourlySample, power *float64) (Result, error) {
	switch {
	case math.IsNaN(duration) || math.IsInf(duration, 0):
		return Result{}, durationNotNumber.err()
	case duration < MinDuration:
		return Result{}, durationTooShort.err()
	case duration >= MaxWindow.Seconds():
		return Result{}, windowTooLong.err()
	}

	weights := HourlyWeights(start, duration)
	if len(samples) < len(weights) {
		return Result{}, NewError(APIRequestError, pluginSource, "provider",
			fmt.Sprintf("Expected at least %d hourly samples, got %d", len(weights), len(samples)), nil)
	}

	var total float64
	for i, w := range weights {
		total += samples[i].Intensity * w
	}

	multiplier := 1.0
	if power != nil {
		multiplier = *power
	}

	return Result{
		Value: total * multiplier,
		Unit:  UnitGrams,
	}, nil
}

// windowInRange reports whether duration spans at least one hour and less than MaxWindow.
func windowInRange(duration float64) bool {
	return duration >= MinDuration && duration < MaxWindow.Seconds()
}

// AggregateRequest is Aggregate applied to a validated request.
func AggregateRequest(req Request, samples []HourlySample) (Result, error) {
	return Aggregate(req.Start, req.Duration, samples, req.PowerConsumption)
}
