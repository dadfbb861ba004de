// Package billing turns an hourly rate and a consumed duration into the
// amount owed for a consultation.
package billing

import "math"

// Amount charges hourlyRate pro rata per minute and rounds half-up to two
// decimal places. hourlyRate must be >= 0; durationMinutes is expected >= 1.
//
// The arithmetic runs in integer cents so that decimal midpoints round up
// exactly; float64 cannot represent a value like 66.055 and would round it
// toward whichever binary double happens to be nearest.
func Amount(hourlyRate float64, durationMinutes int) float64 {
	rateCents := int64(math.Round(hourlyRate * 100))
	centMinutes := rateCents * int64(durationMinutes)
	cents := (centMinutes + 30) / 60
	return float64(cents) / 100
}
