package airquality

import (
	"math"
	"strconv"
	"strings"
)

const (
	msgLocationIDRequired   = "Location ID is required"
	msgLocationNameRequired = "Location name is required"
	msgParameterRequired    = "Parameter is required"
	msgUnitRequired         = "Unit is required"
	msgLatitudeRange        = "Latitude must be between -90 and 90"
	msgLongitudeRange       = "Longitude must be between -180 and 180"
)

// validatedFields are the fields with constraints; datetimes are never checked.
var validatedFields = []string{
	FieldLocationID,
	FieldLocationName,
	FieldParameter,
	FieldUnit,
	FieldLatitude,
	FieldLongitude,
}

// IsValidLatitude reports whether text is a number in [-90, 90].
func IsValidLatitude(text string) bool {
	return parsesWithin(text, -90, 90)
}

// IsValidLongitude reports whether text is a number in [-180, 180].
func IsValidLongitude(text string) bool {
	return parsesWithin(text, -180, 180)
}

func parsesWithin(text string, lower, upper float64) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) {
		return false
	}
	return v >= lower && v <= upper
}

// ValidateInput evaluates every rule independently and returns the failures.
func ValidateInput(in FormInput) ValidationErrors {
	errs := make(ValidationErrors)
	for _, name := range validatedFields {
		if msg := fieldError(in, name); msg != "" {
			errs[name] = msg
		}
	}
	return errs
}

// fieldError returns the message for a failing field, or "" when it passes or
// has no constraint.
func fieldError(in FormInput, name string) string {
	switch name {
	case FieldLocationID:
		if isBlank(in.LocationID) {
			return msgLocationIDRequired
		}
	case FieldLocationName:
		if isBlank(in.LocationName) {
			return msgLocationNameRequired
		}
	case FieldParameter:
		if isBlank(in.Parameter) {
			return msgParameterRequired
		}
	case FieldUnit:
		if isBlank(in.Unit) {
			return msgUnitRequired
		}
	case FieldLatitude:
		if !IsValidLatitude(in.Latitude) {
			return msgLatitudeRange
		}
	case FieldLongitude:
		if !IsValidLongitude(in.Longitude) {
			return msgLongitudeRange
		}
	}
	return ""
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
