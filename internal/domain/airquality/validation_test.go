package airquality

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidLatitude(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"37.7749", true},
		{"-90", true},
		{"90", true},
		{" 45.5 ", true},
		{"91", false},
		{"-90.0001", false},
		{"abc", false},
		{"12abc", false},
		{"", false},
		{"NaN", false},
		{"Inf", false},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, IsValidLatitude(tc.input), "latitude %q", tc.input)
	}
}

func TestIsValidLongitude(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"-122.4194", true},
		{"180", true},
		{"-180", true},
		{"-200", false},
		{"180.5", false},
		{"12e1", true},
		{"east", false},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, IsValidLongitude(tc.input), "longitude %q", tc.input)
	}
}

func TestValidateInputEmptyReportsSixFields(t *testing.T) {
	errs := ValidateInput(FormInput{})
	require.Len(t, errs, 6)
	require.Equal(t, []string{
		FieldLatitude,
		FieldLocationID,
		FieldLocationName,
		FieldLongitude,
		FieldParameter,
		FieldUnit,
	}, errs.Fields())
	require.NotContains(t, errs, FieldDatetimeUTC)
	require.NotContains(t, errs, FieldDatetimeLocal)
	require.Equal(t, "Latitude must be between -90 and 90", errs[FieldLatitude])
}

func TestValidateInputTrimsRequiredText(t *testing.T) {
	in := validInput()
	in.Parameter = "   "
	errs := ValidateInput(in)
	require.Equal(t, ValidationErrors{FieldParameter: "Parameter is required"}, errs)
}

func TestValidateInputAcceptsValidDraft(t *testing.T) {
	require.Empty(t, ValidateInput(validInput()))
}

func validInput() FormInput {
	return FormInput{
		LocationID:    "SF-001",
		LocationName:  "San Francisco",
		Parameter:     "PM2.5",
		Unit:          "µg/m³",
		DatetimeUTC:   "2024-07-01T09:30",
		DatetimeLocal: "2024-07-01T02:30",
		Latitude:      "37.7749",
		Longitude:     "-122.4194",
	}
}
