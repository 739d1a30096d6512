package airquality

import (
	"fmt"
	"strings"
	"time"

	"github.com/yanqian/aqi-predictor/pkg/util"
)

// Colour bands, ordered by severity.
const (
	BandGood                        = "good"
	BandModerate                    = "moderate"
	BandUnhealthyForSensitiveGroups = "unhealthy-for-sensitive-groups"
	BandUnhealthy                   = "unhealthy"
	BandVeryUnhealthy               = "very-unhealthy"
	BandHazardous                   = "hazardous"
)

const (
	submitLabel     = "Predict Air Quality Index"
	submittingLabel = "Processing..."
	resultTitle     = "Prediction Results"
	errorTitle      = "Error"
	disclaimer      = "This prediction is based on historical data and may vary from actual measurements. For official air quality information, please consult local environmental agencies."
)

// Theme is the appearance context handed to the renderer.
type Theme struct {
	Dark bool
}

// ThemeFromString maps "dark" (any case) to the dark theme.
func ThemeFromString(value string) Theme {
	return Theme{Dark: strings.EqualFold(strings.TrimSpace(value), "dark")}
}

// ColorBand maps an AQI onto its band. Upper bounds are inclusive.
func ColorBand(aqi int) string {
	switch {
	case aqi <= 50:
		return BandGood
	case aqi <= 100:
		return BandModerate
	case aqi <= 150:
		return BandUnhealthyForSensitiveGroups
	case aqi <= 200:
		return BandUnhealthy
	case aqi <= 300:
		return BandVeryUnhealthy
	default:
		return BandHazardous
	}
}

var bandLabels = map[string]string{
	BandGood:                        "Good",
	BandModerate:                    "Moderate",
	BandUnhealthyForSensitiveGroups: "Unhealthy for Sensitive Groups",
	BandUnhealthy:                   "Unhealthy",
	BandVeryUnhealthy:               "Very Unhealthy",
	BandHazardous:                   "Hazardous",
}

var bandTextColors = map[string]string{
	BandGood:                        "text-green-500",
	BandModerate:                    "text-yellow-500",
	BandUnhealthyForSensitiveGroups: "text-orange-500",
	BandUnhealthy:                   "text-red-500",
	BandVeryUnhealthy:               "text-purple-500",
	BandHazardous:                   "text-pink-600",
}

// CategoryLabel is the human readable name of the AQI band.
func CategoryLabel(aqi int) string {
	return bandLabels[ColorBand(aqi)]
}

// Palette holds the style tokens of a panel for the current theme.
type Palette struct {
	Surface string `json:"surface"`
	Border  string `json:"border"`
	Text    string `json:"text"`
	Muted   string `json:"muted"`
}

func resultPalette(theme Theme) Palette {
	if theme.Dark {
		return Palette{Surface: "bg-gray-800", Border: "border-gray-700", Text: "text-white", Muted: "text-gray-400"}
	}
	return Palette{Surface: "bg-white", Border: "border-gray-200", Text: "text-gray-900", Muted: "text-gray-600"}
}

func errorPalette(theme Theme) Palette {
	if theme.Dark {
		return Palette{Surface: "bg-red-900/20", Border: "border-red-800", Text: "text-red-200", Muted: "text-red-300"}
	}
	return Palette{Surface: "bg-red-50", Border: "border-red-200", Text: "text-red-800", Muted: "text-red-600"}
}

// ResultPanel is the display model of a PredictionResult.
type ResultPanel struct {
	Kind        string  `json:"kind"`
	Title       string  `json:"title"`
	Message     string  `json:"message,omitempty"`
	AQI         int     `json:"aqi,omitempty"`
	Band        string  `json:"band,omitempty"`
	Category    string  `json:"category,omitempty"`
	TextColor   string  `json:"textColor,omitempty"`
	Location    string  `json:"location,omitempty"`
	Parameter   string  `json:"parameter,omitempty"`
	DateTime    string  `json:"dateTimeLocal,omitempty"`
	Coordinates string  `json:"coordinates,omitempty"`
	Disclaimer  string  `json:"disclaimer,omitempty"`
	Palette     Palette `json:"palette"`
}

// RenderResult builds the panel. Failure records show only their message.
func RenderResult(res PredictionResult, theme Theme) ResultPanel {
	if res.Failed() {
		return ResultPanel{
			Kind:    "error",
			Title:   errorTitle,
			Message: res.Error,
			Palette: errorPalette(theme),
		}
	}
	band := ColorBand(res.AQI)
	return ResultPanel{
		Kind:        "result",
		Title:       resultTitle,
		AQI:         res.AQI,
		Band:        band,
		Category:    bandLabels[band],
		TextColor:   bandTextColors[band],
		Location:    res.Input.LocationName,
		Parameter:   fmt.Sprintf("%s (%s)", res.Input.Parameter, res.Input.Unit),
		DateTime:    FormatDate(res.Input.DatetimeLocal),
		Coordinates: res.Input.Latitude + ", " + res.Input.Longitude,
		Disclaimer:  disclaimer,
		Palette:     resultPalette(theme),
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	util.ISOMillisLayout,
	"2006-01-02T15:04:05",
	util.DateTimeMinuteLayout,
	"2006-01-02 15:04",
}

// FormatDate renders a datetime text as "1/2/2006, 3:04:05 PM". Text that
// matches no known layout is returned unchanged.
func FormatDate(value string) string {
	trimmed := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts.Format("1/2/2006, 3:04:05 PM")
		}
	}
	return value
}

// FieldView describes one input control.
type FieldView struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Value       string `json:"value"`
	Placeholder string `json:"placeholder,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ButtonView describes the submit trigger.
type ButtonView struct {
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
}

// FormView is the display model of a whole form.
type FormView struct {
	DarkMode bool             `json:"darkMode"`
	Fields   []FieldView      `json:"fields"`
	Errors   ValidationErrors `json:"errors"`
	Loading  bool             `json:"loading"`
	Submit   ButtonView       `json:"submit"`
	Preview  *MapPreview      `json:"preview,omitempty"`
	Result   *ResultPanel     `json:"result,omitempty"`
}

type fieldMeta struct {
	label       string
	inputType   string
	placeholder string
}

var fieldMetas = map[string]fieldMeta{
	FieldLocationID:    {label: "Location ID", inputType: "text"},
	FieldLocationName:  {label: "Location Name", inputType: "text"},
	FieldParameter:     {label: "Parameter", inputType: "text", placeholder: "e.g., PM2.5, CO2, O3"},
	FieldUnit:          {label: "Unit", inputType: "text", placeholder: "e.g., µg/m³, ppm"},
	FieldDatetimeUTC:   {label: "Date/Time (UTC)", inputType: "datetime-local"},
	FieldDatetimeLocal: {label: "Date/Time (Local)", inputType: "datetime-local"},
	FieldLatitude:      {label: "Latitude", inputType: "text", placeholder: "e.g., 37.7749"},
	FieldLongitude:     {label: "Longitude", inputType: "text", placeholder: "e.g., -122.4194"},
}

// RenderForm builds the view of a form snapshot. The submit button is
// disabled while loading so a second submission cannot start.
func RenderForm(state FormState, theme Theme) FormView {
	fields := make([]FieldView, 0, len(FieldNames))
	for _, name := range FieldNames {
		meta := fieldMetas[name]
		value, _ := state.Input.Get(name)
		fields = append(fields, FieldView{
			Name:        name,
			Label:       meta.label,
			Type:        meta.inputType,
			Value:       value,
			Placeholder: meta.placeholder,
			Error:       state.Errors[name],
		})
	}

	errs := state.Errors.Clone()
	view := FormView{
		DarkMode: theme.Dark,
		Fields:   fields,
		Errors:   errs,
		Loading:  state.Loading,
		Submit:   ButtonView{Label: submitLabel},
	}
	if state.Loading {
		view.Submit = ButtonView{Label: submittingLabel, Disabled: true}
	}
	if preview, ok := previewFor(state.PreviewVisible, state.Input); ok {
		view.Preview = &preview
	}
	if state.Result != nil {
		panel := RenderResult(*state.Result, theme)
		view.Result = &panel
	}
	return view
}
