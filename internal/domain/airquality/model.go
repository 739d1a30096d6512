package airquality

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Field names used on the wire and as ValidationErrors keys.
const (
	FieldLocationID    = "location_id"
	FieldLocationName  = "location_name"
	FieldParameter     = "parameter"
	FieldUnit          = "unit"
	FieldDatetimeUTC   = "datetimeUTC"
	FieldDatetimeLocal = "datetime_local"
	FieldLatitude      = "latitude"
	FieldLongitude     = "longitude"
)

// FieldNames lists every editable field in display order.
var FieldNames = []string{
	FieldLocationID,
	FieldLocationName,
	FieldParameter,
	FieldUnit,
	FieldDatetimeUTC,
	FieldDatetimeLocal,
	FieldLatitude,
	FieldLongitude,
}

// FormInput is a prediction request draft. Every field is text because it
// originates from an editable control.
type FormInput struct {
	LocationID    string `json:"location_id"`
	LocationName  string `json:"location_name"`
	Parameter     string `json:"parameter"`
	Unit          string `json:"unit"`
	DatetimeUTC   string `json:"datetimeUTC"`
	DatetimeLocal string `json:"datetime_local"`
	Latitude      string `json:"latitude"`
	Longitude     string `json:"longitude"`
}

// Get returns the value of the named field.
func (in FormInput) Get(name string) (string, bool) {
	ptr := in.fieldPtr(name)
	if ptr == nil {
		return "", false
	}
	return *ptr, true
}

// Set overwrites the named field and reports whether the name is known.
func (in *FormInput) Set(name, value string) bool {
	ptr := in.fieldPtr(name)
	if ptr == nil {
		return false
	}
	*ptr = value
	return true
}

func (in *FormInput) fieldPtr(name string) *string {
	switch name {
	case FieldLocationID:
		return &in.LocationID
	case FieldLocationName:
		return &in.LocationName
	case FieldParameter:
		return &in.Parameter
	case FieldUnit:
		return &in.Unit
	case FieldDatetimeUTC:
		return &in.DatetimeUTC
	case FieldDatetimeLocal:
		return &in.DatetimeLocal
	case FieldLatitude:
		return &in.Latitude
	case FieldLongitude:
		return &in.Longitude
	default:
		return nil
	}
}

// UnmarshalJSON accepts strings for every field and numbers as well, keeping
// the number's literal text so coordinates echo back unchanged.
func (in *FormInput) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var decoded FormInput
	for _, name := range FieldNames {
		value, err := coerceText(raw[name])
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		decoded.Set(name, value)
	}
	*in = decoded
	return nil
}

// FieldValue is a single edited value; it decodes from a JSON string or number.
type FieldValue string

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	text, err := coerceText(data)
	if err != nil {
		return err
	}
	*v = FieldValue(text)
	return nil
}

func coerceText(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", nil
	}
	switch c := trimmed[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", fmt.Errorf("unsupported value %s", trimmed)
	}
}

// ValidationErrors maps a failing field to its message. Absence means valid.
type ValidationErrors map[string]string

// Clone returns an independent copy.
func (v ValidationErrors) Clone() ValidationErrors {
	out := make(ValidationErrors, len(v))
	for k, msg := range v {
		out[k] = msg
	}
	return out
}

// Fields returns the failing field names sorted alphabetically.
func (v ValidationErrors) Fields() []string {
	names := make([]string, 0, len(v))
	for k := range v {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// FieldErrors carries ValidationErrors through an error chain.
type FieldErrors struct {
	Fields ValidationErrors
}

func (e *FieldErrors) Error() string {
	return "invalid fields: " + strings.Join(e.Fields.Fields(), ", ")
}

// PredictionResult is either a success record or a failure record. A non-empty
// Error marks the failure shape; the other fields are then meaningless.
type PredictionResult struct {
	AQI       int
	Timestamp string
	Input     FormInput
	Error     string
}

// Failed reports whether the result carries an error message.
func (r PredictionResult) Failed() bool {
	return r.Error != ""
}

// FailureResult builds a failure record.
func FailureResult(message string) PredictionResult {
	return PredictionResult{Error: message}
}

type successWire struct {
	Success   bool   `json:"success"`
	AQI       int    `json:"aqi"`
	Timestamp string `json:"timestamp"`
	FormInput
}

type failureWire struct {
	Error string `json:"error"`
}

// MarshalJSON renders {success, aqi, timestamp, ...echoed fields} or {error}.
func (r PredictionResult) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(failureWire{Error: r.Error})
	}
	return json.Marshal(successWire{Success: true, AQI: r.AQI, Timestamp: r.Timestamp, FormInput: r.Input})
}

// UnmarshalJSON reads either wire shape.
func (r *PredictionResult) UnmarshalJSON(data []byte) error {
	var head struct {
		Error     string `json:"error"`
		AQI       *int   `json:"aqi"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	if head.Error != "" {
		*r = FailureResult(head.Error)
		return nil
	}
	if head.AQI == nil {
		return fmt.Errorf("prediction result missing aqi")
	}
	var input FormInput
	if err := json.Unmarshal(data, &input); err != nil {
		return err
	}
	*r = PredictionResult{AQI: *head.AQI, Timestamp: head.Timestamp, Input: input}
	return nil
}

// MapPreview is what the map collaborator needs to draw a marker.
type MapPreview struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	LocationName string  `json:"locationName"`
}

// FormState is a point-in-time copy of a Form.
type FormState struct {
	Input          FormInput
	Errors         ValidationErrors
	Loading        bool
	PreviewVisible bool
	Result         *PredictionResult
}

// HistoryEntry is a recorded successful prediction.
type HistoryEntry struct {
	ID           string    `json:"id"`
	LocationID   string    `json:"locationId"`
	LocationName string    `json:"locationName"`
	Parameter    string    `json:"parameter"`
	Unit         string    `json:"unit"`
	Latitude     string    `json:"latitude"`
	Longitude    string    `json:"longitude"`
	AQI          int       `json:"aqi"`
	Category     string    `json:"category"`
	PredictedAt  string    `json:"predictedAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LocationCount is one row of the trending locations list.
type LocationCount struct {
	Location string `json:"location"`
	Count    int64  `json:"count"`
}

// EditPolicy decides what SetField does with an existing validation error.
type EditPolicy string

const (
	// EditPolicyRevalidate re-checks only the edited field.
	EditPolicyRevalidate EditPolicy = "revalidate"
	// EditPolicyClearOnEdit drops the field's error without re-checking it.
	EditPolicyClearOnEdit EditPolicy = "clear"
)

// ParseEditPolicy maps configuration text onto a policy.
func ParseEditPolicy(value string) (EditPolicy, error) {
	switch EditPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", EditPolicyRevalidate:
		return EditPolicyRevalidate, nil
	case EditPolicyClearOnEdit:
		return EditPolicyClearOnEdit, nil
	default:
		return "", fmt.Errorf("unknown edit policy %q", value)
	}
}

// FormConfig wires runtime options for forms.
type FormConfig struct {
	EditPolicy EditPolicy
}

// ServiceConfig wires runtime options for the prediction service.
type ServiceConfig struct {
	PredictorName string
	RecentLimit   int
}
