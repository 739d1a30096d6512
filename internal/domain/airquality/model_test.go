package airquality

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormInputUnmarshalAcceptsNumbers(t *testing.T) {
	var in FormInput
	err := json.Unmarshal([]byte(`{"location_id":"A1","latitude":37.7749,"longitude":-122.4194,"unit":null}`), &in)
	require.NoError(t, err)
	require.Equal(t, "A1", in.LocationID)
	require.Equal(t, "37.7749", in.Latitude)
	require.Equal(t, "-122.4194", in.Longitude)
	require.Empty(t, in.Unit)
}

func TestFormInputUnmarshalRejectsObjects(t *testing.T) {
	var in FormInput
	err := json.Unmarshal([]byte(`{"latitude":{"value":1}}`), &in)
	require.Error(t, err)
	require.Contains(t, err.Error(), "latitude")
}

func TestPredictionResultJSONShapes(t *testing.T) {
	success := PredictionResult{AQI: 42, Timestamp: "2024-07-01T09:30:00.000Z", Input: validInput()}
	data, err := json.Marshal(success)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	require.Equal(t, true, flat["success"])
	require.Equal(t, float64(42), flat["aqi"])
	require.Equal(t, "San Francisco", flat["location_name"])
	require.Equal(t, "2024-07-01T09:30", flat["datetimeUTC"])
	require.NotContains(t, flat, "error")

	var decoded PredictionResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, success, decoded)

	failure, err := json.Marshal(FailureResult("model offline"))
	require.NoError(t, err)
	require.JSONEq(t, `{"error":"model offline"}`, string(failure))
}

func TestPredictionResultUnmarshalRequiresAQI(t *testing.T) {
	var res PredictionResult
	require.Error(t, json.Unmarshal([]byte(`{"success":true,"prediction":75}`), &res))
}

func TestParseEditPolicy(t *testing.T) {
	policy, err := ParseEditPolicy("")
	require.NoError(t, err)
	require.Equal(t, EditPolicyRevalidate, policy)

	policy, err = ParseEditPolicy("CLEAR")
	require.NoError(t, err)
	require.Equal(t, EditPolicyClearOnEdit, policy)

	_, err = ParseEditPolicy("sometimes")
	require.Error(t, err)
}

func TestFieldValueDecodesNumbers(t *testing.T) {
	var body struct {
		Value FieldValue `json:"value"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"value": -122.4194}`), &body))
	require.Equal(t, FieldValue("-122.4194"), body.Value)

	require.NoError(t, json.Unmarshal([]byte(`{"value": "Downtown"}`), &body))
	require.Equal(t, FieldValue("Downtown"), body.Value)

	require.Error(t, json.Unmarshal([]byte(`{"value": true}`), &body))
}
