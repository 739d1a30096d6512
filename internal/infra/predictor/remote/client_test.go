package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/aqi-predictor/internal/domain/airquality"
)

func TestClientPredictSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/predict", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "SF-001", body["location_id"])
		require.Equal(t, "37.7749", body["latitude"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"aqi":88,"timestamp":"2024-07-01T09:30:00.000Z","location_id":"changed"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", time.Second, 0, 0)
	res, err := client.Predict(context.Background(), sampleInput())
	require.NoError(t, err)
	require.Equal(t, 88, res.AQI)
	require.Equal(t, "2024-07-01T09:30:00.000Z", res.Timestamp)
	require.Equal(t, sampleInput(), res.Input, "input is echoed from the request")
}

func TestClientPredictModelReportedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Model not loaded correctly"}`))
	}))
	defer server.Close()

	res, err := NewClient(server.URL, time.Second, 0, 0).Predict(context.Background(), sampleInput())
	require.NoError(t, err)
	require.True(t, res.Failed())
	require.Equal(t, "Model not loaded correctly", res.Error)
}

func TestClientPredictTransportFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second, 0, 0).Predict(context.Background(), sampleInput())
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=502")

	missing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"prediction":75}`))
	}))
	defer missing.Close()

	_, err = NewClient(missing.URL, time.Second, 0, 0).Predict(context.Background(), sampleInput())
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing aqi")
}

func TestClientPredictDefaultsTimestamp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"aqi":12}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 0, 0)
	client.now = func() time.Time { return time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC) }
	res, err := client.Predict(context.Background(), sampleInput())
	require.NoError(t, err)
	require.Equal(t, "2024-07-01T09:30:00.000Z", res.Timestamp)
}

func TestClientRateLimitHonoursContext(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second, 0.001, 1)
	require.True(t, client.limiter.Allow(), "consume the single burst token")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := client.Predict(ctx, sampleInput())
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate limit wait canceled")
}

func sampleInput() airquality.FormInput {
	return airquality.FormInput{
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
