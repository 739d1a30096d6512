package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/yanqian/aqi-predictor/internal/domain/airquality"
	"github.com/yanqian/aqi-predictor/pkg/util"
)

const (
	predictPath      = "/api/predict"
	maxResponseBytes = 1 << 20
	defaultTimeout   = 10 * time.Second
)

// Client calls an external prediction backend that speaks the
// POST /api/predict contract.
type Client struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

// NewClient builds a backend client. rps <= 0 disables outbound rate limiting.
func NewClient(baseURL string, timeout time.Duration, rps float64, burst int) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &Client{
		endpoint:   strings.TrimRight(strings.TrimSpace(baseURL), "/") + predictPath,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		now:        util.NowUTC,
	}
}

type responseWire struct {
	Success   *bool  `json:"success"`
	AQI       *int   `json:"aqi"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error"`
}

// Predict posts the draft and maps the reply. A reply carrying {error} is a
// model-reported failure and comes back as a failure record with a nil error.
func (c *Client) Predict(ctx context.Context, input airquality.FormInput) (airquality.PredictionResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return airquality.PredictionResult{}, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return airquality.PredictionResult{}, fmt.Errorf("encode predict request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return airquality.PredictionResult{}, fmt.Errorf("build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return airquality.PredictionResult{}, fmt.Errorf("predict request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return airquality.PredictionResult{}, fmt.Errorf("read predict response: %w", err)
	}

	var wire responseWire
	decodeErr := json.Unmarshal(body, &wire)
	if decodeErr == nil && strings.TrimSpace(wire.Error) != "" {
		return airquality.FailureResult(wire.Error), nil
	}
	if resp.StatusCode >= 300 {
		return airquality.PredictionResult{}, fmt.Errorf("predict request error: status=%d body=%s", resp.StatusCode, truncate(body, 512))
	}
	if decodeErr != nil {
		return airquality.PredictionResult{}, fmt.Errorf("decode predict response: %w", decodeErr)
	}
	if wire.Success != nil && !*wire.Success {
		return airquality.FailureResult("Model prediction failed"), nil
	}
	if wire.AQI == nil {
		return airquality.PredictionResult{}, fmt.Errorf("predict response missing aqi")
	}

	timestamp := strings.TrimSpace(wire.Timestamp)
	if timestamp == "" {
		timestamp = util.ISOTimestamp(c.now())
	}
	return airquality.PredictionResult{
		AQI:       *wire.AQI,
		Timestamp: timestamp,
		Input:     input,
	}, nil
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}

var _ airquality.Predictor = (*Client)(nil)
