package airquality

import (
	"context"
	"errors"
)

// ErrModelReported marks a failure the model itself reported. Repeating the
// request yields the same answer.
var ErrModelReported = errors.New("model reported failure")

// SubmissionFailedMessage replaces any predictor failure seen by a Form.
const SubmissionFailedMessage = "Failed to get prediction. Please try again."

// Predictor turns a validated draft into a prediction. Implementations may
// return a failure record (model-reported error) or an error (transport
// failure); callers treat both as user-visible failures.
type Predictor interface {
	Predict(ctx context.Context, input FormInput) (PredictionResult, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(ctx context.Context, input FormInput) (PredictionResult, error)

// Predict implements Predictor.
func (f PredictorFunc) Predict(ctx context.Context, input FormInput) (PredictionResult, error) {
	return f(ctx, input)
}
