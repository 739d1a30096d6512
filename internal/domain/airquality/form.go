package airquality

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "github.com/yanqian/aqi-predictor/pkg/errors"
	"github.com/yanqian/aqi-predictor/pkg/util"
)

// Form owns one draft, its validation errors and the outcome of the last
// submission. The mutex is never held across the predictor call so Loading can
// be observed while a prediction is in flight. Form does not reject a second
// Submit on its own; callers gate re-entry on Loading.
type Form struct {
	mu        sync.Mutex
	cfg       FormConfig
	predictor Predictor
	logger    *slog.Logger
	now       func() time.Time

	input          FormInput
	errors         ValidationErrors
	result         *PredictionResult
	loading        bool
	previewVisible bool
}

// NewForm builds an empty form whose datetime fields default to now.
func NewForm(cfg FormConfig, predictor Predictor, logger *slog.Logger) *Form {
	if cfg.EditPolicy == "" {
		cfg.EditPolicy = EditPolicyRevalidate
	}
	f := &Form{
		cfg:       cfg,
		predictor: predictor,
		logger:    logger.With("component", "airquality.form"),
		now:       util.NowUTC,
	}
	f.resetLocked()
	return f
}

// SetField overwrites one field and updates that field's error entry
// according to the edit policy.
func (f *Form) SetField(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.input.Set(name, value) {
		return apperrors.Wrap("invalid_input", fmt.Sprintf("unknown field %q", name), nil)
	}

	switch f.cfg.EditPolicy {
	case EditPolicyClearOnEdit:
		delete(f.errors, name)
	default:
		if msg := fieldError(f.input, name); msg != "" {
			f.errors[name] = msg
		} else {
			delete(f.errors, name)
		}
	}

	if (name == FieldLatitude || name == FieldLongitude) && !isBlank(f.input.Latitude) && !isBlank(f.input.Longitude) {
		f.previewVisible = true
	}
	return nil
}

// Validate recomputes every error and reports whether the draft is submittable.
func (f *Form) Validate() (bool, ValidationErrors) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked()
}

func (f *Form) validateLocked() (bool, ValidationErrors) {
	f.errors = ValidateInput(f.input)
	return len(f.errors) == 0, f.errors.Clone()
}

// Submit validates the draft and, when valid, runs the predictor and stores
// its outcome. The boolean is false when validation stopped the submission.
// Predictor errors and panics never escape: they become the generic failure
// record, and loading is cleared on every path.
func (f *Form) Submit(ctx context.Context) (PredictionResult, bool) {
	f.mu.Lock()
	if ok, _ := f.validateLocked(); !ok {
		f.mu.Unlock()
		return PredictionResult{}, false
	}
	f.loading = true
	f.result = nil
	input := f.input
	f.mu.Unlock()

	res := FailureResult(SubmissionFailedMessage)
	defer func() {
		f.mu.Lock()
		f.result = &res
		f.loading = false
		f.mu.Unlock()
	}()

	out, err := f.predict(ctx, input)
	if err != nil {
		f.logger.Error("prediction failed", "location_id", input.LocationID, "error", err)
		return res, true
	}
	res = out
	return res, true
}

// predict turns a predictor panic into an error so the form never stays loading.
func (f *Form) predict(ctx context.Context, input FormInput) (res PredictionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("predictor panic: %v", r)
		}
	}()
	return f.predictor.Predict(ctx, input)
}

// Reset restores the initial draft and clears errors, result and preview.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *Form) resetLocked() {
	stamp := f.now().UTC().Format(util.DateTimeMinuteLayout)
	f.input = FormInput{DatetimeUTC: stamp, DatetimeLocal: stamp}
	f.errors = make(ValidationErrors)
	f.result = nil
	f.previewVisible = false
}

// Loading reports whether a prediction is in flight.
func (f *Form) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Snapshot copies the current state.
func (f *Form) Snapshot() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := FormState{
		Input:          f.input,
		Errors:         f.errors.Clone(),
		Loading:        f.loading,
		PreviewVisible: f.previewVisible,
	}
	if f.result != nil {
		res := *f.result
		state.Result = &res
	}
	return state
}

// Preview returns the map marker once the preview flag is set and both
// coordinates are valid.
func (f *Form) Preview() (MapPreview, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return previewFor(f.previewVisible, f.input)
}

func previewFor(visible bool, in FormInput) (MapPreview, bool) {
	if !visible || !IsValidLatitude(in.Latitude) || !IsValidLongitude(in.Longitude) {
		return MapPreview{}, false
	}
	lat, _ := strconv.ParseFloat(strings.TrimSpace(in.Latitude), 64)
	lng, _ := strconv.ParseFloat(strings.TrimSpace(in.Longitude), 64)
	return MapPreview{Latitude: lat, Longitude: lng, LocationName: in.LocationName}, true
}
