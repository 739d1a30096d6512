package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/aqi-predictor/internal/domain/airquality"
	"github.com/yanqian/aqi-predictor/internal/infra/formsession"
)

// FormHandler exposes stateful prediction forms.
type FormHandler struct {
	registry *formsession.Registry
	logger   *slog.Logger
}

// NewFormHandler constructs the form session handler.
func NewFormHandler(registry *formsession.Registry, logger *slog.Logger) *FormHandler {
	return &FormHandler{
		registry: registry,
		logger:   logger.With("component", "http.forms"),
	}
}

type formResponse struct {
	ID string `json:"id"`
	airquality.FormView
}

type setFieldRequest struct {
	Value *airquality.FieldValue `json:"value"`
}

// Create opens a new form session.
func (h *FormHandler) Create(c *gin.Context) {
	session, err := h.registry.Create()
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusCreated, render(c, session))
}

// Get returns the current view of a form.
func (h *FormHandler) Get(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, render(c, session))
}

// SetField edits one field.
func (h *FormHandler) SetField(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	var req setFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "value must be a string or number", err))
		return
	}
	if err := session.Form.SetField(c.Param("name"), string(*req.Value)); err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, render(c, session))
}

// Validate recomputes every field error.
func (h *FormHandler) Validate(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	valid, errs := session.Form.Validate()
	c.JSON(http.StatusOK, gin.H{"valid": valid, "errors": errs})
}

// Submit runs a prediction for the form. The prediction outlives a client
// disconnect; a second submit while one is in flight gets 409.
func (h *FormHandler) Submit(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	if !session.TryBeginSubmit() {
		abortWithError(c, NewHTTPError(http.StatusConflict, "conflict", "a prediction is already in progress", nil))
		return
	}
	defer session.EndSubmit()

	ctx := context.WithoutCancel(c.Request.Context())
	res, submitted := session.Form.Submit(ctx)
	if !submitted {
		c.JSON(http.StatusUnprocessableEntity, render(c, session))
		return
	}
	if res.Failed() {
		h.logger.Warn("form submission failed", "session_id", session.ID, "error", res.Error)
	}
	c.JSON(http.StatusOK, render(c, session))
}

// Reset restores the initial draft.
func (h *FormHandler) Reset(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	session.Form.Reset()
	c.JSON(http.StatusOK, render(c, session))
}

// Delete closes a form session.
func (h *FormHandler) Delete(c *gin.Context) {
	if !h.registry.Delete(c.Param("id")) {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "form not found", nil))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FormHandler) lookup(c *gin.Context) (*formsession.Session, bool) {
	session, err := h.registry.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return nil, false
	}
	return session, true
}

func render(c *gin.Context, session *formsession.Session) formResponse {
	theme := airquality.ThemeFromString(c.Query("theme"))
	return formResponse{
		ID:       session.ID,
		FormView: airquality.RenderForm(session.Form.Snapshot(), theme),
	}
}
