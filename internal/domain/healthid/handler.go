package healthid

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/healthid/healthid/internal/platform/auth"
	"github.com/healthid/healthid/pkg/demographics"
	hid "github.com/healthid/healthid/pkg/healthid"
	"github.com/healthid/healthid/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	anyRole := auth.RequireRole(auth.RolePatient, auth.RoleDoctor, auth.RoleAdmin)
	issuer := auth.RequireRole(auth.RoleDoctor)
	admin := auth.RequireRole(auth.RoleAdmin)

	ids := api.Group("/health-ids")
	ids.POST("", h.Issue, issuer)
	ids.GET("", h.List, admin)
	ids.POST("/generate", h.Generate, issuer)
	ids.POST("/batch", h.GenerateBatch, admin)
	ids.GET("/:id/verify", h.Verify, anyRole)
	ids.GET("/:id/format", h.Format, anyRole)
	ids.PATCH("/:id/active", h.SetActive, admin)
	ids.POST("/qr", h.BuildQR, anyRole)
	ids.POST("/qr/parse", h.ParseQR, anyRole)

	api.GET("/states", h.ListStates, anyRole)
	api.GET("/states/:code", h.GetState, anyRole)

	v := api.Group("/validate", anyRole)
	v.POST("/aadhaar", h.ValidateAadhaar)
	v.POST("/blood-group", h.ValidateBloodGroup)
	v.POST("/relationship", h.ValidateRelationship)
	v.GET("/age", h.Age)
}

// httpError maps service errors onto HTTP status codes.
func httpError(err error) error {
	var fe *hid.FormatError
	switch {
	case errors.As(err, &fe),
		errors.Is(err, ErrMissingName),
		errors.Is(err, ErrBatchTooLarge),
		errors.Is(err, ErrInvalidOptions),
		errors.Is(err, demographics.ErrInvalidBirthDate):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrExhausted), errors.Is(err, ErrRegistryUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// -- Health IDs --

func (h *Handler) Issue(c echo.Context) error {
	var req IssueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Issue(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	c.Response().Header().Set("Location", "/api/v1/health-ids/"+res.Record.HealthIDNumber+"/verify")
	return c.JSON(http.StatusCreated, res)
}

type generateRequest struct {
	StateCode       string `json:"state_code"`
	SkipRemoteCheck bool   `json:"skip_remote_check"`
	MaxAttempts     int    `json:"max_attempts"`
	TimeoutMS       int    `json:"timeout_ms"`
}

func (h *Handler) Generate(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.MaxAttempts < 0 || req.TimeoutMS < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "max_attempts and timeout_ms must not be negative")
	}
	if req.MaxAttempts > MaxAttemptsLimit || int64(req.TimeoutMS) > MaxTimeout.Milliseconds() {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("max_attempts must be at most %d and timeout_ms at most %d", MaxAttemptsLimit, MaxTimeout.Milliseconds()))
	}
	id, err := h.svc.Generate(c.Request().Context(), req.StateCode, Options{
		SkipRemoteCheck: req.SkipRemoteCheck,
		MaxAttempts:     req.MaxAttempts,
		Timeout:         time.Duration(req.TimeoutMS) * time.Millisecond,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"health_id": id})
}

type batchRequest struct {
	Count           int    `json:"count"`
	StateCode       string `json:"state_code"`
	SkipRemoteCheck *bool  `json:"skip_remote_check"`
}

func (h *Handler) GenerateBatch(c echo.Context) error {
	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Count < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "count must not be negative")
	}
	if req.Count == 0 {
		req.Count = DefaultBatchSize
	}
	remote := req.SkipRemoteCheck != nil && !*req.SkipRemoteCheck
	ids, err := h.svc.GenerateBatch(c.Request().Context(), req.Count, req.StateCode, remote)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":      len(ids),
		"health_ids": ids,
	})
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Verify(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Verify(c.Request().Context(), c.Param("id")))
}

func (h *Handler) Format(c echo.Context) error {
	raw := c.Param("id")
	canonical, err := hid.Format(raw)
	if err != nil {
		return httpError(err)
	}
	if !hid.IsValid(canonical) {
		return echo.NewHTTPError(http.StatusBadRequest, "health id must contain only digits")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"health_id":  canonical,
		"normalized": hid.Normalize(canonical),
		"state_code": canonical[:2],
		"state_name": hid.StateName(canonical[:2]),
	})
}

type activeRequest struct {
	Active *bool `json:"active"`
}

func (h *Handler) SetActive(c echo.Context) error {
	var req activeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Active == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "active is required")
	}
	if err := h.svc.SetActive(c.Request().Context(), c.Param("id"), *req.Active); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type qrRequest struct {
	HealthID string `json:"health_id"`
	FullName string `json:"full_name"`
	DOB      string `json:"dob"`
}

func (h *Handler) BuildQR(c echo.Context) error {
	var req qrRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !hid.IsValid(req.HealthID) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid health id format")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"qr_data": hid.GenerateQRData(req.HealthID, req.FullName, req.DOB),
	})
}

type qrParseRequest struct {
	QRData string `json:"qr_data"`
}

func (h *Handler) ParseQR(c echo.Context) error {
	var req qrParseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	data := hid.ParseQRData(req.QRData)
	if data == nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "unreadable qr data")
	}
	return c.JSON(http.StatusOK, data)
}

// -- States --

func (h *Handler) ListStates(c echo.Context) error {
	return c.JSON(http.StatusOK, hid.States())
}

func (h *Handler) GetState(c echo.Context) error {
	code := c.Param("code")
	name := hid.StateName(code)
	if name == hid.UnknownStateName {
		return echo.NewHTTPError(http.StatusNotFound, "unknown state code")
	}
	return c.JSON(http.StatusOK, hid.State{Name: name, Code: code})
}

// -- Validators --

type valueRequest struct {
	Value string `json:"value"`
}

func (h *Handler) ValidateAadhaar(c echo.Context) error {
	var req valueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// The raw number is never echoed back.
	return c.JSON(http.StatusOK, map[string]interface{}{
		"valid":  demographics.IsValidAadhaar(req.Value),
		"masked": demographics.MaskAadhaar(req.Value),
	})
}

func (h *Handler) ValidateBloodGroup(c echo.Context) error {
	var req valueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"valid":   demographics.IsValidBloodGroup(req.Value),
		"allowed": demographics.BloodGroups(),
	})
}

func (h *Handler) ValidateRelationship(c echo.Context) error {
	var req valueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"valid":   demographics.IsValidRelationship(req.Value),
		"allowed": demographics.RelationshipTypes(),
	})
}

func (h *Handler) Age(c echo.Context) error {
	age, err := demographics.CalculateAge(c.QueryParam("dob"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"age": age})
}
