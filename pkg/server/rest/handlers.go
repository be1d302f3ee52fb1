package rest

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/owenkobasz/cyclone/pkg/server"
	"github.com/owenkobasz/cyclone/pkg/server/rest/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

const (
	Version = "1.0.0"

	defaultMaxSegmentKm = 5.0
	defaultMinSegmentKm = 0.5
)

type RouteService interface {
	GenerateRoute(ctx context.Context, prefs datastructure.RoutePreferences) (datastructure.RouteResult, error)
	CustomRoute(ctx context.Context, prefs datastructure.RoutePreferences) (datastructure.RouteResult, error)
	Options() service.RouteOptions
	Health() service.Health
}

type RouteHandler struct {
	svc      RouteService
	m        *Metrics
	validate *validator.Validate
	trans    ut.Translator
}

func NewRouteHandler(svc RouteService, m *Metrics) *RouteHandler {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	return &RouteHandler{svc: svc, m: m, validate: validate, trans: trans}
}

func RouteRouter(r *chi.Mux, svc RouteService, m *Metrics) {
	handler := NewRouteHandler(svc, m)

	r.Group(func(r chi.Router) {
		r.Route("/api/route", func(r chi.Router) {
			r.Post("/generate", handler.GenerateRoute)
			r.Post("/loop", handler.LoopRoute)
			r.Post("/custom", handler.CustomRoute)
			r.Get("/options", handler.Options)
			r.Get("/health", handler.Health)
		})
	})
}

// RouteRequest model info
//
//	@Description	request body for route generation. Coordinates in degrees, distances in km.
type RouteRequest struct {
	StartLat *float64 `json:"start_lat" validate:"required,gte=-90,lte=90"`
	StartLon *float64 `json:"start_lon" validate:"required,gte=-180,lte=180"`
	EndLat   *float64 `json:"end_lat" validate:"omitempty,gte=-90,lte=90"`
	EndLon   *float64 `json:"end_lon" validate:"omitempty,gte=-180,lte=180"`

	TargetDistance *float64 `json:"target_distance" validate:"omitempty,gt=0,lte=200"`
	RouteType      string   `json:"route_type" validate:"omitempty,oneof=loop out_and_back figure8"`
	Tolerance      *float64 `json:"tolerance" validate:"omitempty,gt=0,lte=1"`
	Strategy       string   `json:"strategy" validate:"omitempty,oneof=geometric graph ai_seeded"`

	PreferBikeLanes     bool     `json:"prefer_bike_lanes"`
	PreferUnpaved       bool     `json:"prefer_unpaved"`
	AvoidHills          bool     `json:"avoid_hills"`
	PreferHills         bool     `json:"prefer_hills"`
	Surface             string   `json:"surface" validate:"omitempty,oneof=paved unpaved mixed any"`
	TargetElevationGain *float64 `json:"target_elevation_gain" validate:"omitempty,gte=0,lte=5000"`
	MaxElevationGain    *float64 `json:"max_elevation_gain" validate:"omitempty,gte=0,lte=5000"`
	AvoidHighways       *bool    `json:"avoid_highways"`

	MaxSegmentLength *float64 `json:"max_segment_length" validate:"omitempty,gt=0,lte=20"`
	MinSegmentLength *float64 `json:"min_segment_length" validate:"omitempty,gt=0,lte=5"`
}

// Bind fills the defaults of omitted fields.
func (s *RouteRequest) Bind(r *http.Request) error {
	if s.StartLat == nil || s.StartLon == nil {
		return errors.New("start_lat and start_lon are required")
	}
	if (s.EndLat == nil) != (s.EndLon == nil) {
		return errors.New("end_lat and end_lon must be given together")
	}
	if s.RouteType == "figure_8" {
		s.RouteType = string(datastructure.ShapeFigure8)
	}
	if s.AvoidHighways == nil {
		avoid := true
		s.AvoidHighways = &avoid
	}
	if s.MaxSegmentLength == nil {
		maxSeg := defaultMaxSegmentKm
		s.MaxSegmentLength = &maxSeg
	}
	if s.MinSegmentLength == nil {
		minSeg := defaultMinSegmentKm
		if minSeg > *s.MaxSegmentLength {
			minSeg = *s.MaxSegmentLength
		}
		s.MinSegmentLength = &minSeg
	}
	if *s.MinSegmentLength > *s.MaxSegmentLength {
		return errors.New("min_segment_length must not exceed max_segment_length")
	}
	return nil
}

func (s *RouteRequest) Preferences() datastructure.RoutePreferences {
	prefs := datastructure.RoutePreferences{
		Start:                datastructure.NewCoordinate(*s.StartLat, *s.StartLon),
		Shape:                datastructure.RouteShape(s.RouteType),
		PreferBikeLanes:      s.PreferBikeLanes,
		AvoidHills:           s.AvoidHills,
		PreferHills:          s.PreferHills,
		Surface:              datastructure.Surface(s.Surface),
		TargetElevationGainM: s.TargetElevationGain,
		MaxElevationGainM:    s.MaxElevationGain,
		Strategy:             datastructure.Strategy(s.Strategy),
	}
	if s.EndLat != nil && s.EndLon != nil {
		end := datastructure.NewCoordinate(*s.EndLat, *s.EndLon)
		prefs.End = &end
	}
	if s.TargetDistance != nil {
		prefs.TargetDistanceKm = *s.TargetDistance
	}
	if s.Tolerance != nil {
		prefs.Tolerance = *s.Tolerance
	}
	if prefs.Surface == "" && s.PreferUnpaved {
		prefs.Surface = datastructure.SurfaceUnpaved
	}
	if s.AvoidHighways != nil {
		prefs.AvoidHighways = *s.AvoidHighways
	}
	if s.MaxSegmentLength != nil {
		prefs.MaxSegmentKm = *s.MaxSegmentLength
	}
	if s.MinSegmentLength != nil {
		prefs.MinSegmentKm = *s.MinSegmentLength
	}
	return prefs
}

// RouteResponse model info
//
//	@Description	generated route with its ride metadata
type RouteResponse struct {
	datastructure.RouteResult
	WaypointsCount int `json:"waypoints_count"`
}

func RenderRouteResponse(res datastructure.RouteResult) *RouteResponse {
	return &RouteResponse{
		RouteResult:    res,
		WaypointsCount: len(res.Waypoints),
	}
}

// GenerateRoute
//
//	@Summary		generate a cycling route of the target distance
//	@Description	loop, out and back or figure 8 around the start. With end_lat/end_lon the route is point to point.
//	@Tags			routes
//	@Param			body	body	RouteRequest	true	"route preferences"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/route/generate [post]
//	@Success		200	{object}	RouteResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		422	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *RouteHandler) GenerateRoute(w http.ResponseWriter, r *http.Request) {
	data, ok := h.bindRoute(w, r)
	if !ok {
		return
	}
	if data.TargetDistance == nil {
		render.Render(w, r, ErrInvalidRequest(errors.New("target_distance is required")))
		return
	}
	h.respond(w, r, h.svc.GenerateRoute, data.Preferences())
}

// LoopRoute
//
//	@Summary		generate a loop that starts and ends at the start point
//	@Tags			routes
//	@Param			body	body	RouteRequest	true	"route preferences, route_type is ignored"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/route/loop [post]
//	@Success		200	{object}	RouteResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		422	{object}	ErrResponse
func (h *RouteHandler) LoopRoute(w http.ResponseWriter, r *http.Request) {
	data, ok := h.bindRoute(w, r)
	if !ok {
		return
	}
	if data.TargetDistance == nil {
		render.Render(w, r, ErrInvalidRequest(errors.New("target_distance is required")))
		return
	}
	prefs := data.Preferences()
	prefs.Shape = datastructure.ShapeLoop
	prefs.End = nil
	h.respond(w, r, h.svc.GenerateRoute, prefs)
}

// CustomRoute
//
//	@Summary		point to point route, optionally stretched to target_distance
//	@Tags			routes
//	@Param			body	body	RouteRequest	true	"route preferences with end_lat/end_lon"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/route/custom [post]
//	@Success		200	{object}	RouteResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		422	{object}	ErrResponse
func (h *RouteHandler) CustomRoute(w http.ResponseWriter, r *http.Request) {
	data, ok := h.bindRoute(w, r)
	if !ok {
		return
	}
	if data.EndLat == nil || data.EndLon == nil {
		render.Render(w, r, ErrInvalidRequest(errors.New("end_lat and end_lon are required")))
		return
	}
	h.respond(w, r, h.svc.CustomRoute, data.Preferences())
}

// Options
//
//	@Summary	route types, surfaces, strategies and routing methods this engine serves
//	@Tags		routes
//	@Produce	application/json
//	@Router		/route/options [get]
//	@Success	200	{object}	service.RouteOptions
func (h *RouteHandler) Options(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.svc.Options())
}

// HealthResponse model info
//
//	@Description	engine status
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	service.Health
}

// Health
//
//	@Summary	engine status and loaded components
//	@Tags		routes
//	@Produce	application/json
//	@Router		/route/health [get]
//	@Success	200	{object}	HealthResponse
func (h *RouteHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, HealthResponse{
		Status:  "healthy",
		Version: Version,
		Health:  h.svc.Health(),
	})
}

func (h *RouteHandler) bindRoute(w http.ResponseWriter, r *http.Request) (*RouteRequest, bool) {
	data := &RouteRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return nil, false
	}
	if err := h.validate.Struct(*data); err != nil {
		vv := translateError(err, h.trans)
		render.Render(w, r, ErrValidation(err, vv))
		return nil, false
	}
	return data, true
}

type routeFunc func(ctx context.Context, prefs datastructure.RoutePreferences) (datastructure.RouteResult, error)

func (h *RouteHandler) respond(w http.ResponseWriter, r *http.Request, fn routeFunc, prefs datastructure.RoutePreferences) {
	res, err := fn(r.Context(), prefs)
	h.m.ObserveRoute(res, err)
	if err != nil {
		render.Render(w, r, ErrRoute(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderRouteResponse(res))
}

// ErrResponse model info
//
//	@Description	error response
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // http status code repeated in the body
	ErrorText     string   `json:"error,omitempty"` // application-level error message
	ErrorCode     string   `json:"error_code"`
	Success       bool     `json:"success"`
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		AppCode:        http.StatusBadRequest,
		ErrorText:      err.Error(),
		ErrorCode:      server.ErrInvalidInput.String(),
	}
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		errs = append(errs, errors.New(e.Translate(trans)))
	}
	return errs
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		AppCode:        http.StatusBadRequest,
		ErrorText:      "request validation failed",
		ErrorCode:      server.ErrInvalidInput.String(),
		ErrValidation:  vv,
	}
}

// ErrRoute response for a service error, status from its error code.
func ErrRoute(err error) render.Renderer {
	code := server.CodeOf(err)
	status, statusText := httpStatusOf(code)
	errorText := server.MessageOf(err)
	if status == http.StatusInternalServerError {
		errorText = "internal server error"
	}
	if code == server.ErrUnknown {
		code = server.ErrInternalServerError
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     statusText,
		AppCode:        int64(status),
		ErrorText:      errorText,
		ErrorCode:      code.String(),
	}
}

func httpStatusOf(code server.ErrorCode) (int, string) {
	switch code {
	case server.ErrInvalidInput:
		return http.StatusBadRequest, "Invalid request."
	case server.ErrNoCandidateFound, server.ErrNoPathFound:
		return http.StatusUnprocessableEntity, "Route not found."
	case server.ErrGraphUnavailable:
		return http.StatusServiceUnavailable, "Road graph unavailable."
	case server.ErrExternalServiceFailure:
		return http.StatusBadGateway, "Upstream service failure."
	default:
		return http.StatusInternalServerError, "Internal server error."
	}
}
