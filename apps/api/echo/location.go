package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classfence/core"
	"github.com/trezcool/classfence/core/tracking"
)

type (
	LocationRequest struct {
		Latitude  *float64   `json:"latitude" validate:"required"`
		Longitude *float64   `json:"longitude" validate:"required"`
		Accuracy  *float64   `json:"accuracy" validate:"omitempty,gte=0"`
		Timestamp *time.Time `json:"timestamp"`
	}

	ResolveAlertRequest struct {
		SubjectID string `json:"subject_id" validate:"required,notblank"`
		AlertID   string `json:"alert_id" validate:"required,notblank"`
	}
)

// maxClockSkew is how far ahead of the server clock a sample timestamp may be.
const maxClockSkew = time.Minute

// Validate only checks the shape of the request; coordinate ranges are checked by the tracking service.
// A timestamp from the future would make every later sample stale.
func (r LocationRequest) Validate(validate *validator.Validate) error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.Timestamp != nil && r.Timestamp.After(time.Now().Add(maxClockSkew)) {
		return core.NewValidationError(
			errors.New("invalid timestamp"),
			core.FieldError{Field: "timestamp", Error: "timestamp cannot be in the future"},
		)
	}
	return nil
}

func (r LocationRequest) sample(subjectID string) tracking.Sample {
	s := tracking.Sample{
		SubjectID:  subjectID,
		Coordinate: tracking.Coordinate{Lat: *r.Latitude, Lng: *r.Longitude},
		Accuracy:   r.Accuracy,
	}
	if r.Timestamp != nil {
		s.Timestamp = *r.Timestamp
	}
	return s
}

func (r ResolveAlertRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

type locationApi struct {
	svc      tracking.ServiceInterface
	validate *validator.Validate
}

func registerLocationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc tracking.ServiceInterface, validate *validator.Validate) {
	api := locationApi{
		svc:      svc,
		validate: validate,
	}

	lg := g.Group("/location", jwt)
	lg.POST("", api.ingest)
	lg.GET("/status/:subjectId", api.status, subjectOrStaffMiddleware)

	// staff endpoints
	lg.GET("/classes/:classId/overview", api.classOverview, staffMiddleware)
	lg.GET("/alerts", api.activeAlerts, staffMiddleware)
	lg.POST("/alerts/resolve", api.resolveAlert, staffMiddleware)
}

// Handlers

func (api *locationApi) ingest(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data LocationRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LocationRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.Ingest(ctx.Request().Context(), data.sample(claims.Subject))
	if err != nil {
		return errors.Wrap(err, "ingesting location")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *locationApi) status(ctx echo.Context) error {
	snap, err := api.svc.GetStatus(ctx.Request().Context(), ctx.Param("subjectId"))
	if err != nil {
		return errors.Wrap(err, "getting status")
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api *locationApi) classOverview(ctx echo.Context) error {
	ov, err := api.svc.ClassOverview(ctx.Request().Context(), ctx.Param("classId"))
	if err != nil {
		return errors.Wrap(err, "getting class overview")
	}
	return ctx.JSON(http.StatusOK, ov)
}

func (api *locationApi) activeAlerts(ctx echo.Context) error {
	alerts, err := api.svc.ActiveAlerts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing alerts")
	}
	if alerts == nil {
		alerts = []tracking.AlertEntry{}
	}
	return ctx.JSON(http.StatusOK, alerts)
}

func (api *locationApi) resolveAlert(ctx echo.Context) error {
	var data ResolveAlertRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResolveAlertRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.svc.ResolveAlert(ctx.Request().Context(), data.SubjectID, data.AlertID)
	if err != nil {
		return errors.Wrap(err, "resolving alert")
	}
	return ctx.JSON(http.StatusOK, entry)
}
