package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// staffMiddleware only lets admins and teachers through.
func staffMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if claims.IsStaff() {
			return next(ctx)
		}
		return errHttpForbidden
	}
}

// subjectOrStaffMiddleware only lets staff and the subject named by the `subjectId` path param through.
func subjectOrStaffMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if claims.IsStaff() || claims.Subject == ctx.Param("subjectId") {
			return next(ctx)
		}
		return errHttpForbidden
	}
}
