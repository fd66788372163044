package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// NotFoundJSON builds the error handler installed on the echo instance. Every
// error that escapes a handler, including router 404s and middleware
// rejections, is rendered as the same ErrorResponse envelope the handlers
// emit themselves.
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if he, ok := err.(*echo.HTTPError); ok {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		// Anything not already an HTTP error is a bug upstream
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}
