package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"reportbot/internal/models"
)

// Response helpers so every endpoint speaks the same envelope.
func successResponse(c echo.Context, responseType string, data interface{}) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Type:    responseType,
		Data:    data,
	})
}

func errorResponse(c echo.Context, code int, msg string) error {
	return c.JSON(code, models.APIResponse{
		Success: false,
		Type:    "error",
		Error:   msg,
	})
}

func messageResponse(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Type:    "message",
		Message: msg,
	})
}
