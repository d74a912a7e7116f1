package common

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendValidationError sends a validation error response with per-field details.
// The message references the first invalid field only; details carry all of them.
func SendValidationError(c echo.Context, message string, details map[string]string) error {
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("VALIDATION_ERROR", message, details))
}

// SendClientError sends a client error response with the given status code
func SendClientError(c echo.Context, status int, message string) error {
	return c.JSON(status, CreateErrorResponse("CLIENT_ERROR", message, nil))
}

// SendServerError sends a server error response
func SendServerError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", message, nil))
}

// SendNotFoundError sends a not found error response
func SendNotFoundError(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, CreateErrorResponse("NOT_FOUND", fmt.Sprintf("%s not found", resource), nil))
}

// ValidationError reports one or more invalid form fields. Fields holds every
// invalid field at once; First is the first invalid field in scan order and
// drives the single user-facing notification.
type ValidationError struct {
	Fields map[string]string
	First  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.First)
}

// fieldNotifications maps fields to a specific notification text. Fields not
// listed here fall back to the generic message.
var fieldNotifications = map[string]string{
	"product_group": "Please select a product group before adding the item.",
}

// Notification returns the user-facing message for the first invalid field, or
// a generic message if that field has no specific notification text.
func (e *ValidationError) Notification() string {
	if msg, ok := fieldNotifications[e.First]; ok {
		return msg
	}
	return "Please fill in all required fields."
}

// ValidateRequiredString reports whether a required free-text field is present.
func ValidateRequiredString(value string) bool {
	return strings.TrimSpace(value) != ""
}
