package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/workforce-hub/attendance-backend-go/internal/domain/attendance"
	"github.com/workforce-hub/attendance-backend-go/internal/domain/employee"
	"github.com/workforce-hub/attendance-backend-go/internal/domain/user"
	"github.com/workforce-hub/attendance-backend-go/internal/pkg/validator"
)

// ErrInvalidToken is returned when a request carries no usable access token.
var ErrInvalidToken = errors.New("invalid or expired token")

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, attendance.ErrInvalidClaims):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrManagerAccessRequired):
		Forbidden(w, err.Error())
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrAttendanceExists):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrUnauthorized):
		Forbidden(w, err.Error())

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
