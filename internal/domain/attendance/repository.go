package attendance

import (
	"context"
)

// AttendanceRepository is the authoritative store of day records.
type AttendanceRepository interface {
	// FindLatest returns the record for employeeID on date, or nil if none exists.
	FindLatest(ctx context.Context, employeeID string, date string) (*Attendance, error)

	// FindInRange returns every record in the inclusive date range, oldest first.
	FindInRange(ctx context.Context, filter RangeFilter) ([]Attendance, error)

	// GetByID returns ErrAttendanceNotFound when no record matches.
	GetByID(ctx context.Context, id string) (Attendance, error)

	// Create inserts a new day record. It returns ErrAttendanceExists when the
	// employee already has a record for that date.
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// Update applies a partial update, refreshes updated_at and returns the stored record.
	Update(ctx context.Context, id string, patch RecordPatch) (Attendance, error)

	Delete(ctx context.Context, id string) error

	// List retrieves records with filters and pagination
	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, int64, error)

	// LockEmployeeDay serialises writers on one employee's day until the
	// surrounding transaction ends. It must be called inside a transaction.
	LockEmployeeDay(ctx context.Context, employeeID string, date string) error
}

// Transactor runs fn inside a single database transaction carried by ctx.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
