package employee

import "context"

type EmployeeRepository interface {
	// GetByID returns ErrEmployeeNotFound when no employee matches.
	GetByID(ctx context.Context, id string) (Employee, error)

	// Exists reports whether an active employee with the id exists.
	Exists(ctx context.Context, id string) (bool, error)

	// ListActiveIDs returns the ids of all active employees.
	ListActiveIDs(ctx context.Context) ([]string, error)

	CountActive(ctx context.Context) (int, error)
}
