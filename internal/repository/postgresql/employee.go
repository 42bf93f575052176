package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/workforce-hub/attendance-backend-go/internal/domain/employee"
	"github.com/workforce-hub/attendance-backend-go/internal/pkg/database"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id, full_name, department, position, status, wage, overtime_rate, created_at, updated_at
		FROM employees
		WHERE id = $1
	`

	var found employee.Employee
	err := q.QueryRow(ctx, query, id).
		Scan(
			&found.ID, &found.FullName, &found.Department, &found.Position, &found.Status,
			&found.Wage, &found.OvertimeRate, &found.CreatedAt, &found.UpdatedAt,
		)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by ID: %w", err)
	}

	return found, nil
}

// Exists implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Exists(ctx context.Context, id string) (bool, error) {
	q := GetQuerier(ctx, e.db)

	var found bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1 AND status = $2)`,
		id, string(employee.EmploymentStatusActive),
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("failed to check employee existence: %w", err)
	}

	return found, nil
}

// ListActiveIDs implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActiveIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, e.db)

	rows, err := q.Query(ctx,
		`SELECT id FROM employees WHERE status = $1 ORDER BY id`,
		string(employee.EmploymentStatusActive),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan employee id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// CountActive implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) CountActive(ctx context.Context) (int, error) {
	q := GetQuerier(ctx, e.db)

	var count int
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM employees WHERE status = $1`,
		string(employee.EmploymentStatusActive),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active employees: %w", err)
	}

	return count, nil
}
