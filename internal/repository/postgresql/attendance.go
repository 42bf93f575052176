package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/workforce-hub/attendance-backend-go/internal/domain/attendance"
	"github.com/workforce-hub/attendance-backend-go/internal/pkg/database"
)

const attendanceColumns = `
	a.id::text, a.employee_id, to_char(a.date, 'YYYY-MM-DD'),
	to_char(a.time_in, 'HH24:MI:SS'), to_char(a.time_out, 'HH24:MI:SS'),
	to_char(a.break_start, 'HH24:MI:SS'), to_char(a.break_end, 'HH24:MI:SS'),
	a.total_hours::text, a.overtime_hours::text,
	a.status, a.notes, a.created_at, a.updated_at,
	e.full_name, e.department, e.position`

const attendanceFrom = `
	FROM attendance a
	LEFT JOIN employees e ON e.id = a.employee_id`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var att attendance.Attendance
	var totalHours, overtimeHours *string

	err := row.Scan(
		&att.ID, &att.EmployeeID, &att.Date,
		&att.TimeIn, &att.TimeOut,
		&att.BreakStart, &att.BreakEnd,
		&totalHours, &overtimeHours,
		&att.Status, &att.Notes, &att.CreatedAt, &att.UpdatedAt,
		&att.EmployeeName, &att.Department, &att.Position,
	)
	if err != nil {
		return attendance.Attendance{}, err
	}

	if att.TotalHours, err = parseNullableDecimal(totalHours); err != nil {
		return attendance.Attendance{}, fmt.Errorf("invalid total_hours: %w", err)
	}
	if att.OvertimeHours, err = parseNullableDecimal(overtimeHours); err != nil {
		return attendance.Attendance{}, fmt.Errorf("invalid overtime_hours: %w", err)
	}

	return att, nil
}

func parseNullableDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(2)
	return &s
}

// FindLatest implements attendance.AttendanceRepository.
func (a *attendanceRepository) FindLatest(ctx context.Context, employeeID string, date string) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + attendanceFrom + `
		WHERE a.employee_id = $1 AND a.date = $2::date
		ORDER BY a.updated_at DESC
		LIMIT 1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}

	return &att, nil
}

// FindInRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) FindInRange(ctx context.Context, filter attendance.RangeFilter) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	where := "a.date BETWEEN $1::date AND $2::date"
	args := []interface{}{filter.StartDate, filter.EndDate}
	if filter.EmployeeID != nil {
		where += " AND a.employee_id = $3"
		args = append(args, *filter.EmployeeID)
	}

	query := `SELECT ` + attendanceColumns + attendanceFrom + `
		WHERE ` + where + `
		ORDER BY a.date ASC, a.employee_id ASC
	`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance range: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance: %w", err)
	}

	return records, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}

	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + attendanceFrom + `
		WHERE a.id = $1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by ID: %w", err)
	}

	return att, nil
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to generate attendance id: %w", err)
	}

	query := `
		INSERT INTO attendance (
			id, employee_id, date, time_in, time_out, break_start, break_end,
			total_hours, overtime_hours, status, notes
		) VALUES (
			$1, $2, $3::date, $4::time, $5::time, $6::time, $7::time,
			$8::numeric, $9::numeric, $10, $11
		)
		ON CONFLICT (employee_id, date) DO NOTHING
		RETURNING id::text
	`

	var createdID string
	err = q.QueryRow(ctx, query,
		id.String(),
		newAttendance.EmployeeID,
		newAttendance.Date,
		newAttendance.TimeIn,
		newAttendance.TimeOut,
		newAttendance.BreakStart,
		newAttendance.BreakEnd,
		decimalArg(newAttendance.TotalHours),
		decimalArg(newAttendance.OvertimeHours),
		string(newAttendance.Status),
		newAttendance.Notes,
	).Scan(&createdID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceExists
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return a.GetByID(ctx, createdID)
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, id string, patch attendance.RecordPatch) (attendance.Attendance, error) {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}

	q := GetQuerier(ctx, a.db)

	updates := make([]string, 0)
	args := make([]interface{}, 0)
	argIdx := 1

	addClock := func(column string, f attendance.Field[string]) {
		if !f.IsSet() {
			return
		}
		updates = append(updates, fmt.Sprintf("%s = $%d::time", column, argIdx))
		args = append(args, f.Value())
		argIdx++
	}
	addHours := func(column string, f attendance.Field[decimal.Decimal]) {
		if !f.IsSet() {
			return
		}
		updates = append(updates, fmt.Sprintf("%s = $%d::numeric", column, argIdx))
		args = append(args, decimalArg(f.Value()))
		argIdx++
	}

	addClock("time_in", patch.TimeIn)
	addClock("time_out", patch.TimeOut)
	addClock("break_start", patch.BreakStart)
	addClock("break_end", patch.BreakEnd)
	addHours("total_hours", patch.TotalHours)
	addHours("overtime_hours", patch.OvertimeHours)

	if patch.Status.IsSet() && patch.Status.Value() != nil {
		updates = append(updates, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(*patch.Status.Value()))
		argIdx++
	}
	if patch.Notes.IsSet() {
		updates = append(updates, fmt.Sprintf("notes = $%d", argIdx))
		args = append(args, patch.Notes.Value())
		argIdx++
	}

	updates = append(updates, "updated_at = NOW()")

	query := fmt.Sprintf("UPDATE attendance SET %s WHERE id = $%d", strings.Join(updates, ", "), argIdx)
	args = append(args, id)

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to update attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}

	return a.GetByID(ctx, id)
}

// Delete implements attendance.AttendanceRepository.
func (a *attendanceRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.ErrAttendanceNotFound
	}

	q := GetQuerier(ctx, a.db)

	tag, err := q.Exec(ctx, "DELETE FROM attendance WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	baseWhere := "1=1"
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND a.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	// Date filter
	if filter.Date != nil && *filter.Date != "" {
		baseWhere += fmt.Sprintf(" AND a.date = $%d::date", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}

	// Date range filters
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND a.date >= $%d::date", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND a.date <= $%d::date", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	// Status filter
	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND a.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	// Search by employee name or id
	if filter.Search != nil && *filter.Search != "" {
		baseWhere += fmt.Sprintf(" AND (e.full_name ILIKE $%d OR a.employee_id ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}

	// Count total
	countQuery := "SELECT COUNT(*)" + attendanceFrom + " WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	// Build ORDER BY
	orderByField := "a.date"
	switch filter.SortBy {
	case "time_in":
		orderByField = "a.time_in"
	case "time_out":
		orderByField = "a.time_out"
	case "total_hours":
		orderByField = "a.total_hours"
	case "status":
		orderByField = "a.status"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	selectQuery := fmt.Sprintf(`SELECT %s %s
		WHERE %s
		ORDER BY %s %s NULLS LAST, a.employee_id ASC
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, attendanceFrom, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendances: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, att)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate attendances: %w", err)
	}

	return records, total, nil
}

// LockEmployeeDay implements attendance.AttendanceRepository.
func (a *attendanceRepository) LockEmployeeDay(ctx context.Context, employeeID string, date string) error {
	q := GetQuerier(ctx, a.db)

	if _, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1::text || ':' || $2::text, 0))", employeeID, date); err != nil {
		return fmt.Errorf("failed to acquire attendance lock: %w", err)
	}

	return nil
}
