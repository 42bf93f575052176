package attendance

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/workforce-hub/attendance-backend-go/internal/domain/attendance"
	"github.com/workforce-hub/attendance-backend-go/internal/domain/employee"
	"github.com/workforce-hub/attendance-backend-go/internal/domain/user"
)

type fakeTx struct {
	calls int
}

func (f *fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

// fakeAttendanceRepository keeps records in memory keyed by id and enforces
// one record per employee and day.
type fakeAttendanceRepository struct {
	mu      sync.Mutex
	records map[string]attendance.Attendance
	locks   []string
	now     time.Time

	// conflictOnce makes the next Create fail as if another writer won the race.
	conflictOnce *attendance.Attendance
}

func newFakeAttendanceRepository() *fakeAttendanceRepository {
	return &fakeAttendanceRepository{
		records: make(map[string]attendance.Attendance),
		now:     time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeAttendanceRepository) tick() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *fakeAttendanceRepository) seed(rec attendance.Attendance) attendance.Attendance {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = f.tick()
	rec.UpdatedAt = rec.CreatedAt
	f.records[rec.ID] = rec
	return rec
}

func (f *fakeAttendanceRepository) FindLatest(_ context.Context, employeeID string, date string) (*attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.EmployeeID == employeeID && rec.Date == date {
			found := rec
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeAttendanceRepository) FindInRange(_ context.Context, filter attendance.RangeFilter) ([]attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Attendance
	for _, rec := range f.records {
		if filter.EmployeeID != nil && rec.EmployeeID != *filter.EmployeeID {
			continue
		}
		if rec.Date < filter.StartDate || rec.Date > filter.EndDate {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (f *fakeAttendanceRepository) GetByID(_ context.Context, id string) (attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return rec, nil
}

func (f *fakeAttendanceRepository) Create(ctx context.Context, rec attendance.Attendance) (attendance.Attendance, error) {
	if f.conflictOnce != nil {
		winner := *f.conflictOnce
		f.conflictOnce = nil
		f.seed(winner)
		return attendance.Attendance{}, attendance.ErrAttendanceExists
	}
	if existing, _ := f.FindLatest(ctx, rec.EmployeeID, rec.Date); existing != nil {
		return attendance.Attendance{}, attendance.ErrAttendanceExists
	}
	return f.seed(rec), nil
}

func (f *fakeAttendanceRepository) Update(_ context.Context, id string, patch attendance.RecordPatch) (attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	rec = patch.Apply(rec)
	rec.UpdatedAt = f.tick()
	f.records[id] = rec
	return rec, nil
}

func (f *fakeAttendanceRepository) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return attendance.ErrAttendanceNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeAttendanceRepository) List(_ context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Attendance
	for _, rec := range f.records {
		if filter.EmployeeID != nil && rec.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && string(rec.Status) != *filter.Status {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	total := int64(len(out))

	start := (filter.Page - 1) * filter.Limit
	if start > len(out) {
		start = len(out)
	}
	end := start + filter.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (f *fakeAttendanceRepository) LockEmployeeDay(_ context.Context, employeeID string, date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locks = append(f.locks, employeeID+":"+date)
	return nil
}

func (f *fakeAttendanceRepository) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeEmployeeRepository struct {
	employees map[string]employee.Employee
}

func newFakeEmployeeRepository(employees ...employee.Employee) *fakeEmployeeRepository {
	f := &fakeEmployeeRepository{employees: make(map[string]employee.Employee)}
	for _, e := range employees {
		f.employees[e.ID] = e
	}
	return f
}

func (f *fakeEmployeeRepository) GetByID(_ context.Context, id string) (employee.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (f *fakeEmployeeRepository) Exists(_ context.Context, id string) (bool, error) {
	e, ok := f.employees[id]
	return ok && e.Status == employee.EmploymentStatusActive, nil
}

func (f *fakeEmployeeRepository) ListActiveIDs(_ context.Context) ([]string, error) {
	var ids []string
	for id, e := range f.employees {
		if e.Status == employee.EmploymentStatusActive {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeEmployeeRepository) CountActive(ctx context.Context) (int, error) {
	ids, _ := f.ListActiveIDs(ctx)
	return len(ids), nil
}

var testTokenAuth = jwtauth.New("HS256", []byte("test-secret-key-for-jwt"), nil)

// contextAs returns a context carrying access-token claims for the given caller.
func contextAs(t *testing.T, userID, employeeID string, role user.Role) context.Context {
	t.Helper()
	claims := map[string]interface{}{
		"user_id": userID,
		"role":    string(role),
		"type":    "access",
	}
	if employeeID != "" {
		claims["employee_id"] = employeeID
	}
	token, _, err := testTokenAuth.Encode(claims)
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}
