package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workforce-hub/attendance-backend-go/internal/domain/attendance"
	"github.com/workforce-hub/attendance-backend-go/internal/domain/user"
	"github.com/workforce-hub/attendance-backend-go/internal/pkg/jwt"
	"github.com/workforce-hub/attendance-backend-go/internal/pkg/validator"
)

const (
	handlerTestAccessExp = "1h"
	handlerTestSecret    = "test-secret-key-for-jwt"
)

// fakeAttendanceService records the last request of each kind and returns the
// configured results. Unset methods panic through the nil embedded interface.
type fakeAttendanceService struct {
	attendance.AttendanceService

	clockReq     attendance.ClockRequest
	clockResult  attendance.ActionResult
	clockErr     error
	manualReq    attendance.ManualEntryRequest
	manualCalls  int
	updateReq    attendance.UpdateAttendanceRequest
	listFilter   attendance.AttendanceFilter
	listResult   attendance.ListAttendanceResponse
	getErr       error
	exportFilter attendance.AttendanceFilter
}

func (f *fakeAttendanceService) Clock(ctx context.Context, req attendance.ClockRequest) (attendance.ActionResult, error) {
	f.clockReq = req
	return f.clockResult, f.clockErr
}

func (f *fakeAttendanceService) CreateManual(ctx context.Context, req attendance.ManualEntryRequest) (attendance.AttendanceResponse, error) {
	f.manualCalls++
	f.manualReq = req
	return attendance.AttendanceResponse{ID: "rec-1", EmployeeID: req.EmployeeID, Date: req.Date, Status: "present"}, nil
}

func (f *fakeAttendanceService) UpdateAttendance(ctx context.Context, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	f.updateReq = req
	return attendance.AttendanceResponse{ID: req.ID, Status: "present"}, nil
}

func (f *fakeAttendanceService) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	f.listFilter = filter
	return f.listResult, nil
}

func (f *fakeAttendanceService) GetAttendance(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	if f.getErr != nil {
		return attendance.AttendanceResponse{}, f.getErr
	}
	return attendance.AttendanceResponse{ID: id}, nil
}

func (f *fakeAttendanceService) GetTodayStats(ctx context.Context) (attendance.TodayStatsResponse, error) {
	return attendance.TodayStatsResponse{Date: "2024-03-04", Present: 3, TotalEmployees: 4, AttendanceRate: 75}, nil
}

func (f *fakeAttendanceService) ExportAttendance(ctx context.Context, filter attendance.AttendanceFilter) (*bytes.Buffer, string, error) {
	f.exportFilter = filter
	return bytes.NewBufferString("xlsx-bytes"), "attendance_2024-03-04.xlsx", nil
}

type testResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		TotalItems int64 `json:"total_items"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

type handlerFixture struct {
	service *fakeAttendanceService
	jwt     jwt.Service
	router  *chi.Mux
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	service := &fakeAttendanceService{}
	jwtService := jwt.NewJWTService(handlerTestSecret, handlerTestAccessExp)
	router := NewRouter(jwtService, NewAttendanceHandler(service), RouterOptions{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		AllowedOrigins: []string{"http://localhost:3000"},
	})

	return &handlerFixture{service: service, jwt: jwtService, router: router}
}

func (f *handlerFixture) token(t *testing.T, role user.Role) string {
	t.Helper()
	employeeID := "E1"
	token, _, err := f.jwt.GenerateAccessToken("user-1", &employeeID, role)
	require.NoError(t, err)
	return token
}

func (f *handlerFixture) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) testResponse {
	t.Helper()
	var resp testResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestAttendanceHandler_Clock(t *testing.T) {
	t.Run("success returns 200 with the action result", func(t *testing.T) {
		f := newHandlerFixture(t)
		timeIn := "09:00:00"
		f.service.clockResult = attendance.ActionResult{
			Status:  attendance.ActionSucceeded,
			Action:  attendance.ActionClockIn,
			State:   attendance.StateClockedIn,
			Message: "Clocked in successfully",
			Record:  &attendance.AttendanceResponse{ID: "rec-1", EmployeeID: "E1", Date: "2024-03-04", TimeIn: &timeIn},
		}

		rec := f.do(t, http.MethodPost, "/api/v1/attendance/clock", f.token(t, user.RoleEmployee), `{"action":"in"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)
		assert.Equal(t, "Clocked in successfully", resp.Message)
		assert.Equal(t, "in", f.service.clockReq.Action)

		var result attendance.ActionResult
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Equal(t, attendance.StateClockedIn, result.State)
		require.NotNil(t, result.Record)
		assert.Equal(t, "09:00:00", *result.Record.TimeIn)
	})

	t.Run("rejection returns 409 with the unchanged record", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.service.clockResult = attendance.ActionResult{
			Status:  attendance.ActionRejected,
			Action:  attendance.ActionClockIn,
			State:   attendance.StateClockedIn,
			Message: attendance.ErrAlreadyClockedIn.Error(),
			Reason:  attendance.ErrAlreadyClockedIn,
			Record:  &attendance.AttendanceResponse{ID: "rec-1"},
		}

		rec := f.do(t, http.MethodPost, "/api/v1/attendance/clock", f.token(t, user.RoleEmployee), `{"action":"in"}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
		resp := decodeResponse(t, rec)
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ACTION_REJECTED", resp.Error.Code)
		assert.Equal(t, attendance.ErrAlreadyClockedIn.Error(), resp.Error.Message)

		var result attendance.ActionResult
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Equal(t, attendance.ActionRejected, result.Status)
		require.NotNil(t, result.Record)
		assert.Equal(t, "rec-1", result.Record.ID)
	})

	t.Run("validation error returns 422 with field details", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.service.clockErr = validator.ValidationErrors{
			{Field: "action", Message: "action must be one of: in, out"},
		}

		rec := f.do(t, http.MethodPost, "/api/v1/attendance/clock", f.token(t, user.RoleEmployee), `{"action":"sideways"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "action must be one of: in, out", resp.Error.Details["action"])
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		f := newHandlerFixture(t)

		rec := f.do(t, http.MethodPost, "/api/v1/attendance/clock", f.token(t, user.RoleEmployee), `{"action":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, f.service.clockReq.Action)
	})

	t.Run("invalid claims return 401", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.service.clockErr = attendance.ErrInvalidClaims

		rec := f.do(t, http.MethodPost, "/api/v1/attendance/clock", f.token(t, user.RoleEmployee), `{"action":"in"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAttendanceHandler_Authentication(t *testing.T) {
	f := newHandlerFixture(t)

	t.Run("missing token", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/attendance/", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		employeeID := "E1"
		foreign := jwt.NewJWTService("some-other-secret", handlerTestAccessExp)
		token, _, err := foreign.GenerateAccessToken("user-1", &employeeID, user.RoleOwner)
		require.NoError(t, err)

		rec := f.do(t, http.MethodGet, "/api/v1/attendance/", token, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("heartbeat needs no token", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAttendanceHandler_ManagerRoutes(t *testing.T) {
	manualBody := `{"employee_id":"E2","date":"2024-03-04","time_in":"09:00:00","time_out":"17:00:00"}`

	t.Run("employee cannot create manual entries", func(t *testing.T) {
		f := newHandlerFixture(t)

		rec := f.do(t, http.MethodPost, "/api/v1/attendance/manual", f.token(t, user.RoleEmployee), manualBody)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Zero(t, f.service.manualCalls)
	})

	t.Run("manager creates manual entry", func(t *testing.T) {
		f := newHandlerFixture(t)

		rec := f.do(t, http.MethodPost, "/api/v1/attendance/manual", f.token(t, user.RoleManager), manualBody)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 1, f.service.manualCalls)
		assert.Equal(t, "E2", f.service.manualReq.EmployeeID)
		require.NotNil(t, f.service.manualReq.TimeOut)
		assert.Equal(t, "17:00:00", *f.service.manualReq.TimeOut)
	})

	t.Run("update takes the id from the path", func(t *testing.T) {
		f := newHandlerFixture(t)

		rec := f.do(t, http.MethodPut, "/api/v1/attendance/rec-9", f.token(t, user.RoleOwner), `{"time_out":null,"status":"late"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "rec-9", f.service.updateReq.ID)
		assert.True(t, f.service.updateReq.TimeOut.Set)
		assert.Nil(t, f.service.updateReq.TimeOut.Value)
		assert.False(t, f.service.updateReq.BreakStart.Set)
		require.NotNil(t, f.service.updateReq.Status)
		assert.Equal(t, "late", *f.service.updateReq.Status)
	})

	t.Run("employee cannot delete", func(t *testing.T) {
		f := newHandlerFixture(t)

		rec := f.do(t, http.MethodDelete, "/api/v1/attendance/rec-9", f.token(t, user.RoleEmployee), "")

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestAttendanceHandler_List(t *testing.T) {
	t.Run("parses the filter and writes pagination meta", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.service.listResult = attendance.ListAttendanceResponse{
			TotalCount:  3,
			Page:        2,
			Limit:       1,
			TotalPages:  3,
			Attendances: []attendance.AttendanceResponse{{ID: "rec-2"}},
		}

		rec := f.do(t, http.MethodGet, "/api/v1/attendance/?search=maria&status=present&page=2&limit=1&sort_by=time_in&sort_order=asc", f.token(t, user.RoleManager), "")

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, f.service.listFilter.Search)
		assert.Equal(t, "maria", *f.service.listFilter.Search)
		require.NotNil(t, f.service.listFilter.Status)
		assert.Equal(t, "present", *f.service.listFilter.Status)
		assert.Equal(t, 2, f.service.listFilter.Page)
		assert.Equal(t, "time_in", f.service.listFilter.SortBy)

		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(3), resp.Meta.TotalItems)
		assert.Equal(t, 3, resp.Meta.TotalPages)
	})

	t.Run("invalid filter returns 422", func(t *testing.T) {
		f := newHandlerFixture(t)

		rec := f.do(t, http.MethodGet, "/api/v1/attendance/?limit=500&sort_by=salary", f.token(t, user.RoleManager), "")

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decodeResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Contains(t, resp.Error.Details, "limit")
		assert.Contains(t, resp.Error.Details, "sort_by")
	})
}

func TestAttendanceHandler_Get(t *testing.T) {
	f := newHandlerFixture(t)
	f.service.getErr = attendance.ErrAttendanceNotFound

	rec := f.do(t, http.MethodGet, "/api/v1/attendance/missing", f.token(t, user.RoleEmployee), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAttendanceHandler_Reports(t *testing.T) {
	t.Run("stats require the reports permission", func(t *testing.T) {
		f := newHandlerFixture(t)

		rec := f.do(t, http.MethodGet, "/api/v1/attendance/stats", f.token(t, user.RoleEmployee), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = f.do(t, http.MethodGet, "/api/v1/attendance/stats", f.token(t, user.RoleOwner), "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var stats attendance.TodayStatsResponse
		require.NoError(t, json.Unmarshal(decodeResponse(t, rec).Data, &stats))
		assert.Equal(t, 75.0, stats.AttendanceRate)
	})

	t.Run("export streams an xlsx attachment", func(t *testing.T) {
		f := newHandlerFixture(t)

		rec := f.do(t, http.MethodGet, "/api/v1/attendance/export?start_date=2024-03-01&end_date=2024-03-31", f.token(t, user.RoleManager), "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
		assert.Equal(t, "attachment; filename*=UTF-8''attendance_2024-03-04.xlsx", rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "10", rec.Header().Get("Content-Length"))
		assert.Equal(t, "xlsx-bytes", rec.Body.String())
		require.NotNil(t, f.service.exportFilter.StartDate)
		assert.Equal(t, "2024-03-01", *f.service.exportFilter.StartDate)
	})
}
