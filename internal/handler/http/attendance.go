package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/workforce-hub/attendance-backend-go/internal/domain/attendance"
	"github.com/workforce-hub/attendance-backend-go/internal/handler/http/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AttendanceHandler interface {
	CurrentStatus(w http.ResponseWriter, r *http.Request)
	Clock(w http.ResponseWriter, r *http.Request)
	Break(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	CreateManual(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Summary(w http.ResponseWriter, r *http.Request)
	Stats(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// CurrentStatus implements AttendanceHandler.
func (h *attendanceHandlerImpl) CurrentStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetCurrentStatus(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Clock implements AttendanceHandler.
func (h *attendanceHandlerImpl) Clock(w http.ResponseWriter, r *http.Request) {
	var req attendance.ClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode clock request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.Clock(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	writeActionResult(w, result)
}

// Break implements AttendanceHandler.
func (h *attendanceHandlerImpl) Break(w http.ResponseWriter, r *http.Request) {
	var req attendance.BreakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode break request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.Break(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	writeActionResult(w, result)
}

func writeActionResult(w http.ResponseWriter, result attendance.ActionResult) {
	if result.Rejected() {
		response.Rejected(w, result.Message, result)
		return
	}
	response.SuccessWithMessage(w, result.Message, result)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := parseAttendanceFilter(r)

	// Validate filter
	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.attendanceService.ListAttendance(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, results.Attendances, &response.Meta{
		Page:       results.Page,
		Limit:      results.Limit,
		TotalItems: results.TotalCount,
		TotalPages: results.TotalPages,
	})
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.attendanceService.GetAttendance(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// CreateManual implements AttendanceHandler.
func (h *attendanceHandlerImpl) CreateManual(w http.ResponseWriter, r *http.Request) {
	var req attendance.ManualEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode manual entry request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.CreateManual(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Attendance record created successfully", result)
}

// Update implements AttendanceHandler.
func (h *attendanceHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req attendance.UpdateAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode update request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = id

	result, err := h.attendanceService.UpdateAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance updated successfully", result)
}

// Delete implements AttendanceHandler.
func (h *attendanceHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.attendanceService.DeleteAttendance(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance deleted successfully", result)
}

// Summary implements AttendanceHandler.
func (h *attendanceHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := attendance.SummaryRequest{
		Period: query.Get("period"),
	}
	if employeeID := query.Get("employee_id"); employeeID != "" {
		req.EmployeeID = &employeeID
	}
	if startDate := query.Get("start_date"); startDate != "" {
		req.StartDate = &startDate
	}
	if endDate := query.Get("end_date"); endDate != "" {
		req.EndDate = &endDate
	}

	result, err := h.attendanceService.GetSummary(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Stats implements AttendanceHandler.
func (h *attendanceHandlerImpl) Stats(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetTodayStats(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Export implements AttendanceHandler.
func (h *attendanceHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	filter := parseAttendanceFilter(r)

	buf, filename, err := h.attendanceService.ExportAttendance(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Attachment(w, xlsxContentType, filename, buf.Bytes())
}

func parseAttendanceFilter(r *http.Request) attendance.AttendanceFilter {
	query := r.URL.Query()
	filter := attendance.AttendanceFilter{}

	optional := func(key string) *string {
		if v := query.Get(key); v != "" {
			return &v
		}
		return nil
	}

	filter.EmployeeID = optional("employee_id")
	filter.Search = optional("search")
	filter.Date = optional("date")
	filter.StartDate = optional("start_date")
	filter.EndDate = optional("end_date")
	filter.Status = optional("status")

	// Pagination
	if p := query.Get("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			filter.Page = pageNum
		}
	}
	if l := query.Get("limit"); l != "" {
		if limitNum, err := strconv.Atoi(l); err == nil && limitNum > 0 {
			filter.Limit = limitNum
		}
	}

	// Sorting
	filter.SortBy = query.Get("sort_by")
	filter.SortOrder = query.Get("sort_order")

	return filter
}
