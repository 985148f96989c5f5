package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/pharmacy-staffing/internal/application"
)

type workShiftService interface {
	CreateShift(ctx context.Context, params application.CreateShiftParams) (application.WorkShift, error)
	BulkCreateShifts(ctx context.Context, params application.BulkCreateShiftsParams) (int, error)
	DeleteShift(ctx context.Context, principal application.Principal, shiftID string) error
	ListShifts(ctx context.Context, principal application.Principal, engagementID string) ([]application.WorkShift, error)
}

type ShiftHandler struct {
	service   workShiftService
	responder responder
	logger    *slog.Logger
}

func NewShiftHandler(service workShiftService, logger *slog.Logger) *ShiftHandler {
	base := defaultLogger(logger)
	return &ShiftHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ShiftHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ShiftHandler", operation, attrs...)
}

func (h *ShiftHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	engagementID := strings.TrimSpace(r.PathValue("id"))
	if engagementID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req shiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode shift request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	workDate, err := parseDateField(req.WorkDate)
	if err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "invalid shift payload", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "engagement_id", engagementID)

	shift, err := h.service.CreateShift(r.Context(), application.CreateShiftParams{
		Principal:    principal,
		EngagementID: engagementID,
		Input: application.ShiftInput{
			WorkDate:     workDate,
			StartTime:    strings.TrimSpace(req.StartTime),
			EndTime:      strings.TrimSpace(req.EndTime),
			BreakMinutes: req.BreakMinutes,
			Notes:        strings.TrimSpace(req.Notes),
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "shift creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("shift_id", shift.ID).InfoContext(r.Context(), "shift created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, shiftResponse{Shift: toShiftDTO(shift)})
}

func (h *ShiftHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	engagementID := strings.TrimSpace(r.PathValue("id"))
	if engagementID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bulkShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "BulkCreate", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode bulk shift request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "BulkCreate", "principal_id", principal.UserID, "engagement_id", engagementID)

	created, err := h.service.BulkCreateShifts(r.Context(), application.BulkCreateShiftsParams{
		Principal:    principal,
		EngagementID: engagementID,
		Weekdays:     toWeekdays(req.Weekdays),
		StartTime:    strings.TrimSpace(req.StartTime),
		EndTime:      strings.TrimSpace(req.EndTime),
		BreakMinutes: req.BreakMinutes,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "bulk shift creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("shifts_created", created).InfoContext(r.Context(), "shifts bulk created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bulkShiftResponse{ShiftsCreated: created})
}

func (h *ShiftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	shiftID := strings.TrimSpace(r.PathValue("id"))
	if shiftID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "shift_id", shiftID)

	if err := h.service.DeleteShift(r.Context(), principal, shiftID); err != nil {
		logger.ErrorContext(r.Context(), "shift delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "shift deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ShiftHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	engagementID := strings.TrimSpace(r.PathValue("id"))
	if engagementID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "engagement_id", engagementID)

	shifts, err := h.service.ListShifts(r.Context(), principal, engagementID)
	if err != nil {
		logger.ErrorContext(r.Context(), "shift list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(shifts)).InfoContext(r.Context(), "shifts listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listShiftsResponse{Shifts: toShiftDTOs(shifts)})
}

type shiftRequest struct {
	WorkDate     string `json:"work_date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	BreakMinutes int    `json:"break_minutes"`
	Notes        string `json:"notes"`
}

type bulkShiftRequest struct {
	Weekdays     []int  `json:"weekdays"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	BreakMinutes int    `json:"break_minutes"`
}

type shiftResponse struct {
	Shift shiftDTO `json:"shift"`
}

type bulkShiftResponse struct {
	ShiftsCreated int `json:"shifts_created"`
}

type listShiftsResponse struct {
	Shifts []shiftDTO `json:"shifts"`
}

type shiftDTO struct {
	ID           string `json:"id"`
	EngagementID string `json:"engagement_id"`
	WorkDate     string `json:"work_date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	BreakMinutes int    `json:"break_minutes"`
	Notes        string `json:"notes,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func toShiftDTO(shift application.WorkShift) shiftDTO {
	return shiftDTO{
		ID:           shift.ID,
		EngagementID: shift.EngagementID,
		WorkDate:     formatDateField(shift.WorkDate),
		StartTime:    shift.StartTime,
		EndTime:      shift.EndTime,
		BreakMinutes: shift.BreakMinutes,
		Notes:        shift.Notes,
		CreatedAt:    shift.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toShiftDTOs(shifts []application.WorkShift) []shiftDTO {
	if len(shifts) == 0 {
		return nil
	}
	out := make([]shiftDTO, 0, len(shifts))
	for _, shift := range shifts {
		out = append(out, toShiftDTO(shift))
	}
	return out
}
