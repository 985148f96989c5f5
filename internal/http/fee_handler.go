package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/pharmacy-staffing/internal/application"
)

type feeService interface {
	ConfirmPayment(ctx context.Context, principal application.Principal, feeID string) (application.Fee, error)
	MarkOverdue(ctx context.Context, principal application.Principal, feeID string) (application.Fee, error)
	Cancel(ctx context.Context, principal application.Principal, feeID string) (application.Fee, error)
	ListByStatus(ctx context.Context, principal application.Principal, status application.FeeStatus) ([]application.Fee, error)
}

type FeeHandler struct {
	service   feeService
	responder responder
	logger    *slog.Logger
}

func NewFeeHandler(service feeService, logger *slog.Logger) *FeeHandler {
	base := defaultLogger(logger)
	return &FeeHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *FeeHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "FeeHandler", operation, attrs...)
}

func (h *FeeHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Confirm")
}

func (h *FeeHandler) MarkOverdue(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "MarkOverdue")
}

func (h *FeeHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Cancel")
}

// transition runs one of the administrator fee endpoints.
func (h *FeeHandler) transition(w http.ResponseWriter, r *http.Request, operation string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var fn func(context.Context, application.Principal, string) (application.Fee, error)
	switch operation {
	case "Confirm":
		fn = h.service.ConfirmPayment
	case "MarkOverdue":
		fn = h.service.MarkOverdue
	default:
		fn = h.service.Cancel
	}

	feeID := strings.TrimSpace(r.PathValue("id"))
	if feeID == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "missing fee id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "principal_id", principal.UserID, "fee_id", feeID)

	fee, err := fn(r.Context(), principal, feeID)
	if err != nil {
		logger.ErrorContext(r.Context(), "fee transition failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", string(fee.Status)).InfoContext(r.Context(), "fee transitioned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, feeResponse{Fee: toFeeDTO(fee)})
}

func (h *FeeHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	status, err := application.ParseFeeStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	if err != nil {
		h.log(r.Context(), "List", "error_kind", "bad_request").ErrorContext(r.Context(), "invalid fee status filter", "error", err)
		h.responder.writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Message: "手数料ステータスの指定が不正です。"})
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "status", string(status))

	fees, err := h.service.ListByStatus(r.Context(), principal, status)
	if err != nil {
		logger.ErrorContext(r.Context(), "fee list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(fees)).InfoContext(r.Context(), "fees listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listFeesResponse{Fees: toFeeDTOs(fees)})
}

type feeResponse struct {
	Fee feeDTO `json:"fee"`
}

type listFeesResponse struct {
	Fees []feeDTO `json:"fees"`
}

func toFeeDTOs(fees []application.Fee) []feeDTO {
	if len(fees) == 0 {
		return nil
	}
	out := make([]feeDTO, 0, len(fees))
	for _, fee := range fees {
		out = append(out, toFeeDTO(fee))
	}
	return out
}
