package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/pharmacy-staffing/internal/application"
)

type engagementService interface {
	Offer(ctx context.Context, params application.OfferParams) (application.OfferResult, error)
	Accept(ctx context.Context, params application.EngagementDecisionParams) (application.AcceptEngagementResult, error)
	Reject(ctx context.Context, params application.EngagementDecisionParams) (application.Engagement, error)
	ListForPrincipal(ctx context.Context, principal application.Principal) ([]application.EngagementListItem, error)
}

type EngagementHandler struct {
	service   engagementService
	responder responder
	logger    *slog.Logger
}

func NewEngagementHandler(service engagementService, logger *slog.Logger) *EngagementHandler {
	base := defaultLogger(logger)
	return &EngagementHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EngagementHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EngagementHandler", operation, attrs...)
}

func (h *EngagementHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req offerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode offer request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "invalid offer payload", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "application_id", input.ApplicationID)

	result, err := h.service.Offer(r.Context(), application.OfferParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "offer failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("engagement_id", result.Engagement.ID, "with_fee", result.Fee != nil).InfoContext(r.Context(), "offer issued")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, offerResponse{
		Engagement: toEngagementDTO(result.Engagement),
		Fee:        toFeeDTOPtr(result.Fee),
	})
}

func (h *EngagementHandler) Accept(w http.ResponseWriter, r *http.Request) {
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
	logger := h.log(r.Context(), "Accept", "principal_id", principal.UserID, "engagement_id", engagementID)

	result, err := h.service.Accept(r.Context(), application.EngagementDecisionParams{
		Principal:    principal,
		EngagementID: engagementID,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "engagement accept failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("shifts_created", result.ShiftsCreated).InfoContext(r.Context(), "engagement activated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, acceptEngagementResponse{
		Engagement:    toEngagementDTO(result.Engagement),
		ShiftsCreated: result.ShiftsCreated,
	})
}

func (h *EngagementHandler) Reject(w http.ResponseWriter, r *http.Request) {
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

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		h.log(r.Context(), "Reject", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode rejection request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Reject", "principal_id", principal.UserID, "engagement_id", engagementID)

	engagement, err := h.service.Reject(r.Context(), application.EngagementDecisionParams{
		Principal:    principal,
		EngagementID: engagementID,
		Reason:       strings.TrimSpace(req.Reason),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "engagement reject failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "engagement rejected")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, engagementResponse{Engagement: toEngagementDTO(engagement)})
}

func (h *EngagementHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok || strings.TrimSpace(principal.UserID) == "" {
		h.log(r.Context(), "List", "error_kind", "unauthorized").ErrorContext(r.Context(), "missing authenticated principal")
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)
	items, err := h.service.ListForPrincipal(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "engagement list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(items)).InfoContext(r.Context(), "engagements listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEngagementsResponse{Engagements: toEngagementItemDTOs(items)})
}

type offerRequest struct {
	ApplicationID   string `json:"application_id"`
	DailyRate       int    `json:"daily_rate"`
	WorkDayCount    int    `json:"work_day_count"`
	ContractStart   string `json:"contract_start"`
	ContractEnd     string `json:"contract_end"`
	TermsText       string `json:"terms_text"`
	WithFee         bool   `json:"with_fee"`
	PaymentDeadline string `json:"payment_deadline"`
}

func (r offerRequest) toInput() (application.OfferInput, error) {
	contractStart, err := parseDateField(r.ContractStart)
	if err != nil {
		return application.OfferInput{}, err
	}
	contractEnd, err := parseDateField(r.ContractEnd)
	if err != nil {
		return application.OfferInput{}, err
	}
	paymentDeadline, err := parseDateField(r.PaymentDeadline)
	if err != nil {
		return application.OfferInput{}, err
	}
	return application.OfferInput{
		ApplicationID:   strings.TrimSpace(r.ApplicationID),
		DailyRate:       r.DailyRate,
		WorkDayCount:    r.WorkDayCount,
		ContractStart:   contractStart,
		ContractEnd:     contractEnd,
		TermsText:       strings.TrimSpace(r.TermsText),
		WithFee:         r.WithFee,
		PaymentDeadline: paymentDeadline,
	}, nil
}

type engagementDTO struct {
	ID                    string `json:"id"`
	ApplicationID         string `json:"application_id"`
	PharmacyID            string `json:"pharmacy_id"`
	PharmacistID          string `json:"pharmacist_id"`
	Status                string `json:"status"`
	DailyRate             int    `json:"daily_rate"`
	WorkDayCount          int    `json:"work_day_count"`
	TotalCompensation     int    `json:"total_compensation"`
	ContractStart         string `json:"contract_start"`
	ContractEnd           string `json:"contract_end"`
	TermsText             string `json:"terms_text,omitempty"`
	NoticeRef             string `json:"notice_ref,omitempty"`
	PersonalInfoDisclosed bool   `json:"personal_info_disclosed"`
	DisclosedAt           string `json:"disclosed_at,omitempty"`
	OfferSentAt           string `json:"offer_sent_at"`
	AcceptedAt            string `json:"accepted_at,omitempty"`
	RejectedAt            string `json:"rejected_at,omitempty"`
	RejectionReason       string `json:"rejection_reason,omitempty"`
}

type feeDTO struct {
	ID              string `json:"id"`
	EngagementID    string `json:"engagement_id"`
	Amount          int    `json:"amount"`
	Status          string `json:"status"`
	PaymentDeadline string `json:"payment_deadline"`
	PaidAt          string `json:"paid_at,omitempty"`
	InvoiceRef      string `json:"invoice_ref,omitempty"`
	CreatedAt       string `json:"created_at"`
}

type offerResponse struct {
	Engagement engagementDTO `json:"engagement"`
	Fee        *feeDTO       `json:"fee,omitempty"`
}

type engagementResponse struct {
	Engagement engagementDTO `json:"engagement"`
}

type acceptEngagementResponse struct {
	Engagement    engagementDTO `json:"engagement"`
	ShiftsCreated int           `json:"shifts_created"`
}

type engagementItemDTO struct {
	engagementDTO
	Pharmacist *identityDTO `json:"pharmacist,omitempty"`
}

type listEngagementsResponse struct {
	Engagements []engagementItemDTO `json:"engagements"`
}

func toEngagementDTO(engagement application.Engagement) engagementDTO {
	return engagementDTO{
		ID:                    engagement.ID,
		ApplicationID:         engagement.ApplicationID,
		PharmacyID:            engagement.PharmacyID,
		PharmacistID:          engagement.PharmacistID,
		Status:                string(engagement.Status),
		DailyRate:             engagement.DailyRate,
		WorkDayCount:          engagement.WorkDayCount,
		TotalCompensation:     engagement.TotalCompensation,
		ContractStart:         formatDateField(engagement.ContractStart),
		ContractEnd:           formatDateField(engagement.ContractEnd),
		TermsText:             engagement.TermsText,
		NoticeRef:             engagement.NoticeRef,
		PersonalInfoDisclosed: engagement.PersonalInfoDisclosed,
		DisclosedAt:           formatTimePtrField(engagement.DisclosedAt),
		OfferSentAt:           engagement.OfferSentAt.UTC().Format(time.RFC3339Nano),
		AcceptedAt:            formatTimePtrField(engagement.AcceptedAt),
		RejectedAt:            formatTimePtrField(engagement.RejectedAt),
		RejectionReason:       engagement.RejectionReason,
	}
}

func toFeeDTO(fee application.Fee) feeDTO {
	return feeDTO{
		ID:              fee.ID,
		EngagementID:    fee.EngagementID,
		Amount:          fee.Amount,
		Status:          string(fee.Status),
		PaymentDeadline: formatDateField(fee.PaymentDeadline),
		PaidAt:          formatTimePtrField(fee.PaidAt),
		InvoiceRef:      fee.InvoiceRef,
		CreatedAt:       fee.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toFeeDTOPtr(fee *application.Fee) *feeDTO {
	if fee == nil {
		return nil
	}
	dto := toFeeDTO(*fee)
	return &dto
}

func toEngagementItemDTOs(items []application.EngagementListItem) []engagementItemDTO {
	if len(items) == 0 {
		return nil
	}
	out := make([]engagementItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, engagementItemDTO{
			engagementDTO: toEngagementDTO(item.Engagement),
			Pharmacist:    toIdentityDTO(item.Pharmacist),
		})
	}
	return out
}
