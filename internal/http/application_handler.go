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

type applicationService interface {
	Apply(ctx context.Context, params application.ApplyParams) (application.Application, error)
	StartReview(ctx context.Context, params application.ApplicationDecisionParams) (application.Application, error)
	Accept(ctx context.Context, params application.ApplicationDecisionParams) (application.Application, error)
	Reject(ctx context.Context, params application.ApplicationDecisionParams) (application.Application, error)
	Withdraw(ctx context.Context, principal application.Principal, applicationID string) (application.Application, error)
	ListForPrincipal(ctx context.Context, principal application.Principal) ([]application.ApplicationListItem, error)
}

type ApplicationHandler struct {
	service   applicationService
	responder responder
	logger    *slog.Logger
}

func NewApplicationHandler(service applicationService, logger *slog.Logger) *ApplicationHandler {
	base := defaultLogger(logger)
	return &ApplicationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ApplicationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ApplicationHandler", operation, attrs...)
}

func (h *ApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode application request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "posting_id", req.PostingID)

	app, err := h.service.Apply(r.Context(), application.ApplyParams{
		Principal: principal,
		PostingID: strings.TrimSpace(req.PostingID),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "application failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("application_id", app.ID).InfoContext(r.Context(), "application created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, applicationResponse{Application: toApplicationDTO(app)})
}

func (h *ApplicationHandler) StartReview(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "StartReview")
}

func (h *ApplicationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "Accept")
}

func (h *ApplicationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "Reject")
}

// decide runs one of the pharmacy-side decision endpoints. The optional body
// carries a rejection reason; an absent body is accepted.
func (h *ApplicationHandler) decide(w http.ResponseWriter, r *http.Request, operation string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var fn func(context.Context, application.ApplicationDecisionParams) (application.Application, error)
	switch operation {
	case "StartReview":
		fn = h.service.StartReview
	case "Accept":
		fn = h.service.Accept
	default:
		fn = h.service.Reject
	}

	applicationID := strings.TrimSpace(r.PathValue("id"))
	if applicationID == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "missing application id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		h.log(r.Context(), operation, "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode decision request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), operation, "principal_id", principal.UserID, "application_id", applicationID)

	app, err := fn(r.Context(), application.ApplicationDecisionParams{
		Principal:     principal,
		ApplicationID: applicationID,
		Reason:        strings.TrimSpace(req.Reason),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "application decision failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", string(app.Status)).InfoContext(r.Context(), "application decision applied")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, applicationResponse{Application: toApplicationDTO(app)})
}

func (h *ApplicationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	applicationID := strings.TrimSpace(r.PathValue("id"))
	if applicationID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Withdraw", "principal_id", principal.UserID, "application_id", applicationID)

	app, err := h.service.Withdraw(r.Context(), principal, applicationID)
	if err != nil {
		logger.ErrorContext(r.Context(), "withdraw failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "application withdrawn")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, applicationResponse{Application: toApplicationDTO(app)})
}

func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
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
		logger.ErrorContext(r.Context(), "application list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(items)).InfoContext(r.Context(), "applications listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listApplicationsResponse{Applications: toApplicationItemDTOs(items)})
}

type applyRequest struct {
	PostingID string `json:"posting_id"`
}

type decisionRequest struct {
	Reason string `json:"reason"`
}

type applicationResponse struct {
	Application applicationDTO `json:"application"`
}

type listApplicationsResponse struct {
	Applications []applicationItemDTO `json:"applications"`
}

type applicationDTO struct {
	ID              string `json:"id"`
	PostingID       string `json:"posting_id"`
	PharmacistID    string `json:"pharmacist_id"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	AppliedAt       string `json:"applied_at"`
	ReviewedAt      string `json:"reviewed_at,omitempty"`
	DecisionAt      string `json:"decision_at,omitempty"`
}

type identityDTO struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

type applicationItemDTO struct {
	applicationDTO
	Pharmacist *identityDTO `json:"pharmacist,omitempty"`
}

func toApplicationDTO(app application.Application) applicationDTO {
	return applicationDTO{
		ID:              app.ID,
		PostingID:       app.PostingID,
		PharmacistID:    app.PharmacistID,
		Status:          string(app.Status),
		RejectionReason: app.RejectionReason,
		AppliedAt:       app.AppliedAt.UTC().Format(time.RFC3339Nano),
		ReviewedAt:      formatTimePtrField(app.ReviewedAt),
		DecisionAt:      formatTimePtrField(app.DecisionAt),
	}
}

func toIdentityDTO(identity application.DisplayIdentity) *identityDTO {
	if identity == (application.DisplayIdentity{}) {
		return nil
	}
	return &identityDTO{
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Phone:     identity.Phone,
		Email:     identity.Email,
	}
}

func toApplicationItemDTOs(items []application.ApplicationListItem) []applicationItemDTO {
	if len(items) == 0 {
		return nil
	}
	out := make([]applicationItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, applicationItemDTO{
			applicationDTO: toApplicationDTO(item.Application),
			Pharmacist:     toIdentityDTO(item.Pharmacist),
		})
	}
	return out
}

func formatTimePtrField(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
