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

type postingService interface {
	Create(ctx context.Context, params application.CreatePostingParams) (application.Posting, error)
	Close(ctx context.Context, principal application.Principal, postingID string) (application.Posting, error)
	ListOpen(ctx context.Context) ([]application.Posting, error)
	ListMine(ctx context.Context, principal application.Principal) ([]application.Posting, error)
	Get(ctx context.Context, postingID string) (application.Posting, error)
}

type PostingHandler struct {
	service   postingService
	responder responder
	logger    *slog.Logger
}

func NewPostingHandler(service postingService, logger *slog.Logger) *PostingHandler {
	base := defaultLogger(logger)
	return &PostingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *PostingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PostingHandler", operation, attrs...)
}

func (h *PostingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req postingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode posting request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "invalid posting payload", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	posting, err := h.service.Create(r.Context(), application.CreatePostingParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "posting creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("posting_id", posting.ID).InfoContext(r.Context(), "posting created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, postingResponse{Posting: toPostingDTO(posting)})
}

func (h *PostingHandler) Close(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	postingID := strings.TrimSpace(r.PathValue("id"))
	if postingID == "" {
		h.log(r.Context(), "Close", "error_kind", "bad_request").ErrorContext(r.Context(), "missing posting id for close")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Close", "principal_id", principal.UserID, "posting_id", postingID)

	posting, err := h.service.Close(r.Context(), principal, postingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "posting close failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "posting closed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, postingResponse{Posting: toPostingDTO(posting)})
}

func (h *PostingHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "ListOpen")
	postings, err := h.service.ListOpen(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "posting list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(postings)).InfoContext(r.Context(), "open postings listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listPostingsResponse{Postings: toPostingDTOs(postings)})
}

func (h *PostingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok || strings.TrimSpace(principal.UserID) == "" {
		h.log(r.Context(), "ListMine", "error_kind", "unauthorized").ErrorContext(r.Context(), "missing authenticated principal")
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	logger := h.log(r.Context(), "ListMine", "principal_id", principal.UserID)
	postings, err := h.service.ListMine(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "posting list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(postings)).InfoContext(r.Context(), "own postings listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listPostingsResponse{Postings: toPostingDTOs(postings)})
}

func (h *PostingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	postingID := strings.TrimSpace(r.PathValue("id"))
	if postingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	logger := h.log(r.Context(), "Get", "posting_id", postingID)
	posting, err := h.service.Get(r.Context(), postingID)
	if err != nil {
		logger.ErrorContext(r.Context(), "posting fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, postingResponse{Posting: toPostingDTO(posting)})
}

type postingRequest struct {
	Title        string `json:"title"`
	DailyRate    int    `json:"daily_rate"`
	Weekdays     []int  `json:"weekdays"`
	ShiftStart   string `json:"shift_start"`
	ShiftEnd     string `json:"shift_end"`
	BreakMinutes int    `json:"break_minutes"`
	PeriodStart  string `json:"period_start"`
	PeriodEnd    string `json:"period_end"`
}

func (r postingRequest) toInput() (application.PostingInput, error) {
	periodStart, err := parseDateField(r.PeriodStart)
	if err != nil {
		return application.PostingInput{}, err
	}
	periodEnd, err := parseDateField(r.PeriodEnd)
	if err != nil {
		return application.PostingInput{}, err
	}
	return application.PostingInput{
		Title:        strings.TrimSpace(r.Title),
		DailyRate:    r.DailyRate,
		Weekdays:     toWeekdays(r.Weekdays),
		ShiftStart:   strings.TrimSpace(r.ShiftStart),
		ShiftEnd:     strings.TrimSpace(r.ShiftEnd),
		BreakMinutes: r.BreakMinutes,
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
	}, nil
}

type postingResponse struct {
	Posting postingDTO `json:"posting"`
}

type listPostingsResponse struct {
	Postings []postingDTO `json:"postings"`
}

type postingDTO struct {
	ID             string `json:"id"`
	PharmacyID     string `json:"pharmacy_id"`
	Title          string `json:"title"`
	DailyRate      int    `json:"daily_rate"`
	Weekdays       []int  `json:"weekdays"`
	ShiftStart     string `json:"shift_start"`
	ShiftEnd       string `json:"shift_end"`
	BreakMinutes   int    `json:"break_minutes"`
	PeriodStart    string `json:"period_start"`
	PeriodEnd      string `json:"period_end"`
	Open           bool   `json:"open"`
	ApplicantCount int    `json:"applicant_count"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toPostingDTO(posting application.Posting) postingDTO {
	return postingDTO{
		ID:             posting.ID,
		PharmacyID:     posting.PharmacyID,
		Title:          posting.Title,
		DailyRate:      posting.DailyRate,
		Weekdays:       fromWeekdays(posting.Weekdays),
		ShiftStart:     posting.ShiftStart,
		ShiftEnd:       posting.ShiftEnd,
		BreakMinutes:   posting.BreakMinutes,
		PeriodStart:    formatDateField(posting.PeriodStart),
		PeriodEnd:      formatDateField(posting.PeriodEnd),
		Open:           posting.Open,
		ApplicantCount: posting.ApplicantCount,
		CreatedAt:      posting.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      posting.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toPostingDTOs(postings []application.Posting) []postingDTO {
	if len(postings) == 0 {
		return nil
	}
	out := make([]postingDTO, 0, len(postings))
	for _, posting := range postings {
		out = append(out, toPostingDTO(posting))
	}
	return out
}

const dateFieldLayout = "2006-01-02"

// parseDateField converts a YYYY-MM-DD payload field. Empty values map to the
// zero time so the service layer reports the missing field.
func parseDateField(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateFieldLayout, trimmed)
}

func formatDateField(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateFieldLayout)
}

func toWeekdays(values []int) []time.Weekday {
	if len(values) == 0 {
		return nil
	}
	out := make([]time.Weekday, 0, len(values))
	for _, v := range values {
		out = append(out, time.Weekday(v))
	}
	return out
}

func fromWeekdays(weekdays []time.Weekday) []int {
	if len(weekdays) == 0 {
		return nil
	}
	out := make([]int, 0, len(weekdays))
	for _, d := range weekdays {
		out = append(out, int(d))
	}
	return out
}
