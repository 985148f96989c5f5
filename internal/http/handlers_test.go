package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/pharmacy-staffing/internal/application"
)

type authServiceStub struct {
	result application.AuthenticateResult
	err    error

	revokedToken string
	revokeErr    error
}

func (s *authServiceStub) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	if s.err != nil {
		return application.AuthenticateResult{}, s.err
	}
	return s.result, nil
}

func (s *authServiceStub) RevokeSession(ctx context.Context, token string) error {
	s.revokedToken = token
	return s.revokeErr
}

type postingServiceStub struct {
	posting application.Posting
	err     error
}

func (s *postingServiceStub) Create(ctx context.Context, params application.CreatePostingParams) (application.Posting, error) {
	if s.err != nil {
		return application.Posting{}, s.err
	}
	return s.posting, nil
}

func (s *postingServiceStub) Close(ctx context.Context, principal application.Principal, postingID string) (application.Posting, error) {
	if s.err != nil {
		return application.Posting{}, s.err
	}
	return s.posting, nil
}

func (s *postingServiceStub) ListOpen(ctx context.Context) ([]application.Posting, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []application.Posting{s.posting}, nil
}

func (s *postingServiceStub) ListMine(ctx context.Context, principal application.Principal) ([]application.Posting, error) {
	return s.ListOpen(ctx)
}

func (s *postingServiceStub) Get(ctx context.Context, postingID string) (application.Posting, error) {
	if s.err != nil {
		return application.Posting{}, s.err
	}
	return s.posting, nil
}

type engagementServiceStub struct {
	offerResult  application.OfferResult
	acceptResult application.AcceptEngagementResult
	engagement   application.Engagement
	items        []application.EngagementListItem
	err          error

	lastOffer application.OfferParams
}

func (s *engagementServiceStub) Offer(ctx context.Context, params application.OfferParams) (application.OfferResult, error) {
	s.lastOffer = params
	if s.err != nil {
		return application.OfferResult{}, s.err
	}
	return s.offerResult, nil
}

func (s *engagementServiceStub) Accept(ctx context.Context, params application.EngagementDecisionParams) (application.AcceptEngagementResult, error) {
	if s.err != nil {
		return application.AcceptEngagementResult{}, s.err
	}
	return s.acceptResult, nil
}

func (s *engagementServiceStub) Reject(ctx context.Context, params application.EngagementDecisionParams) (application.Engagement, error) {
	if s.err != nil {
		return application.Engagement{}, s.err
	}
	return s.engagement, nil
}

func (s *engagementServiceStub) ListForPrincipal(ctx context.Context, principal application.Principal) ([]application.EngagementListItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

type feeServiceStub struct {
	fee application.Fee
	err error
}

func (s *feeServiceStub) ConfirmPayment(ctx context.Context, principal application.Principal, feeID string) (application.Fee, error) {
	if s.err != nil {
		return application.Fee{}, s.err
	}
	return s.fee, nil
}

func (s *feeServiceStub) MarkOverdue(ctx context.Context, principal application.Principal, feeID string) (application.Fee, error) {
	return s.ConfirmPayment(ctx, principal, feeID)
}

func (s *feeServiceStub) Cancel(ctx context.Context, principal application.Principal, feeID string) (application.Fee, error) {
	return s.ConfirmPayment(ctx, principal, feeID)
}

func (s *feeServiceStub) ListByStatus(ctx context.Context, principal application.Principal, status application.FeeStatus) ([]application.Fee, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []application.Fee{s.fee}, nil
}

type notificationServiceStub struct {
	notifications []application.Notification
	readID        string
	err           error
}

func (s *notificationServiceStub) ListForPrincipal(ctx context.Context, principal application.Principal) ([]application.Notification, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.notifications, nil
}

func (s *notificationServiceStub) MarkRead(ctx context.Context, principal application.Principal, notificationID string) error {
	s.readID = notificationID
	return s.err
}

func withPrincipal(r *http.Request, principal application.Principal) *http.Request {
	return r.WithContext(ContextWithPrincipal(r.Context(), principal))
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(recorder.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func TestAuthHandlerCreateSession(t *testing.T) {
	t.Parallel()

	expires := time.Date(2025, time.March, 15, 9, 0, 0, 0, time.UTC)
	service := &authServiceStub{result: application.AuthenticateResult{
		Account: application.Account{ID: "pharm-1", Role: application.RolePharmacy, Email: "sakura@example.com"},
		Session: application.Session{Token: "token-1", ExpiresAt: expires},
	}}
	handler := NewAuthHandler(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"email":"Sakura@Example.com","password":"secret"}`))
	recorder := httptest.NewRecorder()
	handler.CreateSession(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", recorder.Code)
	}
	if got := recorder.Header().Get("X-Session-Token"); got != "token-1" {
		t.Fatalf("expected token header, got %q", got)
	}

	var resp loginResponse
	decodeBody(t, recorder, &resp)
	if resp.Token != "token-1" || resp.Account.ID != "pharm-1" || resp.Account.Role != "pharmacy" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	cookies := recorder.Result().Cookies()
	found := false
	for _, cookie := range cookies {
		if cookie.Name == "session_token" && cookie.Value == "token-1" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected session cookie to be set")
	}
}

func TestAuthHandlerRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	service := &authServiceStub{err: application.ErrInvalidCredentials}
	handler := NewAuthHandler(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"email":"a@b.c","password":"wrong"}`))
	recorder := httptest.NewRecorder()
	handler.CreateSession(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	var resp errorResponse
	decodeBody(t, recorder, &resp)
	if resp.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
		t.Fatalf("unexpected error code %q", resp.ErrorCode)
	}
}

func TestRequireSessionMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("rejects requests without a token", func(t *testing.T) {
		t.Parallel()

		handler := RequireSession(fakeSessionValidator{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not be called without credentials")
		}))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/postings", nil))

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
	})

	t.Run("maps expired sessions to 401 with error code", func(t *testing.T) {
		t.Parallel()

		handler := RequireSession(fakeSessionValidator{err: application.ErrSessionExpired}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not be called for an expired session")
		}))

		req := httptest.NewRequest(http.MethodGet, "/postings", nil)
		req.Header.Set("Authorization", "Bearer stale-token")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
		var resp errorResponse
		decodeBody(t, recorder, &resp)
		if resp.ErrorCode != "AUTH_SESSION_EXPIRED" {
			t.Fatalf("unexpected error code %q", resp.ErrorCode)
		}
	})

	t.Run("injects the principal for downstream handlers", func(t *testing.T) {
		t.Parallel()

		principal := application.Principal{UserID: "ph-1", Role: application.RolePharmacist}
		var captured application.Principal
		handler := RequireSession(fakeSessionValidator{principal: principal}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured, _ = PrincipalFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/postings", nil)
		req.AddCookie(&http.Cookie{Name: "session_token", Value: "valid-token"})
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if captured != principal {
			t.Fatalf("expected principal %+v, got %+v", principal, captured)
		}
	})
}

type fakeSessionValidator struct {
	principal application.Principal
	err       error
}

func (f fakeSessionValidator) ValidateSession(ctx context.Context, token string) (application.Principal, error) {
	return f.principal, f.err
}

func TestPostingHandlerValidationErrorsAreLocalized(t *testing.T) {
	t.Parallel()

	vErr := &application.ValidationError{FieldErrors: map[string]string{
		"title":     "title is required",
		"daily_rate": "daily rate is below the minimum",
	}}
	handler := NewPostingHandler(&postingServiceStub{err: vErr}, nil)

	req := httptest.NewRequest(http.MethodPost, "/postings", strings.NewReader(`{"title":""}`))
	req = withPrincipal(req, application.Principal{UserID: "pharm-1", Role: application.RolePharmacy})
	recorder := httptest.NewRecorder()
	handler.Create(recorder, req)

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", recorder.Code)
	}
	var resp errorResponse
	decodeBody(t, recorder, &resp)
	if resp.Errors["title"] != "タイトルは必須です。" {
		t.Fatalf("expected localized title message, got %q", resp.Errors["title"])
	}
	if resp.Errors["daily_rate"] != "日給は最低額以上で指定してください。" {
		t.Fatalf("expected localized rate message, got %q", resp.Errors["daily_rate"])
	}
}

func TestEngagementHandlerOffer(t *testing.T) {
	t.Parallel()

	deadline := time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC)
	service := &engagementServiceStub{offerResult: application.OfferResult{
		Engagement: application.Engagement{
			ID:                "eng-1",
			ApplicationID:     "app-1",
			Status:            application.EngagementPending,
			DailyRate:         30000,
			WorkDayCount:      20,
			TotalCompensation: 600000,
		},
		Fee: &application.Fee{ID: "fee-1", EngagementID: "eng-1", Amount: 240000, Status: application.FeePending, PaymentDeadline: deadline},
	}}
	handler := NewEngagementHandler(service, nil)

	body := `{"application_id":"app-1","daily_rate":30000,"work_day_count":20,"contract_start":"2025-04-01","contract_end":"2025-05-30","with_fee":true,"payment_deadline":"2025-04-30"}`
	req := httptest.NewRequest(http.MethodPost, "/engagements", strings.NewReader(body))
	req = withPrincipal(req, application.Principal{UserID: "pharm-1", Role: application.RolePharmacy})
	recorder := httptest.NewRecorder()
	handler.Create(recorder, req)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
	}

	if got := service.lastOffer.Input.ContractStart; !got.Equal(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("contract start not parsed: %v", got)
	}
	if !service.lastOffer.Input.WithFee {
		t.Fatal("expected fee flag to be forwarded")
	}

	var resp offerResponse
	decodeBody(t, recorder, &resp)
	if resp.Fee == nil || resp.Fee.Amount != 240000 || resp.Fee.PaymentDeadline != "2025-04-30" {
		t.Fatalf("unexpected fee payload: %+v", resp.Fee)
	}
	if resp.Engagement.TotalCompensation != 600000 {
		t.Fatalf("unexpected engagement payload: %+v", resp.Engagement)
	}
}

func TestEngagementHandlerMapsConflict(t *testing.T) {
	t.Parallel()

	handler := NewEngagementHandler(&engagementServiceStub{err: application.ErrConflict}, nil)

	body := `{"application_id":"app-1","daily_rate":30000,"work_day_count":20,"contract_start":"2025-04-01","contract_end":"2025-05-30"}`
	req := httptest.NewRequest(http.MethodPost, "/engagements", strings.NewReader(body))
	req = withPrincipal(req, application.Principal{UserID: "pharm-1", Role: application.RolePharmacy})
	recorder := httptest.NewRecorder()
	handler.Create(recorder, req)

	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", recorder.Code)
	}
}

func TestFeeHandlerForbiddenForNonAdmins(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Fees: NewFeeHandler(&feeServiceStub{err: application.ErrForbidden}, nil)})

	req := httptest.NewRequest(http.MethodPost, "/fees/fee-1/confirm", nil)
	req = withPrincipal(req, application.Principal{UserID: "pharm-1", Role: application.RolePharmacy})
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", recorder.Code)
	}
	var resp errorResponse
	decodeBody(t, recorder, &resp)
	if resp.ErrorCode != "AUTH_FORBIDDEN" {
		t.Fatalf("unexpected error code %q", resp.ErrorCode)
	}
}

func TestFeeHandlerListRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{Fees: NewFeeHandler(&feeServiceStub{}, nil)})

	req := httptest.NewRequest(http.MethodGet, "/fees?status=bogus", nil)
	req = withPrincipal(req, application.Principal{UserID: "admin-1", IsAdmin: true, Role: application.RolePharmacy})
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestNotificationHandlerMarkRead(t *testing.T) {
	t.Parallel()

	service := &notificationServiceStub{}
	router := NewRouter(RouterConfig{Notifications: NewNotificationHandler(service, nil)})

	req := httptest.NewRequest(http.MethodPost, "/notifications/n-1/read", nil)
	req = withPrincipal(req, application.Principal{UserID: "ph-1", Role: application.RolePharmacist})
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", recorder.Code)
	}
	if service.readID != "n-1" {
		t.Fatalf("expected notification id from path, got %q", service.readID)
	}
}

func TestRouterDispatchesNestedShiftRoutes(t *testing.T) {
	t.Parallel()

	engagements := &engagementServiceStub{acceptResult: application.AcceptEngagementResult{
		Engagement:    application.Engagement{ID: "eng-1", Status: application.EngagementActive, OfferSentAt: time.Now()},
		ShiftsCreated: 4,
	}}
	router := NewRouter(RouterConfig{Engagements: NewEngagementHandler(engagements, nil)})

	req := httptest.NewRequest(http.MethodPost, "/engagements/eng-1/accept", nil)
	req = withPrincipal(req, application.Principal{UserID: "ph-1", Role: application.RolePharmacist})
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var resp acceptEngagementResponse
	decodeBody(t, recorder, &resp)
	if resp.ShiftsCreated != 4 {
		t.Fatalf("expected shift count in payload, got %+v", resp)
	}
}
