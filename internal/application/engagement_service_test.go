package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/pharmacy-staffing/internal/persistence"
)

type engagementRepoStub struct {
	engagement   Engagement
	createdEng   Engagement
	createdFee   *Fee
	activatedID  string
	activatedRef string
	shifts       []WorkShift
	rejectedID   string
	list         []Engagement
	createErr    error
	getErr       error
	activateErr  error
	rejectErr    error
	listErr      error
}

func (e *engagementRepoStub) CreateEngagementWithFee(ctx context.Context, engagement Engagement, fee *Fee) error {
	if e.createErr != nil {
		return e.createErr
	}
	e.createdEng = engagement
	e.createdFee = fee
	return nil
}

func (e *engagementRepoStub) GetEngagement(ctx context.Context, id string) (Engagement, error) {
	if e.getErr != nil {
		return Engagement{}, e.getErr
	}
	if e.engagement.ID == "" {
		return Engagement{}, persistence.ErrNotFound
	}
	return e.engagement, nil
}

func (e *engagementRepoStub) ActivateEngagement(ctx context.Context, id string, acceptedAt time.Time, noticeRef string, shifts []WorkShift) (int, error) {
	if e.activateErr != nil {
		return 0, e.activateErr
	}
	e.activatedID = id
	e.activatedRef = noticeRef
	e.shifts = shifts
	return len(shifts), nil
}

func (e *engagementRepoStub) RejectEngagement(ctx context.Context, id string, rejectedAt time.Time, reason string) error {
	if e.rejectErr != nil {
		return e.rejectErr
	}
	e.rejectedID = id
	return nil
}

func (e *engagementRepoStub) ListEngagementsByPharmacy(ctx context.Context, pharmacyID string) ([]Engagement, error) {
	if e.listErr != nil {
		return nil, e.listErr
	}
	return e.list, nil
}

func (e *engagementRepoStub) ListEngagementsByPharmacist(ctx context.Context, pharmacistID string) ([]Engagement, error) {
	if e.listErr != nil {
		return nil, e.listErr
	}
	return e.list, nil
}

type feeWriterStub struct {
	feeID string
	ref   string
	err   error
}

func (f *feeWriterStub) SetInvoiceRef(ctx context.Context, feeID, invoiceRef string) error {
	if f.err != nil {
		return f.err
	}
	f.feeID = feeID
	f.ref = invoiceRef
	return nil
}

type documentsStub struct {
	noticeErr  error
	invoiceErr error
	notices    int
	invoices   int
}

func (d *documentsStub) GenerateNotice(ctx context.Context, data NoticeData) (NoticeDocument, error) {
	if d.noticeErr != nil {
		return NoticeDocument{}, d.noticeErr
	}
	d.notices++
	return NoticeDocument{TextBody: "notice", FileRef: "notice-ref"}, nil
}

func (d *documentsStub) GenerateInvoice(ctx context.Context, data InvoiceData) (string, error) {
	if d.invoiceErr != nil {
		return "", d.invoiceErr
	}
	d.invoices++
	return "invoice-ref", nil
}

type mailStub struct {
	sent int
	to   string
	err  error
}

func (m *mailStub) SendInvoiceIssued(ctx context.Context, to string, fee Fee, deadline time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.sent++
	m.to = to
	return nil
}

func jstDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.FixedZone("JST", 9*60*60))
}

func validOfferInput() OfferInput {
	return OfferInput{
		ApplicationID:   "app-1",
		DailyRate:       30000,
		WorkDayCount:    20,
		ContractStart:   jstDate(2025, 4, 1),
		ContractEnd:     jstDate(2025, 5, 30),
		TermsText:       "標準契約条件",
		WithFee:         true,
		PaymentDeadline: jstDate(2025, 4, 15),
	}
}

type engagementFixture struct {
	engagements *engagementRepoStub
	apps        *applicationRepoStub
	fees        *feeWriterStub
	docs        *documentsStub
	mail        *mailStub
	notifier    *notifierStub
	svc         *EngagementService
}

func newEngagementFixture(t *testing.T) *engagementFixture {
	t.Helper()
	f := &engagementFixture{
		engagements: &engagementRepoStub{},
		apps: &applicationRepoStub{app: Application{
			ID: "app-1", PostingID: "post-1", PharmacistID: "ph-1", Status: ApplicationAccepted,
		}},
		fees:     &feeWriterStub{},
		docs:     &documentsStub{},
		mail:     &mailStub{},
		notifier: &notifierStub{},
	}
	f.svc = NewEngagementService(EngagementServiceConfig{
		Engagements:  f.engagements,
		Applications: f.apps,
		Postings: &postingCatalogStub{posting: Posting{
			ID: "post-1", PharmacyID: "pharm-1", Open: true,
			Weekdays:   []time.Weekday{time.Monday, time.Wednesday},
			ShiftStart: "09:00", ShiftEnd: "18:00", BreakMinutes: 60,
		}},
		Fees:       f.fees,
		Identities: &identityStub{pharmacy: PharmacyProfile{Name: "さくら薬局", Email: "sakura@example.com"}},
		Documents:  f.docs,
		Mail:       f.mail,
		Notifier:   f.notifier,
		FeeRate:    0.40,
		IDGenerator: sequenceIDs("eng-1", "fee-1", "shift-1", "shift-2", "shift-3", "shift-4",
			"shift-5", "shift-6", "shift-7", "shift-8", "shift-9", "shift-10",
			"shift-11", "shift-12", "shift-13", "shift-14", "shift-15", "shift-16", "shift-17", "shift-18"),
		Now: fixedNow(t),
	})
	return f
}

func TestEngagementService_Offer(t *testing.T) {
	t.Parallel()

	pharmacy := Principal{UserID: "pharm-1", Role: RolePharmacy}

	t.Run("derives total compensation and fee amount", func(t *testing.T) {
		f := newEngagementFixture(t)

		result, err := f.svc.Offer(context.Background(), OfferParams{Principal: pharmacy, Input: validOfferInput()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Engagement.TotalCompensation != 600000 {
			t.Fatalf("expected total 600000, got %d", result.Engagement.TotalCompensation)
		}
		if result.Fee == nil {
			t.Fatal("expected a fee for a with-fee offer")
		}
		if result.Fee.Amount != 240000 {
			t.Fatalf("expected fee 240000 at 40%%, got %d", result.Fee.Amount)
		}
		if result.Fee.Status != FeePending {
			t.Fatalf("expected pending fee, got %s", result.Fee.Status)
		}
		if f.docs.invoices != 1 {
			t.Fatalf("expected one invoice render, got %d", f.docs.invoices)
		}
		if f.mail.to != "sakura@example.com" {
			t.Fatalf("invoice mail should target the pharmacy, got %q", f.mail.to)
		}
		if f.fees.ref != "invoice-ref" {
			t.Fatalf("expected invoice reference recorded, got %q", f.fees.ref)
		}
		if len(f.notifier.emitted) != 1 || f.notifier.emitted[0].notificationType != NotificationOfferReceived {
			t.Fatalf("expected offer_received notification, got %+v", f.notifier.emitted)
		}
	})

	t.Run("skips fee for direct offers", func(t *testing.T) {
		f := newEngagementFixture(t)
		input := validOfferInput()
		input.WithFee = false
		input.PaymentDeadline = time.Time{}

		result, err := f.svc.Offer(context.Background(), OfferParams{Principal: pharmacy, Input: input})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Fee != nil {
			t.Fatalf("expected no fee, got %+v", result.Fee)
		}
		if f.docs.invoices != 0 || f.mail.sent != 0 {
			t.Fatal("no invoice artifacts expected for a direct offer")
		}
	})

	t.Run("rejects terms below the floor", func(t *testing.T) {
		f := newEngagementFixture(t)
		input := validOfferInput()
		input.DailyRate = 19999
		input.WorkDayCount = 5

		_, err := f.svc.Offer(context.Background(), OfferParams{Principal: pharmacy, Input: input})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["daily_rate"]; !ok {
			t.Fatalf("expected daily_rate error, got %+v", vErr.FieldErrors)
		}
		if _, ok := vErr.FieldErrors["work_day_count"]; !ok {
			t.Fatalf("expected work_day_count error, got %+v", vErr.FieldErrors)
		}
	})

	t.Run("requires a payment deadline for with-fee offers", func(t *testing.T) {
		f := newEngagementFixture(t)
		input := validOfferInput()
		input.PaymentDeadline = time.Time{}

		_, err := f.svc.Offer(context.Background(), OfferParams{Principal: pharmacy, Input: input})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("promotes an application still in review", func(t *testing.T) {
		f := newEngagementFixture(t)
		f.apps.app.Status = ApplicationUnderReview

		_, err := f.svc.Offer(context.Background(), OfferParams{Principal: pharmacy, Input: validOfferInput()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.apps.transition.ToStatus != ApplicationAccepted {
			t.Fatalf("expected promotion to accepted, got %+v", f.apps.transition)
		}
	})

	t.Run("refuses terminal applications", func(t *testing.T) {
		f := newEngagementFixture(t)
		f.apps.app.Status = ApplicationRejected

		_, err := f.svc.Offer(context.Background(), OfferParams{Principal: pharmacy, Input: validOfferInput()})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("maps a duplicate active offer to conflict", func(t *testing.T) {
		f := newEngagementFixture(t)
		f.engagements.createErr = persistence.ErrDuplicate

		_, err := f.svc.Offer(context.Background(), OfferParams{Principal: pharmacy, Input: validOfferInput()})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("denies a pharmacy that does not own the posting", func(t *testing.T) {
		f := newEngagementFixture(t)

		_, err := f.svc.Offer(context.Background(), OfferParams{Principal: Principal{UserID: "pharm-2", Role: RolePharmacy}, Input: validOfferInput()})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("invoice failure does not undo the offer", func(t *testing.T) {
		f := newEngagementFixture(t)
		f.docs.invoiceErr = errors.New("renderer down")

		result, err := f.svc.Offer(context.Background(), OfferParams{Principal: pharmacy, Input: validOfferInput()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Fee == nil || result.Fee.InvoiceRef != "" {
			t.Fatalf("expected fee without invoice ref, got %+v", result.Fee)
		}
	})
}

func TestEngagementService_Accept(t *testing.T) {
	t.Parallel()

	pharmacist := Principal{UserID: "ph-1", Role: RolePharmacist}
	pending := Engagement{
		ID: "eng-1", ApplicationID: "app-1", PharmacyID: "pharm-1", PharmacistID: "ph-1",
		Status:        EngagementPending,
		ContractStart: jstDate(2025, 3, 3), ContractEnd: jstDate(2025, 3, 14),
	}

	t.Run("materializes shifts for matching weekdays", func(t *testing.T) {
		f := newEngagementFixture(t)
		f.engagements.engagement = pending

		result, err := f.svc.Accept(context.Background(), EngagementDecisionParams{Principal: pharmacist, EngagementID: "eng-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Mondays and Wednesdays between 2025-03-03 and 2025-03-14.
		if result.ShiftsCreated != 4 {
			t.Fatalf("expected 4 shifts, got %d", result.ShiftsCreated)
		}
		if result.Engagement.Status != EngagementActive {
			t.Fatalf("expected active engagement, got %s", result.Engagement.Status)
		}
		if result.Engagement.NoticeRef != "notice-ref" {
			t.Fatalf("expected notice reference, got %q", result.Engagement.NoticeRef)
		}
		for _, shift := range f.engagements.shifts {
			if shift.StartTime != "09:00" || shift.EndTime != "18:00" || shift.BreakMinutes != 60 {
				t.Fatalf("shift should inherit posting times: %+v", shift)
			}
		}
		if len(f.notifier.emitted) != 1 || f.notifier.emitted[0].recipientID != "pharm-1" {
			t.Fatalf("expected acceptance notification to the pharmacy, got %+v", f.notifier.emitted)
		}
	})

	t.Run("notice failure degrades to an empty reference", func(t *testing.T) {
		f := newEngagementFixture(t)
		f.engagements.engagement = pending
		f.docs.noticeErr = errors.New("renderer down")

		result, err := f.svc.Accept(context.Background(), EngagementDecisionParams{Principal: pharmacist, EngagementID: "eng-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Engagement.NoticeRef != "" {
			t.Fatalf("expected empty notice ref, got %q", result.Engagement.NoticeRef)
		}
		if result.ShiftsCreated != 4 {
			t.Fatalf("shift materialization must proceed, got %d", result.ShiftsCreated)
		}
	})

	t.Run("denies another pharmacist", func(t *testing.T) {
		f := newEngagementFixture(t)
		f.engagements.engagement = pending

		_, err := f.svc.Accept(context.Background(), EngagementDecisionParams{Principal: Principal{UserID: "ph-2", Role: RolePharmacist}, EngagementID: "eng-1"})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("refuses non-pending engagements", func(t *testing.T) {
		f := newEngagementFixture(t)
		active := pending
		active.Status = EngagementActive
		f.engagements.engagement = active

		_, err := f.svc.Accept(context.Background(), EngagementDecisionParams{Principal: pharmacist, EngagementID: "eng-1"})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("maps a lost activation race to invalid state", func(t *testing.T) {
		f := newEngagementFixture(t)
		f.engagements.engagement = pending
		f.engagements.activateErr = persistence.ErrStaleStatus

		_, err := f.svc.Accept(context.Background(), EngagementDecisionParams{Principal: pharmacist, EngagementID: "eng-1"})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})
}

func TestEngagementService_Reject(t *testing.T) {
	t.Parallel()

	pharmacist := Principal{UserID: "ph-1", Role: RolePharmacist}
	pending := Engagement{
		ID: "eng-1", ApplicationID: "app-1", PharmacyID: "pharm-1", PharmacistID: "ph-1",
		Status: EngagementPending,
	}

	t.Run("records the rejection and notifies the pharmacy", func(t *testing.T) {
		f := newEngagementFixture(t)
		f.engagements.engagement = pending

		rejected, err := f.svc.Reject(context.Background(), EngagementDecisionParams{Principal: pharmacist, EngagementID: "eng-1", Reason: "条件が合わないため"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rejected.Status != EngagementRejected {
			t.Fatalf("expected rejected, got %s", rejected.Status)
		}
		if rejected.RejectionReason != "条件が合わないため" {
			t.Fatalf("expected reason to carry through, got %q", rejected.RejectionReason)
		}
		if len(f.notifier.emitted) != 1 || f.notifier.emitted[0].notificationType != NotificationOfferRejected {
			t.Fatalf("expected offer_rejected notification, got %+v", f.notifier.emitted)
		}
	})

	t.Run("maps a lost rejection race to invalid state", func(t *testing.T) {
		f := newEngagementFixture(t)
		f.engagements.engagement = pending
		f.engagements.rejectErr = persistence.ErrStaleStatus

		_, err := f.svc.Reject(context.Background(), EngagementDecisionParams{Principal: pharmacist, EngagementID: "eng-1"})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})
}

func TestEngagementService_ListForPrincipal(t *testing.T) {
	t.Parallel()

	f := newEngagementFixture(t)
	f.engagements.list = []Engagement{
		{ID: "eng-1", PharmacyID: "pharm-1", PharmacistID: "ph-1", PersonalInfoDisclosed: false},
		{ID: "eng-2", PharmacyID: "pharm-1", PharmacistID: "ph-2", PersonalInfoDisclosed: true},
	}

	items, err := f.svc.ListForPrincipal(context.Background(), Principal{UserID: "pharm-1", Role: RolePharmacy})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Pharmacist.Phone != maskedPhone {
		t.Fatalf("undisclosed engagement must mask the phone, got %q", items[0].Pharmacist.Phone)
	}
	if items[1].Pharmacist.Phone == maskedPhone {
		t.Fatal("disclosed engagement must pass the phone through")
	}
}
