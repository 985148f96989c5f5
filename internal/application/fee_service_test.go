package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/pharmacy-staffing/internal/persistence"
)

type feeRepoStub struct {
	fee        Fee
	confirmed  Fee
	transition FeeTransition
	list       []Fee
	getErr     error
	confirmErr error
	transErr   error
	listErr    error
}

func (f *feeRepoStub) GetFee(ctx context.Context, id string) (Fee, error) {
	if f.getErr != nil {
		return Fee{}, f.getErr
	}
	if f.fee.ID == "" {
		return Fee{}, persistence.ErrNotFound
	}
	return f.fee, nil
}

func (f *feeRepoStub) ConfirmFeePayment(ctx context.Context, feeID string, paidAt time.Time) (Fee, error) {
	if f.confirmErr != nil {
		return Fee{}, f.confirmErr
	}
	updated := f.fee
	updated.Status = FeePaid
	updated.PaidAt = &paidAt
	f.confirmed = updated
	return updated, nil
}

func (f *feeRepoStub) TransitionFee(ctx context.Context, transition FeeTransition) (Fee, error) {
	if f.transErr != nil {
		return Fee{}, f.transErr
	}
	f.transition = transition
	updated := f.fee
	updated.Status = transition.ToStatus
	return updated, nil
}

func (f *feeRepoStub) ListFeesByStatus(ctx context.Context, status FeeStatus) ([]Fee, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list, nil
}

func TestFeeService_ConfirmPayment(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin-1", Role: RolePharmacy, IsAdmin: true}
	pendingFee := Fee{ID: "fee-1", EngagementID: "eng-1", Amount: 240000, Status: FeePending, PaymentDeadline: jstDate(2025, 4, 15)}

	t.Run("marks the fee paid and notifies the pharmacy", func(t *testing.T) {
		fees := &feeRepoStub{fee: pendingFee}
		engagements := &engagementRepoStub{engagement: Engagement{ID: "eng-1", PharmacyID: "pharm-1", PharmacistID: "ph-1"}}
		notifier := &notifierStub{}
		svc := NewFeeService(fees, engagements, notifier, fixedNow(t), nil)

		fee, err := svc.ConfirmPayment(context.Background(), admin, "fee-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fee.Status != FeePaid {
			t.Fatalf("expected paid, got %s", fee.Status)
		}
		if fee.PaidAt == nil {
			t.Fatal("expected a paid timestamp")
		}
		if len(notifier.emitted) != 1 || notifier.emitted[0].notificationType != NotificationFeePaid {
			t.Fatalf("expected fee_payment_confirmed notification, got %+v", notifier.emitted)
		}
	})

	t.Run("requires an administrator", func(t *testing.T) {
		svc := NewFeeService(&feeRepoStub{fee: pendingFee}, &engagementRepoStub{}, &notifierStub{}, fixedNow(t), nil)

		_, err := svc.ConfirmPayment(context.Background(), Principal{UserID: "pharm-1", Role: RolePharmacy}, "fee-1")
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("second confirmation fails with invalid state", func(t *testing.T) {
		fees := &feeRepoStub{fee: pendingFee, confirmErr: persistence.ErrStaleStatus}
		svc := NewFeeService(fees, &engagementRepoStub{}, &notifierStub{}, fixedNow(t), nil)

		_, err := svc.ConfirmPayment(context.Background(), admin, "fee-1")
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("unknown fee fails with not found", func(t *testing.T) {
		fees := &feeRepoStub{confirmErr: persistence.ErrNotFound}
		svc := NewFeeService(fees, &engagementRepoStub{}, &notifierStub{}, fixedNow(t), nil)

		_, err := svc.ConfirmPayment(context.Background(), admin, "fee-9")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestFeeService_MarkOverdue(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin-1", Role: RolePharmacy, IsAdmin: true}

	t.Run("flags a pending fee past its deadline", func(t *testing.T) {
		fees := &feeRepoStub{fee: Fee{ID: "fee-1", Status: FeePending, PaymentDeadline: jstDate(2025, 3, 1)}}
		svc := NewFeeService(fees, &engagementRepoStub{}, &notifierStub{}, fixedNow(t), nil)

		fee, err := svc.MarkOverdue(context.Background(), admin, "fee-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fee.Status != FeeOverdue {
			t.Fatalf("expected overdue, got %s", fee.Status)
		}
		if len(fees.transition.FromStatuses) != 1 || fees.transition.FromStatuses[0] != FeePending {
			t.Fatalf("expected guard on pending, got %+v", fees.transition.FromStatuses)
		}
	})

	t.Run("refuses before the deadline passes", func(t *testing.T) {
		fees := &feeRepoStub{fee: Fee{ID: "fee-1", Status: FeePending, PaymentDeadline: jstDate(2025, 4, 15)}}
		svc := NewFeeService(fees, &engagementRepoStub{}, &notifierStub{}, fixedNow(t), nil)

		_, err := svc.MarkOverdue(context.Background(), admin, "fee-1")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestFeeService_Cancel(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: "admin-1", Role: RolePharmacy, IsAdmin: true}

	t.Run("cancels a pending fee", func(t *testing.T) {
		fees := &feeRepoStub{fee: Fee{ID: "fee-1", Status: FeePending}}
		svc := NewFeeService(fees, &engagementRepoStub{}, &notifierStub{}, fixedNow(t), nil)

		fee, err := svc.Cancel(context.Background(), admin, "fee-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fee.Status != FeeCancelled {
			t.Fatalf("expected cancelled, got %s", fee.Status)
		}
		if len(fees.transition.FromStatuses) != 1 || fees.transition.FromStatuses[0] != FeePending {
			t.Fatalf("expected guard on pending only, got %+v", fees.transition.FromStatuses)
		}
	})

	t.Run("paid and overdue fees cannot be cancelled", func(t *testing.T) {
		for _, status := range []FeeStatus{FeePaid, FeeOverdue} {
			fees := &feeRepoStub{fee: Fee{ID: "fee-1", Status: status}, transErr: persistence.ErrStaleStatus}
			svc := NewFeeService(fees, &engagementRepoStub{}, &notifierStub{}, fixedNow(t), nil)

			_, err := svc.Cancel(context.Background(), admin, "fee-1")
			if !errors.Is(err, ErrInvalidState) {
				t.Fatalf("expected ErrInvalidState for %s, got %v", status, err)
			}
		}
	})
}
