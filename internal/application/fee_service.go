package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// FeeTransition captures a status-guarded fee update.
type FeeTransition struct {
	FeeID        string
	FromStatuses []FeeStatus
	ToStatus     FeeStatus
}

// FeeRepository captures the persistence interactions needed by the service.
type FeeRepository interface {
	GetFee(ctx context.Context, id string) (Fee, error)
	// ConfirmFeePayment marks the fee paid and discloses the engagement's
	// pharmacist identity in the same unit of work.
	ConfirmFeePayment(ctx context.Context, feeID string, paidAt time.Time) (Fee, error)
	TransitionFee(ctx context.Context, transition FeeTransition) (Fee, error)
	ListFeesByStatus(ctx context.Context, status FeeStatus) ([]Fee, error)
}

// FeeService handles settlement of platform fees. All operations are
// operator-side and require an administrator principal.
type FeeService struct {
	fees        FeeRepository
	engagements EngagementRepository
	notifier    Notifier
	now         func() time.Time
	logger      *slog.Logger
}

// NewFeeService wires dependencies for fee operations.
func NewFeeService(fees FeeRepository, engagements EngagementRepository, notifier Notifier, now func() time.Time, logger *slog.Logger) *FeeService {
	if now == nil {
		now = time.Now
	}
	return &FeeService{
		fees:        fees,
		engagements: engagements,
		notifier:    notifier,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *FeeService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "FeeService", operation, attrs...)
}

// ConfirmPayment settles a pending fee. Payment confirmation is the only
// event that discloses the pharmacist's identity to the pharmacy, and the
// disclosure flip commits atomically with the fee update. Any other status,
// overdue included, fails with ErrInvalidState.
func (s *FeeService) ConfirmPayment(ctx context.Context, principal Principal, feeID string) (Fee, error) {
	if s == nil || s.fees == nil {
		return Fee{}, fmt.Errorf("fee repository not configured")
	}
	if err := principal.RequireAdmin(); err != nil {
		return Fee{}, err
	}

	logger := s.loggerWith(ctx, "ConfirmPayment", "fee_id", feeID)

	fee, err := s.fees.ConfirmFeePayment(ctx, feeID, s.now())
	if err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "payment confirmation failed", "error", err, "error_kind", ErrorKind(err))
		return Fee{}, err
	}

	logger.InfoContext(ctx, "fee payment confirmed", "engagement_id", fee.EngagementID)

	if s.engagements != nil {
		if engagement, gerr := s.engagements.GetEngagement(ctx, fee.EngagementID); gerr == nil {
			notify(ctx, logger, s.notifier, engagement.PharmacyID, NotificationFeePaid,
				"手数料の入金を確認しました", "応募者の連絡先情報が開示されました。", engagement.ID, "/engagements/"+engagement.ID)
		}
	}

	return fee, nil
}

// MarkOverdue flags a pending fee whose deadline has passed. The engagement
// itself is left untouched; an overdue fee never cancels a contract.
func (s *FeeService) MarkOverdue(ctx context.Context, principal Principal, feeID string) (Fee, error) {
	if s == nil || s.fees == nil {
		return Fee{}, fmt.Errorf("fee repository not configured")
	}
	if err := principal.RequireAdmin(); err != nil {
		return Fee{}, err
	}

	logger := s.loggerWith(ctx, "MarkOverdue", "fee_id", feeID)

	fee, err := s.fees.GetFee(ctx, feeID)
	if err != nil {
		return Fee{}, mapRepoError(err)
	}
	if !fee.PaymentDeadline.Before(s.now()) {
		vErr := &ValidationError{}
		vErr.add("payment_deadline", "payment deadline has not passed")
		return Fee{}, vErr
	}

	updated, err := s.fees.TransitionFee(ctx, FeeTransition{
		FeeID:        feeID,
		FromStatuses: []FeeStatus{FeePending},
		ToStatus:     FeeOverdue,
	})
	if err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "overdue transition failed", "error", err, "error_kind", ErrorKind(err))
		return Fee{}, err
	}

	logger.InfoContext(ctx, "fee marked overdue")
	return updated, nil
}

// Cancel voids a pending fee. Paid and overdue are terminal.
func (s *FeeService) Cancel(ctx context.Context, principal Principal, feeID string) (Fee, error) {
	if s == nil || s.fees == nil {
		return Fee{}, fmt.Errorf("fee repository not configured")
	}
	if err := principal.RequireAdmin(); err != nil {
		return Fee{}, err
	}

	logger := s.loggerWith(ctx, "Cancel", "fee_id", feeID)

	updated, err := s.fees.TransitionFee(ctx, FeeTransition{
		FeeID:        feeID,
		FromStatuses: []FeeStatus{FeePending},
		ToStatus:     FeeCancelled,
	})
	if err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "cancellation failed", "error", err, "error_kind", ErrorKind(err))
		return Fee{}, err
	}

	logger.InfoContext(ctx, "fee cancelled")
	return updated, nil
}

// ListByStatus returns fees in the given settlement state for operator review.
func (s *FeeService) ListByStatus(ctx context.Context, principal Principal, status FeeStatus) ([]Fee, error) {
	if s == nil || s.fees == nil {
		return nil, fmt.Errorf("fee repository not configured")
	}
	if err := principal.RequireAdmin(); err != nil {
		return nil, err
	}

	fees, err := s.fees.ListFeesByStatus(ctx, status)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return fees, nil
}
