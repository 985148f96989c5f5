package application

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/example/pharmacy-staffing/internal/recurrence"
)

// Offer validation bounds. The minimum daily rate and work-day range apply to
// every offer, with or without a fee.
const (
	minDailyRate = 20000
	minWorkDays  = 10
	maxWorkDays  = 90
)

// EngagementRepository captures the persistence interactions needed by the service.
type EngagementRepository interface {
	CreateEngagementWithFee(ctx context.Context, engagement Engagement, fee *Fee) error
	GetEngagement(ctx context.Context, id string) (Engagement, error)
	ActivateEngagement(ctx context.Context, id string, acceptedAt time.Time, noticeRef string, shifts []WorkShift) (int, error)
	RejectEngagement(ctx context.Context, id string, rejectedAt time.Time, reason string) error
	ListEngagementsByPharmacy(ctx context.Context, pharmacyID string) ([]Engagement, error)
	ListEngagementsByPharmacist(ctx context.Context, pharmacistID string) ([]Engagement, error)
}

// FeeWriter records invoice references produced after fee creation.
type FeeWriter interface {
	SetInvoiceRef(ctx context.Context, feeID, invoiceRef string) error
}

// EngagementService orchestrates the offer/accept/reject contract lifecycle.
type EngagementService struct {
	engagements  EngagementRepository
	applications ApplicationRepository
	postings     PostingCatalog
	fees         FeeWriter
	identities   IdentityDirectory
	documents    DocumentGenerator
	mail         EmailSender
	notifier     Notifier
	recurrence   *recurrence.Engine
	feeRate      float64
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// EngagementServiceConfig wires dependencies for engagement operations.
type EngagementServiceConfig struct {
	Engagements  EngagementRepository
	Applications ApplicationRepository
	Postings     PostingCatalog
	Fees         FeeWriter
	Identities   IdentityDirectory
	Documents    DocumentGenerator
	Mail         EmailSender
	Notifier     Notifier
	Recurrence   *recurrence.Engine
	FeeRate      float64
	IDGenerator  func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewEngagementService constructs an EngagementService.
func NewEngagementService(cfg EngagementServiceConfig) *EngagementService {
	idGenerator := cfg.IDGenerator
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	feeRate := cfg.FeeRate
	if feeRate <= 0 {
		feeRate = 0.40
	}
	engine := cfg.Recurrence
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	return &EngagementService{
		engagements:  cfg.Engagements,
		applications: cfg.Applications,
		postings:     cfg.Postings,
		fees:         cfg.Fees,
		identities:   cfg.Identities,
		documents:    cfg.Documents,
		mail:         cfg.Mail,
		notifier:     cfg.Notifier,
		recurrence:   engine,
		feeRate:      feeRate,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(cfg.Logger),
	}
}

func (s *EngagementService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EngagementService", operation, attrs...)
}

// Offer issues a contract offer for an accepted application. When the input
// requests a fee, the fee row is created in the same unit of work and the
// invoice is generated and mailed best-effort afterwards.
func (s *EngagementService) Offer(ctx context.Context, params OfferParams) (OfferResult, error) {
	if s == nil || s.engagements == nil {
		return OfferResult{}, fmt.Errorf("engagement repository not configured")
	}

	actor, err := params.Principal.AsPharmacy()
	if err != nil {
		return OfferResult{}, err
	}

	input := params.Input
	logger := s.loggerWith(ctx, "Offer", "application_id", input.ApplicationID)

	if vErr := validateOfferInput(input); vErr.HasErrors() {
		return OfferResult{}, vErr
	}

	app, err := s.applications.GetApplication(ctx, input.ApplicationID)
	if err != nil {
		return OfferResult{}, mapRepoError(err)
	}

	posting, err := s.postings.GetPosting(ctx, app.PostingID)
	if err != nil {
		return OfferResult{}, mapRepoError(err)
	}
	if posting.PharmacyID != actor.PharmacyID {
		return OfferResult{}, ErrForbidden
	}

	// An offer against an application still in review promotes it to
	// accepted in the same call.
	switch app.Status {
	case ApplicationAccepted:
	case ApplicationPending, ApplicationUnderReview:
		now := s.now()
		app, err = s.applications.TransitionApplication(ctx, ApplicationTransition{
			ApplicationID: app.ID,
			FromStatuses:  []ApplicationStatus{ApplicationPending, ApplicationUnderReview},
			ToStatus:      ApplicationAccepted,
			DecisionAt:    &now,
		})
		if err != nil {
			return OfferResult{}, mapRepoError(err)
		}
	default:
		return OfferResult{}, ErrInvalidState
	}

	now := s.now()
	engagement := Engagement{
		ID:            s.idGenerator(),
		ApplicationID: app.ID,
		PharmacyID:    actor.PharmacyID,
		PharmacistID:  app.PharmacistID,
		Status:        EngagementPending,
		DailyRate:     input.DailyRate,
		WorkDayCount:  input.WorkDayCount,
		// Derived, never caller supplied.
		TotalCompensation: input.DailyRate * input.WorkDayCount,
		ContractStart:     input.ContractStart,
		ContractEnd:       input.ContractEnd,
		TermsText:         input.TermsText,
		OfferSentAt:       now,
	}

	var fee *Fee
	if input.WithFee {
		fee = &Fee{
			ID:              s.idGenerator(),
			EngagementID:    engagement.ID,
			Amount:          int(math.Floor(float64(engagement.TotalCompensation) * s.feeRate)),
			Status:          FeePending,
			PaymentDeadline: input.PaymentDeadline,
			CreatedAt:       now,
		}
	}

	if err := s.engagements.CreateEngagementWithFee(ctx, engagement, fee); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to create engagement", "error", err, "error_kind", ErrorKind(err))
		return OfferResult{}, err
	}

	logger.InfoContext(ctx, "offer issued", "engagement_id", engagement.ID, "with_fee", fee != nil)

	if fee != nil {
		s.issueInvoice(ctx, logger, fee, engagement)
	}

	notify(ctx, logger, s.notifier, engagement.PharmacistID, NotificationOfferReceived,
		"雇用契約のオファーが届きました", "契約条件をご確認のうえ、承諾または辞退を選択してください。",
		engagement.ID, "/engagements/"+engagement.ID)

	return OfferResult{Engagement: engagement, Fee: fee}, nil
}

// issueInvoice renders the invoice document and mails it to the pharmacy.
// Both steps are best-effort: the committed engagement and fee stand whether
// or not a renderer or mail transport is available.
func (s *EngagementService) issueInvoice(ctx context.Context, logger *slog.Logger, fee *Fee, engagement Engagement) {
	pharmacy := PharmacyProfile{}
	pharmacist := PharmacistIdentity{}
	if s.identities != nil {
		if p, err := s.identities.GetPharmacyProfile(ctx, engagement.PharmacyID); err == nil {
			pharmacy = p
		}
		if p, err := s.identities.GetPharmacistIdentity(ctx, engagement.PharmacistID); err == nil {
			pharmacist = p
		}
	}

	if s.documents != nil {
		ref, err := s.documents.GenerateInvoice(ctx, InvoiceData{
			Fee:        *fee,
			Engagement: engagement,
			Pharmacy:   pharmacy,
			Pharmacist: pharmacist,
		})
		if err != nil {
			logger.WarnContext(ctx, "failed to generate invoice document", "error", err, "fee_id", fee.ID)
		} else {
			fee.InvoiceRef = ref
			if s.fees != nil {
				if err := s.fees.SetInvoiceRef(ctx, fee.ID, ref); err != nil {
					logger.WarnContext(ctx, "failed to record invoice reference", "error", err, "fee_id", fee.ID)
				}
			}
		}
	}

	if s.mail != nil && pharmacy.Email != "" {
		if err := s.mail.SendInvoiceIssued(ctx, pharmacy.Email, *fee, fee.PaymentDeadline); err != nil {
			logger.WarnContext(ctx, "failed to send invoice email", "error", err, "fee_id", fee.ID)
		}
	}
}

// Accept activates a pending engagement. The notice reference and the
// materialized shifts are committed together with the status change; notice
// generation failure degrades to an empty reference rather than aborting.
func (s *EngagementService) Accept(ctx context.Context, params EngagementDecisionParams) (AcceptEngagementResult, error) {
	if s == nil || s.engagements == nil {
		return AcceptEngagementResult{}, fmt.Errorf("engagement repository not configured")
	}

	actor, err := params.Principal.AsPharmacist()
	if err != nil {
		return AcceptEngagementResult{}, err
	}

	logger := s.loggerWith(ctx, "Accept", "engagement_id", params.EngagementID)

	engagement, err := s.engagements.GetEngagement(ctx, params.EngagementID)
	if err != nil {
		return AcceptEngagementResult{}, mapRepoError(err)
	}
	if engagement.PharmacistID != actor.PharmacistID {
		return AcceptEngagementResult{}, ErrForbidden
	}
	if engagement.Status != EngagementPending {
		return AcceptEngagementResult{}, ErrInvalidState
	}

	app, err := s.applications.GetApplication(ctx, engagement.ApplicationID)
	if err != nil {
		return AcceptEngagementResult{}, mapRepoError(err)
	}
	posting, err := s.postings.GetPosting(ctx, app.PostingID)
	if err != nil {
		return AcceptEngagementResult{}, mapRepoError(err)
	}

	now := s.now()
	noticeRef := s.generateNotice(ctx, logger, engagement, posting)
	shifts, err := s.materializeShifts(engagement, posting, now)
	if err != nil {
		return AcceptEngagementResult{}, err
	}

	inserted, err := s.engagements.ActivateEngagement(ctx, engagement.ID, now, noticeRef, shifts)
	if err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "activation failed", "error", err, "error_kind", ErrorKind(err))
		return AcceptEngagementResult{}, err
	}

	engagement.Status = EngagementActive
	engagement.AcceptedAt = &now
	engagement.NoticeRef = noticeRef

	logger.InfoContext(ctx, "engagement activated", "shifts_created", inserted)

	notify(ctx, logger, s.notifier, engagement.PharmacyID, NotificationOfferAccepted,
		"オファーが承諾されました", "雇用契約が成立しました。勤務スケジュールをご確認ください。",
		engagement.ID, "/engagements/"+engagement.ID)

	return AcceptEngagementResult{Engagement: engagement, ShiftsCreated: inserted}, nil
}

func (s *EngagementService) generateNotice(ctx context.Context, logger *slog.Logger, engagement Engagement, posting Posting) string {
	if s.documents == nil {
		return ""
	}

	data := NoticeData{Engagement: engagement, Posting: posting}
	if s.identities != nil {
		if p, err := s.identities.GetPharmacyProfile(ctx, engagement.PharmacyID); err == nil {
			data.Pharmacy = p
		}
		if p, err := s.identities.GetPharmacistIdentity(ctx, engagement.PharmacistID); err == nil {
			data.Pharmacist = p
		}
	}

	doc, err := s.documents.GenerateNotice(ctx, data)
	if err != nil {
		logger.WarnContext(ctx, "failed to generate notice document", "error", err, "engagement_id", engagement.ID)
		return ""
	}
	return doc.FileRef
}

func (s *EngagementService) materializeShifts(engagement Engagement, posting Posting, now time.Time) ([]WorkShift, error) {
	dates, err := s.recurrence.WorkDates(recurrence.Rule{
		Weekdays: posting.Weekdays,
		Start:    engagement.ContractStart,
		End:      engagement.ContractEnd,
	})
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("contract_period", "contract period is invalid")
		return nil, vErr
	}

	shifts := make([]WorkShift, 0, len(dates))
	for _, date := range dates {
		shifts = append(shifts, WorkShift{
			ID:           s.idGenerator(),
			EngagementID: engagement.ID,
			WorkDate:     date,
			StartTime:    posting.ShiftStart,
			EndTime:      posting.ShiftEnd,
			BreakMinutes: posting.BreakMinutes,
			CreatedAt:    now,
		})
	}
	return shifts, nil
}

// Reject declines a pending engagement and closes the application's
// conversation in the same unit of work.
func (s *EngagementService) Reject(ctx context.Context, params EngagementDecisionParams) (Engagement, error) {
	if s == nil || s.engagements == nil {
		return Engagement{}, fmt.Errorf("engagement repository not configured")
	}

	actor, err := params.Principal.AsPharmacist()
	if err != nil {
		return Engagement{}, err
	}

	logger := s.loggerWith(ctx, "Reject", "engagement_id", params.EngagementID)

	engagement, err := s.engagements.GetEngagement(ctx, params.EngagementID)
	if err != nil {
		return Engagement{}, mapRepoError(err)
	}
	if engagement.PharmacistID != actor.PharmacistID {
		return Engagement{}, ErrForbidden
	}

	now := s.now()
	if err := s.engagements.RejectEngagement(ctx, engagement.ID, now, params.Reason); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "rejection failed", "error", err, "error_kind", ErrorKind(err))
		return Engagement{}, err
	}

	engagement.Status = EngagementRejected
	engagement.RejectedAt = &now
	engagement.RejectionReason = params.Reason

	logger.InfoContext(ctx, "engagement rejected")

	notify(ctx, logger, s.notifier, engagement.PharmacyID, NotificationOfferRejected,
		"オファーが辞退されました", "応募者がオファーを辞退しました。", engagement.ID, "/engagements/"+engagement.ID)

	return engagement, nil
}

// EngagementListItem pairs an engagement with the pharmacist identity as it
// may be shown to the caller.
type EngagementListItem struct {
	Engagement Engagement
	Pharmacist DisplayIdentity
}

// ListForPrincipal enumerates engagements for the caller's side. Pharmacy
// callers receive pharmacist identity through the disclosure mask based on
// each engagement's current disclosure flag.
func (s *EngagementService) ListForPrincipal(ctx context.Context, principal Principal) ([]EngagementListItem, error) {
	if s == nil || s.engagements == nil {
		return nil, fmt.Errorf("engagement repository not configured")
	}

	switch principal.Role {
	case RolePharmacist:
		actor, err := principal.AsPharmacist()
		if err != nil {
			return nil, err
		}
		engagements, err := s.engagements.ListEngagementsByPharmacist(ctx, actor.PharmacistID)
		if err != nil {
			return nil, mapRepoError(err)
		}
		items := make([]EngagementListItem, 0, len(engagements))
		for _, engagement := range engagements {
			items = append(items, EngagementListItem{Engagement: engagement})
		}
		return items, nil

	case RolePharmacy:
		actor, err := principal.AsPharmacy()
		if err != nil {
			return nil, err
		}
		engagements, err := s.engagements.ListEngagementsByPharmacy(ctx, actor.PharmacyID)
		if err != nil {
			return nil, mapRepoError(err)
		}
		items := make([]EngagementListItem, 0, len(engagements))
		for _, engagement := range engagements {
			item := EngagementListItem{Engagement: engagement}
			if s.identities != nil {
				identity, err := s.identities.GetPharmacistIdentity(ctx, engagement.PharmacistID)
				if err == nil {
					item.Pharmacist = Mask(identity, engagement.PersonalInfoDisclosed)
				} else {
					item.Pharmacist = Mask(PharmacistIdentity{}, false)
				}
			}
			items = append(items, item)
		}
		return items, nil

	default:
		return nil, ErrForbidden
	}
}

func validateOfferInput(input OfferInput) *ValidationError {
	vErr := &ValidationError{}

	if input.ApplicationID == "" {
		vErr.add("application_id", "application id is required")
	}
	if input.DailyRate < minDailyRate {
		vErr.add("daily_rate", "daily rate is below the minimum")
	}
	if input.WorkDayCount < minWorkDays || input.WorkDayCount > maxWorkDays {
		vErr.add("work_day_count", "work day count is out of range")
	}
	if input.ContractStart.IsZero() {
		vErr.add("contract_start", "contract start is required")
	}
	if input.ContractEnd.IsZero() {
		vErr.add("contract_end", "contract end is required")
	}
	if !input.ContractStart.IsZero() && !input.ContractEnd.IsZero() {
		if input.ContractEnd.Before(input.ContractStart) {
			vErr.add("contract_period", "contract end must not precede start")
		} else if input.ContractEnd.Sub(input.ContractStart) > maxWorkDays*24*time.Hour {
			vErr.add("contract_period", "contract period exceeds the maximum length")
		}
	}
	if input.WithFee && input.PaymentDeadline.IsZero() {
		vErr.add("payment_deadline", "payment deadline is required")
	}

	return vErr
}
