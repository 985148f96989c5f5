package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/pharmacy-staffing/internal/persistence"
)

// ApplicationTransition captures a status-guarded application update. The
// transition succeeds only when the stored status is one of FromStatuses,
// which serializes concurrent decisions on the same application.
type ApplicationTransition struct {
	ApplicationID   string
	FromStatuses    []ApplicationStatus
	ToStatus        ApplicationStatus
	RejectionReason string
	ReviewedAt      *time.Time
	DecisionAt      *time.Time
}

// ApplicationRepository captures the persistence interactions needed by the service.
type ApplicationRepository interface {
	CreateApplicationWithConversation(ctx context.Context, app Application, conversation Conversation) error
	GetApplication(ctx context.Context, id string) (Application, error)
	TransitionApplication(ctx context.Context, transition ApplicationTransition) (Application, error)
	ListApplicationsByPharmacist(ctx context.Context, pharmacistID string) ([]Application, error)
	ListApplicationsByPharmacy(ctx context.Context, pharmacyID string) ([]Application, error)
}

// PostingCatalog exposes posting lookups.
type PostingCatalog interface {
	GetPosting(ctx context.Context, id string) (Posting, error)
}

// DisclosureIndex reports current disclosure state per application id. It is
// queried on every read so disclosure is never served from a stored copy.
type DisclosureIndex interface {
	DisclosureByApplicationIDs(ctx context.Context, applicationIDs []string) (map[string]bool, error)
}

// ApplicationService orchestrates the application state machine.
type ApplicationService struct {
	applications ApplicationRepository
	postings     PostingCatalog
	disclosure   DisclosureIndex
	identities   IdentityDirectory
	notifier     Notifier
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewApplicationService wires dependencies for application operations.
func NewApplicationService(applications ApplicationRepository, postings PostingCatalog, disclosure DisclosureIndex, identities IdentityDirectory, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ApplicationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ApplicationService{
		applications: applications,
		postings:     postings,
		disclosure:   disclosure,
		identities:   identities,
		notifier:     notifier,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *ApplicationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ApplicationService", operation, attrs...)
}

// Apply creates a pending application and its conversation thread as one
// unit. A second application for the same (posting, pharmacist) pair fails
// with ErrConflict.
func (s *ApplicationService) Apply(ctx context.Context, params ApplyParams) (Application, error) {
	if s == nil || s.applications == nil {
		return Application{}, fmt.Errorf("application repository not configured")
	}

	actor, err := params.Principal.AsPharmacist()
	if err != nil {
		return Application{}, err
	}

	logger := s.loggerWith(ctx, "Apply", "posting_id", params.PostingID, "pharmacist_id", actor.PharmacistID)

	posting, err := s.postings.GetPosting(ctx, params.PostingID)
	if err != nil {
		return Application{}, mapRepoError(err)
	}
	if !posting.Open {
		return Application{}, ErrInvalidState
	}

	now := s.now()
	app := Application{
		ID:           s.idGenerator(),
		PostingID:    posting.ID,
		PharmacistID: actor.PharmacistID,
		Status:       ApplicationPending,
		AppliedAt:    now,
	}
	conversation := Conversation{
		ID:             s.idGenerator(),
		ApplicationID:  app.ID,
		IsActive:       true,
		LastActivityAt: now,
		CreatedAt:      now,
	}

	if err := s.applications.CreateApplicationWithConversation(ctx, app, conversation); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to create application", "error", err, "error_kind", ErrorKind(err))
		return Application{}, err
	}

	logger.InfoContext(ctx, "application created", "application_id", app.ID)

	notify(ctx, logger, s.notifier, posting.PharmacyID, NotificationApplicationReceived,
		"新しい応募が届きました", "求人への新しい応募があります。", app.ID, "/applications/"+app.ID)

	return app, nil
}

// StartReview parks a pending application in under_review.
func (s *ApplicationService) StartReview(ctx context.Context, params ApplicationDecisionParams) (Application, error) {
	now := s.now()
	return s.decide(ctx, "StartReview", params, ApplicationTransition{
		ApplicationID: params.ApplicationID,
		FromStatuses:  []ApplicationStatus{ApplicationPending},
		ToStatus:      ApplicationUnderReview,
		ReviewedAt:    &now,
	}, "", "")
}

// Accept marks the application accepted and notifies the pharmacist.
func (s *ApplicationService) Accept(ctx context.Context, params ApplicationDecisionParams) (Application, error) {
	now := s.now()
	return s.decide(ctx, "Accept", params, ApplicationTransition{
		ApplicationID: params.ApplicationID,
		FromStatuses:  []ApplicationStatus{ApplicationPending, ApplicationUnderReview},
		ToStatus:      ApplicationAccepted,
		DecisionAt:    &now,
	}, NotificationApplicationAccepted, "応募が承認されました")
}

// Reject marks the application rejected, recording the optional reason.
func (s *ApplicationService) Reject(ctx context.Context, params ApplicationDecisionParams) (Application, error) {
	now := s.now()
	return s.decide(ctx, "Reject", params, ApplicationTransition{
		ApplicationID:   params.ApplicationID,
		FromStatuses:    []ApplicationStatus{ApplicationPending, ApplicationUnderReview},
		ToStatus:        ApplicationRejected,
		RejectionReason: params.Reason,
		DecisionAt:      &now,
	}, NotificationApplicationRejected, "応募が見送られました")
}

// decide runs a pharmacy-side transition after re-verifying posting ownership.
func (s *ApplicationService) decide(ctx context.Context, operation string, params ApplicationDecisionParams, transition ApplicationTransition, notificationType, notificationTitle string) (Application, error) {
	if s == nil || s.applications == nil {
		return Application{}, fmt.Errorf("application repository not configured")
	}

	actor, err := params.Principal.AsPharmacy()
	if err != nil {
		return Application{}, err
	}

	logger := s.loggerWith(ctx, operation, "application_id", params.ApplicationID)

	app, err := s.applications.GetApplication(ctx, params.ApplicationID)
	if err != nil {
		return Application{}, mapRepoError(err)
	}

	posting, err := s.postings.GetPosting(ctx, app.PostingID)
	if err != nil {
		return Application{}, mapRepoError(err)
	}
	if posting.PharmacyID != actor.PharmacyID {
		return Application{}, ErrForbidden
	}

	updated, err := s.applications.TransitionApplication(ctx, transition)
	if err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "application transition failed", "error", err, "error_kind", ErrorKind(err))
		return Application{}, err
	}

	logger.InfoContext(ctx, "application transitioned", "status", string(updated.Status))

	if notificationType != "" {
		notify(ctx, logger, s.notifier, updated.PharmacistID, notificationType,
			notificationTitle, "応募の審査結果をご確認ください。", updated.ID, "/applications/"+updated.ID)
	}

	return updated, nil
}

// Withdraw lets the owning pharmacist withdraw a pending candidacy. An
// accepted candidacy cannot be withdrawn.
func (s *ApplicationService) Withdraw(ctx context.Context, principal Principal, applicationID string) (Application, error) {
	if s == nil || s.applications == nil {
		return Application{}, fmt.Errorf("application repository not configured")
	}

	actor, err := principal.AsPharmacist()
	if err != nil {
		return Application{}, err
	}

	logger := s.loggerWith(ctx, "Withdraw", "application_id", applicationID)

	app, err := s.applications.GetApplication(ctx, applicationID)
	if err != nil {
		return Application{}, mapRepoError(err)
	}
	if app.PharmacistID != actor.PharmacistID {
		return Application{}, ErrForbidden
	}

	now := s.now()
	updated, err := s.applications.TransitionApplication(ctx, ApplicationTransition{
		ApplicationID: applicationID,
		FromStatuses:  []ApplicationStatus{ApplicationPending},
		ToStatus:      ApplicationWithdrawn,
		DecisionAt:    &now,
	})
	if err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "withdraw failed", "error", err, "error_kind", ErrorKind(err))
		return Application{}, err
	}

	logger.InfoContext(ctx, "application withdrawn")

	if posting, perr := s.postings.GetPosting(ctx, updated.PostingID); perr == nil {
		notify(ctx, logger, s.notifier, posting.PharmacyID, NotificationApplicationWithdrawn,
			"応募が取り下げられました", "応募者が応募を取り下げました。", updated.ID, "/applications/"+updated.ID)
	}

	return updated, nil
}

// ApplicationListItem pairs an application with the pharmacist identity as it
// may be shown to the caller.
type ApplicationListItem struct {
	Application Application
	Pharmacist  DisplayIdentity
}

// ListForPrincipal enumerates applications visible to the caller. Pharmacy
// callers receive pharmacist identity through the disclosure mask, recomputed
// from current engagement state on every call.
func (s *ApplicationService) ListForPrincipal(ctx context.Context, principal Principal) ([]ApplicationListItem, error) {
	if s == nil || s.applications == nil {
		return nil, fmt.Errorf("application repository not configured")
	}

	switch principal.Role {
	case RolePharmacist:
		actor, err := principal.AsPharmacist()
		if err != nil {
			return nil, err
		}
		apps, err := s.applications.ListApplicationsByPharmacist(ctx, actor.PharmacistID)
		if err != nil {
			return nil, mapRepoError(err)
		}
		items := make([]ApplicationListItem, 0, len(apps))
		for _, app := range apps {
			items = append(items, ApplicationListItem{Application: app})
		}
		return items, nil

	case RolePharmacy:
		actor, err := principal.AsPharmacy()
		if err != nil {
			return nil, err
		}
		apps, err := s.applications.ListApplicationsByPharmacy(ctx, actor.PharmacyID)
		if err != nil {
			return nil, mapRepoError(err)
		}
		return s.withMaskedIdentities(ctx, apps)

	default:
		return nil, ErrForbidden
	}
}

func (s *ApplicationService) withMaskedIdentities(ctx context.Context, apps []Application) ([]ApplicationListItem, error) {
	ids := make([]string, 0, len(apps))
	for _, app := range apps {
		ids = append(ids, app.ID)
	}

	disclosed := map[string]bool{}
	if s.disclosure != nil && len(ids) > 0 {
		var err error
		disclosed, err = s.disclosure.DisclosureByApplicationIDs(ctx, ids)
		if err != nil {
			return nil, mapRepoError(err)
		}
	}

	items := make([]ApplicationListItem, 0, len(apps))
	for _, app := range apps {
		item := ApplicationListItem{Application: app}
		if s.identities != nil {
			identity, err := s.identities.GetPharmacistIdentity(ctx, app.PharmacistID)
			if err != nil && !errors.Is(err, persistence.ErrNotFound) && !errors.Is(err, ErrNotFound) {
				return nil, mapRepoError(err)
			}
			item.Pharmacist = Mask(identity, disclosed[app.ID])
		}
		items = append(items, item)
	}
	return items, nil
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, persistence.ErrDuplicate):
		return ErrConflict
	case errors.Is(err, ErrInvalidState), errors.Is(err, persistence.ErrStaleStatus):
		return ErrInvalidState
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConstraintViolation):
		return ErrInvalidState
	}
	return err
}
