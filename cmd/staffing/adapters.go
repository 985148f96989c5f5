package main

import (
	"context"
	"time"

	"github.com/example/pharmacy-staffing/internal/application"
	"github.com/example/pharmacy-staffing/internal/persistence"
)

// The adapters in this file translate between the application layer's
// domain-typed interfaces and the persistence layer's storage models.

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ----------------------------- accounts -----------------------------

type credentialStoreAdapter struct {
	accounts persistence.AccountRepository
}

func newCredentialStoreAdapter(accounts persistence.AccountRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{accounts: accounts}
}

func toApplicationAccount(stored persistence.Account) (application.Account, error) {
	role, err := application.ParseRole(stored.Role)
	if err != nil {
		return application.Account{}, err
	}
	return application.Account{
		ID:          stored.ID,
		Role:        role,
		Email:       stored.Email,
		DisplayName: stored.DisplayName,
		IsAdmin:     stored.IsAdmin,
		CreatedAt:   stored.CreatedAt,
		UpdatedAt:   stored.UpdatedAt,
	}, nil
}

func (a *credentialStoreAdapter) GetAccountCredentialsByEmail(ctx context.Context, email string) (application.AccountCredentials, error) {
	stored, err := a.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		return application.AccountCredentials{}, err
	}
	account, err := toApplicationAccount(stored)
	if err != nil {
		return application.AccountCredentials{}, err
	}
	return application.AccountCredentials{
		Account:      account,
		PasswordHash: stored.PasswordHash,
		Disabled:     stored.Disabled,
	}, nil
}

func (a *credentialStoreAdapter) GetAccount(ctx context.Context, id string) (application.Account, error) {
	stored, err := a.accounts.GetAccount(ctx, id)
	if err != nil {
		return application.Account{}, err
	}
	return toApplicationAccount(stored)
}

type identityDirectoryAdapter struct {
	accounts persistence.AccountRepository
}

func newIdentityDirectoryAdapter(accounts persistence.AccountRepository) *identityDirectoryAdapter {
	return &identityDirectoryAdapter{accounts: accounts}
}

func (a *identityDirectoryAdapter) GetPharmacistIdentity(ctx context.Context, pharmacistID string) (application.PharmacistIdentity, error) {
	stored, err := a.accounts.GetAccount(ctx, pharmacistID)
	if err != nil {
		return application.PharmacistIdentity{}, err
	}
	return application.PharmacistIdentity{
		FirstName: stored.FirstName,
		LastName:  stored.LastName,
		Phone:     stored.Phone,
		Email:     stored.Email,
	}, nil
}

func (a *identityDirectoryAdapter) GetPharmacyProfile(ctx context.Context, pharmacyID string) (application.PharmacyProfile, error) {
	stored, err := a.accounts.GetAccount(ctx, pharmacyID)
	if err != nil {
		return application.PharmacyProfile{}, err
	}
	return application.PharmacyProfile{
		Name:    stored.DisplayName,
		Address: stored.Address,
		Phone:   stored.Phone,
		Email:   stored.Email,
	}, nil
}

type sessionRepositoryAdapter struct {
	sessions persistence.SessionRepository
}

func newSessionRepositoryAdapter(sessions persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{sessions: sessions}
}

func toApplicationSession(stored persistence.Session) application.Session {
	return application.Session{
		ID:        stored.ID,
		AccountID: stored.AccountID,
		Token:     stored.Token,
		ExpiresAt: stored.ExpiresAt,
		CreatedAt: stored.CreatedAt,
		UpdatedAt: stored.UpdatedAt,
		RevokedAt: stored.RevokedAt,
	}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.sessions.CreateSession(ctx, persistence.Session{
		ID:        session.ID,
		AccountID: session.AccountID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	})
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.sessions.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.sessions.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.sessions.DeleteExpiredSessions(ctx, reference)
}

// ----------------------------- postings -----------------------------

type postingRepositoryAdapter struct {
	postings persistence.PostingRepository
}

func newPostingRepositoryAdapter(postings persistence.PostingRepository) *postingRepositoryAdapter {
	return &postingRepositoryAdapter{postings: postings}
}

func toApplicationPosting(stored persistence.Posting) application.Posting {
	return application.Posting{
		ID:           stored.ID,
		PharmacyID:   stored.PharmacyID,
		Title:        stored.Title,
		DailyRate:    stored.DailyRate,
		Weekdays:     stored.Weekdays,
		ShiftStart:   stored.ShiftStart,
		ShiftEnd:     stored.ShiftEnd,
		BreakMinutes: stored.BreakMinutes,
		PeriodStart:  stored.PeriodStart,
		PeriodEnd:    stored.PeriodEnd,
		Open:         stored.Open,
		CreatedAt:    stored.CreatedAt,
		UpdatedAt:    stored.UpdatedAt,
	}
}

func toApplicationPostings(stored []persistence.Posting) []application.Posting {
	out := make([]application.Posting, 0, len(stored))
	for _, posting := range stored {
		out = append(out, toApplicationPosting(posting))
	}
	return out
}

func (a *postingRepositoryAdapter) CreatePosting(ctx context.Context, posting application.Posting) error {
	return a.postings.CreatePosting(ctx, persistence.Posting{
		ID:           posting.ID,
		PharmacyID:   posting.PharmacyID,
		Title:        posting.Title,
		DailyRate:    posting.DailyRate,
		Weekdays:     posting.Weekdays,
		ShiftStart:   posting.ShiftStart,
		ShiftEnd:     posting.ShiftEnd,
		BreakMinutes: posting.BreakMinutes,
		PeriodStart:  posting.PeriodStart,
		PeriodEnd:    posting.PeriodEnd,
		Open:         posting.Open,
		CreatedAt:    posting.CreatedAt,
		UpdatedAt:    posting.UpdatedAt,
	})
}

func (a *postingRepositoryAdapter) GetPosting(ctx context.Context, id string) (application.Posting, error) {
	stored, err := a.postings.GetPosting(ctx, id)
	if err != nil {
		return application.Posting{}, err
	}
	return toApplicationPosting(stored), nil
}

func (a *postingRepositoryAdapter) SetPostingOpen(ctx context.Context, id string, open bool, updatedAt time.Time) error {
	return a.postings.SetPostingOpen(ctx, id, open, updatedAt)
}

func (a *postingRepositoryAdapter) ListOpenPostings(ctx context.Context) ([]application.Posting, error) {
	stored, err := a.postings.ListOpenPostings(ctx)
	if err != nil {
		return nil, err
	}
	return toApplicationPostings(stored), nil
}

func (a *postingRepositoryAdapter) ListPostingsByPharmacy(ctx context.Context, pharmacyID string) ([]application.Posting, error) {
	stored, err := a.postings.ListPostingsByPharmacy(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}
	return toApplicationPostings(stored), nil
}

// ----------------------------- applications -----------------------------

type applicationRepositoryAdapter struct {
	applications persistence.ApplicationRepository
}

func newApplicationRepositoryAdapter(applications persistence.ApplicationRepository) *applicationRepositoryAdapter {
	return &applicationRepositoryAdapter{applications: applications}
}

func toApplicationCandidacy(stored persistence.Application) (application.Application, error) {
	status, err := application.ParseApplicationStatus(stored.Status)
	if err != nil {
		return application.Application{}, err
	}
	return application.Application{
		ID:              stored.ID,
		PostingID:       stored.PostingID,
		PharmacistID:    stored.PharmacistID,
		Status:          status,
		RejectionReason: stringOrEmpty(stored.RejectionReason),
		AppliedAt:       stored.AppliedAt,
		ReviewedAt:      stored.ReviewedAt,
		DecisionAt:      stored.DecisionAt,
	}, nil
}

func toApplicationCandidacies(stored []persistence.Application) ([]application.Application, error) {
	out := make([]application.Application, 0, len(stored))
	for _, app := range stored {
		converted, err := toApplicationCandidacy(app)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

func (a *applicationRepositoryAdapter) CreateApplicationWithConversation(ctx context.Context, app application.Application, conversation application.Conversation) error {
	return a.applications.CreateApplicationWithConversation(ctx, persistence.Application{
		ID:           app.ID,
		PostingID:    app.PostingID,
		PharmacistID: app.PharmacistID,
		Status:       string(app.Status),
		AppliedAt:    app.AppliedAt,
	}, persistence.Conversation{
		ID:             conversation.ID,
		ApplicationID:  conversation.ApplicationID,
		IsActive:       conversation.IsActive,
		LastActivityAt: conversation.LastActivityAt,
		CreatedAt:      conversation.CreatedAt,
	})
}

func (a *applicationRepositoryAdapter) GetApplication(ctx context.Context, id string) (application.Application, error) {
	stored, err := a.applications.GetApplication(ctx, id)
	if err != nil {
		return application.Application{}, err
	}
	return toApplicationCandidacy(stored)
}

func (a *applicationRepositoryAdapter) TransitionApplication(ctx context.Context, transition application.ApplicationTransition) (application.Application, error) {
	fromStatuses := make([]string, 0, len(transition.FromStatuses))
	for _, status := range transition.FromStatuses {
		fromStatuses = append(fromStatuses, string(status))
	}
	stored, err := a.applications.TransitionApplication(ctx, persistence.ApplicationStatusChange{
		ID:              transition.ApplicationID,
		FromStatuses:    fromStatuses,
		ToStatus:        string(transition.ToStatus),
		RejectionReason: ptrOrNil(transition.RejectionReason),
		ReviewedAt:      transition.ReviewedAt,
		DecisionAt:      transition.DecisionAt,
	})
	if err != nil {
		return application.Application{}, err
	}
	return toApplicationCandidacy(stored)
}

func (a *applicationRepositoryAdapter) ListApplicationsByPharmacist(ctx context.Context, pharmacistID string) ([]application.Application, error) {
	stored, err := a.applications.ListApplicationsByPharmacist(ctx, pharmacistID)
	if err != nil {
		return nil, err
	}
	return toApplicationCandidacies(stored)
}

func (a *applicationRepositoryAdapter) ListApplicationsByPharmacy(ctx context.Context, pharmacyID string) ([]application.Application, error) {
	stored, err := a.applications.ListApplicationsByPharmacy(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}
	return toApplicationCandidacies(stored)
}

func (a *applicationRepositoryAdapter) CountApplicationsByPostingIDs(ctx context.Context, postingIDs []string) (map[string]int, error) {
	return a.applications.CountApplicationsByPosting(ctx, postingIDs)
}

// ----------------------------- engagements -----------------------------

type engagementRepositoryAdapter struct {
	engagements persistence.EngagementRepository
}

func newEngagementRepositoryAdapter(engagements persistence.EngagementRepository) *engagementRepositoryAdapter {
	return &engagementRepositoryAdapter{engagements: engagements}
}

func toApplicationEngagement(stored persistence.Engagement) (application.Engagement, error) {
	status, err := application.ParseEngagementStatus(stored.Status)
	if err != nil {
		return application.Engagement{}, err
	}
	return application.Engagement{
		ID:                    stored.ID,
		ApplicationID:         stored.ApplicationID,
		PharmacyID:            stored.PharmacyID,
		PharmacistID:          stored.PharmacistID,
		Status:                status,
		DailyRate:             stored.DailyRate,
		WorkDayCount:          stored.WorkDayCount,
		TotalCompensation:     stored.TotalCompensation,
		ContractStart:         stored.ContractStart,
		ContractEnd:           stored.ContractEnd,
		TermsText:             stored.TermsText,
		NoticeRef:             stringOrEmpty(stored.NoticeRef),
		PersonalInfoDisclosed: stored.PersonalInfoDisclosed,
		DisclosedAt:           stored.DisclosedAt,
		OfferSentAt:           stored.OfferSentAt,
		AcceptedAt:            stored.AcceptedAt,
		RejectedAt:            stored.RejectedAt,
		RejectionReason:       stringOrEmpty(stored.RejectionReason),
	}, nil
}

func toApplicationEngagements(stored []persistence.Engagement) ([]application.Engagement, error) {
	out := make([]application.Engagement, 0, len(stored))
	for _, engagement := range stored {
		converted, err := toApplicationEngagement(engagement)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

func toPersistenceWorkShift(shift application.WorkShift) persistence.WorkShift {
	return persistence.WorkShift{
		ID:           shift.ID,
		EngagementID: shift.EngagementID,
		WorkDate:     shift.WorkDate,
		StartTime:    shift.StartTime,
		EndTime:      shift.EndTime,
		BreakMinutes: shift.BreakMinutes,
		Notes:        shift.Notes,
		CreatedAt:    shift.CreatedAt,
	}
}

func (a *engagementRepositoryAdapter) CreateEngagementWithFee(ctx context.Context, engagement application.Engagement, fee *application.Fee) error {
	var storedFee *persistence.Fee
	if fee != nil {
		storedFee = &persistence.Fee{
			ID:              fee.ID,
			EngagementID:    fee.EngagementID,
			Amount:          fee.Amount,
			Status:          string(fee.Status),
			PaymentDeadline: fee.PaymentDeadline,
			CreatedAt:       fee.CreatedAt,
		}
	}
	return a.engagements.CreateEngagementWithFee(ctx, persistence.Engagement{
		ID:                engagement.ID,
		ApplicationID:     engagement.ApplicationID,
		PharmacyID:        engagement.PharmacyID,
		PharmacistID:      engagement.PharmacistID,
		Status:            string(engagement.Status),
		DailyRate:         engagement.DailyRate,
		WorkDayCount:      engagement.WorkDayCount,
		TotalCompensation: engagement.TotalCompensation,
		ContractStart:     engagement.ContractStart,
		ContractEnd:       engagement.ContractEnd,
		TermsText:         engagement.TermsText,
		OfferSentAt:       engagement.OfferSentAt,
	}, storedFee)
}

func (a *engagementRepositoryAdapter) GetEngagement(ctx context.Context, id string) (application.Engagement, error) {
	stored, err := a.engagements.GetEngagement(ctx, id)
	if err != nil {
		return application.Engagement{}, err
	}
	return toApplicationEngagement(stored)
}

func (a *engagementRepositoryAdapter) ActivateEngagement(ctx context.Context, id string, acceptedAt time.Time, noticeRef string, shifts []application.WorkShift) (int, error) {
	storedShifts := make([]persistence.WorkShift, 0, len(shifts))
	for _, shift := range shifts {
		storedShifts = append(storedShifts, toPersistenceWorkShift(shift))
	}
	return a.engagements.ActivateEngagement(ctx, id, acceptedAt, ptrOrNil(noticeRef), storedShifts)
}

func (a *engagementRepositoryAdapter) RejectEngagement(ctx context.Context, id string, rejectedAt time.Time, reason string) error {
	return a.engagements.RejectEngagement(ctx, id, rejectedAt, ptrOrNil(reason))
}

func (a *engagementRepositoryAdapter) ListEngagementsByPharmacy(ctx context.Context, pharmacyID string) ([]application.Engagement, error) {
	stored, err := a.engagements.ListEngagementsByPharmacy(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}
	return toApplicationEngagements(stored)
}

func (a *engagementRepositoryAdapter) ListEngagementsByPharmacist(ctx context.Context, pharmacistID string) ([]application.Engagement, error) {
	stored, err := a.engagements.ListEngagementsByPharmacist(ctx, pharmacistID)
	if err != nil {
		return nil, err
	}
	return toApplicationEngagements(stored)
}

func (a *engagementRepositoryAdapter) DisclosureByApplicationIDs(ctx context.Context, applicationIDs []string) (map[string]bool, error) {
	return a.engagements.DisclosureByApplicationIDs(ctx, applicationIDs)
}

// ----------------------------- fees -----------------------------

type feeRepositoryAdapter struct {
	fees persistence.FeeRepository
}

func newFeeRepositoryAdapter(fees persistence.FeeRepository) *feeRepositoryAdapter {
	return &feeRepositoryAdapter{fees: fees}
}

func toApplicationFee(stored persistence.Fee) (application.Fee, error) {
	status, err := application.ParseFeeStatus(stored.Status)
	if err != nil {
		return application.Fee{}, err
	}
	return application.Fee{
		ID:              stored.ID,
		EngagementID:    stored.EngagementID,
		Amount:          stored.Amount,
		Status:          status,
		PaymentDeadline: stored.PaymentDeadline,
		PaidAt:          stored.PaidAt,
		InvoiceRef:      stringOrEmpty(stored.InvoiceRef),
		CreatedAt:       stored.CreatedAt,
	}, nil
}

func (a *feeRepositoryAdapter) GetFee(ctx context.Context, id string) (application.Fee, error) {
	stored, err := a.fees.GetFee(ctx, id)
	if err != nil {
		return application.Fee{}, err
	}
	return toApplicationFee(stored)
}

func (a *feeRepositoryAdapter) ConfirmFeePayment(ctx context.Context, feeID string, paidAt time.Time) (application.Fee, error) {
	stored, err := a.fees.ConfirmFeePayment(ctx, feeID, paidAt)
	if err != nil {
		return application.Fee{}, err
	}
	return toApplicationFee(stored)
}

func (a *feeRepositoryAdapter) TransitionFee(ctx context.Context, transition application.FeeTransition) (application.Fee, error) {
	fromStatuses := make([]string, 0, len(transition.FromStatuses))
	for _, status := range transition.FromStatuses {
		fromStatuses = append(fromStatuses, string(status))
	}
	stored, err := a.fees.TransitionFee(ctx, transition.FeeID, fromStatuses, string(transition.ToStatus), time.Now())
	if err != nil {
		return application.Fee{}, err
	}
	return toApplicationFee(stored)
}

func (a *feeRepositoryAdapter) SetInvoiceRef(ctx context.Context, feeID, invoiceRef string) error {
	return a.fees.SetInvoiceRef(ctx, feeID, invoiceRef)
}

func (a *feeRepositoryAdapter) ListFeesByStatus(ctx context.Context, status application.FeeStatus) ([]application.Fee, error) {
	stored, err := a.fees.ListFeesByStatus(ctx, string(status))
	if err != nil {
		return nil, err
	}
	out := make([]application.Fee, 0, len(stored))
	for _, fee := range stored {
		converted, err := toApplicationFee(fee)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

// ----------------------------- work shifts -----------------------------

type workShiftRepositoryAdapter struct {
	shifts persistence.WorkShiftRepository
}

func newWorkShiftRepositoryAdapter(shifts persistence.WorkShiftRepository) *workShiftRepositoryAdapter {
	return &workShiftRepositoryAdapter{shifts: shifts}
}

func toApplicationWorkShift(stored persistence.WorkShift) application.WorkShift {
	return application.WorkShift{
		ID:           stored.ID,
		EngagementID: stored.EngagementID,
		WorkDate:     stored.WorkDate,
		StartTime:    stored.StartTime,
		EndTime:      stored.EndTime,
		BreakMinutes: stored.BreakMinutes,
		Notes:        stored.Notes,
		CreatedAt:    stored.CreatedAt,
	}
}

func (a *workShiftRepositoryAdapter) InsertWorkShifts(ctx context.Context, shifts []application.WorkShift) (int, error) {
	stored := make([]persistence.WorkShift, 0, len(shifts))
	for _, shift := range shifts {
		stored = append(stored, toPersistenceWorkShift(shift))
	}
	return a.shifts.InsertWorkShifts(ctx, stored)
}

func (a *workShiftRepositoryAdapter) GetWorkShift(ctx context.Context, id string) (application.WorkShift, error) {
	stored, err := a.shifts.GetWorkShift(ctx, id)
	if err != nil {
		return application.WorkShift{}, err
	}
	return toApplicationWorkShift(stored), nil
}

func (a *workShiftRepositoryAdapter) DeleteWorkShift(ctx context.Context, id string) error {
	return a.shifts.DeleteWorkShift(ctx, id)
}

func (a *workShiftRepositoryAdapter) ListWorkShifts(ctx context.Context, engagementID string) ([]application.WorkShift, error) {
	stored, err := a.shifts.ListWorkShiftsByEngagement(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	out := make([]application.WorkShift, 0, len(stored))
	for _, shift := range stored {
		out = append(out, toApplicationWorkShift(shift))
	}
	return out, nil
}

// ----------------------------- conversations -----------------------------

type conversationRepositoryAdapter struct {
	conversations persistence.ConversationRepository
}

func newConversationRepositoryAdapter(conversations persistence.ConversationRepository) *conversationRepositoryAdapter {
	return &conversationRepositoryAdapter{conversations: conversations}
}

func toApplicationConversation(stored persistence.Conversation) application.Conversation {
	return application.Conversation{
		ID:             stored.ID,
		ApplicationID:  stored.ApplicationID,
		IsActive:       stored.IsActive,
		LastActivityAt: stored.LastActivityAt,
		CreatedAt:      stored.CreatedAt,
	}
}

func (a *conversationRepositoryAdapter) GetConversation(ctx context.Context, id string) (application.Conversation, error) {
	stored, err := a.conversations.GetConversation(ctx, id)
	if err != nil {
		return application.Conversation{}, err
	}
	return toApplicationConversation(stored), nil
}

func (a *conversationRepositoryAdapter) GetConversationByApplicationID(ctx context.Context, applicationID string) (application.Conversation, error) {
	stored, err := a.conversations.GetConversationByApplication(ctx, applicationID)
	if err != nil {
		return application.Conversation{}, err
	}
	return toApplicationConversation(stored), nil
}

func (a *conversationRepositoryAdapter) AppendMessage(ctx context.Context, message application.Message) error {
	return a.conversations.AppendMessage(ctx, persistence.Message{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Body:           message.Body,
		SentAt:         message.SentAt,
	})
}

func (a *conversationRepositoryAdapter) ListMessages(ctx context.Context, conversationID string) ([]application.Message, error) {
	stored, err := a.conversations.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	out := make([]application.Message, 0, len(stored))
	for _, message := range stored {
		out = append(out, application.Message{
			ID:             message.ID,
			ConversationID: message.ConversationID,
			SenderID:       message.SenderID,
			Body:           message.Body,
			SentAt:         message.SentAt,
		})
	}
	return out, nil
}

// ----------------------------- notifications -----------------------------

type notificationRepositoryAdapter struct {
	notifications persistence.NotificationRepository
}

func newNotificationRepositoryAdapter(notifications persistence.NotificationRepository) *notificationRepositoryAdapter {
	return &notificationRepositoryAdapter{notifications: notifications}
}

func (a *notificationRepositoryAdapter) CreateNotification(ctx context.Context, notification application.Notification) error {
	return a.notifications.CreateNotification(ctx, persistence.Notification{
		ID:          notification.ID,
		RecipientID: notification.RecipientID,
		Type:        notification.Type,
		Title:       notification.Title,
		Body:        notification.Body,
		RelatedID:   notification.RelatedID,
		ActionURL:   notification.ActionURL,
		CreatedAt:   notification.CreatedAt,
		ReadAt:      notification.ReadAt,
	})
}

func (a *notificationRepositoryAdapter) ListNotificationsByRecipient(ctx context.Context, recipientID string) ([]application.Notification, error) {
	stored, err := a.notifications.ListNotificationsByRecipient(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	out := make([]application.Notification, 0, len(stored))
	for _, notification := range stored {
		out = append(out, application.Notification{
			ID:          notification.ID,
			RecipientID: notification.RecipientID,
			Type:        notification.Type,
			Title:       notification.Title,
			Body:        notification.Body,
			RelatedID:   notification.RelatedID,
			ActionURL:   notification.ActionURL,
			CreatedAt:   notification.CreatedAt,
			ReadAt:      notification.ReadAt,
		})
	}
	return out, nil
}

func (a *notificationRepositoryAdapter) MarkNotificationRead(ctx context.Context, id, recipientID string, readAt time.Time) error {
	return a.notifications.MarkNotificationRead(ctx, id, recipientID, readAt)
}
