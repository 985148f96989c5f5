package persistence

import (
	"context"
	"time"
)

// AccountRepository exposes account lookup and creation.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account Account) error
	GetAccount(ctx context.Context, id string) (Account, error)
	GetAccountByEmail(ctx context.Context, email string) (Account, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// PostingRepository stores staffing postings.
type PostingRepository interface {
	CreatePosting(ctx context.Context, posting Posting) error
	GetPosting(ctx context.Context, id string) (Posting, error)
	SetPostingOpen(ctx context.Context, id string, open bool, updatedAt time.Time) error
	ListOpenPostings(ctx context.Context) ([]Posting, error)
	ListPostingsByPharmacy(ctx context.Context, pharmacyID string) ([]Posting, error)
}

// ApplicationStatusChange captures a status-guarded application transition.
// The update succeeds only when the row's current status is in FromStatuses;
// otherwise ErrStaleStatus is returned.
type ApplicationStatusChange struct {
	ID              string
	FromStatuses    []string
	ToStatus        string
	RejectionReason *string
	ReviewedAt      *time.Time
	DecisionAt      *time.Time
}

// ApplicationRepository stores applications and their conversation threads.
type ApplicationRepository interface {
	// CreateApplicationWithConversation commits both rows as one unit.
	CreateApplicationWithConversation(ctx context.Context, application Application, conversation Conversation) error
	GetApplication(ctx context.Context, id string) (Application, error)
	TransitionApplication(ctx context.Context, change ApplicationStatusChange) (Application, error)
	ListApplicationsByPharmacist(ctx context.Context, pharmacistID string) ([]Application, error)
	ListApplicationsByPharmacy(ctx context.Context, pharmacyID string) ([]Application, error)
	// CountApplicationsByPosting derives applicant counts per posting id.
	CountApplicationsByPosting(ctx context.Context, postingIDs []string) (map[string]int, error)
}

// EngagementRepository stores engagements, enforcing the single
// non-terminal-engagement-per-application constraint at insert time.
type EngagementRepository interface {
	// CreateEngagementWithFee commits the engagement and its optional fee as
	// one unit. A second non-terminal engagement for the same application
	// fails with ErrDuplicate.
	CreateEngagementWithFee(ctx context.Context, engagement Engagement, fee *Fee) error
	GetEngagement(ctx context.Context, id string) (Engagement, error)
	// ActivateEngagement transitions pending -> active, records the notice
	// reference and inserts the materialized shifts, all as one unit.
	// Duplicate (engagement, work date) shifts are skipped; the number of
	// rows actually inserted is returned.
	ActivateEngagement(ctx context.Context, id string, acceptedAt time.Time, noticeRef *string, shifts []WorkShift) (int, error)
	// RejectEngagement transitions pending -> rejected and deactivates the
	// application's conversation as one unit.
	RejectEngagement(ctx context.Context, id string, rejectedAt time.Time, reason *string) error
	ListEngagementsByPharmacy(ctx context.Context, pharmacyID string) ([]Engagement, error)
	ListEngagementsByPharmacist(ctx context.Context, pharmacistID string) ([]Engagement, error)
	// DisclosureByApplicationIDs reports, per application id, whether a
	// disclosed engagement currently exists. Used at read boundaries.
	DisclosureByApplicationIDs(ctx context.Context, applicationIDs []string) (map[string]bool, error)
}

// FeeRepository stores platform fees.
type FeeRepository interface {
	GetFee(ctx context.Context, id string) (Fee, error)
	// ConfirmFeePayment transitions pending -> paid and flips the owning
	// engagement's disclosure flag as one unit.
	ConfirmFeePayment(ctx context.Context, id string, paidAt time.Time) (Fee, error)
	// TransitionFee applies a status-guarded update such as pending -> overdue.
	TransitionFee(ctx context.Context, id string, fromStatuses []string, toStatus string, at time.Time) (Fee, error)
	// SetInvoiceRef records the generated invoice reference after creation.
	SetInvoiceRef(ctx context.Context, id string, invoiceRef string) error
	ListFeesByStatus(ctx context.Context, status string) ([]Fee, error)
}

// WorkShiftRepository stores materialized and manually created shifts.
type WorkShiftRepository interface {
	// InsertWorkShifts inserts shifts, silently skipping duplicate
	// (engagement, work date) rows. Returns the number inserted.
	InsertWorkShifts(ctx context.Context, shifts []WorkShift) (int, error)
	GetWorkShift(ctx context.Context, id string) (WorkShift, error)
	ListWorkShiftsByEngagement(ctx context.Context, engagementID string) ([]WorkShift, error)
	// DeleteWorkShift removes a shift; it fails with ErrConstraintViolation
	// when an attendance record references the shift.
	DeleteWorkShift(ctx context.Context, id string) error
}

// ConversationRepository stores conversations and their messages.
type ConversationRepository interface {
	GetConversation(ctx context.Context, id string) (Conversation, error)
	GetConversationByApplication(ctx context.Context, applicationID string) (Conversation, error)
	AppendMessage(ctx context.Context, message Message) error
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
}

// NotificationRepository stores emitted notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) error
	ListNotificationsByRecipient(ctx context.Context, recipientID string) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id, recipientID string, readAt time.Time) error
}
