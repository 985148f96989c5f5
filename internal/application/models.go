package application

import "time"

// Posting represents a pharmacy's published staffing request.
type Posting struct {
	ID             string
	PharmacyID     string
	Title          string
	DailyRate      int
	Weekdays       []time.Weekday
	ShiftStart     string
	ShiftEnd       string
	BreakMinutes   int
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Open           bool
	ApplicantCount int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Application represents one pharmacist's candidacy for one posting.
type Application struct {
	ID              string
	PostingID       string
	PharmacistID    string
	Status          ApplicationStatus
	RejectionReason string
	AppliedAt       time.Time
	ReviewedAt      *time.Time
	DecisionAt      *time.Time
}

// Engagement represents the contract offered for an accepted application.
type Engagement struct {
	ID                    string
	ApplicationID         string
	PharmacyID            string
	PharmacistID          string
	Status                EngagementStatus
	DailyRate             int
	WorkDayCount          int
	TotalCompensation     int
	ContractStart         time.Time
	ContractEnd           time.Time
	TermsText             string
	NoticeRef             string
	PersonalInfoDisclosed bool
	DisclosedAt           *time.Time
	OfferSentAt           time.Time
	AcceptedAt            *time.Time
	RejectedAt            *time.Time
	RejectionReason       string
}

// Fee is the platform commission tied 1:1 to an engagement. Amount and
// deadline are fixed at creation; only the settlement fields move afterward.
type Fee struct {
	ID              string
	EngagementID    string
	Amount          int
	Status          FeeStatus
	PaymentDeadline time.Time
	PaidAt          *time.Time
	InvoiceRef      string
	CreatedAt       time.Time
}

// WorkShift is one calendar shift derived from an engagement.
type WorkShift struct {
	ID           string
	EngagementID string
	WorkDate     time.Time
	StartTime    string
	EndTime      string
	BreakMinutes int
	Notes        string
	CreatedAt    time.Time
}

// Conversation is the message thread scoped 1:1 to an application.
type Conversation struct {
	ID             string
	ApplicationID  string
	IsActive       bool
	LastActivityAt time.Time
	CreatedAt      time.Time
}

// Message is one entry in a conversation.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	Body           string
	SentAt         time.Time
}

// Notification is an emitted side-channel notice to a counterparty.
type Notification struct {
	ID          string
	RecipientID string
	Type        string
	Title       string
	Body        string
	RelatedID   string
	ActionURL   string
	CreatedAt   time.Time
	ReadAt      *time.Time
}

// PharmacistIdentity holds the personally identifying display fields subject
// to disclosure gating.
type PharmacistIdentity struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

// PharmacyProfile holds the pharmacy display fields used in generated documents.
type PharmacyProfile struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// ApplyParams wraps the data required to create an application.
type ApplyParams struct {
	Principal Principal
	PostingID string
}

// ApplicationDecisionParams wraps the data required for a pharmacy-side decision.
type ApplicationDecisionParams struct {
	Principal     Principal
	ApplicationID string
	Reason        string
}

// OfferInput captures the contract terms supplied by the pharmacy.
type OfferInput struct {
	ApplicationID   string
	DailyRate       int
	WorkDayCount    int
	ContractStart   time.Time
	ContractEnd     time.Time
	TermsText       string
	WithFee         bool
	PaymentDeadline time.Time
}

// OfferParams wraps the data required to issue an offer.
type OfferParams struct {
	Principal Principal
	Input     OfferInput
}

// OfferResult carries the created engagement and, for the formal path, its fee.
type OfferResult struct {
	Engagement Engagement
	Fee        *Fee
}

// EngagementDecisionParams wraps the data required for a pharmacist-side decision.
type EngagementDecisionParams struct {
	Principal    Principal
	EngagementID string
	Reason       string
}

// AcceptEngagementResult carries the activated engagement and the number of
// shifts the materializer produced.
type AcceptEngagementResult struct {
	Engagement    Engagement
	ShiftsCreated int
}

// ShiftInput captures caller provided fields for a manually created shift.
type ShiftInput struct {
	WorkDate     time.Time
	StartTime    string
	EndTime      string
	BreakMinutes int
	Notes        string
}

// CreateShiftParams wraps the data required to create a one-off shift.
type CreateShiftParams struct {
	Principal    Principal
	EngagementID string
	Input        ShiftInput
}

// BulkCreateShiftsParams wraps the data required to create shifts for every
// matching weekday in the contract period.
type BulkCreateShiftsParams struct {
	Principal    Principal
	EngagementID string
	Weekdays     []time.Weekday
	StartTime    string
	EndTime      string
	BreakMinutes int
}

// SendMessageParams wraps the data required to post a conversation message.
type SendMessageParams struct {
	Principal      Principal
	ConversationID string
	Body           string
}

// PostingInput captures caller provided posting fields.
type PostingInput struct {
	Title        string
	DailyRate    int
	Weekdays     []time.Weekday
	ShiftStart   string
	ShiftEnd     string
	BreakMinutes int
	PeriodStart  time.Time
	PeriodEnd    time.Time
}

// CreatePostingParams wraps the data required to publish a posting.
type CreatePostingParams struct {
	Principal Principal
	Input     PostingInput
}

// Account models a marketplace login for either side.
type Account struct {
	ID          string
	Role        Role
	Email       string
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AccountCredentials models the authentication attributes persisted for an account.
type AccountCredentials struct {
	Account      Account
	PasswordHash string
	Disabled     bool
}

// Session represents an authenticated session issued to an account.
type Session struct {
	ID        string
	AccountID string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate an account.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	Account Account
	Session Session
}
