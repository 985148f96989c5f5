package persistence

import "time"

// Account is a marketplace login for either a pharmacy or a pharmacist.
// Identity fields beyond DisplayName are populated for pharmacists only.
type Account struct {
	ID           string
	Role         string
	Email        string
	PasswordHash string
	DisplayName  string
	FirstName    string
	LastName     string
	Phone        string
	Address      string
	IsAdmin      bool
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is an issued authentication session.
type Session struct {
	ID        string
	AccountID string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// Posting is a pharmacy's published staffing request.
type Posting struct {
	ID           string
	PharmacyID   string
	Title        string
	DailyRate    int
	Weekdays     []time.Weekday
	ShiftStart   string
	ShiftEnd     string
	BreakMinutes int
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Open         bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Application is a pharmacist's candidacy against a posting.
type Application struct {
	ID              string
	PostingID       string
	PharmacistID    string
	Status          string
	RejectionReason *string
	AppliedAt       time.Time
	ReviewedAt      *time.Time
	DecisionAt      *time.Time
}

// Engagement is the contract offered for an accepted application.
type Engagement struct {
	ID                    string
	ApplicationID         string
	PharmacyID            string
	PharmacistID          string
	Status                string
	DailyRate             int
	WorkDayCount          int
	TotalCompensation     int
	ContractStart         time.Time
	ContractEnd           time.Time
	TermsText             string
	NoticeRef             *string
	PersonalInfoDisclosed bool
	DisclosedAt           *time.Time
	OfferSentAt           time.Time
	AcceptedAt            *time.Time
	RejectedAt            *time.Time
	RejectionReason       *string
}

// Fee is the platform commission owed by the pharmacy for one engagement.
type Fee struct {
	ID              string
	EngagementID    string
	Amount          int
	Status          string
	PaymentDeadline time.Time
	PaidAt          *time.Time
	InvoiceRef      *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// WorkShift is one materialized calendar shift for an engagement.
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

// Conversation is the message thread scoped to one application.
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

// Notification is a persisted fire-and-forget notice to a user.
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
