package application

import (
	"context"
	"time"
)

// IdentityDirectory exposes read-only profile lookups for display fields.
type IdentityDirectory interface {
	GetPharmacistIdentity(ctx context.Context, pharmacistID string) (PharmacistIdentity, error)
	GetPharmacyProfile(ctx context.Context, pharmacyID string) (PharmacyProfile, error)
}

// NoticeData carries everything the document generator needs to render an
// employment notice.
type NoticeData struct {
	Engagement Engagement
	Pharmacy   PharmacyProfile
	Pharmacist PharmacistIdentity
	Posting    Posting
}

// NoticeDocument is the rendered employment notice.
type NoticeDocument struct {
	TextBody string
	FileRef  string
}

// InvoiceData carries everything the document generator needs to render a
// fee invoice.
type InvoiceData struct {
	Fee        Fee
	Engagement Engagement
	Pharmacy   PharmacyProfile
	Pharmacist PharmacistIdentity
}

// DocumentGenerator renders human-readable documents. Either method may fail
// independently; callers log the failure and continue without a reference.
type DocumentGenerator interface {
	GenerateNotice(ctx context.Context, data NoticeData) (NoticeDocument, error)
	GenerateInvoice(ctx context.Context, data InvoiceData) (string, error)
}

// Notifier delivers fire-and-forget notifications. Failures are swallowed by
// callers after logging.
type Notifier interface {
	Emit(ctx context.Context, recipientID, notificationType, title, body, relatedID, actionURL string) error
}

// EmailSender delivers the invoice email issued on fee creation. A failure
// must never roll back fee or engagement creation.
type EmailSender interface {
	SendInvoiceIssued(ctx context.Context, to string, fee Fee, deadline time.Time) error
}
