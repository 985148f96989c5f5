// Package testfixtures provides deterministic clocks, identifier generators
// and domain fixtures shared by tests across the module.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/pharmacy-staffing/internal/application"
	"github.com/example/pharmacy-staffing/internal/persistence"
)

var (
	accountCounter    uint64
	postingCounter    uint64
	candidacyCounter  uint64
	engagementCounter uint64
)

var referenceTime = time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// AccountOption configures a generated account fixture.
type AccountOption func(*persistence.Account)

// AsPharmacy marks the account as a pharmacy login.
func AsPharmacy() AccountOption {
	return func(a *persistence.Account) {
		a.Role = "pharmacy"
		a.DisplayName = "さくら薬局"
		a.Address = "東京都千代田区1-2-3"
		a.FirstName = ""
		a.LastName = ""
	}
}

// AsAdmin grants the account administrative privileges.
func AsAdmin() AccountOption {
	return func(a *persistence.Account) { a.IsAdmin = true }
}

// NewAccountFixture returns a deterministic pharmacist account with optional
// overrides applied in order.
func NewAccountFixture(opts ...AccountOption) persistence.Account {
	idx := atomic.AddUint64(&accountCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	account := persistence.Account{
		ID:           fmt.Sprintf("account-%03d", idx),
		Role:         "pharmacist",
		Email:        fmt.Sprintf("user%03d@example.com", idx),
		PasswordHash: "unusable-hash",
		DisplayName:  fmt.Sprintf("薬剤師 %03d", idx),
		FirstName:    "太郎",
		LastName:     "山田",
		Phone:        "090-1234-5678",
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&account)
	}
	return account
}

// PostingOption configures a generated posting fixture.
type PostingOption func(*persistence.Posting)

// NewPostingFixture returns a deterministic open posting owned by pharmacyID.
func NewPostingFixture(pharmacyID string, opts ...PostingOption) persistence.Posting {
	idx := atomic.AddUint64(&postingCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	posting := persistence.Posting{
		ID:           fmt.Sprintf("posting-%03d", idx),
		PharmacyID:   pharmacyID,
		Title:        fmt.Sprintf("薬剤師募集 %03d", idx),
		DailyRate:    30000,
		Weekdays:     []time.Weekday{time.Monday, time.Wednesday},
		ShiftStart:   "09:00",
		ShiftEnd:     "18:00",
		BreakMinutes: 60,
		PeriodStart:  referenceTime.AddDate(0, 0, 7),
		PeriodEnd:    referenceTime.AddDate(0, 2, 0),
		Open:         true,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&posting)
	}
	return posting
}

// NewApplicationFixture returns a pending candidacy tying a pharmacist to a posting.
func NewApplicationFixture(postingID, pharmacistID string) persistence.Application {
	idx := atomic.AddUint64(&candidacyCounter, 1)
	return persistence.Application{
		ID:           fmt.Sprintf("application-%03d", idx),
		PostingID:    postingID,
		PharmacistID: pharmacistID,
		Status:       "pending",
		AppliedAt:    referenceTime.Add(time.Duration(idx) * time.Minute),
	}
}

// NewEngagementFixture returns a pending engagement for the given application.
func NewEngagementFixture(applicationID, pharmacyID, pharmacistID string) persistence.Engagement {
	idx := atomic.AddUint64(&engagementCounter, 1)
	return persistence.Engagement{
		ID:                fmt.Sprintf("engagement-%03d", idx),
		ApplicationID:     applicationID,
		PharmacyID:        pharmacyID,
		PharmacistID:      pharmacistID,
		Status:            "pending",
		DailyRate:         30000,
		WorkDayCount:      20,
		TotalCompensation: 600000,
		ContractStart:     referenceTime.AddDate(0, 0, 14),
		ContractEnd:       referenceTime.AddDate(0, 2, 0),
		OfferSentAt:       referenceTime.Add(time.Duration(idx) * time.Minute),
	}
}

// PharmacyPrincipal returns a principal for the pharmacy side.
func PharmacyPrincipal(id string) application.Principal {
	return application.Principal{UserID: id, Role: application.RolePharmacy}
}

// PharmacistPrincipal returns a principal for the pharmacist side.
func PharmacistPrincipal(id string) application.Principal {
	return application.Principal{UserID: id, Role: application.RolePharmacist}
}

// AdminPrincipal returns an administrative principal.
func AdminPrincipal(id string) application.Principal {
	return application.Principal{UserID: id, Role: application.RolePharmacy, IsAdmin: true}
}
