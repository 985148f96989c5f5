// Status graphs for the engagement lifecycle.
//
// Application:
//
//	pending ──► under_review ──► accepted
//	    │             │
//	    ├─────────────┴────────► rejected
//	    └──────────────────────► withdrawn
//
// Engagement:
//
//	pending ──► active
//	    └─────► rejected
//
// Fee:
//
//	pending ──► paid | overdue | cancelled
//
// All states without outgoing edges are terminal.
package application

import "fmt"

// ApplicationStatus is the lifecycle state of a pharmacist's candidacy.
type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "pending"
	ApplicationUnderReview ApplicationStatus = "under_review"
	ApplicationAccepted    ApplicationStatus = "accepted"
	ApplicationRejected    ApplicationStatus = "rejected"
	ApplicationWithdrawn   ApplicationStatus = "withdrawn"
)

var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationPending:     {ApplicationUnderReview, ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn},
	ApplicationUnderReview: {ApplicationAccepted, ApplicationRejected},
	// accepted, rejected and withdrawn are terminal
}

// ParseApplicationStatus converts a stored string to a status, rejecting unknown values.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	st := ApplicationStatus(s)
	switch st {
	case ApplicationPending, ApplicationUnderReview, ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// CanTransitionTo reports whether moving to the target status is permitted.
func (s ApplicationStatus) CanTransitionTo(to ApplicationStatus) bool {
	for _, allowed := range applicationTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status has no outgoing transitions.
func (s ApplicationStatus) Terminal() bool {
	return len(applicationTransitions[s]) == 0
}

// EngagementStatus is the lifecycle state of an offered contract.
type EngagementStatus string

const (
	EngagementPending  EngagementStatus = "pending"
	EngagementActive   EngagementStatus = "active"
	EngagementRejected EngagementStatus = "rejected"
)

// ParseEngagementStatus converts a stored string to a status, rejecting unknown values.
func ParseEngagementStatus(s string) (EngagementStatus, error) {
	st := EngagementStatus(s)
	switch st {
	case EngagementPending, EngagementActive, EngagementRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown engagement status %q", s)
}

// FeeStatus is the settlement state of a platform fee.
type FeeStatus string

const (
	FeePending   FeeStatus = "pending"
	FeePaid      FeeStatus = "paid"
	FeeOverdue   FeeStatus = "overdue"
	FeeCancelled FeeStatus = "cancelled"
)

// ParseFeeStatus converts a stored string to a status, rejecting unknown values.
func ParseFeeStatus(s string) (FeeStatus, error) {
	st := FeeStatus(s)
	switch st {
	case FeePending, FeePaid, FeeOverdue, FeeCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown fee status %q", s)
}
