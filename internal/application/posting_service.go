package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// PostingRepository captures the persistence interactions needed by the service.
type PostingRepository interface {
	CreatePosting(ctx context.Context, posting Posting) error
	GetPosting(ctx context.Context, id string) (Posting, error)
	SetPostingOpen(ctx context.Context, id string, open bool, updatedAt time.Time) error
	ListOpenPostings(ctx context.Context) ([]Posting, error)
	ListPostingsByPharmacy(ctx context.Context, pharmacyID string) ([]Posting, error)
}

// ApplicationCounter derives applicant counts from the applications table.
// Counts are never stored on the posting row.
type ApplicationCounter interface {
	CountApplicationsByPostingIDs(ctx context.Context, postingIDs []string) (map[string]int, error)
}

// PostingService manages staffing requests published by pharmacies.
type PostingService struct {
	postings    PostingRepository
	counter     ApplicationCounter
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewPostingService wires dependencies for posting operations.
func NewPostingService(postings PostingRepository, counter ApplicationCounter, idGenerator func() string, now func() time.Time, logger *slog.Logger) *PostingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &PostingService{
		postings:    postings,
		counter:     counter,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *PostingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PostingService", operation, attrs...)
}

// Create publishes a new open posting for the calling pharmacy.
func (s *PostingService) Create(ctx context.Context, params CreatePostingParams) (Posting, error) {
	if s == nil || s.postings == nil {
		return Posting{}, fmt.Errorf("posting repository not configured")
	}

	actor, err := params.Principal.AsPharmacy()
	if err != nil {
		return Posting{}, err
	}

	logger := s.loggerWith(ctx, "Create", "pharmacy_id", actor.PharmacyID)

	input := params.Input
	if vErr := validatePostingInput(input); vErr.HasErrors() {
		return Posting{}, vErr
	}

	now := s.now()
	posting := Posting{
		ID:           s.idGenerator(),
		PharmacyID:   actor.PharmacyID,
		Title:        strings.TrimSpace(input.Title),
		DailyRate:    input.DailyRate,
		Weekdays:     input.Weekdays,
		ShiftStart:   input.ShiftStart,
		ShiftEnd:     input.ShiftEnd,
		BreakMinutes: input.BreakMinutes,
		PeriodStart:  input.PeriodStart,
		PeriodEnd:    input.PeriodEnd,
		Open:         true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.postings.CreatePosting(ctx, posting); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to create posting", "error", err, "error_kind", ErrorKind(err))
		return Posting{}, err
	}

	logger.InfoContext(ctx, "posting created", "posting_id", posting.ID)
	return posting, nil
}

// Close stops a posting from accepting further applications. Existing
// applications and engagements are unaffected.
func (s *PostingService) Close(ctx context.Context, principal Principal, postingID string) (Posting, error) {
	if s == nil || s.postings == nil {
		return Posting{}, fmt.Errorf("posting repository not configured")
	}

	actor, err := principal.AsPharmacy()
	if err != nil {
		return Posting{}, err
	}

	logger := s.loggerWith(ctx, "Close", "posting_id", postingID)

	posting, err := s.postings.GetPosting(ctx, postingID)
	if err != nil {
		return Posting{}, mapRepoError(err)
	}
	if posting.PharmacyID != actor.PharmacyID {
		return Posting{}, ErrForbidden
	}
	if !posting.Open {
		return Posting{}, ErrInvalidState
	}

	now := s.now()
	if err := s.postings.SetPostingOpen(ctx, postingID, false, now); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to close posting", "error", err, "error_kind", ErrorKind(err))
		return Posting{}, err
	}

	posting.Open = false
	posting.UpdatedAt = now
	logger.InfoContext(ctx, "posting closed")
	return posting, nil
}

// ListOpen returns all open postings with applicant counts derived from the
// applications table at read time.
func (s *PostingService) ListOpen(ctx context.Context) ([]Posting, error) {
	if s == nil || s.postings == nil {
		return nil, fmt.Errorf("posting repository not configured")
	}

	postings, err := s.postings.ListOpenPostings(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return s.withApplicantCounts(ctx, postings)
}

// ListMine returns the calling pharmacy's postings, open and closed.
func (s *PostingService) ListMine(ctx context.Context, principal Principal) ([]Posting, error) {
	if s == nil || s.postings == nil {
		return nil, fmt.Errorf("posting repository not configured")
	}

	actor, err := principal.AsPharmacy()
	if err != nil {
		return nil, err
	}

	postings, err := s.postings.ListPostingsByPharmacy(ctx, actor.PharmacyID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return s.withApplicantCounts(ctx, postings)
}

// Get returns one posting with its derived applicant count.
func (s *PostingService) Get(ctx context.Context, postingID string) (Posting, error) {
	if s == nil || s.postings == nil {
		return Posting{}, fmt.Errorf("posting repository not configured")
	}

	posting, err := s.postings.GetPosting(ctx, postingID)
	if err != nil {
		return Posting{}, mapRepoError(err)
	}

	enriched, err := s.withApplicantCounts(ctx, []Posting{posting})
	if err != nil {
		return Posting{}, err
	}
	return enriched[0], nil
}

func (s *PostingService) withApplicantCounts(ctx context.Context, postings []Posting) ([]Posting, error) {
	if s.counter == nil || len(postings) == 0 {
		return postings, nil
	}

	ids := make([]string, 0, len(postings))
	for _, posting := range postings {
		ids = append(ids, posting.ID)
	}
	counts, err := s.counter.CountApplicationsByPostingIDs(ctx, ids)
	if err != nil {
		return nil, mapRepoError(err)
	}

	for i := range postings {
		postings[i].ApplicantCount = counts[postings[i].ID]
	}
	return postings, nil
}

func validatePostingInput(input PostingInput) *ValidationError {
	vErr := validateShiftTimes(input.ShiftStart, input.ShiftEnd)

	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.DailyRate < minDailyRate {
		vErr.add("daily_rate", "daily rate is below the minimum")
	}
	if len(input.Weekdays) == 0 {
		vErr.add("weekdays", "at least one weekday is required")
	}
	if input.PeriodStart.IsZero() || input.PeriodEnd.IsZero() {
		vErr.add("period", "recruitment period is required")
	} else if input.PeriodEnd.Before(input.PeriodStart) {
		vErr.add("period", "period end must not precede start")
	}
	if input.BreakMinutes < 0 {
		vErr.add("break_minutes", "break minutes must not be negative")
	}

	return vErr
}
