package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/pharmacy-staffing/internal/persistence"
)

type postingRepoStub struct {
	posting   Posting
	created   Posting
	openSet   *bool
	list      []Posting
	createErr error
	getErr    error
	setErr    error
	listErr   error
}

func (p *postingRepoStub) CreatePosting(ctx context.Context, posting Posting) error {
	if p.createErr != nil {
		return p.createErr
	}
	p.created = posting
	return nil
}

func (p *postingRepoStub) GetPosting(ctx context.Context, id string) (Posting, error) {
	if p.getErr != nil {
		return Posting{}, p.getErr
	}
	if p.posting.ID == "" {
		return Posting{}, persistence.ErrNotFound
	}
	return p.posting, nil
}

func (p *postingRepoStub) SetPostingOpen(ctx context.Context, id string, open bool, updatedAt time.Time) error {
	if p.setErr != nil {
		return p.setErr
	}
	p.openSet = &open
	return nil
}

func (p *postingRepoStub) ListOpenPostings(ctx context.Context) ([]Posting, error) {
	if p.listErr != nil {
		return nil, p.listErr
	}
	return p.list, nil
}

func (p *postingRepoStub) ListPostingsByPharmacy(ctx context.Context, pharmacyID string) ([]Posting, error) {
	if p.listErr != nil {
		return nil, p.listErr
	}
	return p.list, nil
}

type counterStub struct {
	counts map[string]int
	err    error
}

func (c *counterStub) CountApplicationsByPostingIDs(ctx context.Context, postingIDs []string) (map[string]int, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.counts, nil
}

func validPostingInput() PostingInput {
	return PostingInput{
		Title:        "土日勤務できる薬剤師を募集",
		DailyRate:    30000,
		Weekdays:     []time.Weekday{time.Saturday, time.Sunday},
		ShiftStart:   "09:00",
		ShiftEnd:     "18:00",
		BreakMinutes: 60,
		PeriodStart:  jstDate(2025, 4, 1),
		PeriodEnd:    jstDate(2025, 5, 31),
	}
}

func TestPostingService_Create(t *testing.T) {
	t.Parallel()

	pharmacy := Principal{UserID: "pharm-1", Role: RolePharmacy}

	t.Run("publishes an open posting", func(t *testing.T) {
		repo := &postingRepoStub{}
		svc := NewPostingService(repo, &counterStub{}, sequenceIDs("post-1"), fixedNow(t), nil)

		posting, err := svc.Create(context.Background(), CreatePostingParams{Principal: pharmacy, Input: validPostingInput()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !posting.Open {
			t.Fatal("new postings must open for applications")
		}
		if posting.PharmacyID != "pharm-1" {
			t.Fatalf("unexpected pharmacy id %q", posting.PharmacyID)
		}
	})

	t.Run("validates rate, weekdays and period", func(t *testing.T) {
		svc := NewPostingService(&postingRepoStub{}, &counterStub{}, nil, fixedNow(t), nil)
		input := validPostingInput()
		input.DailyRate = 1000
		input.Weekdays = nil
		input.PeriodEnd = jstDate(2025, 3, 1)

		_, err := svc.Create(context.Background(), CreatePostingParams{Principal: pharmacy, Input: input})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"daily_rate", "weekdays", "period"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error, got %+v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("requires a pharmacy principal", func(t *testing.T) {
		svc := NewPostingService(&postingRepoStub{}, &counterStub{}, nil, fixedNow(t), nil)

		_, err := svc.Create(context.Background(), CreatePostingParams{Principal: Principal{UserID: "ph-1", Role: RolePharmacist}, Input: validPostingInput()})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestPostingService_Close(t *testing.T) {
	t.Parallel()

	owner := Principal{UserID: "pharm-1", Role: RolePharmacy}
	open := Posting{ID: "post-1", PharmacyID: "pharm-1", Open: true}

	t.Run("closes an owned open posting", func(t *testing.T) {
		repo := &postingRepoStub{posting: open}
		svc := NewPostingService(repo, &counterStub{}, nil, fixedNow(t), nil)

		posting, err := svc.Close(context.Background(), owner, "post-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if posting.Open {
			t.Fatal("expected the posting to close")
		}
	})

	t.Run("closing twice fails with invalid state", func(t *testing.T) {
		closed := open
		closed.Open = false
		svc := NewPostingService(&postingRepoStub{posting: closed}, &counterStub{}, nil, fixedNow(t), nil)

		_, err := svc.Close(context.Background(), owner, "post-1")
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("denies non-owners", func(t *testing.T) {
		svc := NewPostingService(&postingRepoStub{posting: open}, &counterStub{}, nil, fixedNow(t), nil)

		_, err := svc.Close(context.Background(), Principal{UserID: "pharm-2", Role: RolePharmacy}, "post-1")
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestPostingService_ListOpen(t *testing.T) {
	t.Parallel()

	repo := &postingRepoStub{list: []Posting{
		{ID: "post-1", PharmacyID: "pharm-1", Open: true},
		{ID: "post-2", PharmacyID: "pharm-2", Open: true},
	}}
	counter := &counterStub{counts: map[string]int{"post-1": 3}}
	svc := NewPostingService(repo, counter, nil, fixedNow(t), nil)

	postings, err := svc.ListOpen(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if postings[0].ApplicantCount != 3 {
		t.Fatalf("expected derived count 3, got %d", postings[0].ApplicantCount)
	}
	if postings[1].ApplicantCount != 0 {
		t.Fatalf("expected zero count for post-2, got %d", postings[1].ApplicantCount)
	}
}
