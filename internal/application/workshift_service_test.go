package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/pharmacy-staffing/internal/persistence"
)

type workShiftRepoStub struct {
	shift     WorkShift
	inserted  []WorkShift
	skip      int
	list      []WorkShift
	insertErr error
	getErr    error
	deleteErr error
	listErr   error
}

func (w *workShiftRepoStub) InsertWorkShifts(ctx context.Context, shifts []WorkShift) (int, error) {
	if w.insertErr != nil {
		return 0, w.insertErr
	}
	w.inserted = shifts
	count := len(shifts) - w.skip
	if count < 0 {
		count = 0
	}
	return count, nil
}

func (w *workShiftRepoStub) GetWorkShift(ctx context.Context, id string) (WorkShift, error) {
	if w.getErr != nil {
		return WorkShift{}, w.getErr
	}
	if w.shift.ID == "" {
		return WorkShift{}, persistence.ErrNotFound
	}
	return w.shift, nil
}

func (w *workShiftRepoStub) DeleteWorkShift(ctx context.Context, id string) error {
	return w.deleteErr
}

func (w *workShiftRepoStub) ListWorkShifts(ctx context.Context, engagementID string) ([]WorkShift, error) {
	if w.listErr != nil {
		return nil, w.listErr
	}
	return w.list, nil
}

func activeEngagement() Engagement {
	return Engagement{
		ID: "eng-1", PharmacyID: "pharm-1", PharmacistID: "ph-1",
		Status:        EngagementActive,
		ContractStart: jstDate(2025, 3, 3), ContractEnd: jstDate(2025, 3, 14),
	}
}

func newWorkShiftService(t *testing.T, shifts *workShiftRepoStub, engagements *engagementRepoStub) *WorkShiftService {
	t.Helper()
	return NewWorkShiftService(shifts, engagements, nil, sequenceIDs("shift-1", "shift-2", "shift-3", "shift-4"), fixedNow(t), nil)
}

func TestWorkShiftService_CreateShift(t *testing.T) {
	t.Parallel()

	owner := Principal{UserID: "pharm-1", Role: RolePharmacy}

	t.Run("creates a shift inside the contract period", func(t *testing.T) {
		shifts := &workShiftRepoStub{}
		svc := newWorkShiftService(t, shifts, &engagementRepoStub{engagement: activeEngagement()})

		shift, err := svc.CreateShift(context.Background(), CreateShiftParams{
			Principal:    owner,
			EngagementID: "eng-1",
			Input:        ShiftInput{WorkDate: jstDate(2025, 3, 7), StartTime: "09:00", EndTime: "18:00", BreakMinutes: 60},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if shift.EngagementID != "eng-1" {
			t.Fatalf("unexpected engagement id %q", shift.EngagementID)
		}
		if len(shifts.inserted) != 1 {
			t.Fatalf("expected one insert, got %d", len(shifts.inserted))
		}
	})

	t.Run("refuses a date outside the contract period", func(t *testing.T) {
		svc := newWorkShiftService(t, &workShiftRepoStub{}, &engagementRepoStub{engagement: activeEngagement()})

		_, err := svc.CreateShift(context.Background(), CreateShiftParams{
			Principal:    owner,
			EngagementID: "eng-1",
			Input:        ShiftInput{WorkDate: jstDate(2025, 6, 1), StartTime: "09:00", EndTime: "18:00"},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["work_date"]; !ok {
			t.Fatalf("expected work_date error, got %+v", vErr.FieldErrors)
		}
	})

	t.Run("duplicate work date is a conflict", func(t *testing.T) {
		shifts := &workShiftRepoStub{skip: 1}
		svc := newWorkShiftService(t, shifts, &engagementRepoStub{engagement: activeEngagement()})

		_, err := svc.CreateShift(context.Background(), CreateShiftParams{
			Principal:    owner,
			EngagementID: "eng-1",
			Input:        ShiftInput{WorkDate: jstDate(2025, 3, 7), StartTime: "09:00", EndTime: "18:00"},
		})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("refuses pending engagements", func(t *testing.T) {
		pending := activeEngagement()
		pending.Status = EngagementPending
		svc := newWorkShiftService(t, &workShiftRepoStub{}, &engagementRepoStub{engagement: pending})

		_, err := svc.CreateShift(context.Background(), CreateShiftParams{
			Principal:    owner,
			EngagementID: "eng-1",
			Input:        ShiftInput{WorkDate: jstDate(2025, 3, 7), StartTime: "09:00", EndTime: "18:00"},
		})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})
}

func TestWorkShiftService_BulkCreateShifts(t *testing.T) {
	t.Parallel()

	owner := Principal{UserID: "pharm-1", Role: RolePharmacy}

	t.Run("expands the weekday pattern across the contract", func(t *testing.T) {
		shifts := &workShiftRepoStub{}
		svc := newWorkShiftService(t, shifts, &engagementRepoStub{engagement: activeEngagement()})

		inserted, err := svc.BulkCreateShifts(context.Background(), BulkCreateShiftsParams{
			Principal:    owner,
			EngagementID: "eng-1",
			Weekdays:     []time.Weekday{time.Monday, time.Friday},
			StartTime:    "09:00",
			EndTime:      "18:00",
			BreakMinutes: 45,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Mondays and Fridays between 2025-03-03 and 2025-03-14.
		if inserted != 4 {
			t.Fatalf("expected 4 shifts, got %d", inserted)
		}
	})

	t.Run("repeat invocation reports only new rows", func(t *testing.T) {
		shifts := &workShiftRepoStub{skip: 3}
		svc := newWorkShiftService(t, shifts, &engagementRepoStub{engagement: activeEngagement()})

		inserted, err := svc.BulkCreateShifts(context.Background(), BulkCreateShiftsParams{
			Principal:    owner,
			EngagementID: "eng-1",
			Weekdays:     []time.Weekday{time.Monday, time.Friday},
			StartTime:    "09:00",
			EndTime:      "18:00",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if inserted != 1 {
			t.Fatalf("expected 1 new shift, got %d", inserted)
		}
	})

	t.Run("rejects malformed times", func(t *testing.T) {
		svc := newWorkShiftService(t, &workShiftRepoStub{}, &engagementRepoStub{engagement: activeEngagement()})

		_, err := svc.BulkCreateShifts(context.Background(), BulkCreateShiftsParams{
			Principal:    owner,
			EngagementID: "eng-1",
			Weekdays:     []time.Weekday{time.Monday},
			StartTime:    "nine",
			EndTime:      "18:00",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestWorkShiftService_DeleteShift(t *testing.T) {
	t.Parallel()

	owner := Principal{UserID: "pharm-1", Role: RolePharmacy}
	shift := WorkShift{ID: "shift-1", EngagementID: "eng-1", WorkDate: jstDate(2025, 3, 7)}

	t.Run("deletes an unattended shift", func(t *testing.T) {
		shifts := &workShiftRepoStub{shift: shift}
		svc := newWorkShiftService(t, shifts, &engagementRepoStub{engagement: activeEngagement()})

		if err := svc.DeleteShift(context.Background(), owner, "shift-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("attendance blocks deletion", func(t *testing.T) {
		shifts := &workShiftRepoStub{shift: shift, deleteErr: persistence.ErrConstraintViolation}
		svc := newWorkShiftService(t, shifts, &engagementRepoStub{engagement: activeEngagement()})

		err := svc.DeleteShift(context.Background(), owner, "shift-1")
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("denies a non-owner pharmacy", func(t *testing.T) {
		shifts := &workShiftRepoStub{shift: shift}
		svc := newWorkShiftService(t, shifts, &engagementRepoStub{engagement: activeEngagement()})

		err := svc.DeleteShift(context.Background(), Principal{UserID: "pharm-2", Role: RolePharmacy}, "shift-1")
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestWorkShiftService_ListShifts(t *testing.T) {
	t.Parallel()

	engagement := activeEngagement()
	list := []WorkShift{{ID: "shift-1", EngagementID: "eng-1"}}

	t.Run("either contract party may list", func(t *testing.T) {
		shifts := &workShiftRepoStub{list: list}
		svc := newWorkShiftService(t, shifts, &engagementRepoStub{engagement: engagement})

		for _, principal := range []Principal{
			{UserID: "pharm-1", Role: RolePharmacy},
			{UserID: "ph-1", Role: RolePharmacist},
		} {
			got, err := svc.ListShifts(context.Background(), principal, "eng-1")
			if err != nil {
				t.Fatalf("unexpected error for %s: %v", principal.Role, err)
			}
			if len(got) != 1 {
				t.Fatalf("expected 1 shift for %s, got %d", principal.Role, len(got))
			}
		}
	})

	t.Run("outsiders are denied", func(t *testing.T) {
		svc := newWorkShiftService(t, &workShiftRepoStub{list: list}, &engagementRepoStub{engagement: engagement})

		_, err := svc.ListShifts(context.Background(), Principal{UserID: "ph-2", Role: RolePharmacist}, "eng-1")
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}
