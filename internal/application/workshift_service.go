package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/pharmacy-staffing/internal/recurrence"
)

// WorkShiftRepository captures the persistence interactions needed by the service.
type WorkShiftRepository interface {
	// InsertWorkShifts inserts the given shifts, silently skipping dates the
	// engagement already has, and reports how many rows were created.
	InsertWorkShifts(ctx context.Context, shifts []WorkShift) (int, error)
	GetWorkShift(ctx context.Context, id string) (WorkShift, error)
	DeleteWorkShift(ctx context.Context, id string) error
	ListWorkShifts(ctx context.Context, engagementID string) ([]WorkShift, error)
}

// WorkShiftService manages the calendar shifts attached to active engagements.
type WorkShiftService struct {
	shifts      WorkShiftRepository
	engagements EngagementRepository
	recurrence  *recurrence.Engine
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewWorkShiftService wires dependencies for shift operations.
func NewWorkShiftService(shifts WorkShiftRepository, engagements EngagementRepository, engine *recurrence.Engine, idGenerator func() string, now func() time.Time, logger *slog.Logger) *WorkShiftService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	return &WorkShiftService{
		shifts:      shifts,
		engagements: engagements,
		recurrence:  engine,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *WorkShiftService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "WorkShiftService", operation, attrs...)
}

// activeEngagementFor loads the engagement and verifies the pharmacy owns it
// and that it is active. Shifts only exist under active contracts.
func (s *WorkShiftService) activeEngagementFor(ctx context.Context, principal Principal, engagementID string) (Engagement, error) {
	actor, err := principal.AsPharmacy()
	if err != nil {
		return Engagement{}, err
	}

	engagement, err := s.engagements.GetEngagement(ctx, engagementID)
	if err != nil {
		return Engagement{}, mapRepoError(err)
	}
	if engagement.PharmacyID != actor.PharmacyID {
		return Engagement{}, ErrForbidden
	}
	if engagement.Status != EngagementActive {
		return Engagement{}, ErrInvalidState
	}
	return engagement, nil
}

// CreateShift adds a single shift to an active engagement. A duplicate work
// date for the engagement fails with ErrConflict.
func (s *WorkShiftService) CreateShift(ctx context.Context, params CreateShiftParams) (WorkShift, error) {
	if s == nil || s.shifts == nil {
		return WorkShift{}, fmt.Errorf("work shift repository not configured")
	}

	engagement, err := s.activeEngagementFor(ctx, params.Principal, params.EngagementID)
	if err != nil {
		return WorkShift{}, err
	}

	logger := s.loggerWith(ctx, "CreateShift", "engagement_id", engagement.ID)

	input := params.Input
	if vErr := validateShiftInput(input, engagement); vErr.HasErrors() {
		return WorkShift{}, vErr
	}

	shift := WorkShift{
		ID:           s.idGenerator(),
		EngagementID: engagement.ID,
		WorkDate:     input.WorkDate,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		BreakMinutes: input.BreakMinutes,
		Notes:        input.Notes,
		CreatedAt:    s.now(),
	}

	inserted, err := s.shifts.InsertWorkShifts(ctx, []WorkShift{shift})
	if err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to create shift", "error", err, "error_kind", ErrorKind(err))
		return WorkShift{}, err
	}
	if inserted == 0 {
		return WorkShift{}, ErrConflict
	}

	logger.InfoContext(ctx, "shift created", "shift_id", shift.ID, "work_date", shift.WorkDate.Format("2006-01-02"))
	return shift, nil
}

// BulkCreateShifts expands a weekday pattern across the contract period and
// inserts the resulting shifts. Dates that already carry a shift are skipped,
// so the operation can be repeated safely.
func (s *WorkShiftService) BulkCreateShifts(ctx context.Context, params BulkCreateShiftsParams) (int, error) {
	if s == nil || s.shifts == nil {
		return 0, fmt.Errorf("work shift repository not configured")
	}

	engagement, err := s.activeEngagementFor(ctx, params.Principal, params.EngagementID)
	if err != nil {
		return 0, err
	}

	logger := s.loggerWith(ctx, "BulkCreateShifts", "engagement_id", engagement.ID)

	if vErr := validateShiftTimes(params.StartTime, params.EndTime); vErr.HasErrors() {
		return 0, vErr
	}

	dates, err := s.recurrence.WorkDates(recurrence.Rule{
		Weekdays: params.Weekdays,
		Start:    engagement.ContractStart,
		End:      engagement.ContractEnd,
	})
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("contract_period", "contract period is invalid")
		return 0, vErr
	}

	now := s.now()
	shifts := make([]WorkShift, 0, len(dates))
	for _, date := range dates {
		shifts = append(shifts, WorkShift{
			ID:           s.idGenerator(),
			EngagementID: engagement.ID,
			WorkDate:     date,
			StartTime:    params.StartTime,
			EndTime:      params.EndTime,
			BreakMinutes: params.BreakMinutes,
			CreatedAt:    now,
		})
	}

	inserted, err := s.shifts.InsertWorkShifts(ctx, shifts)
	if err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "bulk shift creation failed", "error", err, "error_kind", ErrorKind(err))
		return 0, err
	}

	logger.InfoContext(ctx, "shifts created", "requested", len(shifts), "inserted", inserted)
	return inserted, nil
}

// DeleteShift removes a shift that has no attendance record. A shift with
// recorded attendance fails with ErrInvalidState.
func (s *WorkShiftService) DeleteShift(ctx context.Context, principal Principal, shiftID string) error {
	if s == nil || s.shifts == nil {
		return fmt.Errorf("work shift repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteShift", "shift_id", shiftID)

	shift, err := s.shifts.GetWorkShift(ctx, shiftID)
	if err != nil {
		return mapRepoError(err)
	}
	if _, err := s.activeEngagementFor(ctx, principal, shift.EngagementID); err != nil {
		return err
	}

	if err := s.shifts.DeleteWorkShift(ctx, shiftID); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "shift deletion failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "shift deleted")
	return nil
}

// ListShifts returns the shifts of an engagement to either contract party.
func (s *WorkShiftService) ListShifts(ctx context.Context, principal Principal, engagementID string) ([]WorkShift, error) {
	if s == nil || s.shifts == nil {
		return nil, fmt.Errorf("work shift repository not configured")
	}

	engagement, err := s.engagements.GetEngagement(ctx, engagementID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	switch principal.Role {
	case RolePharmacy:
		actor, err := principal.AsPharmacy()
		if err != nil {
			return nil, err
		}
		if engagement.PharmacyID != actor.PharmacyID {
			return nil, ErrForbidden
		}
	case RolePharmacist:
		actor, err := principal.AsPharmacist()
		if err != nil {
			return nil, err
		}
		if engagement.PharmacistID != actor.PharmacistID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	shifts, err := s.shifts.ListWorkShifts(ctx, engagementID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return shifts, nil
}

func validateShiftInput(input ShiftInput, engagement Engagement) *ValidationError {
	vErr := validateShiftTimes(input.StartTime, input.EndTime)
	if input.WorkDate.IsZero() {
		vErr.add("work_date", "work date is required")
	} else if input.WorkDate.Before(engagement.ContractStart) || input.WorkDate.After(engagement.ContractEnd) {
		vErr.add("work_date", "work date is outside the contract period")
	}
	return vErr
}

func validateShiftTimes(start, end string) *ValidationError {
	vErr := &ValidationError{}
	if _, err := time.Parse("15:04", start); err != nil {
		vErr.add("start_time", "start time must be HH:MM")
	}
	if _, err := time.Parse("15:04", end); err != nil {
		vErr.add("end_time", "end time must be HH:MM")
	} else if start >= end {
		vErr.add("end_time", "end time must be after start time")
	}
	return vErr
}
