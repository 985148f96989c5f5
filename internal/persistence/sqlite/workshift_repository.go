package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/pharmacy-staffing/internal/persistence"
)

// WorkShiftRepository implements persistence.WorkShiftRepository using SQLite.
type WorkShiftRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewWorkShiftRepository creates a new SQLite work shift repository.
func NewWorkShiftRepository(pool *ConnectionPool) *WorkShiftRepository {
	return &WorkShiftRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const workShiftColumns = `id, engagement_id, work_date, start_time, end_time, break_minutes, notes, created_at`

// InsertWorkShifts inserts shifts, silently skipping duplicate
// (engagement, work date) rows, and returns the number inserted.
func (r *WorkShiftRepository) InsertWorkShifts(ctx context.Context, shifts []persistence.WorkShift) (int, error) {
	if len(shifts) == 0 {
		return 0, nil
	}

	inserted := 0
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, shift := range shifts {
			if shift.ID == "" || shift.EngagementID == "" {
				return persistence.ErrConstraintViolation
			}
			result, err := r.helper.ExecTx(tx, `
				INSERT OR IGNORE INTO work_shifts (`+workShiftColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				shift.ID,
				shift.EngagementID,
				formatDate(shift.WorkDate),
				shift.StartTime,
				shift.EndTime,
				shift.BreakMinutes,
				shift.Notes,
				formatTime(shift.CreatedAt),
			)
			if err != nil {
				return r.mapper.MapError(err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return err
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// GetWorkShift retrieves a shift by id.
func (r *WorkShiftRepository) GetWorkShift(ctx context.Context, id string) (persistence.WorkShift, error) {
	row := r.helper.QueryRow(ctx, `SELECT `+workShiftColumns+` FROM work_shifts WHERE id = ?`, id)
	return scanWorkShift(row)
}

// ListWorkShiftsByEngagement returns the engagement's shifts in date order.
func (r *WorkShiftRepository) ListWorkShiftsByEngagement(ctx context.Context, engagementID string) ([]persistence.WorkShift, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT `+workShiftColumns+` FROM work_shifts WHERE engagement_id = ? ORDER BY work_date ASC`, engagementID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var shifts []persistence.WorkShift
	for rows.Next() {
		shift, err := scanWorkShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}
	return shifts, rows.Err()
}

// DeleteWorkShift removes a shift. A shift referenced by an attendance record
// fails with ErrConstraintViolation.
func (r *WorkShiftRepository) DeleteWorkShift(ctx context.Context, id string) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var attended int
		if err := r.helper.QueryRowTx(tx, `SELECT COUNT(*) FROM attendances WHERE work_shift_id = ?`, id).Scan(&attended); err != nil {
			return r.mapper.MapError(err)
		}
		if attended > 0 {
			return persistence.ErrConstraintViolation
		}

		result, err := r.helper.ExecTx(tx, `DELETE FROM work_shifts WHERE id = ?`, id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

func scanWorkShift(row rowScanner) (persistence.WorkShift, error) {
	var shift persistence.WorkShift
	var workDate, createdAt string

	err := row.Scan(
		&shift.ID,
		&shift.EngagementID,
		&workDate,
		&shift.StartTime,
		&shift.EndTime,
		&shift.BreakMinutes,
		&shift.Notes,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.WorkShift{}, persistence.ErrNotFound
		}
		return persistence.WorkShift{}, err
	}

	if shift.WorkDate, err = parseDate(workDate); err != nil {
		return persistence.WorkShift{}, err
	}
	if shift.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.WorkShift{}, err
	}
	return shift, nil
}
