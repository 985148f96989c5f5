package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/pharmacy-staffing/internal/persistence"
)

// PostingRepository implements persistence.PostingRepository using SQLite.
type PostingRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewPostingRepository creates a new SQLite posting repository.
func NewPostingRepository(pool *ConnectionPool) *PostingRepository {
	return &PostingRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const postingColumns = `id, pharmacy_id, title, daily_rate, weekdays, shift_start, shift_end, break_minutes, period_start, period_end, open, created_at, updated_at`

// CreatePosting stores a new posting.
func (r *PostingRepository) CreatePosting(ctx context.Context, posting persistence.Posting) error {
	if posting.ID == "" || posting.PharmacyID == "" || strings.TrimSpace(posting.Title) == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO postings (`+postingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		posting.ID,
		posting.PharmacyID,
		posting.Title,
		posting.DailyRate,
		encodeWeekdays(posting.Weekdays),
		posting.ShiftStart,
		posting.ShiftEnd,
		posting.BreakMinutes,
		formatDate(posting.PeriodStart),
		formatDate(posting.PeriodEnd),
		posting.Open,
		formatTime(posting.CreatedAt),
		formatTime(posting.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetPosting retrieves a posting by id.
func (r *PostingRepository) GetPosting(ctx context.Context, id string) (persistence.Posting, error) {
	row := r.helper.QueryRow(ctx, `SELECT `+postingColumns+` FROM postings WHERE id = ?`, id)
	return scanPosting(row)
}

// SetPostingOpen flips the accepting-applications flag.
func (r *PostingRepository) SetPostingOpen(ctx context.Context, id string, open bool, updatedAt time.Time) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE postings SET open = ?, updated_at = ? WHERE id = ?`,
		open, formatTime(updatedAt), id)
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
}

// ListOpenPostings returns all postings currently accepting applications.
func (r *PostingRepository) ListOpenPostings(ctx context.Context) ([]persistence.Posting, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+postingColumns+` FROM postings WHERE open = 1 ORDER BY created_at DESC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()
	return collectPostings(rows)
}

// ListPostingsByPharmacy returns the pharmacy's postings, newest first.
func (r *PostingRepository) ListPostingsByPharmacy(ctx context.Context, pharmacyID string) ([]persistence.Posting, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT `+postingColumns+` FROM postings WHERE pharmacy_id = ? ORDER BY created_at DESC`, pharmacyID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()
	return collectPostings(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosting(row rowScanner) (persistence.Posting, error) {
	var posting persistence.Posting
	var weekdays, periodStart, periodEnd, createdAt, updatedAt string

	err := row.Scan(
		&posting.ID,
		&posting.PharmacyID,
		&posting.Title,
		&posting.DailyRate,
		&weekdays,
		&posting.ShiftStart,
		&posting.ShiftEnd,
		&posting.BreakMinutes,
		&periodStart,
		&periodEnd,
		&posting.Open,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Posting{}, persistence.ErrNotFound
		}
		return persistence.Posting{}, err
	}

	if posting.Weekdays, err = decodeWeekdays(weekdays); err != nil {
		return persistence.Posting{}, err
	}
	if posting.PeriodStart, err = parseDate(periodStart); err != nil {
		return persistence.Posting{}, err
	}
	if posting.PeriodEnd, err = parseDate(periodEnd); err != nil {
		return persistence.Posting{}, err
	}
	if posting.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Posting{}, err
	}
	if posting.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Posting{}, err
	}
	return posting, nil
}

func collectPostings(rows *sql.Rows) ([]persistence.Posting, error) {
	var postings []persistence.Posting
	for rows.Next() {
		posting, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		postings = append(postings, posting)
	}
	return postings, rows.Err()
}
