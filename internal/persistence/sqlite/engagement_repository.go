package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/pharmacy-staffing/internal/persistence"
)

// EngagementRepository implements persistence.EngagementRepository using SQLite.
type EngagementRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewEngagementRepository creates a new SQLite engagement repository.
func NewEngagementRepository(pool *ConnectionPool) *EngagementRepository {
	return &EngagementRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const engagementColumns = `id, application_id, pharmacy_id, pharmacist_id, status, daily_rate, work_day_count, total_compensation, contract_start, contract_end, terms_text, notice_ref, personal_info_disclosed, disclosed_at, offer_sent_at, accepted_at, rejected_at, rejection_reason`

// CreateEngagementWithFee commits the engagement and its optional fee as one
// unit. The partial unique index on live engagements turns a second
// non-terminal offer for the same application into ErrDuplicate.
func (r *EngagementRepository) CreateEngagementWithFee(ctx context.Context, engagement persistence.Engagement, fee *persistence.Fee) error {
	if engagement.ID == "" || engagement.ApplicationID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(tx, `
			INSERT INTO engagements (`+engagementColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			engagement.ID,
			engagement.ApplicationID,
			engagement.PharmacyID,
			engagement.PharmacistID,
			engagement.Status,
			engagement.DailyRate,
			engagement.WorkDayCount,
			engagement.TotalCompensation,
			formatDate(engagement.ContractStart),
			formatDate(engagement.ContractEnd),
			engagement.TermsText,
			nullString(engagement.NoticeRef),
			engagement.PersonalInfoDisclosed,
			formatTimePtr(engagement.DisclosedAt),
			formatTime(engagement.OfferSentAt),
			formatTimePtr(engagement.AcceptedAt),
			formatTimePtr(engagement.RejectedAt),
			nullString(engagement.RejectionReason),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		if fee != nil {
			_, err = r.helper.ExecTx(tx, `
				INSERT INTO fees (id, engagement_id, amount, status, payment_deadline, paid_at, invoice_ref, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				fee.ID,
				engagement.ID,
				fee.Amount,
				fee.Status,
				formatDate(fee.PaymentDeadline),
				formatTimePtr(fee.PaidAt),
				nullString(fee.InvoiceRef),
				formatTime(fee.CreatedAt),
				formatTime(fee.CreatedAt),
			)
			if err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

// GetEngagement retrieves an engagement by id.
func (r *EngagementRepository) GetEngagement(ctx context.Context, id string) (persistence.Engagement, error) {
	row := r.helper.QueryRow(ctx, `SELECT `+engagementColumns+` FROM engagements WHERE id = ?`, id)
	return scanEngagement(row)
}

// ActivateEngagement transitions pending -> active, records the notice
// reference and inserts the materialized shifts, all as one unit. Shifts
// whose work date the engagement already carries are skipped.
func (r *EngagementRepository) ActivateEngagement(ctx context.Context, id string, acceptedAt time.Time, noticeRef *string, shifts []persistence.WorkShift) (int, error) {
	inserted := 0
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(tx, `
			UPDATE engagements
			SET status = 'active', accepted_at = ?, notice_ref = ?
			WHERE id = ? AND status = 'pending'`,
			formatTime(acceptedAt), nullString(noticeRef), id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			var exists int
			if err := r.helper.QueryRowTx(tx, `SELECT COUNT(*) FROM engagements WHERE id = ?`, id).Scan(&exists); err != nil {
				return r.mapper.MapError(err)
			}
			if exists == 0 {
				return persistence.ErrNotFound
			}
			return persistence.ErrStaleStatus
		}

		for _, shift := range shifts {
			res, err := r.helper.ExecTx(tx, `
				INSERT OR IGNORE INTO work_shifts (id, engagement_id, work_date, start_time, end_time, break_minutes, notes, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				shift.ID,
				id,
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
			n, err := res.RowsAffected()
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

// RejectEngagement transitions pending -> rejected and deactivates the
// application's conversation as one unit.
func (r *EngagementRepository) RejectEngagement(ctx context.Context, id string, rejectedAt time.Time, reason *string) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(tx, `
			UPDATE engagements
			SET status = 'rejected', rejected_at = ?, rejection_reason = ?
			WHERE id = ? AND status = 'pending'`,
			formatTime(rejectedAt), nullString(reason), id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			var exists int
			if err := r.helper.QueryRowTx(tx, `SELECT COUNT(*) FROM engagements WHERE id = ?`, id).Scan(&exists); err != nil {
				return r.mapper.MapError(err)
			}
			if exists == 0 {
				return persistence.ErrNotFound
			}
			return persistence.ErrStaleStatus
		}

		_, err = r.helper.ExecTx(tx, `
			UPDATE conversations
			SET is_active = 0
			WHERE application_id = (SELECT application_id FROM engagements WHERE id = ?)`, id)
		return r.mapper.MapError(err)
	})
}

// ListEngagementsByPharmacy returns the pharmacy's engagements, newest first.
func (r *EngagementRepository) ListEngagementsByPharmacy(ctx context.Context, pharmacyID string) ([]persistence.Engagement, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT `+engagementColumns+` FROM engagements WHERE pharmacy_id = ? ORDER BY offer_sent_at DESC`, pharmacyID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()
	return collectEngagements(rows)
}

// ListEngagementsByPharmacist returns the pharmacist's engagements, newest first.
func (r *EngagementRepository) ListEngagementsByPharmacist(ctx context.Context, pharmacistID string) ([]persistence.Engagement, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT `+engagementColumns+` FROM engagements WHERE pharmacist_id = ? ORDER BY offer_sent_at DESC`, pharmacistID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()
	return collectEngagements(rows)
}

// DisclosureByApplicationIDs reports, per application id, whether a disclosed
// engagement currently exists.
func (r *EngagementRepository) DisclosureByApplicationIDs(ctx context.Context, applicationIDs []string) (map[string]bool, error) {
	disclosed := make(map[string]bool, len(applicationIDs))
	if len(applicationIDs) == 0 {
		return disclosed, nil
	}

	args := make([]any, 0, len(applicationIDs))
	for _, id := range applicationIDs {
		args = append(args, id)
	}

	rows, err := r.helper.Query(ctx, `
		SELECT application_id
		FROM engagements
		WHERE application_id IN (`+placeholders(len(applicationIDs))+`)
		  AND personal_info_disclosed = 1`, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		disclosed[id] = true
	}
	return disclosed, rows.Err()
}

func scanEngagement(row rowScanner) (persistence.Engagement, error) {
	var engagement persistence.Engagement
	var contractStart, contractEnd, offerSentAt string
	var noticeRef, disclosedAt, acceptedAt, rejectedAt, rejectionReason sql.NullString

	err := row.Scan(
		&engagement.ID,
		&engagement.ApplicationID,
		&engagement.PharmacyID,
		&engagement.PharmacistID,
		&engagement.Status,
		&engagement.DailyRate,
		&engagement.WorkDayCount,
		&engagement.TotalCompensation,
		&contractStart,
		&contractEnd,
		&engagement.TermsText,
		&noticeRef,
		&engagement.PersonalInfoDisclosed,
		&disclosedAt,
		&offerSentAt,
		&acceptedAt,
		&rejectedAt,
		&rejectionReason,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Engagement{}, persistence.ErrNotFound
		}
		return persistence.Engagement{}, err
	}

	engagement.NoticeRef = stringPtr(noticeRef)
	engagement.RejectionReason = stringPtr(rejectionReason)
	if engagement.ContractStart, err = parseDate(contractStart); err != nil {
		return persistence.Engagement{}, err
	}
	if engagement.ContractEnd, err = parseDate(contractEnd); err != nil {
		return persistence.Engagement{}, err
	}
	if engagement.OfferSentAt, err = parseTime(offerSentAt); err != nil {
		return persistence.Engagement{}, err
	}
	if engagement.DisclosedAt, err = parseTimePtr(disclosedAt); err != nil {
		return persistence.Engagement{}, err
	}
	if engagement.AcceptedAt, err = parseTimePtr(acceptedAt); err != nil {
		return persistence.Engagement{}, err
	}
	if engagement.RejectedAt, err = parseTimePtr(rejectedAt); err != nil {
		return persistence.Engagement{}, err
	}
	return engagement, nil
}

func collectEngagements(rows *sql.Rows) ([]persistence.Engagement, error) {
	var engagements []persistence.Engagement
	for rows.Next() {
		engagement, err := scanEngagement(rows)
		if err != nil {
			return nil, err
		}
		engagements = append(engagements, engagement)
	}
	return engagements, rows.Err()
}
