package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/pharmacy-staffing/internal/persistence"
)

// ApplicationRepository implements persistence.ApplicationRepository using SQLite.
type ApplicationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewApplicationRepository creates a new SQLite application repository.
func NewApplicationRepository(pool *ConnectionPool) *ApplicationRepository {
	return &ApplicationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const applicationColumns = `id, posting_id, pharmacist_id, status, rejection_reason, applied_at, reviewed_at, decision_at`

// CreateApplicationWithConversation commits the application and its
// conversation thread as one unit. A duplicate (posting, pharmacist) pair
// fails with ErrDuplicate.
func (r *ApplicationRepository) CreateApplicationWithConversation(ctx context.Context, application persistence.Application, conversation persistence.Conversation) error {
	if application.ID == "" || application.PostingID == "" || application.PharmacistID == "" {
		return persistence.ErrConstraintViolation
	}
	if conversation.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(tx, `
			INSERT INTO applications (`+applicationColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			application.ID,
			application.PostingID,
			application.PharmacistID,
			application.Status,
			nullString(application.RejectionReason),
			formatTime(application.AppliedAt),
			formatTimePtr(application.ReviewedAt),
			formatTimePtr(application.DecisionAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		_, err = r.helper.ExecTx(tx, `
			INSERT INTO conversations (id, application_id, is_active, last_activity_at, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			conversation.ID,
			application.ID,
			conversation.IsActive,
			formatTime(conversation.LastActivityAt),
			formatTime(conversation.CreatedAt),
		)
		return r.mapper.MapError(err)
	})
}

// GetApplication retrieves an application by id.
func (r *ApplicationRepository) GetApplication(ctx context.Context, id string) (persistence.Application, error) {
	row := r.helper.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	return scanApplication(row)
}

// TransitionApplication applies a status-guarded update. When the row exists
// but its status is no longer in FromStatuses, ErrStaleStatus is returned.
func (r *ApplicationRepository) TransitionApplication(ctx context.Context, change persistence.ApplicationStatusChange) (persistence.Application, error) {
	if change.ID == "" || change.ToStatus == "" || len(change.FromStatuses) == 0 {
		return persistence.Application{}, persistence.ErrConstraintViolation
	}

	var updated persistence.Application
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		args := []any{change.ToStatus}
		setClause := `status = ?`
		if change.RejectionReason != nil {
			setClause += `, rejection_reason = ?`
			args = append(args, *change.RejectionReason)
		}
		if change.ReviewedAt != nil {
			setClause += `, reviewed_at = ?`
			args = append(args, formatTime(*change.ReviewedAt))
		}
		if change.DecisionAt != nil {
			setClause += `, decision_at = ?`
			args = append(args, formatTime(*change.DecisionAt))
		}

		args = append(args, change.ID)
		for _, from := range change.FromStatuses {
			args = append(args, from)
		}

		result, err := r.helper.ExecTx(tx,
			`UPDATE applications SET `+setClause+` WHERE id = ? AND status IN (`+placeholders(len(change.FromStatuses))+`)`,
			args...)
		if err != nil {
			return r.mapper.MapError(err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			// Distinguish a missing row from a lost status race.
			var exists int
			if err := r.helper.QueryRowTx(tx, `SELECT COUNT(*) FROM applications WHERE id = ?`, change.ID).Scan(&exists); err != nil {
				return r.mapper.MapError(err)
			}
			if exists == 0 {
				return persistence.ErrNotFound
			}
			return persistence.ErrStaleStatus
		}

		row := r.helper.QueryRowTx(tx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, change.ID)
		updated, err = scanApplication(row)
		return err
	})
	if err != nil {
		return persistence.Application{}, err
	}
	return updated, nil
}

// ListApplicationsByPharmacist returns the pharmacist's applications, newest first.
func (r *ApplicationRepository) ListApplicationsByPharmacist(ctx context.Context, pharmacistID string) ([]persistence.Application, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE pharmacist_id = ? ORDER BY applied_at DESC`, pharmacistID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()
	return collectApplications(rows)
}

// ListApplicationsByPharmacy returns applications against the pharmacy's postings.
func (r *ApplicationRepository) ListApplicationsByPharmacy(ctx context.Context, pharmacyID string) ([]persistence.Application, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT a.id, a.posting_id, a.pharmacist_id, a.status, a.rejection_reason, a.applied_at, a.reviewed_at, a.decision_at
		FROM applications a
		JOIN postings p ON p.id = a.posting_id
		WHERE p.pharmacy_id = ?
		ORDER BY a.applied_at DESC`, pharmacyID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()
	return collectApplications(rows)
}

// CountApplicationsByPosting derives applicant counts per posting id.
func (r *ApplicationRepository) CountApplicationsByPosting(ctx context.Context, postingIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(postingIDs))
	if len(postingIDs) == 0 {
		return counts, nil
	}

	args := make([]any, 0, len(postingIDs))
	for _, id := range postingIDs {
		args = append(args, id)
	}

	rows, err := r.helper.Query(ctx, `
		SELECT posting_id, COUNT(*)
		FROM applications
		WHERE posting_id IN (`+placeholders(len(postingIDs))+`)
		GROUP BY posting_id`, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}
	return counts, rows.Err()
}

func scanApplication(row rowScanner) (persistence.Application, error) {
	var application persistence.Application
	var appliedAt string
	var rejectionReason, reviewedAt, decisionAt sql.NullString

	err := row.Scan(
		&application.ID,
		&application.PostingID,
		&application.PharmacistID,
		&application.Status,
		&rejectionReason,
		&appliedAt,
		&reviewedAt,
		&decisionAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Application{}, persistence.ErrNotFound
		}
		return persistence.Application{}, err
	}

	application.RejectionReason = stringPtr(rejectionReason)
	if application.AppliedAt, err = parseTime(appliedAt); err != nil {
		return persistence.Application{}, err
	}
	if application.ReviewedAt, err = parseTimePtr(reviewedAt); err != nil {
		return persistence.Application{}, err
	}
	if application.DecisionAt, err = parseTimePtr(decisionAt); err != nil {
		return persistence.Application{}, err
	}
	return application, nil
}

func collectApplications(rows *sql.Rows) ([]persistence.Application, error) {
	var applications []persistence.Application
	for rows.Next() {
		application, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		applications = append(applications, application)
	}
	return applications, rows.Err()
}
