package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/pharmacy-staffing/internal/persistence"
)

// FeeRepository implements persistence.FeeRepository using SQLite.
type FeeRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewFeeRepository creates a new SQLite fee repository.
func NewFeeRepository(pool *ConnectionPool) *FeeRepository {
	return &FeeRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const feeColumns = `id, engagement_id, amount, status, payment_deadline, paid_at, invoice_ref, created_at, updated_at`

// GetFee retrieves a fee by id.
func (r *FeeRepository) GetFee(ctx context.Context, id string) (persistence.Fee, error) {
	row := r.helper.QueryRow(ctx, `SELECT `+feeColumns+` FROM fees WHERE id = ?`, id)
	return scanFee(row)
}

// ConfirmFeePayment transitions a pending fee to paid and flips the owning
// engagement's disclosure flag as one unit. A fee in any other state,
// overdue included, fails with ErrStaleStatus.
func (r *FeeRepository) ConfirmFeePayment(ctx context.Context, id string, paidAt time.Time) (persistence.Fee, error) {
	var confirmed persistence.Fee
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(tx, `
			UPDATE fees
			SET status = 'paid', paid_at = ?, updated_at = ?
			WHERE id = ? AND status = 'pending'`,
			formatTime(paidAt), formatTime(paidAt), id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			var exists int
			if err := r.helper.QueryRowTx(tx, `SELECT COUNT(*) FROM fees WHERE id = ?`, id).Scan(&exists); err != nil {
				return r.mapper.MapError(err)
			}
			if exists == 0 {
				return persistence.ErrNotFound
			}
			return persistence.ErrStaleStatus
		}

		_, err = r.helper.ExecTx(tx, `
			UPDATE engagements
			SET personal_info_disclosed = 1, disclosed_at = ?
			WHERE id = (SELECT engagement_id FROM fees WHERE id = ?)`,
			formatTime(paidAt), id)
		if err != nil {
			return r.mapper.MapError(err)
		}

		row := r.helper.QueryRowTx(tx, `SELECT `+feeColumns+` FROM fees WHERE id = ?`, id)
		confirmed, err = scanFee(row)
		return err
	})
	if err != nil {
		return persistence.Fee{}, err
	}
	return confirmed, nil
}

// TransitionFee applies a status-guarded update such as pending -> overdue.
func (r *FeeRepository) TransitionFee(ctx context.Context, id string, fromStatuses []string, toStatus string, at time.Time) (persistence.Fee, error) {
	if id == "" || toStatus == "" || len(fromStatuses) == 0 {
		return persistence.Fee{}, persistence.ErrConstraintViolation
	}

	var updated persistence.Fee
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		args := []any{toStatus, formatTime(at), id}
		for _, from := range fromStatuses {
			args = append(args, from)
		}

		result, err := r.helper.ExecTx(tx,
			`UPDATE fees SET status = ?, updated_at = ? WHERE id = ? AND status IN (`+placeholders(len(fromStatuses))+`)`,
			args...)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			var exists int
			if err := r.helper.QueryRowTx(tx, `SELECT COUNT(*) FROM fees WHERE id = ?`, id).Scan(&exists); err != nil {
				return r.mapper.MapError(err)
			}
			if exists == 0 {
				return persistence.ErrNotFound
			}
			return persistence.ErrStaleStatus
		}

		row := r.helper.QueryRowTx(tx, `SELECT `+feeColumns+` FROM fees WHERE id = ?`, id)
		updated, err = scanFee(row)
		return err
	})
	if err != nil {
		return persistence.Fee{}, err
	}
	return updated, nil
}

// SetInvoiceRef records the generated invoice reference after fee creation.
func (r *FeeRepository) SetInvoiceRef(ctx context.Context, id string, invoiceRef string) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE fees SET invoice_ref = ? WHERE id = ?`, invoiceRef, id)
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

// ListFeesByStatus returns fees in the given settlement state, oldest deadline first.
func (r *FeeRepository) ListFeesByStatus(ctx context.Context, status string) ([]persistence.Fee, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT `+feeColumns+` FROM fees WHERE status = ? ORDER BY payment_deadline ASC`, status)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var fees []persistence.Fee
	for rows.Next() {
		fee, err := scanFee(rows)
		if err != nil {
			return nil, err
		}
		fees = append(fees, fee)
	}
	return fees, rows.Err()
}

func scanFee(row rowScanner) (persistence.Fee, error) {
	var fee persistence.Fee
	var paymentDeadline, createdAt, updatedAt string
	var paidAt, invoiceRef sql.NullString

	err := row.Scan(
		&fee.ID,
		&fee.EngagementID,
		&fee.Amount,
		&fee.Status,
		&paymentDeadline,
		&paidAt,
		&invoiceRef,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Fee{}, persistence.ErrNotFound
		}
		return persistence.Fee{}, err
	}

	fee.InvoiceRef = stringPtr(invoiceRef)
	if fee.PaymentDeadline, err = parseDate(paymentDeadline); err != nil {
		return persistence.Fee{}, err
	}
	if fee.PaidAt, err = parseTimePtr(paidAt); err != nil {
		return persistence.Fee{}, err
	}
	if fee.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Fee{}, err
	}
	if fee.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Fee{}, err
	}
	return fee, nil
}
