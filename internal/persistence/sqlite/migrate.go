package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one ordered schema step. Steps already recorded in
// schema_migrations are skipped on startup.
type migration struct {
	version int
	name    string
	stmt    string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create_accounts",
		stmt: `
			CREATE TABLE IF NOT EXISTS accounts (
				id TEXT PRIMARY KEY,
				role TEXT NOT NULL CHECK (role IN ('pharmacy', 'pharmacist')),
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				display_name TEXT NOT NULL DEFAULT '',
				first_name TEXT NOT NULL DEFAULT '',
				last_name TEXT NOT NULL DEFAULT '',
				phone TEXT NOT NULL DEFAULT '',
				address TEXT NOT NULL DEFAULT '',
				is_admin INTEGER NOT NULL DEFAULT 0,
				disabled INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
	},
	{
		version: 2,
		name:    "create_sessions",
		stmt: `
			CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				account_id TEXT NOT NULL REFERENCES accounts(id),
				token TEXT NOT NULL UNIQUE,
				expires_at TEXT NOT NULL,
				revoked_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
	},
	{
		version: 3,
		name:    "create_postings",
		stmt: `
			CREATE TABLE IF NOT EXISTS postings (
				id TEXT PRIMARY KEY,
				pharmacy_id TEXT NOT NULL REFERENCES accounts(id),
				title TEXT NOT NULL,
				daily_rate INTEGER NOT NULL,
				weekdays TEXT NOT NULL,
				shift_start TEXT NOT NULL,
				shift_end TEXT NOT NULL,
				break_minutes INTEGER NOT NULL DEFAULT 0,
				period_start TEXT NOT NULL,
				period_end TEXT NOT NULL,
				open INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
	},
	{
		version: 4,
		name:    "create_applications",
		stmt: `
			CREATE TABLE IF NOT EXISTS applications (
				id TEXT PRIMARY KEY,
				posting_id TEXT NOT NULL REFERENCES postings(id),
				pharmacist_id TEXT NOT NULL REFERENCES accounts(id),
				status TEXT NOT NULL CHECK (status IN ('pending', 'under_review', 'accepted', 'rejected', 'withdrawn')),
				rejection_reason TEXT,
				applied_at TEXT NOT NULL,
				reviewed_at TEXT,
				decision_at TEXT,
				UNIQUE (posting_id, pharmacist_id)
			)`,
	},
	{
		version: 5,
		name:    "create_conversations",
		stmt: `
			CREATE TABLE IF NOT EXISTS conversations (
				id TEXT PRIMARY KEY,
				application_id TEXT NOT NULL UNIQUE REFERENCES applications(id),
				is_active INTEGER NOT NULL DEFAULT 1,
				last_activity_at TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
	},
	{
		version: 6,
		name:    "create_messages",
		stmt: `
			CREATE TABLE IF NOT EXISTS messages (
				id TEXT PRIMARY KEY,
				conversation_id TEXT NOT NULL REFERENCES conversations(id),
				sender_id TEXT NOT NULL REFERENCES accounts(id),
				body TEXT NOT NULL,
				sent_at TEXT NOT NULL
			)`,
	},
	{
		version: 7,
		name:    "create_engagements",
		stmt: `
			CREATE TABLE IF NOT EXISTS engagements (
				id TEXT PRIMARY KEY,
				application_id TEXT NOT NULL REFERENCES applications(id),
				pharmacy_id TEXT NOT NULL REFERENCES accounts(id),
				pharmacist_id TEXT NOT NULL REFERENCES accounts(id),
				status TEXT NOT NULL CHECK (status IN ('pending', 'active', 'rejected')),
				daily_rate INTEGER NOT NULL,
				work_day_count INTEGER NOT NULL,
				total_compensation INTEGER NOT NULL,
				contract_start TEXT NOT NULL,
				contract_end TEXT NOT NULL,
				terms_text TEXT NOT NULL DEFAULT '',
				notice_ref TEXT,
				personal_info_disclosed INTEGER NOT NULL DEFAULT 0,
				disclosed_at TEXT,
				offer_sent_at TEXT NOT NULL,
				accepted_at TEXT,
				rejected_at TEXT,
				rejection_reason TEXT
			)`,
	},
	{
		// One live offer per application: pending and active engagements are
		// mutually exclusive, rejected ones do not block a re-offer.
		version: 8,
		name:    "engagements_single_live_offer",
		stmt: `
			CREATE UNIQUE INDEX IF NOT EXISTS idx_engagements_live
			ON engagements (application_id)
			WHERE status IN ('pending', 'active')`,
	},
	{
		version: 9,
		name:    "create_fees",
		stmt: `
			CREATE TABLE IF NOT EXISTS fees (
				id TEXT PRIMARY KEY,
				engagement_id TEXT NOT NULL UNIQUE REFERENCES engagements(id),
				amount INTEGER NOT NULL,
				status TEXT NOT NULL CHECK (status IN ('pending', 'paid', 'overdue', 'cancelled')),
				payment_deadline TEXT NOT NULL,
				paid_at TEXT,
				invoice_ref TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
	},
	{
		version: 10,
		name:    "create_work_shifts",
		stmt: `
			CREATE TABLE IF NOT EXISTS work_shifts (
				id TEXT PRIMARY KEY,
				engagement_id TEXT NOT NULL REFERENCES engagements(id),
				work_date TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				break_minutes INTEGER NOT NULL DEFAULT 0,
				notes TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				UNIQUE (engagement_id, work_date)
			)`,
	},
	{
		version: 11,
		name:    "create_attendances",
		stmt: `
			CREATE TABLE IF NOT EXISTS attendances (
				id TEXT PRIMARY KEY,
				work_shift_id TEXT NOT NULL UNIQUE REFERENCES work_shifts(id),
				checked_in_at TEXT NOT NULL,
				checked_out_at TEXT
			)`,
	},
	{
		version: 12,
		name:    "create_notifications",
		stmt: `
			CREATE TABLE IF NOT EXISTS notifications (
				id TEXT PRIMARY KEY,
				recipient_id TEXT NOT NULL REFERENCES accounts(id),
				type TEXT NOT NULL,
				title TEXT NOT NULL,
				body TEXT NOT NULL DEFAULT '',
				related_id TEXT NOT NULL DEFAULT '',
				action_url TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				read_at TEXT
			)`,
	},
	{
		version: 13,
		name:    "index_hot_paths",
		stmt: `
			CREATE INDEX IF NOT EXISTS idx_applications_posting ON applications (posting_id);
			CREATE INDEX IF NOT EXISTS idx_applications_pharmacist ON applications (pharmacist_id);
			CREATE INDEX IF NOT EXISTS idx_engagements_pharmacy ON engagements (pharmacy_id);
			CREATE INDEX IF NOT EXISTS idx_engagements_pharmacist ON engagements (pharmacist_id);
			CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id);
			CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (recipient_id, created_at)`,
	},
}

// Migrate applies pending schema migrations in order.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	if _, err := pool.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		applied, err := migrationApplied(ctx, pool.db, m.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		err = pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.stmt); err != nil {
				return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
			}
			if _, err := tx.Exec(
				`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, datetime('now'))`,
				m.version, m.name,
			); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", m.version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func migrationApplied(ctx context.Context, db *sql.DB, version int) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check migration %d: %w", version, err)
	}
	return count > 0, nil
}
