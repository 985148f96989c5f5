package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/pharmacy-staffing/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool          *sqlite.ConnectionPool
	Accounts      *sqlite.AccountRepository
	Sessions      *sqlite.SessionRepository
	Postings      *sqlite.PostingRepository
	Applications  *sqlite.ApplicationRepository
	Engagements   *sqlite.EngagementRepository
	Fees          *sqlite.FeeRepository
	WorkShifts    *sqlite.WorkShiftRepository
	Conversations *sqlite.ConversationRepository
	Notifications *sqlite.NotificationRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary database file
// that is migrated automatically. A cleanup callback is registered with the
// provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "staffing.db")

	pool, err := sqlite.NewConnectionPool(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:          pool,
		Accounts:      sqlite.NewAccountRepository(pool),
		Sessions:      sqlite.NewSessionRepository(pool),
		Postings:      sqlite.NewPostingRepository(pool),
		Applications:  sqlite.NewApplicationRepository(pool),
		Engagements:   sqlite.NewEngagementRepository(pool),
		Fees:          sqlite.NewFeeRepository(pool),
		WorkShifts:    sqlite.NewWorkShiftRepository(pool),
		Conversations: sqlite.NewConversationRepository(pool),
		Notifications: sqlite.NewNotificationRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
