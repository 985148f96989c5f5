package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/pharmacy-staffing/internal/persistence"
)

// ConversationRepository implements persistence.ConversationRepository using SQLite.
type ConversationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewConversationRepository creates a new SQLite conversation repository.
func NewConversationRepository(pool *ConnectionPool) *ConversationRepository {
	return &ConversationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const conversationColumns = `id, application_id, is_active, last_activity_at, created_at`

// GetConversation retrieves a conversation by id.
func (r *ConversationRepository) GetConversation(ctx context.Context, id string) (persistence.Conversation, error) {
	row := r.helper.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id)
	return scanConversation(row)
}

// GetConversationByApplication retrieves the thread attached to an application.
func (r *ConversationRepository) GetConversationByApplication(ctx context.Context, applicationID string) (persistence.Conversation, error) {
	row := r.helper.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE application_id = ?`, applicationID)
	return scanConversation(row)
}

// AppendMessage stores the message and advances the conversation's
// last-activity timestamp in the same unit of work.
func (r *ConversationRepository) AppendMessage(ctx context.Context, message persistence.Message) error {
	if message.ID == "" || message.ConversationID == "" || strings.TrimSpace(message.Body) == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(tx, `
			INSERT INTO messages (id, conversation_id, sender_id, body, sent_at)
			VALUES (?, ?, ?, ?, ?)`,
			message.ID,
			message.ConversationID,
			message.SenderID,
			message.Body,
			formatTime(message.SentAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(tx,
			`UPDATE conversations SET last_activity_at = ? WHERE id = ?`,
			formatTime(message.SentAt), message.ConversationID)
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

// ListMessages returns the thread's messages in send order.
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]persistence.Message, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT id, conversation_id, sender_id, body, sent_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY sent_at ASC, id ASC`, conversationID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var messages []persistence.Message
	for rows.Next() {
		var message persistence.Message
		var sentAt string
		if err := rows.Scan(&message.ID, &message.ConversationID, &message.SenderID, &message.Body, &sentAt); err != nil {
			return nil, err
		}
		if message.SentAt, err = parseTime(sentAt); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

func scanConversation(row rowScanner) (persistence.Conversation, error) {
	var conversation persistence.Conversation
	var lastActivityAt, createdAt string

	err := row.Scan(
		&conversation.ID,
		&conversation.ApplicationID,
		&conversation.IsActive,
		&lastActivityAt,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Conversation{}, persistence.ErrNotFound
		}
		return persistence.Conversation{}, err
	}

	if conversation.LastActivityAt, err = parseTime(lastActivityAt); err != nil {
		return persistence.Conversation{}, err
	}
	if conversation.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Conversation{}, err
	}
	return conversation, nil
}

// NotificationRepository implements persistence.NotificationRepository using SQLite.
type NotificationRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewNotificationRepository creates a new SQLite notification repository.
func NewNotificationRepository(pool *ConnectionPool) *NotificationRepository {
	return &NotificationRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateNotification stores one notification row.
func (r *NotificationRepository) CreateNotification(ctx context.Context, notification persistence.Notification) error {
	if notification.ID == "" || notification.RecipientID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO notifications (id, recipient_id, type, title, body, related_id, action_url, created_at, read_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		notification.ID,
		notification.RecipientID,
		notification.Type,
		notification.Title,
		notification.Body,
		notification.RelatedID,
		notification.ActionURL,
		formatTime(notification.CreatedAt),
		formatTimePtr(notification.ReadAt),
	)
	return r.mapper.MapError(err)
}

// ListNotificationsByRecipient returns the recipient's notifications, newest first.
func (r *NotificationRepository) ListNotificationsByRecipient(ctx context.Context, recipientID string) ([]persistence.Notification, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT id, recipient_id, type, title, body, related_id, action_url, created_at, read_at
		FROM notifications
		WHERE recipient_id = ?
		ORDER BY created_at DESC`, recipientID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var notifications []persistence.Notification
	for rows.Next() {
		var notification persistence.Notification
		var createdAt string
		var readAt sql.NullString
		if err := rows.Scan(
			&notification.ID,
			&notification.RecipientID,
			&notification.Type,
			&notification.Title,
			&notification.Body,
			&notification.RelatedID,
			&notification.ActionURL,
			&createdAt,
			&readAt,
		); err != nil {
			return nil, err
		}
		if notification.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if notification.ReadAt, err = parseTimePtr(readAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead records the read timestamp on a recipient's notification.
func (r *NotificationRepository) MarkNotificationRead(ctx context.Context, id, recipientID string, readAt time.Time) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE notifications SET read_at = ? WHERE id = ? AND recipient_id = ?`,
		formatTime(readAt), id, recipientID)
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
