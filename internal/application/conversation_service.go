package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const maxMessageLength = 2000

// ConversationRepository captures the persistence interactions needed by the service.
type ConversationRepository interface {
	GetConversation(ctx context.Context, id string) (Conversation, error)
	GetConversationByApplicationID(ctx context.Context, applicationID string) (Conversation, error)
	// AppendMessage stores the message and advances the conversation's
	// last-activity timestamp in the same unit of work.
	AppendMessage(ctx context.Context, message Message) error
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
}

// ConversationService gates the per-application message thread. Messages only
// flow while the thread is active; once closed, the thread refuses sends and
// reads alike.
type ConversationService struct {
	conversations ConversationRepository
	applications  ApplicationRepository
	postings      PostingCatalog
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewConversationService wires dependencies for conversation operations.
func NewConversationService(conversations ConversationRepository, applications ApplicationRepository, postings PostingCatalog, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ConversationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ConversationService{
		conversations: conversations,
		applications:  applications,
		postings:      postings,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *ConversationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ConversationService", operation, attrs...)
}

// participant resolves the conversation and verifies the caller is one of its
// two parties, returning the caller's account id as sender id.
func (s *ConversationService) participant(ctx context.Context, principal Principal, conversationID string) (Conversation, string, error) {
	conversation, err := s.conversations.GetConversation(ctx, conversationID)
	if err != nil {
		return Conversation{}, "", mapRepoError(err)
	}

	app, err := s.applications.GetApplication(ctx, conversation.ApplicationID)
	if err != nil {
		return Conversation{}, "", mapRepoError(err)
	}

	switch principal.Role {
	case RolePharmacist:
		actor, err := principal.AsPharmacist()
		if err != nil {
			return Conversation{}, "", err
		}
		if app.PharmacistID != actor.PharmacistID {
			return Conversation{}, "", ErrForbidden
		}
		return conversation, actor.PharmacistID, nil

	case RolePharmacy:
		actor, err := principal.AsPharmacy()
		if err != nil {
			return Conversation{}, "", err
		}
		posting, err := s.postings.GetPosting(ctx, app.PostingID)
		if err != nil {
			return Conversation{}, "", mapRepoError(err)
		}
		if posting.PharmacyID != actor.PharmacyID {
			return Conversation{}, "", ErrForbidden
		}
		return conversation, actor.PharmacyID, nil

	default:
		return Conversation{}, "", ErrForbidden
	}
}

// SendMessage posts a message into an active thread. Sending into a closed
// thread fails with ErrForbidden regardless of the caller's party.
func (s *ConversationService) SendMessage(ctx context.Context, params SendMessageParams) (Message, error) {
	if s == nil || s.conversations == nil {
		return Message{}, fmt.Errorf("conversation repository not configured")
	}

	body := strings.TrimSpace(params.Body)
	vErr := &ValidationError{}
	if body == "" {
		vErr.add("body", "message body is required")
	} else if len([]rune(body)) > maxMessageLength {
		vErr.add("body", "message body is too long")
	}
	if vErr.HasErrors() {
		return Message{}, vErr
	}

	conversation, senderID, err := s.participant(ctx, params.Principal, params.ConversationID)
	if err != nil {
		return Message{}, err
	}
	if !conversation.IsActive {
		return Message{}, ErrForbidden
	}

	logger := s.loggerWith(ctx, "SendMessage", "conversation_id", conversation.ID)

	message := Message{
		ID:             s.idGenerator(),
		ConversationID: conversation.ID,
		SenderID:       senderID,
		Body:           body,
		SentAt:         s.now(),
	}

	if err := s.conversations.AppendMessage(ctx, message); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to append message", "error", err, "error_kind", ErrorKind(err))
		return Message{}, err
	}

	logger.InfoContext(ctx, "message sent", "message_id", message.ID)
	return message, nil
}

// ListMessages returns the thread's messages to either party. Reading a
// closed thread fails with ErrForbidden just like sending into one.
func (s *ConversationService) ListMessages(ctx context.Context, principal Principal, conversationID string) ([]Message, error) {
	if s == nil || s.conversations == nil {
		return nil, fmt.Errorf("conversation repository not configured")
	}

	conversation, _, err := s.participant(ctx, principal, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.IsActive {
		return nil, ErrForbidden
	}

	messages, err := s.conversations.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return messages, nil
}

// ForApplication resolves the thread attached to an application.
func (s *ConversationService) ForApplication(ctx context.Context, principal Principal, applicationID string) (Conversation, error) {
	if s == nil || s.conversations == nil {
		return Conversation{}, fmt.Errorf("conversation repository not configured")
	}

	conversation, err := s.conversations.GetConversationByApplicationID(ctx, applicationID)
	if err != nil {
		return Conversation{}, mapRepoError(err)
	}

	if _, _, err := s.participant(ctx, principal, conversation.ID); err != nil {
		return Conversation{}, err
	}
	return conversation, nil
}
