package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/pharmacy-staffing/internal/persistence"
)

type conversationRepoStub struct {
	conversation Conversation
	appended     []Message
	messages     []Message
	getErr       error
	appendErr    error
	listErr      error
}

func (c *conversationRepoStub) GetConversation(ctx context.Context, id string) (Conversation, error) {
	if c.getErr != nil {
		return Conversation{}, c.getErr
	}
	if c.conversation.ID == "" {
		return Conversation{}, persistence.ErrNotFound
	}
	return c.conversation, nil
}

func (c *conversationRepoStub) GetConversationByApplicationID(ctx context.Context, applicationID string) (Conversation, error) {
	return c.GetConversation(ctx, applicationID)
}

func (c *conversationRepoStub) AppendMessage(ctx context.Context, message Message) error {
	if c.appendErr != nil {
		return c.appendErr
	}
	c.appended = append(c.appended, message)
	return nil
}

func (c *conversationRepoStub) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.messages, nil
}

func newConversationFixture(t *testing.T, active bool) (*conversationRepoStub, *ConversationService) {
	t.Helper()
	conversations := &conversationRepoStub{
		conversation: Conversation{ID: "conv-1", ApplicationID: "app-1", IsActive: active},
	}
	applications := &applicationRepoStub{app: Application{ID: "app-1", PostingID: "post-1", PharmacistID: "ph-1", Status: ApplicationPending}}
	postings := &postingCatalogStub{posting: Posting{ID: "post-1", PharmacyID: "pharm-1"}}
	svc := NewConversationService(conversations, applications, postings, sequenceIDs("msg-1", "msg-2"), fixedNow(t), nil)
	return conversations, svc
}

func TestConversationService_SendMessage(t *testing.T) {
	t.Parallel()

	pharmacist := Principal{UserID: "ph-1", Role: RolePharmacist}
	pharmacy := Principal{UserID: "pharm-1", Role: RolePharmacy}

	t.Run("both parties can post into an active thread", func(t *testing.T) {
		conversations, svc := newConversationFixture(t, true)

		for _, principal := range []Principal{pharmacist, pharmacy} {
			msg, err := svc.SendMessage(context.Background(), SendMessageParams{Principal: principal, ConversationID: "conv-1", Body: "勤務時間について確認させてください"})
			if err != nil {
				t.Fatalf("unexpected error for %s: %v", principal.Role, err)
			}
			if msg.SenderID != principal.UserID {
				t.Fatalf("sender should be the caller, got %q", msg.SenderID)
			}
		}
		if len(conversations.appended) != 2 {
			t.Fatalf("expected 2 stored messages, got %d", len(conversations.appended))
		}
	})

	t.Run("a closed thread refuses new messages", func(t *testing.T) {
		_, svc := newConversationFixture(t, false)

		_, err := svc.SendMessage(context.Background(), SendMessageParams{Principal: pharmacist, ConversationID: "conv-1", Body: "hello"})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("outsiders are denied", func(t *testing.T) {
		_, svc := newConversationFixture(t, true)

		_, err := svc.SendMessage(context.Background(), SendMessageParams{Principal: Principal{UserID: "ph-2", Role: RolePharmacist}, ConversationID: "conv-1", Body: "hello"})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("rejects an empty body", func(t *testing.T) {
		_, svc := newConversationFixture(t, true)

		_, err := svc.SendMessage(context.Background(), SendMessageParams{Principal: pharmacist, ConversationID: "conv-1", Body: "   "})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("rejects an oversized body", func(t *testing.T) {
		_, svc := newConversationFixture(t, true)

		_, err := svc.SendMessage(context.Background(), SendMessageParams{Principal: pharmacist, ConversationID: "conv-1", Body: strings.Repeat("あ", maxMessageLength+1)})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestConversationService_ListMessages(t *testing.T) {
	t.Parallel()

	t.Run("either party can read an active thread", func(t *testing.T) {
		conversations, svc := newConversationFixture(t, true)
		conversations.messages = []Message{{ID: "msg-1", ConversationID: "conv-1", SenderID: "ph-1", Body: "hello"}}

		for _, principal := range []Principal{{UserID: "ph-1", Role: RolePharmacist}, {UserID: "pharm-1", Role: RolePharmacy}} {
			messages, err := svc.ListMessages(context.Background(), principal, "conv-1")
			if err != nil {
				t.Fatalf("unexpected error for %s: %v", principal.Role, err)
			}
			if len(messages) != 1 {
				t.Fatalf("expected 1 message, got %d", len(messages))
			}
		}
	})

	t.Run("a closed thread refuses reads from both parties", func(t *testing.T) {
		conversations, svc := newConversationFixture(t, false)
		conversations.messages = []Message{{ID: "msg-1", ConversationID: "conv-1", SenderID: "ph-1", Body: "hello"}}

		for _, principal := range []Principal{{UserID: "ph-1", Role: RolePharmacist}, {UserID: "pharm-1", Role: RolePharmacy}} {
			_, err := svc.ListMessages(context.Background(), principal, "conv-1")
			if !errors.Is(err, ErrForbidden) {
				t.Fatalf("expected ErrForbidden for %s, got %v", principal.Role, err)
			}
		}
	})

	t.Run("outsiders cannot read", func(t *testing.T) {
		_, svc := newConversationFixture(t, true)

		_, err := svc.ListMessages(context.Background(), Principal{UserID: "pharm-2", Role: RolePharmacy}, "conv-1")
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}
