package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/pharmacy-staffing/internal/application"
)

type conversationService interface {
	SendMessage(ctx context.Context, params application.SendMessageParams) (application.Message, error)
	ListMessages(ctx context.Context, principal application.Principal, conversationID string) ([]application.Message, error)
	ForApplication(ctx context.Context, principal application.Principal, applicationID string) (application.Conversation, error)
}

type ConversationHandler struct {
	service   conversationService
	responder responder
	logger    *slog.Logger
}

func NewConversationHandler(service conversationService, logger *slog.Logger) *ConversationHandler {
	base := defaultLogger(logger)
	return &ConversationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ConversationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ConversationHandler", operation, attrs...)
}

func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	conversationID := strings.TrimSpace(r.PathValue("id"))
	if conversationID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SendMessage", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode message request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "SendMessage", "principal_id", principal.UserID, "conversation_id", conversationID)

	message, err := h.service.SendMessage(r.Context(), application.SendMessageParams{
		Principal:      principal,
		ConversationID: conversationID,
		Body:           req.Body,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "message send failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("message_id", message.ID).InfoContext(r.Context(), "message sent")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, messageResponse{Message: toMessageDTO(message)})
}

func (h *ConversationHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	conversationID := strings.TrimSpace(r.PathValue("id"))
	if conversationID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListMessages", "principal_id", principal.UserID, "conversation_id", conversationID)

	messages, err := h.service.ListMessages(r.Context(), principal, conversationID)
	if err != nil {
		logger.ErrorContext(r.Context(), "message list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(messages)).InfoContext(r.Context(), "messages listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listMessagesResponse{Messages: toMessageDTOs(messages)})
}

func (h *ConversationHandler) ForApplication(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	applicationID := strings.TrimSpace(r.PathValue("id"))
	if applicationID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ForApplication", "principal_id", principal.UserID, "application_id", applicationID)

	conversation, err := h.service.ForApplication(r.Context(), principal, applicationID)
	if err != nil {
		logger.ErrorContext(r.Context(), "conversation fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, conversationResponse{Conversation: toConversationDTO(conversation)})
}

type messageRequest struct {
	Body string `json:"body"`
}

type messageResponse struct {
	Message messageDTO `json:"message"`
}

type listMessagesResponse struct {
	Messages []messageDTO `json:"messages"`
}

type conversationResponse struct {
	Conversation conversationDTO `json:"conversation"`
}

type messageDTO struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	Body           string `json:"body"`
	SentAt         string `json:"sent_at"`
}

type conversationDTO struct {
	ID             string `json:"id"`
	ApplicationID  string `json:"application_id"`
	IsActive       bool   `json:"is_active"`
	LastActivityAt string `json:"last_activity_at"`
	CreatedAt      string `json:"created_at"`
}

func toMessageDTO(message application.Message) messageDTO {
	return messageDTO{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Body:           message.Body,
		SentAt:         message.SentAt.UTC().Format(time.RFC3339Nano),
	}
}

func toMessageDTOs(messages []application.Message) []messageDTO {
	if len(messages) == 0 {
		return nil
	}
	out := make([]messageDTO, 0, len(messages))
	for _, message := range messages {
		out = append(out, toMessageDTO(message))
	}
	return out
}

func toConversationDTO(conversation application.Conversation) conversationDTO {
	return conversationDTO{
		ID:             conversation.ID,
		ApplicationID:  conversation.ApplicationID,
		IsActive:       conversation.IsActive,
		LastActivityAt: conversation.LastActivityAt.UTC().Format(time.RFC3339Nano),
		CreatedAt:      conversation.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
