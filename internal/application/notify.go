package application

import (
	"context"
	"log/slog"
)

// Notification type labels shared across services.
const (
	NotificationApplicationReceived  = "application_received"
	NotificationApplicationAccepted  = "application_accepted"
	NotificationApplicationRejected  = "application_rejected"
	NotificationApplicationWithdrawn = "application_withdrawn"
	NotificationOfferReceived        = "offer_received"
	NotificationOfferAccepted        = "offer_accepted"
	NotificationOfferRejected        = "offer_rejected"
	NotificationFeePaid              = "fee_payment_confirmed"
)

// notify emits a notification to the counterparty, logging and swallowing any
// failure. Side-channel delivery never upgrades to a user-facing error.
func notify(ctx context.Context, logger *slog.Logger, notifier Notifier, recipientID, notificationType, title, body, relatedID, actionURL string) {
	if notifier == nil || recipientID == "" {
		return
	}
	if err := notifier.Emit(ctx, recipientID, notificationType, title, body, relatedID, actionURL); err != nil {
		logger.WarnContext(ctx, "failed to emit notification",
			"error", err,
			"notification_type", notificationType,
			"recipient_id", recipientID,
		)
	}
}
