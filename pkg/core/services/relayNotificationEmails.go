package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-events/pkg/db"
)

// EmailSender sends a plain-text email
type EmailSender interface {
	SendEmail(to, subject, body string) error
}

// RelayStore is the subset of storage the email relay needs
type RelayStore interface {
	db.NotificationStore
	db.ProfileStore
}

// RelayParams configure one relay run
type RelayParams struct {
	// BaseURL prefixes event deep links, e.g. "https://volunteer.example.org"
	BaseURL string
	// Limit caps how many notifications are handled; 0 means all
	Limit int
}

// RelayResult summarises one relay run
type RelayResult struct {
	Sent    int
	Skipped int
}

// RelayNotificationEmails mirrors every not-yet-delivered notification to its recipient's email.
// Recipients without an email address are recorded as skipped. A send failure stops the run and
// leaves that notification undelivered so the next run retries it.
func RelayNotificationEmails(ctx context.Context, store RelayStore, sender EmailSender, logger *zap.Logger, params RelayParams) (*RelayResult, error) {
	pending, err := store.ListUndelivered(ctx, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list undelivered notifications: %w", err)
	}
	logger.Debug("Relaying notifications", zap.Int("count", len(pending)))

	result := &RelayResult{}
	for _, n := range pending {
		recipient, err := store.GetProfile(ctx, n.RecipientID)
		if err != nil {
			return result, notFoundAs(err, "recipient")
		}

		if strings.TrimSpace(recipient.Email) == "" {
			if err := store.RecordDelivery(ctx, n.ID, db.DeliverySkipped, now()); err != nil {
				return result, err
			}
			result.Skipped++
			logger.Debug("Recipient has no email", zap.String("notification_id", n.ID), zap.String("recipient_id", recipient.ID))
			continue
		}

		body := fmt.Sprintf("Hi %s,\n\n%s\n", recipient.DisplayName(), n.Message)
		if u := n.URL(); u != nil {
			body += "\n" + strings.TrimRight(params.BaseURL, "/") + *u + "\n"
		}
		subject := fmt.Sprintf("%s %s", n.Icon(), n.Title)

		if err := sender.SendEmail(recipient.Email, subject, body); err != nil {
			return result, fmt.Errorf("failed to email notification %s: %w", n.ID, err)
		}
		if err := store.RecordDelivery(ctx, n.ID, db.DeliverySent, now()); err != nil {
			return result, err
		}
		result.Sent++
		logger.Debug("Notification emailed",
			zap.String("notification_id", n.ID),
			zap.String("type", string(n.Type)),
			zap.String("to", recipient.Email))
	}

	logger.Info("Notification emails relayed", zap.Int("sent", result.Sent), zap.Int("skipped", result.Skipped))
	return result, nil
}
