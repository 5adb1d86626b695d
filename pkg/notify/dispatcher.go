// Package notify relays match notifications to the external WhatsApp
// webhook. Delivery is best effort: a failed push never rolls back the
// match, conversation, or message writes.
package notify

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/httpclient"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Config holds notification dispatcher configuration
type Config struct {
	WebhookURL         string
	Enabled            bool
	MarketplaceBaseURL string
}

// Dispatcher sends text notifications through the webhook relay
type Dispatcher struct {
	client *httpclient.Client
	logger ectologger.Logger
	cfg    Config
}

// NewDispatcher creates a new notification dispatcher
func NewDispatcher(client *httpclient.Client, cfg Config, logger ectologger.Logger) *Dispatcher {
	return &Dispatcher{
		client: client,
		logger: logger,
		cfg:    cfg,
	}
}

type textPayload struct {
	PhoneNumber   string `json:"phone_number"`
	Text          string `json:"text"`
	ContextUserID string `json:"context_user_id"`
}

// SendText delivers a text to a phone number through the relay.
func (d *Dispatcher) SendText(ctx context.Context, phoneNumber, text, contextUserID string) error {
	ctx, span := tracing.StartSpan(ctx, "notify.Dispatcher.SendText")
	defer span.End()

	if !d.cfg.Enabled {
		d.logger.WithContext(ctx).Debug("Notification dispatch disabled, skipping")
		metrics.RecordNotification("skipped")
		return nil
	}

	if phoneNumber == "" {
		metrics.RecordNotification("skipped")
		return nil
	}

	payload := textPayload{
		PhoneNumber:   phoneNumber,
		Text:          text,
		ContextUserID: contextUserID,
	}

	resp, err := d.client.PostJSON(ctx, d.cfg.WebhookURL, payload)
	if err != nil {
		metrics.RecordNotification("error")
		d.logger.WithContext(ctx).WithError(err).Error("Failed to dispatch notification")
		return err
	}

	if !resp.IsSuccess() {
		metrics.RecordNotification("error")
		err := fmt.Errorf("notification relay returned status %d", resp.StatusCode)
		d.logger.WithContext(ctx).WithError(err).Error("Notification relay rejected request")
		return err
	}

	metrics.RecordNotification("success")
	return nil
}

// SendMatchText formats and delivers the standard mutual-match text.
func (d *Dispatcher) SendMatchText(ctx context.Context, phoneNumber, otherUserName, listingTitle, contextUserID string) error {
	text := fmt.Sprintf(
		"You have a new match! %s is also interested in \"%s\". Open your conversations to reply: %s/conversations",
		otherUserName, listingTitle, d.cfg.MarketplaceBaseURL,
	)
	return d.SendText(ctx, phoneNumber, text, contextUserID)
}
