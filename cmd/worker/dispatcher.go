package main

import (
	"context"
	"encoding/json"
	"fmt"

	"retailops/internal/core/events"
	"retailops/internal/infrastructure/storage/postgres"
	"retailops/pkg/logger"
)

// eventDispatcher routes outbox messages by event type: receipt email
// jobs go to the mailer, everything else lands in the audit log.
type eventDispatcher struct {
	audit  postgres.OutboxHandler
	mailer *receiptMailer
}

func newEventDispatcher(audit postgres.OutboxHandler, mailer *receiptMailer) *eventDispatcher {
	return &eventDispatcher{
		audit:  audit,
		mailer: mailer,
	}
}

// Handle implements postgres.OutboxHandler.
func (d *eventDispatcher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	if msg.EventType == events.TypeReceiptEmail {
		return d.mailer.Handle(ctx, msg)
	}
	return d.audit.Handle(ctx, msg)
}

// receiptMailer dispatches order receipt emails. Delivery is a logged
// stub; the SMTP integration lives behind this handler.
type receiptMailer struct {
	log *logger.Logger
}

func newReceiptMailer(log *logger.Logger) *receiptMailer {
	return &receiptMailer{log: log.WithComponent("receipt_mailer")}
}

// receiptPayload mirrors the payload published on order completion.
type receiptPayload struct {
	Number string `json:"number"`
	Email  string `json:"email"`
	Total  string `json:"total"`
}

// Handle implements postgres.OutboxHandler.
func (m *receiptMailer) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	var payload receiptPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal receipt payload: %w", err)
	}
	if payload.Email == "" {
		return fmt.Errorf("receipt payload has no email address")
	}

	m.log.Infow("receipt email dispatched",
		"order_id", msg.AggregateID,
		"order_number", payload.Number,
		"email", payload.Email,
		"total", payload.Total,
	)
	return nil
}
