// Package orchestrator runs the webhook workflow: idempotency gate,
// acknowledgement, intent classification, the branch for the classified
// intent, and reply delivery.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rakhasetya/duitbot/internal/budget"
	"github.com/rakhasetya/duitbot/internal/idempotency"
	"github.com/rakhasetya/duitbot/internal/llm"
	"github.com/rakhasetya/duitbot/internal/wa"
)

// Status is the webhook processing outcome reported to the gateway.
type Status string

const (
	// StatusReceived means the event was accepted (processed, or ignored
	// because it was not a processable message event).
	StatusReceived Status = "received"
	// StatusDuplicate means the event id was seen before and the event
	// was skipped without side effects.
	StatusDuplicate Status = "duplicate_ignored"
)

// apologyText is sent when a branch fails for any reason other than a
// name-resolution miss. Resolution misses get specific replies instead.
const apologyText = "Sorry, something went wrong on my side. Please try again in a moment."

// Event is a validated inbound webhook event.
type Event struct {
	Name    string
	Message Message
}

// Message is the payload of a "message" event. ID doubles as the
// idempotency key.
type Message struct {
	ID   string
	From string
	To   string
	Body string
}

// Orchestrator wires the four collaborators together. One instance
// serves all requests; all per-request state lives on the stack.
type Orchestrator struct {
	store     idempotency.Store
	messenger wa.Messenger
	model     llm.Model
	budget    budget.Service
	money     *Formatter
	log       zerolog.Logger

	// now is time.Now in production; injectable for tests.
	now func() time.Time
}

// New creates an orchestrator.
func New(store idempotency.Store, messenger wa.Messenger, model llm.Model, budgetSvc budget.Service, money *Formatter, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		messenger: messenger,
		model:     model,
		budget:    budgetSvc,
		money:     money,
		log:       log,
		now:       time.Now,
	}
}

// HandleEvent runs the full workflow for one webhook event.
//
// Non-message events and messages without an id are acknowledged and
// ignored. Duplicate event ids short-circuit before any side effect.
// Returned errors have already been logged and apologized for over the
// messaging channel; the HTTP layer reports them as failed requests.
func (o *Orchestrator) HandleEvent(ctx context.Context, ev Event) (Status, error) {
	if ev.Name != "message" || ev.Message.ID == "" {
		return StatusReceived, nil
	}
	msg := ev.Message

	seen, err := o.store.Exists(ctx, msg.ID)
	if err != nil {
		return "", fmt.Errorf("HandleEvent: checking event %s: %w", msg.ID, err)
	}
	if seen {
		o.log.Info().Str("event_id", msg.ID).Msg("Duplicate event ignored")
		return StatusDuplicate, nil
	}

	// Record before processing so a redelivery arriving later is
	// skipped even if this attempt fails. The Exists/Put pair is not
	// atomic; see idempotency.Store.
	if err := o.store.Put(ctx, msg.ID); err != nil {
		return "", fmt.Errorf("HandleEvent: recording event %s: %w", msg.ID, err)
	}

	// Mark the chat as read. Non-critical; a failure must not abort
	// processing.
	if err := o.messenger.SendSeen(ctx, msg.From); err != nil {
		o.log.Warn().Err(err).Str("chat", msg.From).Msg("Failed to mark chat as seen")
	}

	reply, err := o.respond(ctx, msg)
	if err != nil {
		o.log.Error().Err(err).Str("event_id", msg.ID).Msg("Failed to process message")
		o.apologize(ctx, msg.From)
		return "", err
	}

	if err := o.messenger.SendText(ctx, msg.From, reply); err != nil {
		return "", fmt.Errorf("HandleEvent: sending reply: %w", err)
	}

	return StatusReceived, nil
}

// respond classifies the message and runs the branch for its intent,
// returning the final reply text.
func (o *Orchestrator) respond(ctx context.Context, msg Message) (string, error) {
	classification, err := o.model.Classify(ctx, msg.Body)
	if err != nil {
		return "", fmt.Errorf("classifying message: %w", err)
	}

	intent, err := intentFromClassification(classification)
	if err != nil {
		return "", err
	}

	switch it := intent.(type) {
	case Question:
		answer, err := o.model.Answer(ctx, msg.Body)
		if err != nil {
			return "", fmt.Errorf("answering question: %w", err)
		}
		return answer, nil
	case Transaction:
		return o.handleTransaction(ctx, msg.Body, it.Detail)
	case BalanceQuery:
		return o.handleBalance(ctx, msg.Body)
	default:
		return "", fmt.Errorf("respond: unhandled intent variant %T", intent)
	}
}

// apologize sends the generic failure reply. Best effort: the original
// error is what gets reported, not a failure to apologize.
func (o *Orchestrator) apologize(ctx context.Context, chatID string) {
	if err := o.messenger.SendText(ctx, chatID, apologyText); err != nil {
		o.log.Warn().Err(err).Str("chat", chatID).Msg("Failed to send apology reply")
	}
}

// today formats the current date as the backend's YYYY-MM-DD.
func (o *Orchestrator) today() string {
	return o.now().Format("2006-01-02")
}
