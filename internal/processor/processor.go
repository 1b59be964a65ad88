// Package processor drives one billing run: a sequential payment attempt
// per customer, with a failure notification as the fallback.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/voltgrid/billnotify/internal/billing"
	"github.com/voltgrid/billnotify/internal/eventbus"
	"github.com/voltgrid/billnotify/internal/notify"
	"github.com/voltgrid/billnotify/internal/transport"
)

// State is the terminal state of one customer within a run.
type State string

const (
	// StatePaid: the payment attempt returned 2xx.
	StatePaid State = "paid"
	// StateUnrecoverable: the payment classified as a rejected credential
	// (401); no further action is taken for this customer this run.
	StateUnrecoverable State = "unrecoverable"
	// StateNotified: the payment failed and the failure notice was delivered.
	StateNotified State = "notified"
	// StateNotificationFailed: the payment failed and so did the notice.
	StateNotificationFailed State = "notification-failed"
	// StateSkipped: the payment failed and the customer has no reachable
	// address, or the roster entry could not be processed.
	StateSkipped State = "skipped"
)

// CustomerResult records the terminal state of one customer.
type CustomerResult struct {
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
	State      State  `json:"state"`
	Detail     string `json:"detail,omitempty"`
}

// RunReport aggregates the per-customer results of one billing run.
type RunReport struct {
	ID         string           `json:"id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Results    []CustomerResult `json:"results"`
}

// Count returns the number of customers that ended the run in state s.
func (r *RunReport) Count(s State) int {
	n := 0
	for _, res := range r.Results {
		if res.State == s {
			n++
		}
	}
	return n
}

// EventPublisher lets the processor emit lifecycle events without
// depending on a concrete event bus implementation.
type EventPublisher interface {
	Publish(eventType string, payload map[string]string)
}

// Config holds the processor dependencies.
type Config struct {
	Client     *transport.Client
	Dispatcher *notify.Dispatcher
	PaymentURL string
	Logger     *slog.Logger
	// BestEffortNotify downgrades a failed dispatch to StateNotified with
	// a warn log, preserving the historical fire-and-forget policy.
	BestEffortNotify bool
	// RateLimit caps payment attempts per second across the run.
	// Zero or negative means unlimited.
	RateLimit float64
	// Publisher is optional. When set, lifecycle events are published.
	Publisher EventPublisher
}

// Processor attempts payments for a roster of customers, one at a time.
type Processor struct {
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a Processor.
func New(cfg Config) *Processor {
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return &Processor{cfg: cfg, limiter: limiter, logger: cfg.Logger}
}

// paymentRequest is the wire shape of one payment attempt.
type paymentRequest struct {
	CustomerID    int64                     `json:"customerId"`
	PaymentMethod billing.PaymentInstrument `json:"paymentMethod"`
	Amount        float64                   `json:"amount"`
}

// Run processes customers sequentially in input order. Each iteration is
// independent: a failure for one customer never blocks the next. The
// returned report has one result per customer.
func (p *Processor) Run(ctx context.Context, customers []billing.Customer) RunReport {
	report := RunReport{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Results:   make([]CustomerResult, 0, len(customers)),
	}

	p.logger.Info("billing run started", "run_id", report.ID, "customers", len(customers))

	for _, customer := range customers {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				p.logger.Warn("billing run cancelled", "run_id", report.ID, "error", err)
				break
			}
		}
		result := p.processCustomer(ctx, customer)
		report.Results = append(report.Results, result)
	}

	report.FinishedAt = time.Now()
	p.logger.Info("billing run finished",
		"run_id", report.ID,
		"paid", report.Count(StatePaid),
		"notified", report.Count(StateNotified),
		"notification_failed", report.Count(StateNotificationFailed),
		"skipped", report.Count(StateSkipped),
		"unrecoverable", report.Count(StateUnrecoverable))
	return report
}

// processCustomer attempts one payment and, when it fails, falls through
// to the notification path.
func (p *Processor) processCustomer(ctx context.Context, customer billing.Customer) CustomerResult {
	result := CustomerResult{CustomerID: customer.ID, Name: customer.Name}

	outcome, err := p.attemptPayment(ctx, customer)
	switch {
	case err == nil && outcome.OK():
		p.logger.Info("payment processed", "customer_id", customer.ID)
		p.publish(eventbus.EventPaymentSucceeded, customer, "")
		result.State = StatePaid
		return result

	case err == nil:
		// Well-formed rejection by the payment provider.
		p.logger.Error("payment rejected", "customer_id", customer.ID,
			"status_code", outcome.Failure.StatusCode,
			"status_message", outcome.Failure.StatusMessage)
		p.publish(eventbus.EventPaymentFailed, customer, outcome.Failure.String())
		if outcome.Failure.Unrecoverable {
			result.State = StateUnrecoverable
			result.Detail = outcome.Failure.String()
			return result
		}
		result.Detail = outcome.Failure.String()

	default:
		// Transport-level failure: timeout, network error, or a roster
		// entry that could not be marshalled into an attempt.
		p.logger.Error("payment attempt failed", "customer_id", customer.ID, "error", err)
		p.publish(eventbus.EventPaymentFailed, customer, err.Error())
		var notFound *billing.InstrumentNotFoundError
		if errors.As(err, &notFound) {
			result.State = StateSkipped
			result.Detail = err.Error()
			return result
		}
		result.Detail = err.Error()
	}

	return p.notifyCustomer(ctx, customer, result)
}

// attemptPayment posts the charge for the customer's default instrument.
func (p *Processor) attemptPayment(ctx context.Context, customer billing.Customer) (transport.Outcome[json.RawMessage], error) {
	var zero transport.Outcome[json.RawMessage]

	instrument, err := customer.DefaultInstrument()
	if err != nil {
		return zero, err
	}

	body := paymentRequest{
		CustomerID:    customer.ID,
		PaymentMethod: instrument,
		Amount:        amountForCustomer(customer.ID),
	}

	resp, err := p.cfg.Client.PostJSON(ctx, p.cfg.PaymentURL, body)
	if err != nil {
		return zero, err
	}
	return transport.Classify[json.RawMessage](resp)
}

// notifyCustomer dispatches the failure notice and folds the dispatch
// outcome into the customer's terminal state.
func (p *Processor) notifyCustomer(ctx context.Context, customer billing.Customer, result CustomerResult) CustomerResult {
	outcome, err := p.cfg.Dispatcher.Notify(ctx, customer, customer.DefaultPaymentMethod)

	switch {
	case errors.Is(err, notify.ErrNoRecipients):
		p.logger.Warn("customer unreachable, notification skipped", "customer_id", customer.ID)
		p.publish(eventbus.EventNotificationSkipped, customer, "")
		result.State = StateSkipped
		result.Detail = joinDetail(result.Detail, err.Error())

	case err != nil:
		p.publish(eventbus.EventNotificationFailed, customer, err.Error())
		result.Detail = joinDetail(result.Detail, err.Error())
		if p.cfg.BestEffortNotify {
			p.logger.Warn("notification failed, continuing (best effort)",
				"customer_id", customer.ID, "error", err)
			result.State = StateNotified
		} else {
			result.State = StateNotificationFailed
		}

	case !outcome.OK():
		p.publish(eventbus.EventNotificationFailed, customer, outcome.Failure.String())
		result.Detail = joinDetail(result.Detail, outcome.Failure.String())
		if p.cfg.BestEffortNotify {
			p.logger.Warn("notification rejected, continuing (best effort)",
				"customer_id", customer.ID,
				"status_code", outcome.Failure.StatusCode,
				"status_message", outcome.Failure.StatusMessage)
			result.State = StateNotified
		} else {
			result.State = StateNotificationFailed
		}

	default:
		p.logger.Info("failure notification sent", "customer_id", customer.ID)
		p.publish(eventbus.EventNotificationSent, customer, "")
		result.State = StateNotified
	}

	return result
}

// publish emits a lifecycle event when a publisher is configured.
func (p *Processor) publish(eventType string, customer billing.Customer, detail string) {
	if p.cfg.Publisher == nil {
		return
	}
	payload := map[string]string{
		"customer_id": strconv.FormatInt(customer.ID, 10),
	}
	if detail != "" {
		payload["detail"] = detail
	}
	p.cfg.Publisher.Publish(eventType, payload)
}

// joinDetail appends a dispatch detail to an existing payment detail.
func joinDetail(existing, added string) string {
	if existing == "" {
		return added
	}
	return existing + "; " + added
}
