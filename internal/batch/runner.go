// Package batch drives the send pipeline for one campaign invocation:
// validate each selected contact, render its message, hand it to the
// delivery backend, and pace the next send. One batch is fully
// synchronous and sequential; pacing is the ordering requirement and a
// sleep between sends expresses it directly.
package batch

import (
	"context"
	"iter"
	"math/rand"
	"time"

	"github.com/lucasandrade/disparador/internal/contacts"
	"github.com/lucasandrade/disparador/internal/delivery"
	"github.com/lucasandrade/disparador/internal/pkg/logger"
	"github.com/lucasandrade/disparador/internal/render"
)

// Outcome reports one attempted (or validation-skipped) contact, in the
// order contacts were selected. Row is the source data-row index so the
// caller can map results back to the sheet after filtering.
type Outcome struct {
	Row     int    `json:"index"`
	Email   string `json:"email"`
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// Summary aggregates a finished batch. Recomputed fresh per batch, no
// independent state.
type Summary struct {
	Requested   int  `json:"requested"`
	SentOK      int  `json:"sent_ok"`
	Failed      int  `json:"failed"`
	Limit       int  `json:"limit"`
	Constrained bool `json:"constrained,omitempty"`
}

// Request carries the batch-wide message parameters. Templates are
// immutable for the whole batch.
type Request struct {
	Subject         string
	TextTemplate    string
	HTMLTemplate    string
	TextOnly        bool
	Attachments     []string
	ListUnsubscribe string
	Interval        time.Duration
	SkipPacing      bool
}

// Runner executes batches against one delivery backend. Stateless
// between invocations; each Run is an independent batch.
type Runner struct {
	backend delivery.Backend
	sleep   func(ctx context.Context, d time.Duration)
	uniform func() float64
}

// NewRunner creates a batch runner for the given transport.
func NewRunner(backend delivery.Backend) *Runner {
	return &Runner{
		backend: backend,
		sleep:   sleepCtx,
		uniform: rand.Float64,
	}
}

// Run produces outcomes lazily, one per contact in input order. The
// sequence is finite and not restartable; a caller that stops consuming
// stops the remaining sends. Contacts failing address validation are
// reported as failed without a send attempt and without pacing.
func (r *Runner) Run(ctx context.Context, recs []contacts.Record, req Request) iter.Seq[Outcome] {
	return func(yield func(Outcome) bool) {
		for _, rec := range recs {
			if ctx.Err() != nil {
				return
			}

			if !contacts.ValidEmail(rec.Email) {
				logger.Warn("recipient skipped", "email", rec.Email, "row", rec.Row, "reason", "invalid or placeholder address")
				if !yield(failed(rec)) {
					return
				}
				continue
			}

			body, err := render.Message(req.TextTemplate, req.HTMLTemplate, rec.Name, req.TextOnly)
			if err != nil {
				logger.Error("render failed", "row", rec.Row, "err", err.Error())
				if !yield(failed(rec)) {
					return
				}
				continue
			}

			msg := &delivery.Message{
				To:              rec.Email,
				Subject:         req.Subject,
				Text:            body.Text,
				HTML:            body.HTML,
				Attachments:     req.Attachments,
				ListUnsubscribe: req.ListUnsubscribe,
			}

			out := Outcome{Row: rec.Row, Email: rec.Email}
			if err := r.backend.Send(ctx, msg); err != nil {
				// Per-recipient transport failure: logged here, never
				// surfaced in the structured result.
				logger.Warn("send failed", "email", rec.Email, "row", rec.Row, "err", err.Error())
				out.Status = contacts.StatusFailed
			} else {
				logger.Info("email sent", "email", rec.Email, "row", rec.Row)
				out.Success = true
				out.Status = contacts.StatusContacted
			}

			if !yield(out) {
				return
			}

			if !req.SkipPacing {
				r.sleep(ctx, r.pacingDelay(req.Interval))
			}
		}
	}
}

func failed(rec contacts.Record) Outcome {
	return Outcome{Row: rec.Row, Email: rec.Email, Success: false, Status: contacts.StatusFailed}
}

// pacingDelay applies ±20% jitter with a one-second floor. The jitter
// keeps the outbound cadence from looking machine-fixed to receiving
// mail servers.
func (r *Runner) pacingDelay(interval time.Duration) time.Duration {
	jitter := time.Duration(float64(interval) * (r.uniform()*0.4 - 0.2))
	d := interval + jitter
	if d < time.Second {
		d = time.Second
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Collect drains a batch into the ordered outcome list plus its summary.
func Collect(seq iter.Seq[Outcome], limit int, constrained bool) ([]Outcome, Summary) {
	outcomes := []Outcome{}
	summary := Summary{Limit: limit, Constrained: constrained}
	for out := range seq {
		outcomes = append(outcomes, out)
		summary.Requested++
		if out.Success {
			summary.SentOK++
		} else {
			summary.Failed++
		}
	}
	return outcomes, summary
}
