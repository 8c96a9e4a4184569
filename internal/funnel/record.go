package funnel

import (
	"context"
	"time"

	"github.com/wolfman30/fitness-funnel/internal/booking"
	"github.com/wolfman30/fitness-funnel/internal/catalog"
)

// SubmissionRecord is the finished booking handed to the submitter.
type SubmissionRecord struct {
	ID            string              `json:"id"`
	Questionnaire Answers             `json:"questionnaire"`
	SelectedPlan  catalog.PlanID      `json:"selectedPlan"`
	Appointment   booking.Appointment `json:"appointment"`
	SubmittedAt   time.Time           `json:"submittedAt"`
}

// Clone returns a deep copy.
func (r SubmissionRecord) Clone() SubmissionRecord {
	out := r
	out.Questionnaire = r.Questionnaire.Clone()
	out.Appointment = r.Appointment.Normalized()
	return out
}

// Failure classifies why a delivery did not succeed.
type Failure string

const (
	FailureNone        Failure = ""
	FailureTransport   Failure = "transport"
	FailureAuth        Failure = "auth"
	FailureValidation  Failure = "validation"
	FailureRateLimited Failure = "rate_limited"
	FailureRejected    Failure = "rejected"
	FailureInternal    Failure = "internal"
)

// Outcome is what a submitter reports back. It is never an error value:
// failures are described, not raised.
type Outcome struct {
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
	Failure Failure `json:"failure,omitempty"`
}

// Succeeded builds a success outcome.
func Succeeded() Outcome { return Outcome{Success: true} }

// Failed builds a failure outcome.
func Failed(kind Failure, msg string) Outcome {
	return Outcome{Success: false, Error: msg, Failure: kind}
}

// Submitter delivers a finished record somewhere (email relay, webhook).
type Submitter interface {
	Send(ctx context.Context, rec SubmissionRecord) Outcome
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, rec SubmissionRecord) Outcome

// Send calls f.
func (f SubmitterFunc) Send(ctx context.Context, rec SubmissionRecord) Outcome {
	return f(ctx, rec)
}
