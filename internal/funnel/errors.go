package funnel

import (
	"errors"
	"strings"
)

var (
	// ErrWrongStep is returned when an action does not apply to the current step.
	ErrWrongStep = errors.New("funnel: action not allowed in current step")

	// ErrUnknownQuestion is returned for answers to questions outside the catalog.
	ErrUnknownQuestion = errors.New("funnel: unknown question")

	// ErrNotCurrentQuestion is returned when answering a question other than the one on screen.
	ErrNotCurrentQuestion = errors.New("funnel: question is not the current step")

	// ErrKindMismatch is returned when a scalar answers a multi-select or vice versa.
	ErrKindMismatch = errors.New("funnel: answer kind does not match question")

	// ErrUnknownOption is returned when an answer names an option the question does not offer.
	ErrUnknownOption = errors.New("funnel: unknown option")

	// ErrAnswerRequired is returned when advancing past an unanswered question.
	ErrAnswerRequired = errors.New("funnel: current question needs an answer")

	// ErrNoPreviousQuestion is returned when rewinding from the first question.
	ErrNoPreviousQuestion = errors.New("funnel: already at the first question")

	// ErrUnknownPlan is returned when selecting a plan outside the catalog.
	ErrUnknownPlan = errors.New("funnel: unknown plan")

	// ErrAlreadySubmitted is returned when the booking was already dispatched in this run.
	ErrAlreadySubmitted = errors.New("funnel: submission already dispatched")
)

// ValidationError carries every booking-form violation.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "funnel: appointment is invalid: " + strings.Join(e.Errors, "; ")
}
