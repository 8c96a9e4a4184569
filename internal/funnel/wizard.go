// Package funnel drives a visitor through the coaching funnel: landing,
// questionnaire, plan choice, booking and confirmation. A Wizard owns one
// visitor's state; the finished booking is handed to a Submitter.
package funnel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/fitness-funnel/internal/booking"
	"github.com/wolfman30/fitness-funnel/internal/catalog"
	"github.com/wolfman30/fitness-funnel/pkg/logging"
)

// Step is a wizard screen.
type Step string

const (
	StepLanding       Step = "landing"
	StepQuestionnaire Step = "questionnaire"
	StepPricing       Step = "pricing"
	StepAppointment   Step = "appointment"
	StepConfirmation  Step = "confirmation"
)

// TransitionObserver is told about every step change.
type TransitionObserver interface {
	ObserveTransition(from, to string)
}

// Options configures a Wizard. Zero values fall back to the default
// catalogs, wall clock and uuid ids.
type Options struct {
	Questions catalog.Questions
	Plans     catalog.Plans
	TimeSlots []string

	// RequireMultiSelect blocks advancing past a multi-select question with
	// nothing selected. Off by default: an explicit empty selection is a
	// valid answer to "select all that apply".
	RequireMultiSelect bool

	Clock    func() time.Time
	NewID    func() string
	Observer TransitionObserver
}

// State is a snapshot of one wizard run.
type State struct {
	Step          Step                 `json:"step"`
	QuestionIndex int                  `json:"question_index"`
	Answers       Answers              `json:"answers"`
	Plan          catalog.PlanID       `json:"plan,omitempty"`
	Appointment   *booking.Appointment `json:"appointment,omitempty"`
	Record        *SubmissionRecord    `json:"record,omitempty"`
	LastError     string               `json:"last_error,omitempty"`
	Submitted     bool                 `json:"submitted"`
	Pending       bool                 `json:"pending"`
}

func (s State) clone() State {
	out := s
	out.Answers = s.Answers.Clone()
	if s.Appointment != nil {
		appt := s.Appointment.Normalized()
		out.Appointment = &appt
	}
	if s.Record != nil {
		rec := s.Record.Clone()
		out.Record = &rec
	}
	return out
}

// Wizard is the per-visitor state machine. All methods are safe for
// concurrent use; the only blocking work, delivering the submission, runs
// on its own goroutine.
type Wizard struct {
	mu        sync.Mutex
	opts      Options
	submitter Submitter
	logger    *logging.Logger

	state State
	// run increments on every restart so late deliveries from an earlier
	// run can be recognised and dropped.
	run      uint64
	inflight sync.WaitGroup
}

// NewWizard creates a wizard at the landing step.
func NewWizard(submitter Submitter, opts Options, logger *logging.Logger) *Wizard {
	if submitter == nil {
		panic("funnel: submitter required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if len(opts.Questions) == 0 {
		opts.Questions = catalog.DefaultQuestions()
	}
	if len(opts.Plans) == 0 {
		opts.Plans = catalog.DefaultPlans()
	}
	if len(opts.TimeSlots) == 0 {
		opts.TimeSlots = catalog.DefaultTimeSlots()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Wizard{
		opts:      opts,
		submitter: submitter,
		logger:    logger,
		state:     initialState(),
	}
}

func initialState() State {
	return State{Step: StepLanding, Answers: Answers{}}
}

// State returns a copy of the current state.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.clone()
}

// Questions returns the questionnaire this wizard runs.
func (w *Wizard) Questions() catalog.Questions { return w.opts.Questions }

// Plans returns the plan menu this wizard offers.
func (w *Wizard) Plans() catalog.Plans { return w.opts.Plans }

// TimeSlots returns the bookable slots.
func (w *Wizard) TimeSlots() []string { return w.opts.TimeSlots }

// CurrentQuestion returns the question on screen during the questionnaire.
func (w *Wizard) CurrentQuestion() (catalog.Question, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Step != StepQuestionnaire {
		return catalog.Question{}, false
	}
	return w.opts.Questions[w.state.QuestionIndex], true
}

// Recommended returns the advisory plan for the answers given so far.
func (w *Wizard) Recommended() catalog.PlanID {
	w.mu.Lock()
	defer w.mu.Unlock()
	goal, _ := w.state.Answers.Get("goal")
	experience, _ := w.state.Answers.Get("experience")
	return catalog.RecommendPlan(goal.Value(), experience.Value())
}

// Start leaves the landing page.
func (w *Wizard) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Step != StepLanding {
		return fmt.Errorf("start from %s: %w", w.state.Step, ErrWrongStep)
	}
	w.moveTo(StepQuestionnaire)
	w.state.QuestionIndex = 0
	return nil
}

// Answer records the answer to the question currently on screen.
func (w *Wizard) Answer(questionID string, answer Answer) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Step != StepQuestionnaire {
		return fmt.Errorf("answer in %s: %w", w.state.Step, ErrWrongStep)
	}
	q, idx, ok := w.opts.Questions.Find(questionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if idx != w.state.QuestionIndex {
		return fmt.Errorf("%w: %s", ErrNotCurrentQuestion, questionID)
	}
	if answer.Kind() != q.Kind {
		return fmt.Errorf("%w: %s expects %s", ErrKindMismatch, questionID, q.Kind)
	}
	for _, v := range answer.Values() {
		if !q.HasOption(v) {
			return fmt.Errorf("%w: %s has no option %q", ErrUnknownOption, questionID, v)
		}
	}
	w.state.Answers[questionID] = answer
	return nil
}

// Next advances to the following question, or to pricing after the last one.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Step != StepQuestionnaire {
		return fmt.Errorf("next in %s: %w", w.state.Step, ErrWrongStep)
	}
	q := w.opts.Questions[w.state.QuestionIndex]
	if !w.answered(q) {
		return fmt.Errorf("%w: %s", ErrAnswerRequired, q.ID)
	}
	if w.state.QuestionIndex == len(w.opts.Questions)-1 {
		w.moveTo(StepPricing)
		return nil
	}
	w.state.QuestionIndex++
	return nil
}

func (w *Wizard) answered(q catalog.Question) bool {
	a, ok := w.state.Answers.Get(q.ID)
	if !ok {
		return false
	}
	if q.Kind == catalog.Multiple && !w.opts.RequireMultiSelect {
		return true
	}
	return !a.Empty()
}

// Previous goes back one question. Answers already given are kept.
func (w *Wizard) Previous() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Step != StepQuestionnaire {
		return fmt.Errorf("previous in %s: %w", w.state.Step, ErrWrongStep)
	}
	if w.state.QuestionIndex == 0 {
		return ErrNoPreviousQuestion
	}
	w.state.QuestionIndex--
	return nil
}

// SelectPlan fixes the plan and opens the booking form.
func (w *Wizard) SelectPlan(id catalog.PlanID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Step != StepPricing {
		return fmt.Errorf("select plan in %s: %w", w.state.Step, ErrWrongStep)
	}
	if _, ok := w.opts.Plans.Find(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlan, id)
	}
	w.state.Plan = id
	w.moveTo(StepAppointment)
	return nil
}

// Back returns from the booking form to the plan menu and clears the plan.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Step != StepAppointment {
		return fmt.Errorf("back in %s: %w", w.state.Step, ErrWrongStep)
	}
	w.state.Plan = ""
	w.moveTo(StepPricing)
	return nil
}

// Validate checks a booking form against this wizard's clock and slots
// without changing state.
func (w *Wizard) Validate(form booking.Appointment) booking.Result {
	return booking.Validate(form.Normalized(), w.opts.Clock(), w.opts.TimeSlots)
}

// Submit validates the booking form and, when it passes, moves straight to
// confirmation and delivers the record in the background. Delivery
// failures show up later in State().LastError. Only one submission per run
// is accepted.
func (w *Wizard) Submit(ctx context.Context, form booking.Appointment) error {
	w.mu.Lock()
	if w.state.Submitted {
		w.mu.Unlock()
		return ErrAlreadySubmitted
	}
	if w.state.Step != StepAppointment {
		step := w.state.Step
		w.mu.Unlock()
		return fmt.Errorf("submit in %s: %w", step, ErrWrongStep)
	}

	now := w.opts.Clock()
	appt := form.Normalized()
	if res := booking.Validate(appt, now, w.opts.TimeSlots); !res.Valid {
		w.mu.Unlock()
		return &ValidationError{Errors: res.Errors}
	}

	rec := SubmissionRecord{
		ID:            w.opts.NewID(),
		Questionnaire: w.state.Answers.Clone(),
		SelectedPlan:  w.state.Plan,
		Appointment:   appt,
		SubmittedAt:   now,
	}
	w.state.Appointment = &appt
	w.state.Record = &rec
	w.state.Submitted = true
	w.state.Pending = true
	w.state.LastError = ""
	w.moveTo(StepConfirmation)
	run := w.run
	w.inflight.Add(1)
	w.mu.Unlock()

	w.logger.Info("submission dispatched",
		"submission_id", rec.ID,
		"plan", rec.SelectedPlan,
	)
	go w.deliver(context.WithoutCancel(ctx), run, rec.Clone())
	return nil
}

func (w *Wizard) deliver(ctx context.Context, run uint64, rec SubmissionRecord) {
	defer w.inflight.Done()

	outcome := w.send(ctx, rec)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.run != run {
		w.logger.Info("submission finished after restart, outcome dropped",
			"submission_id", rec.ID,
			"success", outcome.Success,
		)
		return
	}
	w.state.Pending = false
	if outcome.Success {
		w.logger.Info("submission delivered", "submission_id", rec.ID)
		return
	}
	msg := outcome.Error
	if msg == "" {
		msg = "Failed to send email"
	}
	w.state.LastError = msg
	w.logger.Error("submission delivery failed",
		"submission_id", rec.ID,
		"failure", outcome.Failure,
		"error", msg,
	)
}

func (w *Wizard) send(ctx context.Context, rec SubmissionRecord) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Failed(FailureInternal, fmt.Sprintf("unexpected error: %v", r))
		}
	}()
	return w.submitter.Send(ctx, rec)
}

// Restart wipes the run and returns to the landing page. A delivery still
// in flight is left to finish; its outcome is ignored.
func (w *Wizard) Restart() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Step != StepConfirmation {
		return fmt.Errorf("restart from %s: %w", w.state.Step, ErrWrongStep)
	}
	w.run++
	from := w.state.Step
	w.state = initialState()
	w.observe(from, StepLanding)
	return nil
}

// Wait blocks until every background delivery has finished.
func (w *Wizard) Wait() {
	w.inflight.Wait()
}

func (w *Wizard) moveTo(step Step) {
	from := w.state.Step
	w.state.Step = step
	w.observe(from, step)
}

func (w *Wizard) observe(from, to Step) {
	if w.opts.Observer != nil {
		w.opts.Observer.ObserveTransition(string(from), string(to))
	}
}
