package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/wolfman30/fitness-funnel/internal/catalog"
	"github.com/wolfman30/fitness-funnel/internal/funnel"
)

const submittedLayout = "2 January 2006, 03:04 PM MST"

// Formatter renders a SubmissionRecord as the coach notification email.
// Both renderings carry the same facts and depend only on the record.
type Formatter struct {
	Questions      catalog.Questions
	Plans          catalog.Plans
	WhatsAppNumber string
	UPIID          string
	// Location is used for the submitted-at line. Defaults to UTC.
	Location *time.Location
}

// NewFormatter builds a formatter over the default catalogs.
func NewFormatter(whatsApp, upiID string, loc *time.Location) Formatter {
	return Formatter{
		Questions:      catalog.DefaultQuestions(),
		Plans:          catalog.DefaultPlans(),
		WhatsAppNumber: whatsApp,
		UPIID:          upiID,
		Location:       loc,
	}
}

type fact struct {
	label string
	value string
}

type section struct {
	title string
	facts []fact
}

func (f Formatter) sections(rec funnel.SubmissionRecord) []section {
	appt := rec.Appointment
	personal := section{title: "Personal Details", facts: []fact{
		{"Name", valueOrNA(appt.Name)},
		{"Email", valueOrNA(appt.Email)},
		{"Phone", valueOrNA(appt.Phone)},
		{"WhatsApp", valueOrNA(f.WhatsAppNumber)},
	}}

	booking := section{title: "Appointment", facts: []fact{
		{"Date", valueOrNA(appt.Date)},
		{"Time", valueOrNA(appt.Time)},
		{"Selected Plan", f.planLabel(rec.SelectedPlan)},
		{"Payment UPI", valueOrNA(f.UPIID)},
	}}
	if shot := appt.Screenshot; shot != nil {
		value := shot.Filename
		if shot.Location != "" {
			value = fmt.Sprintf("%s (%s)", shot.Filename, shot.Location)
		}
		booking.facts = append(booking.facts, fact{"Payment Screenshot", value})
	}

	answers := section{title: "Questionnaire Responses"}
	for _, q := range f.Questions {
		answers.facts = append(answers.facts, fact{q.Heading(), answerLabel(q, rec.Questionnaire)})
	}

	return []section{personal, booking, answers}
}

func (f Formatter) planLabel(id catalog.PlanID) string {
	if p, ok := f.Plans.Find(id); ok {
		return fmt.Sprintf("%s [%s]", p.Label(), p.ID)
	}
	return valueOrNA(string(id))
}

// answerLabel renders each selected option as "Label (value)" so the raw
// value survives into the email.
func answerLabel(q catalog.Question, answers funnel.Answers) string {
	a, ok := answers.Get(q.ID)
	if !ok {
		return "N/A"
	}
	values := a.Values()
	if len(values) == 0 {
		return "None"
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if opt, ok := q.Option(v); ok && opt.Label != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", opt.Label, v))
			continue
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, ", ")
}

func (f Formatter) submitted(rec funnel.SubmissionRecord) string {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	return rec.SubmittedAt.In(loc).Format(submittedLayout)
}

// FormatText renders the plain-text email body.
func (f Formatter) FormatText(rec funnel.SubmissionRecord) string {
	var b strings.Builder
	b.WriteString("NEW FITNESS QUESTIONNAIRE SUBMISSION\n")
	for _, s := range f.sections(rec) {
		b.WriteString("\n")
		b.WriteString(strings.ToUpper(s.title))
		b.WriteString(":\n")
		for _, fc := range s.facts {
			b.WriteString(fmt.Sprintf("- %s: %s\n", fc.label, fc.value))
		}
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Reference: %s\n", valueOrNA(rec.ID)))
	b.WriteString(fmt.Sprintf("Submitted: %s\n", f.submitted(rec)))
	b.WriteString("\n---\nThis email was automatically generated from the fitness questionnaire website.")
	return b.String()
}

// FormatHTML renders the HTML email body. Every value is escaped.
func (f Formatter) FormatHTML(rec funnel.SubmissionRecord) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto;">
<h1 style="color:#ec4899;font-size:24px;">New Fitness Consultation Request</h1>
`)
	for _, s := range f.sections(rec) {
		b.WriteString(fmt.Sprintf(`<h2 style="color:#333;border-bottom:2px solid #f97316;padding-bottom:10px;">%s</h2>
<table style="border-collapse:collapse;width:100%%;">
`, html.EscapeString(s.title)))
		for _, fc := range s.facts {
			b.WriteString(fmt.Sprintf(`<tr><td style="padding:6px 12px;font-weight:bold;">%s</td><td style="padding:6px 12px;">%s</td></tr>
`, html.EscapeString(fc.label), html.EscapeString(fc.value)))
		}
		b.WriteString("</table>\n")
	}
	b.WriteString(fmt.Sprintf(`<p style="color:#666;font-size:12px;">Reference: %s<br>Submitted: %s</p>
</div>`, html.EscapeString(valueOrNA(rec.ID)), html.EscapeString(f.submitted(rec))))
	return b.String()
}

func valueOrNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return "N/A"
	}
	return v
}
