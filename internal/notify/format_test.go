package notify

import (
	"html"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/fitness-funnel/internal/booking"
	"github.com/wolfman30/fitness-funnel/internal/catalog"
	"github.com/wolfman30/fitness-funnel/internal/funnel"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func sampleRecord() funnel.SubmissionRecord {
	return funnel.SubmissionRecord{
		ID: "5f1c1a52-3d6f-4d7e-9a3b-2f3f4b5c6d7e",
		Questionnaire: funnel.Answers{
			"goal":           funnel.Scalar("weight-loss"),
			"experience":     funnel.Scalar("intermediate"),
			"timeCommitment": funnel.Scalar("30-45min"),
			"equipment":      funnel.Scalar("home-gym"),
			"bodyType":       funnel.Scalar("mesomorph"),
			"age":            funnel.Scalar("26-35"),
			"gender":         funnel.Scalar("prefer-not-to-say"),
			"challenges":     funnel.MultiSelect("time", "injuries"),
		},
		SelectedPlan: catalog.PlanPremium,
		Appointment: booking.Appointment{
			Name:  "Priya Sharma",
			Email: "priya@example.com",
			Phone: "9876543210",
			Date:  "2026-03-20",
			Time:  "10:00 AM",
		},
		SubmittedAt: time.Date(2026, 3, 14, 5, 15, 0, 0, time.UTC),
	}
}

func testFormatter() Formatter {
	return NewFormatter("919876543210", "fitness@paytm", ist)
}

func TestFormatters_AreDeterministic(t *testing.T) {
	f := testFormatter()
	rec := sampleRecord()

	assert.Equal(t, f.FormatText(rec), f.FormatText(rec))
	assert.Equal(t, f.FormatHTML(rec), f.FormatHTML(rec))
}

func TestFormatters_CarryEveryFieldVerbatim(t *testing.T) {
	f := testFormatter()
	rec := sampleRecord()

	want := []string{
		rec.Appointment.Name,
		rec.Appointment.Email,
		rec.Appointment.Phone,
		rec.Appointment.Date,
		rec.Appointment.Time,
		string(rec.SelectedPlan),
		"6 Month Complete",
		"₹17,999",
		"919876543210",
		"fitness@paytm",
		rec.ID,
		"14 March 2026, 10:45 AM IST",
	}
	for _, a := range rec.Questionnaire {
		want = append(want, a.Values()...)
	}

	for name, body := range map[string]string{
		"text": f.FormatText(rec),
		"html": f.FormatHTML(rec),
	} {
		for _, w := range want {
			assert.Contains(t, body, w, "%s body is missing %q", name, w)
		}
	}
}

func TestFormatters_SpecialCharactersEscapedOnlyInHTML(t *testing.T) {
	f := testFormatter()
	rec := sampleRecord()
	rec.Appointment.Name = "D'Souza & Co <Fitness>"
	rec.Appointment.Email = "o'brien+coach@example.com"

	text := f.FormatText(rec)
	assert.Contains(t, text, "D'Souza & Co <Fitness>")
	assert.Contains(t, text, "o'brien+coach@example.com")

	body := f.FormatHTML(rec)
	assert.Contains(t, body, "D&#39;Souza &amp; Co &lt;Fitness&gt;")
	assert.Contains(t, body, "o&#39;brien+coach@example.com")
	assert.NotContains(t, body, "<Fitness>")
	assert.Equal(t, rec.Appointment.Name, html.UnescapeString("D&#39;Souza &amp; Co &lt;Fitness&gt;"))
}

func TestFormatters_RenderLabelsAndHeadings(t *testing.T) {
	text := testFormatter().FormatText(sampleRecord())

	assert.True(t, strings.HasPrefix(text, "NEW FITNESS QUESTIONNAIRE SUBMISSION"))
	assert.Contains(t, text, "- Primary Goal: Lose Weight (weight-loss)")
	assert.Contains(t, text, "- Main Challenges: Lack of Time (time), Past Injuries (injuries)")
	assert.Contains(t, text, "- Selected Plan: 6 Month Complete (₹17,999) [premium]")
}

func TestFormatters_MissingAndEmptyAnswers(t *testing.T) {
	rec := sampleRecord()
	delete(rec.Questionnaire, "gender")
	rec.Questionnaire["challenges"] = funnel.MultiSelect()

	text := testFormatter().FormatText(rec)
	assert.Contains(t, text, "- Gender: N/A")
	assert.Contains(t, text, "- Main Challenges: None")
}

func TestFormatHTML_EscapesValues(t *testing.T) {
	rec := sampleRecord()
	rec.Appointment.Name = `<script>alert("x")</script>`

	out := testFormatter().FormatHTML(rec)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestFormatters_IncludeScreenshot(t *testing.T) {
	rec := sampleRecord()
	rec.Appointment.Screenshot = &booking.Attachment{
		Filename: "upi.png",
		Location: "s3://bucket/screenshots/upi.png",
	}

	f := testFormatter()
	for _, body := range []string{f.FormatText(rec), f.FormatHTML(rec)} {
		assert.Contains(t, body, "upi.png (s3://bucket/screenshots/upi.png)")
	}
}

func TestFormatters_UnknownPlanFallsBackToID(t *testing.T) {
	rec := sampleRecord()
	rec.SelectedPlan = "legacy"

	assert.Contains(t, testFormatter().FormatText(rec), "- Selected Plan: legacy")
}
