package funnelapi

import (
	"github.com/wolfman30/fitness-funnel/internal/booking"
	"github.com/wolfman30/fitness-funnel/internal/catalog"
	"github.com/wolfman30/fitness-funnel/internal/funnel"
)

// View is what the browser renders for one session.
type View struct {
	ID          string               `json:"id"`
	Step        funnel.Step          `json:"step"`
	Question    *catalog.Question    `json:"question,omitempty"`
	Progress    *Progress            `json:"progress,omitempty"`
	Answers     funnel.Answers       `json:"answers"`
	Recommended catalog.PlanID       `json:"recommended_plan,omitempty"`
	Plan        *catalog.Plan        `json:"plan,omitempty"`
	TimeSlots   []string             `json:"time_slots,omitempty"`
	Appointment *booking.Appointment `json:"appointment,omitempty"`
	Submission  string               `json:"submission_id,omitempty"`
	UPIURI      string               `json:"upi_uri,omitempty"`
	WhatsAppURL string               `json:"whatsapp_url,omitempty"`
	LastError   string               `json:"last_error,omitempty"`
	Submitted   bool                 `json:"submitted"`
	Pending     bool                 `json:"pending"`
}

// Progress is the questionnaire position, 1-based.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

func (h *Handler) view(id string, w *funnel.Wizard) View {
	st := w.State()
	v := View{
		ID:          id,
		Step:        st.Step,
		Answers:     st.Answers,
		Appointment: st.Appointment,
		LastError:   st.LastError,
		Submitted:   st.Submitted,
		Pending:     st.Pending,
	}

	switch st.Step {
	case funnel.StepQuestionnaire:
		questions := w.Questions()
		q := questions[st.QuestionIndex]
		v.Question = &q
		v.Progress = &Progress{
			Current: st.QuestionIndex + 1,
			Total:   len(questions),
			Percent: (st.QuestionIndex + 1) * 100 / len(questions),
		}
	case funnel.StepPricing:
		v.Recommended = w.Recommended()
	case funnel.StepAppointment:
		v.TimeSlots = w.TimeSlots()
	}

	if st.Plan != "" {
		if plan, ok := w.Plans().Find(st.Plan); ok {
			v.Plan = &plan
			v.UPIURI = funnel.UPIPaymentURI(h.cfg.UPIID, h.cfg.UPIPayee, plan)
			if st.Record != nil {
				v.WhatsAppURL = funnel.WhatsAppURL(h.cfg.WhatsAppNumber, funnel.HandoffMessage(plan, *st.Record))
			}
		}
	}
	if st.Record != nil {
		v.Submission = st.Record.ID
	}
	return v
}
