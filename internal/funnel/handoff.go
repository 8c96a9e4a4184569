package funnel

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/wolfman30/fitness-funnel/internal/catalog"
)

// HandoffMessage is the prefilled WhatsApp text shown on the confirmation
// screen so the visitor can ping the coach after paying.
func HandoffMessage(plan catalog.Plan, rec SubmissionRecord) string {
	return fmt.Sprintf(
		"Hi! I've booked the %s plan and made the payment of %s. My appointment is on %s at %s. Name: %s",
		plan.Name, plan.PriceLabel(), rec.Appointment.Date, rec.Appointment.Time, rec.Appointment.Name,
	)
}

// WhatsAppURL builds a click-to-chat link for number with message prefilled.
func WhatsAppURL(number, message string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + digits + "?text=" + text
}

// UPIPaymentURI builds a upi://pay intent for the plan price in INR.
func UPIPaymentURI(upiID, payee string, plan catalog.Plan) string {
	q := url.Values{}
	q.Set("pa", upiID)
	q.Set("pn", payee)
	q.Set("am", fmt.Sprintf("%d", plan.Price))
	q.Set("cu", "INR")
	return "upi://pay?" + q.Encode()
}
