// Package booking models the consultation booking form and validates it
// before the wizard is allowed to submit.
package booking

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format the booking form uses.
const DateLayout = "2006-01-02"

// Attachment describes the optional payment screenshot. The bytes live in
// object storage; the form only carries where they went.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
	Location    string `json:"location,omitempty"`
}

// Appointment is the booking form as the user submitted it.
type Appointment struct {
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Phone      string      `json:"phone"`
	Date       string      `json:"date"`
	Time       string      `json:"time"`
	Screenshot *Attachment `json:"payment_screenshot,omitempty"`
}

// Normalized returns a copy with surrounding whitespace removed.
func (a Appointment) Normalized() Appointment {
	out := Appointment{
		Name:  strings.TrimSpace(a.Name),
		Email: strings.TrimSpace(a.Email),
		Phone: strings.TrimSpace(a.Phone),
		Date:  strings.TrimSpace(a.Date),
		Time:  strings.TrimSpace(a.Time),
	}
	if a.Screenshot != nil {
		shot := *a.Screenshot
		out.Screenshot = &shot
	}
	return out
}

// Day parses the appointment date.
func (a Appointment) Day(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, strings.TrimSpace(a.Date), loc)
}
