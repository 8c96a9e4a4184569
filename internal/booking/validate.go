package booking

import (
	"errors"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Messages reported by Validate, in evaluation order.
const (
	MsgName        = "Name must be at least 2 characters long"
	MsgEmail       = "Please enter a valid email address"
	MsgPhone       = "Please enter a valid 10-digit phone number"
	MsgDateMissing = "Please select an appointment date"
	MsgDateInvalid = "Please enter a valid appointment date"
	MsgDatePast    = "Please select a future date"
	MsgTimeMissing = "Please select an appointment time"
	MsgTimeInvalid = "Please select one of the available time slots"
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	nonDigits     = regexp.MustCompile(`\D`)
)

// Result is the validator verdict. Errors keeps rule order.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate checks every booking rule against the form and reports all
// violations together. today anchors the date rule; only its calendar day
// in its own location matters. slots is the closed set of time labels.
func Validate(form Appointment, today time.Time, slots []string) Result {
	allowed := make([]interface{}, 0, len(slots))
	for _, s := range slots {
		allowed = append(allowed, s)
	}

	checks := []struct {
		value any
		rules []validation.Rule
	}{
		{strings.TrimSpace(form.Name), []validation.Rule{
			validation.Required.Error(MsgName),
			validation.RuneLength(2, 0).Error(MsgName),
		}},
		{strings.TrimSpace(form.Email), []validation.Rule{
			validation.Required.Error(MsgEmail),
			validation.Match(emailPattern).Error(MsgEmail),
		}},
		{NormalizePhone(form.Phone), []validation.Rule{
			validation.Required.Error(MsgPhone),
			validation.Match(mobilePattern).Error(MsgPhone),
		}},
		{strings.TrimSpace(form.Date), []validation.Rule{
			validation.Required.Error(MsgDateMissing),
			validation.By(notBefore(today)),
		}},
		{strings.TrimSpace(form.Time), []validation.Rule{
			validation.Required.Error(MsgTimeMissing),
			validation.In(allowed...).Error(MsgTimeInvalid),
		}},
	}

	errs := []string{}
	for _, c := range checks {
		if err := validation.Validate(c.value, c.rules...); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// NormalizePhone strips everything but digits and keeps the last ten.
func NormalizePhone(raw string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

func notBefore(today time.Time) validation.RuleFunc {
	loc := today.Location()
	y, m, d := today.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return func(value interface{}) error {
		raw, _ := value.(string)
		if raw == "" {
			return nil
		}
		day, err := time.ParseInLocation(DateLayout, raw, loc)
		if err != nil {
			return errors.New(MsgDateInvalid)
		}
		if day.Before(midnight) {
			return errors.New(MsgDatePast)
		}
		return nil
	}
}
