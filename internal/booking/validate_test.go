package booking

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/fitness-funnel/internal/catalog"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func validForm(today time.Time) Appointment {
	return Appointment{
		Name:  "Jo",
		Email: "a@b.co",
		Phone: "9876543210",
		Date:  today.Format(DateLayout),
		Time:  "10:00 AM",
	}
}

func TestValidate_AllFieldsValid(t *testing.T) {
	today := time.Date(2026, 3, 14, 18, 45, 0, 0, ist)
	res := Validate(validForm(today), today, catalog.DefaultTimeSlots())

	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.NotNil(t, res.Errors, "errors should be an empty list, not nil")
}

func TestValidate_ReportsEveryViolationInOrder(t *testing.T) {
	today := time.Date(2026, 3, 14, 9, 0, 0, 0, ist)
	form := Appointment{
		Name:  "J",
		Email: "bad",
		Phone: "123",
		Date:  today.AddDate(0, 0, -1).Format(DateLayout),
		Time:  "",
	}

	res := Validate(form, today, catalog.DefaultTimeSlots())

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 5)
	assert.Equal(t, []string{MsgName, MsgEmail, MsgPhone, MsgDatePast, MsgTimeMissing}, res.Errors)
}

func TestValidate_Name(t *testing.T) {
	today := time.Date(2026, 3, 14, 0, 0, 0, 0, ist)
	for _, name := range []string{"", " ", "  J  "} {
		form := validForm(today)
		form.Name = name
		res := Validate(form, today, catalog.DefaultTimeSlots())
		assert.Equal(t, []string{MsgName}, res.Errors, "name %q", name)
	}

	form := validForm(today)
	form.Name = "  Jo "
	assert.True(t, Validate(form, today, catalog.DefaultTimeSlots()).Valid)
}

func TestValidate_Email(t *testing.T) {
	today := time.Date(2026, 3, 14, 0, 0, 0, 0, ist)
	tests := map[string]bool{
		"a@b.co":            true,
		"first.last@gym.in": true,
		"a@b":               false,
		"a b@c.de":          false,
		"@b.co":             false,
		"":                  false,
	}
	for email, ok := range tests {
		form := validForm(today)
		form.Email = email
		assert.Equal(t, ok, Validate(form, today, catalog.DefaultTimeSlots()).Valid, "email %q", email)
	}
}

func TestValidate_Phone(t *testing.T) {
	today := time.Date(2026, 3, 14, 0, 0, 0, 0, ist)
	tests := map[string]bool{
		"9876543210":       true,
		"+91 98765 43210":  true,
		"(+91) 6000-000000": true,
		"5876543210":       false,
		"0876543210":       false,
		"987654321":        false,
		"":                 false,
		"phone":            false,
	}
	for phone, ok := range tests {
		form := validForm(today)
		form.Phone = phone
		res := Validate(form, today, catalog.DefaultTimeSlots())
		assert.Equal(t, ok, res.Valid, "phone %q errors=%v", phone, res.Errors)
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "9876543210", NormalizePhone("+91-98765-43210"))
	assert.Equal(t, "123", NormalizePhone("1-2-3"))
	assert.Equal(t, "", NormalizePhone("n/a"))
}

func TestValidate_Date(t *testing.T) {
	today := time.Date(2026, 3, 14, 23, 59, 0, 0, ist)
	slots := catalog.DefaultTimeSlots()

	form := validForm(today)
	form.Date = ""
	assert.Equal(t, []string{MsgDateMissing}, Validate(form, today, slots).Errors)

	form.Date = "14/03/2026"
	assert.Equal(t, []string{MsgDateInvalid}, Validate(form, today, slots).Errors)

	form.Date = "2026-03-13"
	assert.Equal(t, []string{MsgDatePast}, Validate(form, today, slots).Errors)

	// Same calendar day late in the evening still counts as today.
	form.Date = "2026-03-14"
	assert.True(t, Validate(form, today, slots).Valid)

	form.Date = "2027-01-01"
	assert.True(t, Validate(form, today, slots).Valid)
}

func TestValidate_TimeMustBeConfiguredSlot(t *testing.T) {
	today := time.Date(2026, 3, 14, 0, 0, 0, 0, ist)
	form := validForm(today)
	form.Time = "01:00 AM"

	res := Validate(form, today, catalog.DefaultTimeSlots())
	assert.Equal(t, []string{MsgTimeInvalid}, res.Errors)
}

func TestValidate_ConcurrentCallsAgree(t *testing.T) {
	today := time.Date(2026, 3, 14, 0, 0, 0, 0, ist)
	slots := catalog.DefaultTimeSlots()
	form := Appointment{Name: "J", Email: "x", Phone: "1", Date: "2026-03-01", Time: "nope"}

	var wg sync.WaitGroup
	results := make([]Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Validate(form, today, slots)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestAppointmentNormalized(t *testing.T) {
	a := Appointment{Name: " Jo ", Email: " a@b.co", Screenshot: &Attachment{Filename: "pay.png"}}
	n := a.Normalized()
	assert.Equal(t, "Jo", n.Name)
	assert.Equal(t, "a@b.co", n.Email)
	require.NotNil(t, n.Screenshot)
	n.Screenshot.Filename = "other.png"
	assert.Equal(t, "pay.png", a.Screenshot.Filename)

	day, err := Appointment{Date: "2026-05-01"}.Day(ist)
	require.NoError(t, err)
	assert.Equal(t, time.May, day.Month())
}
