package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultQuestions(t *testing.T) {
	qs := DefaultQuestions()
	require.Len(t, qs, 8)
	assert.Equal(t, []string{"goal", "experience", "timeCommitment", "equipment", "bodyType", "age", "gender", "challenges"}, qs.IDs())

	seen := map[string]bool{}
	for _, q := range qs {
		assert.False(t, seen[q.ID], "duplicate question id %s", q.ID)
		seen[q.ID] = true
		assert.NotEmpty(t, q.Options, "question %s has no options", q.ID)
	}

	q, idx, ok := qs.Find("challenges")
	require.True(t, ok)
	assert.Equal(t, 7, idx)
	assert.Equal(t, Multiple, q.Kind)
	assert.True(t, q.HasOption("motivation"))
	assert.False(t, q.HasOption("boredom"))

	_, _, ok = qs.Find("shoe-size")
	assert.False(t, ok)
}

func TestPlans(t *testing.T) {
	plans := DefaultPlans()
	require.Len(t, plans, 3)

	premium, ok := plans.Find(PlanPremium)
	require.True(t, ok)
	assert.Equal(t, "₹17,999", premium.PriceLabel())
	assert.Equal(t, "6 Month Complete (₹17,999)", premium.Label())
	assert.Equal(t, 40, premium.SavingsPercent())
	assert.Equal(t, 6, premium.DurationMonths)

	_, ok = plans.Find("platinum")
	assert.False(t, ok)
}

func TestRecommendPlan(t *testing.T) {
	tests := []struct {
		goal, experience string
		want             PlanID
	}{
		{"strength", "beginner", PlanBasic},
		{"weight-loss", "beginner", PlanBasic},
		{"weight-loss", "intermediate", PlanPremium},
		{"muscle-gain", "advanced", PlanPremium},
		{"endurance", "advanced", PlanElite},
		{"", "", PlanElite},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RecommendPlan(tt.goal, tt.experience), "goal=%s experience=%s", tt.goal, tt.experience)
	}
}

func TestFormatRupees(t *testing.T) {
	assert.Equal(t, "₹0", FormatRupees(0))
	assert.Equal(t, "₹999", FormatRupees(999))
	assert.Equal(t, "₹9,999", FormatRupees(9999))
	assert.Equal(t, "₹1,234,567", FormatRupees(1234567))
	assert.Equal(t, "₹-5,000", FormatRupees(-5000))
}

func TestDefaultTimeSlots(t *testing.T) {
	slots := DefaultTimeSlots()
	assert.Len(t, slots, 10)
	assert.Contains(t, slots, "10:00 AM")
}
