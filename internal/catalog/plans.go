package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// PlanID identifies a coaching plan.
type PlanID string

const (
	PlanBasic   PlanID = "basic"
	PlanPremium PlanID = "premium"
	PlanElite   PlanID = "elite"
)

// Plan is a fixed-price coaching package. Prices are whole rupees.
type Plan struct {
	ID             PlanID   `json:"id"`
	Name           string   `json:"name"`
	Price          int      `json:"price"`
	OriginalPrice  int      `json:"original_price"`
	DurationMonths int      `json:"duration_months"`
	Popular        bool     `json:"popular,omitempty"`
	Features       []string `json:"features"`
}

// PriceLabel renders the price the way the funnel shows it, e.g. ₹17,999.
func (p Plan) PriceLabel() string {
	return FormatRupees(p.Price)
}

// Label is the plan name with its price, used in notifications.
func (p Plan) Label() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.PriceLabel())
}

// SavingsPercent is the rounded discount against the original price.
func (p Plan) SavingsPercent() int {
	if p.OriginalPrice <= 0 || p.Price >= p.OriginalPrice {
		return 0
	}
	saved := float64(p.OriginalPrice-p.Price) / float64(p.OriginalPrice) * 100
	return int(saved + 0.5)
}

// Plans is the ordered plan menu.
type Plans []Plan

// Find looks a plan up by id.
func (ps Plans) Find(id PlanID) (Plan, bool) {
	for _, p := range ps {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// DefaultPlans returns the three coaching packages.
func DefaultPlans() Plans {
	return Plans{
		{
			ID:             PlanBasic,
			Name:           "3 Month Transformation",
			Price:          9999,
			OriginalPrice:  15999,
			DurationMonths: 3,
			Features: []string{
				"Personalized workout plan",
				"Basic nutrition guidelines",
				"Weekly progress tracking",
				"Email support",
				"Exercise video library",
				"Basic meal planning",
			},
		},
		{
			ID:             PlanPremium,
			Name:           "6 Month Complete",
			Price:          17999,
			OriginalPrice:  29999,
			DurationMonths: 6,
			Popular:        true,
			Features: []string{
				"Everything in 3 Month plan",
				"Advanced nutrition coaching",
				"Bi-weekly video consultations",
				"Custom supplement recommendations",
				"Priority WhatsApp support",
				"Habit tracking system",
				"Recipe database access",
				"Progress photo analysis",
			},
		},
		{
			ID:             PlanElite,
			Name:           "9 Month Elite",
			Price:          24999,
			OriginalPrice:  45999,
			DurationMonths: 9,
			Features: []string{
				"Everything in 6 Month plan",
				"Weekly 1-on-1 video calls",
				"24/7 WhatsApp support",
				"Custom meal prep plans",
				"Lifestyle coaching",
				"Advanced body composition tracking",
				"Exclusive community access",
				"Lifetime plan updates",
				"Money-back guarantee",
			},
		},
	}
}

// RecommendPlan picks the advisory plan for a goal and experience level.
// Beginners get basic, weight-loss and muscle-gain goals get premium, the
// rest get elite. The result is never enforced.
func RecommendPlan(goal, experience string) PlanID {
	if experience == "beginner" {
		return PlanBasic
	}
	if goal == "weight-loss" || goal == "muscle-gain" {
		return PlanPremium
	}
	return PlanElite
}

// FormatRupees formats whole rupees with thousands separators.
func FormatRupees(amount int) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.Itoa(amount)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return "₹" + sign + b.String()
}
