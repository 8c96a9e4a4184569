// Package catalog holds the static funnel content: the questionnaire, the
// coaching plans and the bookable time slots. Everything here is read-only
// configuration handed to the wizard, the validator and the formatters.
package catalog

// Kind tells whether a question takes one option or several.
type Kind string

const (
	Single   Kind = "single"
	Multiple Kind = "multiple"
)

// Option is one selectable answer.
type Option struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Question is one questionnaire step.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Summary string   `json:"summary"`
	Kind    Kind     `json:"kind"`
	Options []Option `json:"options"`
}

// Heading is the short label used in notifications, falling back to the
// prompt.
func (q Question) Heading() string {
	if q.Summary != "" {
		return q.Summary
	}
	return q.Prompt
}

// HasOption reports whether value is one of the question's options.
func (q Question) HasOption(value string) bool {
	_, ok := q.Option(value)
	return ok
}

// Option returns the option with the given value.
func (q Question) Option(value string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Value == value {
			return opt, true
		}
	}
	return Option{}, false
}

// Questions is the ordered questionnaire.
type Questions []Question

// Find returns the question with the given id and its position.
func (qs Questions) Find(id string) (Question, int, bool) {
	for i, q := range qs {
		if q.ID == id {
			return q, i, true
		}
	}
	return Question{}, -1, false
}

// IDs returns question ids in order.
func (qs Questions) IDs() []string {
	ids := make([]string, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.ID)
	}
	return ids
}

// DefaultQuestions returns the eight-step fitness questionnaire.
func DefaultQuestions() Questions {
	return Questions{
		{
			ID:      "goal",
			Summary: "Primary Goal",
			Prompt:  "What is your primary fitness goal?",
			Kind:    Single,
			Options: []Option{
				{Value: "weight-loss", Label: "Lose Weight"},
				{Value: "muscle-gain", Label: "Build Muscle"},
				{Value: "endurance", Label: "Improve Endurance"},
				{Value: "general-fitness", Label: "General Fitness"},
				{Value: "strength", Label: "Increase Strength"},
			},
		},
		{
			ID:      "experience",
			Summary: "Experience Level",
			Prompt:  "What is your current fitness level?",
			Kind:    Single,
			Options: []Option{
				{Value: "beginner", Label: "Beginner", Description: "Just starting my fitness journey"},
				{Value: "intermediate", Label: "Intermediate", Description: "I exercise regularly"},
				{Value: "advanced", Label: "Advanced", Description: "Very experienced with workouts"},
			},
		},
		{
			ID:      "timeCommitment",
			Summary: "Time Commitment",
			Prompt:  "How much time can you commit to working out?",
			Kind:    Single,
			Options: []Option{
				{Value: "15-30min", Label: "15-30 minutes", Description: "Short, efficient workouts"},
				{Value: "30-45min", Label: "30-45 minutes", Description: "Moderate workout sessions"},
				{Value: "45-60min", Label: "45-60 minutes", Description: "Comprehensive training"},
				{Value: "60min+", Label: "60+ minutes", Description: "Extended workout sessions"},
			},
		},
		{
			ID:      "equipment",
			Summary: "Equipment Access",
			Prompt:  "What equipment do you have access to?",
			Kind:    Single,
			Options: []Option{
				{Value: "none", Label: "No Equipment", Description: "Bodyweight exercises only"},
				{Value: "basic", Label: "Basic Equipment", Description: "Dumbbells, resistance bands"},
				{Value: "home-gym", Label: "Home Gym", Description: "Full equipment setup"},
				{Value: "gym", Label: "Gym Membership", Description: "Access to commercial gym"},
			},
		},
		{
			ID:      "bodyType",
			Summary: "Body Type",
			Prompt:  "How would you describe your current body type?",
			Kind:    Single,
			Options: []Option{
				{Value: "ectomorph", Label: "Lean/Slim", Description: "Naturally thin build"},
				{Value: "mesomorph", Label: "Athletic/Balanced", Description: "Medium build, some muscle"},
				{Value: "endomorph", Label: "Curvy/Larger", Description: "Rounder, fuller build"},
			},
		},
		{
			ID:      "age",
			Summary: "Age Range",
			Prompt:  "What is your age range?",
			Kind:    Single,
			Options: []Option{
				{Value: "18-25", Label: "18-25 years"},
				{Value: "26-35", Label: "26-35 years"},
				{Value: "36-45", Label: "36-45 years"},
				{Value: "46-55", Label: "46-55 years"},
				{Value: "55+", Label: "55+ years"},
			},
		},
		{
			ID:      "gender",
			Summary: "Gender",
			Prompt:  "What is your gender?",
			Kind:    Single,
			Options: []Option{
				{Value: "female", Label: "Female"},
				{Value: "male", Label: "Male"},
				{Value: "other", Label: "Other"},
				{Value: "prefer-not-to-say", Label: "Prefer not to say"},
			},
		},
		{
			ID:      "challenges",
			Summary: "Main Challenges",
			Prompt:  "What are your biggest fitness challenges?",
			Kind:    Multiple,
			Options: []Option{
				{Value: "time", Label: "Lack of Time"},
				{Value: "motivation", Label: "Staying Motivated"},
				{Value: "knowledge", Label: "Not Knowing What to Do"},
				{Value: "consistency", Label: "Being Consistent"},
				{Value: "energy", Label: "Low Energy"},
				{Value: "injuries", Label: "Past Injuries"},
			},
		},
	}
}

// DefaultTimeSlots returns the bookable consultation slots.
func DefaultTimeSlots() []string {
	return []string{
		"09:00 AM", "10:00 AM", "11:00 AM", "12:00 PM",
		"02:00 PM", "03:00 PM", "04:00 PM", "05:00 PM",
		"06:00 PM", "07:00 PM",
	}
}
