package funnel

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/wolfman30/fitness-funnel/internal/catalog"
)

// Answer is either a single selected option or an ordered set of options,
// tagged by the question kind it answers.
type Answer struct {
	kind   catalog.Kind
	values []string
}

// Scalar answers a single-choice question.
func Scalar(value string) Answer {
	return Answer{kind: catalog.Single, values: []string{value}}
}

// MultiSelect answers a multiple-choice question. Selection order is kept
// and repeated values are dropped.
func MultiSelect(values ...string) Answer {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return Answer{kind: catalog.Multiple, values: out}
}

// Kind reports which question kind the answer belongs to.
func (a Answer) Kind() catalog.Kind { return a.kind }

// Value returns the scalar value, or "" for a multi-select.
func (a Answer) Value() string {
	if a.kind != catalog.Single || len(a.values) == 0 {
		return ""
	}
	return a.values[0]
}

// Values returns a copy of the selected options.
func (a Answer) Values() []string {
	out := make([]string, len(a.values))
	copy(out, a.values)
	return out
}

// Empty reports whether nothing was selected.
func (a Answer) Empty() bool {
	if a.kind == catalog.Single {
		return a.Value() == ""
	}
	return len(a.values) == 0
}

// String joins the selected options with ", ".
func (a Answer) String() string {
	return strings.Join(a.values, ", ")
}

// MarshalJSON encodes scalars as a string and multi-selects as an array.
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.kind == catalog.Single {
		return json.Marshal(a.Value())
	}
	return json.Marshal(a.Values())
}

// UnmarshalJSON accepts a string or an array of strings.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = Scalar(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*a = MultiSelect(many...)
		return nil
	}
	return errors.New("funnel: answer must be a string or a list of strings")
}

// Answers maps question id to answer.
type Answers map[string]Answer

// Clone returns an independent copy.
func (as Answers) Clone() Answers {
	if as == nil {
		return nil
	}
	out := make(Answers, len(as))
	for k, v := range as {
		out[k] = Answer{kind: v.kind, values: v.Values()}
	}
	return out
}

// Get returns the answer for a question id.
func (as Answers) Get(id string) (Answer, bool) {
	a, ok := as[id]
	return a, ok
}
