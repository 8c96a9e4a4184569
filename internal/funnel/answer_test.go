package funnel

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/fitness-funnel/internal/catalog"
)

func TestMultiSelect_DedupesAndKeepsOrder(t *testing.T) {
	a := MultiSelect("energy", "time", "energy", "injuries")
	assert.Equal(t, catalog.Multiple, a.Kind())
	assert.Equal(t, []string{"energy", "time", "injuries"}, a.Values())
	assert.Equal(t, "energy, time, injuries", a.String())
	assert.Empty(t, a.Value())
	assert.False(t, a.Empty())
	assert.True(t, MultiSelect().Empty())
}

func TestAnswerValuesReturnsCopy(t *testing.T) {
	a := MultiSelect("time")
	vals := a.Values()
	vals[0] = "energy"
	assert.Equal(t, []string{"time"}, a.Values())
}

func TestAnswerJSON(t *testing.T) {
	answers := Answers{
		"goal":       Scalar("strength"),
		"challenges": MultiSelect("time", "energy"),
		"empty":      MultiSelect(),
	}
	raw, err := json.Marshal(answers)
	require.NoError(t, err)
	assert.JSONEq(t, `{"goal":"strength","challenges":["time","energy"],"empty":[]}`, string(raw))

	var decoded Answers
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, catalog.Single, decoded["goal"].Kind())
	assert.Equal(t, "strength", decoded["goal"].Value())
	assert.Equal(t, catalog.Multiple, decoded["challenges"].Kind())
	assert.Equal(t, []string{"time", "energy"}, decoded["challenges"].Values())

	var bad Answer
	err = json.Unmarshal([]byte(`42`), &bad)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "string or a list"))
}

func TestAnswersCloneIsIndependent(t *testing.T) {
	orig := Answers{"challenges": MultiSelect("time")}
	cp := orig.Clone()
	cp["challenges"] = MultiSelect("energy")
	cp["goal"] = Scalar("strength")

	assert.Equal(t, []string{"time"}, orig["challenges"].Values())
	_, ok := orig.Get("goal")
	assert.False(t, ok)
	assert.Nil(t, Answers(nil).Clone())
}
