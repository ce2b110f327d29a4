package adherence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/healthplus/internal/model"
)

func TestNextIsMonotonicAndBounded(t *testing.T) {
	for s := 0; s < 100; s++ {
		for count := 0; count < 20; count++ {
			got := Next(s, count)
			assert.GreaterOrEqual(t, got, s, "score %d count %d", s, count)
			assert.LessOrEqual(t, got, Max)
		}
	}
	for count := 0; count < 60; count++ {
		assert.Equal(t, Max, Next(Max, count))
	}
}

func TestNextThreeDosesFromEightyFive(t *testing.T) {
	score := 85
	for count := 1; count <= 3; count++ {
		score = Next(score, count)
	}
	assert.Equal(t, 85+3*Increment, score)
}

func TestNextClampsNearTop(t *testing.T) {
	score := 97
	score = Next(score, 1)
	score = Next(score, 2)
	assert.Equal(t, 100, score)
}

func TestNextClampsInvalidInput(t *testing.T) {
	assert.Equal(t, Baseline, Next(-40, 0))
	assert.Equal(t, Max, Next(250, 1))
}

func TestNextUsesHistoryFloor(t *testing.T) {
	assert.Equal(t, Baseline+10*Increment, Next(20, 10))
}

func TestSummarize(t *testing.T) {
	events := []model.DoseEvent{
		{ID: "1", MedicationID: "m1", Verified: true},
		{ID: "2", MedicationID: "m1", Verified: false},
		{ID: "3", MedicationID: "m2", Verified: true},
		{ID: "4", MedicationID: "m1", Verified: true},
	}

	s := Summarize(events, "m1")
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 2, s.Verified)
	assert.InDelta(t, 2.0/3.0, s.VerifiedRatio, 1e-9)

	assert.Equal(t, Summary{}, Summarize(nil, "m1"))
	assert.Equal(t, 4, Summarize(events, "").Count)
}
