// Package adherence computes the bounded medication adherence score.
package adherence

import "github.com/jwalitptl/healthplus/internal/model"

const (
	Min = 0
	Max = 100
	// Increment is added for every recorded dose.
	Increment = 2
	// Baseline is the floor reached by eventCount doses: Baseline + eventCount*Increment.
	Baseline = 75
)

// Next returns the score after one more recorded dose. eventCount is the number
// of dose events for the medication including the one just recorded. The result
// never decreases from a valid current score and is clamped to [Min, Max].
func Next(current, eventCount int) int {
	current = clamp(current)
	if eventCount < 0 {
		eventCount = 0
	}

	next := current + Increment
	if floor := Baseline + eventCount*Increment; floor > next {
		next = floor
	}
	return clamp(next)
}

func clamp(score int) int {
	if score < Min {
		return Min
	}
	if score > Max {
		return Max
	}
	return score
}

// Summary describes a medication's dose history.
type Summary struct {
	Count         int
	Verified      int
	VerifiedRatio float64
}

// Summarize counts the events for medicationID. An empty medicationID counts all.
func Summarize(events []model.DoseEvent, medicationID string) Summary {
	var s Summary
	for _, e := range events {
		if medicationID != "" && e.MedicationID != medicationID {
			continue
		}
		s.Count++
		if e.Verified {
			s.Verified++
		}
	}
	if s.Count > 0 {
		s.VerifiedRatio = float64(s.Verified) / float64(s.Count)
	}
	return s
}
