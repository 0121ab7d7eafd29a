package timetable

import (
	"errors"

	"github.com/samber/mo"
)

// Conflict is the first candidate/booking pair found to overlap.
type Conflict struct {
	Candidate      LessonOccurrence `json:"candidate"`
	CandidateIndex int              `json:"candidateIndex"`
	Existing       BookedInterval   `json:"existing"`
	ExistingIndex  int              `json:"existingIndex"`
}

// FindConflict reports the earliest-generated candidate that overlaps an existing booking, ties
// broken by the order of existing. Touching intervals are not conflicts.
func FindConflict(candidates []LessonOccurrence, existing []BookedInterval) mo.Option[Conflict] {
	for ci, candidate := range candidates {
		window := candidate.Interval()
		for ei, booked := range existing {
			if window.Overlaps(booked.Interval()) {
				return mo.Some(Conflict{
					Candidate:      candidate,
					CandidateIndex: ci,
					Existing:       booked,
					ExistingIndex:  ei,
				})
			}
		}
	}
	return mo.None[Conflict]()
}

// Outcome classifies a scheduling decision.
type Outcome string

const (
	OutcomeAccepted     Outcome = "accepted"
	OutcomeConflict     Outcome = "conflict"
	OutcomeInvalidInput Outcome = "invalid_input"
)

// Decision is the result of planning a timetable against a tutor's bookings.
// Exactly one of Occurrences (accepted), Conflict or Invalid is meaningful for a given Outcome.
type Decision struct {
	Outcome     Outcome
	Occurrences []LessonOccurrence
	Conflict    *Conflict
	Invalid     *InvalidInputError
}

// Plan expands req and checks the result against existing. It never persists anything.
func Plan(req Request, existing []BookedInterval) Decision {
	occurrences, err := Expand(req)
	if err != nil {
		var inv *InvalidInputError
		if !errors.As(err, &inv) {
			inv = &InvalidInputError{Field: "slots", Reason: err.Error()}
		}
		return Decision{Outcome: OutcomeInvalidInput, Invalid: inv}
	}
	if conflict, found := FindConflict(occurrences, existing).Get(); found {
		return Decision{Outcome: OutcomeConflict, Conflict: &conflict}
	}
	return Decision{Outcome: OutcomeAccepted, Occurrences: occurrences}
}
