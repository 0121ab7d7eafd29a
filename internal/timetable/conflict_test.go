package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func booked(id string, start, end time.Time) BookedInterval {
	return BookedInterval{ID: id, Start: start, End: end}
}

func TestIntervalOverlapsBoundaries(t *testing.T) {
	lesson := Interval{Start: at(1, "10:00"), End: at(1, "11:00")}

	assert.False(t, lesson.Overlaps(Interval{Start: at(1, "11:00"), End: at(1, "12:00")}), "back-to-back after")
	assert.False(t, lesson.Overlaps(Interval{Start: at(1, "09:00"), End: at(1, "10:00")}), "back-to-back before")
	assert.True(t, lesson.Overlaps(Interval{Start: at(1, "10:30"), End: at(1, "11:30")}))
	assert.True(t, lesson.Overlaps(Interval{Start: at(1, "09:30"), End: at(1, "10:30")}))
	assert.True(t, lesson.Overlaps(Interval{Start: at(1, "10:15"), End: at(1, "10:45")}), "contained")
	assert.True(t, lesson.Overlaps(Interval{Start: at(1, "09:00"), End: at(1, "12:00")}), "containing")
	assert.True(t, lesson.Overlaps(lesson), "identical")
}

func TestFindConflictNone(t *testing.T) {
	candidates := []LessonOccurrence{{Start: at(1, "10:00"), End: at(1, "11:00")}}
	existing := []BookedInterval{booked("b-1", at(1, "11:00"), at(1, "12:00"))}

	assert.True(t, FindConflict(candidates, existing).IsAbsent())
	assert.True(t, FindConflict(nil, existing).IsAbsent())
	assert.True(t, FindConflict(candidates, nil).IsAbsent())
}

func TestFindConflictMatchesFirstGeneratedOccurrence(t *testing.T) {
	candidates, err := Expand(Request{OpenDay: monday, NumberLessons: 3, Slots: []WeeklySlot{slot(time.Monday, "09:00", "10:00")}})
	require.NoError(t, err)
	existing := []BookedInterval{booked("b-1", at(1, "09:00"), at(1, "10:00"))}

	conflict, found := FindConflict(candidates, existing).Get()
	require.True(t, found)
	assert.Equal(t, 0, conflict.CandidateIndex)
	assert.Equal(t, candidates[0], conflict.Candidate)
	assert.Equal(t, "b-1", conflict.Existing.ID)
}

func TestFindConflictOrdering(t *testing.T) {
	candidates := []LessonOccurrence{
		{Start: at(1, "09:00"), End: at(1, "10:00")},
		{Start: at(3, "14:00"), End: at(3, "15:00")},
	}
	existing := []BookedInterval{
		booked("late", at(3, "14:30"), at(3, "15:30")),
		booked("wide", at(1, "08:00"), at(3, "23:00")),
		booked("early", at(1, "09:30"), at(1, "09:45")),
	}

	conflict, found := FindConflict(candidates, existing).Get()
	require.True(t, found)
	assert.Equal(t, 0, conflict.CandidateIndex, "earliest-generated candidate wins")
	assert.Equal(t, "wide", conflict.Existing.ID, "ties broken by existing order")
	assert.Equal(t, 1, conflict.ExistingIndex)
}

func TestFindConflictAgreesWithPairwiseDefinition(t *testing.T) {
	candidates, err := Expand(Request{OpenDay: monday, NumberLessons: 6, Slots: []WeeklySlot{
		slot(time.Monday, "09:00", "10:00"),
		slot(time.Wednesday, "14:00", "15:00"),
	}})
	require.NoError(t, err)

	for hour := 0; hour < 24; hour++ {
		for day := 1; day <= 21; day++ {
			start := time.Date(2024, time.January, day, hour, 30, 0, 0, time.UTC)
			existing := []BookedInterval{booked("b", start, start.Add(45*time.Minute))}

			expected := false
			for _, c := range candidates {
				if !(!c.Start.Before(existing[0].End) || !c.End.After(existing[0].Start)) {
					expected = true
				}
			}
			assert.Equal(t, expected, FindConflict(candidates, existing).IsPresent(), "day %d hour %d", day, hour)
		}
	}
}

func TestPlanOutcomes(t *testing.T) {
	req := Request{OpenDay: monday, NumberLessons: 3, Slots: []WeeklySlot{slot(time.Monday, "09:00", "10:00")}}

	accepted := Plan(req, []BookedInterval{booked("b-1", at(1, "10:00"), at(1, "11:00"))})
	assert.Equal(t, OutcomeAccepted, accepted.Outcome)
	assert.Len(t, accepted.Occurrences, 3)
	assert.Nil(t, accepted.Conflict)

	rejected := Plan(req, []BookedInterval{booked("b-2", at(8, "09:30"), at(8, "10:30"))})
	assert.Equal(t, OutcomeConflict, rejected.Outcome)
	require.NotNil(t, rejected.Conflict)
	assert.Equal(t, 1, rejected.Conflict.CandidateIndex)
	assert.Empty(t, rejected.Occurrences)

	req.Slots[0].End = Clock{Hour: 8}
	bad := Plan(req, nil)
	assert.Equal(t, OutcomeInvalidInput, bad.Outcome)
	require.NotNil(t, bad.Invalid)
	assert.Equal(t, "slots[0].end", bad.Invalid.Field)
}
