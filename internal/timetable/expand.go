package timetable

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
)

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// Expand turns a weekly timetable into exactly NumberLessons dated occurrences, ordered by start.
// A non-positive lesson count or an empty slot set yields an empty result. Invalid input yields an
// *InvalidInputError and no occurrences.
func Expand(req Request) ([]LessonOccurrence, error) {
	if req.NumberLessons <= 0 || len(req.Slots) == 0 {
		return []LessonOccurrence{}, nil
	}
	if !req.OpenDay.Valid() {
		return nil, invalid("openDay", "%q is not a calendar date", req.OpenDay.String())
	}
	if req.NumberLessons > MaxLessons {
		return nil, invalid("numberLessons", "must not exceed %d, got %d", MaxLessons, req.NumberLessons)
	}
	zones, err := validateSlots(req.Slots)
	if err != nil {
		return nil, err
	}

	sorted := SortSlots(req.Slots)
	byDay := make(map[time.Weekday][]WeeklySlot, 7)
	for _, slot := range sorted {
		byDay[slot.DayOfWeek] = append(byDay[slot.DayOfWeek], slot)
	}

	days, err := lessonDays(req.OpenDay, req.NumberLessons, byDay)
	if err != nil {
		return nil, err
	}

	occurrences := make([]LessonOccurrence, 0, min(req.NumberLessons, 1024))
collect:
	for _, day := range days {
		for _, slot := range byDay[day.Weekday()] {
			occurrences = append(occurrences, occurrenceOn(day, slot, zones[slot.TimeZone]))
			if len(occurrences) == req.NumberLessons {
				break collect
			}
		}
	}

	// Slots in different zones can resolve out of scan order.
	if len(zones) > 1 {
		sort.SliceStable(occurrences, func(i, j int) bool {
			return occurrences[i].Start.Before(occurrences[j].Start)
		})
	}
	if err := checkGenerated(occurrences); err != nil {
		return nil, err
	}
	return occurrences, nil
}

// lessonDays lists the calendar days from openDay (inclusive) whose weekday carries at least one
// slot. Each such day yields at least one lesson, so n days always suffice; the scan window is
// additionally capped at 7n+7 days. n never exceeds MaxLessons here.
func lessonDays(openDay Date, n int, byDay map[time.Weekday][]WeeklySlot) ([]Date, error) {
	weekdays := make([]rrule.Weekday, 0, len(byDay))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if len(byDay[wd]) > 0 {
			weekdays = append(weekdays, rruleWeekdays[wd])
		}
	}

	start := openDay.midnightUTC()
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start,
		Count:     n,
		Byweekday: weekdays,
	})
	if err != nil {
		return nil, fmt.Errorf("build weekly rule: %w", err)
	}

	limit := start.AddDate(0, 0, 7*n+7)
	instants := rule.Between(start, limit, true)
	days := make([]Date, 0, len(instants))
	for _, instant := range instants {
		days = append(days, DateOf(instant.In(time.UTC)))
	}
	return days, nil
}

// EndDate returns the end of the last occurrence, which callers project as the course end date.
func EndDate(occurrences []LessonOccurrence) mo.Option[time.Time] {
	if len(occurrences) == 0 {
		return mo.None[time.Time]()
	}
	return mo.Some(occurrences[len(occurrences)-1].End)
}
