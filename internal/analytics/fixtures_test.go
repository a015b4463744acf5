package analytics

import (
	"fmt"

	"reactionlens/internal/events"
	"reactionlens/internal/testsupport"
)

// testsupport8DaySpike builds seven quiet, mixed days followed by one heavy
// all-Wow day.
func testsupport8DaySpike() []events.Event {
	var out []events.Event
	for day := 0; day < 7; day++ {
		out = append(out,
			testsupport.Reaction(events.EmojiWow, testsupport.Day(day, 9), fmt.Sprintf("w%d", day)),
			testsupport.Reaction(events.EmojiBoring, testsupport.Day(day, 12), fmt.Sprintf("b%d", day)),
		)
	}
	for i := 0; i < 30; i++ {
		out = append(out,
			testsupport.Reaction(events.EmojiWow, testsupport.Day(7, 10), fmt.Sprintf("spike%d", i)))
	}
	return out
}

// testsupportTwoWeeks builds 14 consecutive single-event days.
func testsupportTwoWeeks() []events.Event {
	var out []events.Event
	for day := 0; day < 14; day++ {
		out = append(out,
			testsupport.Reaction(events.EmojiCurious, testsupport.Day(day, 12), fmt.Sprintf("u%d", day)))
	}
	return out
}

// risingSentiment builds a run of days whose sentiment climbs from all-Boring
// toward all-Wow.
func risingSentiment(days int) []events.Event {
	var out []events.Event
	for day := 0; day < days; day++ {
		wows := day
		borings := days - 1 - day
		for i := 0; i < wows; i++ {
			out = append(out,
				testsupport.Reaction(events.EmojiWow, testsupport.Day(day, 9), fmt.Sprintf("d%dw%d", day, i)))
		}
		for i := 0; i < borings; i++ {
			out = append(out,
				testsupport.Reaction(events.EmojiBoring, testsupport.Day(day, 15), fmt.Sprintf("d%db%d", day, i)))
		}
		if wows == 0 && borings == 0 {
			out = append(out,
				testsupport.Reaction(events.EmojiCurious, testsupport.Day(day, 12), fmt.Sprintf("d%dc", day)))
		}
	}
	return out
}
