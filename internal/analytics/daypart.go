package analytics

import (
	"time"

	"reactionlens/internal/events"
)

// Dayparts buckets events by Pacific-time weekday and hour of day. Weekday
// indices follow time.Weekday (Sunday = 0); grids are [weekday][hour].
type Dayparts struct {
	WeekdayTotals [7]int     `json:"weekday_totals"`
	WeekdayWow    [7]int     `json:"weekday_wow"`
	Grid          [7][24]int `json:"grid"`
	GridWow       [7][24]int `json:"grid_wow"`
	GridCurious   [7][24]int `json:"grid_curious"`
	GridBoring    [7][24]int `json:"grid_boring"`
}

// Audience local time. Falls back to UTC if tzdata is unavailable.
var pacific = func() *time.Location {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// BuildDayparts tallies each event into its Pacific weekday/hour cell.
func BuildDayparts(evs []events.Event) Dayparts {
	var d Dayparts
	for _, ev := range evs {
		local := ev.Timestamp.In(pacific)
		dow := int(local.Weekday())
		hour := local.Hour()

		d.WeekdayTotals[dow]++
		d.Grid[dow][hour]++
		switch ev.Emoji {
		case events.EmojiWow:
			d.WeekdayWow[dow]++
			d.GridWow[dow][hour]++
		case events.EmojiCurious:
			d.GridCurious[dow][hour]++
		case events.EmojiBoring:
			d.GridBoring[dow][hour]++
		}
	}
	return d
}
