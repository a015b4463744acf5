package analytics

import (
	"sort"

	"reactionlens/internal/events"
)

// TransitionAnalysis models emoji switching behavior as a first-order chain
// over {Wow, Curious, Boring}, built from each user's last emoji per active
// day. Rows and columns are ordered like events.TrackedEmojis.
type TransitionAnalysis struct {
	Counts        [3][3]int     `json:"counts"`
	Probabilities [3][3]float64 `json:"probabilities"`
	// FlipRate[i] is the fraction of user transitions landing on day i whose
	// emoji changed from the user's prior active day.
	FlipRate []float64 `json:"flip_rate"`
}

// Retention holds D1/D3/D7 return fractions over all identified users.
// Each ratio is in [0,1]; monotonicity across windows is not guaranteed.
type Retention struct {
	D1         float64 `json:"d1"`
	D3         float64 `json:"d3"`
	D7         float64 `json:"d7"`
	TotalUsers int     `json:"total_users"`
}

// CohortRates is one cohort's retention ratios.
type CohortRates struct {
	D1 float64 `json:"d1"`
	D3 float64 `json:"d3"`
	D7 float64 `json:"d7"`
}

// CohortRetention buckets users by the last emoji of their first active day.
// Arrays are ordered like events.TrackedEmojis.
type CohortRetention struct {
	Base  [3]int         `json:"base"`
	D1    [3]int         `json:"d1"`
	D3    [3]int         `json:"d3"`
	D7    [3]int         `json:"d7"`
	Rates [3]CohortRates `json:"rates"`
}

// userDayState is a user's activity reduced to day indices and the last
// emoji seen on each active day.
type userDayState struct {
	dayIndices []int
	lastEmoji  map[int]events.Emoji
}

func buildUserDayStates(users map[string]*UserProfile, days []string) map[string]userDayState {
	dayIndex := make(map[string]int, len(days))
	for i, d := range days {
		dayIndex[d] = i
	}

	states := make(map[string]userDayState, len(users))
	for id, profile := range users {
		last := make(map[int]events.Emoji)
		for _, ev := range profile.Events {
			// Events are chronological, so later events overwrite earlier
			// ones and each day keeps its last emoji.
			if idx, ok := dayIndex[ev.DayKey()]; ok {
				last[idx] = ev.Emoji
			}
		}
		indices := make([]int, 0, len(last))
		for idx := range last {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		states[id] = userDayState{dayIndices: indices, lastEmoji: last}
	}
	return states
}

// AnalyzeTransitions counts one transition per consecutive pair of a user's
// active days (not necessarily adjacent calendar days) and row-normalizes
// for probabilities. Rows with a zero sum stay all-zero.
func AnalyzeTransitions(users map[string]*UserProfile, days []string) TransitionAnalysis {
	t := TransitionAnalysis{FlipRate: make([]float64, len(days))}

	flipNumer := make([]int, len(days))
	flipDenom := make([]int, len(days))

	for _, state := range buildUserDayStates(users, days) {
		for i := 0; i+1 < len(state.dayIndices); i++ {
			fromIdx := state.dayIndices[i]
			toIdx := state.dayIndices[i+1]
			from := state.lastEmoji[fromIdx]
			to := state.lastEmoji[toIdx]

			r, c := from.Index(), to.Index()
			if r >= 0 && c >= 0 {
				t.Counts[r][c]++
			}
			flipDenom[toIdx]++
			if from != to {
				flipNumer[toIdx]++
			}
		}
	}

	for r := range t.Counts {
		rowSum := 0
		for _, v := range t.Counts[r] {
			rowSum += v
		}
		if rowSum == 0 {
			continue
		}
		for c, v := range t.Counts[r] {
			t.Probabilities[r][c] = float64(v) / float64(rowSum)
		}
	}

	for i := range days {
		if flipDenom[i] > 0 {
			t.FlipRate[i] = float64(flipNumer[i]) / float64(flipDenom[i])
		}
	}

	return t
}

// AnalyzeRetention computes D1/D3/D7 retention overall and per first-emoji
// cohort. A user counts as retained at window W iff some active day index j
// satisfies 0 < j - first <= W; same-day re-engagement can never count.
func AnalyzeRetention(users map[string]*UserProfile, days []string) (Retention, CohortRetention) {
	states := buildUserDayStates(users, days)

	var cohort CohortRetention
	var d1, d3, d7 int
	total := 0

	for _, state := range states {
		if len(state.dayIndices) == 0 {
			continue
		}
		total++
		first := state.dayIndices[0]

		retained1 := retainedWithin(state.dayIndices, first, 1)
		retained3 := retainedWithin(state.dayIndices, first, 3)
		retained7 := retainedWithin(state.dayIndices, first, 7)

		if retained1 {
			d1++
		}
		if retained3 {
			d3++
		}
		if retained7 {
			d7++
		}

		ci := state.lastEmoji[first].Index()
		if ci < 0 {
			continue
		}
		cohort.Base[ci]++
		if retained1 {
			cohort.D1[ci]++
		}
		if retained3 {
			cohort.D3[ci]++
		}
		if retained7 {
			cohort.D7[ci]++
		}
	}

	retention := Retention{TotalUsers: total}
	if total > 0 {
		retention.D1 = float64(d1) / float64(total)
		retention.D3 = float64(d3) / float64(total)
		retention.D7 = float64(d7) / float64(total)
	}

	for i := range cohort.Rates {
		if cohort.Base[i] == 0 {
			continue
		}
		base := float64(cohort.Base[i])
		cohort.Rates[i] = CohortRates{
			D1: float64(cohort.D1[i]) / base,
			D3: float64(cohort.D3[i]) / base,
			D7: float64(cohort.D7[i]) / base,
		}
	}

	return retention, cohort
}

func retainedWithin(indices []int, first, window int) bool {
	for _, j := range indices {
		if j > first && j-first <= window {
			return true
		}
	}
	return false
}
