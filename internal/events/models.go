package events

import "time"

// Emoji is the closed set of recognized reactions. EmojiUnknown is the
// extension point for reactions outside the tracked set; the normalizer
// drops them before they reach any aggregation.
type Emoji int

const (
	EmojiUnknown Emoji = iota
	EmojiWow
	EmojiCurious
	EmojiBoring
)

// TrackedEmojis lists the reactions that participate in aggregation, in
// canonical display order. Every per-emoji slice and matrix in the analytics
// package is indexed by position in this list.
var TrackedEmojis = []Emoji{EmojiWow, EmojiCurious, EmojiBoring}

// Glyph returns the literal emoji character.
func (e Emoji) Glyph() string {
	switch e {
	case EmojiWow:
		return "🤯"
	case EmojiCurious:
		return "🤔"
	case EmojiBoring:
		return "😴"
	default:
		return ""
	}
}

// Label returns the human-readable name.
func (e Emoji) Label() string {
	switch e {
	case EmojiWow:
		return "Wow"
	case EmojiCurious:
		return "Curious"
	case EmojiBoring:
		return "Boring"
	default:
		return "Unknown"
	}
}

// Weight returns the sentiment weight (Wow=+1, Curious=0, Boring=-1).
// The second return is false for reactions without a defined weight.
func (e Emoji) Weight() (float64, bool) {
	switch e {
	case EmojiWow:
		return 1, true
	case EmojiCurious:
		return 0, true
	case EmojiBoring:
		return -1, true
	default:
		return 0, false
	}
}

// Index returns the position of e in TrackedEmojis, or -1.
func (e Emoji) Index() int {
	switch e {
	case EmojiWow:
		return 0
	case EmojiCurious:
		return 1
	case EmojiBoring:
		return 2
	default:
		return -1
	}
}

// Dataset is an uploaded CSV and the unit of retention and recomputation.
type Dataset struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	PublicID    string    `gorm:"uniqueIndex;size:36;not null" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	RowCount    int       `gorm:"not null" json:"row_count"`
	DroppedRows int       `gorm:"not null" json:"dropped_rows"`
	FirstDay    string    `gorm:"size:10" json:"first_day"`
	LastDay     string    `gorm:"size:10" json:"last_day"`
	CreatedAt   time.Time `json:"created_at"`
}

// Event is a single normalized reaction. Immutable once parsed; rows that
// fail normalization never become Events.
type Event struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	DatasetID uint      `gorm:"index:idx_dataset_timestamp;not null" json:"-"`
	Emoji     Emoji     `gorm:"not null" json:"emoji"`
	Timestamp time.Time `gorm:"index:idx_dataset_timestamp;not null" json:"timestamp"`
	UserID    string    `gorm:"index;size:128" json:"user_id,omitempty"`
	CreatedAt time.Time `json:"-"`
}

// DayKey returns the UTC calendar day of the event in YYYY-MM-DD form.
func (ev Event) DayKey() string {
	return ev.Timestamp.UTC().Format("2006-01-02")
}
