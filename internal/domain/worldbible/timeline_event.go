package worldbible

import "github.com/fablecraft/backend/internal/domain/shared"

// Significance grades how much an event matters to the story
type Significance string

const (
	SignificanceMinor   Significance = "minor"
	SignificanceMajor   Significance = "major"
	SignificancePivotal Significance = "pivotal"
)

// IsValid reports whether the significance is known; empty is allowed
func (s Significance) IsValid() bool {
	switch s {
	case "", SignificanceMinor, SignificanceMajor, SignificancePivotal:
		return true
	}
	return false
}

// TimelineEventAttributes places an event in the world's history.
// EventDate is free text in the world's own calendar; SortOrder orders the timeline.
type TimelineEventAttributes struct {
	EventDate    string            `json:"event_date" gorm:"type:varchar(200)"`
	SortOrder    int               `json:"sort_order" gorm:"not null;default:0;index"`
	Significance Significance      `json:"significance" gorm:"type:varchar(20)"`
	Participants shared.StringList `json:"participants"`
	Consequences shared.StringList `json:"consequences"`
}

// Kind implements Attributes
func (TimelineEventAttributes) Kind() Kind { return KindTimelineEvent }

// Validate implements Attributes
func (a TimelineEventAttributes) Validate() error {
	if !a.Significance.IsValid() {
		return shared.NewDomainError("INVALID_SIGNIFICANCE", "Significance must be one of minor, major, pivotal")
	}
	return firstError(
		checkText("Event date", a.EventDate, shortTextLimit),
		checkList("Participants", a.Participants),
		checkList("Consequences", a.Consequences),
	)
}

// Fields implements Attributes
func (a TimelineEventAttributes) Fields() []Field {
	return []Field{
		textField("event_date", "Date", a.EventDate),
		textField("significance", "Significance", string(a.Significance)),
		listField("participants", "Participants", a.Participants),
		listField("consequences", "Consequences", a.Consequences),
	}
}
