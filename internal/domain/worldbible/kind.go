package worldbible

// Kind identifies one of the world bible entry types
type Kind string

const (
	KindCharacter     Kind = "character"
	KindLocation      Kind = "location"
	KindItem          Kind = "item"
	KindMagicSystem   Kind = "magic_system"
	KindOrganization  Kind = "organization"
	KindTimelineEvent Kind = "timeline_event"
	KindLanguage      Kind = "language"
	KindCreature      Kind = "creature"
)

type kindInfo struct {
	table   string
	segment string
	label   string
}

var kinds = map[Kind]kindInfo{
	KindCharacter:     {table: "characters", segment: "characters", label: "Character"},
	KindLocation:      {table: "locations", segment: "locations", label: "Location"},
	KindItem:          {table: "items", segment: "items", label: "Item"},
	KindMagicSystem:   {table: "magic_systems", segment: "magic-systems", label: "Magic System"},
	KindOrganization:  {table: "organizations", segment: "organizations", label: "Organization"},
	KindTimelineEvent: {table: "timeline_events", segment: "timeline-events", label: "Timeline Event"},
	KindLanguage:      {table: "languages", segment: "languages", label: "Language"},
	KindCreature:      {table: "creatures", segment: "creatures", label: "Creature"},
}

// AllKinds returns every kind in display order
func AllKinds() []Kind {
	return []Kind{
		KindCharacter,
		KindLocation,
		KindItem,
		KindMagicSystem,
		KindOrganization,
		KindTimelineEvent,
		KindLanguage,
		KindCreature,
	}
}

// IsValid reports whether the kind is known
func (k Kind) IsValid() bool {
	_, ok := kinds[k]
	return ok
}

// Table returns the database table holding entries of this kind
func (k Kind) Table() string {
	return kinds[k].table
}

// PathSegment returns the plural URL segment, e.g. "magic-systems"
func (k Kind) PathSegment() string {
	return kinds[k].segment
}

// Label returns a human readable name
func (k Kind) Label() string {
	return kinds[k].label
}

// KindFromSegment resolves a URL segment or a kind name to a Kind
func KindFromSegment(segment string) (Kind, bool) {
	for k, info := range kinds {
		if info.segment == segment || string(k) == segment {
			return k, true
		}
	}
	return "", false
}
