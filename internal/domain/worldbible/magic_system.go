package worldbible

import "github.com/fablecraft/backend/internal/domain/shared"

// MagicSystemAttributes describes how magic works in the world
type MagicSystemAttributes struct {
	Source        string            `json:"source" gorm:"type:varchar(500)"`
	Rules         shared.StringList `json:"rules"`
	Limitations   shared.StringList `json:"limitations"`
	Costs         shared.StringList `json:"costs"`
	Practitioners string            `json:"practitioners" gorm:"type:text"`
}

// Kind implements Attributes
func (MagicSystemAttributes) Kind() Kind { return KindMagicSystem }

// Validate implements Attributes
func (a MagicSystemAttributes) Validate() error {
	return firstError(
		checkText("Source", a.Source, 500),
		checkText("Practitioners", a.Practitioners, longTextLimit),
		checkList("Rules", a.Rules),
		checkList("Limitations", a.Limitations),
		checkList("Costs", a.Costs),
	)
}

// Fields implements Attributes
func (a MagicSystemAttributes) Fields() []Field {
	return []Field{
		textField("source", "Source", a.Source),
		listField("rules", "Rules", a.Rules),
		listField("limitations", "Limitations", a.Limitations),
		listField("costs", "Costs", a.Costs),
		textField("practitioners", "Practitioners", a.Practitioners),
	}
}
