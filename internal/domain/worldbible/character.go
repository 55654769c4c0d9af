package worldbible

import "github.com/fablecraft/backend/internal/domain/shared"

// CharacterAttributes describes a person in the story
type CharacterAttributes struct {
	Role          string            `json:"role" gorm:"type:varchar(200)"`
	Age           string            `json:"age" gorm:"type:varchar(100)"`
	Species       string            `json:"species" gorm:"type:varchar(200)"`
	Personality   shared.StringList `json:"personality"`
	Appearance    string            `json:"appearance" gorm:"type:text"`
	Backstory     string            `json:"backstory" gorm:"type:text"`
	Goals         shared.StringList `json:"goals"`
	Fears         shared.StringList `json:"fears"`
	Relationships shared.StringList `json:"relationships"`
}

// Kind implements Attributes
func (CharacterAttributes) Kind() Kind { return KindCharacter }

// Validate implements Attributes
func (a CharacterAttributes) Validate() error {
	return firstError(
		checkText("Role", a.Role, shortTextLimit),
		checkText("Age", a.Age, 100),
		checkText("Species", a.Species, shortTextLimit),
		checkText("Appearance", a.Appearance, longTextLimit),
		checkText("Backstory", a.Backstory, longTextLimit),
		checkList("Personality", a.Personality),
		checkList("Goals", a.Goals),
		checkList("Fears", a.Fears),
		checkList("Relationships", a.Relationships),
	)
}

// Fields implements Attributes
func (a CharacterAttributes) Fields() []Field {
	return []Field{
		textField("role", "Role", a.Role),
		textField("age", "Age", a.Age),
		textField("species", "Species", a.Species),
		listField("personality", "Personality", a.Personality),
		textField("appearance", "Appearance", a.Appearance),
		textField("backstory", "Backstory", a.Backstory),
		listField("goals", "Goals", a.Goals),
		listField("fears", "Fears", a.Fears),
		listField("relationships", "Relationships", a.Relationships),
	}
}
