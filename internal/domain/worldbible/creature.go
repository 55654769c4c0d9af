package worldbible

import (
	"strconv"

	"github.com/fablecraft/backend/internal/domain/shared"
)

// MaxDangerLevel is the top of the creature danger scale
const MaxDangerLevel = 10

// CreatureAttributes describes a beast or species
type CreatureAttributes struct {
	Habitat     string            `json:"habitat" gorm:"type:varchar(500)"`
	Diet        string            `json:"diet" gorm:"type:varchar(200)"`
	Size        string            `json:"size" gorm:"type:varchar(100)"`
	DangerLevel int               `json:"danger_level" gorm:"not null;default:0"`
	Abilities   shared.StringList `json:"abilities"`
	Weaknesses  shared.StringList `json:"weaknesses"`
}

// Kind implements Attributes
func (CreatureAttributes) Kind() Kind { return KindCreature }

// Validate implements Attributes
func (a CreatureAttributes) Validate() error {
	if a.DangerLevel < 0 || a.DangerLevel > MaxDangerLevel {
		return shared.NewDomainError("INVALID_DANGER_LEVEL", "Danger level must be between 0 and 10")
	}
	return firstError(
		checkText("Habitat", a.Habitat, 500),
		checkText("Diet", a.Diet, shortTextLimit),
		checkText("Size", a.Size, 100),
		checkList("Abilities", a.Abilities),
		checkList("Weaknesses", a.Weaknesses),
	)
}

// Fields implements Attributes
func (a CreatureAttributes) Fields() []Field {
	return []Field{
		textField("habitat", "Habitat", a.Habitat),
		textField("diet", "Diet", a.Diet),
		textField("size", "Size", a.Size),
		textField("danger_level", "Danger level", strconv.Itoa(a.DangerLevel)),
		listField("abilities", "Abilities", a.Abilities),
		listField("weaknesses", "Weaknesses", a.Weaknesses),
	}
}
