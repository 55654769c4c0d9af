package worldbible

import "github.com/fablecraft/backend/internal/domain/shared"

// LocationAttributes describes a place in the world
type LocationAttributes struct {
	LocationType    string            `json:"location_type" gorm:"type:varchar(200)"`
	Climate         string            `json:"climate" gorm:"type:varchar(200)"`
	Population      string            `json:"population" gorm:"type:varchar(200)"`
	Geography       string            `json:"geography" gorm:"type:text"`
	Culture         string            `json:"culture" gorm:"type:text"`
	NotableFeatures shared.StringList `json:"notable_features"`
}

// Kind implements Attributes
func (LocationAttributes) Kind() Kind { return KindLocation }

// Validate implements Attributes
func (a LocationAttributes) Validate() error {
	return firstError(
		checkText("Location type", a.LocationType, shortTextLimit),
		checkText("Climate", a.Climate, shortTextLimit),
		checkText("Population", a.Population, shortTextLimit),
		checkText("Geography", a.Geography, longTextLimit),
		checkText("Culture", a.Culture, longTextLimit),
		checkList("Notable features", a.NotableFeatures),
	)
}

// Fields implements Attributes
func (a LocationAttributes) Fields() []Field {
	return []Field{
		textField("location_type", "Type", a.LocationType),
		textField("climate", "Climate", a.Climate),
		textField("population", "Population", a.Population),
		textField("geography", "Geography", a.Geography),
		textField("culture", "Culture", a.Culture),
		listField("notable_features", "Notable features", a.NotableFeatures),
	}
}
