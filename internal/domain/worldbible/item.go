package worldbible

import (
	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Rarity grades how uncommon an item is
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityArtifact  Rarity = "artifact"
)

// IsValid reports whether the rarity is known; empty is allowed
func (r Rarity) IsValid() bool {
	switch r {
	case "", RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary, RarityArtifact:
		return true
	}
	return false
}

// ItemAttributes describes an object, weapon, or artifact
type ItemAttributes struct {
	ItemType   string            `json:"item_type" gorm:"type:varchar(200)"`
	Rarity     Rarity            `json:"rarity" gorm:"type:varchar(20)"`
	Value      decimal.Decimal   `json:"value" gorm:"type:decimal(18,2);not null;default:0"`
	Properties shared.StringList `json:"properties"`
	History    string            `json:"history" gorm:"type:text"`
}

// Kind implements Attributes
func (ItemAttributes) Kind() Kind { return KindItem }

// Validate implements Attributes
func (a ItemAttributes) Validate() error {
	if !a.Rarity.IsValid() {
		return shared.NewDomainError("INVALID_RARITY", "Rarity must be one of common, uncommon, rare, epic, legendary, artifact")
	}
	if a.Value.IsNegative() {
		return shared.NewDomainError("INVALID_VALUE", "Item value cannot be negative")
	}
	return firstError(
		checkText("Item type", a.ItemType, shortTextLimit),
		checkText("History", a.History, longTextLimit),
		checkList("Properties", a.Properties),
	)
}

// Fields implements Attributes
func (a ItemAttributes) Fields() []Field {
	value := ""
	if !a.Value.IsZero() {
		value = a.Value.StringFixed(2)
	}
	return []Field{
		textField("item_type", "Type", a.ItemType),
		textField("rarity", "Rarity", string(a.Rarity)),
		textField("value", "Value", value),
		listField("properties", "Properties", a.Properties),
		textField("history", "History", a.History),
	}
}
