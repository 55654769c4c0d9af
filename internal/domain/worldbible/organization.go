package worldbible

import (
	"strconv"

	"github.com/fablecraft/backend/internal/domain/shared"
)

// OrganizationAttributes describes a faction, guild, or state
type OrganizationAttributes struct {
	OrgType      string            `json:"org_type" gorm:"type:varchar(200)"`
	Leadership   string            `json:"leadership" gorm:"type:text"`
	Headquarters string            `json:"headquarters" gorm:"type:varchar(200)"`
	MemberCount  int               `json:"member_count" gorm:"not null;default:0"`
	Goals        shared.StringList `json:"goals"`
	Allies       shared.StringList `json:"allies"`
	Enemies      shared.StringList `json:"enemies"`
}

// Kind implements Attributes
func (OrganizationAttributes) Kind() Kind { return KindOrganization }

// Validate implements Attributes
func (a OrganizationAttributes) Validate() error {
	if a.MemberCount < 0 {
		return shared.NewDomainError("INVALID_MEMBER_COUNT", "Member count cannot be negative")
	}
	return firstError(
		checkText("Organization type", a.OrgType, shortTextLimit),
		checkText("Leadership", a.Leadership, longTextLimit),
		checkText("Headquarters", a.Headquarters, shortTextLimit),
		checkList("Goals", a.Goals),
		checkList("Allies", a.Allies),
		checkList("Enemies", a.Enemies),
	)
}

// Fields implements Attributes
func (a OrganizationAttributes) Fields() []Field {
	members := ""
	if a.MemberCount > 0 {
		members = strconv.Itoa(a.MemberCount)
	}
	return []Field{
		textField("org_type", "Type", a.OrgType),
		textField("leadership", "Leadership", a.Leadership),
		textField("headquarters", "Headquarters", a.Headquarters),
		textField("member_count", "Members", members),
		listField("goals", "Goals", a.Goals),
		listField("allies", "Allies", a.Allies),
		listField("enemies", "Enemies", a.Enemies),
	}
}
