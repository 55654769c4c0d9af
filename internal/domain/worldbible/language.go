package worldbible

import "github.com/fablecraft/backend/internal/domain/shared"

// LanguageAttributes describes a constructed language
type LanguageAttributes struct {
	Family        string            `json:"family" gorm:"type:varchar(200)"`
	Speakers      string            `json:"speakers" gorm:"type:varchar(500)"`
	Script        string            `json:"script" gorm:"type:varchar(200)"`
	Phonology     string            `json:"phonology" gorm:"type:text"`
	Grammar       string            `json:"grammar" gorm:"type:text"`
	CommonPhrases shared.StringList `json:"common_phrases"`
}

// Kind implements Attributes
func (LanguageAttributes) Kind() Kind { return KindLanguage }

// Validate implements Attributes
func (a LanguageAttributes) Validate() error {
	return firstError(
		checkText("Family", a.Family, shortTextLimit),
		checkText("Speakers", a.Speakers, 500),
		checkText("Script", a.Script, shortTextLimit),
		checkText("Phonology", a.Phonology, longTextLimit),
		checkText("Grammar", a.Grammar, longTextLimit),
		checkList("Common phrases", a.CommonPhrases),
	)
}

// Fields implements Attributes
func (a LanguageAttributes) Fields() []Field {
	return []Field{
		textField("family", "Family", a.Family),
		textField("speakers", "Speakers", a.Speakers),
		textField("script", "Script", a.Script),
		textField("phonology", "Phonology", a.Phonology),
		textField("grammar", "Grammar", a.Grammar),
		listField("common_phrases", "Common phrases", a.CommonPhrases),
	}
}
