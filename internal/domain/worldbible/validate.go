package worldbible

import (
	"fmt"
	"unicode/utf8"

	"github.com/fablecraft/backend/internal/domain/shared"
)

const (
	shortTextLimit = 200
	longTextLimit  = 10000
	maxListItems   = 100
	maxListItemLen = 500
)

func checkText(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return shared.NewDomainError("INVALID_"+upperSnake(field), fmt.Sprintf("%s cannot exceed %d characters", field, limit))
	}
	return nil
}

func checkList(field string, values shared.StringList) error {
	if len(values) > maxListItems {
		return shared.NewDomainError("INVALID_"+upperSnake(field), fmt.Sprintf("%s cannot have more than %d items", field, maxListItems))
	}
	for _, v := range values {
		if utf8.RuneCountInString(v) > maxListItemLen {
			return shared.NewDomainError("INVALID_"+upperSnake(field), fmt.Sprintf("%s items cannot exceed %d characters", field, maxListItemLen))
		}
	}
	return nil
}

// firstError returns the first non-nil error
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func upperSnake(field string) string {
	out := make([]rune, 0, len(field))
	for _, r := range field {
		switch {
		case r == ' ':
			out = append(out, '_')
		case r >= 'a' && r <= 'z':
			out = append(out, r-'a'+'A')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

func textField(key, label, value string) Field {
	return Field{Key: key, Label: label, Text: value}
}

func listField(key, label string, values shared.StringList) Field {
	return Field{Key: key, Label: label, List: values.Values(), IsList: true}
}
