package shared

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/tidwall/gjson"
)

// maxListDecodeDepth bounds how many times a value may be JSON-encoded
// inside itself before we give up unwrapping it.
const maxListDecodeDepth = 3

// StringList is a list of short text values stored in a text[] column.
//
// Depending on driver and history, the column can be read back as a
// PostgreSQL array literal, a JSON array (sometimes encoded twice), or a
// comma or newline separated string. StringList accepts all of them and
// always holds trimmed, non-empty, de-duplicated values in first-seen order.
type StringList []string

// NewStringList builds a normalised list from raw values
func NewStringList(values ...string) StringList {
	return normalizeStrings(values)
}

// ParseStringList decodes any of the supported textual encodings
func ParseStringList(raw string) StringList {
	return parseStringList(raw, 0)
}

func parseStringList(raw string, depth int) StringList {
	s := strings.TrimSpace(raw)
	switch s {
	case "", "null", "NULL", "{}", "[]", `""`:
		return StringList{}
	}

	if depth < maxListDecodeDepth && gjson.Valid(s) {
		parsed := gjson.Parse(s)
		switch {
		case parsed.IsArray():
			return fromJSONArray(parsed, depth)
		case parsed.Type == gjson.String:
			return parseStringList(parsed.String(), depth+1)
		}
	}

	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		var arr pq.StringArray
		if err := arr.Scan(s); err == nil {
			return normalizeStrings(arr)
		}
		s = strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
	}

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	for i, part := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(part), `"`)
	}
	return normalizeStrings(parts)
}

func fromJSONArray(arr gjson.Result, depth int) StringList {
	values := make([]string, 0)
	arr.ForEach(func(_, item gjson.Result) bool {
		switch {
		case item.Type == gjson.Null:
		case item.IsArray():
			values = append(values, fromJSONArray(item, depth+1)...)
		case item.Type == gjson.String:
			str := strings.TrimSpace(item.String())
			if strings.HasPrefix(str, "[") && depth < maxListDecodeDepth {
				values = append(values, parseStringList(str, depth+1)...)
			} else {
				values = append(values, str)
			}
		case item.IsObject():
			values = append(values, item.Raw)
		default:
			values = append(values, item.String())
		}
		return true
	})
	return normalizeStrings(values)
}

func normalizeStrings(values []string) StringList {
	out := make(StringList, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Values returns the list as a plain slice, never nil
func (l StringList) Values() []string {
	if l == nil {
		return []string{}
	}
	return []string(l)
}

// Contains reports whether the list has the value, ignoring case
func (l StringList) Contains(value string) bool {
	for _, v := range l {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// Scan implements sql.Scanner
func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = StringList{}
	case []byte:
		*l = ParseStringList(string(v))
	case string:
		*l = ParseStringList(v)
	case []string:
		*l = normalizeStrings(v)
	case []interface{}:
		values := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			values = append(values, fmt.Sprint(item))
		}
		*l = normalizeStrings(values)
	default:
		return fmt.Errorf("string list: unsupported scan type %T", src)
	}
	return nil
}

// Value implements driver.Valuer, always emitting a PostgreSQL array literal
func (l StringList) Value() (driver.Value, error) {
	return pq.StringArray(normalizeStrings(l)).Value()
}

// GormDataType tells gorm how to declare the column when auto-migrating
func (StringList) GormDataType() string {
	return "text"
}

// MarshalJSON always renders an array, never null
func (l StringList) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Values())
}

// UnmarshalJSON accepts a JSON array or any supported string encoding
func (l *StringList) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("string list: invalid JSON")
	}
	parsed := gjson.ParseBytes(data)
	switch {
	case parsed.Type == gjson.Null:
		*l = StringList{}
	case parsed.IsArray():
		*l = fromJSONArray(parsed, 0)
	case parsed.Type == gjson.String:
		*l = ParseStringList(parsed.String())
	default:
		*l = normalizeStrings([]string{parsed.String()})
	}
	return nil
}
