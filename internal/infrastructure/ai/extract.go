package ai

import (
	"errors"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNoJSON is returned when a model reply holds no usable JSON object
var ErrNoJSON = errors.New("model reply contains no JSON object")

var (
	fencedJSON    = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSONObject pulls one JSON object out of model text. It looks in
// fenced code blocks first, then at the outermost braces, and strips
// trailing commas before validating.
func ExtractJSONObject(text string) (string, error) {
	candidates := make([]string, 0, 3)
	for _, m := range fencedJSON.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		candidates = append(candidates, text[start:end+1])
	}

	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if obj, ok := validObject(c); ok {
			return obj, nil
		}
		if obj, ok := validObject(trailingComma.ReplaceAllString(c, "$1")); ok {
			return obj, nil
		}
	}
	return "", ErrNoJSON
}

// ExtractJSONArray is ExtractJSONObject for replies that are a list
func ExtractJSONArray(text string) (string, error) {
	candidates := make([]string, 0, 3)
	for _, m := range fencedJSON.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}
	if start, end := strings.Index(text, "["), strings.LastIndex(text, "]"); start >= 0 && end > start {
		candidates = append(candidates, text[start:end+1])
	}
	for _, c := range candidates {
		for _, s := range []string{strings.TrimSpace(c), trailingComma.ReplaceAllString(strings.TrimSpace(c), "$1")} {
			if gjson.Valid(s) && gjson.Parse(s).IsArray() {
				return s, nil
			}
		}
	}
	return "", ErrNoJSON
}

func validObject(s string) (string, bool) {
	if !gjson.Valid(s) {
		return "", false
	}
	if !gjson.Parse(s).IsObject() {
		return "", false
	}
	return s, true
}
