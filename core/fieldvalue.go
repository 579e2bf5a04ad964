package core

import (
	"golang.org/x/text/language"
)

// MultilingualFlag marks a field value which holds one value per language code.
const MultilingualFlag = "_multilingual"

// SanityCheck coerces a stored field value into the shape which the field definition demands.
//
// For a multilingual definition, the result is always a map with MultilingualFlag set.
// A bare value is moved into the slot of the given language, existing language entries are kept.
// An unflagged map counts as language entries only if all of its keys are among languages, which defaults to lang.
// For other definitions, a multilingual map is reduced to the value of the given language.
func SanityCheck(value interface{}, def *FieldDefinition, lang string, languages []string) interface{} {

	m, isMap := value.(map[string]interface{})

	if def.Multilingual {
		if isMap && IsMultilingual(m) {
			return m
		}
		if isMap && looksMultilingual(m, lang, languages) {
			var c = cloneMap(m)
			c[MultilingualFlag] = true
			return c
		}
		var result = map[string]interface{}{
			MultilingualFlag: true,
		}
		if value != nil {
			result[lang] = value
		}
		return result
	}

	if isMap && IsMultilingual(m) {
		return m[lang]
	}

	return value
}

func IsMultilingual(m map[string]interface{}) bool {
	flag, _ := m[MultilingualFlag].(bool)
	return flag
}

// looksMultilingual returns true if m is not empty and every key is a language code of the project.
// It catches values which have been stored without the flag. Object values like {"id": "abc"} don't qualify.
func looksMultilingual(m map[string]interface{}, lang string, languages []string) bool {
	if len(languages) == 0 {
		languages = []string{lang}
	}
	if len(m) == 0 {
		return false
	}
	for key := range m {
		if key == MultilingualFlag {
			continue
		}
		if len(key) < 2 || len(key) > 3 {
			return false
		}
		if _, err := language.ParseBase(key); err != nil {
			return false
		}
		if !contains(languages, key) {
			return false
		}
	}
	return true
}

// SetLocalized writes value into the language slot of a multilingual field value and returns the map.
func SetLocalized(current interface{}, lang string, value interface{}) map[string]interface{} {
	m, ok := current.(map[string]interface{})
	if !ok {
		m = make(map[string]interface{})
	}
	m[MultilingualFlag] = true
	m[lang] = value
	return m
}

// LocalizedString returns the string value of v, resolving multilingual values to the given language.
func LocalizedString(v interface{}, lang string) (string, bool) {
	if m, ok := v.(map[string]interface{}); ok {
		v = m[lang]
	}
	s, ok := v.(string)
	return s, ok
}
