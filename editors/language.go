package editors

import (
	"github.com/wansing/schemacms/core"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

func init() {
	Register(&core.EditorKind{
		Code: "LanguageEditor",
		Name: "Language",
		Info: `<p>One of the languages of the project.</p>`,
		Create: func(p core.EditorParams) core.Editor {
			var e = &Language{}
			e.Base = Base{EditorParams: p}
			e.options = e.languageOptions
			return e
		},
		Sanitize: func(v interface{}) interface{} {
			s, ok := v.(string)
			if !ok || s == "" {
				return nil
			}
			tag, err := language.Parse(s)
			if err != nil {
				return nil
			}
			return tag.String()
		},
	})
}

type Language struct {
	selectEditor
}

func (e *Language) languageOptions() ([]Option, error) {
	if e.Resources == nil {
		return nil, nil
	}
	var options []Option
	for _, code := range e.Resources.Languages() {
		var label = code
		if tag, err := language.Parse(code); err == nil {
			if name := display.Self.Name(tag); name != "" {
				label = name + " (" + code + ")"
			}
		}
		options = append(options, Option{Value: code, Label: label})
	}
	return options, nil
}
