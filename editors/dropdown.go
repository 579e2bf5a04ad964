package editors

import (
	"fmt"

	"github.com/wansing/schemacms/core"
)

func init() {
	Register(&core.EditorKind{
		Code: "DropdownEditor",
		Name: "Dropdown",
		Info: `<p>One of the values in <code>options</code>, which is a list of strings or of <code>{"label": ..., "value": ...}</code> objects.</p>`,
		Create: func(p core.EditorParams) core.Editor {
			var e = &Dropdown{}
			e.Base = Base{EditorParams: p}
			e.options = e.configOptions
			return e
		},
	})
}

type Dropdown struct {
	selectEditor
}

func (e *Dropdown) configOptions() ([]Option, error) {
	raw, ok := e.Config["options"].([]interface{})
	if !ok {
		return nil, nil
	}
	var options = make([]Option, 0, len(raw))
	for _, item := range raw {
		switch item := item.(type) {
		case map[string]interface{}:
			var value = stringValue(item["value"])
			var label = stringValue(item["label"])
			if label == "" {
				label = value
			}
			options = append(options, Option{Value: value, Label: label})
		default:
			var value = fmt.Sprint(item)
			options = append(options, Option{Value: value, Label: value})
		}
	}
	return options, nil
}
