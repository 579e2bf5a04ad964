package editors

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wansing/schemacms/core"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Registry implements core.EditorRegistry.
type Registry map[string]*core.EditorKind

// Normalize converts older stored editor ids like "string" to the registered form "StringEditor".
func Normalize(editorID string) string {
	editorID = strings.TrimSpace(editorID)
	if editorID == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(editorID)
	editorID = string(unicode.ToUpper(first)) + editorID[size:]
	if !strings.Contains(editorID, "Editor") {
		editorID += "Editor"
	}
	return editorID
}

func (reg Registry) Add(kind *core.EditorKind) {
	kind.Code = Normalize(kind.Code)
	reg[kind.Code] = kind
}

func (reg Registry) All() []string {
	var all = maps.Keys(reg)
	slices.Sort(all)
	return all
}

func (reg Registry) Get(editorID string) (*core.EditorKind, bool) {
	kind, ok := reg[Normalize(editorID)]
	return kind, ok
}

var DefaultRegistry = make(Registry)

func Register(kind *core.EditorKind) {
	DefaultRegistry.Add(kind)
}
