package model

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PageTitle derives the navigation title of a page from its file name,
// e.g. "pages/01_chart_elements.py" becomes "Chart Elements".
// A leading sort number and separators are dropped, underscores become
// spaces and each word is title cased.
func PageTitle(name string) string {
	base := path.Base(name)
	base = strings.TrimSuffix(base, path.Ext(base))

	base = strings.TrimLeftFunc(base, unicode.IsDigit)
	base = strings.TrimLeft(base, "_- ")
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.Join(strings.Fields(base), " ")

	if base == "" {
		return name
	}
	return cases.Title(language.English, cases.NoLower).String(base)
}
