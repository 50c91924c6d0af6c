// Package formatter renders node trees and search results for display.
package formatter

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
)

var (
	pathStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
)

// Stringify returns a compact single-line string for an arbitrary value.
// Containers and structs are rendered as compact JSON; line breaks inside
// strings are escaped.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return oneLine(t)
	}
	if !isScalar(v) {
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

var lineBreaks = strings.NewReplacer("\r\n", "\\n", "\r", "\\n", "\n", "\\n")

func oneLine(s string) string {
	return lineBreaks.Replace(s)
}

// truncate shortens s to maxLen display cells, ending in "...".
// maxLen <= 0 disables truncation.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 || runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return runewidth.Truncate(s, maxLen, "...")
}

// isScalar reports whether v renders inline (not a map, slice or struct).
func isScalar(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() { //nolint:exhaustive // containers are the exception
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return false
	}
	return true
}
