package models

import (
	"encoding/json"
	"strings"
)

// LanguageList decodes either a comma-delimited string ("en, fr") or a JSON
// array of strings. Entries are trimmed, empties dropped, order kept.
type LanguageList []string

func (l *LanguageList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = SplitLanguages(s)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = SplitLanguages(strings.Join(items, ","))
	return nil
}

// SplitLanguages splits a delimited list of language tags.
func SplitLanguages(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
