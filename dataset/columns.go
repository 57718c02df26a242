package dataset

import (
	"regexp"
	"slices"
)

var typeCodeRegex = regexp.MustCompile(`^[IE][NS][FT][PJ]$`)

// IsTypeCode reports whether s is a four-letter MBTI code such as INFJ.
func IsTypeCode(s string) bool {
	return typeCodeRegex.MatchString(s)
}

// DetectTypeColumns returns the columns whose full name is an MBTI type code, sorted.
func DetectTypeColumns(columns []string) []string {
	var types []string
	for _, c := range columns {
		if IsTypeCode(c) && !slices.Contains(types, c) {
			types = append(types, c)
		}
	}
	slices.Sort(types)
	return types
}
