package dashboard

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/mbtiatlas/insights/selection"
)

// ErrBadParams wraps every query parameter problem; handlers answer it with 400.
var ErrBadParams = errors.New("invalid parameters")

// ParseParams reads the view choices from the query string. Without a mode the first
// visit defaults to the single-type view of the first type. Top-N is clamped to its
// bounds rather than rejected.
func ParseParams(q url.Values, types []string, defaultTopN int) (selection.Params, error) {
	p := selection.Params{
		Mode:      selection.ModeSingle,
		TopN:      selection.ClampTopN(defaultTopN),
		ShowTable: isSet(q.Get("table")),
		Hover:     strings.TrimSpace(q.Get("hover")),
	}

	if v := q.Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("%w: top must be a number, got %q", ErrBadParams, v)
		}
		p.TopN = selection.ClampTopN(n)
	}

	if m := q.Get("mode"); m != "" {
		p.Mode = selection.Mode(m)
	}
	switch p.Mode {
	case selection.ModeSingle:
		p.Type = q.Get("type")
		if p.Type == "" && len(types) > 0 {
			p.Type = types[0]
		}
	case selection.ModeMultiple:
		p.Types = slices.Compact(slices.Sorted(slices.Values(q["types"])))
	}

	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("%w: %w", ErrBadParams, err)
	}
	for _, code := range p.Codes() {
		if !slices.Contains(types, code) {
			return p, fmt.Errorf("%w: type %s is not in the dataset", ErrBadParams, code)
		}
	}
	return p, nil
}

// Query encodes p back into the query string ParseParams reads.
func Query(p selection.Params, uploadID string) url.Values {
	q := url.Values{}
	q.Set("mode", string(p.Mode))
	if p.Mode == selection.ModeSingle {
		q.Set("type", p.Type)
	}
	for _, t := range p.Types {
		q.Add("types", t)
	}
	q.Set("top", strconv.Itoa(p.TopN))
	if p.ShowTable {
		q.Set("table", "1")
	}
	if p.Hover != "" {
		q.Set("hover", p.Hover)
	}
	if uploadID != "" {
		q.Set("upload", uploadID)
	}
	return q
}

func isSet(v string) bool {
	switch strings.ToLower(v) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}
