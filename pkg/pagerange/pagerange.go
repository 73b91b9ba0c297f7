// Package pagerange parses human page-range expressions such as "1,3,5-8"
// into page selections against a document of known length.
package pagerange

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ParseError reports a malformed token within a page-range expression.
type ParseError struct {
	Token string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed page range token %q", e.Token)
}

// Selection is an ordered set of unique 0-based page indices.
type Selection []int

// Parse evaluates a page-range expression against a document of totalPages
// pages. Tokens are comma-separated page numbers ("3") or inclusive ranges
// ("5-8"); whitespace around tokens and around the range separator is
// ignored, as are empty tokens from stray commas. Syntactically valid pages
// outside [1, totalPages] are silently dropped. Indices appear in token
// order with duplicates removed, keeping the first occurrence.
//
// A malformed token (non-numeric, reversed range, missing operand) fails the
// whole parse with a *ParseError naming the token; no partial selection is
// returned.
func Parse(expression string, totalPages int) (Selection, error) {
	seen := make(map[int]bool)
	selection := Selection{}

	for _, raw := range strings.Split(expression, ",") {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}

		first, last, err := parseToken(token)
		if err != nil {
			return nil, err
		}

		for page := first; page <= last; page++ {
			if page < 1 || page > totalPages {
				continue
			}
			idx := page - 1
			if seen[idx] {
				continue
			}
			seen[idx] = true
			selection = append(selection, idx)
		}
	}

	return selection, nil
}

// Span is a 1-based inclusive page range.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Count returns the number of pages covered by the span.
func (sp Span) Count() int {
	return sp.End - sp.Start + 1
}

func (sp Span) String() string {
	if sp.Start == sp.End {
		return strconv.Itoa(sp.Start)
	}
	return fmt.Sprintf("%d-%d", sp.Start, sp.End)
}

// ParseSpans evaluates a page-range expression as an ordered list of spans
// for range-based splitting. Single pages become single-page spans. Each
// span is clamped to [1, totalPages] independently of the others; spans
// that fall entirely outside the document are dropped. Spans may overlap
// and are never deduplicated. Malformed tokens fail with a *ParseError.
func ParseSpans(expression string, totalPages int) ([]Span, error) {
	spans := []Span{}

	for _, raw := range strings.Split(expression, ",") {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}

		first, last, err := parseToken(token)
		if err != nil {
			return nil, err
		}

		first = max(first, 1)
		last = min(last, totalPages)
		if first > last {
			continue
		}

		spans = append(spans, Span{Start: first, End: last})
	}

	return spans, nil
}

// Ascending returns a sorted copy of the selection.
func (s Selection) Ascending() Selection {
	sorted := slices.Clone(s)
	slices.Sort(sorted)
	return sorted
}

// Complement returns the ascending 0-based indices of [0, totalPages) that
// are not part of the selection.
func (s Selection) Complement(totalPages int) Selection {
	member := make(map[int]bool, len(s))
	for _, idx := range s {
		member[idx] = true
	}

	complement := Selection{}
	for idx := range totalPages {
		if !member[idx] {
			complement = append(complement, idx)
		}
	}
	return complement
}

// Pages returns the selection as 1-based page numbers in selection order.
func (s Selection) Pages() []int {
	pages := make([]int, len(s))
	for i, idx := range s {
		pages[i] = idx + 1
	}
	return pages
}

// Strings returns 1-based page numbers as strings in selection order, the
// form PDF engines accept as page selections.
func (s Selection) Strings() []string {
	strs := make([]string, len(s))
	for i, idx := range s {
		strs[i] = strconv.Itoa(idx + 1)
	}
	return strs
}

// String renders the selection as 1-based page numbers in selection order,
// comma-separated for human-readable reporting (e.g. "2, 4").
func (s Selection) String() string {
	return FormatPages(s.Pages())
}

// FormatPages renders 1-based page numbers as a comma-separated list.
func FormatPages(pages []int) string {
	strs := make([]string, len(pages))
	for i, page := range pages {
		strs[i] = strconv.Itoa(page)
	}
	return strings.Join(strs, ", ")
}

func parseToken(token string) (int, int, error) {
	if lo, hi, found := strings.Cut(token, "-"); found {
		first, firstErr := parsePage(lo)
		last, lastErr := parsePage(hi)
		if firstErr != nil || lastErr != nil || first > last {
			return 0, 0, &ParseError{Token: token}
		}
		return first, last, nil
	}

	page, err := parsePage(token)
	if err != nil {
		return 0, 0, &ParseError{Token: token}
	}
	return page, page, nil
}

func parsePage(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
