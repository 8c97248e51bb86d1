// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package notice finds copyright notices in text and brings their years up to
// date.
//
// A notice has the form
//
//	Copyright <marker> <years><suffix>
//
// where <marker> is "(c)", "(C)" or "©", <years> is a comma-separated list of
// years and dash-separated year ranges (like "2001, 2003-2005"), and <suffix>
// is the rest of the line (the holder name and anything after it).
package notice

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// ErrMalformedYears is returned when the years of a notice can't be parsed.
var ErrMalformedYears = errors.New("malformed copyright years")

// maxRangeSpan limits how many years a single range may expand to.
const maxRangeSpan = 1000

const keyword = "Copyright "

var markers = []string{"(c)", "(C)", "©"}

// Notice is a copyright notice split into its parts.
type Notice struct {
	Prefix string // "Copyright (c) ", including the trailing space
	Years  string // "2001, 2003-2005"
	Suffix string // " Foo Authors", up to the end of the line
}

// String reassembles the notice.
func (n Notice) String() string { return n.Prefix + n.Years + n.Suffix }

// Match is a notice found in a larger text. Begin and End are byte offsets
// into that text; End is the end of the notice's line, excluding the newline.
type Match struct {
	Notice
	Begin, End int
}

// Find returns the first notice in text.
func Find(text string) (Match, bool) {
	for off := 0; off < len(text); {
		i := strings.Index(text[off:], keyword)
		if i < 0 {
			break
		}
		begin := off + i
		if m, ok := matchAt(text, begin); ok {
			return m, true
		}
		off = begin + 1
	}
	return Match{}, false
}

// Parse returns the first notice in line.
func Parse(line string) (Notice, bool) {
	m, ok := Find(line)
	return m.Notice, ok
}

func matchAt(text string, begin int) (Match, bool) {
	pos := begin + len(keyword)
	marker := ""
	for _, mk := range markers {
		if strings.HasPrefix(text[pos:], mk+" ") {
			marker = mk
			break
		}
	}
	if marker == "" {
		return Match{}, false
	}
	pos += len(marker) + 1

	yearsEnd := scanYears(text, pos)
	if yearsEnd == pos {
		return Match{}, false
	}
	end := len(text)
	if i := strings.IndexByte(text[yearsEnd:], '\n'); i >= 0 {
		end = yearsEnd + i
	}
	// The suffix must not be empty.
	if end == yearsEnd {
		return Match{}, false
	}

	return Match{
		Notice: Notice{
			Prefix: text[begin:pos],
			Years:  text[pos:yearsEnd],
			Suffix: text[yearsEnd:end],
		},
		Begin: begin,
		End:   end,
	}, true
}

// scanYears returns the end offset of the years token starting at start.
// A separator belongs to the token only if another item follows it.
func scanYears(s string, start int) int {
	end := scanItem(s, start)
	if end == start {
		return start
	}
	for {
		i := end
		if i >= len(s) || s[i] != ',' {
			return end
		}
		i++
		if i < len(s) && s[i] == ' ' {
			i++
		}
		next := scanItem(s, i)
		if next == i {
			return end
		}
		end = next
	}
}

func scanItem(s string, i int) int {
	for i < len(s) && (s[i] == '-' || isDigit(s[i])) {
		i++
	}
	return i
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

// Style is the formatting of a years token.
type Style struct {
	// Dashed reports whether the token uses ranges like "2003-2005".
	Dashed bool
	// Comma is the separator between items, either ", " or ",".
	Comma string
}

// StyleOf infers the style of a years token. A token without separators gets
// ", ".
func StyleOf(years string) Style {
	s := Style{
		Dashed: strings.Contains(years, "-"),
		Comma:  ", ",
	}
	if strings.Contains(years, ",") && !strings.Contains(years, ", ") {
		s.Comma = ","
	}
	return s
}

// Options change how years are parsed and rendered.
//
// The zero value keeps the historical behavior of the updater: a range
// "a-b" covers a through b-1, and two adjacent years are never joined into a
// range.
type Options struct {
	// InclusiveRanges makes a range "a-b" cover b as well.
	InclusiveRanges bool
	// JoinAdjacentPairs renders a run of two adjacent years as "a-b" instead
	// of "a, b".
	JoinAdjacentPairs bool
}

// ParseYears returns the sorted set of years a years token covers.
func ParseYears(years string, opts Options) ([]int, error) {
	set := make(map[int]struct{})
	for item := range strings.SplitSeq(years, ",") {
		item = strings.TrimSpace(item)
		first, last, dashed := strings.Cut(item, "-")
		start, err := parseYear(item, first)
		if err != nil {
			return nil, err
		}
		if !dashed {
			set[start] = struct{}{}
			continue
		}
		end, err := parseYear(item, last)
		if err != nil {
			return nil, err
		}
		if opts.InclusiveRanges {
			end++
		}
		if end-start > maxRangeSpan {
			return nil, fmt.Errorf("%w: range %q is too wide", ErrMalformedYears, item)
		}
		for y := start; y < end; y++ {
			set[y] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set)), nil
}

func parseYear(item, s string) (int, error) {
	if s == "" || strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedYears, item)
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrMalformedYears, item, err)
	}
	return y, nil
}

// Run is a sequence of consecutive years. Start equals End for a single
// year.
type Run struct {
	Start, End int
}

// Runs collapses sorted years into runs. Consecutive years are merged only if
// dashed is true; otherwise every year is its own run.
func Runs(years []int, dashed bool) []Run {
	var runs []Run
	for _, y := range years {
		if dashed && len(runs) > 0 && y == runs[len(runs)-1].End+1 {
			runs[len(runs)-1].End = y
			continue
		}
		runs = append(runs, Run{Start: y, End: y})
	}
	return runs
}

// Render formats runs as a years token.
func Render(runs []Run, comma string, opts Options) string {
	parts := make([]string, 0, len(runs))
	for _, r := range runs {
		switch {
		case r.Start == r.End:
			parts = append(parts, strconv.Itoa(r.Start))
		case r.End == r.Start+1 && !opts.JoinAdjacentPairs:
			parts = append(parts, strconv.Itoa(r.Start), strconv.Itoa(r.End))
		default:
			parts = append(parts, strconv.Itoa(r.Start)+"-"+strconv.Itoa(r.End))
		}
	}
	return strings.Join(parts, comma)
}

// Normalize adds year to the years of n, keeping the style of the original
// token. It reports whether the result differs from n.
func Normalize(n Notice, year int, opts Options) (Notice, bool, error) {
	style := StyleOf(n.Years)
	years, err := ParseYears(n.Years, opts)
	if err != nil {
		return n, false, err
	}
	if _, found := slices.BinarySearch(years, year); !found {
		years = append(years, year)
		slices.Sort(years)
	}

	updated := n
	updated.Years = Render(Runs(years, style.Dashed), style.Comma, opts)
	if updated.String() == n.String() {
		return n, false, nil
	}
	return updated, true, nil
}

// UpdateText normalizes the first notice in text and returns the updated
// text. Text without a notice is returned unchanged.
func UpdateText(text string, year int, opts Options) (string, bool, error) {
	m, ok := Find(text)
	if !ok {
		return text, false, nil
	}
	updated, changed, err := Normalize(m.Notice, year, opts)
	if err != nil || !changed {
		return text, false, err
	}
	return text[:m.Begin] + updated.String() + text[m.End:], true, nil
}
