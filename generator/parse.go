package generator

import (
	"fmt"
	"strings"
)

// ParseMode selects how the numbered follow-up fields are pulled out of the response.
type ParseMode string

const (
	// ParseTrailing reads the fields from the last run of "1."/"2."/"3." lines and keeps
	// everything above it, numbered lists included, as main content.
	ParseTrailing ParseMode = "trailing"
	// ParseLegacy matches any "N." line anywhere and drops every other line that merely
	// contains "1.", "2." or "3.". Numbered lists in the body are lost.
	ParseLegacy ParseMode = "legacy"
)

// Parser turns a raw model response into a Result.
type Parser func(raw string) Result

// ParserFor returns the parser for mode; empty means ParseTrailing.
func ParserFor(mode ParseMode) (Parser, error) {
	switch mode {
	case "", ParseTrailing:
		return Parse, nil
	case ParseLegacy:
		return ParseLegacyText, nil
	default:
		return nil, fmt.Errorf("unknown parser mode %q", mode)
	}
}

// Parse splits raw into main content and the three trailing fields.
// Closing remarks after the fields are kept in the main content.
func Parse(raw string) Result {
	lines := splitLines(raw)

	// 最后一个编号行为块尾，再向前找严格递减的序号，遇到 1. 即结束。
	end := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if _, _, ok := fieldMarker(strings.TrimSpace(lines[i])); ok {
			end = i
			break
		}
	}
	start := len(lines)
	if end >= 0 {
		last := 4
		for i := end; i >= 0; i-- {
			s := strings.TrimSpace(lines[i])
			if s == "" {
				continue
			}
			n, _, ok := fieldMarker(s)
			if !ok || n >= last {
				break
			}
			start = i
			last = n
			if n == 1 {
				break
			}
		}
	} else {
		end = len(lines) - 1
	}

	res := Result{Raw: raw}
	for _, line := range lines[start : end+1] {
		n, value, ok := fieldMarker(strings.TrimSpace(line))
		if !ok {
			continue
		}
		res.setField(n, stripLabel(n, value))
	}
	res.MainContent = joinParts(lines[:start], lines[end+1:])
	res.Tags = SplitTags(res.TagLine)
	return res
}

func joinParts(head, tail []string) string {
	body := strings.TrimSpace(strings.Join(head, "\n"))
	rest := strings.TrimSpace(strings.Join(tail, "\n"))
	switch {
	case body == "":
		return rest
	case rest == "":
		return body
	}
	return body + "\n\n" + rest
}

// ParseLegacyText keeps the original line-prefix heuristic unchanged.
func ParseLegacyText(raw string) Result {
	res := Result{Raw: raw}
	var body []string
	for _, line := range splitLines(raw) {
		s := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(s, "1."):
			res.TagLine = strings.TrimSpace(strings.Replace(s, "1.", "", 1))
		case strings.HasPrefix(s, "2."):
			res.FocusKeyphrase = strings.TrimSpace(strings.Replace(s, "2.", "", 1))
		case strings.HasPrefix(s, "3."):
			res.MetaDescription = strings.TrimSpace(strings.Replace(s, "3.", "", 1))
		case !strings.Contains(line, "1.") && !strings.Contains(line, "2.") && !strings.Contains(line, "3."):
			body = append(body, line)
		}
	}
	res.MainContent = strings.TrimSpace(strings.Join(body, "\n"))
	res.Tags = SplitTags(res.TagLine)
	return res
}

// SplitTags splits a comma separated tag line, trimming each element and dropping empties.
func SplitTags(line string) []string {
	tags := []string{}
	for _, t := range strings.Split(line, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (r *Result) setField(n int, value string) {
	switch n {
	case 1:
		r.TagLine = value
	case 2:
		r.FocusKeyphrase = value
	case 3:
		r.MetaDescription = value
	}
}

func splitLines(raw string) []string {
	return strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
}

// fieldMarker recognizes "1.", "2." and "3." at the start of a trimmed line,
// tolerating markdown emphasis in front ("**1. ...").
func fieldMarker(s string) (int, string, bool) {
	s = strings.TrimLeft(s, "*_")
	for n, marker := range []string{"1.", "2.", "3."} {
		if strings.HasPrefix(s, marker) {
			return n + 1, strings.Trim(strings.TrimPrefix(s, marker), " \t*_"), true
		}
	}
	return 0, "", false
}

// fieldLabels lists, per field number, the label phrases the model tends to
// echo in front of a value ("SEO Tags: ...").
var fieldLabels = map[int][]string{
	1: {"tags", "seo tags", "tag list", "seo tag list", "keywords", "seo keywords", "a comma-separated list of seo tags"},
	2: {"keyphrase", "focus keyphrase", "focus key phrase", "focus keyword", "seo keyphrase", "a short focus keyphrase"},
	3: {"description", "meta description", "seo meta description", "a meta description"},
}

// stripLabel drops a leading label only when the text before the first colon
// is one of the known phrases for field n.
func stripLabel(n int, value string) string {
	idx := strings.Index(value, ":")
	if idx <= 0 {
		return value
	}
	label := strings.ToLower(strings.Join(strings.Fields(strings.Trim(value[:idx], " \t*_")), " "))
	for _, l := range fieldLabels[n] {
		if label == l {
			return strings.Trim(value[idx+1:], " \t*_")
		}
	}
	return value
}
