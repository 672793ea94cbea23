// Package docstring parses Google-style Python docstrings into structured records.
package docstring

import (
	"regexp"
	"strings"
)

var (
	argPattern     = regexp.MustCompile(`^\s{4}([\p{L}\p{N}_]+)\s*\(([^)]*)\)\s*:\s*(.*)\s*$`)
	returnsPattern = regexp.MustCompile(`^\s{4}([^:]+)\s*:\s*(.*)\s*$`)
)

// Param is one entry of an Args: section.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Returns is the single entry of a Returns: section.
type Returns struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Parsed is the structured form of a docstring. Summary and Returns are nil
// when absent; Params is never nil so it serializes as an empty list.
type Parsed struct {
	Summary *string  `json:"summary"`
	Params  []Param  `json:"params"`
	Returns *Returns `json:"returns"`
}

type section int

const (
	sectionNone section = iota
	sectionArgs
	sectionReturns
)

// Parse parses doc. It never fails: lines that don't match the expected
// shapes are dropped.
func Parse(doc string) Parsed {
	parsed := Parsed{Params: []Param{}}
	if doc == "" {
		return parsed
	}

	lines := splitLines(strings.Trim(doc, "\n"))
	if len(lines) == 0 {
		return parsed
	}

	summary := strings.TrimSpace(lines[0])
	parsed.Summary = &summary

	current := sectionNone
	for _, line := range lines[1:] {
		s := strings.TrimRight(line, " \t\r\n\v\f")

		switch strings.TrimSpace(s) {
		case "Args:":
			current = sectionArgs
			continue
		case "Returns:":
			current = sectionReturns
			continue
		case "":
			continue
		}

		switch current {
		case sectionArgs:
			// Continuation lines don't match and are dropped.
			if m := argPattern.FindStringSubmatch(s); m != nil {
				parsed.Params = append(parsed.Params, Param{
					Name:        m[1],
					Type:        strings.TrimSpace(m[2]),
					Description: strings.TrimSpace(m[3]),
				})
			}
		case sectionReturns:
			if m := returnsPattern.FindStringSubmatch(s); m != nil {
				parsed.Returns = &Returns{
					Type:        strings.TrimSpace(m[1]),
					Description: strings.TrimSpace(m[2]),
				}
			}
		}
	}

	return parsed
}

// splitLines splits on \n, \r\n and lone \r.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}
