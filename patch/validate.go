package patch

import (
	"fmt"
	"strconv"
	"strings"
)

// Validate rejects operations whose path matches none of the allowed
// patterns. In a pattern "-" stands for an array index and "*" for any key.
// An empty pattern set allows everything.
func Validate(ops []Operation, allowed map[string]bool) error {
	if len(allowed) == 0 {
		return nil
	}
	patterns := make([][]string, 0, len(allowed))
	for p := range allowed {
		patterns = append(patterns, strings.Split(p, "/"))
	}
	for i, op := range ops {
		segments := strings.Split(op.Path, "/")
		if !matchesAny(segments, patterns) {
			return fmt.Errorf("operation %d: path %q is not allowed", i, op.Path)
		}
	}
	return nil
}

func matchesAny(segments []string, patterns [][]string) bool {
	for _, p := range patterns {
		if matches(segments, p) {
			return true
		}
	}
	return false
}

func matches(segments, pattern []string) bool {
	if len(segments) != len(pattern) {
		return false
	}
	for i, want := range pattern {
		got := segments[i]
		switch {
		case want == got, want == "*":
		case want == "-" && isIndex(got):
		default:
			return false
		}
	}
	return true
}

func isIndex(segment string) bool {
	if segment == "-" {
		return true
	}
	_, err := strconv.Atoi(segment)
	return err == nil
}
