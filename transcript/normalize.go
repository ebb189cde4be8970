// Package transcript turns conversation turns into the plain text that section
// predicates are evaluated against.
package transcript

import (
	"regexp"
	"strings"

	"github.com/tropica/briefbuddy/section"
	"github.com/tropica/briefbuddy/types"
)

// PreviewBanner is the first line of a seeded attachment preview.
const PreviewBanner = "**Vista previa del archivo analizado.**"

var (
	bannerLine  = regexp.MustCompile(`(?i)^\s*\**\s*vista previa del archivo analizado\.?\s*\**\s*$`)
	missingLine = regexp.MustCompile(`(?i)^\s*\**\s*faltantes\s*:?\s*\**\s*:?`)
	labeledLine = regexp.MustCompile(`^\s*[-*•]\s*([^:]{1,40}?)\s*:\s*(.*)$`)
	placeholder = regexp.MustCompile(`^[\s\-–—]*$`)
)

type options struct {
	keepLabels bool
}

type Option func(*options)

// WithLabels re-emits seeded values as "<Section>: <value>" instead of the bare value.
func WithLabels() Option {
	return func(o *options) {
		o.keepLabels = true
	}
}

// Text joins the contents of user turns. Assistant turns are not evidence, and
// neither is the follow-up question that closes a seeded preview.
func Text(turns []types.Turn) string {
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		if t.Role != types.RoleUser {
			continue
		}
		content := t.Content
		if t.Seeded {
			content = seededEvidence(content)
		}
		parts = append(parts, content)
	}
	return strings.Join(parts, "\n")
}

// seededEvidence cuts a seeded preview after its "Faltantes" line.
func seededEvidence(content string) string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if missingLine.MatchString(lines[i]) {
			return strings.Join(lines[:i+1], "\n")
		}
	}
	return content
}

// Normalize rewrites text line by line so seeded preview decoration and
// placeholders are not mistaken for answers.
func Normalize(text string, table section.Table, opts ...Option) string {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			out = append(out, line)
			continue
		}
		if bannerLine.MatchString(line) || missingLine.MatchString(line) {
			continue
		}
		if m := labeledLine.FindStringSubmatch(line); m != nil {
			if name, ok := table.Lookup(strings.Trim(m[1], "* ")); ok {
				value := strings.TrimSpace(m[2])
				if placeholder.MatchString(value) {
					continue
				}
				if o.keepLabels {
					out = append(out, string(name)+": "+value)
				} else {
					out = append(out, value)
				}
				continue
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// Evaluable is the normalized user-side text of turns.
func Evaluable(turns []types.Turn, table section.Table, opts ...Option) string {
	return Normalize(Text(turns), table, opts...)
}
