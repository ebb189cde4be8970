// Package signal parses the hidden completion markers a generated reply ends with.
//
// A reply carries at most two HTML comments:
//
//	<!-- PROGRESS: {"complete":false,"missing":["Audiencia"]} -->
//	<!-- AUTO_FINALIZE: {"category":"Videos","client":"Acme"} -->
package signal

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/tropica/briefbuddy/section"
)

type Progress struct {
	Complete bool           `json:"complete"`
	Missing  []section.Name `json:"missing"`
}

type Meta struct {
	Category string `json:"category"`
	Client   string `json:"client"`
}

type Signal struct {
	Progress Progress
	Meta     Meta
	// HasMeta is set when a well-formed AUTO_FINALIZE marker was found.
	HasMeta bool
}

var (
	progressMarker = regexp.MustCompile(`(?i)<!--\s*PROGRESS\s*:([\s\S]*?)-->`)
	metaMarker     = regexp.MustCompile(`(?i)<!--\s*AUTO_FINALIZE\s*:([\s\S]*?)-->`)
	anyMarker      = regexp.MustCompile(`(?i)<!--\s*(?:PROGRESS|AUTO_FINALIZE)\s*:[\s\S]*?-->`)
)

// Parse looks for a well-formed PROGRESS marker in text. When the reply quotes
// or repeats a marker, the last well-formed one wins. Malformed or missing
// markers report false. A malformed AUTO_FINALIZE marker leaves HasMeta unset.
func Parse(text string) (Signal, bool) {
	progress, ok := lastPayload[Progress](progressMarker, text)
	if !ok {
		return Signal{}, false
	}
	sig := Signal{Progress: progress}
	sig.Meta, sig.HasMeta = lastPayload[Meta](metaMarker, text)
	return sig, true
}

// lastPayload decodes the JSON object of the last marker matched by re that
// holds one.
func lastPayload[T any](re *regexp.Regexp, text string) (T, bool) {
	matches := re.FindAllStringSubmatch(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		payload := strings.TrimSpace(matches[i][1])
		if !strings.HasPrefix(payload, "{") || !strings.HasSuffix(payload, "}") {
			continue
		}
		var v T
		if err := sonic.UnmarshalString(payload, &v); err == nil {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Strip removes complete markers from text for display.
func Strip(text string) string {
	out := anyMarker.ReplaceAllString(text, "")
	return strings.TrimRight(out, " \t\r\n")
}

// Visible returns the part of text that is safe to display while a stream is
// still open: complete markers are removed and a trailing partial marker is held back.
func Visible(text string) string {
	out := anyMarker.ReplaceAllString(text, "")
	if i := strings.LastIndex(out, "<!--"); i >= 0 && !strings.Contains(out[i:], "-->") {
		return out[:i]
	}
	for _, partial := range []string{"<!-", "<!", "<"} {
		if strings.HasSuffix(out, partial) {
			return out[:len(out)-len(partial)]
		}
	}
	return out
}

// FormatProgress renders the PROGRESS marker for missing. An empty list means complete.
func FormatProgress(missing []section.Name) string {
	p := Progress{
		Complete: len(missing) == 0,
		Missing:  append([]section.Name{}, missing...),
	}
	raw, err := sonic.MarshalString(p)
	if err != nil {
		raw = fmt.Sprintf(`{"complete":%t,"missing":[]}`, p.Complete)
	}
	return "<!-- PROGRESS: " + raw + " -->"
}

func FormatMeta(meta Meta) string {
	raw, err := sonic.MarshalString(meta)
	if err != nil {
		raw = `{"category":"","client":""}`
	}
	return "<!-- AUTO_FINALIZE: " + raw + " -->"
}

// Scanner accumulates a streamed reply and re-parses the whole buffer after
// every chunk, so markers split across chunks are found once they close.
type Scanner struct {
	buf strings.Builder
}

// Feed appends chunk and reports the signal parsed from everything seen so far.
func (s *Scanner) Feed(chunk string) (Signal, bool) {
	s.buf.WriteString(chunk)
	return Parse(s.buf.String())
}

func (s *Scanner) Text() string {
	return s.buf.String()
}

func (s *Scanner) Reset() {
	s.buf.Reset()
}
