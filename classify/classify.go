// Package classify infers the project category and client name used to label
// a finalized brief.
package classify

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

type Category string

const (
	Videos   Category = "Videos"
	Campaña  Category = "Campaña"
	Branding Category = "Branding"
	Web      Category = "Web"
	Evento   Category = "Evento"
	Proyecto Category = "Proyecto"
)

// Categories lists the closed enumeration in rule order.
var Categories = []Category{Videos, Campaña, Branding, Web, Evento, Proyecto}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// ParseCategory resolves a category case-insensitively. Unknown values yield Proyecto, false.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, v := range Categories {
		if strings.EqualFold(s, string(v)) {
			return v, true
		}
	}
	return Proyecto, false
}

// ClientPlaceholder is used when no client can be inferred.
const ClientPlaceholder = "Cliente"

// TitleMax caps inferred client names.
const TitleMax = 64

var categoryRules = []struct {
	pattern  *regexp.Regexp
	category Category
}{
	{regexp.MustCompile(`(?i)spot|video|mp4|film`), Videos},
	{regexp.MustCompile(`(?i)campaña|campaign`), Campaña},
	{regexp.MustCompile(`(?i)branding|marca`), Branding},
	{regexp.MustCompile(`(?i)web|sitio`), Web},
	{regexp.MustCompile(`(?i)evento`), Evento},
}

// GuessCategory returns the first category whose keywords appear in text.
func GuessCategory(text string) Category {
	for _, r := range categoryRules {
		if r.pattern.MatchString(text) {
			return r.category
		}
	}
	return Proyecto
}

var (
	emailDomain   = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@([A-Z0-9-]+)(?:\.[A-Z0-9-]+)*\.[A-Z]{2,}`)
	declaredField = regexp.MustCompile(`(?im)\b(?:cliente|empresa|compa[ñn][ií]a|client|company)\s*:\s*([^\s,;.]+)`)
	separators    = regexp.MustCompile(`[_\-\s]+`)
)

// GuessClient infers the client from the first email domain in text, then from a declared
// client or company field, then falls back to ClientPlaceholder.
func GuessClient(text string) string {
	if m := emailDomain.FindStringSubmatch(text); m != nil {
		if name := truncate(TitleCase(m[1]), TitleMax); name != "" {
			return name
		}
	}
	if m := declaredField.FindStringSubmatch(text); m != nil {
		if name := truncate(TitleCase(m[1]), TitleMax); name != "" {
			return name
		}
	}
	return ClientPlaceholder
}

// ClientFromFilename derives a client name from the first word of a file's base name.
func ClientFromFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	first := strings.FieldsFunc(base, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(first) == 0 {
		return ""
	}
	return truncate(TitleCase(first[0]), TitleMax)
}

// TitleCase lowercases s, turns hyphens and underscores into spaces and
// capitalizes every word.
func TitleCase(s string) string {
	words := strings.Fields(separators.ReplaceAllString(strings.ToLower(s), " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// Label is the project folder name: "Category | Client | DD-MM-YYYY".
func Label(category Category, client string, at time.Time) string {
	return fmt.Sprintf("%s | %s | %s", category, client, at.Format("02-01-2006"))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
