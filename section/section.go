// Package section defines the ordered intake sections of a creative brief and
// the lexical predicates that decide whether a section has been answered.
package section

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

type Name string

func (n Name) String() string {
	return string(n)
}

// Predicate reports whether the normalized transcript text appears to answer a section.
type Predicate func(text string) bool

type Section struct {
	Name Name
	// Aliases are alternative labels accepted in seeded preview lines.
	Aliases  []string
	Question string
	Detect   Predicate
}

// Table is an immutable, ordered list of sections. Order defines the asking sequence.
type Table struct {
	sections []Section
	index    map[Name]int
	labels   map[string]Name
}

var (
	ErrEmptyTable    = errors.New("section table is empty")
	ErrDuplicateName = errors.New("duplicate section name")
	ErrNoPredicate   = errors.New("section has no predicate")
)

func New(sections ...Section) (Table, error) {
	if len(sections) == 0 {
		return Table{}, ErrEmptyTable
	}
	t := Table{
		sections: make([]Section, 0, len(sections)),
		index:    make(map[Name]int, len(sections)),
		labels:   make(map[string]Name, len(sections)*2),
	}
	for _, s := range sections {
		if s.Name == "" {
			return Table{}, fmt.Errorf("section %d: empty name", len(t.sections))
		}
		if _, ok := t.index[s.Name]; ok {
			return Table{}, fmt.Errorf("%w: %s", ErrDuplicateName, s.Name)
		}
		if s.Detect == nil {
			return Table{}, fmt.Errorf("%w: %s", ErrNoPredicate, s.Name)
		}
		s.Aliases = append([]string(nil), s.Aliases...)
		t.index[s.Name] = len(t.sections)
		t.sections = append(t.sections, s)
		t.labels[labelKey(string(s.Name))] = s.Name
		for _, alias := range s.Aliases {
			t.labels[labelKey(alias)] = s.Name
		}
	}
	return t, nil
}

func MustNew(sections ...Section) Table {
	t, err := New(sections...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Table) Len() int {
	return len(t.sections)
}

// Sections returns a copy of the ordered section list.
func (t Table) Sections() []Section {
	return append([]Section(nil), t.sections...)
}

func (t Table) Names() []Name {
	out := make([]Name, 0, len(t.sections))
	for _, s := range t.sections {
		out = append(out, s.Name)
	}
	return out
}

func (t Table) Get(name Name) (Section, bool) {
	i, ok := t.index[name]
	if !ok {
		return Section{}, false
	}
	return t.sections[i], true
}

// Index returns the position of name, or -1.
func (t Table) Index(name Name) int {
	i, ok := t.index[name]
	if !ok {
		return -1
	}
	return i
}

func (t Table) First() Name {
	if len(t.sections) == 0 {
		return ""
	}
	return t.sections[0].Name
}

func (t Table) Last() Name {
	if len(t.sections) == 0 {
		return ""
	}
	return t.sections[len(t.sections)-1].Name
}

// Previous returns the section right before name in canonical order.
func (t Table) Previous(name Name) (Name, bool) {
	i := t.Index(name)
	if i <= 0 {
		return "", false
	}
	return t.sections[i-1].Name, true
}

// Lookup resolves a label (section name or alias) case- and accent-insensitively.
func (t Table) Lookup(label string) (Name, bool) {
	name, ok := t.labels[labelKey(label)]
	return name, ok
}

func (t Table) Question(name Name) string {
	s, ok := t.Get(name)
	if !ok || s.Question == "" {
		return fallbackQuestion
	}
	return s.Question
}

// Completed evaluates the predicate of name against text. A panicking or
// unknown predicate counts as not completed.
func (t Table) Completed(name Name, text string) (done bool) {
	s, ok := t.Get(name)
	if !ok || s.Detect == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("section predicate panicked", "section", name, "panic", r)
			done = false
		}
	}()
	return s.Detect(text)
}

const fallbackQuestion = "Continuemos con la siguiente sección, ¿de acuerdo?"

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
)

func labelKey(label string) string {
	key := strings.ToLower(strings.TrimSpace(label))
	key = strings.Join(strings.Fields(key), " ")
	return accentFolder.Replace(key)
}
