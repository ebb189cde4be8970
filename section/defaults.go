package section

import (
	"regexp"
	"strings"
)

const (
	Contacto    Name = "Contacto"
	Alcance     Name = "Alcance"
	Objetivos   Name = "Objetivos"
	Audiencia   Name = "Audiencia"
	Marca       Name = "Marca"
	Entregables Name = "Entregables"
	Logistica   Name = "Logística"
	Extras      Name = "Extras"
)

var (
	emailPattern    = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)
	fullNamePattern = regexp.MustCompile(`\b[A-Za-zÁÉÍÓÚÑáéíóúñ]{2,}\s+[A-Za-zÁÉÍÓÚÑáéíóúñ]{2,}\b`)

	scopePattern        = keywords(`alcance`, `piezas?`, `entregables?`, `videos?`, `kv`, `banners?`, `sitio`, `landing`, `app`, `spot`, `ooh`, `social`, `camp[aá]ñas?`)
	objectivesPattern   = keywords(`objetiv\w*`, `kpis?`, `metas?`, `resultados?`, `conversi(?:[oó]n|ones)`, `awareness`, `engagement`, `ventas`, `leads`)
	audiencePattern     = keywords(`audiencias?`, `target`, `p[uú]blicos?`, `segmentos?`, `demogr[aá]fic[oa]s?`, `buyer`, `personas?`, `clientes?`)
	brandPattern        = keywords(`marcas?`, `brand`, `branding`, `tono`, `valores`, `gu[ií]a de marca`, `brandbook`, `manual de marca`, `lineamientos`)
	deliverablesPattern = keywords(`entregables?`, `piezas?`, `formatos?`, `resoluci(?:[oó]n|ones)`, `versi(?:[oó]n|ones)`)
	logisticsPattern    = keywords(`\d{1,2}/\d{1,2}(?:/\d{2,4})?`, `\d{4}-\d{2}-\d{2}`, `hoy`, `ma[ñn]ana`, `semanas?`, `mes(?:es)?`, `deadline`, `fechas?`, `entregas?`, `presupuestos?`, `budget`, `aprobaci(?:[oó]n|ones)`, `stakeholders?`)
	extrasPattern       = keywords(`riesgos?`, `supuestos?`, `referencias?`, `links?`, `notas?`, `extras?`)
)

// scopeWordThreshold marks a long free-form description as an answer to the scope section.
const scopeWordThreshold = 20

func keywords(alternatives ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(alternatives, "|") + `)\b`)
}

// Matches builds a predicate from a compiled pattern.
func Matches(re *regexp.Regexp) Predicate {
	return re.MatchString
}

// AllOf is satisfied when every predicate is.
func AllOf(preds ...Predicate) Predicate {
	return func(text string) bool {
		for _, p := range preds {
			if !p(text) {
				return false
			}
		}
		return len(preds) > 0
	}
}

// AnyOf is satisfied when at least one predicate is.
func AnyOf(preds ...Predicate) Predicate {
	return func(text string) bool {
		for _, p := range preds {
			if p(text) {
				return true
			}
		}
		return false
	}
}

// MoreWordsThan is satisfied by texts longer than n whitespace separated words.
func MoreWordsThan(n int) Predicate {
	return func(text string) bool {
		return len(strings.Fields(text)) > n
	}
}

// HasEmail reports whether text contains an email-shaped token.
func HasEmail(text string) bool {
	return emailPattern.MatchString(text)
}

// FindEmail returns the first email-shaped token in text.
func FindEmail(text string) string {
	return emailPattern.FindString(text)
}

var defaultTable = MustNew(
	Section{
		Name:     Contacto,
		Aliases:  []string{"Contact", "Correo", "Email"},
		Question: "¿Me compartes tu nombre completo y correo?",
		Detect:   AllOf(Matches(emailPattern), Matches(fullNamePattern)),
	},
	Section{
		Name:     Alcance,
		Aliases:  []string{"Scope"},
		Question: "En 1–2 frases, ¿cómo describes el proyecto y qué piezas esperas (p. ej., video, KV, sitio, banners)?",
		Detect:   AnyOf(Matches(scopePattern), MoreWordsThan(scopeWordThreshold)),
	},
	Section{
		Name:     Objetivos,
		Aliases:  []string{"Objetivo", "KPIs"},
		Question: "¿Qué objetivos o KPIs quieres lograr (awareness, leads, ventas, engagement) y cómo medirías el éxito?",
		Detect:   Matches(objectivesPattern),
	},
	Section{
		Name:     Audiencia,
		Aliases:  []string{"Target", "Público"},
		Question: "¿Quién es la audiencia (edad, ubicación, intereses) y en qué canales suelen estar?",
		Detect:   Matches(audiencePattern),
	},
	Section{
		Name:     Marca,
		Aliases:  []string{"Brand"},
		Question: "¿Qué debemos saber de la marca (tono, valores, referencias, guía/brandbook o links)?",
		Detect:   Matches(brandPattern),
	},
	Section{
		Name:     Entregables,
		Aliases:  []string{"Deliverables"},
		Question: "Lista los entregables concretos con formatos o versiones (si aplica).",
		Detect:   Matches(deliverablesPattern),
	},
	Section{
		Name:     Logistica,
		Aliases:  []string{"Fechas", "Presupuesto", "Logistics"},
		Question: "Fechas clave y dependencias: ¿hay deadline, presupuesto tentativo, aprobaciones o restricciones?",
		Detect:   Matches(logisticsPattern),
	},
	Section{
		Name:     Extras,
		Aliases:  []string{"Notas", "Riesgos"},
		Question: "¿Hay riesgos, supuestos, referencias o notas adicionales que debamos considerar?",
		Detect:   Matches(extrasPattern),
	},
)

// Default returns the canonical eight-section brief table.
func Default() Table {
	return defaultTable
}
