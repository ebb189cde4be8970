package brief

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/tropica/briefbuddy/section"
	"github.com/tropica/briefbuddy/transcript"
)

// Placeholder marks an empty value in rendered briefs.
const Placeholder = "—"

// DefaultNextQuestion closes a preview when the brief carries no suggestion.
const DefaultNextQuestion = "¿Seguimos con la siguiente sección?"

type line struct {
	name  section.Name
	value string
}

func (b *Brief) lines() []line {
	if b == nil {
		b = &Brief{}
	}
	return []line{
		{section.Contacto, contact(b.Contacto)},
		{section.Alcance, joinParts(", ", b.Alcance)},
		{section.Objetivos, joinParts(", ", b.Objetivos...)},
		{section.Audiencia, joinParts(". ",
			joinParts(", ", b.Audiencia.Descripcion),
			labeled("Canales", b.Audiencia.Canales...))},
		{section.Marca, joinParts(". ",
			labeled("Tono", b.Marca.Tono),
			labeled("Valores", b.Marca.Valores...),
			labeled("Referencias", b.Marca.Referencias...))},
		{section.Entregables, joinParts(", ", b.Entregables...)},
		{section.Logistica, joinParts("; ",
			joinParts(", ", b.Logistica.Fechas...),
			labeled("Presupuesto", string(b.Logistica.Presupuesto)),
			labeled("Aprobaciones", b.Logistica.Aprobaciones...))},
		{section.Extras, joinParts(". ",
			labeled("Riesgos", b.Extras.Riesgos...),
			joinParts(", ", b.Extras.Notas...))},
	}
}

// Filled reports, per section, whether the brief carries a value for it.
func (b *Brief) Filled() map[section.Name]bool {
	out := make(map[section.Name]bool, 8)
	for _, l := range b.lines() {
		out[l.name] = l.value != ""
	}
	return out
}

// Preview renders the seeded "vista previa" block that is appended to the
// conversation as a user turn after an attachment is analyzed.
func (b *Brief) Preview() string {
	var sb strings.Builder
	sb.WriteString(transcript.PreviewBanner)
	sb.WriteString("\n")
	for _, l := range b.lines() {
		fmt.Fprintf(&sb, "- %s: %s\n", l.name, orPlaceholder(l.value))
	}
	var missing []string
	next := DefaultNextQuestion
	if b != nil {
		missing = b.Faltantes
		if q := strings.TrimSpace(b.SiguientePregunta); q != "" {
			next = q
		}
	}
	fmt.Fprintf(&sb, "\n**Faltantes:** %s\n\n%s", orPlaceholder(strings.Join(missing, ", ")), next)
	return sb.String()
}

// Markdown renders the final brief document stored next to the project files.
func (b *Brief) Markdown(label, fileLink string) (string, error) {
	if b == nil {
		b = &Brief{}
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Brief — %s\n\n", label)
	if fileLink != "" {
		fmt.Fprintf(&sb, "**Archivo original:** [Link al archivo](%s)\n\n", fileLink)
	} else {
		fmt.Fprintf(&sb, "**Archivo original:** %s\n\n", Placeholder)
	}

	sb.WriteString("## Resumen\n")
	table := tablewriter.NewTable(&sb, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Sección", "Estado")
	for _, l := range b.lines() {
		status := "Pendiente"
		if l.value != "" {
			status = "Completa"
		}
		if err := table.Append(string(l.name), status); err != nil {
			return "", fmt.Errorf("failed to append summary row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return "", fmt.Errorf("failed to render summary table: %w", err)
	}

	fmt.Fprintf(&sb, "\n## Contacto\n- Nombre: %s\n- Correo: %s\n", orPlaceholder(b.Contacto.Nombre), orPlaceholder(b.Contacto.Correo))
	fmt.Fprintf(&sb, "\n## Alcance\n%s\n", orPlaceholder(strings.TrimSpace(b.Alcance)))
	fmt.Fprintf(&sb, "\n## Objetivos\n%s\n", bullets(b.Objetivos))
	fmt.Fprintf(&sb, "\n## Audiencia\n- Descripción: %s\n- Canales: %s\n",
		orPlaceholder(b.Audiencia.Descripcion), orPlaceholder(joinParts(", ", b.Audiencia.Canales...)))
	fmt.Fprintf(&sb, "\n## Marca\n- Tono: %s\n- Valores: %s\n- Referencias: %s\n",
		orPlaceholder(b.Marca.Tono), orPlaceholder(joinParts(", ", b.Marca.Valores...)), orPlaceholder(joinParts(", ", b.Marca.Referencias...)))
	fmt.Fprintf(&sb, "\n## Entregables\n%s\n", bullets(b.Entregables))
	fmt.Fprintf(&sb, "\n## Logística\n- Fechas: %s\n- Presupuesto: %s\n- Aprobaciones: %s\n",
		orPlaceholder(joinParts(", ", b.Logistica.Fechas...)), orPlaceholder(string(b.Logistica.Presupuesto)), orPlaceholder(joinParts(", ", b.Logistica.Aprobaciones...)))
	fmt.Fprintf(&sb, "\n## Extras\n- Riesgos:\n%s\n- Notas:\n%s\n", indent(bullets(b.Extras.Riesgos)), indent(bullets(b.Extras.Notas)))
	fmt.Fprintf(&sb, "\n## Faltantes\n%s\n", bullets(b.Faltantes))
	fmt.Fprintf(&sb, "\n## Siguiente pregunta\n%s\n", orPlaceholder(strings.TrimSpace(b.SiguientePregunta)))
	return sb.String(), nil
}

func contact(c Contacto) string {
	parts := dedupe([]string{c.Nombre, c.Correo})
	for i, p := range parts {
		if strings.Contains(p, "@") && i != len(parts)-1 {
			parts = append(append(parts[:i:i], parts[i+1:]...), p)
			break
		}
	}
	return strings.Join(parts, " · ")
}

func labeled(label string, values ...string) string {
	v := joinParts(", ", values...)
	if v == "" {
		return ""
	}
	return label + ": " + v
}

func joinParts(sep string, parts ...string) string {
	return strings.Join(dedupe(parts), sep)
}

// dedupe collapses whitespace and drops empty and case-insensitively repeated parts.
func dedupe(parts []string) []string {
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Join(strings.Fields(p), " ")
		if p == "" {
			continue
		}
		key := strings.ToLower(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

func bullets(items []string) string {
	items = dedupe(items)
	if len(items) == 0 {
		return Placeholder
	}
	return "- " + strings.Join(items, "\n- ")
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}
