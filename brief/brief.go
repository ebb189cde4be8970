// Package brief holds the structured creative brief produced from a conversation.
package brief

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/eino-contrib/jsonschema"
)

type Contacto struct {
	Nombre string `json:"nombre" jsonschema:"description=Nombre completo de la persona de contacto"`
	Correo string `json:"correo" jsonschema:"description=Correo electrónico de contacto"`
}

type Audiencia struct {
	Descripcion string   `json:"descripcion" jsonschema:"description=Quién es la audiencia: edad y ubicación e intereses"`
	Canales     []string `json:"canales" jsonschema:"description=Canales donde está la audiencia"`
}

type Marca struct {
	Tono        string   `json:"tono" jsonschema:"description=Tono de comunicación de la marca"`
	Valores     []string `json:"valores" jsonschema:"description=Valores de la marca"`
	Referencias []string `json:"referencias" jsonschema:"description=Referencias o guías de marca o links"`
}

type Logistica struct {
	Fechas       []string `json:"fechas" jsonschema:"description=Fechas clave y deadlines"`
	Presupuesto  Budget   `json:"presupuesto" jsonschema:"description=Presupuesto tentativo si se mencionó"`
	Aprobaciones []string `json:"aprobaciones" jsonschema:"description=Aprobaciones o stakeholders necesarios"`
}

type Extras struct {
	Riesgos []string `json:"riesgos" jsonschema:"description=Riesgos y supuestos"`
	Notas   []string `json:"notas" jsonschema:"description=Notas adicionales"`
}

type Brief struct {
	Contacto          Contacto  `json:"contacto"`
	Alcance           string    `json:"alcance" jsonschema:"description=Descripción del proyecto y piezas esperadas"`
	Objetivos         []string  `json:"objetivos" jsonschema:"description=Objetivos o KPIs"`
	Audiencia         Audiencia `json:"audiencia"`
	Marca             Marca     `json:"marca"`
	Entregables       []string  `json:"entregables" jsonschema:"description=Entregables concretos con formatos o versiones"`
	Logistica         Logistica `json:"logistica"`
	Extras            Extras    `json:"extras"`
	Faltantes         []string  `json:"faltantes" jsonschema:"description=Secciones o datos que aún faltan"`
	SiguientePregunta string    `json:"siguiente_pregunta" jsonschema:"description=Siguiente pregunta sugerida para el usuario"`
}

// Budget accepts a JSON string, number or null.
type Budget string

func (b *Budget) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null" || raw == "":
		*b = ""
	case strings.HasPrefix(raw, `"`):
		s, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("invalid budget %s: %w", raw, err)
		}
		*b = Budget(s)
	default:
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return fmt.Errorf("invalid budget %s: %w", raw, err)
		}
		*b = Budget(raw)
	}
	return nil
}

// Parse decodes a brief from model output, tolerating a surrounding code fence.
func Parse(raw string) (*Brief, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	var b Brief
	if err := sonic.UnmarshalString(strings.TrimSpace(raw), &b); err != nil {
		return nil, fmt.Errorf("failed to parse brief: %w", err)
	}
	return &b, nil
}

// JSON encodes the brief. A nil brief encodes as an empty one.
func (b *Brief) JSON() (string, error) {
	if b == nil {
		b = &Brief{}
	}
	return sonic.MarshalString(b)
}

// Text is the lowercased section values used for keyword classification.
// Field names are left out so keys such as "marca" never count as evidence.
func (b *Brief) Text() string {
	lines := b.lines()
	values := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.value != "" {
			values = append(values, l.value)
		}
	}
	return strings.ToLower(strings.Join(values, "\n"))
}

func (b *Brief) IsZero() bool {
	if b == nil {
		return true
	}
	for _, l := range b.lines() {
		if l.value != "" {
			return false
		}
	}
	return true
}

func JSONSchema() (string, error) {
	schema := jsonschema.Reflect(&Brief{})
	schema.Title = "Brief creativo"
	schema.Description = "Brief de un proyecto creativo o publicitario organizado en ocho secciones: contacto, alcance, objetivos, audiencia, marca, entregables, logística y extras."
	out, err := sonic.MarshalString(schema)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON schema: %w", err)
	}
	return out, nil
}
