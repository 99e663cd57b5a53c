package enrich

import (
	"fmt"
	"strings"
)

// DefaultSuggestion is the suggestion recorded when a description needs no change.
const DefaultSuggestion = "Descripción adecuada"

// RelationPrompt asks, for every product, whether its family matches its name.
// The model is expected to answer one "si"/"no" line per product, in order.
func RelationPrompt(names, families []string) string {
	var sb strings.Builder
	for i, name := range names {
		fmt.Fprintf(&sb, `
¿La siguiente familia se corresponde con la descripción del producto?

Producto: %s
Familia: %s

Responde solo con "si" o "no".
`, name, families[i])
	}
	return sb.String()
}

// ClarityPrompt asks, for every product name, whether it is unclear or
// redundant, and for a replacement text when it is.
func ClarityPrompt(names []string) string {
	var sb strings.Builder
	for i, name := range names {
		fmt.Fprintf(&sb, `
Evalúa la siguiente descripción de producto para determinar si es poco clara o redundante, con el objetivo
de que la descripción muestre el tipo de producto.

Producto %d:
Descripción del Producto: %s

Instrucciones:
1. Responde si la descripción es poco clara o redundante con "si" o "no".
2. Si respondiste "si", sugiere un texto alternativo. Si respondiste "no", escribe "%s".

Formato de respuesta:
1. [si/no]
2. [texto]
`, i+1, name, DefaultSuggestion)
	}
	return sb.String()
}
