// Package textnorm normaliza los textos que llegan del exterior (IDs, nombres, descripciones)
// para que "Bodega Ñ" escrito con distintas composiciones Unicode sea el mismo ID.
package textnorm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Clean aplica NFC y recorta espacios.
func Clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// ID normaliza un identificador. Igual que Clean; se mantiene aparte para dejar clara la intención.
func ID(s string) string {
	return Clean(s)
}
