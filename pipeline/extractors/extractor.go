// Package extractors obtiene el texto plano de los documentos fuente.
package extractors

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const truncationMarker = "\n\n[...TRUNCADO...]\n\n"

// ExtractText extrae el texto de un documento PDF o TXT.
// Para cualquier otra extensión devuelve error.
func ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("error al leer %s: %w", filepath.Base(path), err)
		}
		return strings.TrimSpace(string(data)), nil
	default:
		return "", fmt.Errorf("formato no soportado: %s", filepath.Ext(path))
	}
}

func extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("error al abrir el PDF %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var buf bytes.Buffer
	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("error al extraer texto de %s: %w", filepath.Base(path), err)
	}
	if _, err := buf.ReadFrom(content); err != nil {
		return "", fmt.Errorf("error al leer el texto de %s: %w", filepath.Base(path), err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// TruncateSmart recorta el texto conservando el 70% inicial y el 30% final,
// con un marcador en medio. Los documentos largos suelen tener los datos
// clave al principio y los anexos al final.
func TruncateSmart(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	startPortion := int(float64(maxChars) * 0.7)
	endPortion := maxChars - startPortion

	return string(runes[:startPortion]) + truncationMarker + string(runes[len(runes)-endPortion:])
}
