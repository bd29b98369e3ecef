package extractors

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextTXT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proyecto.txt")
	require.NoError(t, os.WriteFile(path, []byte("  Contenido del proyecto  \n"), 0o644))

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "Contenido del proyecto", text)
}

func TestExtractTextFormatoNoSoportado(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datos.docx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := ExtractText(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "formato no soportado")
}

func TestExtractTextArchivoInexistente(t *testing.T) {
	_, err := ExtractText(filepath.Join(t.TempDir(), "no_existe.txt"))
	assert.Error(t, err)
}

func TestTruncateSmartTextoCorto(t *testing.T) {
	text := "texto breve"
	assert.Equal(t, text, TruncateSmart(text, 100))
}

func TestTruncateSmartTextoLargo(t *testing.T) {
	text := strings.Repeat("a", 700) + strings.Repeat("z", 300)
	result := TruncateSmart(text, 100)

	assert.Contains(t, result, truncationMarker)
	// 70% del inicio y 30% del final
	assert.True(t, strings.HasPrefix(result, strings.Repeat("a", 70)))
	assert.True(t, strings.HasSuffix(result, strings.Repeat("z", 30)))
}

func TestTruncateSmartLimiteExacto(t *testing.T) {
	text := strings.Repeat("x", 100)
	assert.Equal(t, text, TruncateSmart(text, 100))
}
