package analyzer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBestPromptConEncabezado(t *testing.T) {
	content := headerSeparator + "\n" +
		"🏆 MEJOR PROMPT DE ANÁLISIS (USAR EN API)\n" +
		headerSeparator + "\n" +
		"Iteración: 7\nScore: 8.33/10\n" +
		headerSeparator + "\n\n" +
		"Analiza el documento {DOCUMENTO} y responde en JSON."

	path := filepath.Join(t.TempDir(), "best_analysis_prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	prompt, err := LoadBestPrompt(path)
	require.NoError(t, err)
	assert.Equal(t, "Analiza el documento {DOCUMENTO} y responde en JSON.", prompt)
	assert.NotContains(t, prompt, headerSeparator)
}

func TestLoadBestPromptSinEncabezado(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best_analysis_prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("  prompt plano  \n"), 0o644))

	prompt, err := LoadBestPrompt(path)
	require.NoError(t, err)
	assert.Equal(t, "prompt plano", prompt)
}

func TestLoadBestPromptSeparadorSuelto(t *testing.T) {
	// Un único separador dentro del texto no es un encabezado y el
	// prompt se conserva completo
	content := "Analiza el proyecto.\n" + headerSeparator + "\nSección adicional del prompt."

	path := filepath.Join(t.TempDir(), "best_analysis_prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	prompt, err := LoadBestPrompt(path)
	require.NoError(t, err)
	assert.Equal(t, content, prompt)
}

func TestLoadBestPromptInexistente(t *testing.T) {
	_, err := LoadBestPrompt(filepath.Join(t.TempDir(), "no_existe.txt"))
	assert.Error(t, err)
}

func TestApplyDocumentConMarcador(t *testing.T) {
	result := ApplyDocument("Analiza esto:\n{DOCUMENTO}\nFin.", "contenido del pdf")
	assert.Equal(t, "Analiza esto:\ncontenido del pdf\nFin.", result)
}

func TestApplyDocumentSinMarcador(t *testing.T) {
	result := ApplyDocument("Analiza el proyecto.", "contenido del pdf")
	assert.True(t, strings.HasSuffix(result, "DOCUMENTO:\ncontenido del pdf"))
	assert.True(t, strings.HasPrefix(result, "Analiza el proyecto."))
}

func TestBuildExtractionPromptIncluyeDocumento(t *testing.T) {
	prompt := BuildExtractionPrompt("texto del documento", "proyecto.pdf")

	assert.Contains(t, prompt, "texto del documento")
	assert.Contains(t, prompt, "proyecto.pdf")
	assert.Contains(t, prompt, "presupuesto_total_mxn")
	assert.Contains(t, prompt, "score_costo_beneficio")
}
