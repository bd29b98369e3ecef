package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSONStringDirecto(t *testing.T) {
	parsed, err := CleanJSONString(`{"nombre": "Acueducto Norte", "score_costo_beneficio": 7.5}`)
	require.NoError(t, err)
	assert.Equal(t, "Acueducto Norte", parsed["nombre"])
	assert.Equal(t, 7.5, parsed["score_costo_beneficio"])
}

func TestCleanJSONStringConFences(t *testing.T) {
	raw := "```json\n{\"sector\": \"Agua\"}\n```"
	parsed, err := CleanJSONString(raw)
	require.NoError(t, err)
	assert.Equal(t, "Agua", parsed["sector"])
}

func TestCleanJSONStringConTextoAlrededor(t *testing.T) {
	raw := `Claro, aquí está el análisis solicitado:

{"nombre": "Hospital Regional", "anio_inicio": 2024}

Espero que sea útil.`
	parsed, err := CleanJSONString(raw)
	require.NoError(t, err)
	assert.Equal(t, "Hospital Regional", parsed["nombre"])
	assert.Equal(t, 2024.0, parsed["anio_inicio"])
}

func TestCleanJSONStringObjetoAnidado(t *testing.T) {
	raw := `{"nombre": "Parque", "confianza": {"nombre": 0.9}}`
	parsed, err := CleanJSONString(raw)
	require.NoError(t, err)

	conf, ok := parsed["confianza"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 0.9, conf["nombre"])
}

func TestCleanJSONStringSinJSON(t *testing.T) {
	_, err := CleanJSONString("El documento no contiene información analizable.")
	assert.Error(t, err)
}

func TestCleanJSONStringVacio(t *testing.T) {
	_, err := CleanJSONString("   ")
	assert.Error(t, err)
}
