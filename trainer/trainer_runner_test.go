package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSize(t *testing.T) {
	v := validateSize("prompt corto")
	assert.True(t, v.Valid)
	assert.Equal(t, 12, v.Chars)

	v = validateSize(strings.Repeat("x", maxPromptChars))
	assert.True(t, v.Valid)
	assert.InDelta(t, 100.0, v.Percentage, 0.01)

	v = validateSize(strings.Repeat("x", maxPromptChars+1))
	assert.False(t, v.Valid)
}

func TestEnsureAnchor(t *testing.T) {
	conAnchor := ensureAnchor("Analiza el proyecto.")
	assert.Contains(t, conAnchor, "REGLAS FUNDAMENTALES")
	assert.Contains(t, conAnchor, "Analiza el proyecto.")

	// No se duplica si ya está presente
	repetido := ensureAnchor(conAnchor)
	assert.Equal(t, 1, strings.Count(repetido, "REGLAS FUNDAMENTALES (INMUTABLES)"))
}

func TestCalcAvg(t *testing.T) {
	avg := calcAvg(map[string]interface{}{
		"precision_extraccion":   8.0,
		"claridad_instrucciones": 7.0,
		"robustez_formato":       9.0,
	})
	assert.InDelta(t, 8.0, avg, 0.01)

	// Métricas ausentes cuentan como cero
	avg = calcAvg(map[string]interface{}{"precision_extraccion": 6.0})
	assert.InDelta(t, 2.0, avg, 0.01)
}

func TestCalcAvgValoresString(t *testing.T) {
	avg := calcAvg(map[string]interface{}{
		"precision_extraccion":   "9",
		"claridad_instrucciones": "6",
		"robustez_formato":       "6",
	})
	assert.InDelta(t, 7.0, avg, 0.01)
}
