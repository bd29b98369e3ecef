package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const textoEjemplo = `Modernización del Acueducto Metropolitano
Proyecto de infraestructura hidráulica para la zona norte.

El proyecto inicia en 2024 y concluye en 2027, con una inversión
de 350 millones de pesos para beneficiar a la población.`

func TestHeuristicExtraction(t *testing.T) {
	rec := HeuristicExtraction(textoEjemplo, "acueducto.pdf")
	require.NotNil(t, rec)

	assert.Equal(t, "fallback_heuristic", rec.ExtractionMethod)
	assert.Equal(t, "acueducto.pdf", *rec.DocFuente)
	assert.Equal(t, "Modernización del Acueducto Metropolitano", *rec.Nombre)

	require.NotNil(t, rec.AnioInicio)
	require.NotNil(t, rec.AnioFin)
	assert.Equal(t, 2024, *rec.AnioInicio)
	assert.Equal(t, 2027, *rec.AnioFin)

	require.NotNil(t, rec.PresupuestoTotalMXN)
	assert.InDelta(t, 350, *rec.PresupuestoTotalMXN, 0.01)

	require.NotNil(t, rec.Sector)
	assert.Equal(t, "Agua", *rec.Sector)
}

func TestHeuristicExtractionTextoVacio(t *testing.T) {
	rec := HeuristicExtraction("", "vacio.pdf")
	require.NotNil(t, rec)

	assert.Nil(t, rec.Nombre)
	assert.Nil(t, rec.AnioInicio)
	assert.Nil(t, rec.PresupuestoTotalMXN)
	assert.Nil(t, rec.Sector)
	assert.NotNil(t, rec.FechaCarga)
}

func TestHeuristicExtractionUnSoloAnio(t *testing.T) {
	rec := HeuristicExtraction("Obra vial programada para 2025", "vial.pdf")

	require.NotNil(t, rec.AnioInicio)
	assert.Equal(t, 2025, *rec.AnioInicio)
	assert.Nil(t, rec.AnioFin)
	assert.Equal(t, "Transporte", *rec.Sector)
}
