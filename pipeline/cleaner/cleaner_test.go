package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guyomx/smartcities-banorte/models"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  *float64
	}{
		{"float directo", 1500000.0, models.Float(1500000)},
		{"entero", 42, models.Float(42)},
		{"nil", nil, nil},
		{"cadena vacía", "", nil},
		{"null textual", "null", nil},
		{"guion", "-", nil},
		{"millones", "15 millones", models.Float(15000000)},
		{"millones con decimales", "2.5 millones", models.Float(2500000)},
		{"miles", "500 mil", models.Float(500000)},
		{"dígitos con comas", "1,250,000", models.Float(1250000)},
		{"dígitos planos", "850000", models.Float(850000)},
		{"texto sin números", "no disponible", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToNumber(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 0.01)
		})
	}
}

func TestToYear(t *testing.T) {
	assert.Equal(t, 2024, *ToYear(2024.0))
	assert.Equal(t, 2023, *ToYear("2023"))
	assert.Equal(t, 2022, *ToYear("2022-06-01"))
	assert.Nil(t, ToYear(nil))
	assert.Nil(t, ToYear("n/a"))
}

func TestNormalize(t *testing.T) {
	raw := map[string]interface{}{
		"nombre":                  "Parque Solar Monterrey",
		"sector":                  "Energía",
		"ubicacion":               "Monterrey, NL",
		"anio_inicio":             2023.0,
		"anio_fin":                "2026",
		"presupuesto_total_mxn":   "120 millones",
		"score_costo_beneficio":   8.5,
		"beneficiarios_estimados": 50000.0,
		"confianza": map[string]interface{}{
			"nombre": 0.95,
		},
	}

	rec := Normalize(raw)
	require.NotNil(t, rec)

	assert.Equal(t, "Parque Solar Monterrey", *rec.Nombre)
	assert.Equal(t, "Energía", *rec.Sector)
	assert.Equal(t, 2023, *rec.AnioInicio)
	assert.Equal(t, 2026, *rec.AnioFin)
	assert.InDelta(t, 120000000, *rec.PresupuestoTotalMXN, 0.01)
	assert.InDelta(t, 8.5, *rec.ScoreCostoBeneficio, 0.01)
	require.Contains(t, rec.Confianza, "nombre")
	assert.InDelta(t, 0.95, *rec.Confianza["nombre"], 0.001)

	// Campos ausentes quedan en nil, no en cero
	assert.Nil(t, rec.CostoOperativoMXN)
	assert.Nil(t, rec.Dependencia)
}

func TestValidateRecordCompleto(t *testing.T) {
	rec := &models.ProyectoRecord{
		Nombre:              models.Str("Línea 4 del Metro"),
		Sector:              models.Str("Transporte"),
		DocFuente:           models.Str("metro_linea4.pdf"),
		AnioInicio:          models.Int(2024),
		AnioFin:             models.Int(2027),
		PresupuestoTotalMXN: models.Float(5000000000),
		ScoreCostoBeneficio: models.Float(8.2),
	}

	Validate(rec)

	assert.Equal(t, "OK", rec.Validation)
	assert.True(t, rec.Validado())
	assert.NotEmpty(t, rec.ValidatedAt)
}

func TestValidateDetectaProblemas(t *testing.T) {
	rec := &models.ProyectoRecord{
		Sector:              models.Str("Minería"),
		AnioInicio:          models.Int(2030),
		AnioFin:             models.Int(2025),
		PresupuestoTotalMXN: models.Float(-100),
		ScoreCostoBeneficio: models.Float(15),
	}

	Validate(rec)

	assert.False(t, rec.Validado())
	assert.Contains(t, rec.Validation, "nombre_missing")
	assert.Contains(t, rec.Validation, "doc_fuente_missing")
	assert.Contains(t, rec.Validation, "sector_invalid:Minería")
	assert.Contains(t, rec.Validation, "anio_inconsistency")
	assert.Contains(t, rec.Validation, "presupuesto_negative")
	assert.Contains(t, rec.Validation, "score_out_of_range")
}

func TestValidatePresupuestoSospechoso(t *testing.T) {
	rec := &models.ProyectoRecord{
		Nombre:              models.Str("Megaproyecto"),
		Sector:              models.Str("Agua"),
		DocFuente:           models.Str("mega.pdf"),
		PresupuestoTotalMXN: models.Float(2e12),
	}

	Validate(rec)

	assert.Contains(t, rec.Validation, "presupuesto_suspicious")
}
