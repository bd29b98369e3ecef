// Package cleaner normaliza y valida los registros extraídos por el analizador.
package cleaner

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/guyomx/smartcities-banorte/models"
)

var (
	reMillones = regexp.MustCompile(`(\d+(\.\d+)?)\s*mill`)
	reMiles    = regexp.MustCompile(`(\d+(\.\d+)?)\s*mil`)
	reDigitos  = regexp.MustCompile(`(\d+(\.\d+)?)`)
)

// ToNumber convierte un valor arbitrario del modelo a número.
// Entiende expresiones como "15 millones" (15e6) y "500 mil" (500e3).
// Devuelve nil cuando no hay dato utilizable.
func ToNumber(v interface{}) *float64 {
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		return models.Float(n)
	case float32:
		return models.Float(float64(n))
	case int:
		return models.Float(float64(n))
	case int64:
		return models.Float(float64(n))
	}

	s := strings.TrimSpace(strings.ToLower(toString(v)))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "null" || s == "none" || s == "-" {
		return nil
	}

	if m := reMillones.FindStringSubmatch(s); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return models.Float(f * 1_000_000)
		}
	}
	if m := reMiles.FindStringSubmatch(s); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return models.Float(f * 1_000)
		}
	}
	if m := reDigitos.FindStringSubmatch(s); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return models.Float(f)
		}
	}

	return nil
}

// ToYear convierte un valor a año de 4 dígitos, o nil si no es posible
func ToYear(v interface{}) *int {
	if v == nil {
		return nil
	}

	// Los números del JSON llegan como float64
	if f, ok := v.(float64); ok {
		return models.Int(int(f))
	}

	s := strings.TrimSpace(toString(v))
	if s == "" || s == "null" {
		return nil
	}
	if len(s) > 4 {
		s = s[:4]
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return models.Int(y)
}

// Normalize construye un ProyectoRecord tipado a partir del JSON crudo
// del modelo, aplicando las coerciones numéricas y de años.
func Normalize(raw map[string]interface{}) *models.ProyectoRecord {
	rec := &models.ProyectoRecord{
		Nombre:               asString(raw["nombre"]),
		Sector:               asString(raw["sector"]),
		Dependencia:          asString(raw["dependencia"]),
		Ubicacion:            asString(raw["ubicacion"]),
		DocFuente:            asString(raw["doc_fuente"]),
		FechaCarga:           asString(raw["fecha_carga"]),
		RiesgoFinanciero:     asString(raw["riesgo_financiero"]),
		AnalisisFinanciero:   asString(raw["analisis_financiero"]),
		ResumenObservaciones: asString(raw["resumen_observaciones"]),
		Comparativo:          asString(raw["comparativo"]),
		ImpactoPrincipal:     asString(raw["impacto_principal"]),
		IndicadorPrincipal:   asString(raw["indicador_principal"]),

		AnioInicio: ToYear(raw["anio_inicio"]),
		AnioFin:    ToYear(raw["anio_fin"]),

		PresupuestoTotalMXN:       ToNumber(raw["presupuesto_total_mxn"]),
		CostoOperativoMXN:         ToNumber(raw["costo_operativo_mxn"]),
		CostoMantenimientoMXN:     ToNumber(raw["costo_mantenimiento_mxn"]),
		CostoBeneficioEstimadoMXN: ToNumber(raw["costo_beneficio_estimado_mxn"]),
		EficienciaFinanciera:      ToNumber(raw["eficiencia_financiera"]),
		ScoreCostoBeneficio:       ToNumber(raw["score_costo_beneficio"]),
		BeneficiariosEstimados:    ToNumber(raw["beneficiarios_estimados"]),
		ImpactoFisico:             ToNumber(raw["impacto_fisico"]),
		KPI:                       ToNumber(raw["kpi"]),
	}

	// Normalización del mapa de confianza, si el modelo lo reporta
	if conf, ok := raw["confianza"].(map[string]interface{}); ok {
		rec.Confianza = make(map[string]*float64, len(conf))
		for k, v := range conf {
			rec.Confianza[k] = ToNumber(v)
		}
	}

	return rec
}

func asString(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(toString(v))
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return models.Str(s)
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}
