package cleaner

import (
	"fmt"
	"strings"
	"time"

	"github.com/guyomx/smartcities-banorte/models"
)

// Límites de coherencia para los registros extraídos
const (
	anioMinimo            = 1900
	anioMaximo            = 2100
	presupuestoSospechoso = 1_000_000_000_000 // un billón de pesos
	scoreMaximoPermitido  = 10.0
)

// Validate verifica que el registro tenga los campos mínimos y sea coherente.
// Las incidencias se acumulan en el campo _validation; "OK" si no hay ninguna.
func Validate(rec *models.ProyectoRecord) {
	var issues []string

	if rec.Nombre == nil {
		issues = append(issues, "nombre_missing")
	}
	if rec.Sector == nil {
		issues = append(issues, "sector_missing")
	}
	if rec.DocFuente == nil {
		issues = append(issues, "doc_fuente_missing")
	}

	if rec.Sector != nil && !models.SectorValido(*rec.Sector) {
		issues = append(issues, fmt.Sprintf("sector_invalid:%s", *rec.Sector))
	}

	if rec.AnioInicio != nil && (*rec.AnioInicio < anioMinimo || *rec.AnioInicio > anioMaximo) {
		issues = append(issues, fmt.Sprintf("anio_inicio_invalid:%d", *rec.AnioInicio))
	}
	if rec.AnioFin != nil && (*rec.AnioFin < anioMinimo || *rec.AnioFin > anioMaximo) {
		issues = append(issues, fmt.Sprintf("anio_fin_invalid:%d", *rec.AnioFin))
	}
	if rec.AnioInicio != nil && rec.AnioFin != nil && *rec.AnioInicio > *rec.AnioFin {
		issues = append(issues, "anio_inconsistency")
	}

	if rec.PresupuestoTotalMXN != nil {
		p := *rec.PresupuestoTotalMXN
		if p < 0 {
			issues = append(issues, "presupuesto_negative")
		}
		if p > presupuestoSospechoso {
			issues = append(issues, "presupuesto_suspicious")
		}
	}

	if rec.ScoreCostoBeneficio != nil {
		s := *rec.ScoreCostoBeneficio
		if s < 0 || s > scoreMaximoPermitido {
			issues = append(issues, "score_out_of_range")
		}
	}

	if len(issues) > 0 {
		rec.Validation = strings.Join(issues, ",")
	} else {
		rec.Validation = "OK"
	}
	rec.ValidatedAt = time.Now().Format(time.RFC3339)
}
