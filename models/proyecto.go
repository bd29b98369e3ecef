package models

import "time"

// Sectores válidos para los proyectos de infraestructura
var SectoresValidos = []string{
	"Agua", "Energía", "Transporte", "Infraestructura",
	"Salud", "Educación", "Medio Ambiente", "Desarrollo Social",
}

// SectorValido verifica si el sector está dentro del catálogo permitido
func SectorValido(sector string) bool {
	for _, s := range SectoresValidos {
		if s == sector {
			return true
		}
	}
	return false
}

// ProyectoRecord representa un registro extraído de un documento de proyecto.
// Los campos opcionales son punteros para distinguir "sin dato" de cero.
type ProyectoRecord struct {
	Nombre                    *string  `json:"nombre"`
	Sector                    *string  `json:"sector"`
	Dependencia               *string  `json:"dependencia"`
	Ubicacion                 *string  `json:"ubicacion"`
	AnioInicio                *int     `json:"anio_inicio"`
	AnioFin                   *int     `json:"anio_fin"`
	DocFuente                 *string  `json:"doc_fuente"`
	FechaCarga                *string  `json:"fecha_carga"`
	PresupuestoTotalMXN       *float64 `json:"presupuesto_total_mxn"`
	CostoOperativoMXN         *float64 `json:"costo_operativo_mxn"`
	CostoMantenimientoMXN     *float64 `json:"costo_mantenimiento_mxn"`
	CostoBeneficioEstimadoMXN *float64 `json:"costo_beneficio_estimado_mxn"`
	EficienciaFinanciera      *float64 `json:"eficiencia_financiera"`
	RiesgoFinanciero          *string  `json:"riesgo_financiero"`
	ScoreCostoBeneficio       *float64 `json:"score_costo_beneficio"`
	AnalisisFinanciero        *string  `json:"analisis_financiero"`
	ResumenObservaciones      *string  `json:"resumen_observaciones"`
	Comparativo               *string  `json:"comparativo"`
	BeneficiariosEstimados    *float64 `json:"beneficiarios_estimados"`
	ImpactoPrincipal          *string  `json:"impacto_principal"`
	IndicadorPrincipal        *string  `json:"indicador_principal"`
	ImpactoFisico             *float64 `json:"impacto_fisico"`
	KPI                       *float64 `json:"kpi"`

	// Confianza por campo reportada por el modelo (0.0 - 1.0)
	Confianza map[string]*float64 `json:"confianza,omitempty"`

	// Metadatos del procesamiento
	Validation       string `json:"_validation,omitempty"`
	ValidatedAt      string `json:"_validated_at,omitempty"`
	ExtractionMethod string `json:"_extraction_method,omitempty"`
}

// NewProyectoRecord crea un registro vacío con el documento fuente
// y la fecha de carga ya establecidos.
func NewProyectoRecord(docFuente string) *ProyectoRecord {
	fecha := time.Now().Format("2006-01-02")
	return &ProyectoRecord{
		DocFuente:  Str(docFuente),
		FechaCarga: Str(fecha),
	}
}

// Validado indica si el registro pasó todas las validaciones
func (r *ProyectoRecord) Validado() bool {
	return r.Validation == "OK"
}

// Str devuelve un puntero a la cadena dada
func Str(s string) *string { return &s }

// Float devuelve un puntero al flotante dado
func Float(f float64) *float64 { return &f }

// Int devuelve un puntero al entero dado
func Int(i int) *int { return &i }

// StrOr devuelve el valor del puntero o un valor por defecto si es nil
func StrOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

// FloatOr devuelve el valor del puntero o un valor por defecto si es nil
func FloatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
