package warehouse

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/guyomx/smartcities-banorte/pipeline/utils"
)

// ProyectoResumen es una fila aplanada del join de las 4 tablas.
// Los nombres de campo en mayúsculas siguen a los del warehouse, que es
// como los consume el contexto de entrenamiento.
type ProyectoResumen struct {
	IDProyecto             int      `json:"ID_PROYECTO"`
	Nombre                 *string  `json:"NOMBRE"`
	Sector                 *string  `json:"SECTOR"`
	Dependencia            *string  `json:"DEPENDENCIA"`
	Ubicacion              *string  `json:"UBICACION"`
	AnioInicio             *int     `json:"ANIO_INICIO"`
	AnioFin                *int     `json:"ANIO_FIN"`
	DocFuente              *string  `json:"DOC_FUENTE"`
	PresupuestoTotal       *float64 `json:"PRESUPUESTO_TOTAL"`
	EficienciaFinanciera   *float64 `json:"EFICIENCIA_FINANCIERA"`
	RiesgoFinanciero       *string  `json:"RIESGO_FINANCIERO"`
	BeneficiariosEstimados *float64 `json:"BENEFICIARIOS_ESTIMADOS"`
	ImpactoPrincipal       *string  `json:"IMPACTO_PRINCIPAL"`
	ScoreCostoBeneficio    *float64 `json:"SCORE_COSTO_BENEFICIO"`
	AnalisisFinanciero     *string  `json:"ANALISIS_FINANCIERO"`
}

// Reader consulta el warehouse para el dataset y la API
type Reader struct {
	db     *sql.DB
	logger *utils.PipelineLogger
}

// NewReader crea un nuevo Reader
func NewReader(db *sql.DB, logger *utils.PipelineLogger) *Reader {
	return &Reader{
		db:     db,
		logger: logger,
	}
}

// FetchDataset obtiene todos los proyectos con sus finanzas, impacto y
// evaluación en una sola consulta.
func (r *Reader) FetchDataset() ([]ProyectoResumen, error) {
	rows, err := r.db.Query(`
		SELECT
			p.id_proyecto, p.nombre, p.sector, p.dependencia, p.ubicacion,
			p.anio_inicio, p.anio_fin, p.doc_fuente,
			f.presupuesto_total, f.eficiencia_financiera, f.riesgo_financiero,
			i.beneficiarios_estimados, i.impacto_principal,
			e.score_costo_beneficio, e.analisis_financiero
		FROM PROYECTOS p
		LEFT JOIN FINANZAS f ON p.id_proyecto = f.id_proyecto
		LEFT JOIN IMPACTO_SOCIAL i ON p.id_proyecto = i.id_proyecto
		LEFT JOIN EVALUACIONES e ON p.id_proyecto = e.id_proyecto
		ORDER BY p.id_proyecto`)
	if err != nil {
		return nil, fmt.Errorf("error al consultar el dataset: %w", err)
	}
	defer rows.Close()

	var dataset []ProyectoResumen
	for rows.Next() {
		var p ProyectoResumen
		err := rows.Scan(
			&p.IDProyecto, &p.Nombre, &p.Sector, &p.Dependencia, &p.Ubicacion,
			&p.AnioInicio, &p.AnioFin, &p.DocFuente,
			&p.PresupuestoTotal, &p.EficienciaFinanciera, &p.RiesgoFinanciero,
			&p.BeneficiariosEstimados, &p.ImpactoPrincipal,
			&p.ScoreCostoBeneficio, &p.AnalisisFinanciero,
		)
		if err != nil {
			r.logger.Error("Error al escanear un proyecto: %v", err)
			continue
		}
		dataset = append(dataset, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error al recorrer el dataset: %w", err)
	}

	return dataset, nil
}

// MaxIDProyecto devuelve el id_proyecto máximo, o 0 si no hay registros
func (r *Reader) MaxIDProyecto() (int, error) {
	var maxID sql.NullInt64
	if err := r.db.QueryRow("SELECT MAX(id_proyecto) FROM PROYECTOS").Scan(&maxID); err != nil {
		return 0, fmt.Errorf("error al consultar el id máximo: %w", err)
	}
	if !maxID.Valid {
		return 0, nil
	}
	return int(maxID.Int64), nil
}

// ExportDataset escribe el dataset a un archivo JSON (el archivo que
// consumen el entrenador de prompts y el contexto del analizador).
func (r *Reader) ExportDataset(path string) (int, error) {
	dataset, err := r.FetchDataset()
	if err != nil {
		return 0, err
	}

	data, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("error al serializar el dataset: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("error al guardar el dataset en %s: %w", path, err)
	}

	r.logger.Info("Dataset exportado: %d proyectos → %s", len(dataset), path)
	return len(dataset), nil
}
