// Package warehouse sube los registros al warehouse analítico y lo
// consulta para el dataset de entrenamiento y la API.
package warehouse

import (
	"database/sql"
	"fmt"

	"github.com/guyomx/smartcities-banorte/models"
	"github.com/guyomx/smartcities-banorte/pipeline/utils"
)

// Uploader inserta registros validados en las 4 tablas del warehouse
type Uploader struct {
	db     *sql.DB
	driver string
	logger *utils.PipelineLogger
}

// NewUploader crea un nuevo Uploader
func NewUploader(db *sql.DB, driver string, logger *utils.PipelineLogger) *Uploader {
	return &Uploader{
		db:     db,
		driver: driver,
		logger: logger,
	}
}

// EnsureTables crea las 4 tablas del esquema si no existen.
// La columna autoincremental difiere entre drivers.
func (u *Uploader) EnsureTables() error {
	autoinc := "INTEGER AUTOINCREMENT"
	if u.driver == "mysql" {
		autoinc = "INT AUTO_INCREMENT"
	}

	ddl := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS PROYECTOS (
			id_proyecto %s PRIMARY KEY,
			nombre VARCHAR(255),
			sector VARCHAR(100),
			dependencia VARCHAR(100),
			ubicacion VARCHAR(255),
			anio_inicio INT,
			anio_fin INT,
			doc_fuente VARCHAR(255),
			fecha_carga DATE
		)`, autoinc),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS FINANZAS (
			id_finanzas %s PRIMARY KEY,
			id_proyecto INT,
			fuente_financiamiento VARCHAR(100),
			presupuesto_total FLOAT,
			costo_operativo_mxn FLOAT,
			costo_mantenimiento_mxn FLOAT,
			costo_beneficio_estimado_mxn FLOAT,
			eficiencia_financiera FLOAT,
			riesgo_financiero VARCHAR(255)
		)`, autoinc),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS IMPACTO_SOCIAL (
			id_impacto %s PRIMARY KEY,
			id_proyecto INT,
			beneficiarios_estimados FLOAT,
			impacto_principal VARCHAR(255),
			indicador_principal VARCHAR(255),
			avance_fisico FLOAT,
			kpi FLOAT
		)`, autoinc),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS EVALUACIONES (
			id_evaluacion %s PRIMARY KEY,
			id_proyecto INT,
			fecha_evaluacion DATE,
			score_costo_beneficio FLOAT,
			analisis_financiero TEXT,
			recomendaciones TEXT,
			comparativa TEXT
		)`, autoinc),
	}

	for _, q := range ddl {
		if _, err := u.db.Exec(q); err != nil {
			return fmt.Errorf("error al crear el esquema del warehouse: %w", err)
		}
	}

	return nil
}

// UploadRecord inserta un registro en las 4 tablas dentro de una sola
// transacción y devuelve el id_proyecto generado.
func (u *Uploader) UploadRecord(rec *models.ProyectoRecord) (int64, error) {
	tx, err := u.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("error al iniciar la transacción: %w", err)
	}

	idProyecto, err := u.insertAll(tx, rec)
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error al confirmar la transacción: %w", err)
	}

	return idProyecto, nil
}

func (u *Uploader) insertAll(tx *sql.Tx, rec *models.ProyectoRecord) (int64, error) {
	// 1. PROYECTOS
	_, err := tx.Exec(`
		INSERT INTO PROYECTOS
			(nombre, sector, dependencia, ubicacion, anio_inicio, anio_fin, doc_fuente, fecha_carga)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Nombre,
		rec.Sector,
		rec.Dependencia,
		rec.Ubicacion,
		rec.AnioInicio,
		rec.AnioFin,
		rec.DocFuente,
		rec.FechaCarga,
	)
	if err != nil {
		return 0, fmt.Errorf("error al insertar en PROYECTOS: %w", err)
	}

	// El id generado se recupera dentro de la misma transacción
	var idProyecto int64
	if err := tx.QueryRow("SELECT MAX(id_proyecto) FROM PROYECTOS").Scan(&idProyecto); err != nil {
		return 0, fmt.Errorf("error al obtener el id_proyecto generado: %w", err)
	}

	// 2. FINANZAS
	_, err = tx.Exec(`
		INSERT INTO FINANZAS
			(id_proyecto, fuente_financiamiento, presupuesto_total,
			 costo_operativo_mxn, costo_mantenimiento_mxn, costo_beneficio_estimado_mxn,
			 eficiencia_financiera, riesgo_financiero)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		idProyecto,
		nil,
		rec.PresupuestoTotalMXN,
		rec.CostoOperativoMXN,
		rec.CostoMantenimientoMXN,
		rec.CostoBeneficioEstimadoMXN,
		rec.EficienciaFinanciera,
		rec.RiesgoFinanciero,
	)
	if err != nil {
		return 0, fmt.Errorf("error al insertar en FINANZAS: %w", err)
	}

	// 3. IMPACTO_SOCIAL
	_, err = tx.Exec(`
		INSERT INTO IMPACTO_SOCIAL
			(id_proyecto, beneficiarios_estimados, impacto_principal,
			 indicador_principal, avance_fisico, kpi)
		VALUES (?, ?, ?, ?, ?, ?)`,
		idProyecto,
		rec.BeneficiariosEstimados,
		rec.ImpactoPrincipal,
		rec.IndicadorPrincipal,
		rec.ImpactoFisico,
		rec.KPI,
	)
	if err != nil {
		return 0, fmt.Errorf("error al insertar en IMPACTO_SOCIAL: %w", err)
	}

	// 4. EVALUACIONES
	_, err = tx.Exec(`
		INSERT INTO EVALUACIONES
			(id_proyecto, fecha_evaluacion, score_costo_beneficio,
			 analisis_financiero, recomendaciones, comparativa)
		VALUES (?, ?, ?, ?, ?, ?)`,
		idProyecto,
		rec.FechaCarga,
		rec.ScoreCostoBeneficio,
		rec.AnalisisFinanciero,
		rec.ResumenObservaciones,
		rec.Comparativo,
	)
	if err != nil {
		return 0, fmt.Errorf("error al insertar en EVALUACIONES: %w", err)
	}

	return idProyecto, nil
}
