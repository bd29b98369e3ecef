package models

import (
	"database/sql"
	"fmt"
	"time"
)

// WarehouseRunLogRepository implementación de RunLogRepository sobre el warehouse
type WarehouseRunLogRepository struct {
	db     *sql.DB
	driver string
}

// NewWarehouseRunLogRepository crea un nuevo repositorio del journal de ejecuciones
func NewWarehouseRunLogRepository(db *sql.DB, driver string) *WarehouseRunLogRepository {
	return &WarehouseRunLogRepository{
		db:     db,
		driver: driver,
	}
}

// runLogTableDDL arma el DDL del journal.
// La columna autoincremental difiere entre drivers.
func runLogTableDDL(driver string) string {
	autoinc := "INTEGER AUTOINCREMENT"
	if driver == "mysql" {
		autoinc = "INT AUTO_INCREMENT"
	}

	return fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS PIPELINE_RUN_LOG (
		id %s PRIMARY KEY,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'in_progress',
		documentos_procesados INT DEFAULT 0,
		documentos_fallidos INT DEFAULT 0,
		registros_subidos INT DEFAULT 0,
		error_message TEXT,
		execution_time_seconds FLOAT
	)
	`, autoinc)
}

// CreateRunLogTable crea la tabla del journal del pipeline, si no existe
func (r *WarehouseRunLogRepository) CreateRunLogTable() error {
	_, err := r.db.Exec(runLogTableDDL(r.driver))
	if err != nil {
		return fmt.Errorf("error al crear la tabla PIPELINE_RUN_LOG: %w", err)
	}

	return nil
}

// CreateLogEntry crea una nueva entrada de ejecución del pipeline
func (r *WarehouseRunLogRepository) CreateLogEntry(startTime time.Time) (int, error) {
	query := `
	INSERT INTO PIPELINE_RUN_LOG (start_time, status)
	VALUES (?, 'in_progress')
	`

	if _, err := r.db.Exec(query, startTime); err != nil {
		return 0, fmt.Errorf("error al crear la entrada de ejecución: %w", err)
	}

	// El conector del warehouse no expone LastInsertId de forma fiable,
	// recuperamos el ID máximo dentro de la misma sesión.
	var id int
	err := r.db.QueryRow("SELECT MAX(id) FROM PIPELINE_RUN_LOG").Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error al obtener el ID de la entrada creada: %w", err)
	}

	return id, nil
}

// UpdateLogEntrySuccess actualiza la entrada al terminar con éxito
func (r *WarehouseRunLogRepository) UpdateLogEntrySuccess(id int, endTime time.Time, procesados, fallidos, subidos int) error {
	startTime, err := r.startTimeOf(id)
	if err != nil {
		return err
	}

	executionTime := endTime.Sub(startTime).Seconds()

	query := `
	UPDATE PIPELINE_RUN_LOG
	SET
		end_time = ?,
		status = 'success',
		documentos_procesados = ?,
		documentos_fallidos = ?,
		registros_subidos = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err = r.db.Exec(query, endTime, procesados, fallidos, subidos, executionTime, id)
	if err != nil {
		return fmt.Errorf("error al actualizar la entrada de ejecución: %w", err)
	}

	return nil
}

// UpdateLogEntryFailure actualiza la entrada al terminar con error
func (r *WarehouseRunLogRepository) UpdateLogEntryFailure(id int, endTime time.Time, errorMessage string) error {
	startTime, err := r.startTimeOf(id)
	if err != nil {
		return err
	}

	executionTime := endTime.Sub(startTime).Seconds()

	query := `
	UPDATE PIPELINE_RUN_LOG
	SET
		end_time = ?,
		status = 'failed',
		error_message = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err = r.db.Exec(query, endTime, errorMessage, executionTime, id)
	if err != nil {
		return fmt.Errorf("error al actualizar la entrada de ejecución: %w", err)
	}

	return nil
}

// GetLastSuccessfulRun obtiene la última ejecución exitosa del pipeline
func (r *WarehouseRunLogRepository) GetLastSuccessfulRun() (*PipelineRunLog, error) {
	query := `
	SELECT
		id, start_time, end_time, status,
		documentos_procesados, documentos_fallidos, registros_subidos,
		IFNULL(error_message, ''), execution_time_seconds
	FROM PIPELINE_RUN_LOG
	WHERE status = 'success'
	ORDER BY end_time DESC
	LIMIT 1
	`

	var log PipelineRunLog
	err := r.db.QueryRow(query).Scan(
		&log.ID, &log.StartTime, &log.EndTime, &log.Status,
		&log.DocumentosProcesados, &log.DocumentosFallidos, &log.RegistrosSubidos,
		&log.ErrorMessage, &log.ExecutionTimeSeconds,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error al obtener la última ejecución exitosa: %w", err)
	}

	return &log, nil
}

func (r *WarehouseRunLogRepository) startTimeOf(id int) (time.Time, error) {
	var startTime time.Time
	err := r.db.QueryRow("SELECT start_time FROM PIPELINE_RUN_LOG WHERE id = ?", id).Scan(&startTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("error al obtener el inicio de la ejecución %d: %w", id, err)
	}
	return startTime, nil
}
