package models

import "time"

// PipelineRunLog representa una entrada en el journal de ejecuciones del pipeline
type PipelineRunLog struct {
	ID                   int       `json:"id"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	Status               string    `json:"status"` // in_progress, success, failed
	DocumentosProcesados int       `json:"documentos_procesados"`
	DocumentosFallidos   int       `json:"documentos_fallidos"`
	RegistrosSubidos     int       `json:"registros_subidos"`
	ErrorMessage         string    `json:"error_message,omitempty"`
	ExecutionTimeSeconds float64   `json:"execution_time_seconds"`
}

// RunLogRepository define las operaciones sobre el journal de ejecuciones
type RunLogRepository interface {
	// CreateRunLogTable crea la tabla del journal si no existe
	CreateRunLogTable() error

	// CreateLogEntry registra el inicio de una ejecución y devuelve su ID
	CreateLogEntry(startTime time.Time) (int, error)

	// UpdateLogEntrySuccess marca la ejecución como exitosa
	UpdateLogEntrySuccess(id int, endTime time.Time, procesados, fallidos, subidos int) error

	// UpdateLogEntryFailure marca la ejecución como fallida
	UpdateLogEntryFailure(id int, endTime time.Time, errorMessage string) error

	// GetLastSuccessfulRun obtiene la última ejecución exitosa, o nil si no hay
	GetLastSuccessfulRun() (*PipelineRunLog, error)
}
