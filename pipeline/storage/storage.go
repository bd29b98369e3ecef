// Package storage persiste los resultados del pipeline: el estado de
// documentos procesados, las salidas JSON/CSV y los artefactos de debug.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/golang/snappy"

	"github.com/guyomx/smartcities-banorte/models"
	"github.com/guyomx/smartcities-banorte/pipeline/utils"
)

// EstadoProcesado es la entrada por documento en procesados.json
type EstadoProcesado struct {
	Status     string `json:"status"` // success, failed, error
	Reason     string `json:"reason,omitempty"`
	Timestamp  string `json:"timestamp"`
	Validation string `json:"validation,omitempty"`
}

// Storage administra los archivos de salida del pipeline
type Storage struct {
	procesadosFile string
	outputJSON     string
	outputCSV      string
	debugDir       string
	logger         *utils.PipelineLogger
}

// NewStorage crea un nuevo Storage
func NewStorage(procesadosFile, outputJSON, outputCSV, debugDir string, logger *utils.PipelineLogger) *Storage {
	return &Storage{
		procesadosFile: procesadosFile,
		outputJSON:     outputJSON,
		outputCSV:      outputCSV,
		debugDir:       debugDir,
		logger:         logger,
	}
}

// MarcarProcesado construye una entrada de estado con la hora actual
func MarcarProcesado(status, reason, validation string) EstadoProcesado {
	return EstadoProcesado{
		Status:     status,
		Reason:     reason,
		Timestamp:  time.Now().Format(time.RFC3339),
		Validation: validation,
	}
}

// LoadProcesados carga el estado de documentos procesados.
// Un archivo inexistente o corrupto se trata como estado vacío.
func (s *Storage) LoadProcesados() map[string]EstadoProcesado {
	procesados := make(map[string]EstadoProcesado)

	data, err := os.ReadFile(s.procesadosFile)
	if err != nil {
		return procesados
	}

	if err := json.Unmarshal(data, &procesados); err != nil {
		s.logger.Error("Estado de procesados corrupto, se reinicia: %v", err)
		return make(map[string]EstadoProcesado)
	}

	return procesados
}

// SaveProcesados guarda el estado de documentos procesados
func (s *Storage) SaveProcesados(procesados map[string]EstadoProcesado) error {
	data, err := json.MarshalIndent(procesados, "", "  ")
	if err != nil {
		return fmt.Errorf("error al serializar el estado de procesados: %w", err)
	}

	if err := os.WriteFile(s.procesadosFile, data, 0o644); err != nil {
		return fmt.Errorf("error al guardar el estado de procesados: %w", err)
	}

	return nil
}

// AppendRecordJSON agrega un registro al arreglo de salida_limpia.json
func (s *Storage) AppendRecordJSON(rec *models.ProyectoRecord) error {
	var existing []*models.ProyectoRecord

	if data, err := os.ReadFile(s.outputJSON); err == nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			s.logger.Error("Salida JSON corrupta, se reinicia: %v", err)
			existing = nil
		}
	}

	existing = append(existing, rec)

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("error al serializar los registros: %w", err)
	}

	if err := os.WriteFile(s.outputJSON, data, 0o644); err != nil {
		return fmt.Errorf("error al guardar %s: %w", s.outputJSON, err)
	}

	return nil
}

// AppendRecordCSV agrega el resumen de un registro a results.csv.
// El encabezado se escribe solo al crear el archivo.
func (s *Storage) AppendRecordCSV(rec *models.ProyectoRecord) error {
	_, statErr := os.Stat(s.outputCSV)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.outputCSV, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("error al abrir %s: %w", s.outputCSV, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if writeHeader {
		header := []string{
			"nombre", "sector", "doc_fuente", "presupuesto_total_mxn",
			"anio_inicio", "anio_fin", "beneficiarios_estimados", "_validation",
		}
		if err := w.Write(header); err != nil {
			return fmt.Errorf("error al escribir el encabezado CSV: %w", err)
		}
	}

	row := []string{
		models.StrOr(rec.Nombre, ""),
		models.StrOr(rec.Sector, ""),
		models.StrOr(rec.DocFuente, ""),
		floatToCSV(rec.PresupuestoTotalMXN),
		intToCSV(rec.AnioInicio),
		intToCSV(rec.AnioFin),
		floatToCSV(rec.BeneficiariosEstimados),
		rec.Validation,
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("error al escribir el registro CSV: %w", err)
	}

	w.Flush()
	return w.Error()
}

// WriteDebugRecord guarda el JSON de un registro en el directorio de debug
func (s *Storage) WriteDebugRecord(docName string, v interface{}) error {
	return s.writeDebugJSON(docName+".json", v)
}

// WriteDebugError guarda el detalle de una falla de análisis
func (s *Storage) WriteDebugError(docName string, v interface{}) error {
	return s.writeDebugJSON(docName+".error.json", v)
}

func (s *Storage) writeDebugJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error al serializar el artefacto de debug %s: %w", name, err)
	}

	path := filepath.Join(s.debugDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error al guardar el artefacto de debug %s: %w", name, err)
	}

	return nil
}

// ArchiveRawText archiva el texto extraído comprimido con snappy, junto a
// los demás artefactos de debug del documento.
func (s *Storage) ArchiveRawText(docName, text string) error {
	compressed := snappy.Encode(nil, []byte(text))

	path := filepath.Join(s.debugDir, docName+".txt.snappy")
	if err := os.WriteFile(path, compressed, 0o644); err != nil {
		return fmt.Errorf("error al archivar el texto de %s: %w", docName, err)
	}

	return nil
}

// ReadRawText recupera el texto archivado de un documento
func (s *Storage) ReadRawText(docName string) (string, error) {
	path := filepath.Join(s.debugDir, docName+".txt.snappy")

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("error al leer el archivo de texto de %s: %w", docName, err)
	}

	decoded, err := snappy.Decode(nil, data)
	if err != nil {
		return "", fmt.Errorf("error al descomprimir el texto de %s: %w", docName, err)
	}

	return string(decoded), nil
}

func floatToCSV(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func intToCSV(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
