package warehouse

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/guyomx/smartcities-banorte/pipeline/utils"
)

// MonitorState es el estado persistido del monitor entre ejecuciones
type MonitorState struct {
	LastIDProyecto    int    `json:"last_id_proyecto"`
	TotalRecords      int    `json:"total_records"`
	LastUpdate        string `json:"last_update"`
	RetrainsTriggered int    `json:"retrains_triggered"`
}

// RetrainTrigger es el contenido del archivo de señal que consume el
// entrenador de prompts.
type RetrainTrigger struct {
	NewRecords int    `json:"new_records"`
	Timestamp  string `json:"timestamp"`
}

// Monitor vigila el warehouse en busca de proyectos nuevos. Cuando
// detecta suficientes, exporta el dataset de entrenamiento y deja la
// señal de reentrenamiento para el entrenador.
type Monitor struct {
	reader            *Reader
	stateFile         string
	datasetFile       string
	triggerFile       string
	minRetrainRecords int
	logger            *utils.PipelineLogger
}

// NewMonitor crea un nuevo Monitor
func NewMonitor(reader *Reader, stateFile, datasetFile, triggerFile string, minRetrainRecords int, logger *utils.PipelineLogger) *Monitor {
	if minRetrainRecords < 1 {
		minRetrainRecords = 1
	}
	return &Monitor{
		reader:            reader,
		stateFile:         stateFile,
		datasetFile:       datasetFile,
		triggerFile:       triggerFile,
		minRetrainRecords: minRetrainRecords,
		logger:            logger,
	}
}

// LoadState carga el estado del monitor. Si no existe o está corrupto
// se parte de cero.
func (m *Monitor) LoadState() MonitorState {
	var state MonitorState

	data, err := os.ReadFile(m.stateFile)
	if err != nil {
		return state
	}

	if err := json.Unmarshal(data, &state); err != nil {
		m.logger.Error("Estado del monitor corrupto, se reinicia: %v", err)
		return MonitorState{}
	}

	return state
}

// SaveState persiste el estado del monitor
func (m *Monitor) SaveState(state MonitorState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("error al serializar el estado del monitor: %w", err)
	}

	if err := os.WriteFile(m.stateFile, data, 0o644); err != nil {
		return fmt.Errorf("error al guardar el estado del monitor: %w", err)
	}

	return nil
}

// CheckNewRecords compara el id máximo del warehouse con el último
// observado y devuelve cuántos proyectos nuevos hay.
func (m *Monitor) CheckNewRecords() (int, error) {
	state := m.LoadState()

	maxID, err := m.reader.MaxIDProyecto()
	if err != nil {
		return 0, err
	}

	nuevos := maxID - state.LastIDProyecto
	if nuevos < 0 {
		// El warehouse fue recreado: sincronizamos el estado
		m.logger.Info("⚠️ El id máximo retrocedió (%d → %d), se resincroniza el monitor", state.LastIDProyecto, maxID)
		state.LastIDProyecto = maxID
		if err := m.SaveState(state); err != nil {
			return 0, err
		}
		return 0, nil
	}

	return nuevos, nil
}

// CheckOnce ejecuta un ciclo de vigilancia: si hay suficientes
// proyectos nuevos exporta el dataset y deja la señal de
// reentrenamiento. Devuelve true si disparó un reentrenamiento.
func (m *Monitor) CheckOnce() (bool, error) {
	nuevos, err := m.CheckNewRecords()
	if err != nil {
		return false, err
	}

	if nuevos < m.minRetrainRecords {
		m.logger.Debug("[monitor] Sin cambios suficientes (%d nuevos, mínimo %d)", nuevos, m.minRetrainRecords)
		return false, nil
	}

	m.logger.Info("📊 Detectados %d proyecto(s) nuevo(s) en el warehouse", nuevos)

	total, err := m.reader.ExportDataset(m.datasetFile)
	if err != nil {
		return false, fmt.Errorf("error al exportar el dataset: %w", err)
	}

	if err := m.writeTrigger(nuevos); err != nil {
		return false, err
	}

	maxID, err := m.reader.MaxIDProyecto()
	if err != nil {
		return false, err
	}

	state := m.LoadState()
	state.LastIDProyecto = maxID
	state.TotalRecords = total
	state.LastUpdate = time.Now().Format(time.RFC3339)
	state.RetrainsTriggered++
	if err := m.SaveState(state); err != nil {
		return false, err
	}

	m.logger.Info("🚀 Señal de reentrenamiento emitida (%d reentrenamientos acumulados)", state.RetrainsTriggered)
	return true, nil
}

// Run vigila el warehouse de forma periódica hasta que el contexto se
// cancele.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	m.logger.Info("👁️ Monitor del warehouse iniciado (cada %s)", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Monitor del warehouse detenido")
			return
		case <-ticker.C:
			if _, err := m.CheckOnce(); err != nil {
				m.logger.Error("Error en el ciclo del monitor: %v", err)
			}
		}
	}
}

func (m *Monitor) writeTrigger(nuevos int) error {
	trigger := RetrainTrigger{
		NewRecords: nuevos,
		Timestamp:  time.Now().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(trigger, "", "  ")
	if err != nil {
		return fmt.Errorf("error al serializar la señal de reentrenamiento: %w", err)
	}

	if err := os.WriteFile(m.triggerFile, data, 0o644); err != nil {
		return fmt.Errorf("error al escribir la señal de reentrenamiento: %w", err)
	}

	return nil
}
