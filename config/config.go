package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DirectoriosConfig contiene las rutas de trabajo del pipeline
type DirectoriosConfig struct {
	SampleDir      string // sample_sources: aquí se depositan los PDFs nuevos
	DocsDir        string // docs: copia de trabajo de cada documento
	DebugDir       string // debug: artefactos por documento
	UploadDir      string // uploads del endpoint /api/analyze
	PublicDir      string // archivos estáticos del dashboard
	ProcesadosFile string
	OutputJSON     string
	OutputCSV      string
	ManifestFile   string
	BestPromptFile string
	DatasetFile    string
	TriggerFile    string
	MonitorState   string
	TrainerState   string
	IterationsDir  string
}

// GeminiConfig contiene la configuración del cliente de Gemini
type GeminiConfig struct {
	APIKey          string
	ModelCandidates []string
	MaxOutputTokens int
	Temperature     float64
	Timeout         time.Duration
}

// WarehouseConfig contiene los parámetros de conexión al warehouse.
// Driver puede ser "snowflake" (producción) o "mysql" (desarrollo local).
type WarehouseConfig struct {
	Driver    string
	Account   string
	User      string
	Password  string
	Host      string
	Port      int
	Warehouse string
	Database  string
	Schema    string
	Role      string
}

// PipelineConfig contiene los parámetros de ejecución del pipeline
type PipelineConfig struct {
	MonitoringInterval    time.Duration
	ContinuousMode        bool
	DryRun                bool
	UploadToWarehouse     bool
	EnableDetailedLogging bool
	MinTextChars          int
	MaxDocumentChars      int
	MinRetrainRecords     int
}

// Config agrupa toda la configuración del sistema
type Config struct {
	ServerAddr  string
	Directorios DirectoriosConfig
	Gemini      GeminiConfig
	Warehouse   WarehouseConfig
	Pipeline    PipelineConfig
}

// Load carga la configuración desde variables de entorno.
// Si existe un archivo .env se carga primero (no es obligatorio).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		Directorios: DirectoriosConfig{
			SampleDir:      getEnv("SAMPLE_DIR", "sample_sources"),
			DocsDir:        getEnv("DOCS_DIR", "docs"),
			DebugDir:       getEnv("DEBUG_DIR", "debug"),
			UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
			PublicDir:      getEnv("PUBLIC_DIR", "public"),
			ProcesadosFile: getEnv("PROCESADOS_FILE", "procesados.json"),
			OutputJSON:     getEnv("OUTPUT_JSON", "salida_limpia.json"),
			OutputCSV:      getEnv("OUTPUT_CSV", "results.csv"),
			ManifestFile:   getEnv("MANIFEST_FILE", "manifest.txt"),
			BestPromptFile: getEnv("BEST_PROMPT_FILE", "best_analysis_prompt.txt"),
			DatasetFile:    getEnv("DATASET_FILE", "training_dataset.json"),
			TriggerFile:    getEnv("TRIGGER_FILE", "retrain_trigger.flag"),
			MonitorState:   getEnv("MONITOR_STATE_FILE", "monitor_state.json"),
			TrainerState:   getEnv("TRAINER_STATE_FILE", "training_state.json"),
			IterationsDir:  getEnv("ITERATIONS_DIR", "prompt_iterations"),
		},
		Gemini: GeminiConfig{
			APIKey:          os.Getenv("GEMINI_API_KEY"),
			ModelCandidates: modelCandidates(),
			MaxOutputTokens: getEnvInt("GEMINI_MAX_OUTPUT_TOKENS", 8192),
			Temperature:     0.0,
			Timeout:         getEnvDuration("GEMINI_TIMEOUT", 90*time.Second),
		},
		Warehouse: WarehouseConfig{
			Driver:    getEnv("WAREHOUSE_DRIVER", "snowflake"),
			Account:   os.Getenv("SNOWFLAKE_ACCOUNT"),
			User:      os.Getenv("SNOWFLAKE_USER"),
			Password:  os.Getenv("SNOWFLAKE_PASSWORD"),
			Host:      getEnv("WAREHOUSE_HOST", "localhost"),
			Port:      getEnvInt("WAREHOUSE_PORT", 3306),
			Warehouse: getEnv("SNOWFLAKE_WAREHOUSE", "COMPUTE_WH"),
			Database:  getEnv("SNOWFLAKE_DATABASE", "BANORTE_AI_ANALYTICS"),
			Schema:    getEnv("SNOWFLAKE_SCHEMA", "PUBLIC"),
			Role:      getEnv("SNOWFLAKE_ROLE", "SYSADMIN"),
		},
		Pipeline: PipelineConfig{
			MonitoringInterval:    getEnvDuration("MONITORING_INTERVAL", 60*time.Second),
			ContinuousMode:        getEnvBool("CONTINUOUS_MODE", true),
			DryRun:                getEnvBool("DRY_RUN", false),
			UploadToWarehouse:     getEnvBool("UPLOAD_TO_WAREHOUSE", false),
			EnableDetailedLogging: getEnvBool("ENABLE_DETAILED_LOGGING", true),
			MinTextChars:          getEnvInt("MIN_TEXT_CHARS", 100),
			MaxDocumentChars:      getEnvInt("MAX_DOCUMENT_CHARS", 100000),
			MinRetrainRecords:     getEnvInt("MIN_RETRAIN_RECORDS", 1),
		},
	}

	return cfg, nil
}

// EnsureDirectories crea los directorios de trabajo si no existen
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Directorios.SampleDir,
		c.Directorios.DocsDir,
		c.Directorios.DebugDir,
		c.Directorios.UploadDir,
		c.Directorios.IterationsDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error al crear el directorio %s: %w", dir, err)
		}
	}

	return nil
}

// DebugPath devuelve la ruta de un artefacto de debug para un documento
func (c *Config) DebugPath(nombre string) string {
	return filepath.Join(c.Directorios.DebugDir, nombre)
}

// modelCandidates arma la cadena de modelos con fallback automático.
// GEMINI_MODEL (si está definido) va primero.
func modelCandidates() []string {
	candidates := []string{}
	if m := os.Getenv("GEMINI_MODEL"); m != "" {
		candidates = append(candidates, m)
	}
	candidates = append(candidates,
		"gemini-2.0-flash-exp",
		"gemini-1.5-flash",
		"gemini-1.5-pro",
	)

	// Quitamos duplicados conservando el orden
	seen := make(map[string]bool)
	unique := candidates[:0]
	for _, c := range candidates {
		if !seen[c] {
			seen[c] = true
			unique = append(unique, c)
		}
	}
	return unique
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := strings.ToLower(os.Getenv(key))
	if v == "" {
		return def
	}
	return v == "true" || v == "1" || v == "yes"
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	// Admitimos tanto duraciones de Go ("60s") como segundos planos ("60")
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
