package utils

import (
	"fmt"
	"log"
	"os"
	"time"
)

// PipelineLogger representa el logger del pipeline de documentos
type PipelineLogger struct {
	infoLogger  *log.Logger
	errorLogger *log.Logger
	debugLogger *log.Logger
	isVerbose   bool
}

// NewPipelineLogger crea un nuevo logger para el pipeline
func NewPipelineLogger(verbose bool) *PipelineLogger {
	// Creamos o abrimos el archivo de log del día
	currentTime := time.Now().Format("2006-01-02")
	logFileName := fmt.Sprintf("pipeline_log_%s.log", currentTime)

	file, err := os.OpenFile(logFileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("No se pudo abrir o crear el archivo de log: %v", err)
	}

	// Inicializamos los loggers por nivel
	infoLogger := log.New(file, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	errorLogger := log.New(file, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	debugLogger := log.New(file, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)

	return &PipelineLogger{
		infoLogger:  infoLogger,
		errorLogger: errorLogger,
		debugLogger: debugLogger,
		isVerbose:   verbose,
	}
}

// Info registra un mensaje informativo
func (l *PipelineLogger) Info(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.infoLogger.Println(msg)

	// También lo mandamos a la salida estándar
	log.Println("INFO:", msg)
}

// Error registra un mensaje de error
func (l *PipelineLogger) Error(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.errorLogger.Println(msg)

	// También lo mandamos a la salida estándar
	log.Println("ERROR:", msg)
}

// Debug registra un mensaje de depuración (solo en modo verbose)
func (l *PipelineLogger) Debug(format string, v ...interface{}) {
	if !l.isVerbose {
		return
	}

	msg := fmt.Sprintf(format, v...)
	l.debugLogger.Println(msg)

	// También lo mandamos a la salida estándar
	log.Println("DEBUG:", msg)
}

// LogPipelineStart registra el inicio de una ejecución del pipeline
func (l *PipelineLogger) LogPipelineStart() {
	l.Info("Inicio de la ejecución del pipeline de documentos")
}

// LogPipelineComplete registra el fin de una ejecución del pipeline
func (l *PipelineLogger) LogPipelineComplete(startTime time.Time, procesados, fallidos, subidos int) {
	duration := time.Since(startTime)
	l.Info("Pipeline completado. Duración: %v", duration)
	l.Info("Procesados: %d documentos (%d fallidos, %d subidos al warehouse)", procesados, fallidos, subidos)
}

// LogDocumentStart registra el inicio del procesamiento de un documento
func (l *PipelineLogger) LogDocumentStart(nombre string) {
	l.Info("📄 Procesando: %s", nombre)
}

// LogDocumentComplete registra el fin del procesamiento de un documento
func (l *PipelineLogger) LogDocumentComplete(nombre, validacion string, duration time.Duration) {
	l.Info("✓ Completado: %s | Validación: %s | Duración: %v", nombre, validacion, duration)
}

// LogCycle registra el inicio de un ciclo de monitoreo
func (l *PipelineLogger) LogCycle(numero int) {
	l.Info("🔄 Ciclo #%d - Verificando archivos nuevos...", numero)
}
