package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/guyomx/smartcities-banorte/config"
	"github.com/guyomx/smartcities-banorte/models"
	"github.com/guyomx/smartcities-banorte/pipeline/analyzer"
	"github.com/guyomx/smartcities-banorte/pipeline/cleaner"
	"github.com/guyomx/smartcities-banorte/pipeline/extractors"
	"github.com/guyomx/smartcities-banorte/pipeline/intake"
	"github.com/guyomx/smartcities-banorte/pipeline/storage"
	"github.com/guyomx/smartcities-banorte/pipeline/utils"
	"github.com/guyomx/smartcities-banorte/pipeline/warehouse"
)

// PipelineRunner orquesta el ciclo completo: intake → extracción →
// análisis → limpieza → validación → persistencia → warehouse.
type PipelineRunner struct {
	cfg        *config.Config
	logger     *utils.PipelineLogger
	runMu      sync.Mutex
	db         *sql.DB
	intake     *intake.Intake
	storage    *storage.Storage
	analyzer   *analyzer.Analyzer
	uploader   *warehouse.Uploader
	monitor    *warehouse.Monitor
	runLogRepo models.RunLogRepository
}

// NewPipelineRunner crea un nuevo PipelineRunner
func NewPipelineRunner() (*PipelineRunner, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("error al cargar la configuración: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	logger := utils.NewPipelineLogger(cfg.Pipeline.EnableDetailedLogging)
	logger.Info("Inicializando Pipeline Runner")

	r := &PipelineRunner{
		cfg:    cfg,
		logger: logger,
	}

	r.intake = intake.NewIntake(cfg.Directorios.SampleDir, cfg.Directorios.DocsDir, cfg.Directorios.ManifestFile, logger)
	r.storage = storage.NewStorage(
		cfg.Directorios.ProcesadosFile,
		cfg.Directorios.OutputJSON,
		cfg.Directorios.OutputCSV,
		cfg.Directorios.DebugDir,
		logger,
	)

	// Cliente de Gemini: si no hay API key seguimos con la heurística
	client, err := analyzer.NewGeminiClient(cfg.Gemini, logger)
	if err != nil {
		logger.Info("⚠️ Gemini no disponible (%v), se usará extracción heurística", err)
		client = nil
	}
	r.analyzer = analyzer.NewAnalyzer(client, logger)

	// Warehouse: solo se conecta si la carga está habilitada
	if cfg.Pipeline.UploadToWarehouse {
		db, err := config.ConnectWarehouse(cfg.Warehouse)
		if err != nil {
			return nil, fmt.Errorf("error al conectar al warehouse: %w", err)
		}
		r.db = db

		r.uploader = warehouse.NewUploader(db, cfg.Warehouse.Driver, logger)
		if err := r.uploader.EnsureTables(); err != nil {
			config.CloseWarehouse(db)
			return nil, err
		}

		r.runLogRepo = models.NewWarehouseRunLogRepository(db, cfg.Warehouse.Driver)
		if err := r.runLogRepo.CreateRunLogTable(); err != nil {
			config.CloseWarehouse(db)
			return nil, fmt.Errorf("error al crear la tabla del journal: %w", err)
		}

		reader := warehouse.NewReader(db, logger)
		r.monitor = warehouse.NewMonitor(
			reader,
			cfg.Directorios.MonitorState,
			cfg.Directorios.DatasetFile,
			cfg.Directorios.TriggerFile,
			cfg.Pipeline.MinRetrainRecords,
			logger,
		)
	}

	return r, nil
}

// Close libera las conexiones del runner
func (r *PipelineRunner) Close() {
	r.logger.Info("Finalizando Pipeline Runner")
	if r.db != nil {
		config.CloseWarehouse(r.db)
	}
}

// ProcessDocument procesa un solo documento de docs/.
// Devuelve true si el registro fue subido al warehouse.
func (r *PipelineRunner) ProcessDocument(ctx context.Context, path string) (bool, error) {
	name := filepath.Base(path)
	start := time.Now()
	r.logger.LogDocumentStart(name)

	text, err := extractors.ExtractText(path)
	if err != nil || len(text) < r.cfg.Pipeline.MinTextChars {
		procesados := r.storage.LoadProcesados()
		procesados[name] = storage.MarcarProcesado("failed", "insufficient_text", "")
		if saveErr := r.storage.SaveProcesados(procesados); saveErr != nil {
			r.logger.Error("Error al guardar el estado: %v", saveErr)
		}
		if err != nil {
			return false, fmt.Errorf("error al extraer texto de %s: %w", name, err)
		}
		return false, fmt.Errorf("texto insuficiente en %s (%d caracteres)", name, len(text))
	}

	text = extractors.TruncateSmart(text, r.cfg.Pipeline.MaxDocumentChars)

	// Análisis con el modelo; ante cualquier falla cae a la heurística
	var rec *models.ProyectoRecord
	raw, err := r.analyzer.AnalyzeDocument(ctx, text, name)
	if err != nil {
		r.logger.Error("Análisis con el modelo falló para %s: %v", name, err)
		if werr := r.storage.WriteDebugError(name, map[string]string{
			"error":     err.Error(),
			"documento": name,
			"timestamp": time.Now().Format(time.RFC3339),
		}); werr != nil {
			r.logger.Error("Error al guardar el detalle de la falla: %v", werr)
		}
		rec = analyzer.HeuristicExtraction(text, name)
	} else {
		rec = cleaner.Normalize(raw)
	}

	// El origen y la fecha de carga siempre los fija el pipeline
	rec.DocFuente = models.Str(name)
	if rec.FechaCarga == nil {
		rec.FechaCarga = models.Str(time.Now().Format("2006-01-02"))
	}

	cleaner.Validate(rec)

	if err := r.storage.WriteDebugRecord(name, rec); err != nil {
		r.logger.Error("Error al guardar el artefacto de debug: %v", err)
	}
	if err := r.storage.ArchiveRawText(name, text); err != nil {
		r.logger.Error("Error al archivar el texto extraído: %v", err)
	}

	subido := false
	if rec.Validado() && r.uploader != nil {
		if r.cfg.Pipeline.DryRun {
			r.logger.Info("[dry-run] Se omite la carga de %s al warehouse", name)
		} else {
			idProyecto, err := r.uploader.UploadRecord(rec)
			if err != nil {
				r.logger.Error("Error al subir %s al warehouse: %v", name, err)
			} else {
				r.logger.Info("📤 %s subido al warehouse (id_proyecto=%d)", name, idProyecto)
				subido = true
			}
		}
	}

	if !r.cfg.Pipeline.DryRun {
		if err := r.storage.AppendRecordJSON(rec); err != nil {
			r.logger.Error("Error al agregar el registro JSON: %v", err)
		}
		if err := r.storage.AppendRecordCSV(rec); err != nil {
			r.logger.Error("Error al agregar el registro CSV: %v", err)
		}
	}

	procesados := r.storage.LoadProcesados()
	procesados[name] = storage.MarcarProcesado("success", "", rec.Validation)
	if err := r.storage.SaveProcesados(procesados); err != nil {
		r.logger.Error("Error al guardar el estado: %v", err)
	}

	r.logger.LogDocumentComplete(name, rec.Validation, time.Since(start))
	return subido, nil
}

// ExecutePipeline ejecuta un ciclo completo del pipeline.
// El barrido de gocron y el watcher pueden disparar ciclos a la vez,
// por lo que solo corre uno en cada momento.
func (r *PipelineRunner) ExecutePipeline(ctx context.Context) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	r.logger.LogPipelineStart()
	startTime := time.Now()

	// Entrada en el journal de ejecuciones (solo con warehouse activo)
	var logID int
	if r.runLogRepo != nil {
		id, err := r.runLogRepo.CreateLogEntry(startTime)
		if err != nil {
			r.logger.Error("Error al registrar la ejecución en el journal: %v", err)
		} else {
			logID = id
		}
	}

	// 1. Intake: archivos nuevos en sample_sources/ y backlog del manifest
	pendientes := make(map[string]string)

	backlog, err := r.intake.DownloadBacklog()
	if err != nil {
		r.journalFailure(logID, startTime, err)
		return fmt.Errorf("error en la fase de backlog: %w", err)
	}
	for _, p := range backlog {
		pendientes[filepath.Base(p)] = p
	}

	nuevos, err := r.intake.CheckAndDownloadNewFiles()
	if err != nil {
		r.journalFailure(logID, startTime, err)
		return fmt.Errorf("error en la fase de intake: %w", err)
	}
	for _, p := range nuevos {
		pendientes[filepath.Base(p)] = p
	}

	// 2. Procesamiento de cada documento pendiente
	procesadosEstado := r.storage.LoadProcesados()
	var procesados, fallidos, subidos int

	for name, path := range pendientes {
		// Un documento ya registrado no se reintenta, ni siquiera si falló
		if _, ok := procesadosEstado[name]; ok {
			continue
		}

		select {
		case <-ctx.Done():
			r.journalFailure(logID, startTime, ctx.Err())
			return ctx.Err()
		default:
		}

		subido, err := r.ProcessDocument(ctx, path)
		if err != nil {
			r.logger.Error("Documento %s falló: %v", name, err)
			fallidos++
			continue
		}
		procesados++
		if subido {
			subidos++
		}
	}

	// 3. Cierre del journal y del ciclo
	if r.runLogRepo != nil && logID > 0 {
		if err := r.runLogRepo.UpdateLogEntrySuccess(logID, time.Now(), procesados, fallidos, subidos); err != nil {
			r.logger.Error("Error al actualizar el journal: %v", err)
		}
	}

	r.logger.LogPipelineComplete(startTime, procesados, fallidos, subidos)
	return nil
}

func (r *PipelineRunner) journalFailure(logID int, startTime time.Time, cause error) {
	if r.runLogRepo == nil || logID == 0 {
		return
	}
	if err := r.runLogRepo.UpdateLogEntryFailure(logID, time.Now(), cause.Error()); err != nil {
		r.logger.Error("Error al actualizar el journal: %v", err)
	}
}

// StartScheduler ejecuta el pipeline de forma continua: un barrido
// periódico con gocron más ciclos inmediatos disparados por el watcher
// de sample_sources/.
func (r *PipelineRunner) StartScheduler(ctx context.Context) {
	scheduler := gocron.NewScheduler(time.UTC)

	r.logger.Info("Iniciando planificador del pipeline (cada %v)", r.cfg.Pipeline.MonitoringInterval)

	ciclo := 0
	_, err := scheduler.Every(r.cfg.Pipeline.MonitoringInterval).Do(func() {
		ciclo++
		r.logger.LogCycle(ciclo)
		if err := r.ExecutePipeline(ctx); err != nil {
			r.logger.Error("Error en el ciclo planificado: %v", err)
		}
	})
	if err != nil {
		r.logger.Error("Error al configurar el planificador: %v", err)
		return
	}

	scheduler.StartAsync()

	// Watcher de sample_sources/: acelera la detección entre barridos
	watcher, err := intake.NewWatcher(r.cfg.Directorios.SampleDir, r.logger)
	if err != nil {
		r.logger.Error("No se pudo iniciar el watcher: %v", err)
	} else {
		defer watcher.Close()
		go watcher.Run(ctx)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case name := <-watcher.Events:
					r.logger.Info("⚡ Documento detectado por el watcher: %s", name)
					if err := r.ExecutePipeline(ctx); err != nil {
						r.logger.Error("Error en el ciclo disparado por el watcher: %v", err)
					}
				}
			}
		}()
	}

	// Monitor del warehouse: exporta el dataset y dispara reentrenamientos
	if r.monitor != nil {
		go r.monitor.Run(ctx, r.cfg.Pipeline.MonitoringInterval)
	}

	<-ctx.Done()

	scheduler.Stop()
	r.logger.Info("Planificador del pipeline detenido")
}

// RunOnce ejecuta el pipeline una sola vez
func RunOnce() {
	runner, err := NewPipelineRunner()
	if err != nil {
		log.Fatalf("Error al crear el Pipeline Runner: %v", err)
	}
	defer runner.Close()

	if err := runner.ExecutePipeline(context.Background()); err != nil {
		log.Fatalf("Error al ejecutar el pipeline: %v", err)
	}
}

// RunScheduled ejecuta el pipeline en modo continuo
func RunScheduled() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signalCh
		log.Println("Señal de terminación recibida. Deteniendo el Pipeline Runner...")
		cancel()
	}()

	runner, err := NewPipelineRunner()
	if err != nil {
		log.Fatalf("Error al crear el Pipeline Runner: %v", err)
	}
	defer runner.Close()

	// Primer ciclo inmediato antes de entrar al planificador
	if err := runner.ExecutePipeline(ctx); err != nil {
		runner.logger.Error("Error en el ciclo inicial: %v", err)
	}

	runner.StartScheduler(ctx)
}

func main() {
	modePtr := flag.String("mode", "scheduled", "Modo de ejecución: scheduled o once")
	flag.Parse()

	log.Println("Iniciando Pipeline Runner en modo:", *modePtr)

	switch *modePtr {
	case "once":
		RunOnce()
	case "scheduled":
		RunScheduled()
	default:
		log.Println("Modo desconocido:", *modePtr)
		log.Println("Modos disponibles: scheduled, once")
		os.Exit(1)
	}

	log.Println("Pipeline Runner finalizado")
}
