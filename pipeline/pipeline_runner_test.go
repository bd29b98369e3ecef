package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guyomx/smartcities-banorte/config"
	"github.com/guyomx/smartcities-banorte/models"
	"github.com/guyomx/smartcities-banorte/pipeline/analyzer"
	"github.com/guyomx/smartcities-banorte/pipeline/intake"
	"github.com/guyomx/smartcities-banorte/pipeline/storage"
	"github.com/guyomx/smartcities-banorte/pipeline/utils"
)

// newTestRunner arma un runner sin warehouse ni Gemini: el análisis
// cae a la extracción heurística
func newTestRunner(t *testing.T) *PipelineRunner {
	chdirTemp(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NoError(t, cfg.EnsureDirectories())

	logger := utils.NewPipelineLogger(false)
	r := &PipelineRunner{cfg: cfg, logger: logger}
	r.intake = intake.NewIntake(cfg.Directorios.SampleDir, cfg.Directorios.DocsDir, cfg.Directorios.ManifestFile, logger)
	r.storage = storage.NewStorage(
		cfg.Directorios.ProcesadosFile,
		cfg.Directorios.OutputJSON,
		cfg.Directorios.OutputCSV,
		cfg.Directorios.DebugDir,
		logger,
	)
	r.analyzer = analyzer.NewAnalyzer(nil, logger)
	return r
}

func seedDocumento(t *testing.T, r *PipelineRunner, name string) {
	texto := strings.Repeat("Proyecto de agua potable en Monterrey con presupuesto de 15 millones de pesos. ", 5)
	path := filepath.Join(r.cfg.Directorios.SampleDir, name)
	require.NoError(t, os.WriteFile(path, []byte(texto), 0o644))
	require.NoError(t, r.intake.AddToManifest(name))
}

func TestExecutePipelineCiclosSimultaneosNoDuplican(t *testing.T) {
	r := newTestRunner(t)
	seedDocumento(t, r, "informe.txt")

	// El barrido y el watcher pueden coincidir: dos ciclos a la vez
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.ExecutePipeline(context.Background()))
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(r.cfg.Directorios.OutputJSON)
	require.NoError(t, err)

	var records []*models.ProyectoRecord
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, 1)

	procesados := r.storage.LoadProcesados()
	require.Len(t, procesados, 1)
	assert.Equal(t, "success", procesados["informe.txt"].Status)
}

func TestExecutePipelineNoReintentaFallidos(t *testing.T) {
	r := newTestRunner(t)
	seedDocumento(t, r, "roto.txt")

	procesados := map[string]storage.EstadoProcesado{
		"roto.txt": storage.MarcarProcesado("failed", "insufficient_text", ""),
	}
	require.NoError(t, r.storage.SaveProcesados(procesados))

	require.NoError(t, r.ExecutePipeline(context.Background()))

	// El documento fallido no se vuelve a procesar ni genera salida
	assert.NoFileExists(t, r.cfg.Directorios.OutputJSON)

	loaded := r.storage.LoadProcesados()
	require.Len(t, loaded, 1)
	assert.Equal(t, "failed", loaded["roto.txt"].Status)
	assert.Equal(t, "insufficient_text", loaded["roto.txt"].Reason)
}

// chdirTemp mirrors t.Chdir(t.TempDir()), which needs Go 1.24+.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
