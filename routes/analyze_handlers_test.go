package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guyomx/smartcities-banorte/analisis"
	"github.com/guyomx/smartcities-banorte/config"
	"github.com/guyomx/smartcities-banorte/pipeline/analyzer"
	"github.com/guyomx/smartcities-banorte/pipeline/utils"
	"github.com/guyomx/smartcities-banorte/websocket"
)

func newTestEnv(t *testing.T) (*analisis.Analizador, *websocket.Manager, *config.Config) {
	chdirTemp(t)
	require.NoError(t, os.MkdirAll("uploads", 0o755))

	cfg, err := config.Load()
	require.NoError(t, err)

	logger := utils.NewPipelineLogger(false)
	// Sin cliente de Gemini: suficiente para probar la validación de entrada
	an := analyzer.NewAnalyzer(nil, logger)
	analizador := analisis.NewAnalizador(an, cfg.Directorios.BestPromptFile, cfg.Directorios.DatasetFile, logger)

	wsManager := websocket.NewManager()
	go wsManager.Run()

	return analizador, wsManager, cfg
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestAnalyzeHandlerSinArchivo(t *testing.T) {
	analizador, wsManager, cfg := newTestEnv(t)
	handler := AnalyzeHandler(analizador, wsManager, cfg)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	handler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No se recibió archivo", decodeError(t, w))
}

func TestAnalyzeHandlerExtensionInvalida(t *testing.T) {
	analizador, wsManager, cfg := newTestEnv(t)
	handler := AnalyzeHandler(analizador, wsManager, cfg)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notas.docx")
	require.NoError(t, err)
	_, err = fw.Write([]byte("contenido"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	handler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Solo se aceptan archivos PDF", decodeError(t, w))
}

func TestAnalyzeHandlerPDFIlegible(t *testing.T) {
	analizador, wsManager, cfg := newTestEnv(t)
	handler := AnalyzeHandler(analizador, wsManager, cfg)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "roto.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("esto no es un PDF de verdad"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	handler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No se pudo extraer texto del PDF", decodeError(t, w))

	// El archivo temporal no debe quedar en uploads/
	entries, err := os.ReadDir(cfg.Directorios.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHealthHandler(t *testing.T) {
	analizador, _, _ := newTestEnv(t)
	handler := HealthHandler(analizador)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["dataset_size"])
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "proyecto_2024.pdf", sanitizeFilename("proyecto 2024.pdf"))
	assert.Equal(t, "malicioso.pdf", sanitizeFilename("../../malicioso.pdf"))
	assert.Equal(t, "obra-vial_v2.pdf", sanitizeFilename("obra-vial_v2.pdf"))
}

// chdirTemp mirrors t.Chdir(t.TempDir()), which needs Go 1.24+.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
