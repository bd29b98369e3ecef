package storage

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guyomx/smartcities-banorte/models"
	"github.com/guyomx/smartcities-banorte/pipeline/utils"
)

func newTestStorage(t *testing.T) *Storage {
	chdirTemp(t)
	require.NoError(t, os.MkdirAll("debug", 0o755))

	logger := utils.NewPipelineLogger(false)
	return NewStorage("procesados.json", "salida_limpia.json", "results.csv", "debug", logger)
}

func testRecord() *models.ProyectoRecord {
	rec := models.NewProyectoRecord("obra.pdf")
	rec.Nombre = models.Str("Ampliación Carretera Norte")
	rec.Sector = models.Str("Transporte")
	rec.AnioInicio = models.Int(2024)
	rec.AnioFin = models.Int(2026)
	rec.PresupuestoTotalMXN = models.Float(85000000)
	rec.BeneficiariosEstimados = models.Float(120000)
	rec.Validation = "OK"
	return rec
}

func TestProcesadosRoundtrip(t *testing.T) {
	s := newTestStorage(t)

	// Sin archivo: estado vacío
	assert.Empty(t, s.LoadProcesados())

	procesados := map[string]EstadoProcesado{
		"obra.pdf": MarcarProcesado("success", "", "OK"),
		"malo.pdf": MarcarProcesado("failed", "insufficient_text", ""),
	}
	require.NoError(t, s.SaveProcesados(procesados))

	loaded := s.LoadProcesados()
	require.Len(t, loaded, 2)
	assert.Equal(t, "success", loaded["obra.pdf"].Status)
	assert.Equal(t, "OK", loaded["obra.pdf"].Validation)
	assert.Equal(t, "insufficient_text", loaded["malo.pdf"].Reason)
	assert.NotEmpty(t, loaded["obra.pdf"].Timestamp)
}

func TestProcesadosCorrupto(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, os.WriteFile("procesados.json", []byte("{corrupto"), 0o644))
	assert.Empty(t, s.LoadProcesados())
}

func TestAppendRecordJSON(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.AppendRecordJSON(testRecord()))
	require.NoError(t, s.AppendRecordJSON(testRecord()))

	data, err := os.ReadFile("salida_limpia.json")
	require.NoError(t, err)

	var records []*models.ProyectoRecord
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Ampliación Carretera Norte", *records[0].Nombre)
}

func TestAppendRecordCSV(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.AppendRecordCSV(testRecord()))
	require.NoError(t, s.AppendRecordCSV(testRecord()))

	f, err := os.Open("results.csv")
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	// Encabezado una sola vez más dos registros
	require.Len(t, rows, 3)
	assert.Equal(t, []string{
		"nombre", "sector", "doc_fuente", "presupuesto_total_mxn",
		"anio_inicio", "anio_fin", "beneficiarios_estimados", "_validation",
	}, rows[0])
	assert.Equal(t, "Ampliación Carretera Norte", rows[1][0])
	assert.Equal(t, "85000000", rows[1][3])
	assert.Equal(t, "OK", rows[1][7])
}

func TestRawTextRoundtrip(t *testing.T) {
	s := newTestStorage(t)

	original := strings.Repeat("Texto del documento con datos repetidos. ", 200)
	require.NoError(t, s.ArchiveRawText("obra.pdf", original))

	recovered, err := s.ReadRawText("obra.pdf")
	require.NoError(t, err)
	assert.Equal(t, original, recovered)

	// El archivo comprimido debe ser menor que el texto original
	info, err := os.Stat("debug/obra.pdf.txt.snappy")
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(len(original)))
}

func TestWriteDebugArtifacts(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.WriteDebugRecord("obra.pdf", testRecord()))
	require.NoError(t, s.WriteDebugError("malo.pdf", map[string]string{"error": "llm_no_json"}))

	assert.FileExists(t, "debug/obra.pdf.json")
	assert.FileExists(t, "debug/malo.pdf.error.json")
}

// chdirTemp mirrors t.Chdir(t.TempDir()), which needs Go 1.24+.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
