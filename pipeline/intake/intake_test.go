package intake

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guyomx/smartcities-banorte/pipeline/utils"
)

func newTestIntake(t *testing.T) *Intake {
	chdirTemp(t)
	require.NoError(t, os.MkdirAll("sample_sources", 0o755))
	require.NoError(t, os.MkdirAll("docs", 0o755))

	logger := utils.NewPipelineLogger(false)
	return NewIntake("sample_sources", "docs", "manifest.txt", logger)
}

func TestManifestEntriesSinArchivo(t *testing.T) {
	i := newTestIntake(t)

	entries, err := i.ManifestEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAddToManifestDedupe(t *testing.T) {
	i := newTestIntake(t)

	require.NoError(t, i.AddToManifest("a.pdf"))
	require.NoError(t, i.AddToManifest("b.pdf"))
	require.NoError(t, i.AddToManifest("a.pdf")) // duplicado

	entries, err := i.ManifestEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Contains(t, entries, "a.pdf")
	assert.Contains(t, entries, "b.pdf")
}

func TestDiscoverNewFiles(t *testing.T) {
	i := newTestIntake(t)

	require.NoError(t, os.WriteFile(filepath.Join("sample_sources", "nuevo.pdf"), []byte("pdf"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join("sample_sources", "registrado.pdf"), []byte("pdf"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join("sample_sources", "notas.txt"), []byte("txt"), 0o644))
	require.NoError(t, i.AddToManifest("registrado.pdf"))

	nuevos, err := i.DiscoverNewFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"nuevo.pdf"}, nuevos)
}

func TestSimulateDownload(t *testing.T) {
	i := newTestIntake(t)

	require.NoError(t, os.WriteFile(filepath.Join("sample_sources", "obra.pdf"), []byte("contenido"), 0o644))

	dst, err := i.SimulateDownload("obra.pdf", true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("docs", "obra.pdf"), dst)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "contenido", string(data))

	// No debe quedar el archivo temporal de la copia atómica
	_, err = os.Stat(dst + ".tmp")
	assert.True(t, os.IsNotExist(err))

	entries, err := i.ManifestEntries()
	require.NoError(t, err)
	assert.Contains(t, entries, "obra.pdf")
}

func TestSimulateDownloadFuenteInexistente(t *testing.T) {
	i := newTestIntake(t)

	_, err := i.SimulateDownload("fantasma.pdf", false)
	assert.Error(t, err)
}

func TestCheckAndDownloadNewFiles(t *testing.T) {
	i := newTestIntake(t)

	require.NoError(t, os.WriteFile(filepath.Join("sample_sources", "uno.pdf"), []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join("sample_sources", "dos.pdf"), []byte("2"), 0o644))

	descargados, err := i.CheckAndDownloadNewFiles()
	require.NoError(t, err)
	assert.Len(t, descargados, 2)

	// Una segunda pasada no encuentra nada nuevo
	descargados, err = i.CheckAndDownloadNewFiles()
	require.NoError(t, err)
	assert.Empty(t, descargados)
}

// chdirTemp mirrors t.Chdir(t.TempDir()), which needs Go 1.24+.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
