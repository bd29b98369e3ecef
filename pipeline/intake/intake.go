// Package intake administra la llegada de documentos: el manifest de
// archivos registrados y la copia atómica de sample_sources/ a docs/.
package intake

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/guyomx/smartcities-banorte/pipeline/utils"
)

// Intake coordina el descubrimiento y la "descarga" de documentos nuevos
type Intake struct {
	sampleDir    string
	docsDir      string
	manifestFile string
	logger       *utils.PipelineLogger
}

// NewIntake crea un nuevo Intake
func NewIntake(sampleDir, docsDir, manifestFile string, logger *utils.PipelineLogger) *Intake {
	return &Intake{
		sampleDir:    sampleDir,
		docsDir:      docsDir,
		manifestFile: manifestFile,
		logger:       logger,
	}
}

// ManifestEntries lee el manifest y devuelve el conjunto de archivos
// ya registrados. Si el manifest no existe devuelve un conjunto vacío.
func (i *Intake) ManifestEntries() (map[string]struct{}, error) {
	entries := make(map[string]struct{})

	f, err := os.Open(i.manifestFile)
	if err != nil {
		if os.IsNotExist(err) {
			return entries, nil
		}
		return nil, fmt.Errorf("error al leer el manifest: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			entries[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error al recorrer el manifest: %w", err)
	}

	return entries, nil
}

// AddToManifest registra un archivo en el manifest si no estaba ya
func (i *Intake) AddToManifest(filename string) error {
	entries, err := i.ManifestEntries()
	if err != nil {
		return err
	}
	if _, ok := entries[filename]; ok {
		return nil // ya estaba registrado
	}

	f, err := os.OpenFile(i.manifestFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("error al abrir el manifest: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, filename); err != nil {
		return fmt.Errorf("error al registrar %s en el manifest: %w", filename, err)
	}

	i.logger.Debug("[manifest] Añadido: %s", filename)
	return nil
}

// DiscoverNewFiles escanea sample_sources/ y devuelve los PDFs que
// todavía no están en el manifest.
func (i *Intake) DiscoverNewFiles() ([]string, error) {
	entries, err := i.ManifestEntries()
	if err != nil {
		return nil, err
	}

	matches, err := filepath.Glob(filepath.Join(i.sampleDir, "*.pdf"))
	if err != nil {
		return nil, fmt.Errorf("error al escanear %s: %w", i.sampleDir, err)
	}

	var nuevos []string
	for _, m := range matches {
		name := filepath.Base(m)
		if _, ok := entries[name]; !ok {
			nuevos = append(nuevos, name)
		}
	}

	return nuevos, nil
}

// SimulateDownload copia un archivo de sample_sources/ a docs/ de forma
// atómica (archivo temporal + rename) y opcionalmente lo registra en el
// manifest. Devuelve la ruta destino.
func (i *Intake) SimulateDownload(filename string, updateManifest bool) (string, error) {
	src := filepath.Join(i.sampleDir, filename)
	dst := filepath.Join(i.docsDir, filename)
	tmp := dst + ".tmp"

	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("la fuente no existe: %s", src)
	}

	if err := copyFile(src, tmp); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("error al copiar %s: %w", filename, err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("error al mover %s a su destino: %w", filename, err)
	}

	i.logger.Debug("[download] %s → %s", filename, i.docsDir)

	if updateManifest {
		if err := i.AddToManifest(filename); err != nil {
			return "", err
		}
	}

	return dst, nil
}

// CheckAndDownloadNewFiles busca archivos nuevos en sample_sources/,
// los descarga y actualiza el manifest. Devuelve las rutas descargadas.
func (i *Intake) CheckAndDownloadNewFiles() ([]string, error) {
	nuevos, err := i.DiscoverNewFiles()
	if err != nil {
		return nil, err
	}
	if len(nuevos) == 0 {
		return nil, nil
	}

	i.logger.Info("🆕 Detectados %d archivo(s) nuevo(s) en %s", len(nuevos), i.sampleDir)

	var descargados []string
	for _, name := range nuevos {
		path, err := i.SimulateDownload(name, true)
		if err != nil {
			i.logger.Error("Error al descargar %s: %v", name, err)
			continue
		}
		descargados = append(descargados, path)
		time.Sleep(200 * time.Millisecond)
	}

	return descargados, nil
}

// DownloadBacklog copia a docs/ todos los archivos que ya figuran en el
// manifest (procesamiento inicial de archivos existentes).
func (i *Intake) DownloadBacklog() ([]string, error) {
	entries, err := i.ManifestEntries()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		i.logger.Info("[download] Manifest vacío, nada que procesar")
		return nil, nil
	}

	i.logger.Info("[download] Procesando %d archivo(s) del manifest...", len(entries))

	var copiados []string
	for filename := range entries {
		dst := filepath.Join(i.docsDir, filename)

		// Si ya existe en docs/ no copiamos de nuevo
		if _, err := os.Stat(dst); err == nil {
			copiados = append(copiados, dst)
			continue
		}

		src := filepath.Join(i.sampleDir, filename)
		if _, err := os.Stat(src); err != nil {
			continue
		}

		path, err := i.SimulateDownload(filename, false)
		if err != nil {
			i.logger.Error("Error al copiar %s: %v", filename, err)
			continue
		}
		copiados = append(copiados, path)
		time.Sleep(100 * time.Millisecond)
	}

	return copiados, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
