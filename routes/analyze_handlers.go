// routes/analyze_handlers.go
package routes

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/guyomx/smartcities-banorte/analisis"
	"github.com/guyomx/smartcities-banorte/config"
	"github.com/guyomx/smartcities-banorte/pipeline/extractors"
	"github.com/guyomx/smartcities-banorte/websocket"
)

// Tamaño máximo del PDF subido
const maxUploadSize = 16 << 20 // 16MB

// Longitud mínima del texto extraído para intentar el análisis
const minTextoExtraido = 80

// AnalyzeHandler atiende POST /api/analyze: recibe un PDF, extrae el
// texto y lo evalúa con el analizador.
func AnalyzeHandler(analizador *analisis.Analizador, wsManager *websocket.Manager, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeError(w, http.StatusBadRequest, "El archivo excede el tamaño máximo (16MB)")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "No se recibió archivo")
			return
		}
		defer file.Close()

		if header.Filename == "" {
			writeError(w, http.StatusBadRequest, "Archivo vacío")
			return
		}

		if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
			writeError(w, http.StatusBadRequest, "Solo se aceptan archivos PDF")
			return
		}

		// Guardamos el PDF con un nombre único para evitar colisiones
		// y rutas maliciosas en el nombre original
		safeName := uuid.NewString() + "_" + sanitizeFilename(header.Filename)
		uploadPath := filepath.Join(cfg.Directorios.UploadDir, safeName)

		dst, err := os.Create(uploadPath)
		if err != nil {
			log.Printf("❌ Error al guardar el archivo subido: %v", err)
			writeError(w, http.StatusInternalServerError, "No se pudo guardar el archivo")
			return
		}

		if _, err := dst.ReadFrom(file); err != nil {
			dst.Close()
			os.Remove(uploadPath)
			log.Printf("❌ Error al copiar el archivo subido: %v", err)
			writeError(w, http.StatusInternalServerError, "No se pudo guardar el archivo")
			return
		}
		dst.Close()

		// El archivo temporal se elimina siempre al terminar
		defer func() {
			if err := os.Remove(uploadPath); err != nil {
				log.Printf("⚠️ No se pudo eliminar el archivo temporal %s: %v", uploadPath, err)
			}
		}()

		log.Printf("📄 Archivo recibido: %s", header.Filename)
		wsManager.NotifyEvent("analyze_start", header.Filename, "Análisis iniciado")

		text, err := extractors.ExtractText(uploadPath)
		if err != nil || len(strings.TrimSpace(text)) < minTextoExtraido {
			wsManager.NotifyEvent("analyze_error", header.Filename, "No se pudo extraer texto del PDF")
			writeError(w, http.StatusBadRequest, "No se pudo extraer texto del PDF")
			return
		}

		log.Printf("📝 Texto extraído: %d caracteres", len(text))

		result, err := analizador.Analyze(r.Context(), text)
		if err != nil {
			log.Printf("❌ Error en /api/analyze: %v", err)
			wsManager.NotifyEvent("analyze_error", header.Filename, err.Error())
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		wsManager.NotifyEvent("analyze_complete", header.Filename, "Análisis completado")
		writeJSON(w, http.StatusOK, result)
	}
}

// sanitizeFilename deja solo el nombre base sin caracteres peligrosos
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ Error al codificar la respuesta JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
