// routes/health_handlers.go
package routes

import (
	"net/http"

	"github.com/guyomx/smartcities-banorte/analisis"
)

// HealthHandler reporta el estado del servidor y del modelo
func HealthHandler(analizador *analisis.Analizador) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":       "ok",
			"message":      "Servidor activo",
			"model":        analizador.ModelName(),
			"dataset_size": analizador.DatasetSize(),
		})
	}
}
