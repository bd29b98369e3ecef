// routes/project_handlers.go
package routes

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/guyomx/smartcities-banorte/pipeline/utils"
	"github.com/guyomx/smartcities-banorte/pipeline/warehouse"
)

// ProjectsResponse es la respuesta de GET /api/projects
type ProjectsResponse struct {
	Projects []warehouse.ProyectoResumen `json:"projects"`
	Total    int                         `json:"total"`
}

// GetProjectsHandler devuelve los proyectos cargados en el warehouse
func GetProjectsHandler(db *sql.DB) http.HandlerFunc {
	var reader *warehouse.Reader
	if db != nil {
		reader = warehouse.NewReader(db, utils.NewPipelineLogger(false))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			writeError(w, http.StatusServiceUnavailable, "Warehouse no disponible")
			return
		}

		projects, err := reader.FetchDataset()
		if err != nil {
			log.Printf("❌ Error al consultar proyectos: %v", err)
			writeError(w, http.StatusInternalServerError, "Error al obtener los proyectos")
			return
		}

		writeJSON(w, http.StatusOK, ProjectsResponse{
			Projects: projects,
			Total:    len(projects),
		})
	}
}
