// routes/api_routes.go
package routes

import (
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/guyomx/smartcities-banorte/analisis"
	"github.com/guyomx/smartcities-banorte/config"
	"github.com/guyomx/smartcities-banorte/middleware"
	"github.com/guyomx/smartcities-banorte/websocket"
)

// SetupRoutes configura todas las rutas de la API y el WebSocket
func SetupRoutes(router *mux.Router, db *sql.DB, wsManager *websocket.Manager, analizador *analisis.Analizador, cfg *config.Config) {
	// Aplicamos el middleware de CORS
	router.Use(middleware.CORSMiddleware)

	// Conexiones WebSocket del dashboard
	router.HandleFunc("/ws", wsManager.HandleConnections)

	// API de análisis de documentos
	router.HandleFunc("/api/analyze", AnalyzeHandler(analizador, wsManager, cfg)).Methods("POST", "OPTIONS")

	// API de proyectos del warehouse
	router.HandleFunc("/api/projects", GetProjectsHandler(db)).Methods("GET", "OPTIONS")

	// Estado del servidor
	router.HandleFunc("/health", HealthHandler(analizador)).Methods("GET", "OPTIONS")

	// Archivos estáticos
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.Directorios.PublicDir)))
}
