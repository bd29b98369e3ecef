// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/guyomx/smartcities-banorte/analisis"
	"github.com/guyomx/smartcities-banorte/config"
	"github.com/guyomx/smartcities-banorte/pipeline/analyzer"
	"github.com/guyomx/smartcities-banorte/pipeline/utils"
	"github.com/guyomx/smartcities-banorte/routes"
	"github.com/guyomx/smartcities-banorte/websocket"
)

func main() {
	fmt.Println("Iniciando servidor de análisis...")

	// Cargamos la configuración
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ No se pudo cargar la configuración: %v", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("❌ No se pudieron crear los directorios de trabajo: %v", err)
	}

	logger := utils.NewPipelineLogger(cfg.Pipeline.EnableDetailedLogging)

	// Conexión al warehouse (opcional: sin ella la API de proyectos
	// responde 503 pero el análisis sigue funcionando)
	db, err := config.ConnectWarehouse(cfg.Warehouse)
	if err != nil {
		log.Printf("⚠️ Warehouse no disponible: %v", err)
		db = nil
	} else {
		defer config.CloseWarehouse(db)
	}

	// Cliente de Gemini y analizador de política pública
	client, err := analyzer.NewGeminiClient(cfg.Gemini, logger)
	if err != nil {
		log.Printf("⚠️ Gemini no disponible: %v", err)
		client = nil
	}
	an := analyzer.NewAnalyzer(client, logger)
	analizador := analisis.NewAnalizador(an, cfg.Directorios.BestPromptFile, cfg.Directorios.DatasetFile, logger)

	// Administrador de WebSocket para el dashboard
	wsManager := websocket.NewManager()
	go wsManager.Run()

	// Rutas
	router := mux.NewRouter()
	routes.SetupRoutes(router, db, wsManager, analizador, cfg)

	// El análisis con el modelo puede tomar 20-60 segundos, por lo que
	// el WriteTimeout es más holgado que el de lectura
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("✅ Servidor iniciado en http://localhost%s", server.Addr)
		log.Printf("🧠 Modelo activo: %s", analizador.ModelName())
		log.Printf("ℹ️ Endpoints: /  |  /api/analyze (POST)  |  /api/projects  |  /health  |  /ws")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Error al iniciar el servidor: %v", err)
		}
	}()

	// Esperamos la señal de terminación
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("⚠️ Señal de terminación recibida, cerrando conexiones...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Error al detener el servidor: %v", err)
	}

	log.Println("👋 Servidor detenido")
}
