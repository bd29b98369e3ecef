// websocket/connection_handler.go
package websocket

import (
	"log"
	"net/http"

	"github.com/google/uuid"
)

// HandleConnections atiende las conexiones WebSocket del dashboard
func (manager *Manager) HandleConnections(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Error al establecer la conexión WebSocket:", err)
		return
	}

	client := &Client{
		ID:     uuid.NewString(),
		Socket: conn,
		Send:   make(chan []byte, 256),
	}

	manager.Register <- client
	log.Printf("✅ Dashboard conectado desde %s (cliente %s)", r.RemoteAddr, client.ID)

	go client.readPump(manager)
	go client.writePump()
}
