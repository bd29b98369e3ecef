// websocket/manager.go
package websocket

import (
	"encoding/json"
	"log"
	"time"
)

// NewManager crea un nuevo administrador de conexiones WebSocket
func NewManager() *Manager {
	return &Manager{
		Broadcast:  make(chan []byte),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Clients:    make(map[string]*Client),
	}
}

// Run atiende registros, bajas y difusión de eventos
func (manager *Manager) Run() {
	for {
		select {
		case client := <-manager.Register:
			manager.Clients[client.ID] = client
			log.Printf("👤 Cliente %s conectado al dashboard", client.ID)

		case client := <-manager.Unregister:
			if _, ok := manager.Clients[client.ID]; ok {
				delete(manager.Clients, client.ID)
				close(client.Send)
				log.Printf("👤 Cliente %s desconectado", client.ID)
			}

		case message := <-manager.Broadcast:
			manager.broadcast(message)
		}
	}
}

// broadcast envía un mensaje a todos los clientes conectados
func (manager *Manager) broadcast(message []byte) {
	for _, client := range manager.Clients {
		select {
		case client.Send <- message:
		default:
			close(client.Send)
			delete(manager.Clients, client.ID)
		}
	}
}

// NotifyEvent difunde un evento del pipeline a todos los dashboards.
// Nunca bloquea al llamador.
func (manager *Manager) NotifyEvent(eventType, documento, mensaje string) {
	evento := EventoPipeline{
		Type:      eventType,
		Documento: documento,
		Mensaje:   mensaje,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	data, err := json.Marshal(evento)
	if err != nil {
		log.Printf("❌ Error al serializar el evento %s: %v", eventType, err)
		return
	}

	select {
	case manager.Broadcast <- data:
	default:
		// Sin lectores: el evento se descarta
	}
}
