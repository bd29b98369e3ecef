// websocket/types.go
package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// EventoPipeline es el mensaje que el servidor difunde al dashboard
type EventoPipeline struct {
	Type      string `json:"type"`
	Documento string `json:"documento,omitempty"`
	Mensaje   string `json:"mensaje,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Cliente WebSocket (una pestaña del dashboard)
type Client struct {
	ID     string
	Socket *websocket.Conn
	Send   chan []byte
}

// Manager administra las conexiones WebSocket del dashboard
type Manager struct {
	Clients    map[string]*Client
	Broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client
}

// Configuración de la conexión WebSocket
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Permitimos conexiones de cualquier origen (modo demo)
	},
}
