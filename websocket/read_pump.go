// websocket/read_pump.go
package websocket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

// readPump lee los mensajes del cliente. El dashboard solo envía pings
// de aplicación; cualquier otro tipo se ignora.
func (c *Client) readPump(manager *Manager) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Pánico al leer mensajes del cliente %s: %v", c.ID, r)
		}

		manager.Unregister <- c
		c.Socket.Close()
	}()

	c.Socket.SetReadLimit(maxMessageSize)
	c.Socket.SetReadDeadline(time.Now().Add(pongWait))
	c.Socket.SetPongHandler(func(string) error {
		c.Socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Error de lectura del cliente %s: %v", c.ID, err)
			}
			break
		}

		var evento EventoPipeline
		if err := json.Unmarshal(message, &evento); err != nil {
			log.Println("Error al decodificar el mensaje:", err)
			continue
		}

		if evento.Type == "ping" {
			pong := EventoPipeline{
				Type:      "pong",
				Timestamp: time.Now().Format(time.RFC3339),
			}
			if data, err := json.Marshal(pong); err == nil {
				c.Send <- data
			}
		}
	}
}
