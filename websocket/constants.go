// websocket/constants.go
package websocket

import (
	"time"
)

// Constantes de la conexión WebSocket
const (
	// Tiempo máximo para escribir un mensaje al cliente
	writeWait = 10 * time.Second

	// Tiempo máximo de espera de un pong del cliente
	pongWait = 60 * time.Second

	// Período de envío de pings
	pingPeriod = (pongWait * 9) / 10

	// Tamaño máximo de mensaje entrante
	maxMessageSize = 4 * 1024 // 4KB: el dashboard solo envía pings
)
