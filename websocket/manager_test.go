package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerNotifyEvent(t *testing.T) {
	manager := NewManager()
	go manager.Run()

	client := &Client{
		ID:   "test-client",
		Send: make(chan []byte, 8),
	}
	manager.Register <- client

	// NotifyEvent descarta eventos si el manager está ocupado, por lo
	// que reintentamos hasta que el cliente reciba uno
	var data []byte
	require.Eventually(t, func() bool {
		manager.NotifyEvent("analyze_start", "obra.pdf", "Análisis iniciado")
		select {
		case data = <-client.Send:
			return true
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)

	var evento EventoPipeline
	require.NoError(t, json.Unmarshal(data, &evento))
	assert.Equal(t, "analyze_start", evento.Type)
	assert.Equal(t, "obra.pdf", evento.Documento)
	assert.Equal(t, "Análisis iniciado", evento.Mensaje)
	assert.NotEmpty(t, evento.Timestamp)
}

func TestManagerUnregisterCierraElCanal(t *testing.T) {
	manager := NewManager()
	go manager.Run()

	client := &Client{
		ID:   "efimero",
		Send: make(chan []byte, 1),
	}
	manager.Register <- client
	manager.Unregister <- client

	select {
	case _, open := <-client.Send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("el canal del cliente no fue cerrado")
	}
}
