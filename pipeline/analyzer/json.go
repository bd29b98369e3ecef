package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CleanJSONString extrae el primer objeto JSON balanceado de la salida del
// modelo. Los modelos a veces envuelven la respuesta en bloques ```json o
// agregan texto alrededor; aquí lo toleramos.
func CleanJSONString(raw string) (map[string]interface{}, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("respuesta vacía del modelo")
	}

	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)

	// Buscamos el primer objeto {...} balanceado
	start := -1
	depth := 0
	for i, ch := range s {
		switch ch {
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					candidate := s[start : i+1]
					var parsed map[string]interface{}
					if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
						return parsed, nil
					}
					// Candidato corrupto: seguimos buscando el siguiente objeto
					start = -1
				}
			}
		}
	}

	// Último recurso: intentar con todo el texto
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(s), &parsed); err == nil {
		return parsed, nil
	}

	return nil, fmt.Errorf("no se encontró un JSON válido en la respuesta")
}
