// Package analyzer contiene el cliente de Gemini y la extracción de registros.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cenkalti/backoff/v4"

	"github.com/guyomx/smartcities-banorte/config"
	"github.com/guyomx/smartcities-banorte/pipeline/utils"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiClient es el cliente HTTP de la API de Gemini con cadena de
// modelos de respaldo y reintentos con backoff exponencial.
type GeminiClient struct {
	apiKey          string
	candidates      []string
	maxOutputTokens int
	temperature     float64
	httpClient      *http.Client
	logger          *utils.PipelineLogger

	// modelo que respondió en la última llamada exitosa
	activeModel string
}

// NewGeminiClient crea un nuevo cliente de Gemini
func NewGeminiClient(cfg config.GeminiConfig, logger *utils.PipelineLogger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY no encontrada en el entorno")
	}

	return &GeminiClient{
		apiKey:          cfg.APIKey,
		candidates:      cfg.ModelCandidates,
		maxOutputTokens: cfg.MaxOutputTokens,
		temperature:     cfg.Temperature,
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		logger:          logger,
	}, nil
}

// ModelName devuelve el modelo activo (el último que respondió con éxito)
func (c *GeminiClient) ModelName() string {
	if c.activeModel == "" && len(c.candidates) > 0 {
		return c.candidates[0]
	}
	return c.activeModel
}

// Estructuras del protocolo generateContent
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateContent envía el prompt al modelo y devuelve el texto crudo de la
// respuesta. Recorre la cadena de candidatos: si un modelo no está disponible
// se intenta con el siguiente.
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for _, model := range c.candidates {
		text, err := c.generateWithModel(ctx, model, prompt)
		if err == nil {
			c.activeModel = model
			return text, nil
		}

		lastErr = err
		c.logger.Error("Falló el modelo %s: %v", model, err)

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("ningún modelo de Gemini respondió: %w", lastErr)
}

// generateWithModel llama a un modelo concreto con reintentos ante errores
// transitorios (429, 5xx, fallas de red).
func (c *GeminiClient) generateWithModel(ctx context.Context, model, prompt string) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiBaseURL, model, c.apiKey)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      c.temperature,
			MaxOutputTokens:  c.maxOutputTokens,
			ResponseMimeType: "application/json",
		},
	})
	if err != nil {
		return "", fmt.Errorf("error al serializar la petición: %w", err)
	}

	var text string

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	err = backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Error de transporte: se reintenta
			return err
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("respuesta %d del modelo %s", resp.StatusCode, model)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("respuesta %d del modelo %s: %s",
				resp.StatusCode, model, truncateForLog(payload)))
		}

		var parsed generateResponse
		if err := json.Unmarshal(payload, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("respuesta ilegible del modelo %s: %w", model, err))
		}
		if parsed.Error != nil {
			return backoff.Permanent(fmt.Errorf("error %d del modelo %s: %s",
				parsed.Error.Code, model, parsed.Error.Message))
		}
		if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
			return backoff.Permanent(fmt.Errorf("el modelo %s no devolvió candidatos", model))
		}

		var buf bytes.Buffer
		for _, p := range parsed.Candidates[0].Content.Parts {
			buf.WriteString(p.Text)
		}
		text = buf.String()
		return nil
	}, policy)

	if err != nil {
		return "", err
	}

	return text, nil
}

func truncateForLog(b []byte) string {
	const max = 300
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
