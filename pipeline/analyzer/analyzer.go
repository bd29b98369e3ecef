package analyzer

import (
	"context"
	"fmt"

	"github.com/guyomx/smartcities-banorte/pipeline/utils"
)

// Analyzer coordina la extracción de registros con Gemini
type Analyzer struct {
	client *GeminiClient
	logger *utils.PipelineLogger
}

// NewAnalyzer crea un nuevo Analyzer sobre un cliente de Gemini.
// El cliente puede ser nil: en ese caso toda llamada falla y el pipeline
// usa la extracción heurística.
func NewAnalyzer(client *GeminiClient, logger *utils.PipelineLogger) *Analyzer {
	return &Analyzer{
		client: client,
		logger: logger,
	}
}

// Disponible indica si hay un cliente de Gemini configurado
func (a *Analyzer) Disponible() bool {
	return a.client != nil
}

// ModelName devuelve el modelo activo, o cadena vacía sin cliente
func (a *Analyzer) ModelName() string {
	if a.client == nil {
		return ""
	}
	return a.client.ModelName()
}

// AnalyzeDocument envía el texto del documento al modelo y devuelve el
// JSON crudo interpretado. El llamador decide el fallback ante error.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, documentText, fileName string) (map[string]interface{}, error) {
	if a.client == nil {
		return nil, fmt.Errorf("cliente de Gemini no disponible")
	}

	prompt := BuildExtractionPrompt(documentText, fileName)

	raw, err := a.client.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("error en la llamada al modelo: %w", err)
	}

	parsed, err := CleanJSONString(raw)
	if err != nil {
		a.logger.Debug("Respuesta cruda del modelo (recortada): %.400s", raw)
		return nil, fmt.Errorf("llm_no_json: %w", err)
	}

	return parsed, nil
}

// AnalyzeWithPrompt envía el documento usando un prompt ya armado
// (el prompt optimizado del entrenador con su contexto).
func (a *Analyzer) AnalyzeWithPrompt(ctx context.Context, prompt string) (map[string]interface{}, error) {
	if a.client == nil {
		return nil, fmt.Errorf("cliente de Gemini no disponible")
	}

	raw, err := a.client.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("error en la llamada al modelo: %w", err)
	}

	parsed, err := CleanJSONString(raw)
	if err != nil {
		a.logger.Debug("Respuesta cruda del modelo (recortada): %.400s", raw)
		return nil, fmt.Errorf("llm_no_json: %w", err)
	}

	return parsed, nil
}
