// Package analisis implementa el evaluador de política pública que
// respalda la API: combina el mejor prompt del entrenador con el
// contexto del dataset histórico y emite el veredicto Banorte.
package analisis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/guyomx/smartcities-banorte/pipeline/analyzer"
	"github.com/guyomx/smartcities-banorte/pipeline/utils"
	"github.com/guyomx/smartcities-banorte/pipeline/warehouse"
)

const maxDocumentoChars = 50000

// Analizador evalúa el texto de un proyecto con el modelo y el
// contexto de la base histórica.
type Analizador struct {
	analyzer   *analyzer.Analyzer
	bestPrompt string
	dataset    []warehouse.ProyectoResumen
	logger     *utils.PipelineLogger
}

// NewAnalizador carga el mejor prompt disponible y el dataset de
// contexto. Ninguno es obligatorio: sin prompt se usa el de respaldo y
// sin dataset se evalúa sin contexto histórico.
func NewAnalizador(an *analyzer.Analyzer, bestPromptFile, datasetFile string, logger *utils.PipelineLogger) *Analizador {
	a := &Analizador{
		analyzer: an,
		logger:   logger,
	}

	a.bestPrompt = a.loadBestPrompt(bestPromptFile)
	a.dataset = a.loadDataset(datasetFile)

	logger.Info("✅ Analizador inicializado")
	logger.Info("📊 Prompt cargado | chars=%d", len(a.bestPrompt))
	logger.Info("📚 Dataset base | proyectos=%d", len(a.dataset))

	return a
}

// Disponible indica si el modelo está listo para analizar
func (a *Analizador) Disponible() bool {
	return a.analyzer != nil && a.analyzer.Disponible()
}

// ModelName devuelve el modelo activo
func (a *Analizador) ModelName() string {
	if a.analyzer == nil {
		return ""
	}
	return a.analyzer.ModelName()
}

// DatasetSize devuelve cuántos proyectos hay en el contexto histórico
func (a *Analizador) DatasetSize() int {
	return len(a.dataset)
}

func (a *Analizador) loadBestPrompt(path string) string {
	prompt, err := analyzer.LoadBestPrompt(path)
	if err != nil {
		a.logger.Info("Sin prompt optimizado (%v), se usa el de respaldo", err)
		return analyzer.FallbackPrompt()
	}
	return prompt
}

func (a *Analizador) loadDataset(path string) []warehouse.ProyectoResumen {
	data, err := os.ReadFile(path)
	if err != nil {
		a.logger.Info("Dataset no encontrado (%s), se continúa sin contexto", path)
		return nil
	}

	var dataset []warehouse.ProyectoResumen
	if err := json.Unmarshal(data, &dataset); err != nil {
		a.logger.Error("Dataset inválido: %v", err)
		return nil
	}

	return dataset
}

// GenerateContext resume el dataset histórico para inyectarlo en el
// prompt de evaluación.
func (a *Analizador) GenerateContext() string {
	if len(a.dataset) == 0 {
		return "Dataset no disponible"
	}

	sectoresSet := make(map[string]struct{})
	var presupuestos, scores []float64
	for _, p := range a.dataset {
		if p.Sector != nil && *p.Sector != "" {
			sectoresSet[*p.Sector] = struct{}{}
		}
		if p.PresupuestoTotal != nil {
			presupuestos = append(presupuestos, *p.PresupuestoTotal)
		}
		if p.ScoreCostoBeneficio != nil {
			scores = append(scores, *p.ScoreCostoBeneficio)
		}
	}

	if len(presupuestos) == 0 {
		return fmt.Sprintf("Base de datos: %d proyectos", len(a.dataset))
	}

	sectores := make([]string, 0, len(sectoresSet))
	for s := range sectoresSet {
		sectores = append(sectores, s)
	}
	sort.Strings(sectores)
	if len(sectores) > 5 {
		sectores = sectores[:5]
	}

	var sumPres, minPres, maxPres float64
	minPres = presupuestos[0]
	maxPres = presupuestos[0]
	for _, v := range presupuestos {
		sumPres += v
		if v < minPres {
			minPres = v
		}
		if v > maxPres {
			maxPres = v
		}
	}
	promPres := sumPres / float64(len(presupuestos))

	var promScore float64
	if len(scores) > 0 {
		var sum float64
		for _, v := range scores {
			sum += v
		}
		promScore = sum / float64(len(scores))
	}

	return fmt.Sprintf(`CONTEXTO - BASE DE DATOS ACTUAL:
• Proyectos analizados: %d
• Sectores: %s
• Presupuesto promedio: $%.0f MXN
• Score histórico promedio: %.1f/10
• Rango: $%.0f - $%.0f MXN

ENFOQUE DE EVALUACIÓN:
✓ Realismo sobre promesas políticas
✓ Impacto social MEDIBLE
✓ Riesgos financieros ESPECÍFICOS
✓ Comparación con proyectos similares`,
		len(a.dataset), strings.Join(sectores, ", "), promPres, promScore, minPres, maxPres)
}

func (a *Analizador) buildPrompt(text string) string {
	runes := []rune(text)
	if len(runes) > maxDocumentoChars {
		runes = runes[:maxDocumentoChars]
	}

	return fmt.Sprintf(`%s

El sistema emplea un modelo de evaluación especializado entrenado con un corpus curado de proyectos públicos,
reforzado con técnicas de prompting y recuperación de contexto, orquestado sobre la API de Gemini. Su objetivo es
asistir a gobiernos de distinta escala en la formulación y priorización de proyectos con mayor impacto social y solidez financiera.

RETORNA ESTRICTAMENTE ESTE JSON (sin texto adicional):
{
  "nombre": "string",
  "sector": "string",
  "ubicacion": "string",
  "presupuesto_total_mxn": float,
  "beneficiarios_estimados": float,
  "eficiencia_financiera": float,
  "score_costo_beneficio": float,
  "analisis_financiero": "string",
  "riesgo_financiero": "1. ... 2. ... 3. ... 4. ... 5. ...",
  "recomendaciones": "1. ... 2. ... 3. ... 4. ... 5. ..."
}

CRITERIOS:
- Beneficiarios: si no hay dato explícito, estimar razonablemente (nunca null).
- Riesgos y Recomendaciones: 5 puntos numerados, concretos.
- Análisis financiero: 150-200 palabras, viabilidad, costo—beneficio, sostenibilidad, riesgos.

DOCUMENTO (máx 50k chars):
%s`, a.GenerateContext(), string(runes))
}

// Analyze evalúa el texto de un proyecto y devuelve el resultado con
// veredicto, justificación y metadatos de debug.
func (a *Analizador) Analyze(ctx context.Context, text string) (map[string]interface{}, error) {
	if !a.Disponible() {
		return nil, fmt.Errorf("Gemini no disponible, verifica GEMINI_API_KEY")
	}

	prompt := a.buildPrompt(text)

	result, err := a.analyzer.AnalyzeWithPrompt(ctx, prompt)
	if err != nil {
		return nil, err
	}

	a.postProcess(result, len(text))
	return result, nil
}

// postProcess rellena valores por defecto y agrega el veredicto
func (a *Analizador) postProcess(result map[string]interface{}, charsIn int) {
	if safeFloat(result["beneficiarios_estimados"]) <= 0 {
		result["beneficiarios_estimados"] = 10000.0
	}

	if isEmpty(result["riesgo_financiero"]) {
		result["riesgo_financiero"] = "1. Información insuficiente. 2. Requiere auditoría completa. " +
			"3. Falta de datos críticos. 4. Riesgo de ejecución. 5. Riesgo de sobrecosto."
	}

	if isEmpty(result["recomendaciones"]) {
		result["recomendaciones"] = "1. Solicitar documentación completa. 2. Auditoría independiente. " +
			"3. Rediseñar cronograma. 4. Financiamiento por hitos. 5. KPIs públicos."
	}

	if isEmpty(result["veredicto_banorte"]) {
		result["veredicto_banorte"] = Veredicto(safeFloat(result["score_costo_beneficio"]))
	}

	if isEmpty(result["justificacion_veredicto"]) {
		result["justificacion_veredicto"] = "Decisión sustentada en costo—beneficio, riesgos y comparables históricos."
	}

	result["_debug"] = map[string]interface{}{
		"model":        a.ModelName(),
		"chars_in":     charsIn,
		"dataset_size": len(a.dataset),
	}
}

// Veredicto traduce el score costo-beneficio a la recomendación de
// financiamiento del banco.
func Veredicto(score float64) string {
	switch {
	case score >= 9:
		return "Banorte recomienda financiamiento prioritario por métricas excepcionales"
	case score >= 7:
		return "Banorte sugiere financiamiento condicionado a supervisión rigurosa"
	case score >= 5:
		return "Banorte no recomienda participación sin reestructuración mayor del proyecto"
	default:
		return "Banorte rechaza financiamiento por riesgos críticos identificados"
	}
}

func safeFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%g", &f); err == nil {
			return f
		}
	}
	return 0
}

func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
