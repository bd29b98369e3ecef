// Entrenador de prompts: su único propósito es generar
// best_analysis_prompt.txt, el prompt optimizado que consumen el
// pipeline y la API de análisis.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/guyomx/smartcities-banorte/config"
	"github.com/guyomx/smartcities-banorte/pipeline/analyzer"
	"github.com/guyomx/smartcities-banorte/pipeline/utils"
	"github.com/guyomx/smartcities-banorte/pipeline/warehouse"
)

const (
	maxPromptChars    = 2000
	maxIterations     = 20
	iterationInterval = 30 * time.Second
)

// promptAnchor es la parte inmutable de todo prompt entrenado
const promptAnchor = `
REGLAS FUNDAMENTALES (INMUTABLES):
1. OBJETIVO: Analizar PDFs de proyectos de infraestructura mexicana
2. OUTPUT: JSON estructurado con análisis completo
3. MÉTRICAS: score_costo_beneficio (0-10), eficiencia_financiera (%), beneficiarios_estimados
4. ENFOQUE: Viabilidad económica, impacto social, sostenibilidad
5. FORMATO: JSON válido siempre
`

// metaPrompt instruye al modelo sobre cómo mejorar el prompt de análisis
const metaPrompt = `Eres experto en ingeniería de prompts para análisis financiero.

CONTEXTO:
El prompt que optimizas será usado por una API que recibe PDFs de proyectos.
Debe extraer datos financieros, calcular score costo-beneficio y generar análisis.

CRITERIOS DE MEJORA:
1. Precisión en extracción de datos numéricos
2. Claridad en criterios de scoring
3. Manejo de PDFs difusos o incompletos
4. Output JSON consistente

RESTRICCIONES:
- Máximo 2000 caracteres
- Mantener "REGLAS FUNDAMENTALES" intacta

Responde SOLO en JSON:
{
  "prompt_mejorado": "...",
  "cambios_realizados": ["cambio1", "cambio2"],
  "razonamiento": "...",
  "metricas_mejora": {
    "precision_extraccion": 0-10,
    "claridad_instrucciones": 0-10,
    "robustez_formato": 0-10
  }
}`

// initialPrompt es el punto de partida cuando no hay iteraciones previas
const initialPrompt = `
Analiza este PDF de proyecto de infraestructura:

{DOCUMENTO}

Extrae:
1. Datos básicos (nombre, sector, ubicación, años)
2. Financieros (presupuesto, costos)
3. Impacto (beneficiarios)
4. Score costo-beneficio (0-10)

Formato JSON:
{
  "nombre": "string",
  "sector": "string",
  "presupuesto_total_mxn": float,
  "beneficiarios_estimados": float,
  "score_costo_beneficio": float,
  "analisis_financiero": "string"
}
`

const headerSeparator = "================================================================================"

// TrainerState es el estado persistido del entrenador entre sesiones
type TrainerState struct {
	CurrentIteration  int     `json:"current_iteration"`
	BestIteration     int     `json:"best_iteration"`
	BestScore         float64 `json:"best_score"`
	RetrainsCompleted int     `json:"retrains_completed"`
}

// SizeValidation es el resultado de validar el tamaño de un prompt
type SizeValidation struct {
	Valid      bool
	Chars      int
	Percentage float64
}

// PromptTrainer optimiza iterativamente el prompt de análisis
type PromptTrainer struct {
	cfg    *config.Config
	client *analyzer.GeminiClient
	logger *utils.PipelineLogger
	state  TrainerState
}

// NewPromptTrainer crea un nuevo PromptTrainer
func NewPromptTrainer() (*PromptTrainer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("error al cargar la configuración: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	logger := utils.NewPipelineLogger(cfg.Pipeline.EnableDetailedLogging)

	client, err := analyzer.NewGeminiClient(cfg.Gemini, logger)
	if err != nil {
		return nil, fmt.Errorf("el entrenador requiere Gemini: %w", err)
	}

	t := &PromptTrainer{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
	t.state = t.loadState()

	return t, nil
}

func (t *PromptTrainer) loadState() TrainerState {
	var state TrainerState

	data, err := os.ReadFile(t.cfg.Directorios.TrainerState)
	if err != nil {
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		t.logger.Error("Estado del entrenador corrupto, se reinicia: %v", err)
		return TrainerState{}
	}
	return state
}

func (t *PromptTrainer) saveState() error {
	data, err := json.MarshalIndent(t.state, "", "  ")
	if err != nil {
		return fmt.Errorf("error al serializar el estado del entrenador: %w", err)
	}
	if err := os.WriteFile(t.cfg.Directorios.TrainerState, data, 0o644); err != nil {
		return fmt.Errorf("error al guardar el estado del entrenador: %w", err)
	}
	return nil
}

// loadDataset carga el dataset exportado del warehouse
func (t *PromptTrainer) loadDataset() ([]warehouse.ProyectoResumen, error) {
	data, err := os.ReadFile(t.cfg.Directorios.DatasetFile)
	if err != nil {
		return nil, fmt.Errorf("dataset no encontrado: %s", t.cfg.Directorios.DatasetFile)
	}

	var dataset []warehouse.ProyectoResumen
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("dataset inválido: %w", err)
	}
	if len(dataset) == 0 {
		return nil, fmt.Errorf("dataset vacío")
	}

	t.logger.Info("✅ Dataset cargado: %d proyectos", len(dataset))
	return dataset, nil
}

// generateContext resume el dataset para el meta-prompt
func (t *PromptTrainer) generateContext(dataset []warehouse.ProyectoResumen) string {
	if len(dataset) == 0 {
		return "Dataset vacío"
	}

	sectoresSet := make(map[string]struct{})
	var presupuestos []float64
	for _, p := range dataset {
		if p.Sector != nil && *p.Sector != "" {
			sectoresSet[*p.Sector] = struct{}{}
		}
		if p.PresupuestoTotal != nil {
			presupuestos = append(presupuestos, *p.PresupuestoTotal)
		}
	}

	if len(presupuestos) == 0 {
		return fmt.Sprintf("Dataset: %d proyectos", len(dataset))
	}

	sectores := make([]string, 0, len(sectoresSet))
	for s := range sectoresSet {
		sectores = append(sectores, s)
	}
	if len(sectores) > 5 {
		sectores = sectores[:5]
	}

	var sum, min, max float64
	min = presupuestos[0]
	max = presupuestos[0]
	for _, v := range presupuestos {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	return fmt.Sprintf(`Dataset real (warehouse): %d proyectos
Sectores: %s
Presupuesto promedio: $%.0f MXN
Rango: $%.0f - $%.0f`,
		len(dataset), strings.Join(sectores, ", "), sum/float64(len(presupuestos)), min, max)
}

// validateSize verifica que el prompt quepa en el límite de caracteres
func validateSize(prompt string) SizeValidation {
	chars := len([]rune(prompt))
	return SizeValidation{
		Valid:      chars <= maxPromptChars,
		Chars:      chars,
		Percentage: float64(chars) / float64(maxPromptChars) * 100,
	}
}

// ensureAnchor garantiza que las reglas fundamentales estén presentes
func ensureAnchor(prompt string) string {
	if !strings.Contains(prompt, "REGLAS FUNDAMENTALES") {
		return promptAnchor + "\n\n" + prompt
	}
	return prompt
}

// improvePrompt pide al modelo una versión mejorada (o condensada) del
// prompt actual.
func (t *PromptTrainer) improvePrompt(ctx context.Context, context_, current string, iteration int, condense bool) (string, error) {
	validation := validateSize(current)

	var instruction string
	if condense {
		instruction = fmt.Sprintf(`CONDENSACIÓN FORZADA

Prompt actual (%d/2000 chars):
%s

Reduce a 2000 caracteres manteniendo:
- "REGLAS FUNDAMENTALES"
- Capacidad de análisis
- Output JSON`, validation.Chars, current)
	} else {
		instruction = fmt.Sprintf(`%s

Prompt actual (Iteración %d):
%d/2000 chars (%.1f%%)

%s

Mejora para análisis de PDFs:
- Precisión en extracción financiera
- Criterios claros de scoring
- Manejo de datos incompletos
- NO exceder 2000 caracteres`, context_, iteration, validation.Chars, validation.Percentage, current)
	}

	return t.client.GenerateContent(ctx, metaPrompt+"\n\n"+instruction)
}

// calcAvg promedia las tres métricas de mejora reportadas por el modelo
func calcAvg(metrics map[string]interface{}) float64 {
	sum := toFloat(metrics["precision_extraccion"]) +
		toFloat(metrics["claridad_instrucciones"]) +
		toFloat(metrics["robustez_formato"])
	return sum / 3
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		var f float64
		fmt.Sscanf(n, "%g", &f)
		return f
	}
	return 0
}

// saveBest guarda el mejor prompt encontrado: este archivo es el
// producto final del entrenador.
func (t *PromptTrainer) saveBest(prompt string, iteration int, score float64) error {
	var b strings.Builder
	b.WriteString(headerSeparator + "\n")
	b.WriteString("🏆 MEJOR PROMPT DE ANÁLISIS (USAR EN API)\n")
	b.WriteString(headerSeparator + "\n")
	fmt.Fprintf(&b, "Iteración: %d\n", iteration)
	fmt.Fprintf(&b, "Score: %.2f/10\n", score)
	fmt.Fprintf(&b, "Generado: %s\n", time.Now().Format(time.RFC3339))
	b.WriteString(headerSeparator + "\n\n")
	b.WriteString(prompt)

	if err := os.WriteFile(t.cfg.Directorios.BestPromptFile, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("error al guardar el mejor prompt: %w", err)
	}

	t.logger.Info("🏆 Mejor prompt guardado (score: %.2f) → %s", score, t.cfg.Directorios.BestPromptFile)
	return nil
}

// saveIteration guarda el detalle de una iteración en prompt_iterations/
func (t *PromptTrainer) saveIteration(iteration int, raw string, parsed map[string]interface{}, prompt string, validation SizeValidation) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("iteration_%04d_%s.txt", iteration, timestamp)
	path := filepath.Join(t.cfg.Directorios.IterationsDir, filename)

	var b strings.Builder
	fmt.Fprintf(&b, "ITERACIÓN %d\n", iteration)
	fmt.Fprintf(&b, "Tamaño: %d/2000\n", validation.Chars)
	estado := "❌"
	if validation.Valid {
		estado = "✅"
	}
	fmt.Fprintf(&b, "Estado: %s\n\n", estado)

	if parsed != nil {
		b.WriteString("PROMPT:\n")
		b.WriteString(prompt + "\n\n")
		b.WriteString("CAMBIOS:\n")
		if cambios, ok := parsed["cambios_realizados"].([]interface{}); ok {
			for _, c := range cambios {
				fmt.Fprintf(&b, "- %v\n", c)
			}
		}
		if metrics, ok := parsed["metricas_mejora"].(map[string]interface{}); ok {
			b.WriteString("\nMÉTRICAS:\n")
			fmt.Fprintf(&b, "Precisión: %v/10\n", metrics["precision_extraccion"])
			fmt.Fprintf(&b, "Claridad: %v/10\n", metrics["claridad_instrucciones"])
			fmt.Fprintf(&b, "Robustez: %v/10\n", metrics["robustez_formato"])
		}
	} else {
		runes := []rune(raw)
		if len(runes) > 500 {
			runes = runes[:500]
		}
		fmt.Fprintf(&b, "ERROR PARSEANDO\n%s", string(runes))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("error al guardar la iteración %d: %w", iteration, err)
	}
	return path, nil
}

// getLatestPrompt recupera el prompt de la iteración más reciente
func (t *PromptTrainer) getLatestPrompt() string {
	matches, err := filepath.Glob(filepath.Join(t.cfg.Directorios.IterationsDir, "iteration_*.txt"))
	if err != nil || len(matches) == 0 {
		return ""
	}

	var latest string
	var latestMod time.Time
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if info.ModTime().After(latestMod) {
			latestMod = info.ModTime()
			latest = m
		}
	}

	data, err := os.ReadFile(latest)
	if err != nil {
		return ""
	}

	content := string(data)
	if idx := strings.Index(content, "PROMPT:"); idx >= 0 {
		rest := content[idx+len("PROMPT:"):]
		if end := strings.Index(rest, "CAMBIOS:"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	return ""
}

// Train ejecuta el ciclo de entrenamiento completo
func (t *PromptTrainer) Train(ctx context.Context, maxIter int) error {
	t.logger.Info(headerSeparator)
	t.logger.Info("🚀 ENTRENAMIENTO DE PROMPT DE ANÁLISIS")
	t.logger.Info(headerSeparator)

	dataset, err := t.loadDataset()
	if err != nil {
		return err
	}
	context_ := t.generateContext(dataset)
	t.logger.Info("%s", context_)

	// Punto de inicio: última iteración guardada o el prompt base
	var current string
	var iteration int
	if prev := t.getLatestPrompt(); prev != "" {
		current = prev
		iteration = t.state.CurrentIteration + 1
		t.logger.Info("🔄 Continuando desde la iteración %d", iteration)
	} else {
		current = ensureAnchor(initialPrompt)
		iteration = 1
		if _, err := t.saveIteration(0, "BASELINE", nil, current, validateSize(current)); err != nil {
			t.logger.Error("Error al guardar el baseline: %v", err)
		}
		t.logger.Info("💾 Baseline guardado")
	}

	t.logger.Info("🎯 Meta: %d iteraciones (cada %v)", maxIter, iterationInterval)

	for iteration <= maxIter {
		select {
		case <-ctx.Done():
			return t.saveState()
		default:
		}

		t.logger.Info("🔄 ITERACIÓN %d/%d", iteration, maxIter)

		current = ensureAnchor(current)
		validation := validateSize(current)
		t.logger.Info("📏 %d/2000 chars", validation.Chars)

		improved, err := t.improvePrompt(ctx, context_, current, iteration, false)
		if err != nil {
			t.logger.Error("Sin respuesta del modelo: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		parsed, err := analyzer.CleanJSONString(improved)
		if err != nil {
			t.logger.Error("Error al interpretar la respuesta: %v", err)
			if _, serr := t.saveIteration(iteration, improved, nil, current, validation); serr != nil {
				t.logger.Error("%v", serr)
			}
			iteration++
			continue
		}

		newPrompt := current
		if p, ok := parsed["prompt_mejorado"].(string); ok && p != "" {
			newPrompt = p
		}
		newPrompt = ensureAnchor(newPrompt)
		newValidation := validateSize(newPrompt)

		if newValidation.Valid {
			current = newPrompt
			t.logger.Info("✅ Optimizado (%d chars)", newValidation.Chars)

			if metrics, ok := parsed["metricas_mejora"].(map[string]interface{}); ok {
				avg := calcAvg(metrics)
				t.logger.Info("⭐ PROMEDIO: %.2f/10", avg)

				if avg > t.state.BestScore {
					t.state.BestScore = avg
					t.state.BestIteration = iteration
					if err := t.saveBest(current, iteration, avg); err != nil {
						t.logger.Error("%v", err)
					}
				}
			}
		} else {
			// El prompt excede el límite: pedimos una condensación
			t.logger.Info("⚠️ Excede el límite (%d chars), condensando...", newValidation.Chars)
			time.Sleep(2 * time.Second)

			retry, err := t.improvePrompt(ctx, context_, newPrompt, iteration, true)
			if err == nil {
				if retryParsed, perr := analyzer.CleanJSONString(retry); perr == nil {
					retryPrompt := current
					if p, ok := retryParsed["prompt_mejorado"].(string); ok && p != "" {
						retryPrompt = p
					}
					retryPrompt = ensureAnchor(retryPrompt)
					if rv := validateSize(retryPrompt); rv.Valid {
						current = retryPrompt
						parsed = retryParsed
						newValidation = rv
						t.logger.Info("✅ Condensado: %d chars", rv.Chars)
					}
				}
			}
		}

		if _, err := t.saveIteration(iteration, improved, parsed, current, newValidation); err != nil {
			t.logger.Error("%v", err)
		}

		t.state.CurrentIteration = iteration
		if err := t.saveState(); err != nil {
			t.logger.Error("%v", err)
		}

		iteration++

		if iteration <= maxIter {
			select {
			case <-ctx.Done():
				return t.saveState()
			case <-time.After(iterationInterval):
			}
		}
	}

	t.logger.Info(headerSeparator)
	t.logger.Info("🎉 ENTRENAMIENTO COMPLETADO")
	t.logger.Info("🏆 Mejor iteración: #%d | score %.2f/10", t.state.BestIteration, t.state.BestScore)
	t.logger.Info("⭐ PROMPT FINAL: %s", t.cfg.Directorios.BestPromptFile)

	t.state.RetrainsCompleted++
	return t.saveState()
}

// consumeTrigger lee y elimina el trigger del monitor. Devuelve false
// cuando no hay trigger o cuando el archivo es inválido; en ambos
// casos no debe reentrenarse.
func (t *PromptTrainer) consumeTrigger() (warehouse.RetrainTrigger, bool) {
	var trigger warehouse.RetrainTrigger

	data, err := os.ReadFile(t.cfg.Directorios.TriggerFile)
	if err != nil {
		return trigger, false // sin trigger
	}

	if err := os.Remove(t.cfg.Directorios.TriggerFile); err != nil {
		t.logger.Error("No se pudo eliminar el trigger: %v", err)
	}

	if err := json.Unmarshal(data, &trigger); err != nil {
		t.logger.Error("Trigger inválido, se descarta: %v", err)
		return trigger, false
	}

	return trigger, true
}

// ContinuousMode espera señales de reentrenamiento del monitor y
// entrena cada vez que aparece una.
func (t *PromptTrainer) ContinuousMode(ctx context.Context, checkInterval time.Duration) {
	t.logger.Info("🎯 MODO CONTINUO (cada %v, trigger: %s)", checkInterval, t.cfg.Directorios.TriggerFile)

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	cycle := 0
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("🛑 Modo continuo detenido")
			return
		case <-ticker.C:
		}

		cycle++
		t.logger.Debug("🔍 Ciclo #%d", cycle)

		trigger, ok := t.consumeTrigger()
		if !ok {
			continue
		}

		t.logger.Info("🚨 TRIGGER DETECTADO (%d registros nuevos), reentrenando...", trigger.NewRecords)
		if err := t.Train(ctx, maxIterations); err != nil {
			t.logger.Error("Error en el reentrenamiento: %v", err)
		}
		t.logger.Info("✅ Reentrenamiento completado, volviendo a monitoreo")
	}
}

func main() {
	continuous := flag.Bool("continuous", false, "Esperar señales de reentrenamiento en lugar de entrenar una vez")
	flag.Parse()

	trainer, err := NewPromptTrainer()
	if err != nil {
		log.Fatalf("Error al crear el entrenador: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		log.Println("Señal de terminación recibida. Deteniendo el entrenador...")
		cancel()
	}()

	if *continuous {
		trainer.ContinuousMode(ctx, 60*time.Second)
	} else {
		if err := trainer.Train(ctx, maxIterations); err != nil {
			log.Fatalf("Error en el entrenamiento: %v", err)
		}
	}
}
