package analyzer

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const headerSeparator = "================================================================================"

// BuildExtractionPrompt arma el prompt de extracción para base de datos.
// Los campos y las reglas de conversión corresponden al esquema del warehouse.
func BuildExtractionPrompt(documentText, fileName string) string {
	fecha := time.Now().Format("2006-01-02")

	return fmt.Sprintf(`Eres un extractor de datos para base de datos. Analiza el documento y devuelve UN SOLO objeto JSON con estos campos:

{
  "nombre": (string, nombre del proyecto),
  "sector": (string, UNO DE: "Agua", "Energía", "Transporte", "Infraestructura", "Salud", "Educación", "Medio Ambiente", "Desarrollo Social"),
  "dependencia": (string, organismo responsable),
  "ubicacion": (string, ciudad/estado),
  "anio_inicio": (integer 4 dígitos o null),
  "anio_fin": (integer 4 dígitos o null),
  "doc_fuente": (string, nombre del documento o "%s"),
  "fecha_carga": "%s",
  "presupuesto_total_mxn": (float, convertir a número: "15 millones" = 15000000.0, "500 mil" = 500000.0, o null),
  "costo_operativo_mxn": (float, convertir a número o null),
  "costo_mantenimiento_mxn": (float, convertir a número o null),
  "costo_beneficio_estimado_mxn": (float o null),
  "eficiencia_financiera": (float 0-100 porcentaje o null),
  "riesgo_financiero": (string o null),
  "score_costo_beneficio": (float 0.0-10.0 evaluando el proyecto o null),
  "analisis_financiero": (string, resumen análisis o null),
  "resumen_observaciones": (string, notas importantes o null),
  "comparativo": (string o null),
  "beneficiarios_estimados": (float, convertir a número: "100 mil" = 100000.0, "más de 50000" = 50000.0, o null),
  "impacto_principal": (string, máximo 200 chars o null),
  "indicador_principal": (string o null),
  "impacto_fisico": (float o null),
  "kpi": (float o null)
}

REGLAS:
1. Devuelve UN SOLO objeto JSON (no array, no múltiples objetos)
2. CONVERSIÓN DE NÚMEROS:
   - "15 millones de pesos" → 15000000.0
   - "más de 15 millones" → 15000000.0
   - "500 mil pesos" → 500000.0
   - "100 mil habitantes" → 100000.0
   - "más de 50,000 personas" → 50000.0
3. años como integers: 2024, 2025 (NO strings)
4. Si no existe dato: null
5. COHERENCIA: Si dice "mediano plazo" desde 2024 → anio_fin: 2026
6. score_costo_beneficio: Evalúa 0-10 según viabilidad del proyecto
7. NO inventes datos, pero sí convierte textos a números cuando sea posible
8. Responde SOLO el JSON, sin texto adicional

DOCUMENTO:
%s`, fileName, fecha, documentText)
}

// LoadBestPrompt carga el mejor prompt producido por el entrenador.
// El archivo lleva un encabezado con separadores que aquí se descarta.
func LoadBestPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("no se pudo leer el prompt optimizado %s: %w", path, err)
	}

	content := string(data)

	if idx := strings.Index(content, "PROMPT OPTIMIZADO:"); idx != -1 {
		rest := content[idx+len("PROMPT OPTIMIZADO:"):]
		if sep := strings.Index(rest, headerSeparator); sep != -1 {
			rest = rest[:sep]
		}
		return strings.TrimSpace(rest), nil
	}

	// Con encabezado completo (dos separadores o más) el prompt queda
	// después del último; un separador suelto forma parte del prompt
	if parts := strings.Split(content, headerSeparator); len(parts) > 2 {
		return strings.TrimSpace(parts[len(parts)-1]), nil
	}

	return strings.TrimSpace(content), nil
}

// FallbackPrompt es el prompt mínimo cuando aún no existe uno entrenado
func FallbackPrompt() string {
	return "Analiza el proyecto y extrae datos clave.\n" +
		"Retorna JSON con: nombre, sector, presupuesto_total_mxn, beneficiarios_estimados, " +
		"score_costo_beneficio (0-10), analisis_financiero, riesgo_financiero, recomendaciones."
}

// ApplyDocument inserta el texto del documento en un prompt entrenado.
// Los prompts del entrenador usan el marcador {DOCUMENTO}; si no está,
// el documento se agrega al final.
func ApplyDocument(prompt, documentText string) string {
	if strings.Contains(prompt, "{DOCUMENTO}") {
		return strings.ReplaceAll(prompt, "{DOCUMENTO}", documentText)
	}
	return prompt + "\n\nDOCUMENTO:\n" + documentText
}
